// cmd/kneader-monitor/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tamzrod/kneader-monitor/internal/archive"
	"github.com/tamzrod/kneader-monitor/internal/config"
	"github.com/tamzrod/kneader-monitor/internal/httpapi"
	"github.com/tamzrod/kneader-monitor/internal/logger"
	"github.com/tamzrod/kneader-monitor/internal/poller"
	"github.com/tamzrod/kneader-monitor/internal/recipe"
	"github.com/tamzrod/kneader-monitor/internal/status"
	"github.com/tamzrod/kneader-monitor/internal/writer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgPath := flag.StringP("config", "c", "config/settings.yaml", "settings file (yaml)")
	flag.Parse()

	// --------------------
	// Load + validate settings
	// --------------------

	settings, err := config.LoadSettings(*cfgPath)
	if err != nil {
		log.Fatalf("settings load failed: %v", err)
	}

	lg, err := logger.New(settings.Log.Level, settings.Log.Format, "kneader-monitor")
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(settings, lg); err != nil {
		lg.Error("kneader-monitor stopped with error", zap.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}
}

func run(settings *config.Settings, lg *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --------------------
	// Storage and files
	// --------------------

	store, err := archive.New(settings.Paths.DataDir, lg,
		archive.WithShiftOffset(time.Duration(settings.Archive.ShiftOffsetHours)*time.Hour))
	if err != nil {
		return err
	}

	recipes := &recipe.File{Path: settings.Paths.Recipes}
	if err := recipes.EnsureExists(); err != nil {
		lg.Warn("recipe table not writable", zap.String("path", recipes.Path), zap.Error(err))
	}
	devices := &config.DeviceFile{Path: settings.Paths.Devices}

	if rep, err := store.Sweep(); err != nil {
		lg.Warn("startup archive sweep failed", zap.Error(err))
	} else {
		lg.Info("archive checked",
			zap.Int("files", rep.Checked),
			zap.Strings("quarantined", rep.Quarantined),
			zap.String("created", rep.Created),
		)
	}

	// --------------------
	// Bus link and sinks
	// --------------------

	link, err := poller.BuildLink(settings.Modbus, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := link.Close(); err != nil {
			lg.Warn("modbus close failed", zap.Error(err))
		}
	}()

	out, closeSinks, err := writer.Build(ctx, settings, lg)
	if err != nil {
		return err
	}

	states := status.NewStore()

	sched, err := poller.New(poller.Config{
		BaseDelay:            settings.Modbus.PollingTime(),
		MaxConsecutiveErrors: settings.Log.MaxConsecutiveErrors,
	}, poller.Deps{
		Link:    link,
		Devices: devices,
		Recipes: recipes,
		Archive: store,
		State:   states,
		Out:     out,
		Log:     lg,
	})
	if err != nil {
		return err
	}

	// --------------------
	// HTTP API
	// --------------------

	router := httpapi.NewRouter(lg)
	(&httpapi.Handler{
		States:       states,
		Archive:      store,
		Devices:      devices,
		Recipes:      recipes,
		PushInterval: time.Duration(settings.HTTP.PushIntervalMs) * time.Millisecond,
		Log:          lg,
	}).Register(router)

	srv := httpapi.NewServer(ctx, settings.HTTP.Address, router)

	// --------------------
	// Goroutines
	// --------------------

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = sched.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		store.RunSweeper(ctx, settings.Archive.SweepInterval)
	}()

	go func() {
		lg.Info("http listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	lg.Info("kneader-monitor started",
		zap.String("modbus", settings.Modbus.Type),
		zap.String("devices", devices.Path),
		zap.String("data_dir", store.Dir()),
	)

	var runErr error
	select {
	case <-ctx.Done():
		lg.Info("shutdown requested")
	case runErr = <-errCh:
		lg.Error("http server failed", zap.Error(runErr))
		cancel()
	}

	// --------------------
	// Shutdown
	// --------------------

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http shutdown failed", zap.Error(err))
	}

	wg.Wait()

	if _, err := store.Sweep(); err != nil {
		lg.Warn("final archive sweep failed", zap.Error(err))
	}
	if err := closeSinks(); err != nil {
		lg.Warn("sink close failed", zap.Error(err))
	}

	lg.Info("kneader-monitor stopped")
	return runErr
}
