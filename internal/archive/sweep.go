// internal/archive/sweep.go
package archive

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// SweepReport summarises one integrity pass.
type SweepReport struct {
	Checked     int
	Quarantined []string
	Created     string
}

// Sweep checks every day file, quarantines the ones that do not parse
// (backup + reset to an empty array) and makes sure today's file exists.
func (s *Store) Sweep() (SweepReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.files()
	if err != nil {
		return SweepReport{}, err
	}

	var rep SweepReport
	var errs []error

	for _, name := range files {
		path := filepath.Join(s.dir, name)
		rep.Checked++

		if _, err := readFile(path); err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}

		backup, err := s.backup(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := writeFile(path, nil); err != nil {
			errs = append(errs, err)
			continue
		}
		rep.Quarantined = append(rep.Quarantined, name)
		s.log.Warn("quarantined corrupt archive file",
			zap.String("file", path),
			zap.String("backup", backup),
		)
	}

	today := s.PathFor(DateOf(s.now()))
	if _, err := readFile(today); errors.Is(err, fs.ErrNotExist) {
		if err := writeFile(today, nil); err != nil {
			errs = append(errs, err)
		} else {
			rep.Created = filepath.Base(today)
		}
	}

	return rep, errors.Join(errs...)
}

// RunSweeper sweeps every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rep, err := s.Sweep()
			if err != nil {
				s.log.Error("archive sweep failed", zap.Error(err))
				continue
			}
			s.log.Debug("archive sweep",
				zap.Int("checked", rep.Checked),
				zap.Strings("quarantined", rep.Quarantined),
			)
		}
	}
}
