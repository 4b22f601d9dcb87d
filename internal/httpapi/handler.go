// internal/httpapi/handler.go
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/kneader-monitor/internal/archive"
	cfg "github.com/tamzrod/kneader-monitor/internal/config"
	"github.com/tamzrod/kneader-monitor/internal/recipe"
	"github.com/tamzrod/kneader-monitor/internal/status"
)

const dateLayout = "2006-01-02"

// Handler serves the monitor API. Every dependency is safe for concurrent use.
type Handler struct {
	States  *status.Store
	Archive *archive.Store
	Devices *cfg.DeviceFile
	Recipes *recipe.File

	// PushInterval is the SSE publish period.
	PushInterval time.Duration

	Log *zap.Logger
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// ---- live state ----

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	body, err := status.EncodeList(h.States.List())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// ---- configuration ----

func (h *Handler) GetDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.Devices.Load()
	if err != nil {
		h.logger().Warn("device list read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "device list unavailable: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg.DeviceList{Kneaders: devices})
}

// SaveDevices replaces the device list. The scheduler picks it up on its next cycle.
func (h *Handler) SaveDevices(w http.ResponseWriter, r *http.Request) {
	var dl cfg.DeviceList
	if err := readBodyJSON(r, maxConfigBody, &dl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if err := h.Devices.Save(dl.Kneaders); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger().Info("device list replaced", zap.Int("kneaders", len(dl.Kneaders)))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) GetRecipes(w http.ResponseWriter, r *http.Request) {
	if err := h.Recipes.EnsureExists(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	book, err := h.Recipes.Load()
	if err != nil {
		h.logger().Warn("recipe table read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "recipe table unavailable: "+err.Error())
		return
	}
	if book.Recipes == nil {
		book.Recipes = []recipe.Recipe{}
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) SaveRecipes(w http.ResponseWriter, r *http.Request) {
	var book recipe.Book
	if err := readBodyJSON(r, maxConfigBody, &book); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if err := h.Recipes.Save(book); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger().Info("recipe table replaced", zap.Int("recipes", len(book.Recipes)))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ---- archive and reports ----

func (h *Handler) GetArchive(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Archive.All()
	h.writeRecords(w, recs, err)
}

func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Archive.Day(r.PathValue("date"))
	if errors.Is(err, archive.ErrBadDate) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeRecords(w, recs, err)
}

func (h *Handler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	from, err1 := time.Parse(dateLayout, r.PathValue("start"))
	to, err2 := time.Parse(dateLayout, r.PathValue("end"))
	if err := errors.Join(err1, err2); err != nil {
		writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
		return
	}

	recs, err := h.Archive.Range(from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeRecords(w, recs, nil)
}

func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err1 := strconv.Atoi(r.PathValue("year"))
	month, err2 := strconv.Atoi(r.PathValue("month"))
	if err := errors.Join(err1, err2); err != nil {
		writeError(w, http.StatusBadRequest, "year and month must be numbers")
		return
	}

	recs, err := h.Archive.Month(year, time.Month(month))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeRecords(w, recs, nil)
}

func (h *Handler) AvailableDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.Archive.Dates()
	if err != nil {
		h.logger().Error("list archive dates failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dates)
}

func (h *Handler) writeRecords(w http.ResponseWriter, recs []archive.Record, err error) {
	if err != nil {
		h.logger().Error("archive read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []archive.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}
