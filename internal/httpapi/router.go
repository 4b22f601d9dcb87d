// internal/httpapi/router.go
package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Router is a thin wrapper over http.ServeMux using method-qualified patterns.
type Router struct {
	mux *http.ServeMux
	log *zap.Logger
}

func NewRouter(log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		mux: http.NewServeMux(),
		log: log,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

	r.mux.ServeHTTP(rw, req)

	r.log.Debug("http request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", rw.status),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// statusWriter records the response code for the access log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Register wires every API route onto r.
func (h *Handler) Register(r *Router) {
	// live state
	r.Handle("GET /api/kneaders/state", h.GetState)
	r.Handle("GET /api/kneaders/events", h.StreamState)

	// configuration
	r.Handle("GET /api/kneaders", h.GetDevices)
	r.Handle("POST /api/kneaders", h.SaveDevices)
	r.Handle("GET /api/recipes", h.GetRecipes)
	r.Handle("POST /api/recipes", h.SaveRecipes)

	// archive and reports
	r.Handle("GET /api/archive", h.GetArchive)
	r.Handle("GET /api/reports/daily/{date}", h.DailyReport)
	r.Handle("GET /api/reports/weekly/{start}/{end}", h.WeeklyReport)
	r.Handle("GET /api/reports/monthly/{year}/{month}", h.MonthlyReport)
	r.Handle("GET /api/reports/available-dates", h.AvailableDates)

	// spreadsheet export
	r.Handle("POST /api/report-xls", h.ExportPosted)
	r.Handle("GET /api/reports/xlsx", h.ExportRange)
}
