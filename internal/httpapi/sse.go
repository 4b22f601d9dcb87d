// internal/httpapi/sse.go
package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/kneader-monitor/internal/status"
)

const defaultPushInterval = 50 * time.Millisecond

// StreamState pushes the snapshot list as Server-Sent Events until the
// client goes away. The first event is sent immediately.
func (h *Handler) StreamState(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	interval := h.PushInterval
	if interval <= 0 {
		interval = defaultPushInterval
	}

	log := h.logger()
	log.Debug("sse client connected", zap.String("remote", r.RemoteAddr))
	defer log.Debug("sse client disconnected", zap.String("remote", r.RemoteAddr))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := h.pushState(w); err != nil {
			return
		}
		flusher.Flush()

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *Handler) pushState(w http.ResponseWriter) error {
	body, err := status.EncodeList(h.States.List())
	if err != nil {
		return err
	}

	buf := make([]byte, 0, len(body)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, body...)
	buf = append(buf, "\n\n"...)

	_, err = w.Write(buf)
	return err
}
