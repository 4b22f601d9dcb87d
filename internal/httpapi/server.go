// internal/httpapi/server.go
package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"
)

// NewServer serves h on addr. Request contexts derive from ctx, so
// cancelling ctx ends open event streams and lets Shutdown complete.
func NewServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}
