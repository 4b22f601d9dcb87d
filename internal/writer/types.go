// internal/writer/types.go
package writer

import (
	"context"

	"github.com/tamzrod/kneader-monitor/internal/archive"
	"github.com/tamzrod/kneader-monitor/internal/status"
)

// Writer delivers device states and archived doses to one outbound target.
// Delivery only: no detection, no persistence decisions.
type Writer interface {
	WriteState(ctx context.Context, s status.DeviceState) error
	WriteEvent(ctx context.Context, r archive.Record) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) WriteState(context.Context, status.DeviceState) error { return nil }
func (Nop) WriteEvent(context.Context, archive.Record) error     { return nil }
