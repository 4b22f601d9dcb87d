// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/kneader-monitor/internal/archive"
	"github.com/tamzrod/kneader-monitor/internal/status"
)

// Named pairs a sink with the label used in error messages.
type Named struct {
	Name   string
	Writer Writer
}

// Multi fans out to every sink. One failing sink does not stop the others.
type Multi []Named

func (m Multi) WriteState(ctx context.Context, s status.DeviceState) error {
	var errs []string
	for _, n := range m {
		if err := n.Writer.WriteState(ctx, s); err != nil {
			errs = append(errs, fmt.Sprintf("%s: state address=%d: %v", n.Name, s.Address, err))
		}
	}
	return joinErrs(errs)
}

func (m Multi) WriteEvent(ctx context.Context, r archive.Record) error {
	var errs []string
	for _, n := range m {
		if err := n.Writer.WriteEvent(ctx, r); err != nil {
			errs = append(errs, fmt.Sprintf("%s: event kneader=%s: %v", n.Name, r.Kneader, err))
		}
	}
	return joinErrs(errs)
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New("writer: " + strings.Join(errs, " | "))
}
