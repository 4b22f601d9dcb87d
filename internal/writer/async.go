// internal/writer/async.go
package writer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/kneader-monitor/internal/archive"
	"github.com/tamzrod/kneader-monitor/internal/status"
)

// ErrQueueFull is returned when the Async queue cannot take another item.
var ErrQueueFull = errors.New("writer: queue full")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("writer: closed")

type job struct {
	state *status.DeviceState
	event *archive.Record
}

// Async hands writes to a single consumer goroutine through a bounded
// queue, so the caller never waits on the network. Items are delivered in
// submission order; when the queue is full new items are dropped.
type Async struct {
	next    Writer
	log     *zap.Logger
	timeout time.Duration

	q    chan job
	done chan struct{}

	mu     sync.RWMutex
	closed bool

	dropped atomic.Int64
}

// NewAsync starts the consumer. timeout bounds each delivery.
func NewAsync(next Writer, size int, timeout time.Duration, log *zap.Logger) *Async {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	a := &Async{
		next:    next,
		log:     log.With(zap.String("component", "writer")),
		timeout: timeout,
		q:       make(chan job, size),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) WriteState(_ context.Context, s status.DeviceState) error {
	return a.enqueue(job{state: &s})
}

func (a *Async) WriteEvent(_ context.Context, r archive.Record) error {
	return a.enqueue(job{event: &r})
}

// Dropped is the number of items discarded because the queue was full.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Close stops accepting items, drains the queue and waits for the consumer.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.q)
	a.mu.Unlock()

	<-a.done
	return nil
}

func (a *Async) enqueue(j job) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}

	select {
	case a.q <- j:
		return nil
	default:
		a.dropped.Add(1)
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)

	for j := range a.q {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)

		var err error
		switch {
		case j.state != nil:
			err = a.next.WriteState(ctx, *j.state)
		case j.event != nil:
			err = a.next.WriteEvent(ctx, *j.event)
		}
		cancel()

		if err != nil {
			a.log.Warn("delivery failed", zap.Error(err))
		}
	}
}
