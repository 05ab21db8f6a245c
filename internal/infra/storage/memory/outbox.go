package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "motelbook/internal/app/outbox"
)

// Outbox buffers records until Flush, then hands them to Run. A failed record
// is retried on Backoff before it is reported.
type Outbox struct {
	Backoff []time.Duration

	mu      sync.Mutex
	pending []appoutbox.EventRecord
	ready   []appoutbox.EventRecord
	signal  chan struct{}
}

func NewOutbox() *Outbox {
	return &Outbox{signal: make(chan struct{}, 1)}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	if len(o.pending) == 0 {
		o.mu.Unlock()
		return nil
	}
	o.ready = append(o.ready, o.pending...)
	o.pending = nil
	o.mu.Unlock()

	select {
	case o.signal <- struct{}{}:
	default:
	}
	return nil
}

// Drain returns and clears the flushed records.
func (o *Outbox) Drain() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.ready
	o.ready = nil
	return out
}

// Run passes flushed records to handle until ctx ends. A record whose retries
// are spent is reported through onError and does not stop the loop.
func (o *Outbox) Run(ctx context.Context, handle func(context.Context, appoutbox.EventRecord) error, onError func(appoutbox.EventRecord, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.signal:
			for _, rec := range o.Drain() {
				if err := o.deliver(ctx, handle, rec); err != nil && onError != nil {
					onError(rec, err)
				}
			}
		}
	}
}

func (o *Outbox) deliver(ctx context.Context, handle func(context.Context, appoutbox.EventRecord) error, rec appoutbox.EventRecord) error {
	err := handle(ctx, rec)
	for _, wait := range o.Backoff {
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
		err = handle(ctx, rec)
	}
	return err
}

var _ appoutbox.Outbox = (*Outbox)(nil)
