package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appoutbox "motelbook/internal/app/outbox"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Queue is the claim/ack side of the outbox store.
type Queue interface {
	Claim(ctx context.Context, workerID string, staleAfter time.Duration) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// RelayObserver counts relay outcomes ("sent", "failed").
type RelayObserver interface {
	OutboxRelayed(outcome string)
}

// Worker relays outbox records to the broker as CloudEvents.
type Worker struct {
	Store       Queue
	Producer    Producer
	Interval    time.Duration
	StaleAfter  time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger
	Observer    RelayObserver
	Now         func() time.Time
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
				w.logger().Error("outbox relay failed", "error", err)
			}
		}
	}
}

// Drain relays every due record and reports how many were handled.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		handled, err := w.processOnce(ctx)
		if err != nil || !handled {
			return n, err
		}
		n++
	}
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.ID, w.staleAfter())
	if err != nil || doc == nil {
		return false, err
	}
	rec := doc.Record()
	payload, headers, err := w.formatPayload(rec)
	if err == nil {
		err = w.Producer.Publish(ctx, appoutbox.TopicFor(w.TopicPrefix, rec.Name), rec.Aggregate, payload, headers)
	}
	if err != nil {
		w.observe("failed")
		w.logger().Warn("outbox publish failed", "event_id", rec.ID, "name", rec.Name, "attempts", doc.Attempts+1, "error", err)
		return true, w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	w.observe("sent")
	return true, w.Store.MarkSent(ctx, doc.ID)
}

func (w *Worker) formatPayload(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	env, err := appoutbox.NewEnvelope(rec, w.source())
	if err != nil {
		return nil, nil, err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{"content-type": appoutbox.CloudEventsContent}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) staleAfter() time.Duration {
	if w.StaleAfter <= 0 {
		return time.Minute
	}
	return w.StaleAfter
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	if attempts < len(w.Backoff) {
		return now.Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return now.Add(w.Backoff[len(w.Backoff)-1])
	}
	return now.Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://motelbook"
}

func (w *Worker) observe(outcome string) {
	if w.Observer != nil {
		w.Observer.OutboxRelayed(outcome)
	}
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
