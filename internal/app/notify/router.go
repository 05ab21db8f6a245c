package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"motelbook/internal/app/outbox"
	domainbooking "motelbook/internal/domain/booking"
	"motelbook/internal/domain/notification"
)

// ErrMalformedEvent marks an event that can never be handled, however often
// it is redelivered.
var ErrMalformedEvent = errors.New("notify: malformed event")

// Inbox remembers processed event ids so redeliveries are skipped.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// Router turns booking events into side effects.
type Router struct {
	Dispatcher *Dispatcher
	Invoices   *InvoiceSync
	Inbox      Inbox
	Source     string
	Logger     *slog.Logger
}

// HandleRecord serves the in-process relay of the memory outbox.
func (r *Router) HandleRecord(ctx context.Context, rec outbox.EventRecord) error {
	env, err := outbox.NewEnvelope(rec, r.Source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	return r.Handle(ctx, env)
}

// HandleMessage serves raw CloudEvents from the broker.
func (r *Router) HandleMessage(ctx context.Context, raw []byte) error {
	env, err := outbox.DecodeEnvelope(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	return r.Handle(ctx, env)
}

// SkipMalformed wraps next so malformed events are logged and acknowledged
// instead of blocking the stream behind them.
func SkipMalformed(next func(context.Context, []byte) error, logger *slog.Logger) func(context.Context, []byte) error {
	return func(ctx context.Context, raw []byte) error {
		err := next(ctx, raw)
		if errors.Is(err, ErrMalformedEvent) {
			if logger != nil {
				logger.Error("malformed booking event dropped", "error", err)
			}
			return nil
		}
		return err
	}
}

// Handle dispatches env by event name. The event is marked processed only
// when every push succeeded, so a failed delivery is retried.
func (r *Router) Handle(ctx context.Context, env outbox.Envelope) error {
	if r.Inbox != nil {
		seen, err := r.Inbox.Seen(ctx, env.ID)
		if err != nil {
			return fmt.Errorf("notify: inbox lookup: %w", err)
		}
		if seen {
			r.debug("event already processed", "event_id", env.ID, "type", env.Type)
			return nil
		}
	}

	items, err := r.route(ctx, env)
	if err != nil {
		return err
	}
	if r.Dispatcher != nil {
		if err := r.Dispatcher.Notify(ctx, env.ID, items); err != nil {
			return err
		}
	}
	if r.Inbox != nil {
		if err := r.Inbox.MarkProcessed(ctx, env.ID); err != nil {
			return fmt.Errorf("notify: inbox mark: %w", err)
		}
	}
	return nil
}

func (r *Router) route(ctx context.Context, env outbox.Envelope) ([]notification.Notification, error) {
	switch env.EventName() {
	case domainbooking.EventCreated:
		var ev domainbooking.BookingCreated
		if err := decode(env, &ev); err != nil {
			return nil, err
		}
		if r.Invoices != nil {
			r.Invoices.Sync(ctx, ev)
		}
		return notification.ForCreated(ev), nil
	case domainbooking.EventUpdated:
		var ev domainbooking.BookingUpdated
		if err := decode(env, &ev); err != nil {
			return nil, err
		}
		return []notification.Notification{notification.ForUpdated(ev)}, nil
	case domainbooking.EventPaymentStatusChanged:
		var ev domainbooking.PaymentStatusChanged
		if err := decode(env, &ev); err != nil {
			return nil, err
		}
		return []notification.Notification{notification.ForPaymentChanged(ev)}, nil
	default:
		r.debug("event ignored", "event_id", env.ID, "type", env.Type)
		return nil, nil
	}
}

func decode(env outbox.Envelope, out any) error {
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrMalformedEvent, env.Type, err)
	}
	return nil
}

func (r *Router) debug(msg string, args ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, args...)
	}
}
