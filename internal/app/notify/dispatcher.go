package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"motelbook/internal/app/policies"
	"motelbook/internal/domain/notification"
	domainuser "motelbook/internal/domain/user"
)

// DeliveryObserver counts push deliveries by outcome ("ok" or "error").
type DeliveryObserver interface {
	NotificationDelivered(outcome string)
}

// Dispatcher fans booking notifications out to every admin with a device.
// With Receipts set, each push of an event is recorded so a redelivered event
// only reaches the admins that missed it.
type Dispatcher struct {
	Users    domainuser.Repository
	Push     policies.PushSender
	Receipts Inbox
	Logger   *slog.Logger
	Observer DeliveryObserver
}

// Notify sends each notification to each admin that has a push token. Every
// delivery is attempted; failures are joined into the returned error. An
// empty eventID disables receipts.
func (d *Dispatcher) Notify(ctx context.Context, eventID string, items []notification.Notification) error {
	if len(items) == 0 {
		return nil
	}
	if d.Users == nil || d.Push == nil {
		return errors.New("notify: dispatcher not configured")
	}
	admins, err := d.Users.ListByRole(ctx, domainuser.RoleAdmin)
	if err != nil {
		return fmt.Errorf("notify: load admins: %w", err)
	}
	var errs []error
	sent := 0
	for _, admin := range admins {
		if admin.PushToken == "" {
			continue
		}
		for i, n := range items {
			receipt := d.receipt(eventID, admin.ID, i)
			if receipt != "" {
				done, err := d.Receipts.Seen(ctx, receipt)
				if err != nil {
					errs = append(errs, fmt.Errorf("notify %s: receipt lookup: %w", admin.ID, err))
					continue
				}
				if done {
					continue
				}
			}
			err := d.Push.Send(ctx, admin.PushToken, n.Addressed(admin.ID))
			d.observe(err)
			if err != nil {
				errs = append(errs, fmt.Errorf("notify %s: %w", admin.ID, err))
				continue
			}
			sent++
			if receipt != "" {
				if err := d.Receipts.MarkProcessed(ctx, receipt); err != nil {
					errs = append(errs, fmt.Errorf("notify %s: receipt mark: %w", admin.ID, err))
				}
			}
		}
	}
	if sent == 0 && len(errs) == 0 {
		d.logInfo("no admin devices registered", "notifications", len(items))
		return nil
	}
	if d.Logger != nil {
		d.Logger.Debug("notifications sent", "sent", sent, "failed", len(errs))
	}
	return errors.Join(errs...)
}

// receipt keys one push of an event to one admin.
func (d *Dispatcher) receipt(eventID string, admin domainuser.ID, item int) string {
	if d.Receipts == nil || eventID == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%d", eventID, admin, item)
}

func (d *Dispatcher) observe(err error) {
	if d.Observer == nil {
		return
	}
	if err != nil {
		d.Observer.NotificationDelivered("error")
		return
	}
	d.Observer.NotificationDelivered("ok")
}

func (d *Dispatcher) logInfo(msg string, args ...any) {
	if d.Logger != nil {
		d.Logger.Info(msg, args...)
	}
}
