package notify

import (
	"context"
	"errors"
	"log/slog"

	"motelbook/internal/app/policies"
	domainbooking "motelbook/internal/domain/booking"
)

// InvoiceSync makes sure the booking's client exists as an accounting
// contact. It never fails the event: errors are logged.
type InvoiceSync struct {
	Invoicing policies.InvoicingPort
	Logger    *slog.Logger
}

func (s *InvoiceSync) Sync(ctx context.Context, ev domainbooking.BookingCreated) {
	if s.Invoicing == nil {
		return
	}
	email := ev.Client.Email
	if email == "" {
		return
	}
	contact, err := s.Invoicing.FindContactByEmail(ctx, email)
	if err == nil {
		s.debug("invoicing contact exists", "booking_id", ev.BookingID, "contact_id", contact.ID)
		return
	}
	if !errors.Is(err, policies.ErrContactNotFound) {
		s.warn("invoicing contact lookup failed", "booking_id", ev.BookingID, "error", err)
		return
	}
	created, err := s.Invoicing.CreateContact(ctx, policies.Contact{
		Name:         email,
		EmailAddress: email,
		PhoneNumber:  ev.Client.Phone,
		AddressLine1: ev.Client.Address,
	})
	if err != nil {
		s.warn("invoicing contact create failed", "booking_id", ev.BookingID, "error", err)
		return
	}
	s.debug("invoicing contact created", "booking_id", ev.BookingID, "contact_id", created.ID)
}

func (s *InvoiceSync) debug(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Debug(msg, args...)
	}
}

func (s *InvoiceSync) warn(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Warn(msg, args...)
	}
}
