package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/outbox"
	"motelbook/internal/app/uow"
	domainbooking "motelbook/internal/domain/booking"
)

const (
	cancelBookingKey = "bookings.cancel"
	deleteBookingKey = "bookings.delete"
)

type CancelBookingCommand struct {
	Actor     support.Actor `validate:"-"`
	BookingID string        `validate:"required"`
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) ActingAs() support.Actor { return c.Actor }

type DeleteBookingCommand struct {
	Actor     support.Actor `validate:"-"`
	BookingID string        `validate:"required"`
}

func (c DeleteBookingCommand) Key() string { return deleteBookingKey }

func (c DeleteBookingCommand) ActingAs() support.Actor { return c.Actor }

// LifecycleHandler serves cancel and delete.
type LifecycleHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *LifecycleHandler) Cancel() commands.Handler[CancelBookingCommand, *dto.BookingWriteResult] {
	return commands.HandlerFunc[CancelBookingCommand, *dto.BookingWriteResult](func(ctx context.Context, cmd CancelBookingCommand) (*dto.BookingWriteResult, error) {
		var out *dto.BookingWriteResult
		err := h.mutate(ctx, cmd.Actor, cmd.BookingID, func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			if err := b.Cancel(cmd.Actor.UserID, h.now()); err != nil {
				return err
			}
			out = &dto.BookingWriteResult{BookingID: string(b.ID), InvoiceNumber: b.InvoiceNumber, Status: string(b.Status)}
			return unit.Bookings().Save(ctx, b)
		})
		if err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info("booking cancelled", "booking_id", cmd.BookingID, "user_id", cmd.Actor.UserID)
		}
		return out, nil
	})
}

func (h *LifecycleHandler) Delete() commands.Handler[DeleteBookingCommand, struct{}] {
	return commands.HandlerFunc[DeleteBookingCommand, struct{}](func(ctx context.Context, cmd DeleteBookingCommand) (struct{}, error) {
		err := h.mutate(ctx, cmd.Actor, cmd.BookingID, func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			b.MarkDeleted(cmd.Actor.UserID, h.now())
			return unit.Bookings().Delete(ctx, b.ID)
		})
		if err != nil {
			return struct{}{}, err
		}
		if h.Logger != nil {
			h.Logger.Info("booking deleted", "booking_id", cmd.BookingID, "user_id", cmd.Actor.UserID)
		}
		return struct{}{}, nil
	})
}

func (h *LifecycleHandler) mutate(ctx context.Context, actor support.Actor, id string, fn func(context.Context, uow.UnitOfWork, *domainbooking.Booking) error) error {
	unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return err
	}
	defer unit.Close(ctx)

	b, err := unit.Bookings().ByID(ctx, domainbooking.ID(strings.TrimSpace(id)))
	if err != nil {
		return err
	}
	if _, err := hotelFor(ctx, unit, actor, b.HotelID); err != nil {
		return err
	}
	if err := fn(ctx, unit, b); err != nil {
		return err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.DrainEvents()); err != nil {
		return err
	}
	return unit.Commit(ctx)
}

func (h *LifecycleHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
