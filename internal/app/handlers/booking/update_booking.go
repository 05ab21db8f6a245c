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

const updateBookingKey = "bookings.update"

type UpdateBookingCommand struct {
	Actor     support.Actor `validate:"-"`
	BookingID string        `validate:"required"`
	BookingFields
}

func (c UpdateBookingCommand) Key() string { return updateBookingKey }

func (c UpdateBookingCommand) ActingAs() support.Actor { return c.Actor }

type UpdateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Guard      Guard
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle locks the target unit, then re-checks availability with the booking
// itself excluded. Keeping both the unit and the dates skips the check, so
// legacy overlaps never block editing the other fields.
func (h *UpdateBookingHandler) Handle(ctx context.Context, cmd UpdateBookingCommand) (*dto.BookingWriteResult, error) {
	params, err := cmd.params()
	if err != nil {
		return nil, err
	}
	unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close(ctx)

	id := domainbooking.ID(strings.TrimSpace(cmd.BookingID))
	if err := h.Guard.Lock(ctx, unit, params.HotelID, params.Unit, string(id)); err != nil {
		return nil, err
	}

	b, err := unit.Bookings().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := hotelFor(ctx, unit, cmd.Actor, b.HotelID); err != nil {
		return nil, err
	}
	hotel, err := hotelFor(ctx, unit, cmd.Actor, params.HotelID)
	if err != nil {
		return nil, err
	}
	if _, err := unitIn(ctx, unit, hotel.ID, params.Unit); err != nil {
		return nil, err
	}

	unchanged := b.HotelID == params.HotelID && b.Unit == params.Unit && b.Range == params.Range
	if !unchanged {
		if err := h.Guard.Check(ctx, unit, hotel.ID, params.Unit, params.Range, b.ID); err != nil {
			return nil, err
		}
	}

	if err := b.Update(params, cmd.Actor.UserID, h.now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.DrainEvents()); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking updated", "booking_id", b.ID, "hotel_id", b.HotelID, "unit", b.Unit.String(), "user_id", cmd.Actor.UserID)
	}
	return &dto.BookingWriteResult{BookingID: string(b.ID), InvoiceNumber: b.InvoiceNumber, Status: string(b.Status)}, nil
}

func (h *UpdateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

var _ commands.Handler[UpdateBookingCommand, *dto.BookingWriteResult] = (*UpdateBookingHandler)(nil)
