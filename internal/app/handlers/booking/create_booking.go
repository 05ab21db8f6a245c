package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/middleware"
	"motelbook/internal/app/outbox"
	"motelbook/internal/app/uow"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/daterange"
	"motelbook/internal/domain/shared/money"
)

const createBookingKey = "bookings.create"

// BookingFields are the form fields shared by create and update.
type BookingFields struct {
	HotelID         string     `validate:"required"`
	RoomID          string     `validate:"required_without=SiteID,excluded_with=SiteID"`
	SiteID          string     `validate:"required_without=RoomID"`
	ClientName      string     `validate:"required"`
	ClientEmail     string     `validate:"required,email"`
	ClientPhone     string     `validate:"required,phone10"`
	ClientAddress   string     `validate:"required"`
	CheckIn         calday.Day `validate:"-"`
	CheckOut        calday.Day `validate:"-"`
	AmountCents     int64      `validate:"gt=0"`
	Currency        string     `validate:"omitempty,len=3"`
	PaymentReceived bool
	PaymentDate     calday.Day `validate:"-"`
	InvoiceNumber   string
	Status          string `validate:"omitempty,oneof=Confirmed Active confirmed active"`
}

func (f BookingFields) params() (domainbooking.Params, error) {
	ref, err := domainbooking.UnitFromIDs(f.RoomID, f.SiteID)
	if err != nil {
		return domainbooking.Params{}, err
	}
	dr, err := daterange.WithDefaultCheckOut(f.CheckIn, f.CheckOut)
	if err != nil {
		return domainbooking.Params{}, err
	}
	amount, err := money.New(f.AmountCents, f.Currency)
	if err != nil {
		return domainbooking.Params{}, err
	}
	var status domainbooking.Status
	if strings.TrimSpace(f.Status) != "" {
		if status, err = domainbooking.ParseStatus(f.Status); err != nil {
			return domainbooking.Params{}, err
		}
	}
	return domainbooking.Params{
		HotelID: domainhotel.ID(strings.TrimSpace(f.HotelID)),
		Unit:    ref,
		Client: domainbooking.Client{
			Name:    f.ClientName,
			Email:   f.ClientEmail,
			Phone:   f.ClientPhone,
			Address: f.ClientAddress,
		},
		Range:         dr,
		Amount:        amount,
		Payment:       domainbooking.Payment{Received: f.PaymentReceived, Date: f.PaymentDate},
		InvoiceNumber: f.InvoiceNumber,
		Status:        status,
	}, nil
}

type CreateBookingCommand struct {
	Actor           support.Actor `validate:"-"`
	BookingID       string
	IdempotencyKeyV string
	BookingFields
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) ActingAs() support.Actor { return c.Actor }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.BookingWriteResult{} }

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Guard      Guard
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.BookingWriteResult, error) {
	params, err := cmd.params()
	if err != nil {
		return nil, err
	}
	unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close(ctx)

	id := strings.TrimSpace(cmd.BookingID)
	if id == "" {
		id = uuid.NewString()
	}
	if err := h.Guard.Lock(ctx, unit, params.HotelID, params.Unit, id); err != nil {
		return nil, err
	}

	hotel, err := hotelFor(ctx, unit, cmd.Actor, params.HotelID)
	if err != nil {
		return nil, err
	}
	if _, err := unitIn(ctx, unit, hotel.ID, params.Unit); err != nil {
		return nil, err
	}
	if err := h.Guard.Check(ctx, unit, hotel.ID, params.Unit, params.Range, ""); err != nil {
		return nil, err
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.ID(id),
		CreatedBy: cmd.Actor.UserID,
		Now:       h.now(),
		Params:    params,
	})
	if err != nil {
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
		h.Logger.Info("booking created", "booking_id", b.ID, "hotel_id", b.HotelID, "unit", b.Unit.String(), "check_in", b.Range.CheckIn.String(), "user_id", cmd.Actor.UserID)
	}
	return &dto.BookingWriteResult{BookingID: string(b.ID), InvoiceNumber: b.InvoiceNumber, Status: string(b.Status)}, nil
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

var _ commands.Handler[CreateBookingCommand, *dto.BookingWriteResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
var _ support.Acting = CreateBookingCommand{}
