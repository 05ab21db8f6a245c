package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"motelbook/internal/domain/hotel"
	"motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/daterange"
	"motelbook/internal/domain/shared/events"
	"motelbook/internal/domain/shared/money"
	"motelbook/internal/domain/user"
)

var (
	ErrNotFound            = errors.New("booking: not found")
	ErrIDRequired          = errors.New("booking: id is required")
	ErrHotelRequired       = errors.New("booking: hotel is required")
	ErrUnitRequired        = errors.New("booking: exactly one of room or site is required")
	ErrClientRequired      = errors.New("booking: client name, email, phone and address are required")
	ErrInvalidPhone        = errors.New("booking: client phone must be exactly 10 digits")
	ErrAmountRequired      = errors.New("booking: amount must be positive")
	ErrPaymentDateRequired = errors.New("booking: payment date is required when payment is received")
	ErrInvalidState        = errors.New("booking: invalid state transition")
	ErrInvalidStatus       = errors.New("booking: invalid status")
	ErrUnitUnavailable     = errors.New("booking: unit already booked for the requested dates")
)

type ID string

type Status string

const (
	StatusConfirmed Status = "Confirmed"
	StatusActive    Status = "Active"
	StatusCancelled Status = "Cancelled"
)

func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "confirmed":
		return StatusConfirmed, nil
	case "active":
		return StatusActive, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

// UnitRef points at the single room or site a booking occupies.
type UnitRef struct {
	Kind inventory.Kind `json:"kind"`
	ID   inventory.ID   `json:"id"`
}

func RoomRef(id inventory.ID) UnitRef { return UnitRef{Kind: inventory.KindRoom, ID: id} }

func SiteRef(id inventory.ID) UnitRef { return UnitRef{Kind: inventory.KindSite, ID: id} }

// UnitFromIDs builds a ref from the room_id/site_id pair, which must have
// exactly one side set.
func UnitFromIDs(roomID, siteID string) (UnitRef, error) {
	roomID, siteID = strings.TrimSpace(roomID), strings.TrimSpace(siteID)
	switch {
	case roomID != "" && siteID == "":
		return RoomRef(inventory.ID(roomID)), nil
	case siteID != "" && roomID == "":
		return SiteRef(inventory.ID(siteID)), nil
	default:
		return UnitRef{}, ErrUnitRequired
	}
}

func (r UnitRef) IsZero() bool { return r.ID == "" }

func (r UnitRef) Valid() bool { return r.Kind.Valid() && strings.TrimSpace(string(r.ID)) != "" }

func (r UnitRef) String() string { return string(r.Kind) + ":" + string(r.ID) }

type Client struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (c Client) normalize() Client {
	return Client{
		Name:    strings.TrimSpace(c.Name),
		Email:   user.NormalizeEmail(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}

func (c Client) validate() error {
	if c.Name == "" || c.Email == "" || c.Phone == "" || c.Address == "" {
		return ErrClientRequired
	}
	if len(c.Phone) != 10 {
		return ErrInvalidPhone
	}
	for _, r := range c.Phone {
		if r < '0' || r > '9' {
			return ErrInvalidPhone
		}
	}
	return nil
}

type Payment struct {
	Received bool       `json:"received"`
	Date     calday.Day `json:"date"`
}

func (p Payment) normalize() (Payment, error) {
	if !p.Received {
		return Payment{}, nil
	}
	if p.Date.IsZero() {
		return Payment{}, ErrPaymentDateRequired
	}
	return p, nil
}

type Booking struct {
	ID            ID
	HotelID       hotel.ID
	Unit          UnitRef
	Client        Client
	Range         daterange.DateRange
	Amount        money.Money
	Payment       Payment
	InvoiceNumber string
	Status        Status
	CreatedBy     user.ID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

// Filter narrows booking listings. Zero fields do not filter.
type Filter struct {
	HotelID    hotel.ID
	CreatedBy  user.ID
	CheckInDay calday.Day
	Status     Status
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id ID) error
	List(ctx context.Context, filter Filter) ([]*Booking, error)
	Count(ctx context.Context, filter Filter) (int, error)
	// RecordsByHotel returns the raw conflict inputs for a hotel, tolerating
	// legacy date shapes.
	RecordsByHotel(ctx context.Context, hotelID hotel.ID) ([]Record, error)
}

// Params are the editable fields shared by create and update.
type Params struct {
	HotelID       hotel.ID
	Unit          UnitRef
	Client        Client
	Range         daterange.DateRange
	Amount        money.Money
	Payment       Payment
	InvoiceNumber string
	Status        Status
}

type CreateParams struct {
	ID        ID
	CreatedBy user.ID
	Now       time.Time
	Params
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	b := &Booking{ID: params.ID, CreatedBy: params.CreatedBy, Status: StatusConfirmed}
	if err := b.apply(params.Params, now); err != nil {
		return nil, err
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Record(BookingCreated{
		BookingID:       b.ID,
		HotelID:         b.HotelID,
		Unit:            b.Unit,
		Client:          b.Client,
		Range:           b.Range,
		Amount:          b.Amount,
		PaymentReceived: b.Payment.Received,
		InvoiceNumber:   b.InvoiceNumber,
		CreatedBy:       b.CreatedBy,
		At:              now,
	})
	return b, nil
}

// Update replaces the editable fields. Flipping the payment flag also
// records PaymentStatusChanged.
func (b *Booking) Update(params Params, by user.ID, now time.Time) error {
	if b.Status == StatusCancelled {
		return ErrInvalidState
	}
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	wasReceived := b.Payment.Received
	if err := b.apply(params, now); err != nil {
		return err
	}
	b.UpdatedAt = now
	b.Record(BookingUpdated{
		BookingID: b.ID,
		HotelID:   b.HotelID,
		Unit:      b.Unit,
		Client:    b.Client,
		Range:     b.Range,
		UpdatedBy: by,
		At:        now,
	})
	if wasReceived != b.Payment.Received {
		b.Record(PaymentStatusChanged{
			BookingID:  b.ID,
			HotelID:    b.HotelID,
			ClientName: b.Client.Name,
			Received:   b.Payment.Received,
			ChangedBy:  by,
			At:         now,
		})
	}
	return nil
}

// Cancel releases the unit; cancelled bookings no longer conflict.
func (b *Booking) Cancel(by user.ID, now time.Time) error {
	if b.Status == StatusCancelled {
		return ErrInvalidState
	}
	if now.IsZero() {
		now = time.Now()
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, HotelID: b.HotelID, ClientName: b.Client.Name, CancelledBy: by, At: b.UpdatedAt})
	return nil
}

// MarkDeleted records the deletion event; the repository removes the document.
func (b *Booking) MarkDeleted(by user.ID, now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	b.Record(BookingDeleted{BookingID: b.ID, HotelID: b.HotelID, DeletedBy: by, At: now.UTC()})
}

// AsRecord projects the aggregate onto the resolver input shape.
func (b *Booking) AsRecord() Record {
	rec := Record{
		ID:        b.ID,
		CheckIn:   calday.FromDay(b.Range.CheckIn),
		CheckOut:  calday.FromDay(b.Range.CheckOut),
		Cancelled: b.Status == StatusCancelled,
	}
	switch b.Unit.Kind {
	case inventory.KindRoom:
		rec.RoomID = string(b.Unit.ID)
	case inventory.KindSite:
		rec.SiteID = string(b.Unit.ID)
	}
	return rec
}

func (b *Booking) apply(p Params, now time.Time) error {
	if strings.TrimSpace(string(p.HotelID)) == "" {
		return ErrHotelRequired
	}
	if !p.Unit.Valid() {
		return ErrUnitRequired
	}
	client := p.Client.normalize()
	if err := client.validate(); err != nil {
		return err
	}
	if err := p.Range.Validate(); err != nil {
		return err
	}
	if !p.Amount.IsPositive() {
		return ErrAmountRequired
	}
	payment, err := p.Payment.normalize()
	if err != nil {
		return err
	}
	invoice := strings.TrimSpace(p.InvoiceNumber)
	if invoice == "" {
		invoice = b.InvoiceNumber
	}
	if invoice == "" {
		invoice = DefaultInvoiceNumber(now)
	}
	if p.Status != "" {
		if p.Status == StatusCancelled {
			return ErrInvalidState
		}
		if _, err := ParseStatus(string(p.Status)); err != nil {
			return err
		}
		b.Status = p.Status
	}

	b.HotelID = p.HotelID
	b.Unit = p.Unit
	b.Client = client
	b.Range = p.Range
	b.Amount = p.Amount
	b.Payment = payment
	b.InvoiceNumber = invoice
	return nil
}

// DefaultInvoiceNumber follows the INV-<unix millis> convention.
func DefaultInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%d", now.UnixMilli())
}
