package booking

import (
	"time"

	"motelbook/internal/domain/hotel"
	"motelbook/internal/domain/shared/daterange"
	"motelbook/internal/domain/shared/money"
	"motelbook/internal/domain/user"
)

const (
	EventCreated              = "booking.created"
	EventUpdated              = "booking.updated"
	EventPaymentStatusChanged = "booking.payment_status_changed"
	EventCancelled            = "booking.cancelled"
	EventDeleted              = "booking.deleted"
)

type BookingCreated struct {
	BookingID       ID                  `json:"booking_id"`
	HotelID         hotel.ID            `json:"hotel_id"`
	Unit            UnitRef             `json:"unit"`
	Client          Client              `json:"client"`
	Range           daterange.DateRange `json:"range"`
	Amount          money.Money         `json:"amount"`
	PaymentReceived bool                `json:"payment_received"`
	InvoiceNumber   string              `json:"invoice_number"`
	CreatedBy       user.ID             `json:"created_by"`
	At              time.Time           `json:"at"`
}

func (e BookingCreated) EventName() string     { return EventCreated }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingUpdated struct {
	BookingID ID                  `json:"booking_id"`
	HotelID   hotel.ID            `json:"hotel_id"`
	Unit      UnitRef             `json:"unit"`
	Client    Client              `json:"client"`
	Range     daterange.DateRange `json:"range"`
	UpdatedBy user.ID             `json:"updated_by"`
	At        time.Time           `json:"at"`
}

func (e BookingUpdated) EventName() string     { return EventUpdated }
func (e BookingUpdated) AggregateID() string   { return string(e.BookingID) }
func (e BookingUpdated) OccurredAt() time.Time { return e.At }

type PaymentStatusChanged struct {
	BookingID  ID        `json:"booking_id"`
	HotelID    hotel.ID  `json:"hotel_id"`
	ClientName string    `json:"client_name"`
	Received   bool      `json:"received"`
	ChangedBy  user.ID   `json:"changed_by"`
	At         time.Time `json:"at"`
}

func (e PaymentStatusChanged) EventName() string     { return EventPaymentStatusChanged }
func (e PaymentStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e PaymentStatusChanged) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID   ID        `json:"booking_id"`
	HotelID     hotel.ID  `json:"hotel_id"`
	ClientName  string    `json:"client_name"`
	CancelledBy user.ID   `json:"cancelled_by"`
	At          time.Time `json:"at"`
}

func (e BookingCancelled) EventName() string     { return EventCancelled }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingDeleted struct {
	BookingID ID        `json:"booking_id"`
	HotelID   hotel.ID  `json:"hotel_id"`
	DeletedBy user.ID   `json:"deleted_by"`
	At        time.Time `json:"at"`
}

func (e BookingDeleted) EventName() string     { return EventDeleted }
func (e BookingDeleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeleted) OccurredAt() time.Time { return e.At }
