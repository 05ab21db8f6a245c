package dto

import (
	"time"

	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

type BookingHotelSnapshot struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type BookingUnitSnapshot struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Number string `json:"number,omitempty"`
}

type BookingClient struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Booking struct {
	ID              string               `json:"id"`
	Hotel           BookingHotelSnapshot `json:"hotel"`
	Unit            BookingUnitSnapshot  `json:"unit"`
	RoomID          string               `json:"room_id,omitempty"`
	SiteID          string               `json:"site_id,omitempty"`
	Client          BookingClient        `json:"client"`
	CheckIn         calday.Day           `json:"check_in"`
	CheckOut        calday.Day           `json:"check_out"`
	Nights          int                  `json:"nights"`
	Amount          MoneyDTO             `json:"amount"`
	PaymentReceived bool                 `json:"payment_received"`
	PaymentDate     calday.Day           `json:"payment_date"`
	InvoiceNumber   string               `json:"invoice_number"`
	Status          string               `json:"status"`
	CreatedBy       string               `json:"created_by"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type BookingList struct {
	Items []Booking `json:"items"`
}

type BookingWriteResult struct {
	BookingID     string `json:"booking_id"`
	InvoiceNumber string `json:"invoice_number"`
	Status        string `json:"status"`
}

// MapBooking renders b with optional hotel and unit snapshots.
func MapBooking(b *domainbooking.Booking, h *domainhotel.Hotel, u *domaininventory.Unit) Booking {
	out := Booking{
		ID:    string(b.ID),
		Hotel: BookingHotelSnapshot{ID: string(b.HotelID)},
		Unit:  BookingUnitSnapshot{ID: string(b.Unit.ID), Kind: string(b.Unit.Kind)},
		Client: BookingClient{
			Name:    b.Client.Name,
			Email:   b.Client.Email,
			Phone:   b.Client.Phone,
			Address: b.Client.Address,
		},
		CheckIn:         b.Range.CheckIn,
		CheckOut:        b.Range.CheckOut,
		Nights:          b.Range.Nights(),
		Amount:          MapMoney(b.Amount),
		PaymentReceived: b.Payment.Received,
		PaymentDate:     b.Payment.Date,
		InvoiceNumber:   b.InvoiceNumber,
		Status:          string(b.Status),
		CreatedBy:       string(b.CreatedBy),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	switch b.Unit.Kind {
	case domaininventory.KindRoom:
		out.RoomID = string(b.Unit.ID)
	case domaininventory.KindSite:
		out.SiteID = string(b.Unit.ID)
	}
	if h != nil {
		out.Hotel.Name = h.Name
		out.Hotel.Address = h.Address
	}
	if u != nil {
		out.Unit.Number = u.Number
	}
	return out
}
