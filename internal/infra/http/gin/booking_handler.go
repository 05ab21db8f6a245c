package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/dto"
	bookingapp "motelbook/internal/app/handlers/booking"
	"motelbook/internal/app/queries"
	"motelbook/internal/domain/shared/calday"
)

const idempotencyKeyHeader = "Idempotency-Key"

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type bookingRequest struct {
	HotelID         string     `json:"hotel_id"`
	RoomID          string     `json:"room_id"`
	SiteID          string     `json:"site_id"`
	ClientName      string     `json:"client_name"`
	ClientEmail     string     `json:"client_email"`
	ClientPhone     string     `json:"client_phone"`
	ClientAddress   string     `json:"client_address"`
	CheckIn         calday.Day `json:"check_in"`
	CheckOut        calday.Day `json:"check_out"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	PaymentReceived bool       `json:"payment_received"`
	PaymentDate     calday.Day `json:"payment_date"`
	InvoiceNumber   string     `json:"invoice_number"`
	Status          string     `json:"status"`
}

func (r bookingRequest) fields() bookingapp.BookingFields {
	return bookingapp.BookingFields{
		HotelID:         strings.TrimSpace(r.HotelID),
		RoomID:          strings.TrimSpace(r.RoomID),
		SiteID:          strings.TrimSpace(r.SiteID),
		ClientName:      r.ClientName,
		ClientEmail:     strings.TrimSpace(r.ClientEmail),
		ClientPhone:     strings.TrimSpace(r.ClientPhone),
		ClientAddress:   r.ClientAddress,
		CheckIn:         r.CheckIn,
		CheckOut:        r.CheckOut,
		AmountCents:     r.Amount,
		Currency:        r.Currency,
		PaymentReceived: r.PaymentReceived,
		PaymentDate:     r.PaymentDate,
		InvoiceNumber:   r.InvoiceNumber,
		Status:          r.Status,
	}
}

func (h BookingHandler) List(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	q := bookingapp.ListBookingsQuery{
		Actor:   actor,
		HotelID: c.Query("hotel_id"),
		Status:  c.Query("status"),
	}
	if raw := c.Query("date"); raw != "" {
		day, err := calday.ParseDay(raw)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		q.Date = day
	}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, *dto.BookingList](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Calendar(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	q := bookingapp.CalendarMarksQuery{Actor: actor, HotelID: c.Query("hotel_id")}
	result, err := queries.Ask[bookingapp.CalendarMarksQuery, *dto.CalendarMarks](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	q := bookingapp.GetBookingQuery{Actor: actor, BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, *dto.Booking](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		Actor:           actor,
		BookingID:       uuid.NewString(),
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(idempotencyKeyHeader)),
		BookingFields:   req.fields(),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.BookingWriteResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	cmd := bookingapp.UpdateBookingCommand{
		Actor:         actor,
		BookingID:     c.Param("id"),
		BookingFields: req.fields(),
	}
	result, err := commands.Dispatch[bookingapp.UpdateBookingCommand, *dto.BookingWriteResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	cmd := bookingapp.CancelBookingCommand{Actor: actor, BookingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.BookingWriteResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c, false)
	if !ok {
		return
	}
	cmd := bookingapp.DeleteBookingCommand{Actor: actor, BookingID: c.Param("id")}
	if _, err := commands.Dispatch[bookingapp.DeleteBookingCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
