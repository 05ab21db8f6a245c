package notification

import (
	"fmt"

	"motelbook/internal/domain/booking"
	"motelbook/internal/domain/user"
)

type EventType string

const (
	EventTypeBooking EventType = "BOOKING"
	EventTypePayment EventType = "PAYMENT"
)

type EventSubType string

const (
	SubTypeCreated        EventSubType = "CREATED"
	SubTypeUpdated        EventSubType = "UPDATED"
	SubTypePaymentSuccess EventSubType = "PAYMENT_SUCCESS"
	SubTypePaymentPending EventSubType = "PAYMENT_PENDING"
)

type Data struct {
	RedirectRoute string `json:"redirect_route"`
	BookingID     string `json:"bookingId,omitempty"`
}

// Notification is one admin push message. RecipientID is filled per admin by
// Addressed.
type Notification struct {
	RecipientID  user.ID      `json:"recipientId"`
	EventType    EventType    `json:"eventType"`
	EventSubType EventSubType `json:"eventSubType"`
	Title        string       `json:"title"`
	Body         string       `json:"body"`
	Data         Data         `json:"data"`
	SenderID     *user.ID     `json:"senderId"`
}

// Addressed returns a copy bound to recipient.
func (n Notification) Addressed(recipient user.ID) Notification {
	n.RecipientID = recipient
	return n
}

func RedirectRoute(id booking.ID) string {
	return fmt.Sprintf("/dashboard?editBooking=%s", id)
}

func newNotification(t EventType, sub EventSubType, title, body string, id booking.ID, sender user.ID) Notification {
	n := Notification{
		EventType:    t,
		EventSubType: sub,
		Title:        title,
		Body:         body,
		Data:         Data{RedirectRoute: RedirectRoute(id), BookingID: string(id)},
	}
	if sender != "" {
		s := sender
		n.SenderID = &s
	}
	return n
}

// ForCreated builds the notifications for a new booking. Only an unpaid
// booking adds a payment notification.
func ForCreated(ev booking.BookingCreated) []Notification {
	out := []Notification{
		newNotification(EventTypeBooking, SubTypeCreated, "New Booking",
			fmt.Sprintf("You have a new booking in the system by client %s.", ev.Client.Name),
			ev.BookingID, ev.CreatedBy),
	}
	if !ev.PaymentReceived {
		out = append(out, newNotification(EventTypePayment, SubTypePaymentPending, "Payment Pending",
			fmt.Sprintf("New booking created, payment pending for booking of client %s.", ev.Client.Name),
			ev.BookingID, ev.CreatedBy))
	}
	return out
}

func ForUpdated(ev booking.BookingUpdated) Notification {
	return newNotification(EventTypeBooking, SubTypeUpdated, "Booking Updated",
		fmt.Sprintf("Booking of client %s has been updated.", ev.Client.Name),
		ev.BookingID, ev.UpdatedBy)
}

func ForPaymentChanged(ev booking.PaymentStatusChanged) Notification {
	if ev.Received {
		return paymentReceived(ev.BookingID, ev.ClientName, ev.ChangedBy)
	}
	return newNotification(EventTypePayment, SubTypePaymentPending, "Payment Pending",
		fmt.Sprintf("Payment pending for booking of client %s.", ev.ClientName),
		ev.BookingID, ev.ChangedBy)
}

func paymentReceived(id booking.ID, client string, sender user.ID) Notification {
	return newNotification(EventTypePayment, SubTypePaymentSuccess, "Payment Received",
		fmt.Sprintf("Payment received for booking of client %s.", client),
		id, sender)
}
