package policies

import (
	"context"
	"errors"
)

var ErrContactNotFound = errors.New("invoicing: contact not found")

type Contact struct {
	ID           string `json:"contactId"`
	Name         string `json:"name"`
	EmailAddress string `json:"emailAddress"`
	PhoneNumber  string `json:"phoneNumber"`
	AddressLine1 string `json:"addressLine1"`
}

// InvoicingPort is the accounting system's contact API.
// FindContactByEmail returns ErrContactNotFound when no contact matches.
type InvoicingPort interface {
	FindContactByEmail(ctx context.Context, email string) (Contact, error)
	CreateContact(ctx context.Context, c Contact) (Contact, error)
}
