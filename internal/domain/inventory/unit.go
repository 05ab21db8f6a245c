package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"motelbook/internal/domain/hotel"
	"motelbook/internal/domain/shared/money"
)

var (
	ErrIDRequired     = errors.New("inventory: id is required")
	ErrNotFound       = errors.New("inventory: unit not found")
	ErrNumberRequired = errors.New("inventory: unit number is required")
	ErrHotelRequired  = errors.New("inventory: hotel is required")
	ErrInvalidKind    = errors.New("inventory: kind must be room or site")
	ErrInvalidPrice   = errors.New("inventory: price must not be negative")
	ErrTypeNotFound   = errors.New("inventory: unit type not found")
	ErrNumberTaken    = errors.New("inventory: unit number already used in this hotel")
)

type ID string

// Kind separates the two bookable inventories. Rooms and sites never share a
// conflict set.
type Kind string

const (
	KindRoom Kind = "room"
	KindSite Kind = "site"
)

func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "room", "rooms":
		return KindRoom, nil
	case "site", "sites":
		return KindSite, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Valid() bool { return k == KindRoom || k == KindSite }

// Unit is a bookable room or campsite.
type Unit struct {
	ID        ID
	HotelID   hotel.ID
	Kind      Kind
	Number    string
	Price     money.Money
	TypeID    TypeID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Unit, error)
	Save(ctx context.Context, unit *Unit) error
	Delete(ctx context.Context, id ID) error
	// ListByHotel returns the hotel's units of kind; an empty kind lists both.
	ListByHotel(ctx context.Context, hotelID hotel.ID, kind Kind) ([]*Unit, error)
	List(ctx context.Context, kind Kind) ([]*Unit, error)
	CountByHotel(ctx context.Context, hotelID hotel.ID) (int, error)
}

type Params struct {
	HotelID hotel.ID
	Kind    Kind
	Number  string
	Price   money.Money
	TypeID  TypeID
}

func NewUnit(id ID, params Params, now time.Time) (*Unit, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrIDRequired
	}
	u := &Unit{ID: id}
	if err := u.apply(params); err != nil {
		return nil, err
	}
	if now.IsZero() {
		now = time.Now()
	}
	u.CreatedAt = now.UTC()
	u.UpdatedAt = u.CreatedAt
	return u, nil
}

func (u *Unit) Update(params Params, now time.Time) error {
	if err := u.apply(params); err != nil {
		return err
	}
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
	return nil
}

func (u *Unit) apply(p Params) error {
	if strings.TrimSpace(string(p.HotelID)) == "" {
		return ErrHotelRequired
	}
	if !p.Kind.Valid() {
		return ErrInvalidKind
	}
	number := strings.TrimSpace(p.Number)
	if number == "" {
		return ErrNumberRequired
	}
	if p.Price.Amount < 0 {
		return ErrInvalidPrice
	}
	u.HotelID = p.HotelID
	u.Kind = p.Kind
	u.Number = number
	u.Price = p.Price
	u.TypeID = p.TypeID
	return nil
}
