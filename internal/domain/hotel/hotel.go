package hotel

import (
	"context"
	"errors"
	"strings"
	"time"

	"motelbook/internal/domain/user"
)

var (
	ErrIDRequired      = errors.New("hotel: id is required")
	ErrNameRequired    = errors.New("hotel: name is required")
	ErrAddressRequired = errors.New("hotel: address is required")
	ErrNotFound        = errors.New("hotel: not found")
	ErrHasBookings     = errors.New("hotel: hotel still has bookings")
)

type ID string

type Hotel struct {
	ID        ID
	Name      string
	Address   string
	StaffIDs  []user.ID
	PhotoURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Hotel, error)
	Save(ctx context.Context, hotel *Hotel) error
	Delete(ctx context.Context, id ID) error
	List(ctx context.Context) ([]*Hotel, error)
	ListForStaff(ctx context.Context, userID user.ID) ([]*Hotel, error)
	Count(ctx context.Context) (int, error)
}

type CreateParams struct {
	ID       ID
	Name     string
	Address  string
	StaffIDs []user.ID
	Now      time.Time
}

func NewHotel(params CreateParams) (*Hotel, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	h := &Hotel{ID: params.ID}
	if err := h.apply(params.Name, params.Address, params.StaffIDs); err != nil {
		return nil, err
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	h.CreatedAt = now.UTC()
	h.UpdatedAt = h.CreatedAt
	return h, nil
}

func (h *Hotel) Update(name, address string, staff []user.ID, now time.Time) error {
	if err := h.apply(name, address, staff); err != nil {
		return err
	}
	h.touch(now)
	return nil
}

func (h *Hotel) HasStaff(id user.ID) bool {
	for _, s := range h.StaffIDs {
		if s == id {
			return true
		}
	}
	return false
}

func (h *Hotel) SetPhoto(url string, now time.Time) {
	h.PhotoURL = strings.TrimSpace(url)
	h.touch(now)
}

func (h *Hotel) apply(name, address string, staff []user.ID) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrAddressRequired
	}
	h.Name = name
	h.Address = address
	h.StaffIDs = dedupeStaff(staff)
	return nil
}

func (h *Hotel) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	h.UpdatedAt = now.UTC()
}

func dedupeStaff(in []user.ID) []user.ID {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[user.ID]struct{}, len(in))
	out := make([]user.ID, 0, len(in))
	for _, id := range in {
		id = user.ID(strings.TrimSpace(string(id)))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
