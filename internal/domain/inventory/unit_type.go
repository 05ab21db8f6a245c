package inventory

import (
	"context"
	"errors"
	"strings"
)

var ErrTitleRequired = errors.New("inventory: unit type title is required")

type TypeID string

// UnitType is a catalog entry such as "Deluxe Double" or "Powered Site".
type UnitType struct {
	ID    TypeID
	Slug  string
	Title string
	Kind  Kind
}

type TypeRepository interface {
	List(ctx context.Context, kind Kind) ([]*UnitType, error)
	ByID(ctx context.Context, id TypeID) (*UnitType, error)
	Save(ctx context.Context, t *UnitType) error
}

func NewUnitType(id TypeID, kind Kind, title string) (*UnitType, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrIDRequired
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	return &UnitType{ID: id, Slug: slugify(title), Title: title, Kind: kind}, nil
}

func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
