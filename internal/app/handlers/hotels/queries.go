package hotels

import (
	"context"
	"strings"

	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/queries"
	"motelbook/internal/app/uow"
	domainhotel "motelbook/internal/domain/hotel"
)

const (
	listHotelsKey = "hotels.list"
	getHotelKey   = "hotels.get"
)

// ListHotelsQuery returns every hotel for admins and the assigned hotels for
// staff.
type ListHotelsQuery struct {
	Actor support.Actor `validate:"-"`
}

func (q ListHotelsQuery) Key() string             { return listHotelsKey }
func (q ListHotelsQuery) ActingAs() support.Actor { return q.Actor }

type GetHotelQuery struct {
	Actor   support.Actor `validate:"-"`
	HotelID string        `validate:"required"`
}

func (q GetHotelQuery) Key() string             { return getHotelKey }
func (q GetHotelQuery) ActingAs() support.Actor { return q.Actor }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QueryHandler) List() queries.Handler[ListHotelsQuery, *dto.HotelList] {
	return queries.HandlerFunc[ListHotelsQuery, *dto.HotelList](func(ctx context.Context, q ListHotelsQuery) (*dto.HotelList, error) {
		unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		var items []*domainhotel.Hotel
		if q.Actor.IsAdmin() {
			items, err = unit.Hotels().List(ctx)
		} else {
			items, err = unit.Hotels().ListForStaff(ctx, q.Actor.UserID)
		}
		if err != nil {
			return nil, err
		}
		out := dto.MapHotels(items)
		return &out, nil
	})
}

func (h *QueryHandler) Get() queries.Handler[GetHotelQuery, *dto.Hotel] {
	return queries.HandlerFunc[GetHotelQuery, *dto.Hotel](func(ctx context.Context, q GetHotelQuery) (*dto.Hotel, error) {
		unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		hotel, err := unit.Hotels().ByID(ctx, domainhotel.ID(strings.TrimSpace(q.HotelID)))
		if err != nil {
			return nil, err
		}
		if !q.Actor.CanAccessHotel(hotel) {
			return nil, support.ErrForbidden
		}
		out := dto.MapHotel(hotel)
		return &out, nil
	})
}
