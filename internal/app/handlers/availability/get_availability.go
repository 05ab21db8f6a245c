package availability

import (
	"context"
	"strings"

	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/queries"
	"motelbook/internal/app/uow"
	domainavailability "motelbook/internal/domain/availability"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/daterange"
)

const (
	getAvailabilityKey = "availability.get"
	getOccupancyKey    = "availability.occupancy"
)

// GetAvailabilityQuery asks which rooms and sites of a hotel are free for a
// stay. ExcludeBookingID is the booking being edited: it does not block
// itself and its unit stays selectable.
type GetAvailabilityQuery struct {
	Actor            support.Actor `validate:"-"`
	HotelID          string        `validate:"required"`
	CheckIn          calday.Day    `validate:"-"`
	CheckOut         calday.Day    `validate:"-"`
	ExcludeBookingID string
}

func (q GetAvailabilityQuery) Key() string { return getAvailabilityKey }

func (q GetAvailabilityQuery) ActingAs() support.Actor { return q.Actor }

type GetOccupancyQuery struct {
	Actor   support.Actor `validate:"-"`
	HotelID string        `validate:"required"`
	Date    calday.Day    `validate:"-"`
}

func (q GetOccupancyQuery) Key() string { return getOccupancyKey }

func (q GetOccupancyQuery) ActingAs() support.Actor { return q.Actor }

type Handler struct {
	UoWFactory uow.UoWFactory
	Resolver   domainavailability.Resolver
}

func (h *Handler) Availability() queries.Handler[GetAvailabilityQuery, *dto.Availability] {
	return queries.HandlerFunc[GetAvailabilityQuery, *dto.Availability](func(ctx context.Context, q GetAvailabilityQuery) (*dto.Availability, error) {
		dr, err := daterange.WithDefaultCheckOut(q.CheckIn, q.CheckOut)
		if err != nil {
			return nil, err
		}
		unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}

		hotel, units, records, err := load(ctx, unit, q.Actor, q.HotelID)
		if err != nil {
			return nil, err
		}

		exclude := domainbooking.ID(strings.TrimSpace(q.ExcludeBookingID))
		var keep domainbooking.UnitRef
		if exclude != "" {
			if b, err := unit.Bookings().ByID(ctx, exclude); err == nil && b.HotelID == hotel.ID {
				keep = b.Unit
			}
		}

		set := h.Resolver.Booked(records, dr, exclude)
		free, _ := domainavailability.Available(units, set, keep)
		isFree := make(map[domaininventory.ID]bool, len(free))
		for _, u := range free {
			isFree[u.ID] = true
		}

		types, err := unit.UnitTypes().List(ctx, "")
		if err != nil {
			return nil, err
		}
		index := dto.IndexUnitTypes(types)
		out := &dto.Availability{
			HotelID:  string(hotel.ID),
			CheckIn:  dr.CheckIn,
			CheckOut: dr.CheckOut,
			Rooms:    []dto.UnitAvailability{},
			Sites:    []dto.UnitAvailability{},
		}
		for _, u := range units {
			row := dto.UnitAvailability{Unit: dto.MapUnit(u, index), Booked: !isFree[u.ID]}
			if u.Kind == domaininventory.KindSite {
				out.Sites = append(out.Sites, row)
			} else {
				out.Rooms = append(out.Rooms, row)
			}
		}
		return out, nil
	})
}

func (h *Handler) Occupancy() queries.Handler[GetOccupancyQuery, *dto.Occupancy] {
	return queries.HandlerFunc[GetOccupancyQuery, *dto.Occupancy](func(ctx context.Context, q GetOccupancyQuery) (*dto.Occupancy, error) {
		if q.Date.IsZero() {
			return nil, calday.ErrInvalidDay
		}
		unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}

		hotel, units, records, err := load(ctx, unit, q.Actor, q.HotelID)
		if err != nil {
			return nil, err
		}
		set := h.Resolver.OccupiedOn(records, q.Date)

		out := &dto.Occupancy{
			HotelID: string(hotel.ID),
			Date:    q.Date,
			Rooms:   []dto.UnitOccupancy{},
			Sites:   []dto.UnitOccupancy{},
		}
		for _, u := range units {
			ref := domainbooking.UnitRef{Kind: u.Kind, ID: u.ID}
			row := dto.UnitOccupancy{Unit: dto.MapUnit(u, nil), Occupied: set.Has(ref)}
			if u.Kind == domaininventory.KindSite {
				out.Sites = append(out.Sites, row)
			} else {
				out.Rooms = append(out.Rooms, row)
			}
		}
		return out, nil
	})
}

func load(ctx context.Context, unit uow.UnitOfWork, actor support.Actor, hotelID string) (*domainhotel.Hotel, []*domaininventory.Unit, []domainbooking.Record, error) {
	hotel, err := unit.Hotels().ByID(ctx, domainhotel.ID(strings.TrimSpace(hotelID)))
	if err != nil {
		return nil, nil, nil, err
	}
	if !actor.CanAccessHotel(hotel) {
		return nil, nil, nil, support.ErrForbidden
	}
	units, err := unit.Units().ListByHotel(ctx, hotel.ID, "")
	if err != nil {
		return nil, nil, nil, err
	}
	records, err := unit.Bookings().RecordsByHotel(ctx, hotel.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return hotel, units, records, nil
}
