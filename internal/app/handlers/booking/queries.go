package booking

import (
	"context"
	"sort"
	"strings"

	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/queries"
	"motelbook/internal/app/uow"
	"motelbook/internal/domain/availability"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/calday"
)

const (
	getBookingKey    = "bookings.get"
	listBookingsKey  = "bookings.list"
	calendarMarksKey = "bookings.calendar_marks"
)

type GetBookingQuery struct {
	Actor     support.Actor `validate:"-"`
	BookingID string        `validate:"required"`
}

func (q GetBookingQuery) Key() string { return getBookingKey }

func (q GetBookingQuery) ActingAs() support.Actor { return q.Actor }

// ListBookingsQuery lists bookings visible to the actor: admins see all,
// staff see the ones they created.
type ListBookingsQuery struct {
	Actor   support.Actor `validate:"-"`
	HotelID string
	Date    calday.Day `validate:"-"`
	Status  string     `validate:"omitempty,oneof=Confirmed Active Cancelled confirmed active cancelled"`
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

func (q ListBookingsQuery) ActingAs() support.Actor { return q.Actor }

// CalendarMarksQuery returns the days that have check-ins, optionally for a
// single hotel.
type CalendarMarksQuery struct {
	Actor   support.Actor `validate:"-"`
	HotelID string
}

func (q CalendarMarksQuery) Key() string { return calendarMarksKey }

func (q CalendarMarksQuery) ActingAs() support.Actor { return q.Actor }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Resolver   availability.Resolver
}

func (h *QueryHandler) Get() queries.Handler[GetBookingQuery, *dto.Booking] {
	return queries.HandlerFunc[GetBookingQuery, *dto.Booking](func(ctx context.Context, q GetBookingQuery) (*dto.Booking, error) {
		unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}

		b, err := unit.Bookings().ByID(ctx, domainbooking.ID(strings.TrimSpace(q.BookingID)))
		if err != nil {
			return nil, err
		}
		hotel, err := unit.Hotels().ByID(ctx, b.HotelID)
		if err != nil {
			return nil, err
		}
		if !q.Actor.IsAdmin() && b.CreatedBy != q.Actor.UserID && !q.Actor.CanAccessHotel(hotel) {
			return nil, support.ErrForbidden
		}
		u, err := unit.Units().ByID(ctx, b.Unit.ID)
		if err != nil {
			u = nil
		}
		out := dto.MapBooking(b, hotel, u)
		return &out, nil
	})
}

func (h *QueryHandler) List() queries.Handler[ListBookingsQuery, *dto.BookingList] {
	return queries.HandlerFunc[ListBookingsQuery, *dto.BookingList](func(ctx context.Context, q ListBookingsQuery) (*dto.BookingList, error) {
		filter := domainbooking.Filter{
			HotelID:    domainhotel.ID(strings.TrimSpace(q.HotelID)),
			CheckInDay: q.Date,
		}
		if strings.TrimSpace(q.Status) != "" {
			status, err := domainbooking.ParseStatus(q.Status)
			if err != nil {
				return nil, err
			}
			filter.Status = status
		}
		if !q.Actor.IsAdmin() {
			filter.CreatedBy = q.Actor.UserID
		}

		unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}

		items, err := unit.Bookings().List(ctx, filter)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].Range.CheckIn, items[j].Range.CheckIn
			if a == b {
				return items[i].CreatedAt.Before(items[j].CreatedAt)
			}
			return a.Before(b)
		})

		hotels := make(map[domainhotel.ID]*domainhotel.Hotel)
		units := make(map[domaininventory.ID]*domaininventory.Unit)
		out := &dto.BookingList{Items: make([]dto.Booking, 0, len(items))}
		for _, b := range items {
			hotel, ok := hotels[b.HotelID]
			if !ok {
				hotel, _ = unit.Hotels().ByID(ctx, b.HotelID)
				hotels[b.HotelID] = hotel
			}
			u, ok := units[b.Unit.ID]
			if !ok {
				u, _ = unit.Units().ByID(ctx, b.Unit.ID)
				units[b.Unit.ID] = u
			}
			out.Items = append(out.Items, dto.MapBooking(b, hotel, u))
		}
		return out, nil
	})
}

func (h *QueryHandler) CalendarMarks() queries.Handler[CalendarMarksQuery, *dto.CalendarMarks] {
	return queries.HandlerFunc[CalendarMarksQuery, *dto.CalendarMarks](func(ctx context.Context, q CalendarMarksQuery) (*dto.CalendarMarks, error) {
		unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}

		hotelID := domainhotel.ID(strings.TrimSpace(q.HotelID))
		var hotels []*domainhotel.Hotel
		switch {
		case hotelID != "":
			hotel, err := unit.Hotels().ByID(ctx, hotelID)
			if err != nil {
				return nil, err
			}
			if !q.Actor.CanAccessHotel(hotel) {
				return nil, support.ErrForbidden
			}
			hotels = []*domainhotel.Hotel{hotel}
		case q.Actor.IsAdmin():
			if hotels, err = unit.Hotels().List(ctx); err != nil {
				return nil, err
			}
		default:
			if hotels, err = unit.Hotels().ListForStaff(ctx, q.Actor.UserID); err != nil {
				return nil, err
			}
		}

		var records []domainbooking.Record
		for _, hotel := range hotels {
			recs, err := unit.Bookings().RecordsByHotel(ctx, hotel.ID)
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
		days := h.Resolver.CheckInDays(records)
		if days == nil {
			days = []calday.Day{}
		}
		return &dto.CalendarMarks{HotelID: string(hotelID), Days: days}, nil
	})
}
