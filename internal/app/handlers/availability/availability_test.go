package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/availability"
	"motelbook/internal/app/handlers/support"
	domainavailability "motelbook/internal/domain/availability"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/daterange"
	"motelbook/internal/domain/shared/money"
	domainuser "motelbook/internal/domain/user"
	"motelbook/internal/infra/storage/memory"
)

var admin = support.Actor{UserID: "u-admin", Role: domainuser.RoleAdmin}

func setup(t *testing.T) (*memory.Store, *availability.Handler) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Hotels.Save(ctx, &domainhotel.Hotel{ID: "h1", Name: "Bayside", Address: "1 Beach Rd"}))
	price := money.Must(9000, "")
	for _, u := range []*domaininventory.Unit{
		{ID: "r1", HotelID: "h1", Kind: domaininventory.KindRoom, Number: "1", Price: price, TypeID: "double"},
		{ID: "r2", HotelID: "h1", Kind: domaininventory.KindRoom, Number: "2", Price: price},
		{ID: "s1", HotelID: "h1", Kind: domaininventory.KindSite, Number: "A", Price: price},
	} {
		require.NoError(t, store.Units.Save(ctx, u))
	}
	require.NoError(t, store.UnitTypes.Save(ctx, &domaininventory.UnitType{ID: "double", Slug: "double", Title: "Double", Kind: domaininventory.KindRoom}))

	b := &domainbooking.Booking{ID: "b1", HotelID: "h1", Unit: domainbooking.RoomRef("r1"), Status: domainbooking.StatusConfirmed}
	b.Range = daterange.DateRange{CheckIn: calday.MustParse("2024-06-10"), CheckOut: calday.MustParse("2024-06-12")}
	require.NoError(t, store.Bookings.Save(ctx, b))
	store.Bookings.SeedRecords("h1", domainbooking.Record{
		ID:       "legacy",
		SiteID:   "s1",
		CheckIn:  calday.EpochSeconds(time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC).Unix()),
		CheckOut: calday.ISOString("2024-06-13T10:00:00Z"),
	})
	return store, &availability.Handler{UoWFactory: store.Factory(), Resolver: domainavailability.Resolver{Location: time.UTC}}
}

func booked(rows []dto.UnitAvailability) map[string]bool {
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Booked
	}
	return out
}

func TestAvailabilityDefaultsCheckOut(t *testing.T) {
	_, h := setup(t)

	got, err := h.Availability().Handle(context.Background(), availability.GetAvailabilityQuery{
		Actor:   admin,
		HotelID: "h1",
		CheckIn: calday.MustParse("2024-06-12"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-13", got.CheckOut.String())
	assert.Equal(t, map[string]bool{"r1": true, "r2": false}, booked(got.Rooms))
	assert.Equal(t, map[string]bool{"s1": true}, booked(got.Sites))
	assert.Equal(t, "Double", got.Rooms[0].TypeTitle)
}

func TestAvailabilityExcludedBookingKeepsItsUnit(t *testing.T) {
	_, h := setup(t)

	got, err := h.Availability().Handle(context.Background(), availability.GetAvailabilityQuery{
		Actor:            admin,
		HotelID:          "h1",
		CheckIn:          calday.MustParse("2024-06-10"),
		CheckOut:         calday.MustParse("2024-06-12"),
		ExcludeBookingID: "b1",
	})
	require.NoError(t, err)
	assert.False(t, booked(got.Rooms)["r1"])
	assert.True(t, booked(got.Sites)["s1"])
}

func TestAvailabilityRejectsInvertedRange(t *testing.T) {
	_, h := setup(t)

	_, err := h.Availability().Handle(context.Background(), availability.GetAvailabilityQuery{
		Actor:    admin,
		HotelID:  "h1",
		CheckIn:  calday.MustParse("2024-06-12"),
		CheckOut: calday.MustParse("2024-06-10"),
	})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestAvailabilityForbidsUnassignedStaff(t *testing.T) {
	_, h := setup(t)

	_, err := h.Availability().Handle(context.Background(), availability.GetAvailabilityQuery{
		Actor:   support.Actor{UserID: "u-staff", Role: domainuser.RoleStaff},
		HotelID: "h1",
		CheckIn: calday.MustParse("2024-06-12"),
	})
	assert.ErrorIs(t, err, support.ErrForbidden)
}

func TestOccupancy(t *testing.T) {
	_, h := setup(t)

	cases := []struct {
		day  string
		room bool
		site bool
	}{
		{day: "2024-06-09", room: false, site: false},
		{day: "2024-06-10", room: true, site: false},
		{day: "2024-06-12", room: true, site: true},
		{day: "2024-06-13", room: false, site: true},
		{day: "2024-06-14", room: false, site: false},
	}
	for _, tc := range cases {
		t.Run(tc.day, func(t *testing.T) {
			got, err := h.Occupancy().Handle(context.Background(), availability.GetOccupancyQuery{Actor: admin, HotelID: "h1", Date: calday.MustParse(tc.day)})
			require.NoError(t, err)
			rooms := map[string]bool{}
			for _, r := range got.Rooms {
				rooms[r.ID] = r.Occupied
			}
			assert.Equal(t, tc.room, rooms["r1"])
			assert.False(t, rooms["r2"])
			require.Len(t, got.Sites, 1)
			assert.Equal(t, tc.site, got.Sites[0].Occupied)
		})
	}
}
