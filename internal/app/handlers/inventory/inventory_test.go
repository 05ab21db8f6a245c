package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motelbook/internal/app/handlers/inventory"
	"motelbook/internal/app/handlers/support"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	domainuser "motelbook/internal/domain/user"
	"motelbook/internal/infra/storage/memory"
)

var (
	admin = support.Actor{UserID: "u-admin", Role: domainuser.RoleAdmin}
	staff = support.Actor{UserID: "u-staff", Role: domainuser.RoleStaff}
)

func setup(t *testing.T) (*memory.Store, *inventory.CommandHandler, *inventory.QueryHandler) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Hotels.Save(ctx, &domainhotel.Hotel{ID: "h1", Name: "Bayside", StaffIDs: []domainuser.ID{staff.UserID}}))
	require.NoError(t, store.Hotels.Save(ctx, &domainhotel.Hotel{ID: "h2", Name: "Alpine"}))
	for _, ut := range []*domaininventory.UnitType{
		{ID: "double", Slug: "double", Title: "Double", Kind: domaininventory.KindRoom},
		{ID: "powered", Slug: "powered", Title: "Powered Site", Kind: domaininventory.KindSite},
	} {
		require.NoError(t, store.UnitTypes.Save(ctx, ut))
	}
	return store, &inventory.CommandHandler{UoWFactory: store.Factory()}, &inventory.QueryHandler{UoWFactory: store.Factory()}
}

func TestCreateUnit(t *testing.T) {
	_, cmds, _ := setup(t)
	ctx := context.Background()

	got, err := cmds.Create().Handle(ctx, inventory.CreateUnitCommand{Actor: admin, UnitFields: inventory.UnitFields{HotelID: "h1", Kind: "rooms", Number: " 101 ", PriceCents: 15000, TypeID: "double"}})
	require.NoError(t, err)
	assert.Equal(t, "room", got.Kind)
	assert.Equal(t, "101", got.Number)
	assert.Equal(t, "Double", got.TypeTitle)
	assert.Equal(t, "AUD", got.Price.Currency)

	cases := []struct {
		name   string
		actor  support.Actor
		fields inventory.UnitFields
		want   error
	}{
		{name: "staff", actor: staff, fields: inventory.UnitFields{HotelID: "h1", Kind: "room", Number: "9"}, want: support.ErrForbidden},
		{name: "unknown hotel", actor: admin, fields: inventory.UnitFields{HotelID: "nope", Kind: "room", Number: "9"}, want: domainhotel.ErrNotFound},
		{name: "bad kind", actor: admin, fields: inventory.UnitFields{HotelID: "h1", Kind: "cabin", Number: "9"}, want: domaininventory.ErrInvalidKind},
		{name: "type of other kind", actor: admin, fields: inventory.UnitFields{HotelID: "h1", Kind: "room", Number: "9", TypeID: "powered"}, want: domaininventory.ErrTypeNotFound},
		{name: "duplicate number", actor: admin, fields: inventory.UnitFields{HotelID: "h1", Kind: "room", Number: "101"}, want: domaininventory.ErrNumberTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cmds.Create().Handle(ctx, inventory.CreateUnitCommand{Actor: tc.actor, UnitFields: tc.fields})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdateAndDeleteUnitGuardBookings(t *testing.T) {
	store, cmds, _ := setup(t)
	ctx := context.Background()
	u, err := cmds.Create().Handle(ctx, inventory.CreateUnitCommand{Actor: admin, UnitFields: inventory.UnitFields{HotelID: "h1", Kind: "site", Number: "A", PriceCents: 4000}})
	require.NoError(t, err)
	require.NoError(t, store.Bookings.Save(ctx, &domainbooking.Booking{ID: "b1", HotelID: "h1", Unit: domainbooking.SiteRef(domaininventory.ID(u.ID)), Status: domainbooking.StatusConfirmed}))

	got, err := cmds.Update().Handle(ctx, inventory.UpdateUnitCommand{Actor: admin, UnitID: u.ID, UnitFields: inventory.UnitFields{HotelID: "h1", Kind: "site", Number: "A1", PriceCents: 4500}})
	require.NoError(t, err, "renumbering keeps bookings valid")
	assert.Equal(t, int64(4500), got.Price.Amount)

	_, err = cmds.Update().Handle(ctx, inventory.UpdateUnitCommand{Actor: admin, UnitID: u.ID, UnitFields: inventory.UnitFields{HotelID: "h2", Kind: "site", Number: "A1"}})
	assert.ErrorIs(t, err, inventory.ErrUnitInUse)

	_, err = cmds.Delete().Handle(ctx, inventory.DeleteUnitCommand{Actor: admin, UnitID: u.ID})
	assert.ErrorIs(t, err, inventory.ErrUnitInUse)

	b, err := store.Bookings.ByID(ctx, "b1")
	require.NoError(t, err)
	require.NoError(t, b.Cancel("u-admin", b.CreatedAt))
	require.NoError(t, store.Bookings.Save(ctx, b))

	_, err = cmds.Delete().Handle(ctx, inventory.DeleteUnitCommand{Actor: admin, UnitID: u.ID})
	require.NoError(t, err)
}

func TestListUnitsScopes(t *testing.T) {
	_, cmds, qs := setup(t)
	ctx := context.Background()
	for _, f := range []inventory.UnitFields{
		{HotelID: "h1", Kind: "room", Number: "1", TypeID: "double"},
		{HotelID: "h1", Kind: "site", Number: "A"},
		{HotelID: "h2", Kind: "room", Number: "1"},
	} {
		_, err := cmds.Create().Handle(ctx, inventory.CreateUnitCommand{Actor: admin, UnitFields: f})
		require.NoError(t, err)
	}

	all, err := qs.Units().Handle(ctx, inventory.ListUnitsQuery{Actor: admin})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)

	rooms, err := qs.Units().Handle(ctx, inventory.ListUnitsQuery{Actor: admin, Kind: "rooms"})
	require.NoError(t, err)
	assert.Len(t, rooms.Items, 2)

	mine, err := qs.Units().Handle(ctx, inventory.ListUnitsQuery{Actor: staff})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)

	_, err = qs.Units().Handle(ctx, inventory.ListUnitsQuery{Actor: staff, HotelID: "h2"})
	assert.ErrorIs(t, err, support.ErrForbidden)

	types, err := qs.UnitTypes().Handle(ctx, inventory.ListUnitTypesQuery{Kind: "site"})
	require.NoError(t, err)
	require.Len(t, types.Items, 1)
	assert.Equal(t, "Powered Site", types.Items[0].Title)
}
