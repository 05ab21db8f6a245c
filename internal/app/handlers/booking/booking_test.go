package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motelbook/internal/app/handlers/booking"
	"motelbook/internal/app/handlers/support"
	appoutbox "motelbook/internal/app/outbox"
	domainavailability "motelbook/internal/domain/availability"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/money"
	domainuser "motelbook/internal/domain/user"
	"motelbook/internal/infra/storage/memory"
)

var (
	admin    = support.Actor{UserID: "u-admin", Role: domainuser.RoleAdmin}
	staff    = support.Actor{UserID: "u-staff", Role: domainuser.RoleStaff}
	stranger = support.Actor{UserID: "u-other", Role: domainuser.RoleStaff}
	fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
)

type recordingOutbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func (o *recordingOutbox) Add(_ context.Context, rec appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, rec)
	return nil
}

func (o *recordingOutbox) Flush(context.Context) error { return nil }

func (o *recordingOutbox) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.records))
	for _, r := range o.records {
		out = append(out, r.Name)
	}
	return out
}

type conflictCounter struct{ kinds []string }

func (c *conflictCounter) AvailabilityConflict(kind string) { c.kinds = append(c.kinds, kind) }

type fixture struct {
	store     *memory.Store
	box       *recordingOutbox
	conflicts *conflictCounter
	create    *booking.CreateBookingHandler
	update    *booking.UpdateBookingHandler
	lifecycle *booking.LifecycleHandler
	queries   *booking.QueryHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Hotels.Save(ctx, &domainhotel.Hotel{ID: "h1", Name: "Bayside", Address: "1 Beach Rd", StaffIDs: []domainuser.ID{staff.UserID}}))
	require.NoError(t, store.Hotels.Save(ctx, &domainhotel.Hotel{ID: "h2", Name: "Alpine", Address: "2 Hill St"}))
	price := money.Must(12000, "AUD")
	for _, u := range []*domaininventory.Unit{
		{ID: "r1", HotelID: "h1", Kind: domaininventory.KindRoom, Number: "101", Price: price},
		{ID: "r2", HotelID: "h1", Kind: domaininventory.KindRoom, Number: "102", Price: price},
		{ID: "s1", HotelID: "h1", Kind: domaininventory.KindSite, Number: "A", Price: price},
		{ID: "r9", HotelID: "h2", Kind: domaininventory.KindRoom, Number: "1", Price: price},
	} {
		require.NoError(t, store.Units.Save(ctx, u))
	}

	box := &recordingOutbox{}
	conflicts := &conflictCounter{}
	guard := booking.Guard{Resolver: domainavailability.Resolver{Location: time.UTC}, Conflicts: conflicts}
	now := func() time.Time { return fixedNow }
	factory := store.Factory()
	return &fixture{
		store:     store,
		box:       box,
		conflicts: conflicts,
		create:    &booking.CreateBookingHandler{UoWFactory: factory, Outbox: box, Guard: guard, Now: now},
		update:    &booking.UpdateBookingHandler{UoWFactory: factory, Outbox: box, Guard: guard, Now: now},
		lifecycle: &booking.LifecycleHandler{UoWFactory: factory, Outbox: box, Now: now},
		queries:   &booking.QueryHandler{UoWFactory: factory, Resolver: domainavailability.Resolver{Location: time.UTC}},
	}
}

func fields(roomID, siteID, in, out string) booking.BookingFields {
	f := booking.BookingFields{
		HotelID:       "h1",
		RoomID:        roomID,
		SiteID:        siteID,
		ClientName:    "Ada Lovelace",
		ClientEmail:   "ada@example.com",
		ClientPhone:   "0412345678",
		ClientAddress: "12 Analytical St",
		CheckIn:       calday.MustParse(in),
		AmountCents:   24000,
	}
	if out != "" {
		f.CheckOut = calday.MustParse(out)
	}
	return f
}

func (f *fixture) mustCreate(t *testing.T, actor support.Actor, id string, bf booking.BookingFields) {
	t.Helper()
	_, err := f.create.Handle(context.Background(), booking.CreateBookingCommand{Actor: actor, BookingID: id, BookingFields: bf})
	require.NoError(t, err)
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	res, err := f.create.Handle(context.Background(), booking.CreateBookingCommand{
		Actor:         staff,
		BookingID:     "b1",
		BookingFields: fields("r1", "", "2024-06-10", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "b1", res.BookingID)
	assert.Equal(t, "INV-1717232400000", res.InvoiceNumber)
	assert.Equal(t, string(domainbooking.StatusConfirmed), res.Status)

	stored, err := f.store.Bookings.ByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-11", stored.Range.CheckOut.String(), "check-out defaults to the next day")
	assert.Equal(t, staff.UserID, stored.CreatedBy)
	assert.Equal(t, []string{domainbooking.EventCreated}, f.box.names())
	assert.False(t, f.store.Locks.Held(domainbooking.UnitLockKey("h1", domainbooking.RoomRef("r1"))))
}

func TestCreateBookingRejectsOverlapIncludingTurnaround(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, admin, "b1", fields("r1", "", "2024-06-10", "2024-06-12"))

	_, err := f.create.Handle(context.Background(), booking.CreateBookingCommand{
		Actor:         admin,
		BookingID:     "b2",
		BookingFields: fields("r1", "", "2024-06-12", "2024-06-13"),
	})
	assert.ErrorIs(t, err, domainbooking.ErrUnitUnavailable)
	assert.Equal(t, []string{"room"}, f.conflicts.kinds)

	f.mustCreate(t, admin, "b3", fields("r1", "", "2024-06-13", "2024-06-15"))
	f.mustCreate(t, admin, "b4", fields("r2", "", "2024-06-10", "2024-06-12"))
	f.mustCreate(t, admin, "b5", fields("", "s1", "2024-06-10", "2024-06-12"))
}

func TestCreateBookingSeesLegacyRecords(t *testing.T) {
	f := newFixture(t)
	f.store.Bookings.SeedRecords("h1", domainbooking.Record{
		ID:       "legacy",
		SiteID:   "s1",
		CheckIn:  calday.Timestamp(time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)),
		CheckOut: calday.ISOString("2024-06-12"),
	})

	_, err := f.create.Handle(context.Background(), booking.CreateBookingCommand{
		Actor:         admin,
		BookingFields: fields("", "s1", "2024-06-11", "2024-06-12"),
	})
	assert.ErrorIs(t, err, domainbooking.ErrUnitUnavailable)
}

func TestCreateBookingLockHeld(t *testing.T) {
	f := newFixture(t)
	key := domainbooking.UnitLockKey("h1", domainbooking.RoomRef("r1"))
	require.NoError(t, f.store.Locks.Acquire(context.Background(), key, "someone-else", time.Minute))

	_, err := f.create.Handle(context.Background(), booking.CreateBookingCommand{
		Actor:         admin,
		BookingFields: fields("r1", "", "2024-06-10", "2024-06-12"),
	})
	assert.ErrorIs(t, err, booking.ErrUnitBusy)
}

func TestCreateBookingConcurrentWritersOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.create.Handle(context.Background(), booking.CreateBookingCommand{
				Actor:         admin,
				BookingFields: fields("r1", "", "2024-06-10", "2024-06-12"),
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, booking.ErrUnitBusy) || errors.Is(err, domainbooking.ErrUnitUnavailable), "unexpected error %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestCreateBookingAccessChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.create.Handle(ctx, booking.CreateBookingCommand{Actor: stranger, BookingFields: fields("r1", "", "2024-06-10", "")})
	assert.ErrorIs(t, err, support.ErrForbidden)

	bf := fields("r9", "", "2024-06-10", "")
	_, err = f.create.Handle(ctx, booking.CreateBookingCommand{Actor: admin, BookingFields: bf})
	assert.ErrorIs(t, err, booking.ErrUnitNotInHotel)

	_, err = f.create.Handle(ctx, booking.CreateBookingCommand{Actor: admin, BookingFields: fields("", "r1", "2024-06-10", "")})
	assert.ErrorIs(t, err, booking.ErrUnitKindMismatch)

	_, err = f.create.Handle(ctx, booking.CreateBookingCommand{Actor: admin, BookingFields: fields("r1", "s1", "2024-06-10", "")})
	assert.ErrorIs(t, err, domainbooking.ErrUnitRequired)
}

func TestUpdateBookingKeepsDatesDespiteLegacyOverlap(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, admin, "b1", fields("r1", "", "2024-06-10", "2024-06-12"))
	f.store.Bookings.SeedRecords("h1", domainbooking.Record{ID: "legacy", RoomID: "r1", CheckIn: calday.ISOString("2024-06-11"), CheckOut: calday.ISOString("2024-06-13")})

	bf := fields("r1", "", "2024-06-10", "2024-06-12")
	bf.PaymentReceived = true
	bf.PaymentDate = calday.MustParse("2024-06-02")
	res, err := f.update.Handle(context.Background(), booking.UpdateBookingCommand{Actor: admin, BookingID: "b1", BookingFields: bf})
	require.NoError(t, err)
	assert.Equal(t, "INV-1717232400000", res.InvoiceNumber)
	assert.Equal(t, []string{domainbooking.EventCreated, domainbooking.EventUpdated, domainbooking.EventPaymentStatusChanged}, f.box.names())
}

func TestUpdateBookingRechecksMovedDates(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, admin, "b1", fields("r1", "", "2024-06-10", "2024-06-12"))
	f.mustCreate(t, admin, "b2", fields("r1", "", "2024-06-20", "2024-06-22"))

	_, err := f.update.Handle(context.Background(), booking.UpdateBookingCommand{Actor: admin, BookingID: "b1", BookingFields: fields("r1", "", "2024-06-11", "2024-06-13")})
	require.NoError(t, err, "moving within its own padding is allowed")

	_, err = f.update.Handle(context.Background(), booking.UpdateBookingCommand{Actor: admin, BookingID: "b1", BookingFields: fields("r1", "", "2024-06-19", "2024-06-21")})
	assert.ErrorIs(t, err, domainbooking.ErrUnitUnavailable)

	_, err = f.update.Handle(context.Background(), booking.UpdateBookingCommand{Actor: admin, BookingID: "b1", BookingFields: fields("r2", "", "2024-06-20", "2024-06-22")})
	require.NoError(t, err)
}

func TestCancelFreesDatesAndDeleteRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, staff, "b1", fields("r1", "", "2024-06-10", "2024-06-12"))

	_, err := f.lifecycle.Cancel().Handle(ctx, booking.CancelBookingCommand{Actor: stranger, BookingID: "b1"})
	assert.ErrorIs(t, err, support.ErrForbidden)

	res, err := f.lifecycle.Cancel().Handle(ctx, booking.CancelBookingCommand{Actor: staff, BookingID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusCancelled), res.Status)

	f.mustCreate(t, staff, "b2", fields("r1", "", "2024-06-10", "2024-06-12"))

	_, err = f.lifecycle.Delete().Handle(ctx, booking.DeleteBookingCommand{Actor: admin, BookingID: "b1"})
	require.NoError(t, err)
	_, err = f.store.Bookings.ByID(ctx, "b1")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
	assert.Contains(t, f.box.names(), domainbooking.EventCancelled)
	assert.Contains(t, f.box.names(), domainbooking.EventDeleted)
}

func TestListBookingsScopesStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, admin, "b1", fields("r1", "", "2024-06-20", "2024-06-22"))
	f.mustCreate(t, staff, "b2", fields("r2", "", "2024-06-10", "2024-06-12"))
	f.mustCreate(t, staff, "b3", fields("r1", "", "2024-06-05", "2024-06-07"))

	all, err := f.queries.List().Handle(ctx, booking.ListBookingsQuery{Actor: admin})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, []string{"b3", "b2", "b1"}, []string{all.Items[0].ID, all.Items[1].ID, all.Items[2].ID})
	assert.Equal(t, "Bayside", all.Items[0].Hotel.Name)
	assert.Equal(t, "101", all.Items[0].Unit.Number)

	mine, err := f.queries.List().Handle(ctx, booking.ListBookingsQuery{Actor: staff})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)

	day, err := f.queries.List().Handle(ctx, booking.ListBookingsQuery{Actor: admin, Date: calday.MustParse("2024-06-10")})
	require.NoError(t, err)
	require.Len(t, day.Items, 1)
	assert.Equal(t, "b2", day.Items[0].ID)
}

func TestGetBookingAndCalendarMarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, admin, "b1", fields("r1", "", "2024-06-20", "2024-06-22"))
	f.mustCreate(t, admin, "b2", fields("", "s1", "2024-06-10", "2024-06-12"))
	f.mustCreate(t, admin, "b3", fields("r2", "", "2024-06-10", "2024-06-11"))

	got, err := f.queries.Get().Handle(ctx, booking.GetBookingQuery{Actor: staff, BookingID: "b2"})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SiteID)
	assert.Equal(t, "A", got.Unit.Number)
	assert.Equal(t, 2, got.Nights)

	_, err = f.queries.Get().Handle(ctx, booking.GetBookingQuery{Actor: stranger, BookingID: "b2"})
	assert.ErrorIs(t, err, support.ErrForbidden)

	marks, err := f.queries.CalendarMarks().Handle(ctx, booking.CalendarMarksQuery{Actor: admin, HotelID: "h1"})
	require.NoError(t, err)
	require.Len(t, marks.Days, 2)
	assert.Equal(t, "2024-06-10", marks.Days[0].String())
	assert.Equal(t, "2024-06-20", marks.Days[1].String())

	empty, err := f.queries.CalendarMarks().Handle(ctx, booking.CalendarMarksQuery{Actor: stranger})
	require.NoError(t, err)
	assert.Empty(t, empty.Days)
}
