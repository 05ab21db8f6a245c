package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motelbook/internal/app/handlers/booking"
	"motelbook/internal/app/uow"
	domainavailability "motelbook/internal/domain/availability"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
)

// trace records the order in which a unit of work is touched.
type trace struct {
	mu    sync.Mutex
	steps []string
}

func (t *trace) add(step string) {
	t.mu.Lock()
	t.steps = append(t.steps, step)
	t.mu.Unlock()
}

func (t *trace) all() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.steps...)
}

type tracingFactory struct {
	inner uow.UoWFactory
	trace *trace
}

func (f tracingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tracingUnit{UnitOfWork: unit, trace: f.trace}, nil
}

type tracingUnit struct {
	uow.UnitOfWork
	trace *trace
}

func (u tracingUnit) Hotels() domainhotel.Repository {
	return tracingHotels{Repository: u.UnitOfWork.Hotels(), trace: u.trace}
}

func (u tracingUnit) Units() domaininventory.Repository {
	return tracingUnits{Repository: u.UnitOfWork.Units(), trace: u.trace}
}

func (u tracingUnit) Bookings() domainbooking.Repository {
	return tracingBookings{Repository: u.UnitOfWork.Bookings(), trace: u.trace}
}

func (u tracingUnit) Locks() domainbooking.LockRepository {
	return tracingLocks{LockRepository: u.UnitOfWork.Locks(), trace: u.trace}
}

type tracingHotels struct {
	domainhotel.Repository
	trace *trace
}

func (r tracingHotels) ByID(ctx context.Context, id domainhotel.ID) (*domainhotel.Hotel, error) {
	r.trace.add("read")
	return r.Repository.ByID(ctx, id)
}

type tracingUnits struct {
	domaininventory.Repository
	trace *trace
}

func (r tracingUnits) ByID(ctx context.Context, id domaininventory.ID) (*domaininventory.Unit, error) {
	r.trace.add("read")
	return r.Repository.ByID(ctx, id)
}

type tracingBookings struct {
	domainbooking.Repository
	trace *trace
}

func (r tracingBookings) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.trace.add("read")
	return r.Repository.ByID(ctx, id)
}

func (r tracingBookings) RecordsByHotel(ctx context.Context, hotelID domainhotel.ID) ([]domainbooking.Record, error) {
	r.trace.add("records")
	return r.Repository.RecordsByHotel(ctx, hotelID)
}

type tracingLocks struct {
	domainbooking.LockRepository
	trace *trace
}

func (r tracingLocks) Acquire(ctx context.Context, key domainbooking.LockKey, owner string, ttl time.Duration) error {
	r.trace.add("lock")
	return r.LockRepository.Acquire(ctx, key, owner, ttl)
}

func (r tracingLocks) Release(ctx context.Context, key domainbooking.LockKey, owner string) error {
	r.trace.add("unlock")
	return r.LockRepository.Release(ctx, key, owner)
}

func tracedHandlers(f *fixture) (*trace, *booking.CreateBookingHandler, *booking.UpdateBookingHandler) {
	tr := &trace{}
	factory := tracingFactory{inner: f.store.Factory(), trace: tr}
	guard := booking.Guard{Resolver: domainavailability.Resolver{Location: time.UTC}}
	now := func() time.Time { return fixedNow }
	return tr,
		&booking.CreateBookingHandler{UoWFactory: factory, Outbox: f.box, Guard: guard, Now: now},
		&booking.UpdateBookingHandler{UoWFactory: factory, Outbox: f.box, Guard: guard, Now: now}
}

func TestCreateBookingLocksBeforeFirstRead(t *testing.T) {
	f := newFixture(t)
	tr, create, _ := tracedHandlers(f)

	_, err := create.Handle(context.Background(), booking.CreateBookingCommand{
		Actor:         admin,
		BookingID:     "b1",
		BookingFields: fields("r1", "", "2024-06-10", "2024-06-12"),
	})
	require.NoError(t, err)

	steps := tr.all()
	require.NotEmpty(t, steps)
	assert.Equal(t, "lock", steps[0])
	assert.Contains(t, steps, "records")
	assert.Equal(t, "unlock", steps[len(steps)-1])
}

func TestUpdateBookingLocksBeforeFirstRead(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, admin, "b1", fields("r1", "", "2024-06-10", "2024-06-12"))
	tr, _, update := tracedHandlers(f)

	_, err := update.Handle(context.Background(), booking.UpdateBookingCommand{
		Actor:         admin,
		BookingID:     "b1",
		BookingFields: fields("r2", "", "2024-06-14", "2024-06-16"),
	})
	require.NoError(t, err)

	steps := tr.all()
	require.NotEmpty(t, steps)
	assert.Equal(t, "lock", steps[0])
	assert.Contains(t, steps, "records")
	assert.Equal(t, "unlock", steps[len(steps)-1])
	assert.False(t, f.store.Locks.Held(domainbooking.UnitLockKey("h1", domainbooking.RoomRef("r2"))))
}

func TestLockOutsideUnitOfWorkIsRefused(t *testing.T) {
	f := newFixture(t)
	unit, err := f.store.Factory().Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)

	err = booking.Guard{}.Lock(context.Background(), unit, "h1", domainbooking.RoomRef("r1"), "b1")
	assert.ErrorIs(t, err, booking.ErrLockUnscoped)
	assert.False(t, f.store.Locks.Held(domainbooking.UnitLockKey("h1", domainbooking.RoomRef("r1"))))
}
