package memory

import (
	"context"
	"errors"

	"motelbook/internal/app/uow"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	domainuser "motelbook/internal/domain/user"
)

// Store bundles the in-memory repositories of one process.
type Store struct {
	Hotels    *HotelRepository
	Units     *UnitRepository
	UnitTypes *UnitTypeRepository
	Bookings  *BookingRepository
	Users     *UserRepository
	Locks     *LockRepository
}

func NewStore() *Store {
	return &Store{
		Hotels:    NewHotelRepository(),
		Units:     NewUnitRepository(),
		UnitTypes: NewUnitTypeRepository(),
		Bookings:  NewBookingRepository(),
		Users:     NewUserRepository(),
		Locks:     NewLockRepository(),
	}
}

// Factory returns a unit-of-work factory over s.
func (s *Store) Factory() Factory {
	return Factory{Store: s}
}

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	Store *Store
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided;
// writes apply immediately and unit locks serialize booking writes.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	s := f.Store
	if s == nil || s.Hotels == nil || s.Units == nil || s.UnitTypes == nil || s.Bookings == nil || s.Users == nil || s.Locks == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{store: s}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	store *Store
}

func (u *Unit) Hotels() domainhotel.Repository { return u.store.Hotels }

func (u *Unit) Units() domaininventory.Repository { return u.store.Units }

func (u *Unit) UnitTypes() domaininventory.TypeRepository { return u.store.UnitTypes }

func (u *Unit) Bookings() domainbooking.Repository { return u.store.Bookings }

func (u *Unit) Users() domainuser.Repository { return u.store.Users }

func (u *Unit) Locks() domainbooking.LockRepository { return u.store.Locks }

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

var _ uow.UoWFactory = Factory{}
