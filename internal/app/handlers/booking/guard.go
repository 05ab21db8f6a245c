package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/uow"
	"motelbook/internal/domain/availability"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/daterange"
)

var (
	ErrUnitBusy         = errors.New("bookings: unit is being booked by another request")
	ErrUnitNotInHotel   = errors.New("bookings: unit does not belong to the hotel")
	ErrUnitKindMismatch = errors.New("bookings: unit kind does not match room/site selection")
	ErrLockUnscoped     = errors.New("bookings: unit lock taken outside a unit of work")
)

const defaultLockTTL = 15 * time.Second

// ConflictCounter is notified when a write is refused for overlapping dates.
type ConflictCounter interface {
	AvailabilityConflict(kind string)
}

// Guard holds what booking writes need to keep a unit from being double booked.
type Guard struct {
	Resolver  availability.Resolver
	LockTTL   time.Duration
	Conflicts ConflictCounter
	Logger    *slog.Logger
}

func (g Guard) lockTTL() time.Duration {
	if g.LockTTL > 0 {
		return g.LockTTL
	}
	return defaultLockTTL
}

// hotelFor loads the hotel and checks the actor may work on it.
func hotelFor(ctx context.Context, unit uow.UnitOfWork, actor support.Actor, id domainhotel.ID) (*domainhotel.Hotel, error) {
	h, err := unit.Hotels().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessHotel(h) {
		return nil, support.ErrForbidden
	}
	return h, nil
}

// unitIn loads the unit behind ref and checks it belongs to hotelID.
func unitIn(ctx context.Context, unit uow.UnitOfWork, hotelID domainhotel.ID, ref domainbooking.UnitRef) (*domaininventory.Unit, error) {
	u, err := unit.Units().ByID(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	if u.HotelID != hotelID {
		return nil, ErrUnitNotInHotel
	}
	if u.Kind != ref.Kind {
		return nil, ErrUnitKindMismatch
	}
	return u, nil
}

// Lock takes the unit lock and releases it once the unit of work completes.
// It must run before the unit of work's first read: a transaction's snapshot
// is fixed by that read and has to include the previous holder's commit.
func (g Guard) Lock(ctx context.Context, unit uow.UnitOfWork, hotelID domainhotel.ID, ref domainbooking.UnitRef, owner string) error {
	key := domainbooking.UnitLockKey(hotelID, ref)
	if err := unit.Locks().Acquire(ctx, key, owner, g.lockTTL()); err != nil {
		if errors.Is(err, domainbooking.ErrUnitLocked) {
			return fmt.Errorf("%w: %s", ErrUnitBusy, ref)
		}
		return err
	}
	release := func() {
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := unit.Locks().Release(relCtx, key, owner); err != nil && g.Logger != nil {
			g.Logger.Warn("unit lock release failed", "lock", key, "error", err)
		}
	}
	if !uow.AfterCompletion(ctx, release) {
		release()
		return ErrLockUnscoped
	}
	return nil
}

// Check runs the resolver over the hotel's current records. The caller holds
// the unit lock.
func (g Guard) Check(ctx context.Context, unit uow.UnitOfWork, hotelID domainhotel.ID, ref domainbooking.UnitRef, dr daterange.DateRange, exclude domainbooking.ID) error {
	records, err := unit.Bookings().RecordsByHotel(ctx, hotelID)
	if err != nil {
		return err
	}
	if g.Resolver.Booked(records, dr, exclude).Has(ref) {
		if g.Conflicts != nil {
			g.Conflicts.AvailabilityConflict(string(ref.Kind))
		}
		return fmt.Errorf("%w: %s %s", domainbooking.ErrUnitUnavailable, ref, dr)
	}
	return nil
}
