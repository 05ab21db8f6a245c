package booking

import (
	"context"
	"errors"
	"time"

	"motelbook/internal/domain/hotel"
)

var ErrUnitLocked = errors.New("booking: unit is locked by another writer")

type LockKey string

// UnitLockKey is "<hotel>:<kind>:<unit>".
func UnitLockKey(hotelID hotel.ID, ref UnitRef) LockKey {
	return LockKey(string(hotelID) + ":" + string(ref.Kind) + ":" + string(ref.ID))
}

// LockRepository serializes booking writes per unit. Acquire returns
// ErrUnitLocked while another owner holds an unexpired lock.
type LockRepository interface {
	Acquire(ctx context.Context, key LockKey, owner string, ttl time.Duration) error
	Release(ctx context.Context, key LockKey, owner string) error
}
