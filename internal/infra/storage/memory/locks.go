package memory

import (
	"context"
	"sync"
	"time"

	domainbooking "motelbook/internal/domain/booking"
)

type lease struct {
	owner   string
	expires time.Time
}

// LockRepository is a process-local unit lock table.
type LockRepository struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[domainbooking.LockKey]lease
}

func NewLockRepository() *LockRepository {
	return &LockRepository{now: time.Now, items: make(map[domainbooking.LockKey]lease)}
}

func (r *LockRepository) Acquire(ctx context.Context, key domainbooking.LockKey, owner string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if cur, ok := r.items[key]; ok && cur.owner != owner && now.Before(cur.expires) {
		return domainbooking.ErrUnitLocked
	}
	r.items[key] = lease{owner: owner, expires: now.Add(ttl)}
	return nil
}

func (r *LockRepository) Release(ctx context.Context, key domainbooking.LockKey, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.items[key]; ok && cur.owner == owner {
		delete(r.items, key)
	}
	return nil
}

// Held reports whether key is currently leased.
func (r *LockRepository) Held(key domainbooking.LockKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[key]
	return ok && r.now().Before(cur.expires)
}

var _ domainbooking.LockRepository = (*LockRepository)(nil)
