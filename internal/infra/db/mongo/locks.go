package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "motelbook/internal/domain/booking"
)

// LockRepository implements per-unit write locks as documents keyed by the
// lock key. Writes run outside the caller's transaction so a held lock is
// visible to every other writer at once.
type LockRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewLockRepository(db *mongo.Database) *LockRepository {
	return &LockRepository{col: db.Collection(colLocks), now: func() time.Time { return time.Now().UTC() }}
}

// Acquire takes the lock when it is free, expired, or already held by owner.
// Losing the race on the unique _id means another owner holds it.
func (r *LockRepository) Acquire(ctx context.Context, key domainbooking.LockKey, owner string, ttl time.Duration) error {
	ctx = withoutSession(ctx)
	now := r.now()
	filter := bson.M{
		"_id": string(key),
		"$or": bson.A{
			bson.M{"owner": owner},
			bson.M{"expires_at": bson.M{"$lte": now}},
		},
	}
	update := bson.M{"$set": bson.M{"owner": owner, "expires_at": now.Add(ttl)}}
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return domainbooking.ErrUnitLocked
	}
	return err
}

func (r *LockRepository) Release(ctx context.Context, key domainbooking.LockKey, owner string) error {
	_, err := r.col.DeleteOne(withoutSession(ctx), bson.M{"_id": string(key), "owner": owner})
	return err
}
