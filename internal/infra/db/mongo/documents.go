package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colHotels    = "hotels"
	colUnits     = "units"
	colUnitTypes = "unit_types"
	colBookings  = "bookings"
	colUsers     = "users"
	colSessions  = "sessions"
	colLocks     = "unit_locks"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

func bsonKeys(fields ...string) bson.D {
	keys := make(bson.D, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	return keys
}

// saveVersioned upserts doc guarded by the stored version. A mismatch means
// another writer saved first.
func saveVersioned(ctx context.Context, col *mongo.Collection, id string, version int64, doc any) error {
	filter := bson.M{"_id": id, "version": version}
	res, err := col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

func findAll[D any, T any](ctx context.Context, col *mongo.Collection, filter any, opts *options.FindOptions, convert func(D) T) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []T
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, convert(doc))
	}
	return out, cur.Err()
}

func notFound(err, sentinel error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sentinel
	}
	return err
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// detached keeps ctx's deadline and cancellation but drops its values, so
// the driver does not pick up the transaction session.
type detached struct{ context.Context }

func (detached) Value(any) any { return nil }

func withoutSession(ctx context.Context) context.Context {
	return detached{ctx}
}
