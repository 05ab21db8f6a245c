package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainhotel "motelbook/internal/domain/hotel"
	domainuser "motelbook/internal/domain/user"
)

type HotelRepository struct {
	col *mongo.Collection
}

func NewHotelRepository(db *mongo.Database) *HotelRepository {
	return &HotelRepository{col: db.Collection(colHotels)}
}

type hotelDocument struct {
	ID        string   `bson:"_id"`
	Name      string   `bson:"name"`
	Address   string   `bson:"address"`
	StaffIDs  []string `bson:"staff_ids"`
	PhotoURL  string   `bson:"photo_url,omitempty"`
	CreatedAt int64    `bson:"created_at"`
	UpdatedAt int64    `bson:"updated_at"`
	Version   int64    `bson:"version"`
}

func newHotelDocument(h *domainhotel.Hotel) hotelDocument {
	staff := make([]string, 0, len(h.StaffIDs))
	for _, id := range h.StaffIDs {
		staff = append(staff, string(id))
	}
	return hotelDocument{
		ID:        string(h.ID),
		Name:      h.Name,
		Address:   h.Address,
		StaffIDs:  staff,
		PhotoURL:  h.PhotoURL,
		CreatedAt: millis(h.CreatedAt),
		UpdatedAt: millis(h.UpdatedAt),
		Version:   h.Version,
	}
}

func (d hotelDocument) toAggregate() *domainhotel.Hotel {
	staff := make([]domainuser.ID, 0, len(d.StaffIDs))
	for _, id := range d.StaffIDs {
		staff = append(staff, domainuser.ID(id))
	}
	return &domainhotel.Hotel{
		ID:        domainhotel.ID(d.ID),
		Name:      d.Name,
		Address:   d.Address,
		StaffIDs:  staff,
		PhotoURL:  d.PhotoURL,
		CreatedAt: fromMillis(d.CreatedAt),
		UpdatedAt: fromMillis(d.UpdatedAt),
		Version:   d.Version,
	}
}

func (r *HotelRepository) ByID(ctx context.Context, id domainhotel.ID) (*domainhotel.Hotel, error) {
	var doc hotelDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainhotel.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *HotelRepository) Save(ctx context.Context, h *domainhotel.Hotel) error {
	doc := newHotelDocument(h)
	doc.Version = h.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, h.Version, doc); err != nil {
		return err
	}
	h.Version = doc.Version
	return nil
}

func (r *HotelRepository) Delete(ctx context.Context, id domainhotel.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainhotel.ErrNotFound
	}
	return nil
}

func (r *HotelRepository) List(ctx context.Context) ([]*domainhotel.Hotel, error) {
	return r.find(ctx, bson.M{})
}

func (r *HotelRepository) ListForStaff(ctx context.Context, userID domainuser.ID) ([]*domainhotel.Hotel, error) {
	return r.find(ctx, bson.M{"staff_ids": string(userID)})
}

func (r *HotelRepository) Count(ctx context.Context) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (r *HotelRepository) find(ctx context.Context, filter bson.M) ([]*domainhotel.Hotel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll(ctx, r.col, filter, opts, hotelDocument.toAggregate)
}
