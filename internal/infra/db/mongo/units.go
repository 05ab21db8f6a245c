package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/money"
)

type UnitRepository struct {
	col *mongo.Collection
}

func NewUnitRepository(db *mongo.Database) *UnitRepository {
	return &UnitRepository{col: db.Collection(colUnits)}
}

type unitDocument struct {
	ID         string `bson:"_id"`
	HotelID    string `bson:"hotel_id"`
	Kind       string `bson:"kind"`
	Number     string `bson:"number"`
	PriceCents int64  `bson:"price_cents"`
	Currency   string `bson:"currency"`
	TypeID     string `bson:"type_id,omitempty"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
	Version    int64  `bson:"version"`
}

func newUnitDocument(u *domaininventory.Unit) unitDocument {
	return unitDocument{
		ID:         string(u.ID),
		HotelID:    string(u.HotelID),
		Kind:       string(u.Kind),
		Number:     u.Number,
		PriceCents: u.Price.Amount,
		Currency:   u.Price.Currency,
		TypeID:     string(u.TypeID),
		CreatedAt:  millis(u.CreatedAt),
		UpdatedAt:  millis(u.UpdatedAt),
		Version:    u.Version,
	}
}

func (d unitDocument) toAggregate() *domaininventory.Unit {
	currency := d.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	return &domaininventory.Unit{
		ID:        domaininventory.ID(d.ID),
		HotelID:   domainhotel.ID(d.HotelID),
		Kind:      domaininventory.Kind(d.Kind),
		Number:    d.Number,
		Price:     money.Money{Amount: d.PriceCents, Currency: currency},
		TypeID:    domaininventory.TypeID(d.TypeID),
		CreatedAt: fromMillis(d.CreatedAt),
		UpdatedAt: fromMillis(d.UpdatedAt),
		Version:   d.Version,
	}
}

func (r *UnitRepository) ByID(ctx context.Context, id domaininventory.ID) (*domaininventory.Unit, error) {
	var doc unitDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, notFound(err, domaininventory.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

// Save maps the unique (hotel, kind, number) index onto ErrNumberTaken.
func (r *UnitRepository) Save(ctx context.Context, u *domaininventory.Unit) error {
	taken, err := r.numberTaken(ctx, u)
	if err != nil {
		return err
	}
	if taken {
		return domaininventory.ErrNumberTaken
	}
	doc := newUnitDocument(u)
	doc.Version = u.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, u.Version, doc); err != nil {
		return err
	}
	u.Version = doc.Version
	return nil
}

func (r *UnitRepository) numberTaken(ctx context.Context, u *domaininventory.Unit) (bool, error) {
	filter := bson.M{
		"hotel_id": string(u.HotelID),
		"kind":     string(u.Kind),
		"number":   u.Number,
		"_id":      bson.M{"$ne": string(u.ID)},
	}
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *UnitRepository) Delete(ctx context.Context, id domaininventory.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domaininventory.ErrNotFound
	}
	return nil
}

func (r *UnitRepository) ListByHotel(ctx context.Context, hotelID domainhotel.ID, kind domaininventory.Kind) ([]*domaininventory.Unit, error) {
	filter := bson.M{"hotel_id": string(hotelID)}
	if kind != "" {
		filter["kind"] = string(kind)
	}
	return r.find(ctx, filter)
}

func (r *UnitRepository) List(ctx context.Context, kind domaininventory.Kind) ([]*domaininventory.Unit, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = string(kind)
	}
	return r.find(ctx, filter)
}

func (r *UnitRepository) CountByHotel(ctx context.Context, hotelID domainhotel.ID) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"hotel_id": string(hotelID)})
	return int(n), err
}

func (r *UnitRepository) find(ctx context.Context, filter bson.M) ([]*domaininventory.Unit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "hotel_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "number", Value: 1}})
	return findAll(ctx, r.col, filter, opts, unitDocument.toAggregate)
}

type UnitTypeRepository struct {
	col *mongo.Collection
}

func NewUnitTypeRepository(db *mongo.Database) *UnitTypeRepository {
	return &UnitTypeRepository{col: db.Collection(colUnitTypes)}
}

type unitTypeDocument struct {
	ID    string `bson:"_id"`
	Slug  string `bson:"slug"`
	Title string `bson:"title"`
	Kind  string `bson:"kind"`
}

func (d unitTypeDocument) toAggregate() *domaininventory.UnitType {
	return &domaininventory.UnitType{
		ID:    domaininventory.TypeID(d.ID),
		Slug:  d.Slug,
		Title: d.Title,
		Kind:  domaininventory.Kind(d.Kind),
	}
}

func (r *UnitTypeRepository) List(ctx context.Context, kind domaininventory.Kind) ([]*domaininventory.UnitType, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = string(kind)
	}
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	return findAll(ctx, r.col, filter, opts, unitTypeDocument.toAggregate)
}

func (r *UnitTypeRepository) ByID(ctx context.Context, id domaininventory.TypeID) (*domaininventory.UnitType, error) {
	var doc unitTypeDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, notFound(err, domaininventory.ErrTypeNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *UnitTypeRepository) Save(ctx context.Context, t *domaininventory.UnitType) error {
	doc := unitTypeDocument{ID: string(t.ID), Slug: t.Slug, Title: t.Title, Kind: string(t.Kind)}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}
