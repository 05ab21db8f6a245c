package mongo

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/daterange"
	"motelbook/internal/domain/shared/money"
	domainuser "motelbook/internal/domain/user"
)

// BookingRepository reads stored instants as calendar days in loc.
type BookingRepository struct {
	col *mongo.Collection
	loc *time.Location
}

func NewBookingRepository(db *mongo.Database, loc *time.Location) *BookingRepository {
	if loc == nil {
		loc = time.Local
	}
	return &BookingRepository{col: db.Collection(colBookings), loc: loc}
}

// bookingDocument stores dates as "YYYY-MM-DD". Older documents may carry
// timestamps or epoch seconds, so the date fields decode loosely.
type bookingDocument struct {
	ID              string `bson:"_id"`
	HotelID         string `bson:"hotel_id"`
	RoomID          string `bson:"room_id,omitempty"`
	SiteID          string `bson:"site_id,omitempty"`
	ClientName      string `bson:"client_name"`
	ClientEmail     string `bson:"client_email"`
	ClientPhone     string `bson:"client_phone"`
	ClientAddress   string `bson:"client_address"`
	CheckIn         any    `bson:"check_in"`
	CheckOut        any    `bson:"check_out"`
	AmountCents     int64  `bson:"amount_cents"`
	Currency        string `bson:"currency"`
	PaymentReceived bool   `bson:"payment_received"`
	PaymentDate     string `bson:"payment_date,omitempty"`
	InvoiceNumber   string `bson:"invoice_number"`
	Status          string `bson:"status"`
	CreatedBy       string `bson:"created_by"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
	Version         int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:              string(b.ID),
		HotelID:         string(b.HotelID),
		ClientName:      b.Client.Name,
		ClientEmail:     b.Client.Email,
		ClientPhone:     b.Client.Phone,
		ClientAddress:   b.Client.Address,
		CheckIn:         b.Range.CheckIn.String(),
		CheckOut:        b.Range.CheckOut.String(),
		AmountCents:     b.Amount.Amount,
		Currency:        b.Amount.Currency,
		PaymentReceived: b.Payment.Received,
		InvoiceNumber:   b.InvoiceNumber,
		Status:          string(b.Status),
		CreatedBy:       string(b.CreatedBy),
		CreatedAt:       millis(b.CreatedAt),
		UpdatedAt:       millis(b.UpdatedAt),
		Version:         b.Version,
	}
	if b.Payment.Received {
		doc.PaymentDate = b.Payment.Date.String()
	}
	switch b.Unit.Kind {
	case domaininventory.KindRoom:
		doc.RoomID = string(b.Unit.ID)
	case domaininventory.KindSite:
		doc.SiteID = string(b.Unit.ID)
	}
	return doc
}

func (d bookingDocument) toAggregate(loc *time.Location) *domainbooking.Booking {
	in, _ := dateValue(d.CheckIn).DayIn(loc)
	out, _ := dateValue(d.CheckOut).DayIn(loc)
	unit, _ := domainbooking.UnitFromIDs(d.RoomID, d.SiteID)
	status, err := domainbooking.ParseStatus(d.Status)
	if err != nil {
		status = domainbooking.StatusConfirmed
	}
	currency := d.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	b := &domainbooking.Booking{
		ID:      domainbooking.ID(d.ID),
		HotelID: domainhotel.ID(d.HotelID),
		Unit:    unit,
		Client: domainbooking.Client{
			Name:    d.ClientName,
			Email:   d.ClientEmail,
			Phone:   d.ClientPhone,
			Address: d.ClientAddress,
		},
		Range:         daterange.DateRange{CheckIn: in, CheckOut: out},
		Amount:        money.Money{Amount: d.AmountCents, Currency: currency},
		InvoiceNumber: d.InvoiceNumber,
		Status:        status,
		CreatedBy:     domainuser.ID(d.CreatedBy),
		CreatedAt:     fromMillis(d.CreatedAt),
		UpdatedAt:     fromMillis(d.UpdatedAt),
		Version:       d.Version,
	}
	if d.PaymentReceived {
		b.Payment.Received = true
		b.Payment.Date, _ = calday.ParseDay(d.PaymentDate)
	}
	return b
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainbooking.ErrNotFound)
	}
	return doc.toAggregate(r.loc), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, b.Version, doc); err != nil {
		return err
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainbooking.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) List(ctx context.Context, filter domainbooking.Filter) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}, {Key: "created_at", Value: 1}})
	return findAll(ctx, r.col, bookingFilter(filter), opts, func(d bookingDocument) *domainbooking.Booking {
		return d.toAggregate(r.loc)
	})
}

func (r *BookingRepository) Count(ctx context.Context, filter domainbooking.Filter) (int, error) {
	n, err := r.col.CountDocuments(ctx, bookingFilter(filter))
	return int(n), err
}

// RecordsByHotel reads raw documents so dates of any stored shape reach the
// resolver, which skips the ones it cannot interpret. It reads committed
// bookings outside the caller's transaction, so the conflict check never sees
// an older snapshot than the unit lock.
func (r *BookingRepository) RecordsByHotel(ctx context.Context, hotelID domainhotel.ID) ([]domainbooking.Record, error) {
	ctx = withoutSession(ctx)
	opts := options.Find().SetProjection(bson.M{"room_id": 1, "site_id": 1, "check_in": 1, "check_out": 1, "status": 1})
	cur, err := r.col.Find(ctx, bson.M{"hotel_id": string(hotelID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domainbooking.Record
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, recordFromRaw(raw))
	}
	return out, cur.Err()
}

func recordFromRaw(raw bson.M) domainbooking.Record {
	rec := domainbooking.Record{
		RoomID:   stringField(raw["room_id"]),
		SiteID:   stringField(raw["site_id"]),
		CheckIn:  dateValue(raw["check_in"]),
		CheckOut: dateValue(raw["check_out"]),
	}
	switch id := raw["_id"].(type) {
	case string:
		rec.ID = domainbooking.ID(id)
	case primitive.ObjectID:
		rec.ID = domainbooking.ID(id.Hex())
	}
	rec.Cancelled = strings.EqualFold(stringField(raw["status"]), string(domainbooking.StatusCancelled))
	return rec
}

func bookingFilter(f domainbooking.Filter) bson.M {
	filter := bson.M{}
	if f.HotelID != "" {
		filter["hotel_id"] = string(f.HotelID)
	}
	if f.CreatedBy != "" {
		filter["created_by"] = string(f.CreatedBy)
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if !f.CheckInDay.IsZero() {
		start := f.CheckInDay.Time()
		filter["$or"] = bson.A{
			bson.M{"check_in": f.CheckInDay.String()},
			bson.M{"check_in": bson.M{"$gte": start, "$lt": start.AddDate(0, 0, 1)}},
		}
	}
	return filter
}

// dateValue normalizes driver types before classification.
func dateValue(raw any) calday.Value {
	switch v := raw.(type) {
	case primitive.DateTime:
		return calday.Timestamp(v.Time())
	case primitive.Timestamp:
		return calday.EpochSeconds(int64(v.T))
	case primitive.M:
		return calday.ValueFromAny(map[string]any(v))
	case primitive.D:
		return calday.ValueFromAny(map[string]any(v.Map()))
	default:
		return calday.ValueFromAny(raw)
	}
}

func stringField(raw any) string {
	s, _ := raw.(string)
	return strings.TrimSpace(s)
}
