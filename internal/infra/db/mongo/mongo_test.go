package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	domainbooking "motelbook/internal/domain/booking"
	"motelbook/internal/domain/shared/calday"
	"motelbook/internal/domain/shared/daterange"
	"motelbook/internal/domain/shared/money"
)

func TestRecordFromRawToleratesLegacyDates(t *testing.T) {
	at := time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		raw  any
		want string
		ok   bool
	}{
		{name: "iso string", raw: "2024-06-10", want: "2024-06-10", ok: true},
		{name: "datetime", raw: primitive.NewDateTimeFromTime(at), want: "2024-06-10", ok: true},
		{name: "epoch seconds", raw: at.Unix(), want: "2024-06-10", ok: true},
		{name: "seconds document", raw: bson.M{"seconds": at.Unix(), "nanoseconds": int32(0)}, want: "2024-06-10", ok: true},
		{name: "seconds ordered document", raw: bson.D{{Key: "seconds", Value: at.Unix()}}, want: "2024-06-10", ok: true},
		{name: "missing", raw: nil, ok: false},
		{name: "garbage", raw: "soon", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := recordFromRaw(bson.M{"_id": "b-1", "room_id": "r1", "check_in": tc.raw})
			day, ok := rec.CheckIn.DayIn(time.UTC)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, day.String())
			}
		})
	}
}

func TestRecordFromRawIdentity(t *testing.T) {
	oid := primitive.NewObjectID()
	rec := recordFromRaw(bson.M{"_id": oid, "site_id": " s1 ", "status": "cancelled"})
	assert.Equal(t, domainbooking.ID(oid.Hex()), rec.ID)
	assert.Equal(t, "s1", rec.SiteID)
	assert.Empty(t, rec.RoomID)
	assert.True(t, rec.Cancelled)
}

func TestBookingDocumentRoundTrip(t *testing.T) {
	dr, err := daterange.New(calday.MustParse("2024-06-10"), calday.MustParse("2024-06-12"))
	require.NoError(t, err)
	b := &domainbooking.Booking{
		ID:            "b-1",
		HotelID:       "h1",
		Unit:          domainbooking.SiteRef("s1"),
		Client:        domainbooking.Client{Name: "Ada", Email: "ada@example.com", Phone: "0412345678", Address: "1 Beach Rd"},
		Range:         dr,
		Amount:        money.Must(25000, "AUD"),
		Payment:       domainbooking.Payment{Received: true, Date: calday.MustParse("2024-06-01")},
		InvoiceNumber: "INV-1",
		Status:        domainbooking.StatusActive,
		CreatedBy:     "u-1",
		CreatedAt:     time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		Version:       3,
	}

	doc := newBookingDocument(b)
	assert.Equal(t, "s1", doc.SiteID)
	assert.Equal(t, "2024-06-10", doc.CheckIn)
	assert.Equal(t, "2024-06-01", doc.PaymentDate)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded bookingDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	got := decoded.toAggregate(time.UTC)

	assert.Equal(t, b.Unit, got.Unit)
	assert.Equal(t, b.Client, got.Client)
	assert.Equal(t, "2024-06-10..2024-06-12", got.Range.String())
	assert.Equal(t, b.Amount, got.Amount)
	assert.True(t, got.Payment.Received)
	assert.Equal(t, "2024-06-01", got.Payment.Date.String())
	assert.Equal(t, domainbooking.StatusActive, got.Status)
	assert.Equal(t, b.CreatedAt, got.CreatedAt)
	assert.Equal(t, int64(3), got.Version)
}

func TestBookingFilter(t *testing.T) {
	f := bookingFilter(domainbooking.Filter{HotelID: "h1", CreatedBy: "u-1", CheckInDay: calday.MustParse("2024-06-10")})

	assert.Equal(t, "h1", f["hotel_id"])
	assert.Equal(t, "u-1", f["created_by"])
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"check_in": "2024-06-10"}, or[0])
	assert.NotContains(t, f, "status")

	assert.Empty(t, bookingFilter(domainbooking.Filter{}))
}

func TestWithoutSessionDropsValues(t *testing.T) {
	type key struct{}
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "session"))
	ctx := withoutSession(parent)

	assert.Nil(t, ctx.Value(key{}))
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestLegacyBookingDatesFollowTheRepositoryZone(t *testing.T) {
	at := time.Date(2024, 6, 10, 2, 0, 0, 0, time.UTC)
	doc := bookingDocument{
		ID:       "legacy",
		HotelID:  "h1",
		RoomID:   "r1",
		CheckIn:  primitive.NewDateTimeFromTime(at),
		CheckOut: at.Add(48 * time.Hour).Unix(),
	}

	utc := doc.toAggregate(time.UTC)
	assert.Equal(t, "2024-06-10..2024-06-12", utc.Range.String())

	east := doc.toAggregate(time.FixedZone("EST", -5*3600))
	assert.Equal(t, "2024-06-09..2024-06-11", east.Range.String())
}
