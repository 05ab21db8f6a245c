package hotels_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motelbook/internal/app/handlers/hotels"
	"motelbook/internal/app/handlers/support"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/money"
	domainuser "motelbook/internal/domain/user"
	"motelbook/internal/infra/storage/memory"
)

var (
	admin = support.Actor{UserID: "u-admin", Role: domainuser.RoleAdmin}
	staff = support.Actor{UserID: "u-staff", Role: domainuser.RoleStaff}
)

type fakePhotos struct {
	key  string
	body string
	err  error
}

func (f *fakePhotos) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, _ := io.ReadAll(r)
	f.key, f.body = key, string(data)
	return "https://cdn.example.com/" + key, nil
}

func setup(t *testing.T) (*memory.Store, *hotels.CommandHandler, *hotels.QueryHandler, *fakePhotos) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Users.Save(context.Background(), &domainuser.User{ID: staff.UserID, Email: "staff@example.com", Role: domainuser.RoleStaff}))
	require.NoError(t, store.Users.Save(context.Background(), &domainuser.User{ID: admin.UserID, Email: "admin@example.com", Role: domainuser.RoleAdmin}))
	photos := &fakePhotos{}
	return store,
		&hotels.CommandHandler{UoWFactory: store.Factory(), Photos: photos},
		&hotels.QueryHandler{UoWFactory: store.Factory()},
		photos
}

func TestCreateAndListHotels(t *testing.T) {
	_, cmds, qs, _ := setup(t)
	ctx := context.Background()

	_, err := cmds.Create().Handle(ctx, hotels.CreateHotelCommand{Actor: staff, HotelFields: hotels.HotelFields{Name: "X", Address: "Y"}})
	assert.ErrorIs(t, err, support.ErrForbidden)

	_, err = cmds.Create().Handle(ctx, hotels.CreateHotelCommand{Actor: admin, HotelFields: hotels.HotelFields{Name: "X", Address: "Y", StaffIDs: []string{"ghost"}}})
	assert.ErrorIs(t, err, hotels.ErrUnknownStaff)

	_, err = cmds.Create().Handle(ctx, hotels.CreateHotelCommand{Actor: admin, HotelFields: hotels.HotelFields{Name: "X", Address: "Y", StaffIDs: []string{string(admin.UserID)}}})
	assert.ErrorIs(t, err, hotels.ErrUnknownStaff)

	bay, err := cmds.Create().Handle(ctx, hotels.CreateHotelCommand{Actor: admin, HotelFields: hotels.HotelFields{Name: "Bayside", Address: "1 Beach Rd", StaffIDs: []string{"u-staff", "u-staff"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"u-staff"}, bay.StaffIDs)
	_, err = cmds.Create().Handle(ctx, hotels.CreateHotelCommand{Actor: admin, HotelFields: hotels.HotelFields{Name: "Alpine", Address: "2 Hill St"}})
	require.NoError(t, err)

	all, err := qs.List().Handle(ctx, hotels.ListHotelsQuery{Actor: admin})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	mine, err := qs.List().Handle(ctx, hotels.ListHotelsQuery{Actor: staff})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "Bayside", mine.Items[0].Name)

	got, err := qs.Get().Handle(ctx, hotels.GetHotelQuery{Actor: staff, HotelID: bay.ID})
	require.NoError(t, err)
	assert.Equal(t, "1 Beach Rd", got.Address)
}

func TestUpdateHotel(t *testing.T) {
	_, cmds, _, _ := setup(t)
	ctx := context.Background()
	h, err := cmds.Create().Handle(ctx, hotels.CreateHotelCommand{Actor: admin, HotelFields: hotels.HotelFields{Name: "Bayside", Address: "1 Beach Rd"}})
	require.NoError(t, err)

	got, err := cmds.Update().Handle(ctx, hotels.UpdateHotelCommand{Actor: admin, HotelID: h.ID, HotelFields: hotels.HotelFields{Name: "Bayside Lodge", Address: "1 Beach Rd", StaffIDs: []string{"u-staff"}}})
	require.NoError(t, err)
	assert.Equal(t, "Bayside Lodge", got.Name)
	assert.Equal(t, []string{"u-staff"}, got.StaffIDs)

	_, err = cmds.Update().Handle(ctx, hotels.UpdateHotelCommand{Actor: admin, HotelID: h.ID, HotelFields: hotels.HotelFields{Name: " ", Address: "x"}})
	assert.ErrorIs(t, err, domainhotel.ErrNameRequired)

	_, err = cmds.Update().Handle(ctx, hotels.UpdateHotelCommand{Actor: admin, HotelID: "missing", HotelFields: hotels.HotelFields{Name: "a", Address: "b"}})
	assert.ErrorIs(t, err, domainhotel.ErrNotFound)
}

func TestDeleteHotelRefusesWhenBooked(t *testing.T) {
	store, cmds, _, _ := setup(t)
	ctx := context.Background()
	h, err := cmds.Create().Handle(ctx, hotels.CreateHotelCommand{Actor: admin, HotelFields: hotels.HotelFields{Name: "Bayside", Address: "1 Beach Rd"}})
	require.NoError(t, err)
	hotelID := domainhotel.ID(h.ID)
	require.NoError(t, store.Units.Save(ctx, &domaininventory.Unit{ID: "r1", HotelID: hotelID, Kind: domaininventory.KindRoom, Number: "1", Price: money.Must(100, "")}))
	require.NoError(t, store.Bookings.Save(ctx, &domainbooking.Booking{ID: "b1", HotelID: hotelID, Unit: domainbooking.RoomRef("r1")}))

	_, err = cmds.Delete().Handle(ctx, hotels.DeleteHotelCommand{Actor: admin, HotelID: h.ID})
	assert.ErrorIs(t, err, domainhotel.ErrHasBookings)

	require.NoError(t, store.Bookings.Delete(ctx, "b1"))
	_, err = cmds.Delete().Handle(ctx, hotels.DeleteHotelCommand{Actor: admin, HotelID: h.ID})
	require.NoError(t, err)

	_, err = store.Units.ByID(ctx, "r1")
	assert.ErrorIs(t, err, domaininventory.ErrNotFound)
	_, err = store.Hotels.ByID(ctx, hotelID)
	assert.ErrorIs(t, err, domainhotel.ErrNotFound)
}

func TestUploadHotelPhoto(t *testing.T) {
	_, cmds, _, photos := setup(t)
	ctx := context.Background()
	h, err := cmds.Create().Handle(ctx, hotels.CreateHotelCommand{Actor: admin, HotelFields: hotels.HotelFields{Name: "Bayside", Address: "1 Beach Rd"}})
	require.NoError(t, err)

	_, err = cmds.UploadPhoto().Handle(ctx, hotels.UploadHotelPhotoCommand{Actor: admin, HotelID: h.ID, ContentType: "image/gif", Reader: strings.NewReader("gif")})
	assert.ErrorIs(t, err, hotels.ErrUnsupportedMimeType)

	got, err := cmds.UploadPhoto().Handle(ctx, hotels.UploadHotelPhotoCommand{Actor: admin, HotelID: h.ID, ContentType: "image/png", Reader: bytes.NewBufferString("png-bytes")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(photos.key, "hotels/"+h.ID+"/"))
	assert.True(t, strings.HasSuffix(photos.key, ".png"))
	assert.Equal(t, "png-bytes", photos.body)
	assert.Equal(t, "https://cdn.example.com/"+photos.key, got.PhotoURL)

	photos.err = errors.New("bucket gone")
	_, err = cmds.UploadPhoto().Handle(ctx, hotels.UploadHotelPhotoCommand{Actor: admin, HotelID: h.ID, ContentType: "image/png", Reader: strings.NewReader("x")})
	assert.ErrorContains(t, err, "bucket gone")
}
