package hotels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/policies"
	"motelbook/internal/app/uow"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domainuser "motelbook/internal/domain/user"
)

const (
	createHotelKey = "hotels.create"
	updateHotelKey = "hotels.update"
	deleteHotelKey = "hotels.delete"
	uploadPhotoKey = "hotels.photo.upload"
)

var (
	ErrUnknownStaff        = errors.New("hotels: staff member not found")
	ErrPhotoRequired       = errors.New("hotels: photo is required")
	ErrStorageUnavailable  = errors.New("hotels: photo storage unavailable")
	ErrUnsupportedMimeType = errors.New("hotels: photo must be jpeg, png or webp")
)

type HotelFields struct {
	Name     string   `validate:"required"`
	Address  string   `validate:"required"`
	StaffIDs []string `validate:"dive,required"`
}

func (f HotelFields) staff() []domainuser.ID {
	out := make([]domainuser.ID, 0, len(f.StaffIDs))
	for _, id := range f.StaffIDs {
		out = append(out, domainuser.ID(strings.TrimSpace(id)))
	}
	return out
}

type CreateHotelCommand struct {
	Actor support.Actor `validate:"-"`
	HotelFields
}

func (c CreateHotelCommand) Key() string             { return createHotelKey }
func (c CreateHotelCommand) ActingAs() support.Actor { return c.Actor }
func (c CreateHotelCommand) AdminOnly()              {}

type UpdateHotelCommand struct {
	Actor   support.Actor `validate:"-"`
	HotelID string        `validate:"required"`
	HotelFields
}

func (c UpdateHotelCommand) Key() string             { return updateHotelKey }
func (c UpdateHotelCommand) ActingAs() support.Actor { return c.Actor }
func (c UpdateHotelCommand) AdminOnly()              {}

type DeleteHotelCommand struct {
	Actor   support.Actor `validate:"-"`
	HotelID string        `validate:"required"`
}

func (c DeleteHotelCommand) Key() string             { return deleteHotelKey }
func (c DeleteHotelCommand) ActingAs() support.Actor { return c.Actor }
func (c DeleteHotelCommand) AdminOnly()              {}

type UploadHotelPhotoCommand struct {
	Actor       support.Actor `validate:"-"`
	HotelID     string        `validate:"required"`
	FileName    string
	ContentType string    `validate:"required"`
	Reader      io.Reader `validate:"-"`
}

func (c UploadHotelPhotoCommand) Key() string             { return uploadPhotoKey }
func (c UploadHotelPhotoCommand) ActingAs() support.Actor { return c.Actor }
func (c UploadHotelPhotoCommand) AdminOnly()              {}

type CommandHandler struct {
	UoWFactory uow.UoWFactory
	Photos     policies.PhotoStorage
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CommandHandler) Create() commands.Handler[CreateHotelCommand, *dto.Hotel] {
	return commands.HandlerFunc[CreateHotelCommand, *dto.Hotel](func(ctx context.Context, cmd CreateHotelCommand) (*dto.Hotel, error) {
		if err := cmd.Actor.RequireAdmin(); err != nil {
			return nil, err
		}
		unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		defer unit.Close(ctx)

		staff := cmd.staff()
		if err := checkStaff(ctx, unit, staff); err != nil {
			return nil, err
		}
		hotel, err := domainhotel.NewHotel(domainhotel.CreateParams{
			ID:       domainhotel.ID(uuid.NewString()),
			Name:     cmd.Name,
			Address:  cmd.Address,
			StaffIDs: staff,
			Now:      h.now(),
		})
		if err != nil {
			return nil, err
		}
		if err := unit.Hotels().Save(ctx, hotel); err != nil {
			return nil, err
		}
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		h.log("hotel created", hotel.ID, cmd.Actor)
		out := dto.MapHotel(hotel)
		return &out, nil
	})
}

func (h *CommandHandler) Update() commands.Handler[UpdateHotelCommand, *dto.Hotel] {
	return commands.HandlerFunc[UpdateHotelCommand, *dto.Hotel](func(ctx context.Context, cmd UpdateHotelCommand) (*dto.Hotel, error) {
		if err := cmd.Actor.RequireAdmin(); err != nil {
			return nil, err
		}
		unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		defer unit.Close(ctx)

		hotel, err := unit.Hotels().ByID(ctx, domainhotel.ID(strings.TrimSpace(cmd.HotelID)))
		if err != nil {
			return nil, err
		}
		staff := cmd.staff()
		if err := checkStaff(ctx, unit, staff); err != nil {
			return nil, err
		}
		if err := hotel.Update(cmd.Name, cmd.Address, staff, h.now()); err != nil {
			return nil, err
		}
		if err := unit.Hotels().Save(ctx, hotel); err != nil {
			return nil, err
		}
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		h.log("hotel updated", hotel.ID, cmd.Actor)
		out := dto.MapHotel(hotel)
		return &out, nil
	})
}

// Delete removes a hotel with its units. Hotels that still have bookings
// are refused.
func (h *CommandHandler) Delete() commands.Handler[DeleteHotelCommand, struct{}] {
	return commands.HandlerFunc[DeleteHotelCommand, struct{}](func(ctx context.Context, cmd DeleteHotelCommand) (struct{}, error) {
		if err := cmd.Actor.RequireAdmin(); err != nil {
			return struct{}{}, err
		}
		unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
		if err != nil {
			return struct{}{}, err
		}
		defer unit.Close(ctx)

		hotel, err := unit.Hotels().ByID(ctx, domainhotel.ID(strings.TrimSpace(cmd.HotelID)))
		if err != nil {
			return struct{}{}, err
		}
		n, err := unit.Bookings().Count(ctx, domainbooking.Filter{HotelID: hotel.ID})
		if err != nil {
			return struct{}{}, err
		}
		if n > 0 {
			return struct{}{}, fmt.Errorf("%w: %d bookings", domainhotel.ErrHasBookings, n)
		}
		units, err := unit.Units().ListByHotel(ctx, hotel.ID, "")
		if err != nil {
			return struct{}{}, err
		}
		for _, u := range units {
			if err := unit.Units().Delete(ctx, u.ID); err != nil {
				return struct{}{}, err
			}
		}
		if err := unit.Hotels().Delete(ctx, hotel.ID); err != nil {
			return struct{}{}, err
		}
		if err := unit.Commit(ctx); err != nil {
			return struct{}{}, err
		}
		h.log("hotel deleted", hotel.ID, cmd.Actor)
		return struct{}{}, nil
	})
}

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func (h *CommandHandler) UploadPhoto() commands.Handler[UploadHotelPhotoCommand, *dto.Hotel] {
	return commands.HandlerFunc[UploadHotelPhotoCommand, *dto.Hotel](func(ctx context.Context, cmd UploadHotelPhotoCommand) (*dto.Hotel, error) {
		if err := cmd.Actor.RequireAdmin(); err != nil {
			return nil, err
		}
		if h.Photos == nil {
			return nil, ErrStorageUnavailable
		}
		if cmd.Reader == nil {
			return nil, ErrPhotoRequired
		}
		ext, ok := photoExtensions[strings.ToLower(strings.TrimSpace(cmd.ContentType))]
		if !ok {
			return nil, ErrUnsupportedMimeType
		}

		unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		defer unit.Close(ctx)

		hotel, err := unit.Hotels().ByID(ctx, domainhotel.ID(strings.TrimSpace(cmd.HotelID)))
		if err != nil {
			return nil, err
		}
		key := path.Join("hotels", string(hotel.ID), uuid.NewString()+ext)
		url, err := h.Photos.Upload(ctx, key, cmd.Reader, cmd.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload photo: %w", err)
		}
		hotel.SetPhoto(url, h.now())
		if err := unit.Hotels().Save(ctx, hotel); err != nil {
			return nil, err
		}
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info("hotel photo uploaded", "hotel_id", hotel.ID, "object_key", key, "file_name", cmd.FileName)
		}
		out := dto.MapHotel(hotel)
		return &out, nil
	})
}

func checkStaff(ctx context.Context, unit uow.UnitOfWork, ids []domainuser.ID) error {
	for _, id := range ids {
		u, err := unit.Users().ByID(ctx, id)
		if err != nil {
			if errors.Is(err, domainuser.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownStaff, id)
			}
			return err
		}
		if u.Role != domainuser.RoleStaff {
			return fmt.Errorf("%w: %s is not staff", ErrUnknownStaff, id)
		}
	}
	return nil
}

func (h *CommandHandler) log(msg string, id domainhotel.ID, actor support.Actor) {
	if h.Logger != nil {
		h.Logger.Info(msg, "hotel_id", id, "user_id", actor.UserID)
	}
}

func (h *CommandHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
