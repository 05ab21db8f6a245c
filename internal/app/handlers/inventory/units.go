package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/uow"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	"motelbook/internal/domain/shared/money"
)

const (
	createUnitKey = "units.create"
	updateUnitKey = "units.update"
	deleteUnitKey = "units.delete"
)

var ErrUnitInUse = errors.New("inventory: unit has bookings")

type UnitFields struct {
	HotelID    string `validate:"required"`
	Kind       string `validate:"required,oneof=room site rooms sites"`
	Number     string `validate:"required"`
	PriceCents int64  `validate:"gte=0"`
	Currency   string `validate:"omitempty,len=3"`
	TypeID     string
}

func (f UnitFields) params() (domaininventory.Params, error) {
	kind, err := domaininventory.ParseKind(f.Kind)
	if err != nil {
		return domaininventory.Params{}, err
	}
	price, err := money.New(f.PriceCents, f.Currency)
	if err != nil {
		return domaininventory.Params{}, err
	}
	return domaininventory.Params{
		HotelID: domainhotel.ID(strings.TrimSpace(f.HotelID)),
		Kind:    kind,
		Number:  f.Number,
		Price:   price,
		TypeID:  domaininventory.TypeID(strings.TrimSpace(f.TypeID)),
	}, nil
}

type CreateUnitCommand struct {
	Actor support.Actor `validate:"-"`
	UnitFields
}

func (c CreateUnitCommand) Key() string             { return createUnitKey }
func (c CreateUnitCommand) ActingAs() support.Actor { return c.Actor }
func (c CreateUnitCommand) AdminOnly()              {}

type UpdateUnitCommand struct {
	Actor  support.Actor `validate:"-"`
	UnitID string        `validate:"required"`
	UnitFields
}

func (c UpdateUnitCommand) Key() string             { return updateUnitKey }
func (c UpdateUnitCommand) ActingAs() support.Actor { return c.Actor }
func (c UpdateUnitCommand) AdminOnly()              {}

type DeleteUnitCommand struct {
	Actor  support.Actor `validate:"-"`
	UnitID string        `validate:"required"`
}

func (c DeleteUnitCommand) Key() string             { return deleteUnitKey }
func (c DeleteUnitCommand) ActingAs() support.Actor { return c.Actor }
func (c DeleteUnitCommand) AdminOnly()              {}

type CommandHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CommandHandler) Create() commands.Handler[CreateUnitCommand, *dto.Unit] {
	return commands.HandlerFunc[CreateUnitCommand, *dto.Unit](func(ctx context.Context, cmd CreateUnitCommand) (*dto.Unit, error) {
		if err := cmd.Actor.RequireAdmin(); err != nil {
			return nil, err
		}
		params, err := cmd.params()
		if err != nil {
			return nil, err
		}
		unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		defer unit.Close(ctx)

		types, err := prepare(ctx, unit, params)
		if err != nil {
			return nil, err
		}
		u, err := domaininventory.NewUnit(domaininventory.ID(uuid.NewString()), params, h.now())
		if err != nil {
			return nil, err
		}
		if err := unit.Units().Save(ctx, u); err != nil {
			return nil, err
		}
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info("unit created", "unit_id", u.ID, "hotel_id", u.HotelID, "kind", u.Kind, "number", u.Number)
		}
		out := dto.MapUnit(u, types)
		return &out, nil
	})
}

func (h *CommandHandler) Update() commands.Handler[UpdateUnitCommand, *dto.Unit] {
	return commands.HandlerFunc[UpdateUnitCommand, *dto.Unit](func(ctx context.Context, cmd UpdateUnitCommand) (*dto.Unit, error) {
		if err := cmd.Actor.RequireAdmin(); err != nil {
			return nil, err
		}
		params, err := cmd.params()
		if err != nil {
			return nil, err
		}
		unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		defer unit.Close(ctx)

		u, err := unit.Units().ByID(ctx, domaininventory.ID(strings.TrimSpace(cmd.UnitID)))
		if err != nil {
			return nil, err
		}
		if u.HotelID != params.HotelID || u.Kind != params.Kind {
			if err := ensureUnused(ctx, unit, u); err != nil {
				return nil, err
			}
		}
		types, err := prepare(ctx, unit, params)
		if err != nil {
			return nil, err
		}
		if err := u.Update(params, h.now()); err != nil {
			return nil, err
		}
		if err := unit.Units().Save(ctx, u); err != nil {
			return nil, err
		}
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info("unit updated", "unit_id", u.ID, "hotel_id", u.HotelID)
		}
		out := dto.MapUnit(u, types)
		return &out, nil
	})
}

func (h *CommandHandler) Delete() commands.Handler[DeleteUnitCommand, struct{}] {
	return commands.HandlerFunc[DeleteUnitCommand, struct{}](func(ctx context.Context, cmd DeleteUnitCommand) (struct{}, error) {
		if err := cmd.Actor.RequireAdmin(); err != nil {
			return struct{}{}, err
		}
		unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
		if err != nil {
			return struct{}{}, err
		}
		defer unit.Close(ctx)

		u, err := unit.Units().ByID(ctx, domaininventory.ID(strings.TrimSpace(cmd.UnitID)))
		if err != nil {
			return struct{}{}, err
		}
		if err := ensureUnused(ctx, unit, u); err != nil {
			return struct{}{}, err
		}
		if err := unit.Units().Delete(ctx, u.ID); err != nil {
			return struct{}{}, err
		}
		if err := unit.Commit(ctx); err != nil {
			return struct{}{}, err
		}
		if h.Logger != nil {
			h.Logger.Info("unit deleted", "unit_id", u.ID, "hotel_id", u.HotelID)
		}
		return struct{}{}, nil
	})
}

// prepare checks the hotel exists and the type matches the unit kind.
func prepare(ctx context.Context, unit uow.UnitOfWork, p domaininventory.Params) (map[domaininventory.TypeID]*domaininventory.UnitType, error) {
	if _, err := unit.Hotels().ByID(ctx, p.HotelID); err != nil {
		return nil, err
	}
	if p.TypeID == "" {
		return nil, nil
	}
	t, err := unit.UnitTypes().ByID(ctx, p.TypeID)
	if err != nil {
		return nil, err
	}
	if t.Kind != p.Kind {
		return nil, fmt.Errorf("%w: %s is a %s type", domaininventory.ErrTypeNotFound, t.ID, t.Kind)
	}
	return map[domaininventory.TypeID]*domaininventory.UnitType{t.ID: t}, nil
}

// ensureUnused refuses changes that would orphan live bookings on u.
func ensureUnused(ctx context.Context, unit uow.UnitOfWork, u *domaininventory.Unit) error {
	records, err := unit.Bookings().RecordsByHotel(ctx, u.HotelID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Cancelled {
			continue
		}
		if ref, ok := rec.Unit(); ok && ref.Kind == u.Kind && ref.ID == u.ID {
			return fmt.Errorf("%w: %s", ErrUnitInUse, u.Number)
		}
	}
	return nil
}

func (h *CommandHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
