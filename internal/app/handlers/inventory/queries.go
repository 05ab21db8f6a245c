package inventory

import (
	"context"
	"strings"

	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/queries"
	"motelbook/internal/app/uow"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
)

const (
	listUnitsKey     = "units.list"
	listUnitTypesKey = "unit_types.list"
)

// ListUnitsQuery lists units of one hotel, or of every hotel the actor can
// see when HotelID is empty. An empty Kind lists rooms and sites.
type ListUnitsQuery struct {
	Actor   support.Actor `validate:"-"`
	HotelID string
	Kind    string `validate:"omitempty,oneof=room site rooms sites"`
}

func (q ListUnitsQuery) Key() string             { return listUnitsKey }
func (q ListUnitsQuery) ActingAs() support.Actor { return q.Actor }

type ListUnitTypesQuery struct {
	Kind string `validate:"omitempty,oneof=room site rooms sites"`
}

func (q ListUnitTypesQuery) Key() string { return listUnitTypesKey }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *QueryHandler) Units() queries.Handler[ListUnitsQuery, *dto.UnitList] {
	return queries.HandlerFunc[ListUnitsQuery, *dto.UnitList](func(ctx context.Context, q ListUnitsQuery) (*dto.UnitList, error) {
		kind, err := parseOptionalKind(q.Kind)
		if err != nil {
			return nil, err
		}
		unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}

		var units []*domaininventory.Unit
		switch id := strings.TrimSpace(q.HotelID); {
		case id != "":
			hotel, err := unit.Hotels().ByID(ctx, domainhotel.ID(id))
			if err != nil {
				return nil, err
			}
			if !q.Actor.CanAccessHotel(hotel) {
				return nil, support.ErrForbidden
			}
			if units, err = unit.Units().ListByHotel(ctx, hotel.ID, kind); err != nil {
				return nil, err
			}
		case q.Actor.IsAdmin():
			if units, err = unit.Units().List(ctx, kind); err != nil {
				return nil, err
			}
		default:
			hotels, err := unit.Hotels().ListForStaff(ctx, q.Actor.UserID)
			if err != nil {
				return nil, err
			}
			for _, hotel := range hotels {
				items, err := unit.Units().ListByHotel(ctx, hotel.ID, kind)
				if err != nil {
					return nil, err
				}
				units = append(units, items...)
			}
		}

		types, err := unit.UnitTypes().List(ctx, "")
		if err != nil {
			return nil, err
		}
		index := dto.IndexUnitTypes(types)
		out := &dto.UnitList{Items: make([]dto.Unit, 0, len(units))}
		for _, u := range units {
			out.Items = append(out.Items, dto.MapUnit(u, index))
		}
		return out, nil
	})
}

func (h *QueryHandler) UnitTypes() queries.Handler[ListUnitTypesQuery, *dto.UnitTypeList] {
	return queries.HandlerFunc[ListUnitTypesQuery, *dto.UnitTypeList](func(ctx context.Context, q ListUnitTypesQuery) (*dto.UnitTypeList, error) {
		kind, err := parseOptionalKind(q.Kind)
		if err != nil {
			return nil, err
		}
		unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		types, err := unit.UnitTypes().List(ctx, kind)
		if err != nil {
			return nil, err
		}
		out := &dto.UnitTypeList{Items: make([]dto.UnitType, 0, len(types))}
		for _, t := range types {
			out.Items = append(out.Items, dto.MapUnitType(t))
		}
		return out, nil
	})
}

func parseOptionalKind(raw string) (domaininventory.Kind, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return domaininventory.ParseKind(raw)
}
