package dashboard

import (
	"context"

	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/queries"
	"motelbook/internal/app/uow"
	domainbooking "motelbook/internal/domain/booking"
)

const getStatsKey = "dashboard.stats"

type GetStatsQuery struct {
	Actor support.Actor `validate:"-"`
}

func (q GetStatsQuery) Key() string             { return getStatsKey }
func (q GetStatsQuery) ActingAs() support.Actor { return q.Actor }

type StatsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *StatsHandler) Handle(ctx context.Context, q GetStatsQuery) (*dto.DashboardStats, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	var out dto.DashboardStats
	if out.TotalBookings, err = unit.Bookings().Count(ctx, domainbooking.Filter{}); err != nil {
		return nil, err
	}
	if out.ActiveBookings, err = unit.Bookings().Count(ctx, domainbooking.Filter{Status: domainbooking.StatusActive}); err != nil {
		return nil, err
	}
	if out.TotalHotels, err = unit.Hotels().Count(ctx); err != nil {
		return nil, err
	}
	if out.TotalUsers, err = unit.Users().Count(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

var _ queries.Handler[GetStatsQuery, *dto.DashboardStats] = (*StatsHandler)(nil)
