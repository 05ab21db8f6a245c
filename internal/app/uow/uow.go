package uow

import (
	"context"

	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	domainuser "motelbook/internal/domain/user"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Hotels() domainhotel.Repository
	Units() domaininventory.Repository
	UnitTypes() domaininventory.TypeRepository
	Bookings() domainbooking.Repository
	Users() domainuser.Repository
	Locks() domainbooking.LockRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
