package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"motelbook/internal/app/uow"
	domainbooking "motelbook/internal/domain/booking"
	domainhotel "motelbook/internal/domain/hotel"
	domaininventory "motelbook/internal/domain/inventory"
	domainuser "motelbook/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	HotelsRepo    domainhotel.Repository
	UnitsRepo     domaininventory.Repository
	UnitTypesRepo domaininventory.TypeRepository
	BookingsRepo  domainbooking.Repository
	UsersRepo     domainuser.Repository
	LocksRepo     domainbooking.LockRepository
}

// NewFactory builds the repositories over db. Booking dates stored as
// instants are read in loc.
func NewFactory(db *mongo.Database, loc *time.Location) Factory {
	return Factory{
		DB:            db,
		HotelsRepo:    NewHotelRepository(db),
		UnitsRepo:     NewUnitRepository(db),
		UnitTypesRepo: NewUnitTypeRepository(db),
		BookingsRepo:  NewBookingRepository(db, loc),
		UsersRepo:     NewUserRepository(db),
		LocksRepo:     NewLockRepository(db),
	}
}

// Begin starts a MongoDB session/transaction. Read-only units skip the
// transaction and read with majority concern.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{factory: f, session: session, readOnly: opts.ReadOnly}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	factory  Factory
	session  mongo.Session
	readOnly bool
}

func (u *Unit) Hotels() domainhotel.Repository { return u.factory.HotelsRepo }

func (u *Unit) Units() domaininventory.Repository { return u.factory.UnitsRepo }

func (u *Unit) UnitTypes() domaininventory.TypeRepository { return u.factory.UnitTypesRepo }

func (u *Unit) Bookings() domainbooking.Repository { return u.factory.BookingsRepo }

func (u *Unit) Users() domainuser.Repository { return u.factory.UsersRepo }

func (u *Unit) Locks() domainbooking.LockRepository { return u.factory.LocksRepo }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
