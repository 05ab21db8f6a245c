package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"motelbook/internal/app/commands"
	availabilityapp "motelbook/internal/app/handlers/availability"
	bookingapp "motelbook/internal/app/handlers/booking"
	dashboardapp "motelbook/internal/app/handlers/dashboard"
	hotelsapp "motelbook/internal/app/handlers/hotels"
	inventoryapp "motelbook/internal/app/handlers/inventory"
	staffapp "motelbook/internal/app/handlers/staff"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/middleware"
	"motelbook/internal/app/notify"
	appoutbox "motelbook/internal/app/outbox"
	"motelbook/internal/app/policies"
	"motelbook/internal/app/queries"
	authsvc "motelbook/internal/app/services/auth"
	"motelbook/internal/app/uow"
	domainauth "motelbook/internal/domain/auth"
	"motelbook/internal/domain/availability"
	domainbooking "motelbook/internal/domain/booking"
	domaininventory "motelbook/internal/domain/inventory"
	domainuser "motelbook/internal/domain/user"
	"motelbook/internal/infra/broker/kafka"
	"motelbook/internal/infra/config"
	mongodb "motelbook/internal/infra/db/mongo"
	ginserver "motelbook/internal/infra/http/gin"
	"motelbook/internal/infra/inbox"
	"motelbook/internal/infra/invoicing"
	"motelbook/internal/infra/obs"
	"motelbook/internal/infra/outbox"
	"motelbook/internal/infra/pushgw"
	"motelbook/internal/infra/security"
	"motelbook/internal/infra/storage/memory"
	"motelbook/internal/infra/storage/s3"
	"motelbook/internal/infra/validation"
)

const eventSource = "app://motelbook"

type backgroundJob struct {
	name string
	run  func(ctx context.Context) error
}

type application struct {
	handlers   ginserver.Handlers
	auth       *authsvc.Service
	factory    uow.UoWFactory
	background []backgroundJob
	ready      func(ctx context.Context) error
	closers    []func(ctx context.Context) error
}

// persistence is what a storage backend contributes to the wiring.
type persistence struct {
	factory  uow.UoWFactory
	users    domainuser.Repository
	sessions domainauth.SessionStore
	idem     middleware.IdempotencyStore
	outbox   appoutbox.Outbox
	inbox    notify.Inbox
	// queue is set when the outbox is durable and needs a relay worker.
	queue outbox.Queue
	// relay is set when flushed records are handed over in-process.
	relay  *memory.Outbox
	ready  func(ctx context.Context) error
	closer func(ctx context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*application, error) {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &application{factory: store.factory, ready: store.ready}
	if store.closer != nil {
		app.closers = append(app.closers, store.closer)
	}

	var photos policies.PhotoStorage
	if cfg.S3Enabled() {
		ps, err := s3.NewPhotoStore(s3.Config{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.S3Bucket,
			UseSSL:         cfg.S3UseSSL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("photo storage: %w", err)
		}
		photos = ps
	} else {
		logger.Warn("S3 not configured, hotel photo upload disabled")
	}

	passwords := security.BcryptHasher{}
	app.auth = &authsvc.Service{
		Users:      store.users,
		Sessions:   store.sessions,
		Passwords:  passwords,
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	encoder := appoutbox.JSONEventEncoder{IDGenerator: uuid.NewString}
	guard := bookingapp.Guard{
		Resolver:  availability.Resolver{TurnaroundDays: cfg.TurnaroundDays, Location: cfg.Location()},
		LockTTL:   cfg.UnitLockTTL,
		Conflicts: metrics,
		Logger:    logger,
	}

	commandBus := commands.NewInMemoryBus()
	createBooking := &bookingapp.CreateBookingHandler{UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Guard: guard, Logger: logger}
	updateBooking := &bookingapp.UpdateBookingHandler{UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Guard: guard, Logger: logger}
	lifecycle := &bookingapp.LifecycleHandler{UoWFactory: store.factory, Outbox: store.outbox, Encoder: encoder, Logger: logger}
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), createBooking)
	commands.RegisterHandler(commandBus, bookingapp.UpdateBookingCommand{}.Key(), updateBooking)
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), lifecycle.Cancel())
	commands.RegisterHandler(commandBus, bookingapp.DeleteBookingCommand{}.Key(), lifecycle.Delete())

	hotelCommands := &hotelsapp.CommandHandler{UoWFactory: store.factory, Photos: photos, Logger: logger}
	commands.RegisterHandler(commandBus, hotelsapp.CreateHotelCommand{}.Key(), hotelCommands.Create())
	commands.RegisterHandler(commandBus, hotelsapp.UpdateHotelCommand{}.Key(), hotelCommands.Update())
	commands.RegisterHandler(commandBus, hotelsapp.DeleteHotelCommand{}.Key(), hotelCommands.Delete())
	commands.RegisterHandler(commandBus, hotelsapp.UploadHotelPhotoCommand{}.Key(), hotelCommands.UploadPhoto())

	unitCommands := &inventoryapp.CommandHandler{UoWFactory: store.factory, Logger: logger}
	commands.RegisterHandler(commandBus, inventoryapp.CreateUnitCommand{}.Key(), unitCommands.Create())
	commands.RegisterHandler(commandBus, inventoryapp.UpdateUnitCommand{}.Key(), unitCommands.Update())
	commands.RegisterHandler(commandBus, inventoryapp.DeleteUnitCommand{}.Key(), unitCommands.Delete())

	staff := &staffapp.Handler{UoWFactory: store.factory, Passwords: passwords, Sessions: app.auth, Logger: logger}
	commands.RegisterHandler(commandBus, staffapp.CreateStaffCommand{}.Key(), staff.Create())
	commands.RegisterHandler(commandBus, staffapp.UpdateStaffCommand{}.Key(), staff.Update())
	commands.RegisterHandler(commandBus, staffapp.DeleteStaffCommand{}.Key(), staff.Delete())

	queryBus := queries.NewInMemoryBus()
	bookingQueries := &bookingapp.QueryHandler{UoWFactory: store.factory, Resolver: guard.Resolver}
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), bookingQueries.Get())
	queries.RegisterHandler(queryBus, bookingapp.ListBookingsQuery{}.Key(), bookingQueries.List())
	queries.RegisterHandler(queryBus, bookingapp.CalendarMarksQuery{}.Key(), bookingQueries.CalendarMarks())

	availabilityQueries := &availabilityapp.Handler{UoWFactory: store.factory, Resolver: guard.Resolver}
	queries.RegisterHandler(queryBus, availabilityapp.GetAvailabilityQuery{}.Key(), availabilityQueries.Availability())
	queries.RegisterHandler(queryBus, availabilityapp.GetOccupancyQuery{}.Key(), availabilityQueries.Occupancy())

	hotelQueries := &hotelsapp.QueryHandler{UoWFactory: store.factory}
	queries.RegisterHandler(queryBus, hotelsapp.ListHotelsQuery{}.Key(), hotelQueries.List())
	queries.RegisterHandler(queryBus, hotelsapp.GetHotelQuery{}.Key(), hotelQueries.Get())

	unitQueries := &inventoryapp.QueryHandler{UoWFactory: store.factory}
	queries.RegisterHandler(queryBus, inventoryapp.ListUnitsQuery{}.Key(), unitQueries.Units())
	queries.RegisterHandler(queryBus, inventoryapp.ListUnitTypesQuery{}.Key(), unitQueries.UnitTypes())

	queries.RegisterHandler(queryBus, staffapp.ListStaffQuery{}.Key(), staff.List())
	queries.RegisterHandler(queryBus, dashboardapp.GetStatsQuery{}.Key(), &dashboardapp.StatsHandler{UoWFactory: store.factory})

	validator := validation.New()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Metrics(metrics),
		middleware.Authorization(support.RoleAuthorizer{}),
		middleware.Validation(validator),
		middleware.Idempotency(store.idem, nil),
		middleware.Transaction(store.factory, nil),
		middleware.OutboxFlush(store.outbox),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryMetrics(metrics),
		middleware.QueryAuthorization(support.RoleAuthorizer{}),
		middleware.QueryValidation(validator),
	)

	if err := app.wireNotifications(cfg, store, logger, metrics); err != nil {
		return nil, err
	}

	app.handlers = ginserver.Handlers{
		Auth:           &ginserver.AuthHandler{Service: app.auth, Logger: logger},
		Admin:          &ginserver.AdminHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Hotels:         &ginserver.HotelHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Availability:   &ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware, Logger: logger},
		Inventory:      &ginserver.InventoryHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Bookings:       &ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: app.auth, Logger: logger}.Handle,
		Metrics:        metrics.Handler(),
	}
	return app, nil
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence, error) {
	if cfg.Storage != config.StorageMongo {
		store := memory.NewStore()
		relay := memory.NewOutbox()
		idem := memory.NewIdempotencyStore()
		idem.TTL = cfg.IdempotencyTTL
		logger.Info("using in-memory storage")
		return persistence{
			factory:  store.Factory(),
			users:    store.Users,
			sessions: memory.NewSessionStore(),
			idem:     idem,
			outbox:   relay,
			inbox:    memory.NewInbox(),
			relay:    relay,
			ready:    func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return persistence{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		return persistence{}, fmt.Errorf("mongo indexes: %w", err)
	}
	idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return persistence{}, fmt.Errorf("idempotency store: %w", err)
	}
	box, err := outbox.NewStore(ctx, client.DB)
	if err != nil {
		return persistence{}, fmt.Errorf("outbox store: %w", err)
	}
	processed, err := inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID)
	if err != nil {
		return persistence{}, fmt.Errorf("inbox store: %w", err)
	}
	factory := mongodb.NewFactory(client.DB, cfg.Location())
	logger.Info("using mongo storage", "database", cfg.MongoDB)
	return persistence{
		factory:  factory,
		users:    factory.UsersRepo,
		sessions: mongodb.NewSessionStore(client.DB),
		idem:     idem,
		outbox:   box,
		inbox:    processed,
		queue:    box,
		ready:    client.Ping,
		closer:   client.Close,
	}, nil
}

// wireNotifications connects booking events to the push and invoicing
// subscribers through whichever relay the storage backend supports.
func (a *application) wireNotifications(cfg config.Config, store persistence, logger *slog.Logger, metrics *obs.Metrics) error {
	router := &notify.Router{Inbox: store.inbox, Source: eventSource, Logger: logger}
	if cfg.PushGatewayURL != "" {
		router.Dispatcher = &notify.Dispatcher{
			Users:    store.users,
			Push:     pushgw.New(cfg.PushGatewayURL, cfg.PushGatewayTimeout),
			Receipts: store.inbox,
			Logger:   logger,
			Observer: metrics,
		}
	} else {
		logger.Warn("push gateway not configured, admin notifications disabled")
	}
	if cfg.InvoicingURL != "" {
		router.Invoices = &notify.InvoiceSync{
			Invoicing: invoicing.New(cfg.InvoicingURL, cfg.InvoicingUsername, cfg.InvoicingPassword, cfg.InvoicingTimeout),
			Logger:    logger,
		}
	}

	if store.relay != nil {
		if cfg.KafkaEnabled() {
			logger.Warn("kafka needs mongo storage for the outbox, relaying in-process")
		}
		store.relay.Backoff = cfg.RetryBackoff
		a.background = append(a.background, backgroundJob{name: "outbox-relay", run: func(ctx context.Context) error {
			return store.relay.Run(ctx, router.HandleRecord, func(rec appoutbox.EventRecord, err error) {
				logger.Warn("booking event not delivered", "event_id", rec.ID, "event", rec.Name, "error", err)
			})
		}})
		return nil
	}

	worker := &outbox.Worker{
		Store:       store.queue,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      eventSource,
		ID:          "outbox-" + uuid.NewString(),
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
		Observer:    metrics,
	}
	if !cfg.KafkaEnabled() {
		worker.Producer = inProcessProducer{handle: notify.SkipMalformed(router.HandleMessage, logger)}
		a.background = append(a.background, backgroundJob{name: "outbox-worker", run: worker.Run})
		return nil
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig())
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	worker.Producer = producer
	handle := kafka.PayloadHandler(notify.SkipMalformed(router.HandleMessage, logger))
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, kafka.NewConfig(), handle, logger)
	if err != nil {
		_ = producer.Close()
		return fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.Backoff = cfg.RetryBackoff
	topics := []string{appoutbox.TopicFor(cfg.KafkaTopicPrefix, domainbooking.EventCreated)}
	a.background = append(a.background,
		backgroundJob{name: "outbox-worker", run: worker.Run},
		backgroundJob{name: "booking-consumer", run: func(ctx context.Context) error { return consumer.Run(ctx, topics) }},
	)
	a.closers = append(a.closers,
		func(context.Context) error { return producer.Close() },
		func(context.Context) error { return consumer.Close() },
	)
	return nil
}

// inProcessProducer stands in for the broker when Kafka is not configured.
type inProcessProducer struct {
	handle func(ctx context.Context, payload []byte) error
}

func (p inProcessProducer) Publish(ctx context.Context, _ string, _ string, payload []byte, _ map[string]string) error {
	return p.handle(ctx, payload)
}

var defaultUnitTypes = []struct {
	id    domaininventory.TypeID
	kind  domaininventory.Kind
	title string
}{
	{"room-standard-queen", domaininventory.KindRoom, "Standard Queen"},
	{"room-deluxe-double", domaininventory.KindRoom, "Deluxe Double"},
	{"room-family", domaininventory.KindRoom, "Family Room"},
	{"site-powered", domaininventory.KindSite, "Powered Site"},
	{"site-unpowered", domaininventory.KindSite, "Unpowered Site"},
	{"site-ensuite", domaininventory.KindSite, "Ensuite Site"},
}

// bootstrap seeds the unit type catalog and the configured admin account.
func (a *application) bootstrap(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	unit, err := a.factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	txCtx := uow.Attach(ctx, unit)
	for _, def := range defaultUnitTypes {
		if _, err := unit.UnitTypes().ByID(txCtx, def.id); err == nil {
			continue
		}
		t, err := domaininventory.NewUnitType(def.id, def.kind, def.title)
		if err != nil {
			_ = unit.Rollback(txCtx)
			return err
		}
		if err := unit.UnitTypes().Save(txCtx, t); err != nil {
			_ = unit.Rollback(txCtx)
			return fmt.Errorf("seed unit type %s: %w", def.id, err)
		}
	}
	if err := unit.Commit(txCtx); err != nil {
		return err
	}

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}
	admin, err := a.auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	logger.Info("admin account ready", "user_id", admin.ID, "email", admin.Email)
	return nil
}

func (a *application) close(ctx context.Context, logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}
