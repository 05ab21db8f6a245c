package middleware_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/middleware"
	"motelbook/internal/app/queries"
	"motelbook/internal/app/uow"
)

type createThing struct {
	Name    string
	IdemKey string
}

func (createThing) Key() string              { return "thing.create" }
func (c createThing) IdempotencyKey() string { return c.IdemKey }
func (createThing) ResultPrototype() any     { return &thingResult{} }

type thingResult struct {
	ID string `json:"id"`
}

type memoryIdemStore struct {
	mu   sync.Mutex
	recs map[string]middleware.IdempotencyRecord
}

func (s *memoryIdemStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[key]
	return rec, ok, nil
}

func (s *memoryIdemStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recs == nil {
		s.recs = map[string]middleware.IdempotencyRecord{}
	}
	s.recs[rec.Key] = rec
	return nil
}

func TestIdempotencyReplaysSuccessOnly(t *testing.T) {
	calls := 0
	fail := true
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[createThing, *thingResult](bus, "thing.create", commands.HandlerFunc[createThing, *thingResult](
		func(_ context.Context, c createThing) (*thingResult, error) {
			calls++
			if fail {
				return nil, errors.New("conflict")
			}
			return &thingResult{ID: c.Name}, nil
		},
	))
	wrapped := middleware.ChainCommands(bus, middleware.Idempotency(&memoryIdemStore{}, nil))
	ctx := context.Background()

	_, err := wrapped.Dispatch(ctx, createThing{Name: "a", IdemKey: "k1"})
	require.Error(t, err)

	fail = false
	first, err := commands.Dispatch[createThing, *thingResult](ctx, wrapped, createThing{Name: "a", IdemKey: "k1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[createThing, *thingResult](ctx, wrapped, createThing{Name: "b", IdemKey: "k1"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "a", second.ID)
}

type fakeUnit struct {
	uow.UnitOfWork
	committed  bool
	rolledBack bool
}

func (u *fakeUnit) Commit(context.Context) error   { u.committed = true; return nil }
func (u *fakeUnit) Rollback(context.Context) error { u.rolledBack = true; return nil }

type fakeFactory struct{ units []*fakeUnit }

func (f *fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	return u, nil
}

func TestTransactionCommitsOrRollsBack(t *testing.T) {
	fail := false
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[createThing, *thingResult](bus, "thing.create", commands.HandlerFunc[createThing, *thingResult](
		func(ctx context.Context, c createThing) (*thingResult, error) {
			_, ok := uow.FromContext(ctx)
			require.True(t, ok)
			if fail {
				return nil, errors.New("boom")
			}
			return &thingResult{ID: c.Name}, nil
		},
	))
	factory := &fakeFactory{}
	wrapped := middleware.ChainCommands(bus, middleware.Transaction(factory, nil))

	_, err := wrapped.Dispatch(context.Background(), createThing{Name: "x"})
	require.NoError(t, err)
	fail = true
	_, err = wrapped.Dispatch(context.Background(), createThing{Name: "y"})
	require.Error(t, err)

	require.Len(t, factory.units, 2)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)
	assert.False(t, factory.units[1].committed)
	assert.True(t, factory.units[1].rolledBack)
}

type sample struct {
	kind, key, outcome string
}

type recordingObserver struct{ samples []sample }

func (o *recordingObserver) ObserveMessage(kind, key, outcome string, _ time.Duration) {
	o.samples = append(o.samples, sample{kind, key, outcome})
}

func TestMetricsAndNilMiddlewareSkipped(t *testing.T) {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[createThing, *thingResult](bus, "thing.create", commands.HandlerFunc[createThing, *thingResult](
		func(context.Context, createThing) (*thingResult, error) { return nil, context.Canceled },
	))
	obs := &recordingObserver{}
	wrapped := middleware.ChainCommands(bus, middleware.Metrics(obs), middleware.Metrics(nil))

	_, err := wrapped.Dispatch(context.Background(), createThing{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []sample{{"command", "thing.create", "canceled"}}, obs.samples)
}

func TestTransactionRunsCompletionAfterCommit(t *testing.T) {
	var order []string
	factory := &fakeFactory{}
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[createThing, *thingResult](bus, "thing.create", commands.HandlerFunc[createThing, *thingResult](
		func(ctx context.Context, c createThing) (*thingResult, error) {
			require.True(t, uow.AfterCompletion(ctx, func() {
				order = append(order, "release")
				assert.True(t, factory.units[0].committed)
			}))
			order = append(order, "handle")
			return &thingResult{ID: c.Name}, nil
		},
	))
	wrapped := middleware.ChainCommands(bus, middleware.Transaction(factory, nil))

	_, err := wrapped.Dispatch(context.Background(), createThing{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"handle", "release"}, order)
	assert.False(t, uow.AfterCompletion(context.Background(), func() {}))
}

var (
	errAnonymous = errors.New("anonymous")
	errNoName    = errors.New("name required")
)

type gate func(ctx context.Context, message any) error

func (g gate) Authorize(ctx context.Context, message any) error { return g(ctx, message) }
func (g gate) Validate(ctx context.Context, message any) error  { return g(ctx, message) }

type findThing struct{ Name string }

func (findThing) Key() string { return "thing.find" }

func TestAuthorizationRunsBeforeValidation(t *testing.T) {
	bus := commands.NewInMemoryBus()
	calls := 0
	commands.RegisterHandler[createThing, *thingResult](bus, "thing.create", commands.HandlerFunc[createThing, *thingResult](
		func(_ context.Context, c createThing) (*thingResult, error) {
			calls++
			return &thingResult{ID: c.Name}, nil
		},
	))
	var seen []string
	authorize := gate(func(_ context.Context, m any) error {
		seen = append(seen, "authorize")
		if m.(createThing).IdemKey == "anon" {
			return errAnonymous
		}
		return nil
	})
	validate := gate(func(_ context.Context, m any) error {
		seen = append(seen, "validate")
		if m.(createThing).Name == "" {
			return errNoName
		}
		return nil
	})
	wrapped := middleware.ChainCommands(bus, middleware.Authorization(authorize), middleware.Validation(validate))

	_, err := wrapped.Dispatch(context.Background(), createThing{IdemKey: "anon"})
	assert.ErrorIs(t, err, errAnonymous)
	assert.Equal(t, []string{"authorize"}, seen)

	_, err = wrapped.Dispatch(context.Background(), createThing{})
	assert.ErrorIs(t, err, errNoName)

	res, err := commands.Dispatch[createThing, *thingResult](context.Background(), wrapped, createThing{Name: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "t1", res.ID)
	assert.Equal(t, 1, calls)
}

func TestQueryGatesStopBeforeHandler(t *testing.T) {
	bus := queries.NewInMemoryBus()
	calls := 0
	queries.RegisterHandler[findThing, string](bus, "thing.find", queries.HandlerFunc[findThing, string](
		func(_ context.Context, q findThing) (string, error) {
			calls++
			return q.Name, nil
		},
	))
	deny := gate(func(context.Context, any) error { return errAnonymous })
	allow := gate(func(context.Context, any) error { return nil })

	_, err := middleware.ChainQueries(bus, middleware.QueryAuthorization(deny), middleware.QueryValidation(allow)).Ask(context.Background(), findThing{Name: "x"})
	assert.ErrorIs(t, err, errAnonymous)
	assert.Zero(t, calls)

	got, err := queries.Ask[findThing, string](context.Background(), middleware.ChainQueries(bus, middleware.QueryAuthorization(allow), middleware.QueryValidation(allow)), findThing{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", got)
	assert.Equal(t, 1, calls)

	assert.Panics(t, func() { middleware.Authorization(nil) })
	assert.Panics(t, func() { middleware.QueryValidation(nil) })
}
