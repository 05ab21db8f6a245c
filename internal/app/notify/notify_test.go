package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motelbook/internal/app/notify"
	"motelbook/internal/app/outbox"
	"motelbook/internal/app/policies"
	domainbooking "motelbook/internal/domain/booking"
	"motelbook/internal/domain/notification"
	"motelbook/internal/domain/shared/events"
	domainuser "motelbook/internal/domain/user"
	"motelbook/internal/infra/storage/memory"
)

type sent struct {
	token string
	n     notification.Notification
}

type fakePush struct {
	mu      sync.Mutex
	sent    []sent
	failFor string
}

func (p *fakePush) Send(_ context.Context, token string, n notification.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if token == p.failFor {
		return errors.New("gateway down")
	}
	p.sent = append(p.sent, sent{token: token, n: n})
	return nil
}

type fakeInvoicing struct {
	contacts map[string]policies.Contact
	created  []policies.Contact
	lookup   error
}

func (f *fakeInvoicing) FindContactByEmail(_ context.Context, email string) (policies.Contact, error) {
	if f.lookup != nil {
		return policies.Contact{}, f.lookup
	}
	c, ok := f.contacts[email]
	if !ok {
		return policies.Contact{}, policies.ErrContactNotFound
	}
	return c, nil
}

func (f *fakeInvoicing) CreateContact(_ context.Context, c policies.Contact) (policies.Contact, error) {
	c.ID = "c-new"
	f.created = append(f.created, c)
	return c, nil
}

type counter struct{ outcomes []string }

func (c *counter) NotificationDelivered(outcome string) { c.outcomes = append(c.outcomes, outcome) }

func seedUsers(t *testing.T) *memory.UserRepository {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewUserRepository()
	for _, u := range []*domainuser.User{
		{ID: "a1", Email: "a1@example.com", Role: domainuser.RoleAdmin, PushToken: "tok-a1", CreatedAt: time.Unix(1, 0)},
		{ID: "a2", Email: "a2@example.com", Role: domainuser.RoleAdmin, CreatedAt: time.Unix(2, 0)},
		{ID: "a3", Email: "a3@example.com", Role: domainuser.RoleAdmin, PushToken: "tok-a3", CreatedAt: time.Unix(3, 0)},
		{ID: "s1", Email: "s1@example.com", Role: domainuser.RoleStaff, PushToken: "tok-s1", CreatedAt: time.Unix(4, 0)},
	} {
		require.NoError(t, repo.Save(ctx, u))
	}
	return repo
}

func record(t *testing.T, id string, ev events.DomainEvent) outbox.EventRecord {
	t.Helper()
	rec, err := outbox.JSONEventEncoder{IDGenerator: func() string { return id }}.Encode(ev)
	require.NoError(t, err)
	return rec
}

func created(paid bool) domainbooking.BookingCreated {
	return domainbooking.BookingCreated{
		BookingID:       "b-1",
		HotelID:         "h1",
		Client:          domainbooking.Client{Name: "Ada", Email: "ada@example.com", Phone: "0412345678", Address: "1 Beach Rd"},
		PaymentReceived: paid,
		CreatedBy:       "s1",
	}
}

func TestDispatcherSendsToAdminsWithTokens(t *testing.T) {
	push := &fakePush{}
	obs := &counter{}
	d := &notify.Dispatcher{Users: seedUsers(t), Push: push, Observer: obs}

	err := d.Notify(context.Background(), "", notification.ForCreated(created(false)))
	require.NoError(t, err)

	require.Len(t, push.sent, 4)
	recipients := map[domainuser.ID]int{}
	for _, s := range push.sent {
		recipients[s.n.RecipientID]++
	}
	assert.Equal(t, map[domainuser.ID]int{"a1": 2, "a3": 2}, recipients)
	assert.Equal(t, []string{"ok", "ok", "ok", "ok"}, obs.outcomes)
}

func TestDispatcherJoinsFailuresAndKeepsGoing(t *testing.T) {
	push := &fakePush{failFor: "tok-a1"}
	d := &notify.Dispatcher{Users: seedUsers(t), Push: push}

	err := d.Notify(context.Background(), "", []notification.Notification{notification.ForUpdated(domainbooking.BookingUpdated{BookingID: "b-1"})})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway down")
	require.Len(t, push.sent, 1)
	assert.Equal(t, "tok-a3", push.sent[0].token)
}

func TestInvoiceSyncCreatesMissingContact(t *testing.T) {
	inv := &fakeInvoicing{contacts: map[string]policies.Contact{}}
	s := &notify.InvoiceSync{Invoicing: inv}

	s.Sync(context.Background(), created(false))

	require.Len(t, inv.created, 1)
	assert.Equal(t, policies.Contact{ID: "c-new", Name: "ada@example.com", EmailAddress: "ada@example.com", PhoneNumber: "0412345678", AddressLine1: "1 Beach Rd"}, inv.created[0])
}

func TestInvoiceSyncSkipsExistingAndSwallowsErrors(t *testing.T) {
	inv := &fakeInvoicing{contacts: map[string]policies.Contact{"ada@example.com": {ID: "c-1"}}}
	s := &notify.InvoiceSync{Invoicing: inv}
	s.Sync(context.Background(), created(false))
	assert.Empty(t, inv.created)

	inv = &fakeInvoicing{lookup: errors.New("unauthorized")}
	s = &notify.InvoiceSync{Invoicing: inv}
	require.NotPanics(t, func() { s.Sync(context.Background(), created(false)) })
	assert.Empty(t, inv.created)
}

func TestRouterDispatchesByEventAndDedupes(t *testing.T) {
	push := &fakePush{}
	inv := &fakeInvoicing{contacts: map[string]policies.Contact{}}
	r := &notify.Router{
		Dispatcher: &notify.Dispatcher{Users: seedUsers(t), Push: push},
		Invoices:   &notify.InvoiceSync{Invoicing: inv},
		Inbox:      memory.NewInbox(),
		Source:     "app://motelbook",
	}
	ctx := context.Background()

	rec := record(t, "evt-1", created(true))
	require.NoError(t, r.HandleRecord(ctx, rec))
	require.NoError(t, r.HandleRecord(ctx, rec))

	require.Len(t, push.sent, 2)
	assert.Len(t, inv.created, 1)
	assert.Equal(t, notification.SubTypeCreated, push.sent[0].n.EventSubType)
	assert.Equal(t, notification.SubTypeCreated, push.sent[1].n.EventSubType)

	env, err := outbox.NewEnvelope(record(t, "evt-2", domainbooking.PaymentStatusChanged{BookingID: "b-1", ClientName: "Ada"}), "app://motelbook")
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, r.HandleMessage(ctx, raw))

	require.Len(t, push.sent, 4)
	assert.Equal(t, "Payment pending for booking of client Ada.", push.sent[3].n.Body)
}

func TestRouterRetriesFailedDelivery(t *testing.T) {
	push := &fakePush{failFor: "tok-a3"}
	r := &notify.Router{
		Dispatcher: &notify.Dispatcher{Users: seedUsers(t), Push: push},
		Inbox:      memory.NewInbox(),
	}
	ctx := context.Background()
	rec := record(t, "evt-9", domainbooking.BookingUpdated{BookingID: "b-1"})

	require.Error(t, r.HandleRecord(ctx, rec))
	push.failFor = ""
	require.NoError(t, r.HandleRecord(ctx, rec))
	require.NoError(t, r.HandleRecord(ctx, rec))

	assert.Len(t, push.sent, 3)
}

func TestRedeliveryOnlyReachesAdminsThatMissedIt(t *testing.T) {
	push := &fakePush{failFor: "tok-a3"}
	inbox := memory.NewInbox()
	r := &notify.Router{
		Dispatcher: &notify.Dispatcher{Users: seedUsers(t), Push: push, Receipts: inbox},
		Inbox:      inbox,
	}
	ctx := context.Background()
	rec := record(t, "evt-10", created(false))

	require.Error(t, r.HandleRecord(ctx, rec))
	require.Len(t, push.sent, 2)

	push.failFor = ""
	require.NoError(t, r.HandleRecord(ctx, rec))
	require.NoError(t, r.HandleRecord(ctx, rec))

	tokens := map[string]int{}
	for _, s := range push.sent {
		tokens[s.token]++
	}
	assert.Equal(t, map[string]int{"tok-a1": 2, "tok-a3": 2}, tokens)
}

func TestSkipMalformedAcknowledgesUndecodableEvents(t *testing.T) {
	push := &fakePush{}
	r := &notify.Router{Dispatcher: &notify.Dispatcher{Users: seedUsers(t), Push: push}, Inbox: memory.NewInbox()}
	ctx := context.Background()

	err := r.HandleMessage(ctx, []byte("not json"))
	assert.ErrorIs(t, err, notify.ErrMalformedEvent)

	handle := notify.SkipMalformed(r.HandleMessage, nil)
	assert.NoError(t, handle(ctx, []byte("not json")))

	env, err := outbox.NewEnvelope(record(t, "evt-11", domainbooking.BookingUpdated{BookingID: "b-1"}), "app://motelbook")
	require.NoError(t, err)
	env.Data = json.RawMessage(`"not an object"`)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.NoError(t, handle(ctx, raw))
	assert.Empty(t, push.sent)

	push.failFor = "tok-a1"
	good := record(t, "evt-12", domainbooking.BookingUpdated{BookingID: "b-1"})
	goodEnv, err := outbox.NewEnvelope(good, "app://motelbook")
	require.NoError(t, err)
	raw, err = json.Marshal(goodEnv)
	require.NoError(t, err)
	assert.Error(t, handle(ctx, raw), "delivery failures are not swallowed")
}
