package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motelbook/internal/app/services/auth"
	domainauth "motelbook/internal/domain/auth"
	domainuser "motelbook/internal/domain/user"
	"motelbook/internal/infra/storage/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (plainHasher) Compare(hash, p string) error {
	if hash != "hashed:"+p {
		return errors.New("mismatch")
	}
	return nil
}

type seqTokens struct{ n int }

func (g *seqTokens) NewToken() (string, error) {
	g.n++
	return "tok-" + string(rune('0'+g.n)), nil
}

type failingSave struct {
	*memory.UserRepository
}

func (failingSave) Save(context.Context, *domainuser.User) error { return errors.New("disk full") }

func newService(users domainuser.Repository) *auth.Service {
	return &auth.Service{
		Users:     users,
		Sessions:  memory.NewSessionStore(),
		Passwords: plainHasher{},
		Tokens:    &seqTokens{},
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc := newService(memory.NewUserRepository())
	ctx := context.Background()

	_, err := svc.EnsureAdmin(ctx, "admin@example.com", "short")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)

	first, err := svc.EnsureAdmin(ctx, " Admin@Example.com ", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, domainuser.RoleAdmin, first.Role)

	second, err := svc.EnsureAdmin(ctx, "admin@example.com", "other-pass")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestLoginRegistersPushToken(t *testing.T) {
	users := memory.NewUserRepository()
	svc := newService(users)
	ctx := context.Background()
	admin, err := svc.EnsureAdmin(ctx, "admin@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Login(ctx, auth.LoginParams{Email: "admin@example.com", Password: "nope"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, auth.LoginParams{Email: "ghost@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	res, err := svc.Login(ctx, auth.LoginParams{Email: "ADMIN@example.com", Password: "s3cret-pass", PushToken: "device-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	stored, err := users.ByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "device-1", stored.PushToken)

	resolved, err := svc.ResolveToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, resolved.User.ID)
	assert.Equal(t, domainuser.RoleAdmin, resolved.Session.Role)

	require.NoError(t, svc.Logout(ctx, res.Token))
	_, err = svc.ResolveToken(ctx, res.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestLoginSurvivesPushTokenFailure(t *testing.T) {
	users := memory.NewUserRepository()
	ctx := context.Background()
	require.NoError(t, users.Save(ctx, &domainuser.User{ID: "u1", Email: "a@example.com", PasswordHash: "hashed:pw-123456", Role: domainuser.RoleAdmin}))

	svc := newService(failingSave{users})
	res, err := svc.Login(ctx, auth.LoginParams{Email: "a@example.com", Password: "pw-123456", PushToken: "device-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestResolveTokenExpired(t *testing.T) {
	users := memory.NewUserRepository()
	svc := newService(users)
	ctx := context.Background()
	_, err := svc.EnsureAdmin(ctx, "admin@example.com", "s3cret-pass")
	require.NoError(t, err)
	res, err := svc.Login(ctx, auth.LoginParams{Email: "admin@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	svc.Now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.ResolveToken(ctx, res.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestRegisterPushTokenClears(t *testing.T) {
	users := memory.NewUserRepository()
	svc := newService(users)
	ctx := context.Background()
	admin, err := svc.EnsureAdmin(ctx, "admin@example.com", "s3cret-pass")
	require.NoError(t, err)

	u, err := svc.RegisterPushToken(ctx, admin.ID, "device-9")
	require.NoError(t, err)
	assert.Equal(t, "device-9", u.PushToken)

	u, err = svc.RegisterPushToken(ctx, admin.ID, "")
	require.NoError(t, err)
	assert.Empty(t, u.PushToken)
}
