package support_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"motelbook/internal/app/handlers/support"
	domainhotel "motelbook/internal/domain/hotel"
	domainuser "motelbook/internal/domain/user"
)

type adminMsg struct{ actor support.Actor }

func (m adminMsg) ActingAs() support.Actor { return m.actor }
func (adminMsg) AdminOnly()                {}

type staffMsg struct{ actor support.Actor }

func (m staffMsg) ActingAs() support.Actor { return m.actor }

func TestRoleAuthorizer(t *testing.T) {
	admin := support.Actor{UserID: "a", Role: domainuser.RoleAdmin}
	staff := support.Actor{UserID: "s", Role: domainuser.RoleStaff}
	var authz support.RoleAuthorizer
	ctx := context.Background()

	assert.NoError(t, authz.Authorize(ctx, adminMsg{actor: admin}))
	assert.ErrorIs(t, authz.Authorize(ctx, adminMsg{actor: staff}), support.ErrForbidden)
	assert.ErrorIs(t, authz.Authorize(ctx, adminMsg{}), support.ErrUnauthenticated)
	assert.NoError(t, authz.Authorize(ctx, staffMsg{actor: staff}))
	assert.ErrorIs(t, authz.Authorize(ctx, staffMsg{}), support.ErrUnauthenticated)
	assert.NoError(t, authz.Authorize(ctx, struct{}{}))
}

func TestCanAccessHotel(t *testing.T) {
	h := &domainhotel.Hotel{ID: "h", StaffIDs: []domainuser.ID{"s1"}}

	assert.True(t, support.Actor{UserID: "a", Role: domainuser.RoleAdmin}.CanAccessHotel(h))
	assert.True(t, support.Actor{UserID: "s1", Role: domainuser.RoleStaff}.CanAccessHotel(h))
	assert.False(t, support.Actor{UserID: "s2", Role: domainuser.RoleStaff}.CanAccessHotel(h))
	assert.False(t, support.Actor{}.CanAccessHotel(h))
}
