package support

import (
	"context"
	"errors"
	"strings"

	domainhotel "motelbook/internal/domain/hotel"
	domainuser "motelbook/internal/domain/user"
)

var (
	ErrUnauthenticated = errors.New("access: authentication required")
	ErrForbidden       = errors.New("access: forbidden")
)

// Actor is the authenticated user a command or query runs for.
type Actor struct {
	UserID domainuser.ID
	Role   domainuser.Role
}

func (a Actor) Authenticated() bool {
	return strings.TrimSpace(string(a.UserID)) != ""
}

func (a Actor) IsAdmin() bool {
	return a.Authenticated() && a.Role == domainuser.RoleAdmin
}

func (a Actor) RequireAuthenticated() error {
	if !a.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func (a Actor) RequireAdmin() error {
	if err := a.RequireAuthenticated(); err != nil {
		return err
	}
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// CanAccessHotel is true for admins and for staff assigned to h.
func (a Actor) CanAccessHotel(h *domainhotel.Hotel) bool {
	if h == nil || !a.Authenticated() {
		return false
	}
	return a.IsAdmin() || h.HasStaff(a.UserID)
}

// Acting is implemented by messages that carry an actor.
type Acting interface {
	ActingAs() Actor
}

// AdminOnly marks messages restricted to admins.
type AdminOnly interface {
	Acting
	AdminOnly()
}

// RoleAuthorizer rejects AdminOnly messages from non-admins and any Acting
// message without an authenticated actor.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(_ context.Context, message any) error {
	if m, ok := message.(AdminOnly); ok {
		return m.ActingAs().RequireAdmin()
	}
	if m, ok := message.(Acting); ok {
		return m.ActingAs().RequireAuthenticated()
	}
	return nil
}
