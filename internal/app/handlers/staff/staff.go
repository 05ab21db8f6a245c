package staff

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"motelbook/internal/app/commands"
	"motelbook/internal/app/dto"
	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/queries"
	"motelbook/internal/app/services/auth"
	"motelbook/internal/app/uow"
	domainuser "motelbook/internal/domain/user"
)

const (
	createStaffKey = "staff.create"
	updateStaffKey = "staff.update"
	deleteStaffKey = "staff.delete"
	listStaffKey   = "staff.list"
)

var ErrDeleteSelf = errors.New("staff: cannot delete your own account")

type CreateStaffCommand struct {
	Actor     support.Actor `validate:"-"`
	FirstName string        `validate:"required"`
	LastName  string        `validate:"required"`
	Email     string        `validate:"required,email"`
	Password  string        `validate:"required,min=8"`
	Role      string        `validate:"omitempty,oneof=admin staff"`
}

func (c CreateStaffCommand) Key() string             { return createStaffKey }
func (c CreateStaffCommand) ActingAs() support.Actor { return c.Actor }
func (c CreateStaffCommand) AdminOnly()              {}

// UpdateStaffCommand changes a profile. An empty Password keeps the current one.
type UpdateStaffCommand struct {
	Actor     support.Actor `validate:"-"`
	UserID    string        `validate:"required"`
	FirstName string        `validate:"required"`
	LastName  string        `validate:"required"`
	Email     string        `validate:"required,email"`
	Password  string        `validate:"omitempty,min=8"`
	Role      string        `validate:"omitempty,oneof=admin staff"`
}

func (c UpdateStaffCommand) Key() string             { return updateStaffKey }
func (c UpdateStaffCommand) ActingAs() support.Actor { return c.Actor }
func (c UpdateStaffCommand) AdminOnly()              {}

type DeleteStaffCommand struct {
	Actor  support.Actor `validate:"-"`
	UserID string        `validate:"required"`
}

func (c DeleteStaffCommand) Key() string             { return deleteStaffKey }
func (c DeleteStaffCommand) ActingAs() support.Actor { return c.Actor }
func (c DeleteStaffCommand) AdminOnly()              {}

// ListStaffQuery lists back-office users. Role narrows the list.
type ListStaffQuery struct {
	Actor support.Actor `validate:"-"`
	Role  string        `validate:"omitempty,oneof=admin staff"`
}

func (q ListStaffQuery) Key() string             { return listStaffKey }
func (q ListStaffQuery) ActingAs() support.Actor { return q.Actor }
func (q ListStaffQuery) AdminOnly()              {}

// SessionRevoker ends the sessions of a removed or re-credentialed user.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID domainuser.ID) error
}

type Handler struct {
	UoWFactory uow.UoWFactory
	Passwords  auth.PasswordHasher
	Sessions   SessionRevoker
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *Handler) Create() commands.Handler[CreateStaffCommand, *dto.UserProfile] {
	return commands.HandlerFunc[CreateStaffCommand, *dto.UserProfile](func(ctx context.Context, cmd CreateStaffCommand) (*dto.UserProfile, error) {
		if err := cmd.Actor.RequireAdmin(); err != nil {
			return nil, err
		}
		if err := auth.ValidatePassword(cmd.Password); err != nil {
			return nil, err
		}
		role, err := domainuser.ParseRole(cmd.Role)
		if err != nil {
			return nil, err
		}
		hash, err := h.Passwords.Hash(cmd.Password)
		if err != nil {
			return nil, err
		}
		unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		defer unit.Close(ctx)

		if err := emailFree(ctx, unit, cmd.Email, ""); err != nil {
			return nil, err
		}
		user, err := domainuser.NewUser(domainuser.CreateParams{
			ID:           domainuser.ID(uuid.NewString()),
			FirstName:    cmd.FirstName,
			LastName:     cmd.LastName,
			Email:        cmd.Email,
			PasswordHash: hash,
			Role:         role,
			CreatedAt:    h.now(),
		})
		if err != nil {
			return nil, err
		}
		if err := unit.Users().Save(ctx, user); err != nil {
			return nil, err
		}
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info("staff created", "user_id", user.ID, "role", user.Role, "by", cmd.Actor.UserID)
		}
		out := dto.MapUserProfile(user)
		return &out, nil
	})
}

func (h *Handler) Update() commands.Handler[UpdateStaffCommand, *dto.UserProfile] {
	return commands.HandlerFunc[UpdateStaffCommand, *dto.UserProfile](func(ctx context.Context, cmd UpdateStaffCommand) (*dto.UserProfile, error) {
		if err := cmd.Actor.RequireAdmin(); err != nil {
			return nil, err
		}
		role, err := domainuser.ParseRole(cmd.Role)
		if err != nil {
			return nil, err
		}
		unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		defer unit.Close(ctx)

		user, err := unit.Users().ByID(ctx, domainuser.ID(strings.TrimSpace(cmd.UserID)))
		if err != nil {
			return nil, err
		}
		if err := emailFree(ctx, unit, cmd.Email, user.ID); err != nil {
			return nil, err
		}
		if err := user.Update(domainuser.UpdateParams{FirstName: cmd.FirstName, LastName: cmd.LastName, Email: cmd.Email, Role: role}, h.now()); err != nil {
			return nil, err
		}
		rotated := strings.TrimSpace(cmd.Password) != ""
		if rotated {
			if err := auth.ValidatePassword(cmd.Password); err != nil {
				return nil, err
			}
			hash, err := h.Passwords.Hash(cmd.Password)
			if err != nil {
				return nil, err
			}
			if err := user.SetPasswordHash(hash, h.now()); err != nil {
				return nil, err
			}
		}
		if err := unit.Users().Save(ctx, user); err != nil {
			return nil, err
		}
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		if rotated {
			h.revoke(ctx, user.ID)
		}
		if h.Logger != nil {
			h.Logger.Info("staff updated", "user_id", user.ID, "password_changed", rotated, "by", cmd.Actor.UserID)
		}
		out := dto.MapUserProfile(user)
		return &out, nil
	})
}

// Delete removes the account, unassigns it from every hotel and ends its
// sessions.
func (h *Handler) Delete() commands.Handler[DeleteStaffCommand, struct{}] {
	return commands.HandlerFunc[DeleteStaffCommand, struct{}](func(ctx context.Context, cmd DeleteStaffCommand) (struct{}, error) {
		if err := cmd.Actor.RequireAdmin(); err != nil {
			return struct{}{}, err
		}
		id := domainuser.ID(strings.TrimSpace(cmd.UserID))
		if id == cmd.Actor.UserID {
			return struct{}{}, ErrDeleteSelf
		}
		unit, ctx, err := support.BeginWriteUnit(ctx, h.UoWFactory)
		if err != nil {
			return struct{}{}, err
		}
		defer unit.Close(ctx)

		if _, err := unit.Users().ByID(ctx, id); err != nil {
			return struct{}{}, err
		}
		hotels, err := unit.Hotels().ListForStaff(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		for _, hotel := range hotels {
			remaining := make([]domainuser.ID, 0, len(hotel.StaffIDs))
			for _, s := range hotel.StaffIDs {
				if s != id {
					remaining = append(remaining, s)
				}
			}
			if err := hotel.Update(hotel.Name, hotel.Address, remaining, h.now()); err != nil {
				return struct{}{}, err
			}
			if err := unit.Hotels().Save(ctx, hotel); err != nil {
				return struct{}{}, err
			}
		}
		if err := unit.Users().Delete(ctx, id); err != nil {
			return struct{}{}, err
		}
		if err := unit.Commit(ctx); err != nil {
			return struct{}{}, err
		}
		h.revoke(ctx, id)
		if h.Logger != nil {
			h.Logger.Info("staff deleted", "user_id", id, "hotels_unassigned", len(hotels), "by", cmd.Actor.UserID)
		}
		return struct{}{}, nil
	})
}

func (h *Handler) List() queries.Handler[ListStaffQuery, *dto.UserList] {
	return queries.HandlerFunc[ListStaffQuery, *dto.UserList](func(ctx context.Context, q ListStaffQuery) (*dto.UserList, error) {
		if err := q.Actor.RequireAdmin(); err != nil {
			return nil, err
		}
		unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return nil, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		var users []*domainuser.User
		if strings.TrimSpace(q.Role) != "" {
			role, err := domainuser.ParseRole(q.Role)
			if err != nil {
				return nil, err
			}
			users, err = unit.Users().ListByRole(ctx, role)
			if err != nil {
				return nil, err
			}
		} else if users, err = unit.Users().List(ctx); err != nil {
			return nil, err
		}
		return &dto.UserList{Items: dto.MapUserProfiles(users), Total: len(users)}, nil
	})
}

func emailFree(ctx context.Context, unit uow.UnitOfWork, email string, self domainuser.ID) error {
	existing, err := unit.Users().ByEmail(ctx, domainuser.NormalizeEmail(email))
	switch {
	case errors.Is(err, domainuser.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return domainuser.ErrEmailAlreadyUsed
	default:
		return nil
	}
}

func (h *Handler) revoke(ctx context.Context, id domainuser.ID) {
	if h.Sessions == nil {
		return
	}
	if err := h.Sessions.RevokeUser(ctx, id); err != nil && h.Logger != nil {
		h.Logger.Warn("session revoke failed", "user_id", id, "error", err)
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
