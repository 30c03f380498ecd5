package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"technotes-api/internal/event"
	"technotes-api/internal/model"
	"technotes-api/internal/repository"
	"technotes-api/internal/util"
	"technotes-api/pkg/apierror"
)

type UserService struct {
	users  repository.UserRepository
	notes  repository.NoteRepository
	tokens repository.TokenRepository
	bus    event.Bus
	now    func() time.Time
}

// NewUserService manages user accounts. Stored refresh tokens of a user are
// revoked when the password changes, the account is deactivated or deleted.
func NewUserService(
	users repository.UserRepository,
	notes repository.NoteRepository,
	tokens repository.TokenRepository,
	bus event.Bus,
) *UserService {
	return &UserService{users: users, notes: notes, tokens: tokens, bus: bus, now: time.Now}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, actor model.Credential, req model.CreateUserRequest) (model.User, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return model.User{}, apierror.Validation("All fields are required", "username, password")
	}
	username, err := util.SanitizeUsername(req.Username)
	if err != nil {
		return model.User{}, err
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{model.RoleEmployee}
	}
	if err := validateRoles(roles); err != nil {
		return model.User{}, err
	}

	if err := s.ensureUniqueUsername(ctx, username, ""); err != nil {
		return model.User{}, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return model.User{}, err
	}

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Roles:        slices.Clone(roles),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, err
	}

	publish(s.bus, event.TypeUserCreated, actor.UserID, map[string]any{"id": user.ID, "username": user.Username})
	return user, nil
}

func (s *UserService) Update(ctx context.Context, actor model.Credential, req model.UpdateUserRequest) (model.User, error) {
	if req.ID == "" || strings.TrimSpace(req.Username) == "" || len(req.Roles) == 0 || req.Active == nil {
		return model.User{}, apierror.Validation("All fields except password are required", "id, username, roles, active")
	}
	username, err := util.SanitizeUsername(req.Username)
	if err != nil {
		return model.User{}, err
	}
	if err := validateRoles(req.Roles); err != nil {
		return model.User{}, err
	}

	user, err := s.users.FindByID(ctx, req.ID)
	if err != nil {
		return model.User{}, err
	}

	if err := s.ensureUniqueUsername(ctx, username, user.ID); err != nil {
		return model.User{}, err
	}

	user.Username = username
	user.Roles = slices.Clone(req.Roles)
	user.Active = *req.Active
	user.UpdatedAt = s.now().UTC()

	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			return model.User{}, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return model.User{}, err
	}
	if req.Password != "" || !user.Active {
		if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
			return model.User{}, err
		}
	}

	publish(s.bus, event.TypeUserUpdated, actor.UserID, map[string]any{"id": user.ID, "username": user.Username})
	return user, nil
}

// Delete refuses to remove a user that still has notes assigned.
func (s *UserService) Delete(ctx context.Context, actor model.Credential, id string) (model.User, error) {
	if id == "" {
		return model.User{}, apierror.Validation("User ID required", "id")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	assigned, err := s.notes.CountByUser(ctx, user.ID)
	if err != nil {
		return model.User{}, err
	}
	if assigned > 0 {
		return model.User{}, fmt.Errorf("%w: %d notes", model.ErrUserHasNotes, assigned)
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return model.User{}, err
	}
	if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return model.User{}, err
	}

	publish(s.bus, event.TypeUserDeleted, actor.UserID, map[string]any{"id": user.ID, "username": user.Username})
	return user, nil
}

// EnsureAdmin creates an Admin account when the user store is empty and
// reports whether it did.
func (s *UserService) EnsureAdmin(ctx context.Context, username string, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	_, err = s.Create(ctx, model.Credential{}, model.CreateUserRequest{
		Username: username,
		Password: password,
		Roles:    []string{model.RoleEmployee, model.RoleAdmin},
	})
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}

func (s *UserService) ensureUniqueUsername(ctx context.Context, username string, excludeID string) error {
	exists, err := s.users.ExistsByUsername(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apierror.Conflict("Duplicate username", username)
	}
	return nil
}

func validateRoles(roles []string) error {
	for _, role := range roles {
		if !model.IsKnownRole(role) {
			return apierror.Validation("Invalid role", role)
		}
	}
	return nil
}
