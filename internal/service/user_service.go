package service

import (
	"context"
	"errors"
	"fmt"

	"adminhub/internal/model"
	"adminhub/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string   `json:"username" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	Name     string   `json:"name"`
	Password string   `json:"password" binding:"required,min=6"`
	RoleIDs  []string `json:"role_ids"`
}

type UpdateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email" binding:"omitempty,email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	IsActive  *bool  `json:"is_active"`
}

type AssignRolesRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required"`
}

// DTO for returning User without exposing sensitive data
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error)
	AssignRoles(ctx context.Context, actorID, id string, req AssignRolesRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actorID, id string) error
	SeedBootstrapAdmin(ctx context.Context, email, password string) error
}

type userService struct {
	repo     repository.UserRepository
	roles    repository.RoleRepository
	txm      repository.TransactionManager
	tokens   repository.TokenRepository
	activity ActivityRecorder
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	roles repository.RoleRepository,
	txm repository.TransactionManager,
	tokens repository.TokenRepository,
	activity ActivityRecorder,
) UserService {
	return &userService{repo: repo, roles: roles, txm: txm, tokens: tokens, activity: activity}
}

// Helper: parse model to standard json API response
func mapUserToResponse(user *model.User) *UserResponse {
	roleNames := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roleNames = append(roleNames, r.Name)
	}
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		IsActive:  user.IsActive,
		Roles:     roleNames,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *userService) CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error) {
	// Double check username/email uniqueness via repo directly
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
		IsActive: true,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return err
		}
		if len(req.RoleIDs) > 0 {
			roles, err := s.resolveRoles(txCtx, req.RoleIDs)
			if err != nil {
				return err
			}
			if err := s.repo.ReplaceRoles(txCtx, user, roles); err != nil {
				return fmt.Errorf("failed to assign roles: %w", err)
			}
			user.Roles = roles
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actorID, model.ActionCreateUser, "users", user.ID.String(), user.Username, map[string]interface{}{
		"email": user.Email,
	})

	return mapUserToResponse(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapUserToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapUserToResponse(&users[i]))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, errors.New("username already exists")
		}
		user.Username = req.Username
	}

	if req.Email != "" && req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, errors.New("email already exists")
		}
		user.Email = req.Email
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}
	deactivated := false
	if req.IsActive != nil {
		deactivated = user.IsActive && !*req.IsActive
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	// Deactivating an account logs it out everywhere.
	if deactivated {
		if err := s.tokens.DeleteForUser(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to revoke sessions: %w", err)
		}
	}

	s.activity.Record(ctx, actorID, model.ActionUpdateUser, "users", user.ID.String(), user.Username, nil)

	return mapUserToResponse(user), nil
}

func (s *userService) AssignRoles(ctx context.Context, actorID, id string, req AssignRolesRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	roles, err := s.resolveRoles(ctx, req.RoleIDs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceRoles(ctx, user, roles); err != nil {
		return nil, fmt.Errorf("failed to assign roles: %w", err)
	}
	user.Roles = roles

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	s.activity.Record(ctx, actorID, model.ActionAssignRoles, "users", user.ID.String(), user.Username, map[string]interface{}{
		"roles": names,
	})

	return mapUserToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return errors.New("user not found")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.tokens.DeleteForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.activity.Record(ctx, actorID, model.ActionDeleteUser, "users", id, user.Username, nil)
	return nil
}

// SeedBootstrapAdmin creates the initial admin account when no user with
// the configured email exists yet.
func (s *userService) SeedBootstrapAdmin(ctx context.Context, email, password string) error {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	admin := &model.User{
		Username: "admin",
		Email:    email,
		Name:     "Administrator",
		Password: string(hashed),
		IsActive: true,
	}

	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, admin); err != nil {
			return fmt.Errorf("failed to create bootstrap admin: %w", err)
		}
		role, err := s.roles.GetByName(txCtx, "admin")
		if err != nil {
			return fmt.Errorf("admin role missing: %w", err)
		}
		return s.repo.ReplaceRoles(txCtx, admin, []model.Role{*role})
	})
}

func (s *userService) resolveRoles(ctx context.Context, roleIDs []string) ([]model.Role, error) {
	ids := make([]uuid.UUID, 0, len(roleIDs))
	for _, rid := range roleIDs {
		parsed, err := uuid.Parse(rid)
		if err != nil {
			return nil, fmt.Errorf("invalid role id '%s': %w", rid, err)
		}
		ids = append(ids, parsed)
	}

	roles, err := s.roles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	if len(roles) != len(ids) {
		return nil, errors.New("one or more roles not found")
	}
	return roles, nil
}
