package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"adminhub/internal/model"
	"adminhub/internal/rbac"
	"adminhub/internal/repository"

	"github.com/google/uuid"
)

// DTOs

type CreateRoleRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Permissions map[string][]string `json:"permissions"`
}

type UpdateRoleRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Permissions map[string][]string `json:"permissions"`
}

type RoleResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	IsSystem    bool                `json:"is_system"`
	Permissions map[string][]string `json:"permissions"`
	CreatedAt   string              `json:"created_at"`
}

// RoleService defines business logic for roles and their permission matrices
type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, actorID string, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, actorID, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, actorID, id string) error
	SeedDefaultRoles(ctx context.Context) error
}

type roleService struct {
	repo     repository.RoleRepository
	activity ActivityRecorder
}

// NewRoleService creates a new RoleService instance
func NewRoleService(repo repository.RoleRepository, activity ActivityRecorder) RoleService {
	return &roleService{repo: repo, activity: activity}
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, actorID string, req CreateRoleRequest) (*RoleResponse, error) {
	stored, err := canonicalMatrix(req.Permissions)
	if err != nil {
		return nil, err
	}

	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    false,
		Permissions: stored,
	}

	if err := s.repo.Create(ctx, &role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.activity.Record(ctx, actorID, model.ActionCreateRole, "roles", role.ID.String(), role.Name, map[string]interface{}{
		"permissions": req.Permissions,
	})

	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *roleService) UpdateRole(ctx context.Context, actorID, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	role.Name = req.Name
	role.Description = req.Description
	if req.Permissions != nil {
		stored, err := canonicalMatrix(req.Permissions)
		if err != nil {
			return nil, err
		}
		role.Permissions = stored
	}

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.activity.Record(ctx, actorID, model.ActionUpdateRole, "roles", role.ID.String(), role.Name, map[string]interface{}{
		"permissions": req.Permissions,
	})

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) DeleteRole(ctx context.Context, actorID, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("role not found: %w", err)
	}

	if role.IsSystem {
		return fmt.Errorf("cannot delete system role '%s'", role.Name)
	}

	if err := s.repo.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.activity.Record(ctx, actorID, model.ActionDeleteRole, "roles", id, role.Name, nil)
	return nil
}

// SeedDefaultRoles creates the built-in roles if not already present.
func (s *roleService) SeedDefaultRoles(ctx context.Context) error {
	defaults := []model.Role{
		{
			Name:        "admin",
			Description: "Full system access",
			IsSystem:    true,
			Permissions: `{"all":["manage"]}`,
		},
		{
			Name:        "editor",
			Description: "Manage content, view users and activity",
			IsSystem:    true,
			Permissions: `{"categories":["manage"],"posts":["manage"],"users":["view"],"activity":["view"]}`,
		},
		{
			Name:        "viewer",
			Description: "Read-only access to content and activity",
			IsSystem:    true,
			Permissions: `{"categories":["view"],"posts":["view"],"activity":["view"]}`,
		},
	}

	for i := range defaults {
		def := &defaults[i]
		if _, err := rbac.ParseMatrix(def.Permissions); err != nil {
			return fmt.Errorf("invalid seed matrix for role '%s': %w", def.Name, err)
		}
		if _, err := s.repo.GetByName(ctx, def.Name); err == nil {
			continue
		}
		if err := s.repo.Create(ctx, def); err != nil {
			return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
		}
	}
	return nil
}

// canonicalMatrix validates the submitted matrix strictly and returns the
// canonical stored form. Typos in resource or action names are rejected
// here, at the save boundary, rather than silently granting nothing later.
func canonicalMatrix(perms map[string][]string) (string, error) {
	if perms == nil {
		return "{}", nil
	}

	raw, err := json.Marshal(perms)
	if err != nil {
		return "", errors.New("invalid permissions payload")
	}

	matrix, err := rbac.ParseMatrix(string(raw))
	if err != nil {
		return "", fmt.Errorf("invalid permissions: %w", err)
	}

	canonical, err := json.Marshal(matrix)
	if err != nil {
		return "", errors.New("invalid permissions payload")
	}
	return string(canonical), nil
}

func toRoleResponse(r model.Role) RoleResponse {
	perms := map[string][]string{}
	if matrix, err := rbac.ParseMatrix(r.Permissions); err == nil {
		for resource, set := range matrix {
			actions := make([]string, 0, len(set))
			for _, a := range set.Actions() {
				actions = append(actions, string(a))
			}
			perms[string(resource)] = actions
		}
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
