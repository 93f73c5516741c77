package repository

import (
	"context"

	"adminhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleRepository defines the interface for data access of Role entities
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Role, error)
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository returns a new instance of RoleRepository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).First(&role, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// ListForUser fetches the user's current roles fresh, so a role edit
// propagates to every holder on their next request.
func (r *roleRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	var roles []model.Role
	err := GetDB(ctx, r.db).
		Joins("INNER JOIN user_roles ur ON ur.role_id = roles.id").
		Where("ur.user_id = ?", userID).
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Roles are hard-deleted; assignment rows go with them
	db := GetDB(ctx, r.db)
	if err := db.Exec("DELETE FROM user_roles WHERE role_id = ?", id).Error; err != nil {
		return err
	}
	return db.Delete(&model.Role{}, "id = ?", id).Error
}
