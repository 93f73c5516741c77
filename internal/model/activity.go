package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionUserLogin      = "USER_LOGIN"
	ActionCreateUser     = "CREATE_USER"
	ActionUpdateUser     = "UPDATE_USER"
	ActionDeleteUser     = "DELETE_USER"
	ActionAssignRoles    = "ASSIGN_ROLES"
	ActionCreateRole     = "CREATE_ROLE"
	ActionUpdateRole     = "UPDATE_ROLE"
	ActionDeleteRole     = "DELETE_ROLE"
	ActionCreateCategory = "CREATE_CATEGORY"
	ActionUpdateCategory = "UPDATE_CATEGORY"
	ActionDeleteCategory = "DELETE_CATEGORY"
	ActionUpdateSetting  = "UPDATE_SETTING"
)

// ActivityLog tracks Who, What, and When for critical system changes.
// New rows are relayed to connected browsers over the live event stream.
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for system-originated entries
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Resource   string     `gorm:"type:varchar(50);index" json:"resource"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
