package model

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a named permission grant. Permissions holds the
// resource→actions matrix serialized as JSON, e.g.
// {"categories":["view","create"],"users":["manage"]}.
// Roles are hard-deleted; there is no soft-delete for them.
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsSystem    bool      `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions string    `gorm:"type:jsonb" json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
