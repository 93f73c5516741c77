package model

import (
	"time"

	"github.com/google/uuid"
)

// Well-known setting keys
const (
	SettingMaintenanceMode = "maintenance_mode"
	SettingSiteName        = "site_name"
)

// Setting is a global key/value configuration entry editable by admins
type Setting struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Key       string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
