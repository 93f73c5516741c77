package repository

import (
	"context"

	"adminhub/internal/model"

	"gorm.io/gorm"
)

// ActivityRepository defines data access for the activity log
type ActivityRepository interface {
	Log(ctx context.Context, entry *model.ActivityLog) error
	GetByID(ctx context.Context, id string) (*model.ActivityLog, error)
	List(ctx context.Context, page, limit int) ([]model.ActivityLog, int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository returns a new instance of ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Log(ctx context.Context, entry *model.ActivityLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// GetByID loads one entry with the acting user preloaded, for the live
// feed's record expansion.
func (r *activityRepository) GetByID(ctx context.Context, id string) (*model.ActivityLog, error) {
	var entry model.ActivityLog
	if err := GetDB(ctx, r.db).Preload("User").First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *activityRepository) List(ctx context.Context, page, limit int) ([]model.ActivityLog, int64, error) {
	var logs []model.ActivityLog
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("User").Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
