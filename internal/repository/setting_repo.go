package repository

import (
	"context"
	"errors"

	"adminhub/internal/model"

	"gorm.io/gorm"
)

// SettingRepository defines the interface for data access of Setting entries
type SettingRepository interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	List(ctx context.Context) ([]model.Setting, error)
	Upsert(ctx context.Context, key, value string) (*model.Setting, error)
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository returns a new instance of SettingRepository
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, key string) (*model.Setting, error) {
	var setting model.Setting
	if err := GetDB(ctx, r.db).First(&setting, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepository) List(ctx context.Context) ([]model.Setting, error) {
	var settings []model.Setting
	if err := GetDB(ctx, r.db).Order("key ASC").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *settingRepository) Upsert(ctx context.Context, key, value string) (*model.Setting, error) {
	db := GetDB(ctx, r.db)

	var setting model.Setting
	err := db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = model.Setting{Key: key, Value: value}
		if err := db.Create(&setting).Error; err != nil {
			return nil, err
		}
		return &setting, nil
	}
	if err != nil {
		return nil, err
	}

	setting.Value = value
	if err := db.Save(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}
