package service

import (
	"context"
	"errors"
	"fmt"

	"adminhub/internal/model"
	"adminhub/internal/repository"

	"gorm.io/gorm"
)

type SettingResponse struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
}

type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// SettingsService manages global key/value configuration, including the
// maintenance flag the request gate consults.
type SettingsService interface {
	ListSettings(ctx context.Context) ([]SettingResponse, error)
	GetSetting(ctx context.Context, key string) (*SettingResponse, error)
	UpdateSetting(ctx context.Context, actorID, key, value string) (*SettingResponse, error)
	MaintenanceEnabled(ctx context.Context) (bool, error)
}

type settingsService struct {
	repo     repository.SettingRepository
	activity ActivityRecorder
}

// NewSettingsService creates a new SettingsService instance
func NewSettingsService(repo repository.SettingRepository, activity ActivityRecorder) SettingsService {
	return &settingsService{repo: repo, activity: activity}
}

func (s *settingsService) ListSettings(ctx context.Context) ([]SettingResponse, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	res := make([]SettingResponse, 0, len(settings))
	for _, st := range settings {
		res = append(res, toSettingResponse(st))
	}
	return res, nil
}

func (s *settingsService) GetSetting(ctx context.Context, key string) (*SettingResponse, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, errors.New("setting not found")
	}
	resp := toSettingResponse(*setting)
	return &resp, nil
}

func (s *settingsService) UpdateSetting(ctx context.Context, actorID, key, value string) (*SettingResponse, error) {
	setting, err := s.repo.Upsert(ctx, key, value)
	if err != nil {
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}

	s.activity.Record(ctx, actorID, model.ActionUpdateSetting, "settings", key, key, map[string]interface{}{
		"value": value,
	})

	resp := toSettingResponse(*setting)
	return &resp, nil
}

// MaintenanceEnabled reads the maintenance flag. An absent row means
// maintenance is off; any other lookup failure is surfaced so the gate
// can apply its fail-open policy explicitly.
func (s *settingsService) MaintenanceEnabled(ctx context.Context) (bool, error) {
	setting, err := s.repo.Get(ctx, model.SettingMaintenanceMode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return setting.Value == "true" || setting.Value == "1", nil
}

func toSettingResponse(s model.Setting) SettingResponse {
	return SettingResponse{
		Key:       s.Key,
		Value:     s.Value,
		UpdatedAt: s.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
