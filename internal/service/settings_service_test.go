package service

import (
	"context"
	"errors"
	"testing"

	"adminhub/internal/model"
	"adminhub/internal/repository"

	"gorm.io/gorm"
)

type fakeSettingRepo struct {
	values map[string]string
	getErr error
}

var _ repository.SettingRepository = (*fakeSettingRepo)(nil)

func (r *fakeSettingRepo) Get(_ context.Context, key string) (*model.Setting, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	value, ok := r.values[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.Setting{Key: key, Value: value}, nil
}

func (r *fakeSettingRepo) List(_ context.Context) ([]model.Setting, error) {
	out := make([]model.Setting, 0, len(r.values))
	for k, v := range r.values {
		out = append(out, model.Setting{Key: k, Value: v})
	}
	return out, nil
}

func (r *fakeSettingRepo) Upsert(_ context.Context, key, value string) (*model.Setting, error) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	r.values[key] = value
	return &model.Setting{Key: key, Value: value}, nil
}

func TestMaintenanceEnabledValues(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"false", false},
		{"0", false},
		{"yes", false},
	}
	for _, c := range cases {
		svc := NewSettingsService(&fakeSettingRepo{
			values: map[string]string{model.SettingMaintenanceMode: c.value},
		}, noopRecorder{})

		got, err := svc.MaintenanceEnabled(context.Background())
		if err != nil {
			t.Fatalf("MaintenanceEnabled(%q) error: %v", c.value, err)
		}
		if got != c.want {
			t.Errorf("MaintenanceEnabled(%q) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestMaintenanceEnabledAbsentRowMeansOff(t *testing.T) {
	svc := NewSettingsService(&fakeSettingRepo{}, noopRecorder{})

	enabled, err := svc.MaintenanceEnabled(context.Background())
	if err != nil {
		t.Fatalf("absent flag must not be an error, got %v", err)
	}
	if enabled {
		t.Fatal("absent flag must read as off")
	}
}

func TestMaintenanceEnabledSurfacesLookupFailure(t *testing.T) {
	svc := NewSettingsService(&fakeSettingRepo{getErr: errors.New("connection refused")}, noopRecorder{})

	if _, err := svc.MaintenanceEnabled(context.Background()); err == nil {
		t.Fatal("real lookup failures must surface so the gate can decide")
	}
}

func TestUpdateSettingRecordsActivity(t *testing.T) {
	repo := &fakeSettingRepo{}
	recorder := &capturingRecorder{}
	svc := NewSettingsService(repo, recorder)

	updated, err := svc.UpdateSetting(context.Background(), "", model.SettingSiteName, "Admin Hub")
	if err != nil {
		t.Fatalf("UpdateSetting() error: %v", err)
	}
	if updated.Value != "Admin Hub" {
		t.Fatalf("value = %q", updated.Value)
	}
	if recorder.action != model.ActionUpdateSetting {
		t.Fatalf("recorded action = %q", recorder.action)
	}
}

type capturingRecorder struct {
	action string
}

func (r *capturingRecorder) Record(_ context.Context, _, action, _, _, _ string, _ interface{}) {
	r.action = action
}
