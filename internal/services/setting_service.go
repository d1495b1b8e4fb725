package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
)

var emptySettings = json.RawMessage(`{}`)

// SettingService stores each user's opaque settings document
type SettingService struct {
	settingRepo repository.SettingRepository
}

// NewSettingService creates a new SettingService
func NewSettingService(settingRepo repository.SettingRepository) *SettingService {
	return &SettingService{settingRepo: settingRepo}
}

// Get returns the actor's settings, or an empty object if none were saved.
func (s *SettingService) Get(ctx context.Context, actor policy.Actor) (json.RawMessage, error) {
	setting, err := s.settingRepo.Find(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptySettings, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return json.RawMessage(setting.Data), nil
}

// Save replaces the actor's settings. The document must be a JSON object.
func (s *SettingService) Save(ctx context.Context, actor policy.Actor, data json.RawMessage) (json.RawMessage, error) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil || object == nil {
		return nil, ErrSettingsNotObject
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return nil, ErrSettingsNotObject
	}

	setting := &models.UserSetting{
		UserID: actor.ID,
		Data:   compact.String(),
	}
	if err := s.settingRepo.Save(ctx, setting); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	return json.RawMessage(setting.Data), nil
}
