package sql

import (
	"atelier/internal/entity"
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

// PutAPIConfig inserts or overwrites an endpoint configuration.
func (s *GormStore) PutAPIConfig(ctx context.Context, cfg *entity.APIConfig) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if cfg == nil {
		return fmt.Errorf("api config is nil")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("api config id is empty")
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(cfg).Error
}

// GetAPIConfig retrieves one endpoint configuration by id.
func (s *GormStore) GetAPIConfig(ctx context.Context, id string) (*entity.APIConfig, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("api config id is empty")
	}
	var cfg entity.APIConfig
	if err := s.db.WithContext(ctx).First(&cfg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateAPIConfig applies partial updates to an endpoint configuration.
func (s *GormStore) UpdateAPIConfig(ctx context.Context, id string, updates entity.APIConfigUpdates) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("api config id is empty")
	}
	if updates.IsEmpty() {
		return fmt.Errorf("no updates provided")
	}
	return s.db.WithContext(ctx).
		Model(&entity.APIConfig{}).
		Where("id = ?", id).
		Updates(updates.ToMap()).Error
}

// ListAPIConfigs returns every stored endpoint configuration.
func (s *GormStore) ListAPIConfigs(ctx context.Context) ([]entity.APIConfig, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var configs []entity.APIConfig
	if err := s.db.WithContext(ctx).Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// GetActiveAPIConfig returns the active endpoint configuration, or
// gorm.ErrRecordNotFound when none is marked active.
func (s *GormStore) GetActiveAPIConfig(ctx context.Context) (*entity.APIConfig, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var cfg entity.APIConfig
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("updated_at DESC").
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DeleteAPIConfig removes an endpoint configuration. Missing keys are a no-op.
func (s *GormStore) DeleteAPIConfig(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("api config id is empty")
	}
	return s.db.WithContext(ctx).Delete(&entity.APIConfig{}, "id = ?", id).Error
}
