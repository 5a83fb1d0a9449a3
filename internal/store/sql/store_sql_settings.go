package sql

import (
	"atelier/internal/entity"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetSetting reads one scalar setting. The second return value reports
// whether the key exists; defaults are the reader's business, never the
// store's.
func (s *GormStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(key) == "" {
		return "", false, fmt.Errorf("setting key is empty")
	}
	var setting entity.Setting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// PutSetting inserts or overwrites one scalar setting.
func (s *GormStore) PutSetting(ctx context.Context, key, value string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("setting key is empty")
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entity.Setting{Key: key, Value: value}).Error
}

// DeleteSetting removes one scalar setting. Missing keys are a no-op.
func (s *GormStore) DeleteSetting(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("setting key is empty")
	}
	return s.db.WithContext(ctx).Delete(&entity.Setting{}, "key = ?", key).Error
}
