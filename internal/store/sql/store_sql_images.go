package sql

import (
	"atelier/internal/entity"
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

// PutImage inserts or overwrites a generation record by primary key.
func (s *GormStore) PutImage(ctx context.Context, record *entity.GenerationRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("record id is empty")
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(record).Error
}

// ListImages returns every generation record. No ordering is guaranteed;
// callers sort.
func (s *GormStore) ListImages(ctx context.Context) ([]entity.GenerationRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var records []entity.GenerationRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteImage removes a generation record. Missing keys are a no-op.
func (s *GormStore) DeleteImage(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("record id is empty")
	}
	return s.db.WithContext(ctx).Delete(&entity.GenerationRecord{}, "id = ?", id).Error
}

// DeleteImageGroup removes every record sharing the group id.
func (s *GormStore) DeleteImageGroup(ctx context.Context, groupID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(groupID) == "" {
		return fmt.Errorf("group id is empty")
	}
	return s.db.WithContext(ctx).Delete(&entity.GenerationRecord{}, "group_id = ?", groupID).Error
}

// ClearImages removes all generation records.
func (s *GormStore) ClearImages(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&entity.GenerationRecord{}).Error
}

// CountImages returns the number of stored generation records.
func (s *GormStore) CountImages(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("store not initialised")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&entity.GenerationRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
