package sql

import (
	"gorm.io/gorm"
)

// GormStore implements the persistent store using GORM
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new store instance
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}
