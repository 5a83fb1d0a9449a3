package store

import (
	"atelier/internal/entity"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SchemaVersion 是存储打开时对齐的目标版本，只增不减。
const SchemaVersion = 4

type schemaInfo struct {
	ID        int       `gorm:"primaryKey"`
	Version   int       `gorm:"column:version"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName 指定表名
func (schemaInfo) TableName() string {
	return "schema_info"
}

// 升级步骤按版本号依次执行。每一步必须对部分升级过的数据库幂等
// （先检查"表已存在"再跳过）。
var upgradeSteps = map[int]func(*gorm.DB) error{
	1: upgradeToV1,
	2: upgradeToV2,
	3: upgradeToV3,
	4: upgradeToV4,
}

// UpgradeSchema 在任何其它操作之前把数据库升级到 SchemaVersion。
// 版本只前进；打开比当前代码更新的数据库会失败。
func UpgradeSchema(db *gorm.DB) error {
	migrator := db.Migrator()
	if !migrator.HasTable(&schemaInfo{}) {
		if err := migrator.CreateTable(&schemaInfo{}); err != nil {
			return fmt.Errorf("create schema_info: %w", err)
		}
	}

	var info schemaInfo
	err := db.First(&info, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		info = schemaInfo{ID: 1, Version: 0}
		if err := db.Create(&info).Error; err != nil {
			return fmt.Errorf("seed schema_info: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if info.Version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", info.Version, SchemaVersion)
	}

	for v := info.Version + 1; v <= SchemaVersion; v++ {
		step, ok := upgradeSteps[v]
		if !ok {
			return fmt.Errorf("missing upgrade step for schema version %d", v)
		}

		logrus.WithFields(logrus.Fields{
			"from": v - 1,
			"to":   v,
		}).Info("upgrading store schema")

		if err := step(db); err != nil {
			return fmt.Errorf("schema upgrade to v%d: %w", v, err)
		}
		if err := db.Model(&schemaInfo{}).Where("id = ?", 1).Update("version", v).Error; err != nil {
			return fmt.Errorf("record schema version %d: %w", v, err)
		}
	}

	return nil
}

func createTablesIfMissing(db *gorm.DB, models ...interface{}) error {
	migrator := db.Migrator()
	for _, m := range models {
		if migrator.HasTable(m) {
			continue
		}
		if err := migrator.CreateTable(m); err != nil {
			return err
		}
	}
	return nil
}

// v1: 初始集合 images + settings
func upgradeToV1(db *gorm.DB) error {
	return createTablesIfMissing(db, &entity.GenerationRecord{}, &entity.Setting{})
}

// v2: 对话会话与自定义预设
func upgradeToV2(db *gorm.DB) error {
	return createTablesIfMissing(db, &entity.ChatSession{}, &entity.Agent{})
}

// v3: images 主键从自增数字改为 "{groupId}-{index}" 字符串。
// 键结构变化只能删表重建，旧表中的数据随之丢失。
func upgradeToV3(db *gorm.DB) error {
	migrator := db.Migrator()
	if migrator.HasTable(&entity.GenerationRecord{}) {
		if err := migrator.DropTable(&entity.GenerationRecord{}); err != nil {
			return err
		}
	}
	return createTablesIfMissing(db, &entity.GenerationRecord{})
}

// v4: 端点配置集合
func upgradeToV4(db *gorm.DB) error {
	return createTablesIfMissing(db, &entity.APIConfig{})
}
