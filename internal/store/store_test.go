package store

import (
	"atelier/internal/config"
	"atelier/internal/entity"
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	cfg := &config.Config{
		DBType: DBTypeSQLite,
		DBPath: filepath.Join(t.TempDir(), "atelier.db"),
	}
	st, err := InitStore(cfg)
	if err != nil {
		t.Fatalf("InitStore: %v", err)
	}
	return st
}

func openBareDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "atelier.db")
	db, err := NewStoreFactory().openGormDB(sqlite.Open(path))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func schemaVersion(t *testing.T, db *gorm.DB) int {
	t.Helper()
	var info schemaInfo
	if err := db.First(&info, 1).Error; err != nil {
		t.Fatalf("read schema_info: %v", err)
	}
	return info.Version
}

func TestSQLiteRoundTripGenerationRecord(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	want := entity.GenerationRecord{
		ID:          "g1-1",
		GroupID:     "g1",
		Prompt:      "海边的灯塔",
		ImageURL:    "https://img/1.png",
		AspectRatio: "16:9",
		Size:        "2K",
		Model:       "seedream-3-0",
		Status:      entity.StatusSuccess,
		Timestamp:   time.Now().Round(time.Millisecond),
	}
	if err := st.PutImage(ctx, &want); err != nil {
		t.Fatalf("PutImage: %v", err)
	}

	records, err := st.ListImages(ctx)
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.ID != want.ID || got.GroupID != want.GroupID ||
		got.Prompt != want.Prompt || got.ImageURL != want.ImageURL ||
		got.AspectRatio != want.AspectRatio || got.Size != want.Size ||
		got.Model != want.Model || got.Status != want.Status || got.Error != "" {
		t.Errorf("record fields changed through the store: %+v", got)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp changed: want %v, got %v", want.Timestamp, got.Timestamp)
	}

	// put 即 upsert：同键重写覆盖旧值
	want.Status = entity.StatusError
	want.Error = entity.StoppedMessage
	want.ImageURL = ""
	if err := st.PutImage(ctx, &want); err != nil {
		t.Fatalf("PutImage overwrite: %v", err)
	}
	records, _ = st.ListImages(ctx)
	if len(records) != 1 || records[0].Status != entity.StatusError || records[0].Error != entity.StoppedMessage {
		t.Errorf("overwrite did not replace the row: %+v", records)
	}

	// 删除不存在的键不是错误
	if err := st.DeleteImage(ctx, "missing"); err != nil {
		t.Fatalf("DeleteImage missing key: %v", err)
	}
	if n, _ := st.CountImages(ctx); n != 1 {
		t.Errorf("expected 1 row after no-op delete, got %d", n)
	}
	if err := st.DeleteImage(ctx, want.ID); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if n, _ := st.CountImages(ctx); n != 0 {
		t.Errorf("expected empty table, got %d rows", n)
	}
}

func TestUpgradeSchemaFromV2DropsLegacyImages(t *testing.T) {
	db := openBareDB(t)

	// 构造 v2 时代的库：前两步已执行，版本号停在 2，images 里有旧行
	if err := upgradeToV1(db); err != nil {
		t.Fatalf("upgradeToV1: %v", err)
	}
	if err := upgradeToV2(db); err != nil {
		t.Fatalf("upgradeToV2: %v", err)
	}
	if err := db.Migrator().CreateTable(&schemaInfo{}); err != nil {
		t.Fatalf("create schema_info: %v", err)
	}
	if err := db.Create(&schemaInfo{ID: 1, Version: 2, UpdatedAt: time.Now()}).Error; err != nil {
		t.Fatalf("seed schema_info: %v", err)
	}
	legacy := entity.GenerationRecord{ID: "legacy-1", GroupID: "g0", Status: entity.StatusSuccess, Timestamp: time.Now()}
	if err := db.Create(&legacy).Error; err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	if err := UpgradeSchema(db); err != nil {
		t.Fatalf("UpgradeSchema: %v", err)
	}

	if v := schemaVersion(t, db); v != SchemaVersion {
		t.Errorf("expected version %d, got %d", SchemaVersion, v)
	}
	// v3 删表重建，旧行随之丢失
	var n int64
	if err := db.Model(&entity.GenerationRecord{}).Count(&n).Error; err != nil {
		t.Fatalf("count images: %v", err)
	}
	if n != 0 {
		t.Errorf("expected images dropped by v3, got %d rows", n)
	}
	if !db.Migrator().HasTable(&entity.APIConfig{}) {
		t.Error("expected api_configs table after v4")
	}

	// 已对齐的库再升级一次是空操作，升级后写入的行保持不动
	kept := entity.GenerationRecord{ID: "g1-1", GroupID: "g1", Status: entity.StatusSuccess, Timestamp: time.Now()}
	if err := db.Create(&kept).Error; err != nil {
		t.Fatalf("insert row: %v", err)
	}
	if err := UpgradeSchema(db); err != nil {
		t.Fatalf("second UpgradeSchema: %v", err)
	}
	if err := db.Model(&entity.GenerationRecord{}).Count(&n).Error; err != nil {
		t.Fatalf("count images: %v", err)
	}
	if n != 1 {
		t.Errorf("second upgrade must not touch data, got %d rows", n)
	}
}

func TestUpgradeSchemaIdempotentOnPartialUpgrade(t *testing.T) {
	db := openBareDB(t)

	// 表已建好但版本号从未记录（升级中途中断的形态）
	if err := upgradeToV1(db); err != nil {
		t.Fatalf("upgradeToV1: %v", err)
	}
	if err := upgradeToV2(db); err != nil {
		t.Fatalf("upgradeToV2: %v", err)
	}

	if err := UpgradeSchema(db); err != nil {
		t.Fatalf("UpgradeSchema over partial upgrade: %v", err)
	}
	if v := schemaVersion(t, db); v != SchemaVersion {
		t.Errorf("expected version %d, got %d", SchemaVersion, v)
	}
	for _, model := range []interface{}{
		&entity.GenerationRecord{}, &entity.Setting{},
		&entity.ChatSession{}, &entity.Agent{}, &entity.APIConfig{},
	} {
		if !db.Migrator().HasTable(model) {
			t.Errorf("missing table for %T", model)
		}
	}
}

func TestUpgradeSchemaRejectsNewerDatabase(t *testing.T) {
	db := openBareDB(t)
	if err := db.Migrator().CreateTable(&schemaInfo{}); err != nil {
		t.Fatalf("create schema_info: %v", err)
	}
	if err := db.Create(&schemaInfo{ID: 1, Version: SchemaVersion + 1, UpdatedAt: time.Now()}).Error; err != nil {
		t.Fatalf("seed schema_info: %v", err)
	}
	if err := UpgradeSchema(db); err == nil {
		t.Fatal("expected error opening a newer database")
	}
}
