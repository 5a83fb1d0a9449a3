package legacy

import (
	"atelier/internal/entity"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// migrationStore 记录迁移写入，满足迁移器用到的 Store 方法。
type migrationStore struct {
	mu       sync.Mutex
	images   []entity.GenerationRecord
	sessions []entity.ChatSession
	agents   []entity.Agent
}

func (m *migrationStore) PutImage(_ context.Context, record *entity.GenerationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append(m.images, *record)
	return nil
}

func (m *migrationStore) ListImages(context.Context) ([]entity.GenerationRecord, error) {
	return m.images, nil
}
func (m *migrationStore) DeleteImage(context.Context, string) error      { return nil }
func (m *migrationStore) DeleteImageGroup(context.Context, string) error { return nil }
func (m *migrationStore) ClearImages(context.Context) error              { return nil }
func (m *migrationStore) CountImages(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.images)), nil
}

func (m *migrationStore) PutChatSession(_ context.Context, session *entity.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, *session)
	return nil
}
func (m *migrationStore) ListChatSessions(context.Context) ([]entity.ChatSession, error) {
	return m.sessions, nil
}
func (m *migrationStore) DeleteChatSession(context.Context, string) error { return nil }
func (m *migrationStore) CountChatSessions(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sessions)), nil
}

func (m *migrationStore) PutAgent(_ context.Context, agent *entity.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents = append(m.agents, *agent)
	return nil
}
func (m *migrationStore) ListAgents(context.Context) ([]entity.Agent, error) { return m.agents, nil }
func (m *migrationStore) DeleteAgent(context.Context, string) error          { return nil }
func (m *migrationStore) CountAgents(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.agents)), nil
}

func (m *migrationStore) PutAPIConfig(context.Context, *entity.APIConfig) error { return nil }
func (m *migrationStore) GetAPIConfig(context.Context, string) (*entity.APIConfig, error) {
	return nil, nil
}
func (m *migrationStore) UpdateAPIConfig(context.Context, string, entity.APIConfigUpdates) error {
	return nil
}
func (m *migrationStore) ListAPIConfigs(context.Context) ([]entity.APIConfig, error) {
	return nil, nil
}
func (m *migrationStore) GetActiveAPIConfig(context.Context) (*entity.APIConfig, error) {
	return nil, nil
}
func (m *migrationStore) DeleteAPIConfig(context.Context, string) error { return nil }
func (m *migrationStore) GetSetting(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (m *migrationStore) PutSetting(context.Context, string, string) error { return nil }
func (m *migrationStore) DeleteSetting(context.Context, string) error      { return nil }

func writeLegacyFile(t *testing.T, entries map[string]any) string {
	t.Helper()
	raw := map[string]json.RawMessage{}
	for key, value := range entries {
		bs, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("marshal %s: %v", key, err)
		}
		raw[key] = bs
	}
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal file: %v", err)
	}
	path := filepath.Join(t.TempDir(), "legacy_store.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestMigratorCopiesIntoEmptyStore(t *testing.T) {
	path := writeLegacyFile(t, map[string]any{
		KeyImageHistory: []entity.GenerationRecord{
			{ID: "g1-1", GroupID: "g1", Prompt: "老图", Status: entity.StatusSuccess, Timestamp: time.Now()},
			{ID: "g1-2", GroupID: "g1", Prompt: "老图", Status: entity.StatusError, Timestamp: time.Now()},
		},
		KeyChatSessions: []entity.ChatSession{{ID: "s1", Title: "旧会话"}},
		KeyCustomAgents: []entity.Agent{{ID: "a1", Name: "旧预设"}},
	})

	st := &migrationStore{}
	flat := NewFlatStore(path)
	NewMigrator(flat, st).Run(context.Background())

	if len(st.images) != 2 || len(st.sessions) != 1 || len(st.agents) != 1 {
		t.Errorf("copied: %d images, %d sessions, %d agents", len(st.images), len(st.sessions), len(st.agents))
	}

	// 迁移后所有旧键都应被删除
	for _, key := range []string{KeyImageHistory, KeyChatSessions, KeyCustomAgents} {
		if _, ok, _ := flat.Get(key); ok {
			t.Errorf("legacy key %s not removed", key)
		}
	}
}

func TestMigratorStoreWins(t *testing.T) {
	path := writeLegacyFile(t, map[string]any{
		KeyImageHistory: []entity.GenerationRecord{{ID: "legacy-1", GroupID: "legacy"}},
	})

	st := &migrationStore{images: []entity.GenerationRecord{{ID: "existing-1", GroupID: "existing"}}}
	flat := NewFlatStore(path)
	NewMigrator(flat, st).Run(context.Background())

	if len(st.images) != 1 || st.images[0].ID != "existing-1" {
		t.Errorf("非空存储不应被旧数据覆盖: %+v", st.images)
	}
	if _, ok, _ := flat.Get(KeyImageHistory); ok {
		t.Error("即使未拷贝也应删除旧键")
	}
}

func TestMigratorIdempotent(t *testing.T) {
	path := writeLegacyFile(t, map[string]any{
		KeyImageHistory: []entity.GenerationRecord{{ID: "g1-1", GroupID: "g1"}},
	})

	st := &migrationStore{}
	flat := NewFlatStore(path)
	migrator := NewMigrator(flat, st)

	migrator.Run(context.Background())
	migrator.Run(context.Background())

	if len(st.images) != 1 {
		t.Errorf("重复执行不应重复导入: %d", len(st.images))
	}
}

func TestMigratorMissingFile(t *testing.T) {
	flat := NewFlatStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	st := &migrationStore{}

	// 文件不存在时迁移是 no-op，不应 panic 或报错
	NewMigrator(flat, st).Run(context.Background())

	if len(st.images) != 0 {
		t.Errorf("unexpected records: %d", len(st.images))
	}
}

func TestMigratorMalformedCollection(t *testing.T) {
	path := writeLegacyFile(t, map[string]any{
		KeyImageHistory: "not an array",
		KeyCustomAgents: []entity.Agent{{ID: "a1", Name: "好预设"}},
	})

	st := &migrationStore{}
	flat := NewFlatStore(path)
	NewMigrator(flat, st).Run(context.Background())

	// 损坏的集合被跳过，但键仍被清除，其它集合不受影响
	if len(st.images) != 0 {
		t.Errorf("malformed collection should not import: %d", len(st.images))
	}
	if len(st.agents) != 1 {
		t.Errorf("healthy collection should still import: %d", len(st.agents))
	}
	if _, ok, _ := flat.Get(KeyImageHistory); ok {
		t.Error("malformed key should still be removed")
	}
}
