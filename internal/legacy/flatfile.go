package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// FlatStore 是被持久化存储取代的旧版扁平键值机制：一个 JSON 文件，
// 键对应一段原始 JSON。只在迁移时读取一次，之后逐键清除。
type FlatStore struct {
	mu   sync.Mutex
	path string
}

// NewFlatStore 创建指向旧存储文件的句柄，文件可以不存在。
func NewFlatStore(path string) *FlatStore {
	return &FlatStore{path: path}
}

func (f *FlatStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy store: %w", err)
	}
	if len(data) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	entries := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode legacy store: %w", err)
	}
	return entries, nil
}

func (f *FlatStore) save(entries map[string]json.RawMessage) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode legacy store: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write legacy store: %w", err)
	}
	return nil
}

// Get 返回键下的原始 JSON；键不存在时第二个返回值为 false。
func (f *FlatStore) Get(key string) (json.RawMessage, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return nil, false, err
	}
	raw, ok := entries[key]
	return raw, ok, nil
}

// Delete 移除一个键。键或文件不存在都是 no-op。
func (f *FlatStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return f.save(entries)
}
