package legacy

import (
	"atelier/internal/entity"
	"atelier/internal/store"
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// 旧版存储中各数据集合对应的键
const (
	KeyImageHistory = "image-history"
	KeyChatSessions = "chat-sessions"
	KeyCustomAgents = "custom-agents"
)

// Migrator 把旧版扁平存储中残留的数据一次性导入持久化存储。
// 每次启动调用都是安全的：首次成功后即为 no-op。
type Migrator struct {
	flat *FlatStore
	st   store.Store
}

// NewMigrator 创建迁移器。
func NewMigrator(flat *FlatStore, st store.Store) *Migrator {
	return &Migrator{flat: flat, st: st}
}

// Run 依次迁移每个旧键。规则：旧键有数据且目标集合为空时逐条拷贝；
// 目标集合非空时直接丢弃旧数据（存储优先）；无论结果如何都删除旧键，
// 避免反复尝试导入。错误只记日志，迁移失败不阻塞启动。
func (m *Migrator) Run(ctx context.Context) {
	if m == nil || m.flat == nil || m.st == nil {
		return
	}

	migrateCollection(ctx, m.flat, KeyImageHistory,
		func(ctx context.Context) (int64, error) { return m.st.CountImages(ctx) },
		func(ctx context.Context, raw json.RawMessage) (int, error) {
			var records []entity.GenerationRecord
			if err := json.Unmarshal(raw, &records); err != nil {
				return 0, err
			}
			copied := 0
			for i := range records {
				if err := m.st.PutImage(ctx, &records[i]); err != nil {
					return copied, err
				}
				copied++
			}
			return copied, nil
		})

	migrateCollection(ctx, m.flat, KeyChatSessions,
		func(ctx context.Context) (int64, error) { return m.st.CountChatSessions(ctx) },
		func(ctx context.Context, raw json.RawMessage) (int, error) {
			var sessions []entity.ChatSession
			if err := json.Unmarshal(raw, &sessions); err != nil {
				return 0, err
			}
			copied := 0
			for i := range sessions {
				if err := m.st.PutChatSession(ctx, &sessions[i]); err != nil {
					return copied, err
				}
				copied++
			}
			return copied, nil
		})

	migrateCollection(ctx, m.flat, KeyCustomAgents,
		func(ctx context.Context) (int64, error) { return m.st.CountAgents(ctx) },
		func(ctx context.Context, raw json.RawMessage) (int, error) {
			var agents []entity.Agent
			if err := json.Unmarshal(raw, &agents); err != nil {
				return 0, err
			}
			copied := 0
			for i := range agents {
				if err := m.st.PutAgent(ctx, &agents[i]); err != nil {
					return copied, err
				}
				copied++
			}
			return copied, nil
		})
}

func migrateCollection(
	ctx context.Context,
	flat *FlatStore,
	key string,
	count func(context.Context) (int64, error),
	copyAll func(context.Context, json.RawMessage) (int, error),
) {
	raw, ok, err := flat.Get(key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("failed to read legacy data")
		return
	}
	if !ok {
		return
	}

	existing, err := count(ctx)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("failed to inspect store before migration")
		return
	}

	if existing > 0 {
		// 存储优先：旧数据直接丢弃
		if err := flat.Delete(key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("failed to clear legacy key")
		}
		return
	}

	copied, copyErr := copyAll(ctx, raw)
	if copyErr != nil {
		logrus.WithError(copyErr).WithFields(logrus.Fields{
			"key":    key,
			"copied": copied,
		}).Warn("legacy migration incomplete")
	} else if copied > 0 {
		logrus.WithFields(logrus.Fields{
			"key":    key,
			"copied": copied,
		}).Info("migrated legacy data")
	}

	// 无论拷贝结果如何都删除旧键，防止重复导入
	if err := flat.Delete(key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("failed to clear legacy key")
	}
}
