package store

import (
	"atelier/internal/entity"
	"context"
)

// Store 定义持久化存储接口。每个集合相互独立；put 按主键插入或覆盖，
// delete 对不存在的键是 no-op，排序由调用方负责。
type Store interface {
	// 生成记录
	PutImage(ctx context.Context, record *entity.GenerationRecord) error
	ListImages(ctx context.Context) ([]entity.GenerationRecord, error)
	DeleteImage(ctx context.Context, id string) error
	DeleteImageGroup(ctx context.Context, groupID string) error
	ClearImages(ctx context.Context) error
	CountImages(ctx context.Context) (int64, error)

	// 对话会话
	PutChatSession(ctx context.Context, session *entity.ChatSession) error
	ListChatSessions(ctx context.Context) ([]entity.ChatSession, error)
	DeleteChatSession(ctx context.Context, id string) error
	CountChatSessions(ctx context.Context) (int64, error)

	// 自定义预设
	PutAgent(ctx context.Context, agent *entity.Agent) error
	ListAgents(ctx context.Context) ([]entity.Agent, error)
	DeleteAgent(ctx context.Context, id string) error
	CountAgents(ctx context.Context) (int64, error)

	// 端点配置
	PutAPIConfig(ctx context.Context, cfg *entity.APIConfig) error
	GetAPIConfig(ctx context.Context, id string) (*entity.APIConfig, error)
	UpdateAPIConfig(ctx context.Context, id string, updates entity.APIConfigUpdates) error
	ListAPIConfigs(ctx context.Context) ([]entity.APIConfig, error)
	GetActiveAPIConfig(ctx context.Context) (*entity.APIConfig, error)
	DeleteAPIConfig(ctx context.Context, id string) error

	// 标量设置
	GetSetting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}
