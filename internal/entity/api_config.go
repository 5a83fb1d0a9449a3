package entity

import (
	"atelier/internal/entity/common"
	"time"
)

// APIConfig 是一条生成服务端点配置。IsActive 的配置在启动和切换时
// 用于构造生成客户端。
type APIConfig struct {
	ID       string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name     string         `gorm:"column:name;type:varchar(255)" json:"name"`
	BaseURL  string         `gorm:"column:base_url;type:varchar(512)" json:"base_url"`
	APIKey   string         `gorm:"column:api_key;type:varchar(512)" json:"api_key,omitempty"`
	Model    string         `gorm:"column:model;type:varchar(255)" json:"model"`
	IsActive bool           `gorm:"column:is_active;index" json:"is_active"`
	Extra    common.JSONMap `gorm:"column:extra;type:json" json:"extra,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (APIConfig) TableName() string {
	return "api_configs"
}

// APIConfigUpdates 端点配置更新字段
type APIConfigUpdates struct {
	Name     *string
	BaseURL  *string
	APIKey   *string
	Model    *string
	IsActive *bool
	Extra    *common.JSONMap
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u APIConfigUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.BaseURL != nil {
		updates["base_url"] = *u.BaseURL
	}
	if u.APIKey != nil {
		updates["api_key"] = *u.APIKey
	}
	if u.Model != nil {
		updates["model"] = *u.Model
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if u.Extra != nil {
		updates["extra"] = *u.Extra
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u APIConfigUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
