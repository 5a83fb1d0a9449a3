package entity

import "time"

// ChatSession 是对话历史集合中的一条会话。
// 核心子系统只负责存取，内容由外部聊天界面产生。
type ChatSession struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title     string    `gorm:"column:title;type:varchar(255)" json:"title"`
	Model     string    `gorm:"column:model;type:varchar(255)" json:"model,omitempty"`
	AgentID   string    `gorm:"column:agent_id;type:varchar(64);index" json:"agent_id,omitempty"`
	Messages  string    `gorm:"column:messages;type:text" json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// Agent 是用户自定义的对话预设。
type Agent struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name         string    `gorm:"column:name;type:varchar(255)" json:"name"`
	Description  string    `gorm:"column:description;type:text" json:"description,omitempty"`
	SystemPrompt string    `gorm:"column:system_prompt;type:text" json:"system_prompt"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Agent) TableName() string {
	return "agents"
}
