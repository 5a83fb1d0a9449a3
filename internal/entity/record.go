package entity

import (
	"fmt"
	"time"
)

// RecordStatus 表示一条生成记录的状态。
type RecordStatus string

const (
	StatusLoading RecordStatus = "loading"
	StatusSuccess RecordStatus = "success"
	StatusError   RecordStatus = "error"
)

// StoppedMessage 是用户主动取消时写入记录的错误信息。
const StoppedMessage = "stopped"

// GenerationRecord 是历史记录的基本单元。同一次生成动作产生的
// 记录共享一个 GroupID，记录 ID 为 "{groupId}-{index}"。
type GenerationRecord struct {
	ID      string `gorm:"primaryKey;type:varchar(80)" json:"id"`
	GroupID string `gorm:"column:group_id;type:varchar(64);index" json:"group_id"`

	Prompt string `gorm:"column:prompt;type:text" json:"prompt"`

	// ImageURL 为远程 URL 或内联 data URI，加载中为空。
	ImageURL string `gorm:"column:image_url;type:text" json:"image_url,omitempty"`

	AspectRatio string `gorm:"column:aspect_ratio;type:varchar(16)" json:"aspect_ratio,omitempty"`
	Size        string `gorm:"column:size;type:varchar(16)" json:"size,omitempty"`
	Model       string `gorm:"column:model;type:varchar(255)" json:"model,omitempty"`

	Status RecordStatus `gorm:"column:status;type:varchar(16);index" json:"status"`
	Error  string       `gorm:"column:error;type:text" json:"error,omitempty"`

	Timestamp time.Time `gorm:"column:timestamp;index" json:"timestamp"`
}

// TableName 指定表名
func (GenerationRecord) TableName() string {
	return "images"
}

// IsTerminal 报告记录是否已进入终态（success/error）。
// 终态记录除删除外不可再变更。
func (r *GenerationRecord) IsTerminal() bool {
	return r.Status == StatusSuccess || r.Status == StatusError
}

// RecordID 构造组内第 index 张图片的记录 ID（index 从 1 开始）。
func RecordID(groupID string, index int) string {
	return fmt.Sprintf("%s-%d", groupID, index)
}
