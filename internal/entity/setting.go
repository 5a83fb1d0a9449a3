package entity

import "time"

// Setting 是一条标量键值配置。键之间没有任何约束，
// 缺省值由读取方套用，从不隐式写入。
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key;type:varchar(64)" json:"key"`
	Value     string    `gorm:"column:value;type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Setting) TableName() string {
	return "settings"
}

// 预定义设置键
const (
	SettingTheme           = "theme"
	SettingActiveView      = "active_view"
	SettingSelectedModel   = "selected_model"
	SettingLastChatSession = "last_chat_session"
)

var settingDefaults = map[string]string{
	SettingTheme:      "system",
	SettingActiveView: "generate",
}

// DefaultSetting 返回键的缺省值，未定义缺省值时为空字符串。
func DefaultSetting(key string) string {
	return settingDefaults[key]
}
