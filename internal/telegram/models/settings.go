package models

import "slices"

// DefaultSendingIntervalMinutes 默认转发周期（分钟）
const DefaultSendingIntervalMinutes = 15

// Settings 全局配置文档
type Settings struct {
	AdminIDs               []int64 `json:"adminIds" bson:"admin_ids"`                              // 管理员 Telegram ID 列表
	SendingIntervalMinutes int     `json:"sendingIntervalMinutes" bson:"sending_interval_minutes"` // 转发周期（分钟）
}

// DefaultSettings 返回初始配置
func DefaultSettings(adminIDs []int64) Settings {
	return Settings{
		AdminIDs:               append([]int64{}, adminIDs...),
		SendingIntervalMinutes: DefaultSendingIntervalMinutes,
	}
}

// IsAdmin 判断用户是否在管理员列表中
func (s Settings) IsAdmin(userID int64) bool {
	return slices.Contains(s.AdminIDs, userID)
}

// Interval 返回有效的转发周期，非法值回退到默认值
func (s Settings) Interval() int {
	if s.SendingIntervalMinutes <= 0 {
		return DefaultSendingIntervalMinutes
	}
	return s.SendingIntervalMinutes
}
