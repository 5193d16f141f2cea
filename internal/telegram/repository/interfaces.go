package repository

import (
	"context"

	"relay_bot/internal/telegram/models"
)

// SettingsRepository 全局配置数据访问接口
type SettingsRepository interface {
	// Get 读取当前配置（每次都读取存储，不做缓存）
	Get(ctx context.Context) (models.Settings, error)

	// IsAdmin 检查用户是否为管理员
	IsAdmin(ctx context.Context, userID int64) (bool, error)

	// AdminIDs 列出所有管理员
	AdminIDs(ctx context.Context) ([]int64, error)

	// SetInterval 更新转发周期（分钟）
	SetInterval(ctx context.Context, minutes int) error

	// EnsureDefaults 文档不存在时写入默认值
	EnsureDefaults(ctx context.Context) error
}

// GroupRepository 目标群组数据访问接口
type GroupRepository interface {
	// List 按插入顺序列出所有群组
	List(ctx context.Context) ([]string, error)

	// Add 并集写入，返回新增数量
	Add(ctx context.Context, groups []string) (int, error)

	// Remove 差集写入，返回删除数量
	Remove(ctx context.Context, groups []string) (int, error)

	// EnsureDefaults 文档不存在时写入空列表
	EnsureDefaults(ctx context.Context) error
}

// LinkRepository 源消息链接数据访问接口
type LinkRepository interface {
	// List 按顺序列出所有链接
	List(ctx context.Context) ([]string, error)

	// Append 追加一条链接
	Append(ctx context.Context, link string) error

	// Replace 整体替换链接列表
	Replace(ctx context.Context, links []string) error

	// EnsureDefaults 文档不存在时写入空列表
	EnsureDefaults(ctx context.Context) error
}
