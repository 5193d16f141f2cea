package service

import (
	"context"

	"relay_bot/internal/telegram/models"
)

// ForwardingController 转发调度开关
type ForwardingController interface {
	// Start 开启转发，已在运行时返回 false
	Start() bool

	// Stop 关闭转发，未运行时返回 false
	Stop() bool

	// IsRunning 是否处于开启状态
	IsRunning() bool
}

// FileFetcher 下载管理员上传的文件
type FileFetcher interface {
	DownloadDocument(ctx context.Context, fileID string) ([]byte, error)
}

// AdminService 管理员交互状态机
type AdminService interface {
	// OpenMenu 渲染管理菜单
	OpenMenu(ctx context.Context, adminID int64) (*models.Response, error)

	// SelectAction 处理菜单按钮，设置待处理会话并返回提示
	SelectAction(ctx context.Context, adminID, chatID int64, action models.MenuAction) (*models.Response, error)

	// HandleInput 消费待处理会话；没有会话时返回 nil
	HandleInput(ctx context.Context, adminID int64, input models.Input) (*models.Response, error)
}
