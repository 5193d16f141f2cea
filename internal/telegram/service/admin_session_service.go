package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"relay_bot/internal/errlog"
	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/models"
	"relay_bot/internal/telegram/repository"
)

const (
	// MaxUploadSize 链接文件大小上限
	MaxUploadSize = 1 << 20

	// GroupsFileName 群组列表导出文件名
	GroupsFileName = "groups.txt"
	// MessagesFileName 链接列表导出文件名
	MessagesFileName = "messages.txt"
)

// 管理员可见的提示文本
const (
	TextAdminMenu        = "<b>Admin Menu</b>"
	TextPromptGroupAdd   = "Enter group IDs (comma separated):"
	TextPromptGroupDel   = "Enter group IDs to remove (comma separated):"
	TextPromptMessageAdd = "Enter message link (e.g., https://t.me/examplechannel/155):"
	TextPromptUpload     = "Upload a new TXT file to update message links or type /terminate to cancel."
	TextPromptTime       = "Enter new sending time (in minutes):"
	TextNoGroups         = "No groups found."
	TextNoMessages       = "No message links found."
	TextGroupsAdded      = "✅ Groups added."
	TextGroupsRemoved    = "✅ Groups removed."
	TextMessageAdded     = "✅ Message link added."
	TextMessagesUpdated  = "✅ Message links updated."
	TextEditCancelled    = "Editing cancelled."
	TextUploadReprompt   = "Please upload a TXT file or type /terminate."
	TextUploadFailed     = "❌ Failed to update message links. Open Edit Message again to retry."
	TextSaveFailed       = "❌ Failed to save changes. Please try again from the menu."
	TextReadFailed       = "❌ Failed to read current data. Please try again later."
	TextStarted          = "✅ Forwarding started."
	TextAlreadyRunning   = "🔄 Forwarding is already running."
	TextStopped          = "⏹ Forwarding stopped."
	TextNotRunning       = "Forwarding is not running."
)

// AdminSessionService 管理员会话状态机
//
// 每个管理员最多一个待处理会话；新的菜单选择直接覆盖旧会话。
// 会话在下一次输入时被消费（失败也算消费），只有文件上传会话在无关输入时重新挂起。
type AdminSessionService struct {
	settings   repository.SettingsRepository
	groups     repository.GroupRepository
	links      repository.LinkRepository
	forwarding ForwardingController
	files      FileFetcher
	errLog     errlog.Recorder

	sessions sync.Map // map[int64]*models.Session (key: adminID)
	now      func() time.Time
}

// NewAdminSessionService 创建管理员会话服务
func NewAdminSessionService(
	settings repository.SettingsRepository,
	groups repository.GroupRepository,
	links repository.LinkRepository,
	forwarding ForwardingController,
	files FileFetcher,
	errLog errlog.Recorder,
) *AdminSessionService {
	if errLog == nil {
		errLog = errlog.Nop()
	}
	return &AdminSessionService{
		settings:   settings,
		groups:     groups,
		links:      links,
		forwarding: forwarding,
		files:      files,
		errLog:     errLog,
		now:        time.Now,
	}
}

// authorize 每次重新读取管理员列表；读取失败按未授权处理
func (s *AdminSessionService) authorize(ctx context.Context, adminID int64) error {
	ok, err := s.settings.IsAdmin(ctx, adminID)
	if err != nil {
		logger.L().Errorf("Failed to check admin permission: user_id=%d, error=%v", adminID, err)
		return ErrUnauthorized
	}
	if !ok {
		logger.L().Warnf("Unauthorized admin access: user_id=%d", adminID)
		return ErrUnauthorized
	}
	return nil
}

// OpenMenu 渲染管理菜单
func (s *AdminSessionService) OpenMenu(ctx context.Context, adminID int64) (*models.Response, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}
	return &models.Response{Text: TextAdminMenu, Menu: true}, nil
}

// SelectAction 处理菜单按钮
func (s *AdminSessionService) SelectAction(ctx context.Context, adminID, chatID int64, action models.MenuAction) (*models.Response, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}

	switch action {
	case models.ActionAddGroup:
		s.arm(adminID, chatID, models.SessionAwaitingGroupAdd)
		return &models.Response{Text: TextPromptGroupAdd}, nil

	case models.ActionRemoveGroup:
		s.arm(adminID, chatID, models.SessionAwaitingGroupRemove)
		return &models.Response{Text: TextPromptGroupDel}, nil

	case models.ActionListGroups:
		groups, err := s.groups.List(ctx)
		if err != nil {
			return s.failure(ctx, TextReadFailed, "List Groups Error", err), nil
		}
		content := TextNoGroups
		if len(groups) > 0 {
			content = strings.Join(groups, "\n")
		}
		return &models.Response{Document: &models.Document{FileName: GroupsFileName, Content: []byte(content)}}, nil

	case models.ActionAddMessage:
		s.arm(adminID, chatID, models.SessionAwaitingMessageAdd)
		return &models.Response{Text: TextPromptMessageAdd}, nil

	case models.ActionEditMessages:
		links, err := s.links.List(ctx)
		if err != nil {
			return s.failure(ctx, TextReadFailed, "Edit Message Export Error", err), nil
		}
		s.arm(adminID, chatID, models.SessionAwaitingMessageFileUpload)
		if len(links) == 0 {
			// Telegram 不接受空文件
			return &models.Response{Text: TextNoMessages + "\n" + TextPromptUpload}, nil
		}
		return &models.Response{
			Document: &models.Document{FileName: MessagesFileName, Content: []byte(strings.Join(links, "\n"))},
			Text:     TextPromptUpload,
		}, nil

	case models.ActionEditTime:
		s.arm(adminID, chatID, models.SessionAwaitingTimeEdit)
		return &models.Response{Text: TextPromptTime}, nil

	case models.ActionStart:
		if !s.forwarding.Start() {
			return &models.Response{Text: TextAlreadyRunning}, nil
		}
		logger.L().Infof("Forwarding started by admin %d", adminID)
		return &models.Response{Text: TextStarted}, nil

	case models.ActionStop:
		if !s.forwarding.Stop() {
			return &models.Response{Text: TextNotRunning}, nil
		}
		logger.L().Infof("Forwarding stopped by admin %d", adminID)
		return &models.Response{Text: TextStopped}, nil

	case models.ActionBack:
		return &models.Response{Text: TextAdminMenu, Menu: true}, nil

	default:
		return nil, fmt.Errorf("unknown menu action: %q", action)
	}
}

// HandleInput 消费待处理会话；没有会话时返回 (nil, nil)
func (s *AdminSessionService) HandleInput(ctx context.Context, adminID int64, input models.Input) (*models.Response, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}

	value, ok := s.sessions.LoadAndDelete(adminID)
	if !ok {
		return nil, nil
	}
	session := value.(*models.Session)
	logger.L().Debugf("Consuming admin session: user_id=%d, state=%s", adminID, session.State)

	switch session.State {
	case models.SessionAwaitingGroupAdd:
		added, err := s.groups.Add(ctx, models.SplitGroupTokens(input.Text))
		if err != nil {
			return s.failure(ctx, TextSaveFailed, "Set Group Error", err), nil
		}
		logger.L().Infof("Groups added by admin %d: %d new", adminID, added)
		return backResponse(TextGroupsAdded), nil

	case models.SessionAwaitingGroupRemove:
		removed, err := s.groups.Remove(ctx, models.SplitGroupTokens(input.Text))
		if err != nil {
			return s.failure(ctx, TextSaveFailed, "Remove Group Error", err), nil
		}
		logger.L().Infof("Groups removed by admin %d: %d removed", adminID, removed)
		return backResponse(TextGroupsRemoved), nil

	case models.SessionAwaitingMessageAdd:
		link := strings.TrimSpace(input.Text)
		if link == "" {
			return backResponse(ErrEmptyLink.Error()), nil
		}
		if err := s.links.Append(ctx, link); err != nil {
			return s.failure(ctx, TextSaveFailed, "Add Message Error", err), nil
		}
		return backResponse(TextMessageAdded), nil

	case models.SessionAwaitingTimeEdit:
		minutes, err := parseInterval(input.Text)
		if err != nil {
			logger.L().Warnf("Invalid interval from admin %d: %q", adminID, input.Text)
			return backResponse(err.Error()), nil
		}
		if err := s.settings.SetInterval(ctx, minutes); err != nil {
			return s.failure(ctx, TextSaveFailed, "Edit Time Error", err), nil
		}
		return backResponse(fmt.Sprintf("✅ Sending time updated to %d minutes.", minutes)), nil

	case models.SessionAwaitingMessageFileUpload:
		return s.handleUpload(ctx, session, input), nil

	default:
		return nil, fmt.Errorf("unexpected session state: %s", session.State)
	}
}

// handleUpload 文件上传会话：取消、替换，或重新挂起
func (s *AdminSessionService) handleUpload(ctx context.Context, session *models.Session, input models.Input) *models.Response {
	if strings.TrimSpace(input.Text) == models.CancelCommand {
		return backResponse(TextEditCancelled)
	}

	if !input.HasDocument() {
		// 无关输入不消费会话
		s.sessions.Store(session.AdminID, session)
		return backResponse(TextUploadReprompt)
	}

	if input.Document.FileSize > MaxUploadSize {
		logger.L().Warnf("Rejected oversized upload: user_id=%d, file=%s, size=%d",
			session.AdminID, input.Document.FileName, input.Document.FileSize)
		return backResponse(ErrFileTooLarge.Error())
	}

	content, err := s.files.DownloadDocument(ctx, input.Document.FileID)
	if err != nil {
		return s.failure(ctx, TextUploadFailed, "Edit Message File Error", err)
	}
	if !utf8.Valid(content) {
		return s.failure(ctx, TextUploadFailed, "Edit Message File Error", fmt.Errorf("file %s is not valid UTF-8", input.Document.FileName))
	}

	links := models.SplitLinkLines(strings.TrimPrefix(string(content), "\ufeff"))
	if err := s.links.Replace(ctx, links); err != nil {
		return s.failure(ctx, TextUploadFailed, "Edit Message File Error", err)
	}
	logger.L().Infof("Message links replaced by admin %d: %d links", session.AdminID, len(links))
	return backResponse(TextMessagesUpdated)
}

// PendingState 查询管理员当前的待处理会话
func (s *AdminSessionService) PendingState(adminID int64) models.SessionState {
	value, ok := s.sessions.Load(adminID)
	if !ok {
		return models.SessionIdle
	}
	return value.(*models.Session).State
}

// arm 设置（覆盖）管理员的待处理会话
func (s *AdminSessionService) arm(adminID, chatID int64, state models.SessionState) {
	s.sessions.Store(adminID, &models.Session{
		AdminID:   adminID,
		ChatID:    chatID,
		State:     state,
		CreatedAt: s.now(),
	})
}

// failure 写入错误日志并返回提示
func (s *AdminSessionService) failure(ctx context.Context, text, label string, err error) *models.Response {
	s.errLog.Record(ctx, fmt.Sprintf("%s: %v", label, err))
	return backResponse(text)
}

func backResponse(text string) *models.Response {
	return &models.Response{Text: text, Back: true}
}

// parseInterval 解析正整数分钟数
func parseInterval(text string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || minutes <= 0 {
		return 0, ErrInvalidInterval
	}
	return minutes, nil
}
