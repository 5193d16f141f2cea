package models

import "time"

// SessionState 管理员会话状态（等待哪一类输入）
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionAwaitingGroupAdd
	SessionAwaitingGroupRemove
	SessionAwaitingMessageAdd
	SessionAwaitingTimeEdit
	SessionAwaitingMessageFileUpload
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionAwaitingGroupAdd:
		return "awaiting_group_add"
	case SessionAwaitingGroupRemove:
		return "awaiting_group_remove"
	case SessionAwaitingMessageAdd:
		return "awaiting_message_add"
	case SessionAwaitingTimeEdit:
		return "awaiting_time_edit"
	case SessionAwaitingMessageFileUpload:
		return "awaiting_message_file_upload"
	default:
		return "unknown"
	}
}

// Session 管理员待处理会话
//
// 点击需要输入的菜单项时创建，下一次输入时被消费
type Session struct {
	AdminID   int64
	ChatID    int64 // 菜单所在聊天，用于回复
	State     SessionState
	CreatedAt time.Time
}

// Input 管理员发送的一条输入（文本或文件）
type Input struct {
	ChatID   int64
	Text     string
	Document *DocumentRef
}

// DocumentRef 上传文件的引用（内容需通过传输层下载）
type DocumentRef struct {
	FileID   string
	FileName string
	FileSize int64
}

// HasDocument 是否携带文件
func (in Input) HasDocument() bool {
	return in.Document != nil && in.Document.FileID != ""
}
