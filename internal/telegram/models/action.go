package models

import "strings"

// MenuAction 管理菜单动作
type MenuAction string

const (
	ActionAddGroup     MenuAction = "set_group"
	ActionRemoveGroup  MenuAction = "remove_group"
	ActionListGroups   MenuAction = "all_groups"
	ActionAddMessage   MenuAction = "add_message"
	ActionEditMessages MenuAction = "edit_message"
	ActionEditTime     MenuAction = "edit_time"
	ActionStart        MenuAction = "start"
	ActionStop         MenuAction = "stop"
	ActionBack         MenuAction = "back"
)

// CallbackPrefix 菜单按钮 callback data 前缀
const CallbackPrefix = "admin:"

// CancelCommand 取消文件上传会话的指令
const CancelCommand = "/terminate"

var menuActions = []MenuAction{
	ActionAddGroup,
	ActionRemoveGroup,
	ActionListGroups,
	ActionAddMessage,
	ActionEditMessages,
	ActionEditTime,
	ActionStart,
	ActionStop,
	ActionBack,
}

// MenuActions 返回全部菜单动作
func MenuActions() []MenuAction {
	return append([]MenuAction(nil), menuActions...)
}

// CallbackData 返回按钮的 callback data
func (a MenuAction) CallbackData() string {
	return CallbackPrefix + string(a)
}

// ParseMenuAction 解析 callback data，未知动作返回 false
func ParseMenuAction(data string) (MenuAction, bool) {
	if !strings.HasPrefix(data, CallbackPrefix) {
		return "", false
	}
	action := MenuAction(strings.TrimPrefix(data, CallbackPrefix))
	for _, known := range menuActions {
		if known == action {
			return action, true
		}
	}
	return "", false
}
