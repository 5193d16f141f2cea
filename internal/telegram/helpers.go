package telegram

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"

	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/models"
)

// menuLayout 管理菜单按钮布局（两列）
var menuLayout = [][]struct {
	label  string
	action models.MenuAction
}{
	{{"Set Group ➕", models.ActionAddGroup}, {"Remove Group ➖", models.ActionRemoveGroup}},
	{{"All Groups 📋", models.ActionListGroups}, {"Add Message 💬", models.ActionAddMessage}},
	{{"Edit Message 📝", models.ActionEditMessages}, {"Edit Time ⏰", models.ActionEditTime}},
	{{"Start ▶️", models.ActionStart}, {"Stop ⏹", models.ActionStop}},
}

// adminMenuKeyboard 构建管理菜单
func adminMenuKeyboard() *botModels.InlineKeyboardMarkup {
	keyboard := make([][]botModels.InlineKeyboardButton, 0, len(menuLayout))
	for _, row := range menuLayout {
		buttons := make([]botModels.InlineKeyboardButton, 0, len(row))
		for _, item := range row {
			buttons = append(buttons, botModels.InlineKeyboardButton{
				Text:         item.label,
				CallbackData: item.action.CallbackData(),
			})
		}
		keyboard = append(keyboard, buttons)
	}
	return &botModels.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

// backKeyboard 单个 "Back" 按钮
func backKeyboard() *botModels.InlineKeyboardMarkup {
	return &botModels.InlineKeyboardMarkup{
		InlineKeyboard: [][]botModels.InlineKeyboardButton{
			{{Text: "🔙 Back", CallbackData: models.ActionBack.CallbackData()}},
		},
	}
}

// sendMessage 发送消息（统一错误处理，使用 HTML 格式）
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, markup botModels.ReplyMarkup) error {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: botModels.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := b.client().SendMessage(ctx, params); err != nil {
		logger.L().Errorf("Failed to send message to chat %d: %v", chatID, err)
		return err
	}
	return nil
}

// sendDocument 发送文本文件
func (b *Bot) sendDocument(ctx context.Context, chatID int64, doc *models.Document) error {
	_, err := b.client().SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &botModels.InputFileUpload{
			Filename: doc.FileName,
			Data:     bytes.NewReader(doc.Content),
		},
	})
	if err != nil {
		logger.L().Errorf("Failed to send document %s to chat %d: %v", doc.FileName, chatID, err)
		return err
	}
	return nil
}

// respond 按顺序发送文件和文本
func (b *Bot) respond(ctx context.Context, chatID int64, resp *models.Response) {
	if resp == nil {
		return
	}

	if resp.Document != nil {
		if err := b.sendDocument(ctx, chatID, resp.Document); err != nil {
			b.errLog.Record(ctx, fmt.Sprintf("Send Document Error (chat %d): %v", chatID, err))
		}
	}

	if resp.Text == "" {
		return
	}

	var markup botModels.ReplyMarkup
	switch {
	case resp.Menu:
		markup = adminMenuKeyboard()
	case resp.Back:
		markup = backKeyboard()
	}
	_ = b.sendMessage(ctx, chatID, resp.Text, markup)
}

// answerCallback 回应 callback query（显示顶部提示）
func (b *Bot) answerCallback(ctx context.Context, botInstance *bot.Bot, callbackQueryID, text string) {
	_, err := botInstance.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
		Text:            text,
		ShowAlert:       false,
	})
	if err != nil {
		logger.L().Errorf("Failed to answer callback query: %v", err)
	}
}
