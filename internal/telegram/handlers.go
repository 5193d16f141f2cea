package telegram

import (
	"context"
	"errors"

	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/models"
	"relay_bot/internal/telegram/service"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// registerHandlers 注册所有命令处理器（异步执行）
func (b *Bot) registerHandlers(client *bot.Bot) {
	client.RegisterHandler(bot.HandlerTypeMessageText, "/admin", bot.MatchTypeExact,
		b.asyncHandler(b.handleAdmin))
	client.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact,
		b.asyncHandler(b.handleStatus))
	client.RegisterHandler(bot.HandlerTypeCallbackQueryData, models.CallbackPrefix, bot.MatchTypePrefix,
		b.asyncHandler(b.handleCallback))

	logger.L().Debug("All handlers registered with async execution")
}

// handleAdmin 处理 /admin 命令
func (b *Bot) handleAdmin(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	resp, err := b.admin.OpenMenu(ctx, update.Message.From.ID)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.respond(ctx, chatID, resp)
}

// handleCallback 处理管理菜单按钮
func (b *Bot) handleCallback(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.CallbackQuery == nil {
		return
	}
	query := update.CallbackQuery

	if query.Message.Message == nil {
		logger.L().Warn("Callback query message is inaccessible")
		b.answerCallback(ctx, botInstance, query.ID, "")
		return
	}
	chatID := query.Message.Message.Chat.ID

	action, ok := models.ParseMenuAction(query.Data)
	if !ok {
		logger.L().Warnf("Unknown admin callback: data=%s, user_id=%d", query.Data, query.From.ID)
		b.answerCallback(ctx, botInstance, query.ID, "Unknown action")
		return
	}

	resp, err := b.admin.SelectAction(ctx, query.From.ID, chatID, action)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			b.answerCallback(ctx, botInstance, query.ID, "🚫 Not authorized!")
			return
		}
		b.answerCallback(ctx, botInstance, query.ID, "")
		b.replyError(ctx, chatID, err)
		return
	}

	b.answerCallback(ctx, botInstance, query.ID, "")
	b.respond(ctx, chatID, resp)
}

// handleInput 处理私聊中的文本和文件，交给管理员会话
func (b *Bot) handleInput(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	resp, err := b.admin.HandleInput(ctx, msg.From.ID, inputFromMessage(msg))
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.respond(ctx, chatID, resp)
}

// inputFromMessage 提取消息中的文本或文件
func inputFromMessage(msg *botModels.Message) models.Input {
	input := models.Input{ChatID: msg.Chat.ID, Text: msg.Text}
	if msg.Document != nil {
		input.Document = &models.DocumentRef{
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
			FileSize: int64(msg.Document.FileSize),
		}
		if input.Text == "" {
			input.Text = msg.Caption
		}
	}
	return input
}
