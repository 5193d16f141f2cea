package telegram

import (
	"context"
	"errors"

	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/service"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

// asyncHandler 将 handler 提交到工作池执行
// 工作池只有一个 worker，同一时刻只处理一条管理员请求
func (b *Bot) asyncHandler(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		if b.workerPool == nil {
			next(ctx, botInstance, update)
			return
		}
		b.workerPool.Submit(HandlerTask{
			Ctx:         ctx,
			BotInstance: botInstance,
			Update:      update,
			Handler:     next,
		})
	}
}

// RequirePrivateChat 中间件：仅处理私聊消息
func (b *Bot) RequirePrivateChat(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		if update.Message.Chat.Type != "private" {
			logger.L().Debugf("Ignoring non-private message: chat_id=%d, type=%s",
				update.Message.Chat.ID, update.Message.Chat.Type)
			return
		}
		next(ctx, botInstance, update)
	}
}

// replyError 将服务层错误转换为管理员可见的提示
func (b *Bot) replyError(ctx context.Context, chatID int64, err error) {
	if errors.Is(err, service.ErrUnauthorized) {
		_ = b.sendMessage(ctx, chatID, service.ErrUnauthorized.Error(), nil)
		return
	}
	logger.L().Errorf("Admin request failed: chat_id=%d, error=%v", chatID, err)
	_ = b.sendMessage(ctx, chatID, "❌ Request failed, please try again later.", nil)
}
