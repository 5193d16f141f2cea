package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"

	"relay_bot/internal/errlog"
	"relay_bot/internal/logger"
)

// pollErrorWindow 两次轮询错误间隔超过该值时重新计数
const pollErrorWindow = 2 * time.Minute

// pollHealth 统计连续的轮询错误，达到阈值时触发重启
type pollHealth struct {
	mu          sync.Mutex
	max         int
	consecutive int
	last        error
	lastAt      time.Time
	tripped     chan struct{}
	closed      bool
	now         func() time.Time
}

func newPollHealth(max int) *pollHealth {
	return &pollHealth{max: max, tripped: make(chan struct{}), now: time.Now}
}

// arm 开始新一轮轮询，返回触发重启的信号
func (h *pollHealth) arm() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutive = 0
	h.last = nil
	h.tripped = make(chan struct{})
	h.closed = false
	return h.tripped
}

// failure 记录一次轮询错误
func (h *pollHealth) failure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if h.consecutive > 0 && now.Sub(h.lastAt) > pollErrorWindow {
		h.consecutive = 0
	}
	h.consecutive++
	h.last = err
	h.lastAt = now

	if h.consecutive >= h.max && !h.closed {
		close(h.tripped)
		h.closed = true
	}
}

// success 收到 update 说明轮询正常
func (h *pollHealth) success() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutive = 0
}

// err 触发重启的原因
func (h *pollHealth) err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		return nil
	}
	return fmt.Errorf("%d consecutive polling errors, last: %w", h.consecutive, h.last)
}

// handlePollingError bot 轮询错误回调
func (b *Bot) handlePollingError(err error) {
	logger.L().Errorf("Telegram polling error: %v", err)
	b.pollErrors.failure(err)
}

// trackUpdates 中间件：收到 update 时清零错误计数
func (b *Bot) trackUpdates(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
		b.pollErrors.success()
		next(ctx, botInstance, update)
	}
}

// poll 运行一轮长轮询，直到 ctx 取消或错误过多
func (b *Bot) poll(ctx context.Context) error {
	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tripped := b.pollErrors.arm()
	go func() {
		select {
		case <-tripped:
			cancel()
		case <-pollCtx.Done():
		}
	}()

	b.client().Start(pollCtx)

	if ctx.Err() != nil {
		return nil
	}
	if err := b.pollErrors.err(); err != nil {
		return err
	}
	return errors.New("polling stopped unexpectedly")
}

// onRestart 重建客户端并通知管理员
func (b *Bot) onRestart(ctx context.Context, cause error) {
	b.errLog.Record(ctx, fmt.Sprintf("Bot Polling Error: %v", cause))
	if err := b.connect(); err != nil {
		logger.L().Errorf("Failed to recreate bot client, reusing the previous one: %v", err)
	}
	b.notifyAdmins(ctx)
}

// notifyAdmins 通知所有管理员 bot 已重启
func (b *Bot) notifyAdmins(ctx context.Context) {
	adminIDs, err := b.settings.AdminIDs(ctx)
	if err != nil {
		b.errLog.Record(ctx, fmt.Sprintf("Reading settings error: %v", err))
		return
	}

	text := fmt.Sprintf("Please start again, I have been restarted! Bot name: %s", html.EscapeString(b.botName))
	sent := notifyAll(ctx, adminIDs, func(ctx context.Context, adminID int64) error {
		return b.sendText(ctx, adminID, text)
	}, b.errLog)
	logger.L().Infof("Restart notification sent to %d/%d admins", sent, len(adminIDs))
}

// notifyAll 逐个通知，单个失败只记录日志，不影响其他人
func notifyAll(ctx context.Context, adminIDs []int64, send func(ctx context.Context, adminID int64) error, errLog errlog.Recorder) int {
	sent := 0
	for _, adminID := range adminIDs {
		if err := send(ctx, adminID); err != nil {
			errLog.Record(ctx, fmt.Sprintf("Admin Notification Error for %d: %v", adminID, err))
			continue
		}
		sent++
	}
	return sent
}

// supervise 运行轮询；panic 或异常退出时等待 delay 后调用 onRestart 并重新轮询
func supervise(ctx context.Context, poll func(ctx context.Context) error, delay time.Duration, onRestart func(ctx context.Context, cause error)) {
	for {
		err := runGuarded(ctx, poll)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("polling returned without error")
		}

		logger.L().Errorf("Bot polling failed: %v, restarting in %s", err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		onRestart(ctx, err)
	}
}

// runGuarded 调用 poll，将 panic 转换为错误
func runGuarded(ctx context.Context, poll func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("polling panic: %v", r)
		}
	}()
	return poll(ctx)
}
