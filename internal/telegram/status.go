package telegram

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"relay_bot/internal/telegram/service"

	"github.com/go-telegram/bot"
	botModels "github.com/go-telegram/bot/models"
)

const defaultNetworkProbeURL = "https://api.telegram.org"

// handleStatus 处理 /status 命令（仅管理员）
func (b *Bot) handleStatus(ctx context.Context, botInstance *bot.Bot, update *botModels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	ok, err := b.settings.IsAdmin(ctx, update.Message.From.ID)
	if err != nil || !ok {
		b.replyError(ctx, chatID, service.ErrUnauthorized)
		return
	}

	_ = b.sendMessage(ctx, chatID, b.buildStatusMessage(ctx), nil)
}

// buildStatusMessage 构建 /status 命令的响应文本
func (b *Bot) buildStatusMessage(ctx context.Context) string {
	lines := []string{"📊 <b>Status</b>"}

	if !b.startTime.IsZero() {
		lines = append(lines, fmt.Sprintf("⏱ Uptime: %s", formatDuration(time.Since(b.startTime))))
	}

	if b.forwarding != nil {
		state := "⏹ stopped"
		if b.forwarding.IsRunning() {
			state = "▶️ running"
		}
		lines = append(lines, fmt.Sprintf("🔁 Forwarding: %s", state))
	}

	if settings, err := b.settings.Get(ctx); err != nil {
		lines = append(lines, fmt.Sprintf("⚙️ Settings: ⚠️ %s", html.EscapeString(err.Error())))
	} else {
		lines = append(lines, fmt.Sprintf("⚙️ Interval: %d minutes", settings.Interval()))
	}

	if groups, err := b.groups.List(ctx); err != nil {
		lines = append(lines, fmt.Sprintf("👥 Groups: ⚠️ %s", html.EscapeString(err.Error())))
	} else {
		lines = append(lines, fmt.Sprintf("👥 Groups: %d", len(groups)))
	}

	if links, err := b.links.List(ctx); err != nil {
		lines = append(lines, fmt.Sprintf("🔗 Message links: ⚠️ %s", html.EscapeString(err.Error())))
	} else {
		lines = append(lines, fmt.Sprintf("🔗 Message links: %d", len(links)))
	}

	if b.workerPool != nil {
		stats := b.workerPool.Stats()
		lines = append(lines, fmt.Sprintf("🛠 Worker pool: %d workers, queue %d/%d", stats.Workers, stats.QueueLength, stats.QueueCapacity))
	}

	networkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	latency, statusCode, err := probeNetwork(networkCtx, b.probeURL)
	if err != nil {
		lines = append(lines, fmt.Sprintf("🌐 Network: ⚠️ probe failed (%s)", html.EscapeString(err.Error())))
	} else {
		lines = append(lines, fmt.Sprintf("🌐 Network latency: %s (%s, HTTP %d)", latency.Round(time.Millisecond), b.probeURL, statusCode))
	}

	return strings.Join(lines, "\n")
}

// probeNetwork 测试与指定地址的网络连通性，返回耗时与状态码
func probeNetwork(ctx context.Context, target string) (time.Duration, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, 0, err
	}

	client := &http.Client{Timeout: 3 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return time.Since(start), resp.StatusCode, nil
}

// formatDuration 将持续时间格式化为人类可读的字符串
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	d = d.Round(time.Second)

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, " ")
}
