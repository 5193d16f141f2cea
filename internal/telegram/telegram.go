package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"sync"
	"time"

	"relay_bot/internal/config"
	"relay_bot/internal/errlog"
	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/repository"
	"relay_bot/internal/telegram/service"

	"github.com/go-telegram/bot"
)

const (
	defaultRestartDelay  = 5 * time.Second
	defaultMaxPollErrors = 10
	defaultQueueSize     = 100
)

// Config Telegram Bot 配置
type Config struct {
	Token         string        // Bot Token
	Debug         bool          // 是否开启调试模式
	RestartDelay  time.Duration // 轮询失败后重启前的等待
	MaxPollErrors int           // 连续轮询错误达到该值时重启
}

// Dependencies Bot 依赖的仓库与错误日志
type Dependencies struct {
	Settings repository.SettingsRepository
	Groups   repository.GroupRepository
	Links    repository.LinkRepository
	ErrLog   errlog.Recorder
}

// Bot Telegram Bot 服务
//
// 同时实现转发所需的 Messenger 和管理员上传所需的 FileFetcher
type Bot struct {
	cfg        Config
	settings   repository.SettingsRepository
	groups     repository.GroupRepository
	links      repository.LinkRepository
	errLog     errlog.Recorder
	forwarding service.ForwardingController
	admin      service.AdminService

	mu      sync.RWMutex
	bot     *bot.Bot
	botName string

	workerPool *WorkerPool
	httpClient *http.Client
	startTime  time.Time
	pollErrors *pollHealth
	probeURL   string

	// sendText 发送纯文本通知（重启通知使用）
	sendText func(ctx context.Context, chatID int64, text string) error
}

// New 创建 Telegram Bot 实例
func New(cfg Config, deps Dependencies) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token cannot be empty")
	}
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = defaultRestartDelay
	}
	if cfg.MaxPollErrors <= 0 {
		cfg.MaxPollErrors = defaultMaxPollErrors
	}
	if deps.ErrLog == nil {
		deps.ErrLog = errlog.Nop()
	}

	telegramBot := &Bot{
		cfg:        cfg,
		settings:   deps.Settings,
		groups:     deps.Groups,
		links:      deps.Links,
		errLog:     deps.ErrLog,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pollErrors: newPollHealth(cfg.MaxPollErrors),
		probeURL:   defaultNetworkProbeURL,
	}
	telegramBot.sendText = func(ctx context.Context, chatID int64, text string) error {
		return telegramBot.sendMessage(ctx, chatID, text, nil)
	}

	if err := telegramBot.connect(); err != nil {
		return nil, err
	}

	logger.L().Info("Telegram bot initialized successfully")
	return telegramBot, nil
}

// InitFromConfig 从应用配置初始化 Telegram Bot
func InitFromConfig(cfg *config.Config, deps Dependencies) (*Bot, error) {
	telegramCfg := Config{
		Token:        cfg.TelegramToken,
		Debug:        cfg.Debug,
		RestartDelay: time.Duration(cfg.RestartDelaySeconds) * time.Second,
	}
	return New(telegramCfg, deps)
}

// connect 创建新的 bot 客户端并注册 handlers（重启时调用）
func (b *Bot) connect() error {
	opts := []bot.Option{
		bot.WithDefaultHandler(b.asyncHandler(b.RequirePrivateChat(b.handleInput))),
		bot.WithErrorsHandler(b.handlePollingError),
		bot.WithMiddlewares(b.trackUpdates),
	}
	if b.cfg.Debug {
		opts = append(opts, bot.WithDebug())
	}

	client, err := bot.New(b.cfg.Token, opts...)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	b.mu.Lock()
	b.bot = client
	b.mu.Unlock()

	b.registerHandlers(client)
	return nil
}

// client 当前 bot 客户端
func (b *Bot) client() *bot.Bot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bot
}

// SetForwarding 绑定转发调度器并创建管理员会话服务，须在 Start 之前调用
func (b *Bot) SetForwarding(forwarding service.ForwardingController) {
	b.forwarding = forwarding
	b.admin = service.NewAdminSessionService(b.settings, b.groups, b.links, forwarding, b, b.errLog)
}

// Start 启动 Bot（阻塞式，应在 goroutine 中运行）
// 轮询异常时自动重启并通知管理员，直到 ctx 取消
func (b *Bot) Start(ctx context.Context) error {
	if b.admin == nil {
		return errors.New("forwarding controller is not set")
	}

	b.startTime = time.Now()
	b.workerPool = NewWorkerPool(1, defaultQueueSize)
	defer b.workerPool.Shutdown()

	b.botName = b.resolveBotName(ctx)
	logger.L().Infof("Starting Telegram bot @%s...", b.botName)

	supervise(ctx, b.poll, b.cfg.RestartDelay, b.onRestart)

	logger.L().Info("Telegram bot stopped")
	return nil
}

// resolveBotName 查询 bot 用户名，用于重启通知
func (b *Bot) resolveBotName(ctx context.Context) string {
	me, err := b.client().GetMe(ctx)
	if err != nil {
		logger.L().Warnf("Failed to get bot info: %v", err)
		return "unknown"
	}
	if me.Username != "" {
		return me.Username
	}
	return me.FirstName
}

// CheckChat 确认聊天可访问
func (b *Bot) CheckChat(ctx context.Context, chat any) error {
	if _, err := b.client().GetChat(ctx, &bot.GetChatParams{ChatID: chat}); err != nil {
		return fmt.Errorf("get chat %v: %w", chat, err)
	}
	return nil
}

// ForwardMessage 转发单条消息
func (b *Bot) ForwardMessage(ctx context.Context, to any, from any, messageID int) error {
	_, err := b.client().ForwardMessage(ctx, &bot.ForwardMessageParams{
		ChatID:     to,
		FromChatID: from,
		MessageID:  messageID,
	})
	return err
}

// DownloadDocument 下载管理员上传的文件
func (b *Bot) DownloadDocument(ctx context.Context, fileID string) ([]byte, error) {
	client := b.client()
	file, err := client.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}
	return downloadFile(ctx, b.httpClient, client.FileDownloadLink(file), service.MaxUploadSize)
}

// downloadFile 下载文件，超过 limit 字节返回错误
func downloadFile(ctx context.Context, httpClient *http.Client, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		// 下载链接包含 token，不能写入日志
		var urlErr *neturl.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}
