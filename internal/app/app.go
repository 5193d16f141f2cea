package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"relay_bot/internal/config"
	"relay_bot/internal/errlog"
	"relay_bot/internal/logger"
	"relay_bot/internal/mongo"
	"relay_bot/internal/storage"
	"relay_bot/internal/telegram"
	"relay_bot/internal/telegram/forward"
	"relay_bot/internal/telegram/models"
	"relay_bot/internal/telegram/repository"

	"github.com/coreos/go-systemd/v22/daemon"
)

// errorLogFileName 文件存储下的错误日志
const errorLogFileName = "log.jsonl"

// App 应用服务容器
// 负责管理所有服务的生命周期（初始化、运行、关闭）
type App struct {
	MongoDB     *mongo.Client        // 仅 STORAGE_DRIVER=mongo 时存在
	SQLite      *storage.SQLiteStore // 仅 STORAGE_DRIVER=sqlite 时存在
	Store       storage.DocumentStore
	ErrLog      errlog.Recorder
	Scheduler   *forward.Scheduler
	TelegramBot *telegram.Bot
}

// New 初始化应用及其所有服务
// 按顺序初始化各个服务，任何服务初始化失败都会返回错误
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}

	if err := app.openStorage(cfg); err != nil {
		return nil, err
	}

	settingsRepo := repository.NewSettingsRepository(app.Store, models.Settings{
		AdminIDs:               cfg.BotAdminIDs,
		SendingIntervalMinutes: cfg.SendingIntervalMinutes,
	})
	groupRepo := repository.NewGroupRepository(app.Store)
	linkRepo := repository.NewLinkRepository(app.Store)

	if err := seedDocuments(ctx, settingsRepo, groupRepo, linkRepo); err != nil {
		app.Close(ctx)
		return nil, err
	}

	bot, err := telegram.InitFromConfig(cfg, telegram.Dependencies{
		Settings: settingsRepo,
		Groups:   groupRepo,
		Links:    linkRepo,
		ErrLog:   app.ErrLog,
	})
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("init Telegram bot failed: %w", err)
	}
	app.TelegramBot = bot

	app.Scheduler = forward.NewScheduler(bot, settingsRepo, groupRepo, linkRepo, app.ErrLog,
		forward.WithRatePerSecond(cfg.ForwardRatePerSecond))
	bot.SetForwarding(app.Scheduler)

	return app, nil
}

// openStorage 按配置选择文档存储和错误日志
func (a *App) openStorage(cfg *config.Config) error {
	switch cfg.StorageDriver {
	case config.StorageMongo:
		client, err := mongo.InitFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("init MongoDB failed: %w", err)
		}
		a.MongoDB = client
		a.Store = storage.NewMongoStore(client.Database())
		a.ErrLog = errlog.NewMongoLog(client.Database())
		logger.L().Info("MongoDB initialized successfully")

	case config.StorageSQLite:
		store, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("init sqlite failed: %w", err)
		}
		errLog, err := errlog.NewSQLiteLog(store.DB())
		if err != nil {
			_ = store.Close()
			return fmt.Errorf("init error log failed: %w", err)
		}
		a.SQLite = store
		a.Store = store
		a.ErrLog = errLog
		logger.L().Infof("SQLite storage initialized at %s", cfg.SQLitePath)

	default:
		store, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("init file storage failed: %w", err)
		}
		errLog, err := errlog.NewFileLog(filepath.Join(cfg.DataDir, errorLogFileName))
		if err != nil {
			return fmt.Errorf("init error log failed: %w", err)
		}
		a.Store = store
		a.ErrLog = errLog
		logger.L().Infof("File storage initialized at %s", cfg.DataDir)
	}
	return nil
}

// seedDocuments 确保三个文档存在
func seedDocuments(ctx context.Context, settings repository.SettingsRepository, groups repository.GroupRepository, links repository.LinkRepository) error {
	if err := settings.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("init settings failed: %w", err)
	}
	if err := groups.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("init groups failed: %w", err)
	}
	if err := links.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("init messages failed: %w", err)
	}

	adminIDs, err := settings.AdminIDs(ctx)
	if err != nil {
		return fmt.Errorf("read admins failed: %w", err)
	}
	if len(adminIDs) == 0 {
		logger.L().Warn("No admin configured, set BOT_ADMIN_IDS or edit the settings document")
	}
	return nil
}

// Run 运行 Bot，直到 ctx 取消
func (a *App) Run(ctx context.Context) error {
	stopWatchdog := startSystemdWatchdog(ctx)
	defer stopWatchdog()

	notifySystemd(daemon.SdNotifyReady)
	defer notifySystemd(daemon.SdNotifyStopping)

	return a.TelegramBot.Start(ctx)
}

// Close 优雅关闭所有服务
// 应该在应用退出时调用，确保资源正确释放
func (a *App) Close(ctx context.Context) error {
	if a.Scheduler != nil {
		if err := a.Scheduler.Shutdown(ctx); err != nil {
			logger.L().Warnf("Forwarding scheduler did not stop in time: %v", err)
		}
	}
	if a.SQLite != nil {
		if err := a.SQLite.Close(); err != nil {
			return fmt.Errorf("close sqlite failed: %w", err)
		}
	}
	if a.MongoDB != nil {
		closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.MongoDB.Close(closeCtx); err != nil {
			return fmt.Errorf("close MongoDB failed: %w", err)
		}
	}
	return nil
}
