package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// 存储驱动
const (
	StorageFile   = "file"
	StorageMongo  = "mongo"
	StorageSQLite = "sqlite"
)

// Config 应用程序配置
type Config struct {
	TelegramToken          string  // Telegram Bot API Token
	BotAdminIDs            []int64 // 初始管理员 ID 列表（仅在配置文档不存在时写入）
	SendingIntervalMinutes int     // 初始转发周期（分钟）
	StorageDriver          string  // file、mongo 或 sqlite
	DataDir                string  // 文件存储目录
	SQLitePath             string  // SQLite 数据库文件
	MongoURI               string  // MongoDB连接URI
	MongoDBName            string  // MongoDB数据库名称
	ForwardRatePerSecond   int     // 转发速率上限
	RestartDelaySeconds    int     // 轮询异常后重启前的等待
	Debug                  bool    // go-telegram/bot 调试输出
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		StorageDriver: envOrDefault("STORAGE_DRIVER", StorageFile),
		DataDir:       envOrDefault("DATA_DIR", "./data"),
		MongoURI:      strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDBName:   envOrDefault("MONGO_DB_NAME", "relay_bot"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	// 解析BOT_ADMIN_IDS
	if adminIDsStr := os.Getenv("BOT_ADMIN_IDS"); adminIDsStr != "" {
		var err error
		cfg.BotAdminIDs, err = parseAdminIDs(adminIDsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse BOT_ADMIN_IDS: %w", err)
		}
	}

	var err error
	if cfg.SendingIntervalMinutes, err = positiveInt("SENDING_INTERVAL_MINUTES", 15); err != nil {
		return nil, err
	}
	if cfg.ForwardRatePerSecond, err = positiveInt("FORWARD_RATE_PER_SECOND", 20); err != nil {
		return nil, err
	}
	if cfg.RestartDelaySeconds, err = positiveInt("RESTART_DELAY_SECONDS", 5); err != nil {
		return nil, err
	}

	if debug := strings.TrimSpace(os.Getenv("BOT_DEBUG")); debug != "" {
		value, err := strconv.ParseBool(debug)
		if err != nil {
			return nil, fmt.Errorf("failed to parse BOT_DEBUG: %w", err)
		}
		cfg.Debug = value
	}

	cfg.SQLitePath = envOrDefault("SQLITE_PATH", filepath.Join(cfg.DataDir, "relay.db"))

	switch cfg.StorageDriver {
	case StorageFile, StorageSQLite:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required when STORAGE_DRIVER=mongo")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q (want %s, %s or %s)", cfg.StorageDriver, StorageFile, StorageMongo, StorageSQLite)
	}

	return cfg, nil
}

// parseAdminIDs 解析逗号分隔的用户ID字符串
// 支持格式: "123456789" 或 "123456789,987654321"
func parseAdminIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// positiveInt 读取正整数环境变量，未设置时使用默认值
func positiveInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("%s must be >= 1, got %d", key, value)
	}
	return value, nil
}

func envOrDefault(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}
