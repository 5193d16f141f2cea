package repository

import (
	"context"
	"errors"
	"fmt"

	"relay_bot/internal/storage"
	"relay_bot/internal/telegram/models"
)

// DocumentSettingsRepository 基于文档存储的配置仓库
type DocumentSettingsRepository struct {
	store    storage.DocumentStore
	defaults models.Settings
}

// NewSettingsRepository 创建配置仓库
// defaults 在配置文档不存在时使用
func NewSettingsRepository(store storage.DocumentStore, defaults models.Settings) *DocumentSettingsRepository {
	return &DocumentSettingsRepository{
		store:    store,
		defaults: defaults,
	}
}

// Get 读取配置
func (r *DocumentSettingsRepository) Get(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := r.store.Load(ctx, storage.DocSettings, &settings)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return r.initial(), nil
		}
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// IsAdmin 检查用户是否为管理员
func (r *DocumentSettingsRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	settings, err := r.Get(ctx)
	if err != nil {
		return false, err
	}
	return settings.IsAdmin(userID), nil
}

// AdminIDs 列出所有管理员
func (r *DocumentSettingsRepository) AdminIDs(ctx context.Context) ([]int64, error) {
	settings, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	return settings.AdminIDs, nil
}

// SetInterval 更新转发周期
func (r *DocumentSettingsRepository) SetInterval(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("interval must be positive, got %d", minutes)
	}

	settings, err := r.Get(ctx)
	if err != nil {
		return err
	}
	settings.SendingIntervalMinutes = minutes

	if err := r.store.Save(ctx, storage.DocSettings, normalizeSettings(settings)); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// EnsureDefaults 初始化配置文档
func (r *DocumentSettingsRepository) EnsureDefaults(ctx context.Context) error {
	var settings models.Settings
	err := r.store.Load(ctx, storage.DocSettings, &settings)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := r.store.Save(ctx, storage.DocSettings, r.initial()); err != nil {
		return fmt.Errorf("failed to initialize settings: %w", err)
	}
	return nil
}

// initial 返回配置文档不存在时的初始值
func (r *DocumentSettingsRepository) initial() models.Settings {
	settings := models.DefaultSettings(r.defaults.AdminIDs)
	if r.defaults.SendingIntervalMinutes > 0 {
		settings.SendingIntervalMinutes = r.defaults.SendingIntervalMinutes
	}
	return settings
}

func normalizeSettings(s models.Settings) models.Settings {
	if s.AdminIDs == nil {
		s.AdminIDs = []int64{}
	}
	return s
}
