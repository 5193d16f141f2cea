package repository

import (
	"context"
	"errors"
	"fmt"

	"relay_bot/internal/storage"
	"relay_bot/internal/telegram/models"
)

// DocumentGroupRepository 基于文档存储的群组仓库
type DocumentGroupRepository struct {
	store storage.DocumentStore
}

// NewGroupRepository 创建群组仓库
func NewGroupRepository(store storage.DocumentStore) *DocumentGroupRepository {
	return &DocumentGroupRepository{store: store}
}

// List 列出所有群组
func (r *DocumentGroupRepository) List(ctx context.Context) ([]string, error) {
	return loadStringList(ctx, r.store, storage.DocGroups)
}

// Add 添加群组（已存在的忽略）
func (r *DocumentGroupRepository) Add(ctx context.Context, groups []string) (int, error) {
	current, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	updated, added := models.UnionGroups(current, groups)
	if err := r.store.Save(ctx, storage.DocGroups, updated); err != nil {
		return 0, fmt.Errorf("failed to save groups: %w", err)
	}
	return added, nil
}

// Remove 删除群组（不存在的忽略）
func (r *DocumentGroupRepository) Remove(ctx context.Context, groups []string) (int, error) {
	current, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	updated, removed := models.SubtractGroups(current, groups)
	if err := r.store.Save(ctx, storage.DocGroups, updated); err != nil {
		return 0, fmt.Errorf("failed to save groups: %w", err)
	}
	return removed, nil
}

// EnsureDefaults 初始化群组文档
func (r *DocumentGroupRepository) EnsureDefaults(ctx context.Context) error {
	return ensureStringList(ctx, r.store, storage.DocGroups)
}

// loadStringList 读取字符串列表文档，不存在时返回空列表
func loadStringList(ctx context.Context, store storage.DocumentStore, name string) ([]string, error) {
	var items []string
	if err := store.Load(ctx, name, &items); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func ensureStringList(ctx context.Context, store storage.DocumentStore, name string) error {
	var items []string
	err := store.Load(ctx, name, &items)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	if err := store.Save(ctx, name, []string{}); err != nil {
		return fmt.Errorf("failed to initialize %s: %w", name, err)
	}
	return nil
}
