package repository

import (
	"context"
	"fmt"

	"relay_bot/internal/storage"
)

// DocumentLinkRepository 基于文档存储的链接仓库
type DocumentLinkRepository struct {
	store storage.DocumentStore
}

// NewLinkRepository 创建链接仓库
func NewLinkRepository(store storage.DocumentStore) *DocumentLinkRepository {
	return &DocumentLinkRepository{store: store}
}

// List 列出所有链接
func (r *DocumentLinkRepository) List(ctx context.Context) ([]string, error) {
	return loadStringList(ctx, r.store, storage.DocMessages)
}

// Append 追加链接（不去重，原样保存）
func (r *DocumentLinkRepository) Append(ctx context.Context, link string) error {
	links, err := r.List(ctx)
	if err != nil {
		return err
	}

	links = append(links, link)
	if err := r.store.Save(ctx, storage.DocMessages, links); err != nil {
		return fmt.Errorf("failed to save messages: %w", err)
	}
	return nil
}

// Replace 整体替换链接列表
func (r *DocumentLinkRepository) Replace(ctx context.Context, links []string) error {
	if links == nil {
		links = []string{}
	}
	if err := r.store.Save(ctx, storage.DocMessages, links); err != nil {
		return fmt.Errorf("failed to save messages: %w", err)
	}
	return nil
}

// EnsureDefaults 初始化链接文档
func (r *DocumentLinkRepository) EnsureDefaults(ctx context.Context) error {
	return ensureStringList(ctx, r.store, storage.DocMessages)
}
