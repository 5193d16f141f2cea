// Package storage 提供整文档读写的持久化层
//
// 每个文档按名称存取，读取和覆盖都是原子的：
//   - file:  <dir>/<name>.json，临时文件写入后 rename
//   - mongo: documents 集合，_id 为文档名，data 为文档内容
//   - sqlite: documents 表，name 为主键，data 为 JSON 文本
package storage

import (
	"context"
	"errors"
)

// 文档名称
const (
	DocSettings = "settings"
	DocGroups   = "groups"
	DocMessages = "messages"
)

// ErrNotFound 文档不存在
var ErrNotFound = errors.New("document not found")

// DocumentStore 整文档存储接口
type DocumentStore interface {
	// Load 读取文档并解码到 v，文档不存在时返回 ErrNotFound
	Load(ctx context.Context, name string, v any) error

	// Save 用 v 覆盖整个文档
	Save(ctx context.Context, name string, v any) error
}
