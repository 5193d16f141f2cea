package errlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type fileAppender struct {
	mu   sync.Mutex
	path string
}

// NewFileLog 创建基于 JSON Lines 文件的错误日志
func NewFileLog(path string) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("error log path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create error log directory: %w", err)
	}
	return newLog(&fileAppender{path: path}), nil
}

// append 本地文件写入不受 ctx 取消影响，关闭阶段的错误也能落盘
func (a *fileAppender) append(_ context.Context, entry Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(entry)
}
