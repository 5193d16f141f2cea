// Package errlog 记录运行期错误（追加写，只增不改）
//
// 写入失败只会输出到日志，不会影响被记录的操作
package errlog

import (
	"context"
	"time"

	"relay_bot/internal/logger"
)

// Entry 一条错误记录
type Entry struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Message   string    `json:"message" bson:"message"`
}

// Recorder 错误记录接口
type Recorder interface {
	Record(ctx context.Context, message string)
}

// appender 底层追加写实现
type appender interface {
	append(ctx context.Context, entry Entry) error
}

// Log 错误日志，同时输出到 logrus
type Log struct {
	backend appender
	now     func() time.Time
}

func newLog(backend appender) *Log {
	return &Log{backend: backend, now: time.Now}
}

// Record 追加一条错误记录
func (l *Log) Record(ctx context.Context, message string) {
	entry := Entry{Timestamp: l.now(), Message: message}
	logger.L().WithField("logged_at", entry.Timestamp.Format(time.RFC3339)).Error(message)

	if l.backend == nil {
		return
	}
	if err := l.backend.append(ctx, entry); err != nil {
		logger.L().Warnf("Failed to append error log entry: %v", err)
	}
}

// Nop 只输出到 logrus 的错误日志
func Nop() *Log {
	return newLog(nil)
}
