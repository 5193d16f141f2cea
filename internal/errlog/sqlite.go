package errlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const sqliteErrorLogSchema = `
CREATE TABLE IF NOT EXISTS error_logs (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	message   TEXT NOT NULL
);`

type sqliteAppender struct {
	db *sql.DB
}

// NewSQLiteLog 创建基于 SQLite error_logs 表的错误日志
// db 通常与文档存储共用同一个连接
func NewSQLiteLog(db *sql.DB) (*Log, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite database cannot be nil")
	}
	if _, err := db.Exec(sqliteErrorLogSchema); err != nil {
		return nil, fmt.Errorf("failed to create error_logs table: %w", err)
	}
	return newLog(&sqliteAppender{db: db}), nil
}

func (a *sqliteAppender) append(ctx context.Context, entry Entry) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO error_logs(timestamp, message) VALUES(?,?)`,
		entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to insert error log: %w", err)
	}
	return nil
}
