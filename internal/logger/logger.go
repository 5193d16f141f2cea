package logger

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Init 初始化全局 logrus 日志
// 可重复调用，后一次覆盖前一次的设置
func Init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// SetLevel 设置日志级别，无法解析时回退到 info
func SetLevel(levelStr string) {
	if levelStr == "" {
		levelStr = "info"
	}
	if lvl, err := log.ParseLevel(levelStr); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// SetOutput 重定向日志输出（测试用）
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// L 返回全局 logger
func L() *log.Logger { return log.StandardLogger() }
