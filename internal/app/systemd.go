package app

import (
	"context"
	"time"

	"relay_bot/internal/logger"

	"github.com/coreos/go-systemd/v22/daemon"
)

// notifySystemd 向 systemd 报告状态，非 systemd 环境下为空操作
func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logger.L().Warnf("sd_notify %q failed: %v", state, err)
		return
	}
	if sent {
		logger.L().Debugf("sd_notify %q sent", state)
	}
}

// startSystemdWatchdog 启用 WatchdogSec 时按一半周期发送心跳
// 返回的函数用于停止心跳
func startSystemdWatchdog(ctx context.Context) func() {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.L().Warnf("systemd watchdog check failed: %v", err)
		return func() {}
	}
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				notifySystemd(daemon.SdNotifyWatchdog)
			}
		}
	}()
	logger.L().Infof("systemd watchdog enabled, interval %s", interval)
	return cancel
}
