package forward

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
)

const (
	defaultForwardMaxAttempts    = 3
	defaultForwardRetryDelay     = 3 * time.Second
	baseForwardExponentialDelay  = 1 * time.Second
	maxForwardExponentialBackoff = 10 * time.Second
	forwardRetryJitterStep       = 200 * time.Millisecond
)

// shouldRetryForward 判断转发错误是否值得重试
// 限流和网络类错误重试；权限、参数、群组迁移等永久性错误不重试
func shouldRetryForward(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var tooMany *bot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		return true
	}

	var migrate *bot.MigrateError
	if errors.As(err, &migrate) {
		return false
	}

	switch {
	case errors.Is(err, bot.ErrorForbidden),
		errors.Is(err, bot.ErrorBadRequest),
		errors.Is(err, bot.ErrorUnauthorized),
		errors.Is(err, bot.ErrorNotFound):
		return false
	}

	return true
}

// migrateToChatIDFromError 提取群组升级为超级群后的新 ChatID
func migrateToChatIDFromError(err error) (int64, bool) {
	if err == nil {
		return 0, false
	}
	var migrate *bot.MigrateError
	if !errors.As(err, &migrate) {
		return 0, false
	}
	id := int64(migrate.MigrateToChatID)
	if id == 0 {
		return 0, false
	}
	return id, true
}

// calculateForwardRetryDelay 计算第 attempt 次失败后的等待时间
// 429 按 Telegram 返回的 retry_after 等待（附加抖动），其余错误指数退避
func calculateForwardRetryDelay(err error, attempt int, groupKey int64) time.Duration {
	var tooMany *bot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		delay := time.Duration(tooMany.RetryAfter) * time.Second
		if delay <= 0 {
			delay = defaultForwardRetryDelay
		}
		return delay + forwardRetryJitter(groupKey)
	}

	if attempt < 1 {
		attempt = 1
	}
	delay := baseForwardExponentialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxForwardExponentialBackoff {
			return maxForwardExponentialBackoff
		}
	}
	return delay
}

// forwardRetryJitter 按群组错开重试时间，避免同一时刻集中重试
func forwardRetryJitter(groupKey int64) time.Duration {
	if groupKey < 0 {
		groupKey = -groupKey
	}
	return time.Duration(groupKey%5+1) * forwardRetryJitterStep
}

// groupRetryKey 群组标识对应的抖动键
func groupRetryKey(group string) int64 {
	if id, err := strconv.ParseInt(group, 10, 64); err == nil {
		return id
	}
	return int64(len(group))
}

// sleepContext 可取消的等待
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
