package forward

import (
	"context"
	"fmt"
	"time"

	"relay_bot/internal/errlog"
	"relay_bot/internal/logger"
	"relay_bot/internal/telegram/models"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// defaultFallbackDelay 读取配置失败后跳过本轮的等待时间
	defaultFallbackDelay = 60 * time.Second
	// defaultRatePerSecond 转发调用的速率上限
	defaultRatePerSecond = 20
)

// Messenger 转发所需的传输层能力
type Messenger interface {
	// CheckChat 确认源频道可访问
	CheckChat(ctx context.Context, chat any) error

	// ForwardMessage 将 from 中的 messageID 转发到 to
	ForwardMessage(ctx context.Context, to any, from any, messageID int) error
}

// SettingsSource 配置读取
type SettingsSource interface {
	Get(ctx context.Context) (models.Settings, error)
}

// ListSource 群组或链接列表读取
type ListSource interface {
	List(ctx context.Context) ([]string, error)
}

// Scheduler 定时转发调度器
//
// 同一时刻最多运行一个后台协程；每个链接、每个群组的失败互不影响
type Scheduler struct {
	messenger Messenger
	settings  SettingsSource
	groups    ListSource
	links     ListSource
	errLog    errlog.Recorder

	limiter       *rate.Limiter
	intervalUnit  time.Duration
	fallbackDelay time.Duration
	maxAttempts   int
	sleep         func(ctx context.Context, d time.Duration) error

	state  *RunState
	ctx    context.Context
	cancel context.CancelFunc
}

// Option 调度器选项
type Option func(*Scheduler)

// WithRatePerSecond 设置转发速率上限，<=0 表示不限速
func WithRatePerSecond(rps int) Option {
	return func(s *Scheduler) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}
}

// WithIntervalUnit 设置转发周期的单位（默认分钟）
func WithIntervalUnit(unit time.Duration) Option {
	return func(s *Scheduler) { s.intervalUnit = unit }
}

// WithFallbackDelay 设置读取失败后的等待时间
func WithFallbackDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.fallbackDelay = d }
}

// WithMaxAttempts 设置单个群组转发的最大尝试次数
func WithMaxAttempts(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewScheduler 创建转发调度器
func NewScheduler(
	messenger Messenger,
	settings SettingsSource,
	groups ListSource,
	links ListSource,
	errLog errlog.Recorder,
	opts ...Option,
) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		messenger:     messenger,
		settings:      settings,
		groups:        groups,
		links:         links,
		errLog:        errLog,
		limiter:       rate.NewLimiter(rate.Limit(defaultRatePerSecond), defaultRatePerSecond),
		intervalUnit:  time.Minute,
		fallbackDelay: defaultFallbackDelay,
		maxAttempts:   defaultForwardMaxAttempts,
		sleep:         sleepContext,
		state:         newRunState(),
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.errLog == nil {
		s.errLog = errlog.Nop()
	}
	return s
}

// Start 开启转发；已在运行时返回 false
func (s *Scheduler) Start() bool {
	if s.ctx.Err() != nil {
		return false
	}

	changed, launch, done := s.state.enable()
	if !changed {
		return false
	}
	if launch {
		go s.run(s.ctx, done)
		logger.L().Info("Forwarding scheduler started")
	} else {
		logger.L().Info("Forwarding scheduler resumed before previous task exited")
	}
	return true
}

// Stop 关闭转发；未运行时返回 false
// 正在执行的一轮转发不会被打断，协程在下一个循环边界退出
func (s *Scheduler) Stop() bool {
	if !s.state.disable() {
		return false
	}
	logger.L().Info("Forwarding scheduler stop requested")
	return true
}

// IsRunning 是否处于开启状态
func (s *Scheduler) IsRunning() bool {
	return s.state.isEnabled()
}

// Shutdown 取消后台协程并等待其退出（进程关闭时调用）
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.cancel()

	done := s.state.doneChan()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run 后台转发循环
func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			s.state.exit()
			return
		}
		if !s.state.proceed() {
			logger.L().Info("Forwarding scheduler stopped")
			return
		}

		delay := s.RunCycle(ctx)

		if !s.wait(ctx, delay) {
			return
		}
	}
}

// wait 周期结束后的等待，返回 false 时协程已标记退出
// Stop 会提前唤醒；若此时已被重新 Start，则继续等完本轮周期
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	logger.L().Debugf("Forwarding scheduler sleeping %s", d)
	for {
		select {
		case <-ctx.Done():
			s.state.exit()
			return false
		case <-s.state.wake:
			if !s.state.proceed() {
				logger.L().Info("Forwarding scheduler stopped")
				return false
			}
		case <-timer.C:
			return true
		}
	}
}

// cycleStats 一轮转发的统计
type cycleStats struct {
	links   int
	skipped int
	sent    int
	failed  int
}

// RunCycle 执行一轮转发，返回下一轮之前的等待时间
func (s *Scheduler) RunCycle(ctx context.Context) time.Duration {
	cycleID := uuid.New().String()
	startTime := time.Now()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.errLog.Record(ctx, fmt.Sprintf("Reading settings error: %v", err))
		return s.fallbackDelay
	}
	groups, err := s.groups.List(ctx)
	if err != nil {
		s.errLog.Record(ctx, fmt.Sprintf("Reading groups error: %v", err))
		return s.fallbackDelay
	}
	links, err := s.links.List(ctx)
	if err != nil {
		s.errLog.Record(ctx, fmt.Sprintf("Reading messages error: %v", err))
		return s.fallbackDelay
	}

	logger.L().Infof("Forward cycle started: cycle_id=%s, links=%d, groups=%d", cycleID, len(links), len(groups))

	stats := &cycleStats{links: len(links)}
	for _, raw := range links {
		if ctx.Err() != nil {
			logger.L().Warnf("Forward cycle aborted: cycle_id=%s, context canceled", cycleID)
			break
		}
		s.processLink(ctx, raw, groups, stats)
	}

	logger.L().Infof("Forward cycle completed: cycle_id=%s, links=%d, skipped=%d, sent=%d, failed=%d, duration=%v",
		cycleID, stats.links, stats.skipped, stats.sent, stats.failed, time.Since(startTime))

	return time.Duration(settings.Interval()) * s.intervalUnit
}

// processLink 处理单个链接：解析、检查源频道、逐个群组转发
func (s *Scheduler) processLink(ctx context.Context, raw string, groups []string, stats *cycleStats) {
	defer func() {
		if r := recover(); r != nil {
			s.errLog.Record(ctx, fmt.Sprintf("Processing Error for link %s: %v", raw, r))
		}
	}()

	link, ok := models.ParseSourceLink(raw)
	if !ok {
		stats.skipped++
		logger.L().Debugf("Skipping unrecognized link: %q", raw)
		return
	}

	if err := s.messenger.CheckChat(ctx, link.Chat()); err != nil {
		stats.skipped++
		s.errLog.Record(ctx, fmt.Sprintf("Source Channel Access Error for %s: %v", link.ChatLabel(), err))
		return
	}

	for _, group := range groups {
		if err := s.forwardToGroup(ctx, group, link); err != nil {
			stats.failed++
			msg := fmt.Sprintf("Forwarding Error (group %s): %v", group, err)
			if newID, ok := migrateToChatIDFromError(err); ok {
				msg = fmt.Sprintf("%s (group migrated to %d)", msg, newID)
			}
			s.errLog.Record(ctx, msg)
			continue
		}
		stats.sent++
		logger.L().Debugf("Forwarded %s to group %s", link, group)
	}
}

// forwardToGroup 转发到单个群组（可重试错误按退避重试）
func (s *Scheduler) forwardToGroup(ctx context.Context, group string, link models.SourceLink) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter wait error: %w", err)
			}
		}

		err := s.messenger.ForwardMessage(ctx, models.GroupChatID(group), link.Chat(), link.MessageID)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == s.maxAttempts || !shouldRetryForward(err) {
			break
		}

		delay := calculateForwardRetryDelay(err, attempt, groupRetryKey(group))
		logger.L().Warnf("Forward attempt %d failed for group %s: %v, retrying in %s", attempt, group, err, delay)
		if err := s.sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry wait interrupted: %w", err)
		}
	}
	return lastErr
}
