package forward

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"relay_bot/internal/telegram/models"

	"github.com/go-telegram/bot"
)

// 每个群组转发的尝试次数取决于错误类型，失败的群组只记录一次
func TestForwardAttemptsByErrorKind(t *testing.T) {
	tests := []struct {
		name     string
		group    string
		err      error
		attempts int
	}{
		{
			name:     "rate limited public group is retried until max attempts",
			group:    "@dest",
			err:      &bot.TooManyRequestsError{Message: "too many requests", RetryAfter: 1},
			attempts: 3,
		},
		{
			name:     "network error on private group is retried",
			group:    "-1001",
			err:      errors.New("read tcp: connection reset by peer"),
			attempts: 3,
		},
		{
			name:     "kicked from group is tried once",
			group:    "@dest",
			err:      fmt.Errorf("%w, bot was kicked from the group chat", bot.ErrorForbidden),
			attempts: 1,
		},
		{
			name:     "unknown chat is tried once",
			group:    "-1001",
			err:      fmt.Errorf("%w, chat not found", bot.ErrorBadRequest),
			attempts: 1,
		},
		{
			name:     "revoked token is tried once",
			group:    "-1001",
			err:      fmt.Errorf("%w, invalid token", bot.ErrorUnauthorized),
			attempts: 1,
		},
		{
			name:     "missing endpoint is tried once",
			group:    "@dest",
			err:      fmt.Errorf("%w, method not found", bot.ErrorNotFound),
			attempts: 1,
		},
		{
			name:     "upgraded group is tried once",
			group:    "-42",
			err:      &bot.MigrateError{Message: "group upgraded", MigrateToChatID: -1009876},
			attempts: 1,
		},
		{
			name:     "canceled request is tried once",
			group:    "@dest",
			err:      fmt.Errorf("forward: %w", context.Canceled),
			attempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messenger := newFakeMessenger()
			messenger.forwardErr = func(to any, attempt int) error { return tt.err }
			rec := &fakeRecorder{}
			s := newTestScheduler(messenger, &fakeSettings{}, []string{tt.group}, []string{"https://t.me/news/7"}, rec,
				WithMaxAttempts(3))

			s.RunCycle(context.Background())

			if got := messenger.forwardedTo(models.GroupChatID(tt.group)); got != tt.attempts {
				t.Fatalf("forward attempts = %d, want %d", got, tt.attempts)
			}
			entries := rec.all()
			if len(entries) != 1 {
				t.Fatalf("expected exactly one error log entry, got %v", entries)
			}
			want := fmt.Sprintf("Forwarding Error (group %s)", tt.group)
			if !strings.HasPrefix(entries[0], want) {
				t.Fatalf("entry %q does not start with %q", entries[0], want)
			}
		})
	}
}

func TestForwardRetryWaitsPerGroup(t *testing.T) {
	tests := []struct {
		name  string
		group string
		err   error
		want  []time.Duration
	}{
		{
			name:  "retry_after on private group",
			group: "-1001",
			err:   &bot.TooManyRequestsError{Message: "too many requests", RetryAfter: 2},
			// 1001 % 5 = 1
			want: []time.Duration{2400 * time.Millisecond, 2400 * time.Millisecond},
		},
		{
			name:  "retry_after on public group",
			group: "@dest",
			err:   &bot.TooManyRequestsError{Message: "too many requests", RetryAfter: 1},
			// len("@dest") % 5 = 0
			want: []time.Duration{1200 * time.Millisecond, 1200 * time.Millisecond},
		},
		{
			name:  "missing retry_after falls back",
			group: "-1002003004005",
			err:   &bot.TooManyRequestsError{Message: "too many requests"},
			want:  []time.Duration{3200 * time.Millisecond, 3200 * time.Millisecond},
		},
		{
			name:  "network errors back off exponentially",
			group: "@dest",
			err:   errors.New("i/o timeout"),
			want:  []time.Duration{time.Second, 2 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messenger := newFakeMessenger()
			messenger.forwardErr = func(to any, attempt int) error { return tt.err }
			s := newTestScheduler(messenger, &fakeSettings{}, []string{tt.group}, []string{"https://t.me/news/7"},
				&fakeRecorder{}, WithMaxAttempts(3))

			var slept []time.Duration
			s.sleep = func(ctx context.Context, d time.Duration) error {
				slept = append(slept, d)
				return nil
			}

			s.RunCycle(context.Background())

			if len(slept) != len(tt.want) {
				t.Fatalf("slept %v, want %v", slept, tt.want)
			}
			for i := range tt.want {
				if slept[i] != tt.want[i] {
					t.Fatalf("wait %d = %s, want %s", i, slept[i], tt.want[i])
				}
			}
		})
	}
}

func TestForwardRetryBackoffIsCapped(t *testing.T) {
	key := groupRetryKey("@dest")
	err := errors.New("i/o timeout")

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, w := range want {
		if got := calculateForwardRetryDelay(err, i+1, key); got != w {
			t.Fatalf("attempt %d: delay = %s, want %s", i+1, got, w)
		}
	}
	if got := calculateForwardRetryDelay(err, 0, key); got != time.Second {
		t.Fatalf("attempt 0: delay = %s, want 1s", got)
	}
}

func TestForwardRetryAbortsWhenWaitInterrupted(t *testing.T) {
	messenger := newFakeMessenger()
	messenger.forwardErr = func(to any, attempt int) error {
		return &bot.TooManyRequestsError{Message: "too many requests", RetryAfter: 30}
	}
	rec := &fakeRecorder{}
	s := newTestScheduler(messenger, &fakeSettings{}, []string{"-1001"}, []string{"https://t.me/news/7"}, rec)
	s.sleep = func(ctx context.Context, d time.Duration) error { return context.Canceled }

	s.RunCycle(context.Background())

	if got := messenger.forwardedTo(int64(-1001)); got != 1 {
		t.Fatalf("forward attempts = %d, want 1", got)
	}
	entries := rec.all()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one error log entry, got %v", entries)
	}
}

func TestMigratedGroupWithoutTarget(t *testing.T) {
	messenger := newFakeMessenger()
	messenger.forwardErr = func(to any, attempt int) error {
		return &bot.MigrateError{Message: "group upgraded"}
	}
	rec := &fakeRecorder{}
	s := newTestScheduler(messenger, &fakeSettings{}, []string{"-42"}, []string{"https://t.me/news/7"}, rec)

	s.RunCycle(context.Background())

	entries := rec.all()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one error log entry, got %v", entries)
	}
	if _, ok := migrateToChatIDFromError(&bot.MigrateError{}); ok {
		t.Fatal("zero migrate target must not be reported")
	}
	if strings.Contains(entries[0], "migrated to") {
		t.Fatalf("entry %q must not mention a migration target", entries[0])
	}
}

func TestGroupRetryKey(t *testing.T) {
	tests := []struct {
		group string
		want  int64
	}{
		{"-1001", -1001},
		{"-1002003004005", -1002003004005},
		{"@dest", 5},
		{"@a", 2},
	}
	for _, tt := range tests {
		if got := groupRetryKey(tt.group); got != tt.want {
			t.Fatalf("groupRetryKey(%q) = %d, want %d", tt.group, got, tt.want)
		}
	}
}
