package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"relay_bot/internal/storage"
	"relay_bot/internal/telegram/models"
	"relay_bot/internal/telegram/repository"
)

type recordingLog struct {
	mu      sync.Mutex
	entries []string
}

func (r *recordingLog) Record(ctx context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, message)
}

func TestSuperviseRestartsAfterFailureAndPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	poll := func(ctx context.Context) error {
		calls++
		switch calls {
		case 1:
			return errors.New("connection reset")
		case 2:
			panic("unexpected nil update")
		default:
			cancel()
			<-ctx.Done()
			return nil
		}
	}

	var causes []error
	supervise(ctx, poll, time.Millisecond, func(ctx context.Context, cause error) {
		causes = append(causes, cause)
	})

	if calls != 3 {
		t.Fatalf("expected 3 polling runs, got %d", calls)
	}
	if len(causes) != 2 {
		t.Fatalf("expected 2 restarts, got %d", len(causes))
	}
	if !strings.Contains(causes[1].Error(), "polling panic") {
		t.Fatalf("expected panic to be reported, got %v", causes[1])
	}
}

func TestSuperviseStopsDuringRestartDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	restarts := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		supervise(ctx, func(ctx context.Context) error {
			return errors.New("boom")
		}, time.Hour, func(ctx context.Context, cause error) {
			restarts++
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervise did not return after cancel")
	}
	if restarts != 0 {
		t.Fatalf("expected no restart, got %d", restarts)
	}
}

func TestNotifyAllContinuesAfterFailure(t *testing.T) {
	rec := &recordingLog{}
	var notified []int64

	sent := notifyAll(context.Background(), []int64{1, 2, 3}, func(ctx context.Context, adminID int64) error {
		notified = append(notified, adminID)
		if adminID == 2 {
			return errors.New("Forbidden: bot was blocked by the user")
		}
		return nil
	}, rec)

	if sent != 2 {
		t.Fatalf("expected 2 notifications sent, got %d", sent)
	}
	if len(notified) != 3 {
		t.Fatalf("expected every admin to be attempted, got %v", notified)
	}
	if len(rec.entries) != 1 || !strings.Contains(rec.entries[0], "for 2") {
		t.Fatalf("expected one failure entry for admin 2, got %v", rec.entries)
	}
}

func TestPollHealthTripsAfterConsecutiveErrors(t *testing.T) {
	h := newPollHealth(3)
	tripped := h.arm()

	h.failure(errors.New("e1"))
	h.failure(errors.New("e2"))
	h.success()
	h.failure(errors.New("e3"))
	h.failure(errors.New("e4"))

	select {
	case <-tripped:
		t.Fatal("tripped before reaching the threshold")
	default:
	}

	last := errors.New("e5")
	h.failure(last)

	select {
	case <-tripped:
	default:
		t.Fatal("expected trip after 3 consecutive errors")
	}
	if err := h.err(); !errors.Is(err, last) {
		t.Fatalf("expected cause to wrap last error, got %v", err)
	}

	h.failure(errors.New("e6"))

	tripped = h.arm()
	if h.err() != nil {
		t.Fatal("expected re-armed health to be clean")
	}
	select {
	case <-tripped:
		t.Fatal("re-armed signal must be open")
	default:
	}
}

func TestPollHealthResetsAfterQuietWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h := newPollHealth(2)
	h.now = func() time.Time { return now }
	tripped := h.arm()

	h.failure(errors.New("e1"))
	now = now.Add(pollErrorWindow + time.Second)
	h.failure(errors.New("e2"))

	select {
	case <-tripped:
		t.Fatal("errors far apart must not count as consecutive")
	default:
	}

	now = now.Add(time.Second)
	h.failure(errors.New("e3"))
	select {
	case <-tripped:
	default:
		t.Fatal("expected trip")
	}
}

func TestNotifyAdminsIncludesBotName(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	settings := repository.NewSettingsRepository(store, models.DefaultSettings([]int64{11, 22, 33}))
	if err := settings.EnsureDefaults(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	sent := map[int64]string{}
	rec := &recordingLog{}
	b := &Bot{
		settings: settings,
		errLog:   rec,
		botName:  "relay_test_bot",
		sendText: func(ctx context.Context, chatID int64, text string) error {
			if chatID == 22 {
				return errors.New("Forbidden: bot was blocked by the user")
			}
			sent[chatID] = text
			return nil
		},
	}

	b.notifyAdmins(ctx)

	if len(sent) != 2 {
		t.Fatalf("expected 2 delivered notices, got %v", sent)
	}
	for _, id := range []int64{11, 33} {
		want := "Please start again, I have been restarted! Bot name: relay_test_bot"
		if sent[id] != want {
			t.Fatalf("admin %d got %q, want %q", id, sent[id], want)
		}
	}
	if len(rec.entries) != 1 || !strings.Contains(rec.entries[0], "22") {
		t.Fatalf("expected one failure entry for admin 22, got %v", rec.entries)
	}
}
