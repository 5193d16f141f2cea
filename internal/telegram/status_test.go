package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relay_bot/internal/storage"
	"relay_bot/internal/telegram/models"
	"relay_bot/internal/telegram/repository"
)

func TestBuildStatusMessageEscapesStoreErrors(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{storage.DocSettings, storage.DocGroups, storage.DocMessages} {
		if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte("<html>gateway</html>"), 0o600); err != nil {
			t.Fatalf("write %s failed: %v", name, err)
		}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	b := &Bot{
		settings: repository.NewSettingsRepository(store, models.DefaultSettings(nil)),
		groups:   repository.NewGroupRepository(store),
		links:    repository.NewLinkRepository(store),
		probeURL: server.URL,
	}

	msg := b.buildStatusMessage(context.Background())

	if !strings.Contains(msg, "&lt;") {
		t.Fatalf("expected escaped store error, got %q", msg)
	}
	// 只允许标题中的 <b></b>
	if n := strings.Count(msg, "<"); n != 2 {
		t.Fatalf("expected only the title tags to be unescaped, found %d '<' in %q", n, msg)
	}
	if !strings.Contains(msg, "HTTP 200") {
		t.Fatalf("expected network line, got %q", msg)
	}
}
