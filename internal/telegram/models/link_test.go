package models

import "testing"

func TestParseSourceLink(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		ok        bool
		private   bool
		chatID    int64
		username  string
		messageID int
	}{
		{
			name:      "private channel",
			raw:       "https://t.me/c/123456789/42",
			ok:        true,
			private:   true,
			chatID:    -100123456789,
			messageID: 42,
		},
		{
			name:      "public channel",
			raw:       "https://t.me/examplechan/7",
			ok:        true,
			username:  "@examplechan",
			messageID: 7,
		},
		{
			name:      "public with query suffix",
			raw:       "see https://t.me/examplechan/7?single",
			ok:        true,
			username:  "@examplechan",
			messageID: 7,
		},
		{
			name: "missing message id",
			raw:  "https://t.me/examplechan",
			ok:   false,
		},
		{
			name: "not a telegram link",
			raw:  "hello world",
			ok:   false,
		},
		{
			name: "http scheme rejected",
			raw:  "http://t.me/examplechan/7",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, ok := ParseSourceLink(tt.raw)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if link.IsPrivate() != tt.private {
				t.Fatalf("expected private=%v, got %v", tt.private, link.IsPrivate())
			}
			if link.ChatID != tt.chatID {
				t.Fatalf("expected chat id %d, got %d", tt.chatID, link.ChatID)
			}
			if link.Username != tt.username {
				t.Fatalf("expected username %q, got %q", tt.username, link.Username)
			}
			if link.MessageID != tt.messageID {
				t.Fatalf("expected message id %d, got %d", tt.messageID, link.MessageID)
			}
		})
	}
}

func TestSourceLinkChat(t *testing.T) {
	private, _ := ParseSourceLink("https://t.me/c/123456789/42")
	if got, ok := private.Chat().(int64); !ok || got != -100123456789 {
		t.Fatalf("unexpected private chat: %#v", private.Chat())
	}

	public, _ := ParseSourceLink("https://t.me/examplechan/7")
	if got, ok := public.Chat().(string); !ok || got != "@examplechan" {
		t.Fatalf("unexpected public chat: %#v", public.Chat())
	}
	if public.String() != "@examplechan/7" {
		t.Fatalf("unexpected string: %s", public.String())
	}
}

func TestSplitLinkLines(t *testing.T) {
	content := "https://t.me/a/1\r\n\n   \n  https://t.me/b/2  \nhttps://t.me/c/3/4\n"
	got := SplitLinkLines(content)
	want := []string{"https://t.me/a/1", "https://t.me/b/2", "https://t.me/c/3/4"}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
