package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitGroupTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "single", input: "-1001", want: []string{"-1001"}},
		{name: "trim and drop empty", input: " -1001 , ,@chan,, -1002 ", want: []string{"-1001", "@chan", "-1002"}},
		{name: "empty", input: "  ", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitGroupTokens(tt.input))
		})
	}
}

func TestUnionGroups(t *testing.T) {
	tests := []struct {
		name      string
		current   []string
		tokens    []string
		want      []string
		wantAdded int
	}{
		{
			name:      "append new keeps order",
			current:   []string{"A", "B"},
			tokens:    []string{"C", "A", "D"},
			want:      []string{"A", "B", "C", "D"},
			wantAdded: 2,
		},
		{
			name:      "duplicates in input collapse",
			current:   nil,
			tokens:    []string{"A", "A", "B"},
			want:      []string{"A", "B"},
			wantAdded: 2,
		},
		{
			name:      "all members already",
			current:   []string{"A"},
			tokens:    []string{"A"},
			want:      []string{"A"},
			wantAdded: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, added := UnionGroups(tt.current, tt.tokens)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantAdded, added)
		})
	}
}

func TestSubtractGroups(t *testing.T) {
	got, removed := SubtractGroups([]string{"A", "B", "C"}, []string{"B", "Z"})
	assert.Equal(t, []string{"A", "C"}, got)
	assert.Equal(t, 1, removed)

	got, removed = SubtractGroups([]string{"A"}, []string{"Z"})
	assert.Equal(t, []string{"A"}, got)
	assert.Equal(t, 0, removed)
}

func TestGroupChatID(t *testing.T) {
	assert.Equal(t, int64(-1001234567890), GroupChatID("-1001234567890"))
	assert.Equal(t, int64(42), GroupChatID(" 42 "))
	assert.Equal(t, "@examplechan", GroupChatID("@examplechan"))
}
