package models

import (
	"strconv"
	"strings"
)

// SplitGroupTokens 解析逗号分隔的群组标识，去除空白和空项
func SplitGroupTokens(input string) []string {
	parts := strings.Split(input, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tokens = append(tokens, part)
	}
	return tokens
}

// GroupChatID 将群组标识转换为 Telegram ChatID
// 数字标识返回 int64，其余（如 @channel）原样返回
func GroupChatID(group string) any {
	group = strings.TrimSpace(group)
	if id, err := strconv.ParseInt(group, 10, 64); err == nil {
		return id
	}
	return group
}

// UnionGroups 返回 current ∪ tokens，保持首次插入顺序
func UnionGroups(current, tokens []string) ([]string, int) {
	seen := make(map[string]struct{}, len(current)+len(tokens))
	result := make([]string, 0, len(current)+len(tokens))
	for _, g := range current {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		result = append(result, g)
	}

	added := 0
	for _, g := range tokens {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		result = append(result, g)
		added++
	}
	return result, added
}

// SubtractGroups 返回 current - tokens
func SubtractGroups(current, tokens []string) ([]string, int) {
	drop := make(map[string]struct{}, len(tokens))
	for _, g := range tokens {
		drop[g] = struct{}{}
	}

	result := make([]string, 0, len(current))
	for _, g := range current {
		if _, ok := drop[g]; ok {
			continue
		}
		result = append(result, g)
	}
	return result, len(current) - len(result)
}
