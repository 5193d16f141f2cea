package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// privateChannelPrefix 私有频道链接中的 ID 需要加上该前缀才是 Telegram ChatID
const privateChannelPrefix = "-100"

var (
	privateLinkPattern = regexp.MustCompile(`https://t\.me/c/(\d+)/(\d+)`)
	publicLinkPattern  = regexp.MustCompile(`https://t\.me/([^/]+)/(\d+)`)
)

// SourceLink 已解析的源消息引用
type SourceLink struct {
	Raw       string
	ChatID    int64  // 私有频道：-100 前缀后的数字 ID
	Username  string // 公开频道：@handle
	MessageID int
}

// IsPrivate 是否为私有频道链接
func (l SourceLink) IsPrivate() bool {
	return l.Username == ""
}

// Chat 返回用于 Telegram API 的源频道标识
func (l SourceLink) Chat() any {
	if l.IsPrivate() {
		return l.ChatID
	}
	return l.Username
}

// ChatLabel 用于日志输出的源频道标识
func (l SourceLink) ChatLabel() string {
	if l.IsPrivate() {
		return strconv.FormatInt(l.ChatID, 10)
	}
	return l.Username
}

func (l SourceLink) String() string {
	return fmt.Sprintf("%s/%d", l.ChatLabel(), l.MessageID)
}

// ParseSourceLink 解析消息链接
// 先匹配私有频道格式 https://t.me/c/<id>/<seq>，再匹配公开频道格式 https://t.me/<handle>/<seq>
// 两者都不匹配时返回 false
func ParseSourceLink(raw string) (SourceLink, bool) {
	if m := privateLinkPattern.FindStringSubmatch(raw); m != nil {
		chatID, err := strconv.ParseInt(privateChannelPrefix+m[1], 10, 64)
		if err != nil {
			return SourceLink{}, false
		}
		messageID, err := strconv.Atoi(m[2])
		if err != nil {
			return SourceLink{}, false
		}
		return SourceLink{Raw: raw, ChatID: chatID, MessageID: messageID}, true
	}

	if m := publicLinkPattern.FindStringSubmatch(raw); m != nil {
		messageID, err := strconv.Atoi(m[2])
		if err != nil {
			return SourceLink{}, false
		}
		return SourceLink{Raw: raw, Username: "@" + m[1], MessageID: messageID}, true
	}

	return SourceLink{}, false
}

// SplitLinkLines 将上传文件内容拆分为非空行
func SplitLinkLines(content string) []string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	links := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		links = append(links, line)
	}
	return links
}
