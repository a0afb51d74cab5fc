package memorize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"memgraph/backend/internal/constants"
)

// TopicPrompt asks for at most n comma-separated topics found in text
func TopicPrompt(text string, n int) string {
	return fmt.Sprintf(`Read the following text and list the %d most important topics it talks about.

Text:
"""
%s
"""

Reply with ONLY the topics, separated by commas. Each topic should be a short noun or
noun phrase. No numbering, no explanation.`, n, clip(text))
}

// SummaryPrompt asks for one natural sentence about topic as described in text
func SummaryPrompt(text, topic string) string {
	return fmt.Sprintf(`Here is a piece of text:
"""
%s
"""

Summarize in one natural sentence what this text says about "%s". Reply with the
sentence only.`, clip(text), topic)
}

// ParseTopics splits a topic reply on commas (ASCII and full-width),
// enumeration commas and newlines. Topics are trimmed of whitespace, quotes
// and list bullets, deduplicated, and empty ones dropped.
func ParseTopics(reply string) []string {
	parts := strings.FieldsFunc(reply, func(r rune) bool {
		switch r {
		case ',', '，', '、', '\n', '\r', ';', '；':
			return true
		}
		return false
	})

	seen := make(map[string]struct{}, len(parts))
	topics := make([]string, 0, len(parts))
	for _, p := range parts {
		topic := cleanTopic(p)
		if topic == "" {
			continue
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	return topics
}

// Matches list markers such as "- ", "* ", "1. " or "2) "
var listMarker = regexp.MustCompile(`^(?:[-*•·]|\d+[.)])\s+`)

func cleanTopic(s string) string {
	s = strings.TrimSpace(s)
	s = listMarker.ReplaceAllString(s, "")
	s = strings.Trim(s, "\"'`“”‘’「」")
	return strings.TrimSpace(s)
}

func clip(text string) string {
	if utf8.RuneCountInString(text) <= constants.MaxSourceTextRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:constants.MaxSourceTextRunes])
}
