package memorize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"memgraph/backend/internal/constants"
)

// Segmenter splits raw text into candidate topics
type Segmenter interface {
	Segment(text string) []string
}

// FieldsSegmenter splits on whitespace and punctuation and keeps tokens of
// at least two runes, first occurrence order, without duplicates
type FieldsSegmenter struct{}

// Segment implements Segmenter
func (FieldsSegmenter) Segment(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < constants.MinTopicRunes {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
