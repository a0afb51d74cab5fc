package discord

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"memgraph/backend/internal/constants"
	"memgraph/backend/internal/graph"
)

// parseRecall reads "<topic words...> [depth]". A trailing integer is the
// depth; everything before it is the topic.
func parseRecall(args []string, defaultDepth int) (topic string, depth int, ok bool) {
	depth = defaultDepth
	if len(args) > 1 {
		if d, err := strconv.Atoi(args[len(args)-1]); err == nil {
			depth = d
			args = args[:len(args)-1]
		}
	}
	topic = strings.TrimSpace(strings.Join(args, " "))
	return topic, depth, topic != ""
}

func formatRecall(r graph.Related) string {
	if len(r.FirstLayer) == 0 && len(r.SecondLayer) == 0 {
		return fmt.Sprintf("No memories about **%s** yet.", r.Topic)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", r.Topic)
	if len(r.FirstLayer) > 0 {
		b.WriteString("__Direct memories__\n")
		for _, f := range r.FirstLayer {
			fmt.Fprintf(&b, "• %s\n", f)
		}
	}
	if len(r.SecondLayer) > 0 {
		b.WriteString("__Related memories__\n")
		for _, f := range r.SecondLayer {
			fmt.Fprintf(&b, "• %s\n", f)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// truncateMessage keeps content within Discord's message limit
func truncateMessage(content string) string {
	max := constants.DiscordMaxMessageLength
	if utf8.RuneCountInString(content) <= max {
		return content
	}
	runes := []rune(content)
	return string(runes[:max-1]) + "…"
}
