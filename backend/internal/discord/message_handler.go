package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"memgraph/backend/internal/constants"
	"memgraph/backend/internal/graph"
	"memgraph/backend/internal/memorize"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Sender posts messages to a channel. *discordgo.Session satisfies it.
type Sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Memorizer stores a chat transcript. *memorize.Memorizer satisfies it.
type Memorizer interface {
	Memorize(ctx context.Context, text string) (*memorize.Result, error)
}

// Persister saves the graph. *graphstore.Store satisfies it.
type Persister interface {
	Save(ctx context.Context, g *graph.Graph) error
}

// Handler buffers channel messages, memorizes them in batches and answers
// recall commands
type Handler struct {
	graph     *graph.Graph
	memorizer Memorizer
	persister Persister
	every     int
	depth     int
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	buffers map[string]*transcript

	wg sync.WaitGroup
}

// NewHandler creates a handler that memorizes every `every` messages per
// channel and recalls with the given default depth
func NewHandler(g *graph.Graph, m Memorizer, p Persister, every, depth int, logger *zap.Logger) *Handler {
	if every < 1 {
		every = 1
	}
	return &Handler{
		graph:     g,
		memorizer: m,
		persister: p,
		every:     every,
		depth:     depth,
		logger:    logger,
		now:       time.Now,
		buffers:   make(map[string]*transcript),
	}
}

// HandleMessage processes a Discord message
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}
	h.handle(context.Background(), s, botID, m.Message)
}

func (h *Handler) handle(ctx context.Context, s Sender, botID string, m *discordgo.Message) {
	if m == nil || m.Author == nil {
		return
	}
	// Ignore messages from the bot itself and from other bots
	if m.Author.ID == botID || m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return
	}

	if strings.HasPrefix(content, constants.DiscordCommandPrefix) {
		if h.handleCommand(ctx, s, m.ChannelID, content) {
			return
		}
	}

	line := fmt.Sprintf("[%s] %s: %s", h.now().Format("2006-01-02 15:04"), displayName(m), content)
	if batch := h.append(m.ChannelID, line); batch != nil {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.memorizeBatch(context.Background(), m.ChannelID, batch)
		}()
	}
}

// handleCommand runs a bot command. It returns false when content is not
// a known command, so the message is buffered like any other.
func (h *Handler) handleCommand(ctx context.Context, s Sender, channelID, content string) bool {
	fields := strings.Fields(content)
	switch strings.ToLower(strings.TrimPrefix(fields[0], constants.DiscordCommandPrefix)) {
	case "recall":
		topic, depth, ok := parseRecall(fields[1:], h.depth)
		if !ok {
			h.send(s, channelID, "Usage: `!recall <topic> [depth]`")
			return true
		}
		h.send(s, channelID, formatRecall(h.graph.Recall(topic, depth)))
		return true

	case "save":
		if h.persister == nil {
			h.send(s, channelID, "Saving is not configured.")
			return true
		}
		if err := h.persister.Save(ctx, h.graph); err != nil {
			h.logger.Error("Failed to save graph from chat command", zap.Error(err))
			h.send(s, channelID, "❌ Failed to save memories.")
			return true
		}
		h.send(s, channelID, fmt.Sprintf("✅ Saved %d concepts and %d associations.", h.graph.Len(), h.graph.EdgeCount()))
		return true
	}
	return false
}

func (h *Handler) memorizeBatch(ctx context.Context, channelID string, lines []string) {
	res, err := h.memorizer.Memorize(ctx, strings.Join(lines, "\n"))
	if err != nil {
		h.logger.Warn("Failed to memorize channel transcript",
			zap.String("channel_id", channelID),
			zap.Int("lines", len(lines)),
			zap.Error(err),
		)
		return
	}
	h.logger.Info("Memorized channel transcript",
		zap.String("channel_id", channelID),
		zap.String("run_id", res.RunID.String()),
		zap.Strings("stored", res.Stored),
	)
}

// Wait blocks until every in-flight memorize run has finished
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) send(s Sender, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, truncateMessage(content)); err != nil {
		h.logger.Error("Failed to send message",
			zap.Error(err),
			zap.String("channel_id", channelID),
		)
	}
}

func displayName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
