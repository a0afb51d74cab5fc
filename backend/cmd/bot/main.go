package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memgraph/backend/internal/adapter"
	"memgraph/backend/internal/discord"
	"memgraph/backend/internal/graph"
	"memgraph/backend/internal/graphstore"
	"memgraph/backend/internal/memorize"
	"memgraph/backend/internal/store"
	"memgraph/backend/pkg/config"
	"memgraph/backend/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Required intents:
// - IntentsGuilds: Access to guild information
// - IntentsGuildMessages: Read messages in guild channels
// - IntentsDirectMessages: Read DM messages
// - IntentsMessageContent: Message bodies are needed for memorizing
const botIntents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

type bot struct {
	graph     *graph.Graph
	docs      store.DocumentStore
	snapshots *graphstore.Store
	handler   *discord.Handler
}

func newBot(ctx context.Context, cfg *config.Config, log *zap.Logger) (*bot, error) {
	docs, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	snapshots := graphstore.New(docs, graphstore.WithLogger(log))
	if err := snapshots.Load(ctx, g); err != nil {
		log.Warn("Failed to load graph snapshot, starting empty", zap.Error(err))
	}

	client := adapter.NewTextClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel,
		adapter.WithTemperature(float32(cfg.LLMTemperature)),
		adapter.WithMaxAttempts(cfg.LLMMaxAttempts),
		adapter.WithBaseWait(cfg.LLMBaseWait),
		adapter.WithLogger(log),
	)
	memorizer := memorize.New(client, g,
		memorize.WithTopics(cfg.MemorizeTopics),
		memorize.WithLogger(log),
	)

	handler := discord.NewHandler(g, memorizer, snapshots, cfg.DiscordMemorizeEvery, cfg.RecallDepth, log)
	return &bot{graph: g, docs: docs, snapshots: snapshots, handler: handler}, nil
}

// close waits for in-flight memorize runs, saves the graph and closes the store
func (b *bot) close(ctx context.Context, log *zap.Logger) {
	b.handler.Wait()
	if err := b.snapshots.Save(ctx, b.graph); err != nil {
		log.Error("Failed to save graph on shutdown", zap.Error(err))
	}
	if err := b.docs.Close(ctx); err != nil {
		log.Error("Failed to close store", zap.Error(err))
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting Discord bot...")

	if cfg.DiscordBotToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN is required")
	}

	ctx := context.Background()
	b, err := newBot(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize bot", zap.Error(err))
	}

	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}

	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.handler.HandleMessage(s, m)
	})
	dg.Identify.Intents = botIntents

	log.Info("Discord bot intents configured",
		zap.Bool("guilds", (dg.Identify.Intents&discordgo.IntentsGuilds) != 0),
		zap.Bool("guild_messages", (dg.Identify.Intents&discordgo.IntentsGuildMessages) != 0),
		zap.Bool("direct_messages", (dg.Identify.Intents&discordgo.IntentsDirectMessages) != 0),
		zap.Bool("message_content", (dg.Identify.Intents&discordgo.IntentsMessageContent) != 0),
	)

	// Open connection
	if err := dg.Open(); err != nil {
		log.Fatal("Failed to open Discord connection", zap.Error(err))
	}

	log.Info("Discord bot is running. Press CTRL-C to exit.",
		zap.Int("nodes", b.graph.Len()),
		zap.Int("memorize_every", cfg.DiscordMemorizeEvery),
	)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	log.Info("Shutting down Discord bot...")
	if err := dg.Close(); err != nil {
		log.Error("Failed to close Discord session", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	b.close(shutdownCtx, log)
}
