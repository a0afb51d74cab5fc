package main

import (
	"context"
	"path/filepath"
	"testing"

	"memgraph/backend/pkg/config"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBotIntents(t *testing.T) {
	tests := []struct {
		name   string
		intent discordgo.Intent
	}{
		{"guilds", discordgo.IntentsGuilds},
		{"guild messages", discordgo.IntentsGuildMessages},
		{"direct messages", discordgo.IntentsDirectMessages},
		{"message content", discordgo.IntentsMessageContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotZero(t, botIntents&tt.intent)
		})
	}
	assert.Zero(t, botIntents&discordgo.IntentsGuildVoiceStates)
}

func TestNewBot_RestoresSavedGraph(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		StoreBackend:         config.BackendSQLite,
		SQLitePath:           filepath.Join(t.TempDir(), "bot.db"),
		LLMBaseURL:           "http://127.0.0.1:1/v1",
		LLMModel:             "test-model",
		LLMMaxAttempts:       1,
		MemorizeTopics:       3,
		RecallDepth:          2,
		DiscordMemorizeEvery: 5,
	}

	first, err := newBot(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	first.graph.AddFragment("pizza", "friday night")
	first.graph.Connect("pizza", "friday")
	first.close(ctx, zap.NewNop())

	second, err := newBot(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer second.close(ctx, zap.NewNop())

	assert.Equal(t, 2, second.graph.Len())
	assert.Equal(t, 1, second.graph.EdgeCount())
}
