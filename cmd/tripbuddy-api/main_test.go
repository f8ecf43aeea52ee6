package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripbuddy/internal/ai"
	"tripbuddy/internal/config"
)

func TestNewProvidersReleasesGeminiClient(t *testing.T) {
	var cfg config.Config
	cfg.AI.GeminiKey = "test-key"

	providers, closeProviders := newProviders(context.Background(), cfg, zerolog.Nop())
	require.Len(t, providers, 1)
	assert.Equal(t, ai.ProviderGemini, providers[0].Name())
	assert.NotPanics(t, closeProviders)
}

func TestNewProvidersWithoutCredentials(t *testing.T) {
	providers, closeProviders := newProviders(context.Background(), config.Config{}, zerolog.Nop())
	assert.Empty(t, providers)
	assert.NotPanics(t, closeProviders)
}

func TestNewProvidersOpenRouterFirst(t *testing.T) {
	var cfg config.Config
	cfg.AI.OpenRouterKey = "or-key"
	cfg.AI.GeminiKey = "gm-key"

	providers, closeProviders := newProviders(context.Background(), cfg, zerolog.Nop())
	defer closeProviders()
	require.Len(t, providers, 2)
	assert.Equal(t, ai.ProviderOpenRouter, providers[0].Name())
	assert.Equal(t, ai.ProviderGemini, providers[1].Name())
}
