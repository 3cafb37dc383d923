package llm

import (
	"context"
	"testing"
	"time"

	"zlagoda_console/internal/config"

	openrouter "github.com/revrost/go-openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDisabledWithoutKey(t *testing.T) {
	c, err := NewClient(config.Config{LLMModel: "openai/gpt-4o-mini"}, nil)
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	_, err = c.ChatWithMessages(context.Background(), []openrouter.ChatCompletionMessage{openrouter.UserMessage("hi")}, ToolSchemas())
	assert.ErrorIs(t, err, ErrNotConfigured)

	var missing *Client
	assert.False(t, missing.Enabled())
	_, err = missing.ChatWithMessages(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClientEnabled(t *testing.T) {
	c, err := NewClient(config.Config{LLMModel: "m", LLMAPIKey: "k", Timeout: time.Second}, nil)
	require.NoError(t, err)
	assert.True(t, c.Enabled())
	assert.Equal(t, "m", c.Model())
}

func TestToolSchemasAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, tool := range ToolSchemas() {
		require.NotNil(t, tool.Function)
		assert.False(t, seen[tool.Function.Name], tool.Function.Name)
		seen[tool.Function.Name] = true
	}
	assert.True(t, seen[ToolCategorySales])
	assert.True(t, seen[ToolListReceipts])
}

func TestSystemPrompt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, SystemPrompt(now, false), "Today is 2024-05-01")
	assert.Contains(t, SystemPrompt(now, true), "clarifying question")
}
