package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"zlagoda_console/internal/config"

	openrouter "github.com/revrost/go-openrouter"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("llm is not configured")

// Client talks to the OpenRouter-compatible endpoint behind the analytics
// assistant. A client without a model or key stays usable and reports
// ErrNotConfigured on every call.
type Client struct {
	api    *openrouter.Client
	model  string
	logger *zap.Logger
}

func NewClient(cfg config.Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		model:  strings.TrimSpace(cfg.LLMModel),
		logger: logger.Named("llm"),
	}

	key := strings.TrimSpace(cfg.LLMAPIKey)
	if c.model == "" || key == "" {
		c.logger.Debug("assistant disabled: llm settings incomplete",
			zap.Bool("has_model", c.model != ""),
			zap.Bool("has_api_key", key != ""),
		)
		return c, nil
	}

	apiCfg := openrouter.DefaultConfig(key)
	if base := strings.TrimSpace(cfg.LLMBaseURL); base != "" {
		apiCfg.BaseURL = base
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	c.api = openrouter.NewClientWithConfig(*apiCfg)
	return c, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

// ChatWithMessages sends one completion round with the conversation so far
// and the tools the model may call.
func (c *Client) ChatWithMessages(ctx context.Context, messages []openrouter.ChatCompletionMessage, tools []openrouter.Tool) (openrouter.ChatCompletionResponse, error) {
	if !c.Enabled() {
		return openrouter.ChatCompletionResponse{}, ErrNotConfigured
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
	})
	c.logger.Debug("completion",
		zap.String("model", c.model),
		zap.Int("messages", len(messages)),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		return openrouter.ChatCompletionResponse{}, fmt.Errorf("llm completion: %w", err)
	}
	return resp, nil
}
