package cli

import (
	"strings"
	"sync"

	openrouter "github.com/revrost/go-openrouter"
	"go.uber.org/zap"
)

const (
	defaultHistoryMaxMessages = 24
	defaultHistoryMaxTokens   = 4000
)

// SessionHistory keeps the assistant conversation for one console session.
// The system prompt, when first, survives trimming.
type SessionHistory struct {
	mu          sync.Mutex
	messages    []openrouter.ChatCompletionMessage
	maxMessages int
	maxTokens   int
	logger      *zap.Logger
}

func NewSessionHistory(maxMessages, maxTokens int, logger *zap.Logger) *SessionHistory {
	if maxMessages <= 0 {
		maxMessages = defaultHistoryMaxMessages
	}
	if maxTokens <= 0 {
		maxTokens = defaultHistoryMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHistory{
		maxMessages: maxMessages,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

func (h *SessionHistory) Append(message openrouter.ChatCompletionMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message)
	h.trim()
}

func (h *SessionHistory) Messages() []openrouter.ChatCompletionMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) == 0 {
		return nil
	}
	out := make([]openrouter.ChatCompletionMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *SessionHistory) Clear() {
	h.mu.Lock()
	h.messages = nil
	h.mu.Unlock()
}

func (h *SessionHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func (h *SessionHistory) trim() {
	before := len(h.messages)
	for len(h.messages) > h.maxMessages || (len(h.messages) > 1 && estimateTokens(h.messages) > h.maxTokens) {
		next := dropOldest(h.messages)
		if len(next) == len(h.messages) {
			break
		}
		h.messages = next
	}
	if len(h.messages) != before {
		h.logger.Info("assistant history trimmed",
			zap.Int("messages", len(h.messages)),
			zap.Int("tokens", estimateTokens(h.messages)),
		)
	}
}

// dropOldest removes the oldest exchange message. Tool results left without
// the assistant message that requested them are dropped with it.
func dropOldest(messages []openrouter.ChatCompletionMessage) []openrouter.ChatCompletionMessage {
	start := 0
	if len(messages) > 0 && messages[0].Role == openrouter.ChatMessageRoleSystem {
		start = 1
	}
	if len(messages) <= start {
		return messages
	}
	end := start + 1
	for end < len(messages) && messages[end].Role == openrouter.ChatMessageRoleTool {
		end++
	}
	out := make([]openrouter.ChatCompletionMessage, 0, len(messages)-(end-start))
	out = append(out, messages[:start]...)
	return append(out, messages[end:]...)
}

// estimateTokens approximates by counting words.
func estimateTokens(messages []openrouter.ChatCompletionMessage) int {
	total := 0
	for _, msg := range messages {
		if msg.Content.Text != "" {
			total += len(strings.Fields(msg.Content.Text))
			continue
		}
		for _, part := range msg.Content.Multi {
			total += len(strings.Fields(part.Text))
		}
	}
	return total
}
