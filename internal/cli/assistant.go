package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"zlagoda_console/internal/llm"
	"zlagoda_console/internal/zlagoda"

	openrouter "github.com/revrost/go-openrouter"
	"go.uber.org/zap"
)

const (
	maxToolRounds       = 4
	defaultReceiptLimit = 50
	maxReceiptLimit     = 200
	defaultPeriodDays   = 7
)

type chatClient interface {
	Enabled() bool
	ChatWithMessages(ctx context.Context, messages []openrouter.ChatCompletionMessage, tools []openrouter.Tool) (openrouter.ChatCompletionResponse, error)
}

type assistantBackend interface {
	Reports
	Categories(ctx context.Context) ([]zlagoda.Category, error)
	Receipts(ctx context.Context) ([]zlagoda.Receipt, error)
}

// assistant answers manager questions by letting the model call the
// analytics endpoints.
type assistant struct {
	chat    chatClient
	backend assistantBackend
	logger  *zap.Logger
	history *SessionHistory
	now     func() time.Time
}

func newAssistant(chat chatClient, backend assistantBackend, logger *zap.Logger) *assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &assistant{
		chat:    chat,
		backend: backend,
		logger:  logger,
		history: NewSessionHistory(defaultHistoryMaxMessages, defaultHistoryMaxTokens, logger),
		now:     time.Now,
	}
}

type toolCallRecord struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
	MS   int64          `json:"ms"`
	OK   bool           `json:"ok"`
	Err  string         `json:"err,omitempty"`
}

type response struct {
	Query      string           `json:"query"`
	AnswerText string           `json:"answer_text"`
	ToolCalls  []toolCallRecord `json:"tool_calls,omitempty"`
	NextStep   string           `json:"next_step,omitempty"`
}

func (a *assistant) reset() {
	a.history.Clear()
}

// ask runs one question. Interactive questions share the conversation
// history; one-shot questions start fresh.
func (a *assistant) ask(ctx context.Context, query string, interactive bool) (response, error) {
	if a.chat == nil || !a.chat.Enabled() {
		return response{}, llm.ErrNotConfigured
	}

	var history *SessionHistory
	if interactive {
		history = a.history
	} else {
		history = NewSessionHistory(defaultHistoryMaxMessages, defaultHistoryMaxTokens, a.logger)
	}
	if len(history.Messages()) == 0 {
		history.Append(openrouter.SystemMessage(llm.SystemPrompt(a.now(), interactive)))
	}
	history.Append(openrouter.UserMessage(query))

	var toolCalls []toolCallRecord
	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.chat.ChatWithMessages(ctx, history.Messages(), llm.ToolSchemas())
		if err != nil {
			return response{}, err
		}
		logLLMUsage(a.logger, resp)
		if len(resp.Choices) == 0 {
			return response{}, errors.New("llm returned empty response")
		}

		msg := resp.Choices[0].Message
		a.logger.Debug("llm response",
			zap.Int("round", round),
			zap.Int("tool_calls", len(msg.ToolCalls)),
		)
		history.Append(msg)

		if len(msg.ToolCalls) == 0 {
			return response{
				Query:      query,
				AnswerText: strings.TrimSpace(msg.Content.Text),
				ToolCalls:  toolCalls,
			}, nil
		}

		toolMsgs, records := a.executeToolCalls(ctx, msg.ToolCalls)
		toolCalls = append(toolCalls, records...)
		for _, m := range toolMsgs {
			history.Append(m)
		}
	}

	return response{
		Query:      query,
		AnswerText: "Could not finish the request: too many steps.",
		ToolCalls:  toolCalls,
		NextStep:   "Ask a narrower question, for example with a specific period or category.",
	}, nil
}

// executeToolCalls answers every call. Failures are reported back to the
// model as tool errors so it can explain what was unavailable.
func (a *assistant) executeToolCalls(ctx context.Context, calls []llm.ToolCall) ([]openrouter.ChatCompletionMessage, []toolCallRecord) {
	messages := make([]openrouter.ChatCompletionMessage, 0, len(calls))
	records := make([]toolCallRecord, 0, len(calls))

	for _, call := range calls {
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				record := toolCallRecord{Name: call.Function.Name, OK: false, Err: fmt.Sprintf("invalid tool args: %v", err)}
				records = append(records, record)
				messages = append(messages, openrouter.ToolMessage(call.ID, toolErrorPayload(record.Err)))
				continue
			}
		}

		result, record, err := a.dispatchToolCall(ctx, call.Function.Name, args)
		records = append(records, record)
		if err != nil {
			messages = append(messages, openrouter.ToolMessage(call.ID, toolErrorPayload(zlagoda.UserMessage(err, err.Error()))))
			continue
		}
		payload, err := json.Marshal(result)
		if err != nil {
			messages = append(messages, openrouter.ToolMessage(call.ID, toolErrorPayload(err.Error())))
			continue
		}
		messages = append(messages, openrouter.ToolMessage(call.ID, string(payload)))
	}
	return messages, records
}

func (a *assistant) dispatchToolCall(ctx context.Context, name string, args map[string]any) (any, toolCallRecord, error) {
	b := a.backend
	switch name {
	case llm.ToolListCategories:
		return trackCall(a.logger, name, args, func() ([]zlagoda.Category, error) {
			return b.Categories(ctx)
		})
	case llm.ToolListReceipts:
		from, to, err := a.periodArgs(args, "from", "to")
		if err != nil {
			return nil, failedRecord(name, args, err), err
		}
		limit := getIntArg(args, "limit", defaultReceiptLimit)
		if limit <= 0 || limit > maxReceiptLimit {
			limit = maxReceiptLimit
		}
		return trackCall(a.logger, name, args, func() ([]zlagoda.Receipt, error) {
			receipts, err := b.Receipts(ctx)
			if err != nil {
				return nil, err
			}
			return receiptsBetween(receipts, from, to, limit), nil
		})
	case llm.ToolTopProductInCategory:
		categoryID := getIntArg(args, "category_id", 0)
		if categoryID <= 0 {
			err := errors.New("missing category_id")
			return nil, failedRecord(name, args, err), err
		}
		months := getIntArg(args, "months", 1)
		return trackCall(a.logger, name, args, func() (zlagoda.Report[zlagoda.TopCategoryProduct], error) {
			return b.TopProductInCategory(ctx, categoryID, months)
		})
	case llm.ToolEmployeesWithoutPromo:
		return trackCall(a.logger, name, args, func() (zlagoda.Report[zlagoda.EmployeeRef], error) {
			return b.EmployeesWithoutPromoSales(ctx)
		})
	case llm.ToolCategorySales:
		from, to, err := a.periodArgs(args, "start_date", "end_date")
		if err != nil {
			return nil, failedRecord(name, args, err), err
		}
		return trackCall(a.logger, name, args, func() (zlagoda.Report[zlagoda.CategorySales], error) {
			return b.CategorySales(ctx, from, to)
		})
	case llm.ToolUnsoldRegularProducts:
		return trackCall(a.logger, name, args, func() (zlagoda.Report[zlagoda.UnsoldProduct], error) {
			return b.UnsoldRegularProducts(ctx)
		})
	case llm.ToolHighDiscountCashiers:
		threshold := getIntArg(args, "discount_threshold", -1)
		if threshold < 0 || threshold > 100 {
			err := errors.New("discount_threshold must be between 0 and 100")
			return nil, failedRecord(name, args, err), err
		}
		return trackCall(a.logger, name, args, func() (zlagoda.Report[zlagoda.HighDiscountCashier], error) {
			return b.HighDiscountCashiers(ctx, threshold)
		})
	case llm.ToolCustomersOfAllCategories:
		return trackCall(a.logger, name, args, func() (zlagoda.Report[zlagoda.LoyalCustomer], error) {
			return b.CustomersOfAllCategories(ctx)
		})
	default:
		err := fmt.Errorf("unknown tool: %s", name)
		return nil, failedRecord(name, args, err), err
	}
}

// periodArgs reads a date range; a missing start defaults to a week before
// the end and a missing end to today.
func (a *assistant) periodArgs(args map[string]any, fromKey, toKey string) (time.Time, time.Time, error) {
	now := a.now()
	to, err := getDateArg(args, toKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.IsZero() {
		to = startOfDay(now)
	}
	from, err := getDateArg(args, fromKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultPeriodDays)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%s must not be after %s", fromKey, toKey)
	}
	return from, to, nil
}

// receiptsBetween keeps receipts printed on any day from from to to.
func receiptsBetween(receipts []zlagoda.Receipt, from, to time.Time, limit int) []zlagoda.Receipt {
	end := startOfDay(to).AddDate(0, 0, 1)
	start := startOfDay(from)
	out := make([]zlagoda.Receipt, 0, min(len(receipts), limit))
	for _, rc := range receipts {
		at := rc.PrintDate.Time
		if at.Before(start) || !at.Before(end) {
			continue
		}
		out = append(out, rc)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func trackCall[T any](logger *zap.Logger, name string, args map[string]any, fn func() (T, error)) (T, toolCallRecord, error) {
	start := time.Now()
	result, err := fn()
	record := toolCallRecord{
		Name: name,
		Args: args,
		MS:   time.Since(start).Milliseconds(),
		OK:   err == nil,
	}
	if err != nil {
		record.Err = err.Error()
	}
	logToolRecord(logger, record)
	return result, record, err
}

func failedRecord(name string, args map[string]any, err error) toolCallRecord {
	return toolCallRecord{Name: name, Args: args, OK: false, Err: err.Error()}
}

func getStringArg(args map[string]any, key string) (string, bool) {
	value, ok := args[key]
	if !ok || value == nil {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

func getIntArg(args map[string]any, key string, fallback int) int {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed)
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDateArg accepts YYYY-MM-DD or RFC 3339; a missing value is the zero time.
func getDateArg(args map[string]any, key string) (time.Time, error) {
	value, ok := getStringArg(args, key)
	if !ok || value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.ParseInLocation(time.DateOnly, value, time.Local); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %q", key, value)
	}
	return parsed, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func toolErrorPayload(message string) string {
	encoded, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, message)
	}
	return string(encoded)
}

func logToolRecord(logger *zap.Logger, record toolCallRecord) {
	if logger == nil {
		return
	}
	logger.Info("tool call",
		zap.String("name", record.Name),
		zap.Any("args", record.Args),
		zap.Int64("ms", record.MS),
		zap.Bool("ok", record.OK),
		zap.String("err", record.Err),
	)
}

func logLLMUsage(logger *zap.Logger, resp openrouter.ChatCompletionResponse) {
	if resp.Usage == nil {
		return
	}
	logger.Info("llm usage",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Float64("cost", resp.Usage.Cost),
	)
}

func (r *Runner) cmdAsk(ctx context.Context, args []string) error {
	cmd, _ := findCommand("ask")
	if len(args) == 1 && args[0] == "--reset" {
		r.assistant.reset()
		fmt.Fprintln(r.out, "Conversation cleared.")
		return nil
	}
	jsonOut := r.options.JSON
	if len(args) > 0 && args[0] == "--json" {
		jsonOut = true
		args = args[1:]
	}
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return usageError{cmd}
	}

	r.logger.Info("question", zap.String("query", query))
	resp, err := r.assistant.ask(ctx, query, r.options.Interactive())
	if errors.Is(err, llm.ErrNotConfigured) {
		return userError("The assistant is not configured: set LLM_API_KEY and LLM_MODEL")
	}
	if err != nil {
		return err
	}
	r.logger.Info("answer",
		zap.Int("tool_calls", len(resp.ToolCalls)),
		zap.Int("answer_len", len(resp.AnswerText)),
	)

	if jsonOut {
		return r.writeJSON(resp)
	}
	answer := resp.AnswerText
	if answer == "" {
		answer = "(empty response)"
	}
	fmt.Fprintln(r.out, answer)
	if resp.NextStep != "" {
		fmt.Fprintf(r.out, "\nNext: %s\n", resp.NextStep)
	}
	return nil
}
