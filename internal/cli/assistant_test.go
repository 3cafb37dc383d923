package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"zlagoda_console/internal/llm"
	"zlagoda_console/internal/zlagoda"

	openrouter "github.com/revrost/go-openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedChat struct {
	replies []openrouter.ChatCompletionMessage
	seen    [][]openrouter.ChatCompletionMessage
}

func (c *scriptedChat) Enabled() bool { return true }

func (c *scriptedChat) ChatWithMessages(_ context.Context, messages []openrouter.ChatCompletionMessage, _ []openrouter.Tool) (openrouter.ChatCompletionResponse, error) {
	c.seen = append(c.seen, messages)
	if len(c.replies) == 0 {
		return openrouter.ChatCompletionResponse{}, errors.New("no more replies")
	}
	msg := c.replies[0]
	c.replies = c.replies[1:]
	return openrouter.ChatCompletionResponse{
		Choices: []openrouter.ChatCompletionChoice{{Message: msg}},
	}, nil
}

func reply(text string) openrouter.ChatCompletionMessage {
	return openrouter.ChatCompletionMessage{
		Role:    openrouter.ChatMessageRoleAssistant,
		Content: openrouter.Content{Text: text},
	}
}

func callTool(id, name, args string) openrouter.ChatCompletionMessage {
	return openrouter.ChatCompletionMessage{
		Role: openrouter.ChatMessageRoleAssistant,
		ToolCalls: []openrouter.ToolCall{{
			ID:   id,
			Type: openrouter.ToolTypeFunction,
			Function: openrouter.FunctionCall{
				Name:      name,
				Arguments: args,
			},
		}},
	}
}

type fakeAnalytics struct {
	Reports
	receipts   []zlagoda.Receipt
	categories []zlagoda.Category
	threshold  int
}

func (f *fakeAnalytics) Categories(context.Context) ([]zlagoda.Category, error) {
	return f.categories, nil
}

func (f *fakeAnalytics) Receipts(context.Context) ([]zlagoda.Receipt, error) {
	return f.receipts, nil
}

func (f *fakeAnalytics) HighDiscountCashiers(_ context.Context, threshold int) (zlagoda.Report[zlagoda.HighDiscountCashier], error) {
	f.threshold = threshold
	return zlagoda.Report[zlagoda.HighDiscountCashier]{
		Description: "Cashiers serving high-discount customers",
		Results:     []zlagoda.HighDiscountCashier{{EmployeeID: "C1", EmployeeSurname: "Koval"}},
	}, nil
}

func receiptAt(number string, at time.Time) zlagoda.Receipt {
	return zlagoda.Receipt{Number: number, EmployeeID: "C1", PrintDate: zlagoda.Timestamp{Time: at}}
}

func newTestAssistant(chat chatClient, backend assistantBackend) *assistant {
	a := newAssistant(chat, backend, nil)
	a.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local) }
	return a
}

func TestAskAnswersAfterToolCall(t *testing.T) {
	chat := &scriptedChat{replies: []openrouter.ChatCompletionMessage{
		callTool("call-1", llm.ToolHighDiscountCashiers, `{"discount_threshold":15}`),
		reply("  Koval served the most high-discount customers. "),
	}}
	backend := &fakeAnalytics{}
	a := newTestAssistant(chat, backend)

	resp, err := a.ask(context.Background(), "who gives the biggest discounts?", false)
	require.NoError(t, err)

	assert.Equal(t, "Koval served the most high-discount customers.", resp.AnswerText)
	assert.Equal(t, 15, backend.threshold)
	require.Len(t, resp.ToolCalls, 1)
	assert.True(t, resp.ToolCalls[0].OK)
	assert.Equal(t, llm.ToolHighDiscountCashiers, resp.ToolCalls[0].Name)

	// The second request carries the tool result back to the model.
	require.Len(t, chat.seen, 2)
	last := chat.seen[1][len(chat.seen[1])-1]
	assert.Equal(t, openrouter.ChatMessageRoleTool, last.Role)
	assert.Contains(t, last.Content.Text, "Koval")
}

func TestAskReportsBadToolArgumentsToModel(t *testing.T) {
	chat := &scriptedChat{replies: []openrouter.ChatCompletionMessage{
		callTool("call-1", llm.ToolHighDiscountCashiers, `{"discount_threshold":250}`),
		reply("The threshold must be a percentage."),
	}}
	a := newTestAssistant(chat, &fakeAnalytics{})

	resp, err := a.ask(context.Background(), "discounts over 250%", false)
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.False(t, resp.ToolCalls[0].OK)
	last := chat.seen[1][len(chat.seen[1])-1]
	assert.JSONEq(t, `{"error":"discount_threshold must be between 0 and 100"}`, last.Content.Text)
}

func TestAskStopsAfterMaxRounds(t *testing.T) {
	var replies []openrouter.ChatCompletionMessage
	for i := 0; i < maxToolRounds; i++ {
		replies = append(replies, callTool("call", llm.ToolListCategories, ""))
	}
	a := newTestAssistant(&scriptedChat{replies: replies}, &fakeAnalytics{})

	resp, err := a.ask(context.Background(), "loop", false)
	require.NoError(t, err)
	assert.Len(t, resp.ToolCalls, maxToolRounds)
	assert.NotEmpty(t, resp.NextStep)
}

func TestAskWithoutModelIsNotConfigured(t *testing.T) {
	var disabled *llm.Client
	a := newTestAssistant(disabled, &fakeAnalytics{})

	_, err := a.ask(context.Background(), "anything", true)
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestInteractiveAskKeepsHistory(t *testing.T) {
	chat := &scriptedChat{replies: []openrouter.ChatCompletionMessage{reply("one"), reply("two")}}
	a := newTestAssistant(chat, &fakeAnalytics{})

	_, err := a.ask(context.Background(), "first", true)
	require.NoError(t, err)
	_, err = a.ask(context.Background(), "second", true)
	require.NoError(t, err)

	// system, first, one, second
	require.Len(t, chat.seen[1], 4)
	assert.Equal(t, openrouter.ChatMessageRoleSystem, chat.seen[1][0].Role)
	assert.Equal(t, "first", chat.seen[1][1].Content.Text)

	a.reset()
	assert.Zero(t, a.history.Len())
}

func TestListReceiptsToolFiltersByPeriod(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2024, 5, d, h, 0, 0, 0, time.Local) }
	backend := &fakeAnalytics{receipts: []zlagoda.Receipt{
		receiptAt("R1", day(1, 9)),
		receiptAt("R2", day(3, 23)),
		receiptAt("R3", day(4, 8)),
		receiptAt("R4", day(5, 0)),
	}}
	a := newTestAssistant(nil, backend)

	result, record, err := a.dispatchToolCall(context.Background(), llm.ToolListReceipts,
		map[string]any{"from": "2024-05-02", "to": "2024-05-04"})
	require.NoError(t, err)
	assert.True(t, record.OK)

	receipts := result.([]zlagoda.Receipt)
	var numbers []string
	for _, rc := range receipts {
		numbers = append(numbers, rc.Number)
	}
	assert.Equal(t, []string{"R2", "R3"}, numbers)

	result, _, err = a.dispatchToolCall(context.Background(), llm.ToolListReceipts,
		map[string]any{"from": "2024-05-01", "to": "2024-05-05", "limit": float64(2)})
	require.NoError(t, err)
	assert.Len(t, result.([]zlagoda.Receipt), 2)

	_, _, err = a.dispatchToolCall(context.Background(), llm.ToolListReceipts,
		map[string]any{"from": "2024-05-05", "to": "2024-05-01"})
	assert.Error(t, err)

	_, _, err = a.dispatchToolCall(context.Background(), "DropTables", nil)
	assert.ErrorContains(t, err, "unknown tool")
}

func TestGetDateArg(t *testing.T) {
	got, err := getDateArg(map[string]any{"d": "2024-05-01"}, "d")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Day())

	got, err = getDateArg(map[string]any{}, "d")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = getDateArg(map[string]any{"d": "May first"}, "d")
	assert.Error(t, err)
}

func TestToolErrorPayload(t *testing.T) {
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(toolErrorPayload(`bad "quote"`)), &decoded))
	assert.Equal(t, `bad "quote"`, decoded["error"])
}

func TestHistoryKeepsSystemPromptWhenTrimming(t *testing.T) {
	h := NewSessionHistory(3, 1000, nil)
	h.Append(openrouter.SystemMessage("system"))
	h.Append(openrouter.UserMessage("q1"))
	h.Append(reply("a1"))
	h.Append(openrouter.UserMessage("q2"))

	msgs := h.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Content.Text)
	assert.Equal(t, "a1", msgs[1].Content.Text)
	assert.Equal(t, "q2", msgs[2].Content.Text)
}

func TestHistoryDropsOrphanedToolResults(t *testing.T) {
	h := NewSessionHistory(10, 1000, nil)
	h.Append(openrouter.SystemMessage("system"))
	h.Append(callTool("c1", llm.ToolListCategories, ""))
	h.Append(openrouter.ToolMessage("c1", `[]`))
	h.Append(reply("done"))

	got := dropOldest(h.Messages())
	require.Len(t, got, 2)
	assert.Equal(t, openrouter.ChatMessageRoleSystem, got[0].Role)
	assert.Equal(t, "done", got[1].Content.Text)
}
