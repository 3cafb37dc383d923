package llm

import (
	"strings"
	"time"

	openrouter "github.com/revrost/go-openrouter"
)

type ToolCall = openrouter.ToolCall

const basePrompt = `You are the analytics assistant of the Zlagoda grocery store console.
You answer questions from a store manager about sales, receipts, products,
cashiers and loyalty customers.

Rules:
- Use the tools to get data. Never invent numbers, names or receipt numbers.
- Dates are passed as YYYY-MM-DD. Today is %TODAY%.
- Money is in UAH with two decimals. Receipt totals already include VAT.
- If a tool fails, say what could not be fetched instead of guessing.
- Keep the answer short: a sentence or two, then a compact list if needed.
- Answer in the language of the question.`

// SystemPrompt is the assistant instruction with today's date filled in.
// Interactive sessions may ask a follow-up question; one-shot runs must
// answer with what they have.
func SystemPrompt(now time.Time, interactive bool) string {
	prompt := strings.ReplaceAll(basePrompt, "%TODAY%", now.Format("2006-01-02"))
	if interactive {
		return prompt + "\n- If the question is ambiguous, ask one short clarifying question."
	}
	return prompt + "\n- Do not ask questions back; state the assumption you made."
}
