package report

import "strings"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// tokensPerChar is the character-count proxy for token estimation. Budget
// thresholds elsewhere were tuned against this ratio; do not swap in a real
// tokenizer without retuning them.
const estimateCharsPerToken = 3

// preservedPrefix is the number of leading messages that trimming never
// touches: base instructions, the subject-data priming message, and the
// generator's acknowledgement of it.
const preservedPrefix = 3

// Conversation is an append-only log of role-tagged messages. Messages are
// never reordered; trimming drops whole (user, assistant) pairs from the
// interior while keeping the preserved prefix and chronological order.
type Conversation struct {
	msgs []Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message. Empty content is dropped; no other validation.
func (c *Conversation) Append(role Role, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	c.msgs = append(c.msgs, Message{Role: role, Content: content})
}

func (c *Conversation) Len() int { return len(c.msgs) }

// Messages returns the current logical window as a copy, so callers can
// build request payloads without aliasing the log.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func EstimateTokens(text string) int {
	return len(text) / estimateCharsPerToken
}

func (c *Conversation) EstimatedTokens() int {
	total := 0
	for _, m := range c.msgs {
		total += len(m.Content)
	}
	return total / estimateCharsPerToken
}

// TrimToBudget drops interior (user, assistant) pairs until the estimated
// size fits maxTokens. The first three messages are always kept verbatim.
// Retention is recency-biased: pairs are considered newest first, and the
// first pair that does not fit stops the scan, so everything older than it
// is dropped too. Kept pairs stay in their original chronological order.
func (c *Conversation) TrimToBudget(maxTokens int) {
	if c.EstimatedTokens() <= maxTokens || len(c.msgs) <= preservedPrefix {
		return
	}

	preserved := c.msgs[:preservedPrefix]
	remaining := c.msgs[preservedPrefix:]

	type pair struct {
		first, second Message
		tokens        int
	}
	pairs := make([]pair, 0, len(remaining)/2)
	for i := 0; i+1 < len(remaining); i += 2 {
		p := pair{first: remaining[i], second: remaining[i+1]}
		p.tokens = EstimateTokens(remaining[i].Content + remaining[i+1].Content)
		pairs = append(pairs, p)
	}

	size := 0
	for _, m := range preserved {
		size += len(m.Content)
	}
	size /= estimateCharsPerToken

	kept := make([]pair, 0, len(pairs))
	for i := len(pairs) - 1; i >= 0; i-- {
		if size+pairs[i].tokens > maxTokens {
			break
		}
		kept = append(kept, pairs[i])
		size += pairs[i].tokens
	}

	trimmed := make([]Message, 0, preservedPrefix+2*len(kept))
	trimmed = append(trimmed, preserved...)
	for i := len(kept) - 1; i >= 0; i-- {
		trimmed = append(trimmed, kept[i].first, kept[i].second)
	}
	c.msgs = trimmed
}
