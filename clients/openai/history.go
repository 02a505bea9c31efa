package openai

import "sync"

// DefaultSystemPrompt is the persona sent ahead of every conversation unless configured otherwise.
const DefaultSystemPrompt = "You are a helpful assistant."

// History is the conversation of one Client, kept for the lifetime of the process.
// It only ever holds complete turns, a user message followed by its assistant reply.
type History struct {
	mu    sync.Mutex
	turns []Message
}

// Snapshot returns a copy, safe to keep while the history moves on.
func (h *History) Snapshot() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.turns...)
}

// Record appends one completed turn.
func (h *History) Record(prompt, reply string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Chat{Input: prompt, Reply: reply}.HistoryRecords()...)
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// BuildMessages returns preamble, then history, then prompt as a user message.
// The history slice is neither modified nor aliased by the result.
func BuildMessages(preamble Message, history []Message, prompt string) []Message {
	ret := make([]Message, 0, len(history)+2)
	ret = append(ret, preamble)
	ret = append(ret, history...)
	ret = append(ret, NewUserMessage(prompt))
	return ret
}
