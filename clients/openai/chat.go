package openai

import "time"

// Chat is a combination of question and its answer, as archived once a turn ends.
type Chat struct {
	Input        string       `json:"input"`
	Created      time.Time    `json:"created"`
	Reply        string       `json:"reply"`
	FinishReason FinishReason `json:"finishReason"`
}

// Valid reports whether the answer was finished by the model rather than cut.
func (c Chat) Valid() bool {
	return c.FinishReason == FinishReasonStop
}

func (c Chat) HistoryRecords() []Message {
	return []Message{NewUserMessage(c.Input), NewAssistantMessage(c.Reply)}
}
