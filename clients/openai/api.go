package openai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type ChatModel = string

// Define enums for better understanding over name, not supposed to be all used
// ref https://platform.openai.com/docs/models
//
//goland:noinspection GoUnusedConst
const (
	ChatModelGPT35Turbo ChatModel = "gpt-3.5-turbo"
	ChatModelGPT4oMini  ChatModel = "gpt-4o-mini"
	ChatModelGPT4o      ChatModel = "gpt-4o"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a conversation.
// Role is optional on the wire; a null role is decoded to "".
type Message struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Request is the payload of POST /chat/completions.
// Optional numeric fields are pointers so that an explicit zero is still sent.
type Request struct {
	Model            ChatModel `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      *float64  `json:"temperature,omitempty"`
	TopP             *float64  `json:"top_p,omitempty"`
	N                *int      `json:"n,omitempty"`
	Stream           bool      `json:"stream,omitempty"`
	Stop             *Stop     `json:"stop,omitempty"`
	MaxTokens        *int      `json:"max_tokens,omitempty"`
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"`
	User             string    `json:"user,omitempty"`
}

// Stop is the stop field of Request, which the API accepts either as a bare string or as a list.
// Build it with StopString or StopList; the zero value is an empty scalar.
type Stop struct {
	scalar string
	list   []string
	isList bool
}

func StopString(s string) Stop {
	return Stop{scalar: s}
}

func StopList(ss ...string) Stop {
	return Stop{list: append([]string{}, ss...), isList: true}
}

func (s Stop) IsList() bool {
	return s.isList
}

// String returns the scalar form, or "" for a list.
func (s Stop) String() string {
	return s.scalar
}

// List returns a copy of the list form, or nil for a scalar.
func (s Stop) List() []string {
	if !s.isList {
		return nil
	}
	return append([]string{}, s.list...)
}

func (s Stop) MarshalJSON() ([]byte, error) {
	if s.isList {
		return json.Marshal(s.list)
	}
	return json.Marshal(s.scalar)
}

var errStopType = errors.New("stop is neither a string nor a list of strings")

// UnmarshalJSON tries the list form first, then the scalar form.
func (s *Stop) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Stop{list: list, isList: true}
		return nil
	}
	var scalar string
	if err := json.Unmarshal(data, &scalar); err == nil && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Stop{scalar: scalar}
		return nil
	}
	return fmt.Errorf("decode %s: %w", data, errStopType)
}

// Response is one decoded event in stream mode, or the whole result otherwise.
type Response struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"` // epoch second
	Model   string       `json:"model,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	Choices []Choice     `json:"choices"`
}

// DeltaContent returns the text fragment carried by the first choice, if any.
func (r Response) DeltaContent() (string, bool) {
	if len(r.Choices) == 0 || r.Choices[0].Delta == nil || r.Choices[0].Delta.Content == "" {
		return "", false
	}
	return r.Choices[0].Delta.Content, true
}

// FinishReason returns the finish reason of the first choice, or "" while unfinished.
func (r Response) FinishReason() FinishReason {
	if len(r.Choices) == 0 || r.Choices[0].FinishReason == nil {
		return ""
	}
	return *r.Choices[0].FinishReason
}

type FinishReason = string

// Define enums for better understanding over that defined in vendor documents, not supposed to be all used
//
//goland:noinspection GoUnusedConst
const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonToolCalls     FinishReason = "tool_calls"
)

// Choice carries Delta in stream mode and Message otherwise.
type Choice struct {
	Index        int           `json:"index"`
	Message      *Message      `json:"message,omitempty"`
	Delta        *Message      `json:"delta,omitempty"`
	FinishReason *FinishReason `json:"finish_reason,omitempty"`
}

type ErrorDetail struct {
	Message string  `json:"message"`
	Type    string  `json:"type"`
	Param   *string `json:"param,omitempty"`
	// Code is a string on OpenAI and a number on some compatible servers.
	Code any `json:"code,omitempty"`
}

// ErrorEnvelope is the body of a non-200 response.
type ErrorEnvelope struct {
	Error *ErrorDetail `json:"error"`
}
