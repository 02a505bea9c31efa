package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultMaxErrorBody caps how much of a non-200 body is read to classify it.
const DefaultMaxErrorBody = 64 << 10

type Options struct {
	Model       ChatModel
	Temperature *float64
	// SystemPrompt is sent as the first message of every request.
	SystemPrompt string
	// Strict fails a stream on a malformed data line, otherwise the line is dropped and logged.
	Strict       bool
	MaxErrorBody int64
	HTTPClient   *http.Client
	Observer     Observer
	Logger       *slog.Logger
}

func NewDefaultOptions() Options {
	return Options{
		Model:        ChatModelGPT35Turbo,
		Temperature:  nil,
		SystemPrompt: DefaultSystemPrompt,
		Strict:       false,
		MaxErrorBody: DefaultMaxErrorBody,
		HTTPClient:   http.DefaultClient,
		Observer:     nopObserver{},
		Logger:       slog.Default(),
	}
}

// Client talks to an OpenAI-compatible chat completions endpoint and keeps the conversation.
//
// One turn is in flight at a time. A call waits until the stream of the previous one has ended
// or been closed, so that every request is built from a history holding all finished turns,
// and turns are recorded in the order they were asked.
type Client struct {
	baseURL string
	apiKey  string
	opts    Options
	history History
	turn    chan struct{}
}

// New creates *Client, use NewDefaultOptions to provide a workable opts or make it yourself.
// Zero fields of opts fall back to those of NewDefaultOptions.
func New(baseURL, apiKey string, opts Options) *Client {
	def := NewDefaultOptions()
	if opts.Model == "" {
		opts.Model = def.Model
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = def.SystemPrompt
	}
	if opts.MaxErrorBody <= 0 {
		opts.MaxErrorBody = def.MaxErrorBody
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = def.HTTPClient
	}
	if opts.Observer == nil {
		opts.Observer = def.Observer
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if apiKey != strings.TrimSpace(apiKey) {
		// A key pasted from a file often brings its newline, and the server answers 401 for it.
		opts.Logger.Warn("API key has leading or trailing whitespace", "key", MaskKey(apiKey))
	}
	opts.Logger.Debug("new chat client", "baseURL", baseURL, "model", opts.Model, "key", MaskKey(apiKey))

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		opts:    opts,
		turn:    make(chan struct{}, 1),
	}
}

// minMaskedKeyLen is the shortest key MaskKey shows any part of.
const minMaskedKeyLen = 16

// MaskKey keeps only enough of key to tell keys apart in logs, nothing of a short one.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) < minMaskedKeyLen {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + "..." + key[len(key)-4:]
}

func CloseAndWarnIfFail(c io.Closer) {
	err := c.Close()
	if err != nil {
		log.Printf("warn: potential resource leak as failed to close body: %v", err)
	}
}

// History returns a snapshot of the recorded turns.
func (c *Client) History() []Message {
	return c.history.Snapshot()
}

func (c *Client) Model() ChatModel {
	return c.opts.Model
}

// BuildRequest returns the streaming request that asking prompt now would send.
func (c *Client) BuildRequest(prompt string) Request {
	return Request{
		Model:       c.opts.Model,
		Messages:    BuildMessages(NewSystemMessage(c.opts.SystemPrompt), c.history.Snapshot(), prompt),
		Temperature: c.opts.Temperature,
		Stream:      true,
	}
}

func (c *Client) acquire(ctx context.Context) error {
	select {
	case c.turn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return &NetworkError{Err: fmt.Errorf("wait for previous turn: %w", ctx.Err())}
	}
}

func (c *Client) release() {
	<-c.turn
}

// send posts request, and returns the unread body on 200.
// Any other status is drained, up to MaxErrorBody, and classified.
func (c *Client) send(ctx context.Context, turnID string, request Request) (io.ReadCloser, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return nil, &SerializationError{Err: err}
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if request.Stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Client-Request-Id", turnID)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer CloseAndWarnIfFail(resp.Body)
		return nil, classifyErrorResponse(resp, c.opts.MaxErrorBody)
	}
	return resp.Body, nil
}

func classifyErrorResponse(resp *http.Response, limit int64) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("read body of status %d: %w", resp.StatusCode, err)}
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return &ResponseError{StatusCode: resp.StatusCode, Err: err}
	}
	if envelope.Error == nil {
		return &ResponseError{StatusCode: resp.StatusCode, Err: fmt.Errorf("no error object in %q", data)}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    envelope.Error.Message,
		Type:       envelope.Error.Type,
	}
}

// StreamResponses asks prompt and streams every decoded event as it is.
func (c *Client) StreamResponses(ctx context.Context, prompt string) (*Stream[Response], error) {
	return startStream(ctx, c, prompt, func(r Response) Response {
		return r
	})
}

// StreamText asks prompt and streams the text fragment of every decoded event,
// "" for an event without one.
func (c *Client) StreamText(ctx context.Context, prompt string) (*Stream[string], error) {
	return startStream(ctx, c, prompt, func(r Response) string {
		content, _ := r.DeltaContent()
		return content
	})
}

func startStream[T any](ctx context.Context, c *Client, prompt string, project func(Response) T) (*Stream[T], error) {
	if err := c.acquire(ctx); err != nil {
		c.opts.Observer.RequestFailed(err)
		return nil, err
	}

	turnID := uuid.NewString()
	logger := c.opts.Logger.With("turn", turnID)
	ctx, cancel := context.WithCancel(ctx)
	body, err := c.send(ctx, turnID, c.BuildRequest(prompt))
	if err != nil {
		cancel()
		c.release()
		logger.Error("start chat stream", "err", err)
		c.opts.Observer.RequestFailed(err)
		return nil, err
	}
	logger.Debug("chat stream started", "model", c.opts.Model)

	return newStream(ctx, cancel, body, streamConfig{
		strict:   c.opts.Strict,
		logger:   logger,
		observer: c.opts.Observer,
		onComplete: func(reply string) {
			c.history.Record(prompt, reply)
			c.opts.Observer.TurnRecorded()
		},
		onExit: func(err error) {
			c.release()
			if err != nil {
				logger.Warn("chat stream aborted, turn not recorded", "err", err)
				c.opts.Observer.StreamAborted(err)
			}
		},
	}, project), nil
}

// Complete asks prompt without streaming, and records the turn once the whole reply arrived.
func (c *Client) Complete(ctx context.Context, prompt string) (*Response, error) {
	if err := c.acquire(ctx); err != nil {
		c.opts.Observer.RequestFailed(err)
		return nil, err
	}
	defer c.release()

	turnID := uuid.NewString()
	request := c.BuildRequest(prompt)
	request.Stream = false
	response, err := c.complete(ctx, turnID, request)
	if err != nil {
		c.opts.Logger.Error("complete chat", "turn", turnID, "err", err)
		c.opts.Observer.RequestFailed(err)
		return nil, err
	}
	c.history.Record(prompt, response.Choices[0].Message.Content)
	c.opts.Observer.TurnRecorded()
	return response, nil
}

func (c *Client) complete(ctx context.Context, turnID string, request Request) (*Response, error) {
	body, err := c.send(ctx, turnID, request)
	if err != nil {
		return nil, err
	}
	defer CloseAndWarnIfFail(body)

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, &ResponseError{StatusCode: http.StatusOK, Err: err}
	}
	if len(response.Choices) == 0 || response.Choices[0].Message == nil {
		return nil, &ResponseError{StatusCode: http.StatusOK, Err: fmt.Errorf("no message in %q", data)}
	}
	return &response, nil
}
