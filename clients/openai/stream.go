package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
)

// ref https://html.spec.whatwg.org/multipage/server-sent-events.html#parsing-an-event-stream
// Only the two shapes below matter, anything else (blank, ": keep-alive", "event: ...") is skipped.
const (
	dataPrefix       = "data: "
	dataObjectPrefix = dataPrefix + "{"
	dataDonePrefix   = dataPrefix + "[DONE]"
)

// maxLineSize bounds a single SSE line, the body as a whole is never buffered.
const maxLineSize = 1 << 20

// Stream is a lazily produced sequence of events decoded from one chat completion response.
// It is finite and not restartable.
//
// Iterate it with Next and Current, then check Err; or range over All.
// Err is only meaningful once Next has returned false or Close has returned.
// Abandoning a Stream early requires Close, which tears down the HTTP body;
// the turn is then not recorded in history.
type Stream[T any] struct {
	items    chan T
	finished chan struct{}
	cancel   context.CancelFunc
	body     io.ReadCloser
	once     sync.Once
	bodyOnce sync.Once

	current T
	err     error
}

type streamConfig struct {
	strict   bool
	logger   *slog.Logger
	observer Observer
	// onComplete runs exactly once with the whole reply, only on a normal end.
	onComplete func(reply string)
	// onExit runs after onComplete, whatever the outcome.
	onExit func(err error)
}

// newStream takes ownership of body and cancel.
func newStream[T any](
	ctx context.Context,
	cancel context.CancelFunc,
	body io.ReadCloser,
	cfg streamConfig,
	project func(Response) T,
) *Stream[T] {
	s := &Stream[T]{
		// Unbuffered, so the decoder waits for the consumer on every event.
		items:    make(chan T),
		finished: make(chan struct{}),
		cancel:   cancel,
		body:     body,
	}
	go s.run(ctx, cfg, project)
	return s
}

func (s *Stream[T]) run(ctx context.Context, cfg streamConfig, project func(Response) T) {
	reply, err := s.pump(ctx, s.body, cfg, project)
	s.closeBody()
	if err == nil && cfg.onComplete != nil {
		cfg.onComplete(reply)
	}
	s.err = err
	if cfg.onExit != nil {
		cfg.onExit(err)
	}
	close(s.items)
	s.cancel()
	close(s.finished)
}

// pump decodes lines until the sentinel, EOF, a read error or cancellation.
// The returned reply is the concatenation of every delta content in arrival order.
func (s *Stream[T]) pump(
	ctx context.Context,
	body io.Reader,
	cfg streamConfig,
	project func(Response) T,
) (reply string, err error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	var acc strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, dataDonePrefix) {
			return acc.String(), nil
		}
		if !strings.HasPrefix(line, dataObjectPrefix) {
			continue
		}

		var response Response
		if err := json.Unmarshal([]byte(line[len(dataPrefix):]), &response); err != nil {
			if cfg.strict {
				return "", &DecodeError{Line: line, Err: err}
			}
			cfg.logger.Warn("drop malformed SSE data line", "line", line, "err", err)
			cfg.observer.EventDropped(err)
			continue
		}
		cfg.observer.EventDecoded()
		if response.Error != nil {
			cfg.logger.Warn("error object in SSE event", "message", response.Error.Message, "type", response.Error.Type)
		}
		if content, ok := response.DeltaContent(); ok {
			acc.WriteString(content)
		}

		select {
		case s.items <- project(response):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	// A body read fails with the context error once the request is cancelled,
	// report the cancellation rather than a network failure.
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return "", &NetworkError{Err: err}
	}
	return acc.String(), nil
}

// Next waits for the next event and reports whether there is one.
func (s *Stream[T]) Next() bool {
	item, ok := <-s.items
	if !ok {
		return false
	}
	s.current = item
	return true
}

func (s *Stream[T]) Current() T {
	return s.current
}

// Err returns nil when the stream ended with the sentinel or a clean EOF,
// *NetworkError on a read failure, *DecodeError in strict mode,
// or the context error when cancelled or closed early.
func (s *Stream[T]) Err() error {
	return s.err
}

// Close stops decoding and waits for the decoder to release the response body.
// It is safe to call more than once, and after the stream has ended.
func (s *Stream[T]) Close() error {
	s.once.Do(func() {
		s.cancel()
		// Not every body gives up a pending Read on cancellation, closing it does.
		s.closeBody()
	})
	<-s.finished
	return nil
}

func (s *Stream[T]) closeBody() {
	s.bodyOnce.Do(func() {
		CloseAndWarnIfFail(s.body)
	})
}

// All ranges over the events, then yields a final zero value with the error if the stream failed.
// The stream is closed when the loop ends, early break included.
func (s *Stream[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer func() {
			_ = s.Close()
		}()
		for s.Next() {
			if !yield(s.current, nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}
