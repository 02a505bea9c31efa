package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hyisen/wf"
	"gorm.io/gorm"

	"gptchat/clients/chat"
	"gptchat/clients/model"
	"gptchat/clients/openai"
	"gptchat/clients/session"
)

type Service struct {
	clients           *Clients
	chatRepository    *chat.Repository
	sessionRepository *session.Repository
}

func NewService(
	clients *Clients,
	chatRepository *chat.Repository,
	sessionRepository *session.Repository,
) *Service {
	return &Service{clients: clients, chatRepository: chatRepository, sessionRepository: sessionRepository}
}

type Request struct {
	Content string `json:"content"`
}

type Reply struct {
	ID           string              `json:"id"`
	Model        string              `json:"model"`
	Reply        string              `json:"reply"`
	FinishReason openai.FinishReason `json:"finish_reason"`
}

// Head is the first event of a relayed stream.
type Head struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
}

func (s *Service) Chat(ctx context.Context, sessionID int, req *Request) (*Reply, *wf.CodedError) {
	client, neo, e := s.prepareChat(ctx, sessionID, req)
	if e != nil {
		return nil, e
	}

	response, err := client.Complete(ctx, req.Content)
	if err != nil {
		return nil, upstreamError(err)
	}
	choice := response.Choices[0]
	neo.ResponseID = response.ID
	neo.Reply = choice.Message.Content
	neo.FinishReason = response.FinishReason()

	if err := s.chatRepository.Save(ctx, neo); err != nil {
		slog.Error("can not append record", "chat", neo, "err", err)
		return nil, wf.NewCodedError(http.StatusInternalServerError, err)
	}
	return &Reply{
		ID:           response.ID,
		Model:        response.Model,
		Reply:        neo.Reply,
		FinishReason: neo.FinishReason,
	}, nil
}

// prepareChat finds the conversation of sessionID and the record of the turn about to be asked.
// The record is saved once the upstream has answered, a turn it never received is not archived.
func (s *Service) prepareChat(ctx context.Context, sessionID int, req *Request) (
	client *openai.Client,
	neo *model.Chat,
	err *wf.CodedError,
) {
	ses, e := s.sessionRepository.Find(ctx, sessionID)
	if errors.Is(e, gorm.ErrRecordNotFound) {
		return nil, nil, wf.NewCodedErrorf(http.StatusNotFound, "no session on id %v to chat", sessionID)
	}
	if e != nil {
		return nil, nil, wf.NewCodedError(http.StatusInternalServerError, e)
	}
	client, ok := s.clients.Get(ses.ID)
	if !ok {
		return nil, nil, wf.NewCodedErrorf(http.StatusNotFound, "session %v has no live conversation", sessionID)
	}

	return client, model.NewChat(ses.ID, req.Content), nil
}

func (s *Service) ChatStream(ctx context.Context, sessionID int, req *Request) (<-chan wf.MessageEvent, *wf.CodedError) {
	client, neo, e := s.prepareChat(ctx, sessionID, req)
	if e != nil {
		return nil, e
	}

	up, err := client.StreamResponses(ctx, req.Content)
	if err != nil {
		return nil, upstreamError(err)
	}

	down := make(chan wf.MessageEvent)
	go s.translateAggregateSave(ctx, up, down, neo)
	return down, nil
}

// translateAggregateSave relays up as head, fragment and finish events,
// then archives the turn, a partial one included.
func (s *Service) translateAggregateSave(
	ctx context.Context,
	up *openai.Stream[openai.Response],
	down chan<- wf.MessageEvent,
	neo *model.Chat,
) {
	defer close(down)
	defer func() {
		_ = up.Close()
	}()

	send := func(event wf.MessageEvent) bool {
		select {
		case down <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var reply strings.Builder
	var headSent bool
	for up.Next() {
		chunk := up.Current()
		if !headSent {
			headSent = true
			neo.ResponseID = chunk.ID
			if !send(NewJSONMessageEvent("head", Head{ID: chunk.ID, Model: chunk.Model, Created: chunk.Created})) {
				break
			}
		}
		if content, ok := chunk.DeltaContent(); ok {
			reply.WriteString(content)
			if !send(NewMultiLineMessageEvent(content)) {
				break
			}
		}
		if reason := chunk.FinishReason(); reason != "" {
			neo.FinishReason = reason
			if !send(wf.MessageEvent{
				TypeOptional: "finish",
				Lines:        []string{reason},
			}) {
				break
			}
		}
	}
	// Stop the decoder before reading its error, a break above leaves it running.
	_ = up.Close()
	neo.Reply = reply.String()

	if err := up.Err(); err != nil {
		slog.Warn("stream interrupted", "session", neo.SessionID, "err", err)
		neo.FinishReason = ""
		send(NewErrorMessageEvent(err))
	}

	// The turn is archived even when the requester has gone.
	if err := s.chatRepository.Save(context.WithoutCancel(ctx), neo); err != nil {
		slog.Error("can not append record in stream mode", "chat", neo, "err", err)
		send(NewErrorMessageEvent(err))
	}
}

func upstreamError(err error) *wf.CodedError {
	var serializationError *openai.SerializationError
	if errors.As(err, &serializationError) {
		return wf.NewCodedError(http.StatusInternalServerError, err)
	}
	return wf.NewCodedErrorf(http.StatusBadGateway, "upstream: %v", err.Error())
}

func NewMultiLineMessageEvent(passage string) wf.MessageEvent {
	return wf.MessageEvent{
		TypeOptional: "",
		// One single LF would become 2 data: with empty value, build to 1 LF again in client.
		Lines: strings.Split(passage, "\n"),
	}
}

func NewErrorMessageEvent(e error) wf.MessageEvent {
	return wf.MessageEvent{
		TypeOptional: "error",
		Lines:        strings.Split(e.Error(), "\n"),
	}
}

// NewJSONMessageEvent marshall item to JSON string, put alone with typeOptional to the returned value.
// If fails, log err and NewErrorMessageEvent invoked with err would be returned.
func NewJSONMessageEvent(typeOptional string, item any) wf.MessageEvent {
	data, err := json.Marshal(item)
	if err != nil {
		slog.Error("NewJSONMessageEvent encode", "err", err, "item", item)
		return NewErrorMessageEvent(fmt.Errorf("parse item %+v to JSON: %w", item, err))
	}
	return wf.MessageEvent{
		TypeOptional: typeOptional,
		// JSON marshaller escape LF, TestJSONEscapeLine assert that. No split by line needed here.
		Lines: []string{string(data)},
	}
}
