package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/hyisen/wf"
	"gorm.io/gorm"

	"gptchat/clients/chat"
	"gptchat/clients/model"
	"gptchat/clients/openai"
	"gptchat/clients/session"
	chatservice "gptchat/service/chat"
)

type Service struct {
	web     *wf.Web
	clients *chatservice.Clients
	chat    *chatservice.Service

	sessionRepository *session.Repository
	chatRepository    *chat.Repository
}

func (s *Service) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.web.ServeHTTP(writer, request)
}

// CreateSession archives a new session and opens its conversation.
func (s *Service) CreateSession(ctx context.Context) (int, *wf.CodedError) {
	item := &model.Session{
		ID:         0,
		Name:       model.DefaultSessionName(),
		CreateTime: time.Now().UnixMilli(),
	}
	if err := s.sessionRepository.Create(ctx, item); err != nil {
		return 0, wf.NewCodedError(http.StatusInternalServerError, err)
	}
	item.Model = s.clients.Open(item.ID).Model()
	if err := s.sessionRepository.Save(ctx, *item); err != nil {
		return 0, wf.NewCodedError(http.StatusInternalServerError, err)
	}
	return item.ID, nil
}

func (s *Service) FindSessions(ctx context.Context) ([]*Session, *wf.CodedError) {
	items, err := s.sessionRepository.FindAll(ctx)
	if err != nil {
		return nil, wf.NewCodedError(http.StatusInternalServerError, err)
	}

	ret := make([]*Session, 0, len(items))
	for _, item := range items {
		_, live := s.clients.Get(item.ID)
		ret = append(ret, NewSession(item, nil, live))
	}
	return ret, nil
}

func (s *Service) FindSessionByID(ctx context.Context, id int) (*Session, *wf.CodedError) {
	item, err := s.sessionRepository.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wf.NewCodedErrorf(http.StatusNotFound, "no session on id %v", id)
	}
	if err != nil {
		return nil, wf.NewCodedError(http.StatusInternalServerError, err)
	}
	chats, err := s.chatRepository.FindBySessionID(ctx, item.ID)
	if err != nil {
		return nil, wf.NewCodedError(http.StatusInternalServerError, err)
	}
	_, live := s.clients.Get(item.ID)
	return NewSession(item, chats, live), nil
}

// New wires the HTTP surface, factory makes the conversation of every new session.
func New(
	factory func() *openai.Client,
	sessionRepository *session.Repository,
	chatRepository *chat.Repository,
) *Service {
	clients := chatservice.NewClients(factory)
	ret := &Service{
		web:               nil,
		clients:           clients,
		chat:              chatservice.NewService(clients, chatRepository, sessionRepository),
		sessionRepository: sessionRepository,
		chatRepository:    chatRepository,
	}

	v1PostSession := wf.NewJSONHandler(
		wf.Exact(http.MethodPost, "/v1/sessions"),
		reflect.TypeOf(wf.Empty{}),
		func(ctx context.Context, req any) (rsp any, codedError *wf.CodedError) {
			return ret.CreateSession(ctx)
		},
	)

	v1GetSessions := wf.NewJSONHandler(
		wf.Exact(http.MethodGet, "/v1/sessions"),
		reflect.TypeOf(wf.Empty{}),
		func(ctx context.Context, req any) (rsp any, codedError *wf.CodedError) {
			return ret.FindSessions(ctx)
		},
	)

	v1GetSessionByID := wf.NewClosureHandler(
		wf.ResourceWithID(http.MethodGet, "/v1/sessions/", ""),
		wf.PathIDParser(""),
		func(ctx context.Context, req any) (rsp any, codedError *wf.CodedError) {
			return ret.FindSessionByID(ctx, req.(int))
		},
		json.Marshal,
		wf.JSONContentType,
	)

	v1PostSessionChatPathSuffix := "/chat"
	v1PostSessionChatPathIDParser := wf.PathIDParser(v1PostSessionChatPathSuffix)
	v1PostSessionChatPayloadParser := wf.JSONParser(reflect.TypeOf(chatservice.Request{}))
	v1PostSessionChatMatcher := wf.ResourceWithID(http.MethodPost, "/v1/sessions/", v1PostSessionChatPathSuffix)
	v1PostSessionChatParser := func(data []byte, path string) (any, error) {
		id, err := v1PostSessionChatPathIDParser(nil, path)
		if err != nil {
			return nil, err
		}
		payload, err := v1PostSessionChatPayloadParser(data, "")
		if err != nil {
			return nil, err
		}
		return []any{id, payload}, nil
	}
	v1PostSessionChat := wf.NewClosureHandler(
		func(req *http.Request) bool {
			if !v1PostSessionChatMatcher(req) {
				return false
			}
			return req.URL.Query().Get("stream") != "true"
		},
		v1PostSessionChatParser,
		func(ctx context.Context, req any) (rsp any, codedError *wf.CodedError) {
			return ret.chat.Chat(ctx, req.([]any)[0].(int), req.([]any)[1].(*chatservice.Request))
		},
		json.Marshal,
		wf.JSONContentType,
	)
	v1PostSessionChatStream := wf.NewServerSentEventsHandler(
		func(req *http.Request) bool {
			if !v1PostSessionChatMatcher(req) {
				return false
			}
			return req.URL.Query().Get("stream") == "true"
		},
		v1PostSessionChatParser,
		func(ctx context.Context, req any) (ch <-chan wf.MessageEvent, codedError *wf.CodedError) {
			return ret.chat.ChatStream(ctx, req.([]any)[0].(int), req.([]any)[1].(*chatservice.Request))
		},
	)

	ret.web = wf.NewWeb(
		false,
		v1PostSession,
		v1GetSessions,
		v1GetSessionByID,
		v1PostSessionChat,
		v1PostSessionChatStream,
	)
	return ret
}
