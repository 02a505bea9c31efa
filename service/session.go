package service

import (
	"time"

	"gptchat/clients/model"
	"gptchat/clients/openai"
)

type Session struct {
	ID      int              `json:"id"`
	Name    string           `json:"name"`
	Model   openai.ChatModel `json:"model"`
	Created time.Time        `json:"created"`
	// Live is false for a session archived by an earlier process, it can be read but not chatted on.
	Live  bool           `json:"live"`
	Chats []*openai.Chat `json:"chats,omitempty"` // pointer item because item could be modified just after appending
}

func NewSession(session *model.Session, chats []*model.Chat, live bool) *Session {
	var items []*openai.Chat
	for _, c := range chats {
		items = append(items, c.Chat())
	}
	return &Session{
		ID:      session.ID,
		Name:    session.Name,
		Model:   session.Model,
		Created: time.UnixMilli(session.CreateTime),
		Live:    live,
		Chats:   items,
	}
}
