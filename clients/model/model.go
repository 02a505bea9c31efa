// Package model stores the gorm models of the transcript archive.
// The archive is a record of what was asked and answered, conversations are never rebuilt from it.
package model

import (
	"time"

	"gptchat/clients/openai"
)

type Session struct {
	ID         int `json:"-"`
	Name       string
	Model      openai.ChatModel
	CreateTime int64
}

func DefaultSessionName() string {
	return time.Now().Format(time.DateTime)
}

type Chat struct {
	ID           int `json:"-"`
	SessionID    int `json:"-" gorm:"index"`
	ResponseID   string
	Input        string
	Reply        string
	FinishReason openai.FinishReason
	CreateTime   int64
}

func NewChat(sessionID int, input string) *Chat {
	return &Chat{
		ID:         0, // leave null for generated PK
		SessionID:  sessionID,
		Input:      input,
		CreateTime: time.Now().UnixMilli(),
	}
}

func (c *Chat) Chat() *openai.Chat {
	return &openai.Chat{
		Input:        c.Input,
		Created:      time.UnixMilli(c.CreateTime),
		Reply:        c.Reply,
		FinishReason: c.FinishReason,
	}
}

// Models lists what AutoMigrate must know about.
func Models() []any {
	return []any{&Session{}, &Chat{}}
}
