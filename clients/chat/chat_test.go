package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gptchat/clients/db"
	"gptchat/clients/model"
	"gptchat/clients/openai"
)

func TestRepository(t *testing.T) {
	conn, err := db.Open(db.MemoryDSN)
	require.NoError(t, err)
	r, err := NewRepository(conn)
	require.NoError(t, err)
	ctx := context.Background()

	s := &model.Session{Name: "s"}
	require.NoError(t, conn.Create(s).Error)

	pending := model.NewChat(s.ID, "Hi")
	require.NoError(t, r.Save(ctx, pending))
	require.NotZero(t, pending.ID)
	require.NoError(t, r.Save(ctx, model.NewChat(s.ID, "Bye")))

	pending.Reply = "Hello!"
	pending.FinishReason = openai.FinishReasonStop
	pending.ResponseID = "chatcmpl-1"
	require.NoError(t, r.Save(ctx, pending))

	chats, err := r.FindBySessionID(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "Hi", chats[0].Input)
	assert.Equal(t, "Bye", chats[1].Input)
	assert.Equal(t, "Hello!", chats[0].Reply)
	assert.Equal(t, "chatcmpl-1", chats[0].ResponseID)
	assert.True(t, chats[0].Chat().Valid())
	assert.False(t, chats[1].Chat().Valid())

	none, err := r.FindBySessionID(ctx, s.ID+1)
	require.NoError(t, err)
	assert.Empty(t, none)
}
