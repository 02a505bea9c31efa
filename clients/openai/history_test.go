package openai

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	preamble := NewSystemMessage(DefaultSystemPrompt)
	tests := []struct {
		name    string
		history []Message
		prompt  string
		want    []Message
	}{
		{
			"empty history",
			nil,
			"Hello",
			[]Message{preamble, NewUserMessage("Hello")},
		},
		{
			"one turn",
			[]Message{NewUserMessage("Hi"), NewAssistantMessage("Hello!")},
			"How are you?",
			[]Message{preamble, NewUserMessage("Hi"), NewAssistantMessage("Hello!"), NewUserMessage("How are you?")},
		},
		{
			"empty prompt",
			nil,
			"",
			[]Message{preamble, NewUserMessage("")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildMessages(preamble, tt.history, tt.prompt)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.history)+2)
		})
	}
}

func TestBuildMessages_DoesNotAlias(t *testing.T) {
	history := make([]Message, 2, 8)
	history[0] = NewUserMessage("Hi")
	history[1] = NewAssistantMessage("Hello!")

	got := BuildMessages(NewSystemMessage("x"), history, "next")
	got[1].Content = "changed"
	_ = append(history, NewUserMessage("spare capacity"))

	assert.Equal(t, "Hi", history[0].Content)
	assert.Equal(t, NewUserMessage("next"), got[3])
}

func TestHistory_Record(t *testing.T) {
	var h History
	h.Record("Hi", "Hello!")
	h.Record("Bye", "See you")

	assert.Equal(t, []Message{
		NewUserMessage("Hi"),
		NewAssistantMessage("Hello!"),
		NewUserMessage("Bye"),
		NewAssistantMessage("See you"),
	}, h.Snapshot())
	assert.Equal(t, 4, h.Len())
}

func TestHistory_SnapshotIsCopy(t *testing.T) {
	var h History
	h.Record("Hi", "Hello!")
	snapshot := h.Snapshot()
	snapshot[0].Content = "changed"
	h.Record("Bye", "See you")

	assert.Equal(t, "Hi", h.Snapshot()[0].Content)
	assert.Len(t, snapshot, 2)
}

func TestHistory_ConcurrentRecordStaysPaired(t *testing.T) {
	var h History
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Record("q", "a")
		}()
	}
	wg.Wait()

	turns := h.Snapshot()
	require.Len(t, turns, 100)
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, RoleUser, turns[i].Role)
		assert.Equal(t, RoleAssistant, turns[i+1].Role)
	}
}

func TestClient_BuildRequest_Idempotent(t *testing.T) {
	temperature := 0.7
	c := New("http://127.0.0.1:1", "sk-test-0123456789", Options{
		Model:        ChatModelGPT4oMini,
		Temperature:  &temperature,
		SystemPrompt: "Be terse.",
		Logger:       discardLogger(),
	})
	c.history.Record("Hi", "Hello!")

	first := c.BuildRequest("again")
	second := c.BuildRequest("again")
	assert.Equal(t, first, second)
	assert.Equal(t, NewSystemMessage("Be terse."), first.Messages[0])
	assert.True(t, first.Stream)
	assert.Equal(t, 2, c.history.Len())
}
