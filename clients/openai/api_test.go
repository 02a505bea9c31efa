package openai

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEDataLineError(t *testing.T) {
	tests := []struct {
		name    string
		jsonStr string
		want    ErrorDetail
	}{
		{
			"captured",
			`{"error":{"message":"Content Exists Risk","type":"invalid_request_error","param":null,"code":"invalid_request_error"}}`,
			ErrorDetail{
				Message: "Content Exists Risk",
				Type:    "invalid_request_error",
				Param:   nil,
				Code:    "invalid_request_error",
			},
		},
		{
			"numeric code",
			`{"error":{"message":"rate limited","type":"requests","code":429}}`,
			ErrorDetail{
				Message: "rate limited",
				Type:    "requests",
				Code:    float64(429),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ErrorEnvelope
			if err := json.Unmarshal([]byte(tt.jsonStr), &got); err != nil {
				t.Errorf("json.Unmarshal() error = %v", err)
			}
			if got.Error == nil || !reflect.DeepEqual(*got.Error, tt.want) {
				t.Errorf("Decode got %+v, want %+v", got.Error, tt.want)
			}
		})
	}
}

func TestStop_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		stop Stop
		json string
	}{
		{"scalar", StopString("END"), `"END"`},
		{"list", StopList("A", "B"), `["A","B"]`},
		{"empty list", StopList(), `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.stop)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(data))

			var got Stop
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.stop.IsList(), got.IsList())
			assert.Equal(t, tt.stop.String(), got.String())
			assert.Equal(t, tt.stop.List(), got.List())
		})
	}
}

func TestStop_Unmarshal_Rejects(t *testing.T) {
	for _, data := range []string{`42`, `{"a":1}`, `[1,2]`, `true`} {
		t.Run(data, func(t *testing.T) {
			var got Stop
			assert.Error(t, json.Unmarshal([]byte(data), &got))
		})
	}
}

func TestRequest_OmitsUnsetFields(t *testing.T) {
	stop := StopString("END")
	data, err := json.Marshal(Request{
		Model:    ChatModelGPT35Turbo,
		Messages: []Message{NewUserMessage("hi")},
		Stream:   true,
		Stop:     &stop,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"gpt-3.5-turbo","messages":[{"role":"user","content":"hi"}],"stream":true,"stop":"END"}`, string(data))

	var back Request
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.Stop)
	assert.False(t, back.Stop.IsList())
	assert.Equal(t, "END", back.Stop.String())
	assert.Nil(t, back.Temperature)
}

func TestMessage_NullRole(t *testing.T) {
	var got Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":null,"content":"Hi"}`), &got))
	assert.Equal(t, Message{Content: "Hi"}, got)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"Hi"}`, string(data))
}

func TestResponse_DeltaContent(t *testing.T) {
	reason := FinishReasonStop
	tests := []struct {
		name     string
		response Response
		want     string
		wantOK   bool
	}{
		{"no choices", Response{}, "", false},
		{"no delta", Response{Choices: []Choice{{Message: &Message{Content: "x"}}}}, "", false},
		{"empty delta", Response{Choices: []Choice{{Delta: &Message{Role: RoleAssistant}}}}, "", false},
		{"fragment", Response{Choices: []Choice{{Delta: &Message{Content: "Hi"}}}}, "Hi", true},
		{"finish", Response{Choices: []Choice{{Delta: &Message{}, FinishReason: &reason}}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.response.DeltaContent()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
