package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"gptchat/clients/openai"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&openai.APIError{StatusCode: 401}, "api"},
		{&openai.ResponseError{StatusCode: 502}, "response"},
		{&openai.SerializationError{}, "serialization"},
		{&openai.DecodeError{Line: "data: {"}, "decode"},
		{&openai.NetworkError{Err: context.DeadlineExceeded}, "network"},
		{fmt.Errorf("wrapped: %w", &openai.APIError{}), "api"},
		{context.Canceled, "cancelled"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestObserver(t *testing.T) {
	o := New(prometheus.NewRegistry())

	o.EventDecoded()
	o.EventDecoded()
	o.EventDropped(errors.New("bad line"))
	o.TurnRecorded()
	o.RequestFailed(&openai.APIError{StatusCode: 429})
	o.StreamAborted(context.Canceled)

	assert.Equal(t, 2.0, testutil.ToFloat64(o.Events.WithLabelValues("decoded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.Events.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.Turns))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.RequestFailures.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.StreamAborts.WithLabelValues("cancelled")))
}
