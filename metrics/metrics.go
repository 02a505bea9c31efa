// Package metrics counts what the chat clients do, in Prometheus terms.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gptchat/clients/openai"
)

const namespace = "gptchat"

// Observer implements openai.Observer. One Observer is shared by every client of the process.
type Observer struct {
	RequestFailures *prometheus.CounterVec
	StreamAborts    *prometheus.CounterVec
	Events          *prometheus.CounterVec
	Turns           prometheus.Counter
}

var _ openai.Observer = (*Observer)(nil)

// New registers the collectors to reg, prometheus.DefaultRegisterer if nil.
func New(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Observer{
		RequestFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_failures_total",
			Help:      "Chat calls failed before any event was streamed, by error kind.",
		}, []string{"kind"}),
		StreamAborts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "stream_aborts_total",
			Help:      "Streams ended without recording the turn, by error kind.",
		}, []string{"kind"}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "events_total",
			Help:      "SSE data lines seen by the decoder, by outcome.",
		}, []string{"outcome"}),
		Turns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "turns_recorded_total",
			Help:      "Turns appended to a conversation history.",
		}),
	}
}

func (o *Observer) RequestFailed(err error) {
	o.RequestFailures.WithLabelValues(Kind(err)).Inc()
}

func (o *Observer) EventDecoded() {
	o.Events.WithLabelValues("decoded").Inc()
}

func (o *Observer) EventDropped(error) {
	o.Events.WithLabelValues("dropped").Inc()
}

func (o *Observer) TurnRecorded() {
	o.Turns.Inc()
}

func (o *Observer) StreamAborted(err error) {
	o.StreamAborts.WithLabelValues(Kind(err)).Inc()
}

// Kind names the class of err in the client error taxonomy, "other" for anything outside it.
func Kind(err error) string {
	var (
		serializationError *openai.SerializationError
		networkError       *openai.NetworkError
		responseError      *openai.ResponseError
		apiError           *openai.APIError
		decodeError        *openai.DecodeError
	)
	switch {
	case errors.As(err, &apiError):
		return "api"
	case errors.As(err, &responseError):
		return "response"
	case errors.As(err, &serializationError):
		return "serialization"
	case errors.As(err, &decodeError):
		return "decode"
	case errors.As(err, &networkError):
		return "network"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
