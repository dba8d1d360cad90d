package mqtt

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sweeney/golden-hour/internal/dispatch"
	xglog "github.com/sweeney/golden-hour/internal/log"
	"github.com/sweeney/golden-hour/internal/state"
)

// Dialer connects a Publisher.
type Dialer func() (Publisher, error)

// Effect publishes each fired event. The broker connection is opened on the
// first event so runs that fire nothing never connect.
type Effect struct {
	Broker string
	Topic  string

	dial   Dialer
	logger zerolog.Logger

	// mu guards the lazily dialed publisher and keeps publishes of one run
	// ordered.
	mu      sync.Mutex
	dialed  bool
	pub     Publisher
	dialErr error
}

// NewEffect creates an Effect for the given broker and topic.
func NewEffect(broker, clientID, topic string) *Effect {
	if topic == "" {
		topic = DefaultTopic
	}
	return NewEffectWithDialer(broker, topic, func() (Publisher, error) {
		return NewRealPublisher(broker, clientID, topic)
	})
}

// NewEffectWithDialer creates an Effect using dial to obtain the publisher.
func NewEffectWithDialer(broker, topic string, dial Dialer) *Effect {
	return &Effect{
		Broker: broker,
		Topic:  topic,
		dial:   dial,
		logger: xglog.WithComponent("mqtt"),
	}
}

// Source implements dispatch.Effect.
func (e *Effect) Source() string {
	return state.SourceMQTT
}

// Run publishes the trigger's event.
func (e *Effect) Run(_ context.Context, t dispatch.Trigger) state.Outcome {
	out := state.Outcome{Broker: e.Broker, Topic: e.Topic}

	e.mu.Lock()
	if !e.dialed {
		e.dialed = true
		e.pub, e.dialErr = e.dial()
	}
	pub, dialErr := e.pub, e.dialErr
	var err error
	if dialErr == nil {
		err = pub.Publish(Event{Timestamp: t.At, Type: t.Event, RunID: t.RunID})
	}
	e.mu.Unlock()

	if dialErr != nil {
		out.ResultCode = state.ResultFailed
		out.Error = dialErr.Error()
		e.logger.Warn().Err(dialErr).Str("broker", e.Broker).Msg("mqtt connect failed")
		return out
	}
	if err != nil {
		out.ResultCode = state.ResultFailed
		out.Error = err.Error()
		e.logger.Warn().Err(err).Str("event", string(t.Event)).Msg("mqtt publish failed")
		return out
	}

	e.logger.Info().Str("event", string(t.Event)).Str("topic", e.Topic).Msg("published event")
	return out
}

// Close disconnects the publisher if one was opened.
func (e *Effect) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pub == nil {
		return nil
	}
	return e.pub.Close()
}
