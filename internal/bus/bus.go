// Package bus connects statemon to the publish/subscribe bus that estimators
// publish on. It provides topic discovery, typed-stream subscriptions and a
// request/reply mechanism used for reset calls.
package bus

import (
	"context"
	"encoding/json"
)

// Message is one delivery from a subscribed topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Handler receives deliveries. Handlers run on the transport's goroutine and
// must not block.
type Handler func(Message)

// ServiceFunc answers one request. The returned value is encoded as the reply body.
type ServiceFunc func(body json.RawMessage) (interface{}, error)

// Caller issues request/reply calls against a named service.
type Caller interface {
	Call(ctx context.Context, service string, req, resp interface{}) error
}

// Bus is the publish/subscribe transport statemon talks to.
type Bus interface {
	Caller

	// Topics returns every topic name seen so far, sorted.
	Topics() []string

	// Subscribe registers h for deliveries on topic.
	Subscribe(topic string, h Handler) error

	// Publish sends payload on topic.
	Publish(topic string, payload []byte) error

	// Serve answers requests sent to service until the bus is closed.
	Serve(service string, fn ServiceFunc) error

	Close()
}
