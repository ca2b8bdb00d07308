// Package bustest provides an in-memory bus.Bus for tests and demos.
package bustest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/rileyhilliard/statemon/internal/bus"
	"github.com/rileyhilliard/statemon/internal/errors"
)

// Call records one request made through the fake.
type Call struct {
	Service string
	Body    json.RawMessage
}

// Bus is an in-memory bus.Bus. Deliver runs subscribed handlers synchronously.
type Bus struct {
	mu       sync.Mutex
	topics   map[string]struct{}
	subs     map[string][]bus.Handler
	services map[string]bus.ServiceFunc

	// SubscribeErr, when set, is returned by Subscribe for the named topic.
	SubscribeErr map[string]error

	// CallErr, when set, fails every Call that has no registered service.
	CallErr error

	Calls     []Call
	Published []bus.Message
	Closed    bool
}

var _ bus.Bus = (*Bus)(nil)

// New returns a fake bus that already advertises topics.
func New(topics ...string) *Bus {
	b := &Bus{
		topics:       make(map[string]struct{}),
		subs:         make(map[string][]bus.Handler),
		services:     make(map[string]bus.ServiceFunc),
		SubscribeErr: make(map[string]error),
	}
	for _, t := range topics {
		b.topics[t] = struct{}{}
	}
	return b
}

// Advertise makes topics visible to discovery.
func (b *Bus) Advertise(topics ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range topics {
		b.topics[t] = struct{}{}
	}
}

// Topics returns the advertised topics, sorted.
func (b *Bus) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.topics))
	for t := range b.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (b *Bus) Subscribe(topic string, h bus.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.SubscribeErr[topic]; err != nil {
		return err
	}
	b.subs[topic] = append(b.subs[topic], h)
	return nil
}

// Subscribers returns how many handlers are registered for topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

// Publish records the message and delivers it to subscribers.
func (b *Bus) Publish(topic string, payload []byte) error {
	b.mu.Lock()
	b.Published = append(b.Published, bus.Message{Topic: topic, Payload: payload})
	b.topics[topic] = struct{}{}
	b.mu.Unlock()

	b.Deliver(topic, payload)
	return nil
}

// Deliver hands payload to every handler subscribed to topic.
func (b *Bus) Deliver(topic string, payload []byte) {
	b.mu.Lock()
	handlers := append([]bus.Handler(nil), b.subs[topic]...)
	b.mu.Unlock()

	msg := bus.Message{Topic: topic, Payload: payload}
	for _, h := range handlers {
		h(msg)
	}
}

// DeliverJSON encodes v and delivers it on topic.
func (b *Bus) DeliverJSON(topic string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.Deliver(topic, data)
	return nil
}

// Call runs the registered service in-process, or fails with CallErr.
func (b *Bus) Call(ctx context.Context, service string, req, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.Calls = append(b.Calls, Call{Service: service, Body: body})
	fn, ok := b.services[service]
	callErr := b.CallErr
	b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.WrapWithCode(err, errors.ErrReset, "No reply from "+service, "")
	}
	if !ok {
		if callErr != nil {
			return callErr
		}
		return errors.New(errors.ErrReset, "No service at "+service, "")
	}

	result, err := fn(body)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrReset, "Call to "+service+" failed", "")
	}
	if resp == nil || result == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, resp)
}

func (b *Bus) Serve(service string, fn bus.ServiceFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.services[service] = fn
	return nil
}

// CallCount returns how many calls targeted service.
func (b *Bus) CallCount(service string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.Calls {
		if c.Service == service {
			n++
		}
	}
	return n
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
}
