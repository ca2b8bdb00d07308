package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/logger"
)

// ReservedPrefix is the topic namespace statemon uses for its own replies.
// Topics under it are never reported by Topics.
const ReservedPrefix = "statemon/"

const (
	streamQoS     byte = 0
	serviceQoS    byte = 1
	disconnectMs       = 250
	publishWaitMs      = 2000
)

// Client is a Bus backed by an MQTT broker.
type Client struct {
	cfg        config.BusConfig
	log        logger.Logger
	client     mqtt.Client
	replyTopic string

	mu       sync.Mutex
	topics   map[string]struct{}
	subs     map[string][]Handler
	services map[string]ServiceFunc
	pending  map[string]chan Reply
}

var _ Bus = (*Client)(nil)

// ReplyTopic returns the topic a client with the given ID receives replies on.
func ReplyTopic(clientID string) string {
	return ReservedPrefix + clientID + "/reply"
}

func newClient(cfg config.BusConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.Noop()
	}
	return &Client{
		cfg:        cfg,
		log:        log,
		replyTopic: ReplyTopic(cfg.ClientID),
		topics:     make(map[string]struct{}),
		subs:       make(map[string][]Handler),
		services:   make(map[string]ServiceFunc),
		pending:    make(map[string]chan Reply),
	}
}

// Dial connects to the broker described by cfg and starts topic discovery.
func Dial(ctx context.Context, cfg config.BusConfig, log logger.Logger) (*Client, error) {
	c := newClient(cfg, log)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxReconnectInterval(30 * time.Second).
		SetOrderMatters(false)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = c.onConnect
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.log.Warn("connection to %s lost, reconnecting: %v", cfg.Broker, err)
	}

	c.client = mqtt.NewClient(opts)
	c.log.Debug("connecting to %s as %s", cfg.Broker, cfg.ClientID)

	token := c.client.Connect()
	if err := waitToken(ctx, token, cfg.ConnectTimeout); err != nil {
		c.client.Disconnect(0)
		return nil, errors.WrapWithCode(err, errors.ErrBus,
			"Cannot connect to broker "+cfg.Broker,
			"Check that the broker is running, or pass --broker")
	}
	return c, nil
}

// onConnect (re)establishes every subscription. It runs after the first
// connect and after every automatic reconnect.
func (c *Client) onConnect(client mqtt.Client) {
	c.mu.Lock()
	streams := make([]string, 0, len(c.subs))
	for topic := range c.subs {
		streams = append(streams, topic)
	}
	services := make([]string, 0, len(c.services))
	for service := range c.services {
		services = append(services, service)
	}
	c.mu.Unlock()

	client.Subscribe(c.cfg.DiscoveryFilter, streamQoS, c.onDiscovery)
	client.Subscribe(c.replyTopic, serviceQoS, c.onReply)
	for _, topic := range streams {
		client.Subscribe(topic, streamQoS, c.dispatch)
	}
	for _, service := range services {
		client.Subscribe(service, serviceQoS, c.onRequest)
	}
	c.log.Info("connected to %s (%d streams, %d services)", c.cfg.Broker, len(streams), len(services))
}

func (c *Client) onDiscovery(_ mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	if strings.HasPrefix(topic, ReservedPrefix) {
		return
	}
	c.mu.Lock()
	_, seen := c.topics[topic]
	c.topics[topic] = struct{}{}
	c.mu.Unlock()
	if !seen {
		c.log.Debug("discovered topic %s", topic)
	}
}

func (c *Client) dispatch(_ mqtt.Client, msg mqtt.Message) {
	c.mu.Lock()
	handlers := c.subs[msg.Topic()]
	c.mu.Unlock()

	m := Message{Topic: msg.Topic(), Payload: msg.Payload()}
	for _, h := range handlers {
		h(m)
	}
}

func (c *Client) onReply(_ mqtt.Client, msg mqtt.Message) {
	var reply Reply
	if err := json.Unmarshal(msg.Payload(), &reply); err != nil {
		c.log.Warn("dropping malformed reply on %s: %v", msg.Topic(), err)
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[reply.ID]
	delete(c.pending, reply.ID)
	c.mu.Unlock()

	if !ok {
		c.log.Debug("reply %s has no waiting caller", reply.ID)
		return
	}
	ch <- reply
}

func (c *Client) onRequest(_ mqtt.Client, msg mqtt.Message) {
	c.mu.Lock()
	fn, ok := c.services[msg.Topic()]
	c.mu.Unlock()
	if !ok {
		return
	}

	replyTo, data, err := Answer(msg.Payload(), fn)
	if err != nil {
		c.log.Warn("cannot answer request on %s: %v", msg.Topic(), errors.Summary(err))
		return
	}
	if err := c.Publish(replyTo, data); err != nil {
		c.log.Warn("cannot send reply to %s: %v", replyTo, errors.Summary(err))
	}
}

// Topics returns every topic seen by the discovery subscription, sorted.
func (c *Client) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.topics))
	for topic := range c.topics {
		out = append(out, topic)
	}
	sort.Strings(out)
	return out
}

// Subscribe registers h for topic. Subscriptions survive reconnects.
func (c *Client) Subscribe(topic string, h Handler) error {
	c.mu.Lock()
	_, existing := c.subs[topic]
	c.subs[topic] = append(c.subs[topic], h)
	c.mu.Unlock()

	if existing || c.client == nil {
		return nil
	}
	token := c.client.Subscribe(topic, streamQoS, c.dispatch)
	if err := waitToken(context.Background(), token, c.cfg.ConnectTimeout); err != nil {
		c.mu.Lock()
		delete(c.subs, topic)
		c.mu.Unlock()
		return errors.WrapWithCode(err, errors.ErrBus,
			"Cannot subscribe to "+topic, "")
	}
	c.log.Debug("subscribed to %s", topic)
	return nil
}

// Publish sends payload on topic with at-least-once delivery.
func (c *Client) Publish(topic string, payload []byte) error {
	if c.client == nil {
		return errors.New(errors.ErrBus, "Not connected", "")
	}
	token := c.client.Publish(topic, serviceQoS, false, payload)
	if err := waitToken(context.Background(), token, publishWaitMs*time.Millisecond); err != nil {
		return errors.WrapWithCode(err, errors.ErrBus, "Cannot publish to "+topic, "")
	}
	return nil
}

// Call publishes req to service and waits for the matching reply or for ctx
// to end, whichever comes first.
func (c *Client) Call(ctx context.Context, service string, req, resp interface{}) error {
	id, data, err := EncodeRequest(c.replyTopic, req)
	if err != nil {
		return err
	}

	ch := make(chan Reply, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.Publish(service, data); err != nil {
		return errors.WrapWithCode(err, errors.ErrReset, "Cannot call "+service, "")
	}

	select {
	case reply := <-ch:
		return reply.Decode(service, resp)
	case <-ctx.Done():
		return errors.WrapWithCode(ctx.Err(), errors.ErrReset,
			"No reply from "+service,
			"Check that the estimator is running and serves "+service)
	}
}

// Serve answers requests published on service.
func (c *Client) Serve(service string, fn ServiceFunc) error {
	c.mu.Lock()
	c.services[service] = fn
	c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	token := c.client.Subscribe(service, serviceQoS, c.onRequest)
	if err := waitToken(context.Background(), token, c.cfg.ConnectTimeout); err != nil {
		return errors.WrapWithCode(err, errors.ErrBus, "Cannot serve "+service, "")
	}
	c.log.Debug("serving %s", service)
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(disconnectMs)
	}
}

func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = publishWaitMs * time.Millisecond
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
