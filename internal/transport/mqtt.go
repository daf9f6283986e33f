// Package transport publishes commentary lines and game state to realtime
// consumers over MQTT.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
)

// ErrNotConnected is returned when publishing without a broker connection.
var ErrNotConnected = errors.New("mqtt not connected")

// Client is the subset of mqtt.Client the publisher uses.
type Client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Options configures a Publisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
	Timeout     time.Duration
}

// Message is the JSON payload published per commentary line.
type Message struct {
	SessionID string `json:"session_id"`
	event.CommentaryLine
}

// StateMessage is the game state of a session after a cycle that changed
// it: the current state of every tracked entity.
type StateMessage struct {
	SessionID string                  `json:"session_id"`
	Timestamp time.Time               `json:"timestamp"`
	Entities  []event.ClassifiedEvent `json:"entities"`
}

// Publisher sends commentary lines to <prefix>/<session>/commentary and
// game state, retained, to <prefix>/<session>/state.
type Publisher struct {
	opts   Options
	client Client

	mu        sync.Mutex
	published uint64
	errors    uint64
}

// Stats are publisher counters.
type Stats struct {
	Connected bool   `json:"connected"`
	Published uint64 `json:"published"`
	Errors    uint64 `json:"errors"`
}

// Connect dials the broker and returns a ready publisher.
func Connect(opts Options) (*Publisher, error) {
	if opts.Broker == "" {
		return nil, errors.New("mqtt broker is empty")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetAutoReconnect(true)
	co.SetConnectRetryInterval(2 * time.Second)
	co.SetMaxReconnectInterval(30 * time.Second)
	co.OnConnect = func(mqtt.Client) {
		slog.Info("mqtt connection established", "broker", opts.Broker, "client_id", opts.ClientID)
	}
	co.OnConnectionLost = func(_ mqtt.Client, err error) {
		slog.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", opts.Broker)
	}

	client := mqtt.NewClient(co)
	slog.Info("connecting to mqtt broker", "broker", opts.Broker)
	token := client.Connect()
	if !token.WaitTimeout(opts.Timeout) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	return NewPublisher(client, opts), nil
}

// NewPublisher wraps an already connected client.
func NewPublisher(client Client, opts Options) *Publisher {
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "valo"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Publisher{opts: opts, client: client}
}

// Topic returns the commentary topic for a session.
func (p *Publisher) Topic(sessionID string) string {
	return fmt.Sprintf("%s/%s/commentary", p.opts.TopicPrefix, sessionID)
}

// StateTopic returns the game state topic for a session.
func (p *Publisher) StateTopic(sessionID string) string {
	return fmt.Sprintf("%s/%s/state", p.opts.TopicPrefix, sessionID)
}

// Publish sends one line. It blocks until the broker acknowledges the
// message or the timeout elapses.
func (p *Publisher) Publish(sessionID string, line event.CommentaryLine) error {
	n, err := p.send(p.Topic(sessionID), false, Message{SessionID: sessionID, CommentaryLine: line})
	if err != nil {
		return err
	}
	slog.Debug("commentary published", "session", sessionID, "seq", line.Seq, "size", n)
	return nil
}

// PublishState sends the current entity states of a session. The message
// is retained so late subscribers start from the latest state.
func (p *Publisher) PublishState(sessionID string, ts time.Time, entities []event.ClassifiedEvent) error {
	if entities == nil {
		entities = []event.ClassifiedEvent{}
	}
	n, err := p.send(p.StateTopic(sessionID), true, StateMessage{SessionID: sessionID, Timestamp: ts, Entities: entities})
	if err != nil {
		return err
	}
	slog.Debug("game state published", "session", sessionID, "entities", len(entities), "size", n)
	return nil
}

func (p *Publisher) send(topic string, retained bool, v any) (int, error) {
	if !p.client.IsConnected() {
		p.fail()
		return 0, ErrNotConnected
	}

	payload, err := json.Marshal(v)
	if err != nil {
		p.fail()
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	token := p.client.Publish(topic, p.opts.QoS, retained, payload)
	if !token.WaitTimeout(p.opts.Timeout) {
		p.fail()
		return 0, fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		p.fail()
		return 0, fmt.Errorf("publish failed: %w", err)
	}

	p.mu.Lock()
	p.published++
	p.mu.Unlock()
	return len(payload), nil
}

func (p *Publisher) fail() {
	p.mu.Lock()
	p.errors++
	p.mu.Unlock()
}

// Stats returns publisher counters.
func (p *Publisher) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Connected: p.client.IsConnected(), Published: p.published, Errors: p.errors}
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		slog.Info("mqtt disconnected")
	}
	return nil
}
