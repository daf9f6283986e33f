package transport

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
)

type fakeToken struct {
	done    chan struct{}
	timeout bool
	err     error
}

func newToken(timeout bool, err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), timeout: timeout, err: err}
	if !timeout {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	connected    bool
	timeout      bool
	err          error
	sent         []published
	disconnected bool
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic, qos, retained, payload.([]byte)})
	return newToken(c.timeout, c.err)
}

func (c *fakeClient) Disconnect(uint) {
	c.disconnected = true
	c.connected = false
}

func TestPublisher_Publish(t *testing.T) {
	client := &fakeClient{connected: true}
	p := NewPublisher(client, Options{TopicPrefix: "casts", QoS: 1})

	line := event.CommentaryLine{Seq: 1, Text: "Spike is down!", Caster: event.Hype, Style: event.Excitement}
	if err := p.Publish("abc", line); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("sent %d messages", len(client.sent))
	}
	msg := client.sent[0]
	if msg.topic != "casts/abc/commentary" || msg.qos != 1 || msg.retained {
		t.Errorf("topic/qos: got %s/%d", msg.topic, msg.qos)
	}

	var got map[string]any
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatal(err)
	}
	if got["session_id"] != "abc" || got["text"] != "Spike is down!" || got["caster"] != "hype" {
		t.Errorf("payload: %s", msg.payload)
	}
	if s := p.Stats(); s.Published != 1 || s.Errors != 0 || !s.Connected {
		t.Errorf("stats: %+v", s)
	}
}

func TestPublisher_PublishState(t *testing.T) {
	client := &fakeClient{connected: true}
	p := NewPublisher(client, Options{})
	ts := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

	entities := []event.ClassifiedEvent{
		{Kind: event.ScoreUpdate, Subject: "score", Region: "score-display", Attributes: map[string]string{"team1": "5", "team2": "3"}},
		{Kind: event.RoundPhaseChange, Subject: "round", Region: "round-timer", Attributes: map[string]string{"phase": "buy"}},
	}
	if err := p.PublishState("abc", ts, entities); err != nil {
		t.Fatalf("PublishState: %v", err)
	}
	msg := client.sent[0]
	if msg.topic != "valo/abc/state" || !msg.retained {
		t.Errorf("topic %s retained %v", msg.topic, msg.retained)
	}

	var got StateMessage
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatal(err)
	}
	if got.SessionID != "abc" || !got.Timestamp.Equal(ts) || len(got.Entities) != 2 {
		t.Fatalf("payload: %s", msg.payload)
	}
	if got.Entities[1].Attributes["phase"] != "buy" {
		t.Errorf("entity: %+v", got.Entities[1])
	}

	if err := p.PublishState("abc", ts, nil); err != nil {
		t.Fatal(err)
	}
	var empty map[string]any
	if err := json.Unmarshal(client.sent[1].payload, &empty); err != nil {
		t.Fatal(err)
	}
	if ents, ok := empty["entities"].([]any); !ok || len(ents) != 0 {
		t.Errorf("entities should be an empty list: %s", client.sent[1].payload)
	}
}

func TestPublisher_Failures(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{"disconnected", &fakeClient{}},
		{"timeout", &fakeClient{connected: true, timeout: true}},
		{"broker error", &fakeClient{connected: true, err: errors.New("not authorized")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(tt.client, Options{})
			if err := p.Publish("s", event.CommentaryLine{Text: "x"}); err == nil {
				t.Fatal("expected error")
			}
			if s := p.Stats(); s.Errors != 1 || s.Published != 0 {
				t.Errorf("stats: %+v", s)
			}
		})
	}
}

func TestPublisher_DefaultsAndClose(t *testing.T) {
	client := &fakeClient{connected: true}
	p := NewPublisher(client, Options{})
	if got := p.Topic("s1"); got != "valo/s1/commentary" {
		t.Errorf("Topic: got %s", got)
	}
	p.Close()
	if !client.disconnected {
		t.Error("Close did not disconnect")
	}
}

func TestConnect_EmptyBroker(t *testing.T) {
	if _, err := Connect(Options{}); err == nil {
		t.Error("expected error for empty broker")
	}
}
