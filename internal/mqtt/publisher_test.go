package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"skyboard/internal/modules/weather/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// doneToken is an already-completed paho token.
type doneToken struct {
	err  error
	done chan struct{}
}

func newDoneToken(err error) *doneToken {
	ch := make(chan struct{})
	close(ch)
	return &doneToken{err: err, done: ch}
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

// pendingToken never completes.
type pendingToken struct{ doneToken }

func (t *pendingToken) Done() <-chan struct{} { return make(chan struct{}) }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	mqtt.Client
	connected  bool
	publishErr error
	pending    bool
	got        []published
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.got = append(c.got, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	if c.pending {
		return &pendingToken{}
	}
	return newDoneToken(c.publishErr)
}

func (c *fakeClient) Connect() mqtt.Token { return newDoneToken(nil) }
func (c *fakeClient) Disconnect(uint)     { c.connected = false }

func newTestPublisher(c *fakeClient) *Publisher {
	return &Publisher{
		client:    c,
		topic:     "skyboard/snapshots",
		logger:    slog.New(slog.DiscardHandler),
		now:       func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) },
		connected: true,
		stopCh:    make(chan struct{}),
	}
}

var london = types.WeatherSnapshot{Name: "London", Country: "GB", Temp: 15.6}

func TestPublishSnapshot(t *testing.T) {
	c := &fakeClient{connected: true}
	p := newTestPublisher(c)

	if err := p.PublishSnapshot(context.Background(), london); err != nil {
		t.Fatalf("PublishSnapshot: %v", err)
	}
	if len(c.got) != 1 {
		t.Fatalf("published = %d; want 1", len(c.got))
	}
	msg := c.got[0]
	if msg.topic != "skyboard/snapshots/gb/london" || msg.qos != 1 || !msg.retained {
		t.Errorf("publish = %q qos %d retained %v", msg.topic, msg.qos, msg.retained)
	}

	var decoded SnapshotMessage
	if err := json.Unmarshal(msg.payload, &decoded); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if decoded.Snapshot != london || !decoded.FetchedAt.Equal(p.now()) {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestPublishSnapshot_Errors(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		c := &fakeClient{connected: false}
		if err := newTestPublisher(c).PublishSnapshot(context.Background(), london); !errors.Is(err, ErrNotConnected) {
			t.Errorf("err = %v; want ErrNotConnected", err)
		}
		if len(c.got) != 0 {
			t.Error("published while disconnected")
		}
	})

	t.Run("broker error", func(t *testing.T) {
		brokerErr := errors.New("not authorized")
		c := &fakeClient{connected: true, publishErr: brokerErr}
		if err := newTestPublisher(c).PublishSnapshot(context.Background(), london); !errors.Is(err, brokerErr) {
			t.Errorf("err = %v; want %v", err, brokerErr)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		c := &fakeClient{connected: true, pending: true}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := newTestPublisher(c).PublishSnapshot(ctx, london); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v; want context.Canceled", err)
		}
	})
}

func TestDisconnect(t *testing.T) {
	c := &fakeClient{connected: true}
	p := newTestPublisher(c)

	p.Disconnect()
	p.Disconnect()

	if p.IsConnected() {
		t.Error("still connected after Disconnect")
	}
	if err := p.Connect(context.Background()); err == nil {
		t.Error("Connect after Disconnect succeeded")
	}
}

func TestSnapshotTopic(t *testing.T) {
	tests := []struct {
		name, country, want string
	}{
		{"London", "GB", "base/gb/london"},
		{"New York", "US", "base/us/new-york"},
		{"São Paulo", "BR", "base/br/são-paulo"},
		{"a/+/#b", "", "base/unknown/a-b"},
		{"  Dubai  ", "AE", "base/ae/dubai"},
	}
	for _, tt := range tests {
		got := SnapshotTopic("base", types.WeatherSnapshot{Name: tt.name, Country: tt.country})
		if got != tt.want {
			t.Errorf("SnapshotTopic(%q, %q) = %q; want %q", tt.name, tt.country, got, tt.want)
		}
	}
}
