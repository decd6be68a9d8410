// Package mqtt publishes every fetched weather snapshot to an MQTT broker so
// other consumers can follow what the dashboard looks up.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"skyboard/internal/config"
	"skyboard/internal/modules/weather/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

var (
	ErrNotConnected = errors.New("mqtt client not connected")
	errStopped      = errors.New("publisher stopped")
)

// SnapshotMessage is the JSON payload of one publication.
type SnapshotMessage struct {
	FetchedAt time.Time             `json:"fetched_at"`
	Snapshot  types.WeatherSnapshot `json:"snapshot"`
}

type Publisher struct {
	client    mqtt.Client
	topic     string
	logger    *slog.Logger
	now       func() time.Time
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	p := &Publisher{
		topic:  strings.TrimRight(cfg.MQTTTopic, "/"),
		logger: logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the first connection to the broker. It gives up when
// ctx is done or Disconnect is called; paho keeps retrying in the
// background either way.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return errStopped
	default:
	}
	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopCh:
		return errStopped
	}
}

// PublishSnapshot sends s to <topic>/<country>/<city> with QoS 1, retained,
// so a new subscriber sees the latest reading per city.
func (p *Publisher) PublishSnapshot(ctx context.Context, s types.WeatherSnapshot) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}

	topic := SnapshotTopic(p.topic, s)
	data, err := json.Marshal(SnapshotMessage{FetchedAt: p.now().UTC(), Snapshot: s})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	token := p.client.Publish(topic, 1, true, data)
	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("publish timeout for topic %s", topic)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	p.logger.Debug("published snapshot", "topic", topic, "city", s.Name)
	return nil
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect is idempotent. After it, Connect fails.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

// SnapshotTopic builds <base>/<country>/<city> from lower-cased slugs.
func SnapshotTopic(base string, s types.WeatherSnapshot) string {
	country := slug(s.Country)
	if country == "" {
		country = "unknown"
	}
	return base + "/" + country + "/" + slug(s.Name)
}

// slug keeps letters and digits, folding everything else into single dashes.
// MQTT wildcards and separators never survive.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
