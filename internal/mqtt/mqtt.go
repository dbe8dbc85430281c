package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/supacortex/desktop/internal/config"
	"github.com/supacortex/desktop/internal/events"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 5 * time.Second
)

// Sink mirrors UI events to an MQTT broker, one topic per event kind under
// a common prefix. The connection is kept open and reconnects on its own.
type Sink struct {
	client pahomqtt.Client
	prefix string
	qos    byte
	log    *slog.Logger
}

var _ events.Sink = (*Sink)(nil)

// NewSink connects to the broker described by cfg. The first connection
// must succeed; later drops are handled by the client's auto-reconnect.
func NewSink(cfg config.Mirror, log *slog.Logger) (*Sink, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(sessionClientID(cfg.ClientID)).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warn("mqtt: connection lost", "broker", cfg.Broker, "error", err)
	})

	client := pahomqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt: connect timeout")
	}
	if tok.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", tok.Error())
	}

	return &Sink{
		client: client,
		prefix: strings.TrimRight(cfg.Topic, "/"),
		qos:    cfg.QoS,
		log:    log,
	}, nil
}

// sessionClientID suffixes base so two running instances never share a
// broker session.
func sessionClientID(base string) string {
	return base + "-" + uuid.NewString()[:8]
}

// Topic returns the topic an event kind is published to.
func Topic(prefix, kind string) string {
	return strings.TrimRight(prefix, "/") + "/" + kind
}

// Publish sends the event without waiting for the broker. Delivery
// failures are logged.
func (s *Sink) Publish(kind string, payload any) {
	msg, err := encode(payload)
	if err != nil {
		s.log.Warn("mqtt: encode payload", "kind", kind, "error", err)
		return
	}
	topic := Topic(s.prefix, kind)
	tok := s.client.Publish(topic, s.qos, false, msg)
	go func() {
		if !tok.WaitTimeout(publishTimeout) {
			s.log.Warn("mqtt: publish timeout", "topic", topic)
			return
		}
		if tok.Error() != nil {
			s.log.Warn("mqtt: publish", "topic", topic, "error", tok.Error())
		}
	}()
}

// Close disconnects, allowing 250ms for in-flight messages.
func (s *Sink) Close() {
	s.client.Disconnect(250)
}

// encode turns a payload into message bytes. Strings are sent as-is so
// stream data stays byte-identical to what the server produced.
func encode(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case nil:
		return []byte{}, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}
