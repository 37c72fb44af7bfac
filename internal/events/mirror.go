// Package events republishes the daemon's bus events to NATS so external
// consumers (kitchen displays, analytics) get the same change feed the
// in-process subscribers do. The mirror is optional: without a configured
// URL the daemon runs with in-process notifications only.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pedeai/pedeai/internal/bus"
	"go.uber.org/zap"
)

// Mirror forwards bus events to NATS subjects of the form
// pedeai.<restaurant>.<kind>.
type Mirror struct {
	conn   *nats.Conn
	bus    *bus.Bus
	logger *zap.Logger
	prefix string
	cancel context.CancelFunc
}

// envelope is the wire form of a mirrored event.
type envelope struct {
	Kind       string `json:"kind"`
	OccurredAt int64  `json:"occurredAtUnixMs"`
	Payload    any    `json:"payload,omitempty"`
}

// NewMirror connects to NATS. Callers treat a connection error as
// "mirroring disabled", not as a daemon failure.
func NewMirror(url, restaurantID string, b *bus.Bus, logger *zap.Logger) (*Mirror, error) {
	conn, err := nats.Connect(url,
		nats.Name("pedeaid"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Mirror{
		conn:   conn,
		bus:    b,
		logger: logger,
		prefix: "pedeai." + subjectToken(restaurantID),
	}, nil
}

// Start subscribes to every bus event and republishes it.
func (m *Mirror) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	ch, unsub := m.bus.Subscribe("", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				m.forward(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops forwarding and drains the connection.
func (m *Mirror) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.conn != nil {
		_ = m.conn.Drain()
	}
}

func (m *Mirror) forward(evt bus.Event) {
	data, err := json.Marshal(envelope{
		Kind:       evt.Kind,
		OccurredAt: evt.Timestamp.UnixMilli(),
		Payload:    evt.Payload,
	})
	if err != nil {
		m.logger.Warn("skip unmarshalable event", zap.String("kind", evt.Kind), zap.Error(err))
		return
	}
	subject := m.prefix + "." + evt.Kind
	if err := m.conn.Publish(subject, data); err != nil {
		m.logger.Warn("nats publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// subjectToken makes an identifier safe to use as one NATS subject token.
func subjectToken(s string) string {
	if s == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
