// Package events publishes domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/richxcame/postguard/pkg/logger"
	"go.uber.org/zap"
)

// SubjectAccountEscalated carries AccountEscalated events
const SubjectAccountEscalated = "postguard.accounts.escalated"

// AccountEscalated is emitted when an account moves from Safe to Red
type AccountEscalated struct {
	Username    string    `json:"username"`
	FraudCount  int       `json:"fraud_count"`
	PostID      int64     `json:"post_id"`
	EscalatedAt time.Time `json:"escalated_at"`
}

// Publisher emits domain events
type Publisher interface {
	PublishAccountEscalated(ctx context.Context, event AccountEscalated) error
	Close() error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) PublishAccountEscalated(ctx context.Context, event AccountEscalated) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes events as JSON messages
type NATSPublisher struct {
	conn conn
}

// New returns a NATS publisher for url, or a NoopPublisher when url is empty
func New(url, clientName string) (Publisher, error) {
	if url == "" {
		return NoopPublisher{}, nil
	}
	return NewNATSPublisher(url, clientName)
}

// NewNATSPublisher connects to NATS
func NewNATSPublisher(url, clientName string) (*NATSPublisher, error) {
	log := logger.Get()

	nc, err := nats.Connect(url,
		nats.Name(clientName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATSPublisher{conn: nc}, nil
}

// PublishAccountEscalated implements Publisher
func (p *NATSPublisher) PublishAccountEscalated(ctx context.Context, event AccountEscalated) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.conn.Publish(SubjectAccountEscalated, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", SubjectAccountEscalated, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
