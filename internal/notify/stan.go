package notify

import (
	"context"
	"encoding/json"
	"fmt"

	stan "github.com/nats-io/stan.go"
)

// Publisher is the part of a stan.Conn used by StanNotifier.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// StanNotifier publishes messages as JSON to a NATS Streaming subject.
type StanNotifier struct {
	conn    Publisher
	closer  func() error
	subject string
}

// StanConfig holds the NATS Streaming connection settings.
type StanConfig struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string
}

// DialStan connects to NATS Streaming.
func DialStan(cfg StanConfig) (*StanNotifier, error) {
	sc, err := stan.Connect(cfg.ClusterID, cfg.ClientID, stan.NatsURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("stan connect: %w", err)
	}
	return &StanNotifier{conn: sc, closer: sc.Close, subject: cfg.Subject}, nil
}

// NewStanNotifier wraps an existing publisher.
func NewStanNotifier(p Publisher, subject string) *StanNotifier {
	return &StanNotifier{conn: p, subject: subject}
}

// Notify implements Notifier.
func (n *StanNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.conn.Publish(n.subject, b); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	return nil
}

// Close closes the underlying connection when the notifier owns it.
func (n *StanNotifier) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer()
}
