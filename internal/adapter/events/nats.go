// internal/adapter/events/nats.go

package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"mirror/internal/domain/trend"
)

// DefaultTopic is the subject prefix for analysis events
const DefaultTopic = "trending.analysis"

// publisher is the part of *nats.Conn used here
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes analysis events on the NATS bus
type NATSPublisher struct {
	conn  publisher
	topic string
}

// NewNATSPublisher creates a publisher for topic; an empty topic selects DefaultTopic
func NewNATSPublisher(conn *nats.Conn, topic string) *NATSPublisher {
	return newPublisher(conn, topic)
}

func newPublisher(conn publisher, topic string) *NATSPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &NATSPublisher{conn: conn, topic: topic}
}

// CompletedSubject is the subject analysis-completed events go to
func CompletedSubject(topic string) string {
	if topic == "" {
		topic = DefaultTopic
	}
	return fmt.Sprintf("%s.completed", topic)
}

// PublishAnalysis publishes event to <topic>.completed
func (p *NATSPublisher) PublishAnalysis(ctx context.Context, event trend.AnalysisEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis event: %w", err)
	}

	subject := CompletedSubject(p.topic)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}
