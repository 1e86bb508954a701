package events

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSSubscriber delivers analysis-completed payloads from NATS
type NATSSubscriber struct {
	conn  *nats.Conn
	topic string
}

// NewNATSSubscriber creates a subscriber for topic; an empty topic selects DefaultTopic
func NewNATSSubscriber(conn *nats.Conn, topic string) *NATSSubscriber {
	return &NATSSubscriber{conn: conn, topic: topic}
}

// SubscribeAnalyses calls handler with every raw event until unsubscribe is called
func (s *NATSSubscriber) SubscribeAnalyses(handler func(data []byte)) (func(), error) {
	subject := CompletedSubject(s.topic)
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
