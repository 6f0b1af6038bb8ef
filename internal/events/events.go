// Package events publishes domain events for completed pipeline runs so other services
// (notifications, dashboards) can react without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Event types.
const (
	TypeQuizGenerated       = "quiz.generated"
	TypeEvaluationCompleted = "evaluation.completed"
	TypePlagiarismChecked   = "plagiarism.checked"
	TypePlagiarismFlagged   = "plagiarism.flagged"
	TypeAssignmentsDrafted  = "assignments.drafted"
	TypeLearningPath        = "learning_path.generated"
)

// Event is the envelope written to every transport.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Source     string      `json:"source"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

type subjectPublisher interface {
	Publish(subject string, data []byte) error
}

// Broker fans events out to NATS and, when configured, a Redis pub/sub channel.
type Broker struct {
	nats   subjectPublisher
	redis  *redis.Client
	prefix string
	nodeID string
	logger zerolog.Logger
}

// NewBroker builds a broker. Either transport may be nil.
func NewBroker(natsConn *nats.Conn, redisClient *redis.Client, prefix string, logger zerolog.Logger) *Broker {
	var subject subjectPublisher
	if natsConn != nil {
		subject = natsConn
	}
	return newBroker(subject, redisClient, prefix, logger)
}

func newBroker(subject subjectPublisher, redisClient *redis.Client, prefix string, logger zerolog.Logger) *Broker {
	return &Broker{
		nats:   subject,
		redis:  redisClient,
		prefix: strings.TrimSuffix(prefix, "."),
		nodeID: uuid.NewString(),
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Subject returns the NATS subject (and Redis channel) an event type is published on.
func (b *Broker) Subject(eventType string) string {
	if b.prefix == "" {
		return eventType
	}
	return b.prefix + "." + eventType
}

// Publish encodes the event once and writes it to every configured transport.
func (b *Broker) Publish(ctx context.Context, eventType string, payload interface{}) error {
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     b.nodeID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	subject := b.Subject(eventType)

	if b.nats != nil {
		if err := b.nats.Publish(subject, data); err != nil {
			return fmt.Errorf("publish %s to nats: %w", subject, err)
		}
	}

	if b.redis != nil {
		if err := b.redis.Publish(ctx, subject, data).Err(); err != nil {
			return fmt.Errorf("publish %s to redis: %w", subject, err)
		}
	}

	b.logger.Debug().Str("subject", subject).Str("event_id", event.ID).Msg("event published")
	return nil
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, interface{}) error {
	return nil
}
