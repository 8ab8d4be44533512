// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/voltixaudit/voltix/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	TypeAuditCompleted = "audit.completed"
	schemaVersion      = "1"
)

// AuditCompleted is emitted once an audit run has been committed.
type AuditCompleted struct {
	ResultID        string    `json:"result_id"`
	ProjectID       string    `json:"project_id"`
	UserID          string    `json:"user_id"`
	EnergyClass     string    `json:"energy_class"`
	Score           int       `json:"score"`
	AnnualKWh       float64   `json:"annual_kwh"`
	AnnualCost      float64   `json:"annual_cost"`
	AnnualCO2Kg     float64   `json:"annual_co2_kg"`
	Country         string    `json:"country"`
	Recommendations int       `json:"recommendations"`
	CalculatedAt    time.Time `json:"calculated_at"`
}

type envelope struct {
	Type          string `json:"type"`
	SchemaVersion string `json:"schema_version"`
	Data          any    `json:"data"`
}

type Publisher interface {
	PublishAuditCompleted(ctx context.Context, event AuditCompleted) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func newKafkaPublisher(writer messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

func (p *KafkaPublisher) PublishAuditCompleted(ctx context.Context, event AuditCompleted) error {
	payload, err := json.Marshal(envelope{
		Type:          TypeAuditCompleted,
		SchemaVersion: schemaVersion,
		Data:          event,
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", TypeAuditCompleted, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ProjectID),
		Value: payload,
		Time:  event.CalculatedAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeAuditCompleted)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

func (noopPublisher) PublishAuditCompleted(context.Context, AuditCompleted) error { return nil }

// Noop discards every event.
func Noop() Publisher { return noopPublisher{} }

// NewPublisher returns a Kafka publisher, or a no-op one when no broker is configured.
func NewPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Publisher {
	log = log.Named("events")
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka brokers not configured, audit events disabled")
		return Noop()
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Brokers...),
		Topic:                  cfg.Kafka.AuditTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	pub := newKafkaPublisher(writer, cfg.Kafka.AuditTopic)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
	log.Info("kafka publisher ready",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.AuditTopic),
	)
	return pub
}

var Module = fx.Module("events",
	fx.Provide(NewPublisher),
)
