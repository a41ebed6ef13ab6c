package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/deployer/internal/domain"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeReleaseStarted  MessageType = "release.started"
	MessageTypeStepCompleted   MessageType = "release.step"
	MessageTypeReleaseFinished MessageType = "release.finished"
)

// Publisher публикует события release в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// ReleasePayload — payload для release.started и release.finished.
type ReleasePayload struct {
	ReleaseID   uuid.UUID `json:"release_id"`
	Environment string    `json:"environment"`
	Project     string    `json:"project"`
	GitRef      string    `json:"git_ref"`
	Ref         string    `json:"ref,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	DurationMs  int64     `json:"duration_ms,omitempty"`
}

// NewReleasePayload строит payload из release.
func NewReleasePayload(r *domain.Release) ReleasePayload {
	return ReleasePayload{
		ReleaseID:   r.ID,
		Environment: r.Environment,
		Project:     r.Project,
		GitRef:      r.GitRef,
		Ref:         r.Ref,
		Status:      string(r.Status),
		Error:       r.Error,
		DurationMs:  r.Duration().Milliseconds(),
	}
}

// StepPayload — payload для release.step.
type StepPayload struct {
	ReleaseID  uuid.UUID `json:"release_id"`
	Step       string    `json:"step"`
	Host       string    `json:"host"`
	Status     string    `json:"status"` // SUCCEEDED или FAILED
	ExitStatus int       `json:"exit_status"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// NewStepPayload строит payload из результата шага.
func NewStepPayload(releaseID uuid.UUID, s *domain.StepResult) StepPayload {
	return StepPayload{
		ReleaseID:  releaseID,
		Step:       s.Step,
		Host:       s.Host,
		Status:     string(s.Status),
		ExitStatus: s.ExitStatus,
		Error:      s.Error,
		DurationMs: s.Duration().Milliseconds(),
	}
}

// newPublishing сериализует сообщение в AMQP publishing.
func newPublishing(msg *Message) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         string(msg.Type),
		Timestamp:    msg.Timestamp,
		Body:         body,
	}, nil
}

// Publish публикует сообщение и ждёт подтверждения брокера.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	publishing, err := newPublishing(msg)
	if err != nil {
		return err
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		confirm, err := ch.PublishWithDeferredConfirmWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			publishing,
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		if confirm != nil {
			acked, err := confirm.WaitContext(ctx)
			if err != nil {
				return fmt.Errorf("wait confirm %s/%s: %w", exchange, routingKey, err)
			}
			if !acked {
				return fmt.Errorf("publish to %s/%s: nacked by broker", exchange, routingKey)
			}
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishReleaseStarted публикует событие о начале release.
func (p *Publisher) PublishReleaseStarted(ctx context.Context, release *domain.Release) error {
	msg := NewMessage(MessageTypeReleaseStarted, NewReleasePayload(release))
	return p.Publish(ctx, ExchangeReleases, RoutingKeyStarted, msg)
}

// PublishStepCompleted публикует результат шага на хосте.
func (p *Publisher) PublishStepCompleted(ctx context.Context, releaseID uuid.UUID, result *domain.StepResult) error {
	msg := NewMessage(MessageTypeStepCompleted, NewStepPayload(releaseID, result))
	return p.Publish(ctx, ExchangeReleases, RoutingKeyStep, msg)
}

// PublishReleaseFinished публикует итог release.
func (p *Publisher) PublishReleaseFinished(ctx context.Context, release *domain.Release) error {
	msg := NewMessage(MessageTypeReleaseFinished, NewReleasePayload(release))
	return p.Publish(ctx, ExchangeReleases, RoutingKeyFinished, msg)
}
