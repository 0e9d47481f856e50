package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dinerhub/internal/caching"
	"dinerhub/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// TopicStaff receives every order event for the back office.
const TopicStaff = "staff"

// EventPublisher fans an event out to live subscribers and, when configured,
// to the Kafka event log.
type EventPublisher interface {
	Publish(ctx context.Context, topic, eventType string, payload any) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type eventPublisher struct {
	cacheSvc caching.CacheService
	writer   messageWriter
	logger   *slog.Logger
}

// NewKafkaWriter returns nil when no brokers are configured.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if len(brokers) == 0 {
		return nil
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

func NewEventPublisher(cacheSvc caching.CacheService, writer *kafka.Writer, logger *slog.Logger) EventPublisher {
	p := &eventPublisher{cacheSvc: cacheSvc, logger: logger}
	if writer != nil {
		p.writer = writer
	}
	return p
}

func (p *eventPublisher) Publish(ctx context.Context, topic, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	event := models.Event{
		ID:        uuid.New(),
		Type:      eventType,
		Topic:     topic,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if err := p.cacheSvc.Publish(ctx, topic, data); err != nil {
		errs = append(errs, fmt.Errorf("redis publish: %w", err))
	}
	if p.writer != nil {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.writer.WriteMessages(writeCtx, kafka.Message{Key: []byte(topic), Value: data}); err != nil {
			errs = append(errs, fmt.Errorf("kafka write: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (p *eventPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
