// Package notifier publishes notification events for the delivery service to
// fan out (push, email). The core only decides that and what to send.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const exchange = "notifications"

type Event struct {
	UserID   uint   `json:"user_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
	SentAt   string `json:"sent_at"`
}

// Producer publishes notification events to a RabbitMQ topic exchange with
// routing key "notification.<category>".
type Producer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewProducer(amqpURL string) (*Producer, error) {
	conn, err := amqp.DialConfig(amqpURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Producer{
		conn:    conn,
		channel: channel,
	}, nil
}

func (p *Producer) Notify(ctx context.Context, userID uint, title, body, category string) error {
	payload, err := json.Marshal(Event{
		UserID:   userID,
		Title:    title,
		Body:     body,
		Category: category,
		SentAt:   time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	routingKey := "notification." + category

	return p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
}

func (p *Producer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Fallback logs events instead of publishing them, so the service can start
// when RabbitMQ is unavailable.
type Fallback struct {
	Logger *zap.Logger
}

func (f *Fallback) Notify(_ context.Context, userID uint, title, body, category string) error {
	f.Logger.Info("notification (fallback)",
		zap.Uint("userID", userID),
		zap.String("title", title),
		zap.String("body", body),
		zap.String("category", category))

	return nil
}

func (f *Fallback) Close() {}
