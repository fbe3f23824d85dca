package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPSender publishes notification events to a topic exchange; the routing
// key is the notification kind.
type AMQPSender struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	log      *zap.Logger
}

type event struct {
	Kind      Kind           `json:"kind"`
	Recipient string         `json:"recipient"`
	Data      map[string]any `json:"data,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
}

func NewAMQPSender(amqpURL, exchange string, log *zap.Logger) (*AMQPSender, error) {
	conn, err := amqp091.DialConfig(amqpURL, amqp091.Config{
		Dial: amqp091.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPSender{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log.With(zap.String("component", "notifier")),
	}, nil
}

func (s *AMQPSender) Send(ctx context.Context, kind Kind, recipient string, data map[string]any) error {
	body, err := json.Marshal(event{
		Kind:      kind,
		Recipient: recipient,
		Data:      data,
		SentAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = s.channel.PublishWithContext(pubCtx, s.exchange, string(kind), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification %s: %w", string(kind), err)
	}

	s.log.Debug("Notification published",
		zap.String("kind", string(kind)),
		zap.String("recipient", recipient),
	)

	return nil
}

func (s *AMQPSender) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

// NopSender is used when the broker is unavailable at startup so the engine
// keeps working without notifications.
type NopSender struct {
	log *zap.Logger
}

func NewNopSender(log *zap.Logger) *NopSender {
	return &NopSender{log: log.With(zap.String("component", "notifier"))}
}

func (s *NopSender) Send(ctx context.Context, kind Kind, recipient string, data map[string]any) error {
	s.log.Warn("Notification skipped: broker unavailable",
		zap.String("kind", string(kind)),
		zap.String("recipient", recipient),
	)
	return nil
}

func (s *NopSender) Close() {}
