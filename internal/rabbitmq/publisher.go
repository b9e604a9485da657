package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subbers/internal/models"
)

// Channel часть amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage сериализует message в JSON и публикует его как persistent-сообщение.
func PublishMessage(ch Channel, exchange, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует напоминания в очередь отправителя.
type Publisher struct {
	ch Channel
}

// NewPublisher создаёт Publisher поверх канала.
func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Notify публикует напоминание с ключом ReminderRoutingKey.
func (p *Publisher) Notify(ctx context.Context, r models.Reminder) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rabbitmq.Notify: %w", err)
	}
	return PublishMessage(p.ch, Exchange, ReminderRoutingKey, r)
}
