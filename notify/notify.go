// Package notify publishes ticket lifecycle events to a RabbitMQ fanout
// exchange for external integrations. The publisher is optional: a nil
// *Publisher is a no-op, and publish failures never block a transition.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ticket-bot/ticket"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventOpened   = "ticket.opened"
	EventClaimed  = "ticket.claimed"
	EventClosed   = "ticket.closed"
	EventReopened = "ticket.reopened"
	EventDeleted  = "ticket.deleted"
)

// Event is the wire payload, one per lifecycle transition.
type Event struct {
	Type      string        `json:"type"`
	Actor     string        `json:"actor"`
	Ticket    ticket.Ticket `json:"ticket"`
	Timestamp time.Time     `json:"timestamp"`
}

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// New connects and declares the fanout exchange.
func New(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends one event. Failures are logged and swallowed.
func (p *Publisher) Publish(eventType, actorID string, t ticket.Ticket) {
	if p == nil {
		return
	}

	body, err := json.Marshal(Event{
		Type:      eventType,
		Actor:     actorID,
		Ticket:    t,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[notify] Failed to encode %s event: %v", eventType, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, eventType, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		log.Printf("[notify] Failed to publish %s event: %v", eventType, err)
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	_ = p.ch.Close()
	_ = p.conn.Close()
}
