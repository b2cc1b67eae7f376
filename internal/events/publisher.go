// Package events publishes domain events to RabbitMQ so downstream consumers
// (attendance dashboards, projection room displays) can react to bookings
// without coupling to the API process.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	TicketIssuedQueue    = "ticket.issued"
	TicketCancelledQueue = "ticket.cancelled"
)

type TicketIssuedEvent struct {
	TicketID   uuid.UUID `json:"ticketId"`
	UserID     int       `json:"userId"`
	ShowtimeID int       `json:"showtimeId"`
	Seat       string    `json:"seat"`
	Free       bool      `json:"free"`
	IssuedAt   time.Time `json:"issuedAt"`
}

type TicketCancelledEvent struct {
	TicketID    uuid.UUID `json:"ticketId"`
	UserID      int       `json:"userId"`
	ShowtimeID  int       `json:"showtimeId"`
	Seat        string    `json:"seat"`
	CancelledAt time.Time `json:"cancelledAt"`
}

type Publisher interface {
	PublishTicketIssued(ctx context.Context, event TicketIssuedEvent) error
	PublishTicketCancelled(ctx context.Context, event TicketCancelledEvent) error
	Close() error
}

type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the ticket queues. Queues
// are durable and messages are marked persistent so events survive broker
// restarts.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	for _, queue := range []string{TicketIssuedQueue, TicketCancelledQueue} {
		_, err = ch.QueueDeclare(queue, true, false, false, false, nil)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}

	return &AMQPPublisher{
		conn: conn,
		ch:   ch,
	}, nil
}

func (p *AMQPPublisher) PublishTicketIssued(ctx context.Context, event TicketIssuedEvent) error {
	return p.publish(ctx, TicketIssuedQueue, event)
}

func (p *AMQPPublisher) PublishTicketCancelled(ctx context.Context, event TicketCancelledEvent) error {
	return p.publish(ctx, TicketCancelledQueue, event)
}

func (p *AMQPPublisher) publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(
		ctx,
		"",
		queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	return errors.Join(p.ch.Close(), p.conn.Close())
}
