package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"saldo/internal/log"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Direct exchange: routing key is the queue name.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	// One export at a time per consumer.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// PublishLedgerExport enqueues an export job for accountID.
func (c *Client) PublishLedgerExport(ctx context.Context, accountID string) error {
	msg := NewLedgerExportMessage(accountID)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.RequestedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	log.For(log.ComponentAMQP).InfoContext(ctx, "Published ledger export message",
		log.FieldAccountID, accountID,
		"exchange", c.exchangeName,
		log.FieldQueue, c.queueName)

	return nil
}

// ConsumeLedgerExports delivers export jobs to handler until ctx is done. A job
// whose handler fails is requeued once; a second failure drops it.
func (c *Client) ConsumeLedgerExports(ctx context.Context, handler func(context.Context, *LedgerExportMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logger := log.For(log.ComponentAMQP)
	logger.InfoContext(ctx, "Started consuming ledger export messages",
		log.FieldOperation, log.OpConsume,
		log.FieldQueue, c.queueName)

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return ErrChannelClosed
			}
			switch handleDelivery(ctx, delivery.Body, delivery.Redelivered, handler) {
			case ack:
				delivery.Ack(false)
			case requeue:
				delivery.Nack(false, true)
			case drop:
				delivery.Nack(false, false)
			}
		}
	}
}

type outcome int

const (
	ack outcome = iota
	requeue
	drop
)

func handleDelivery(ctx context.Context, body []byte, redelivered bool, handler func(context.Context, *LedgerExportMessage) error) outcome {
	msg, err := LedgerExportMessageFromJSON(body)
	if err != nil {
		log.For(log.ComponentAMQP).ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err)
		return drop
	}

	if err := handler(ctx, msg); err != nil {
		log.For(log.ComponentAMQP).ErrorContext(ctx, "Failed to handle ledger export",
			log.FieldError, err,
			log.FieldAccountID, msg.AccountID,
			"redelivered", redelivered)
		if redelivered {
			return drop
		}
		return requeue
	}

	log.For(log.ComponentAMQP).InfoContext(ctx, "Processed ledger export message", log.FieldAccountID, msg.AccountID)
	return ack
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
