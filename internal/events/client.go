// Package events publishes and consumes dashboard mutation events over
// AMQP, so other internal tools can react to changes made through the
// dashboard without polling the SOP API. Publishing is best-effort: the
// dashboard works unchanged when no broker is configured.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
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

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishMutation publishes one mutation event.
func (c *Client) PublishMutation(ctx context.Context, entity string, action Action, id int64) error {
	msg := NewMutation(entity, action, id)
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
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published mutation event",
		"entity", entity,
		"action", action,
		"id", id,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeMutations delivers mutation events to handler until ctx ends.
// Unmarshalable deliveries are rejected without requeue; handler failures
// requeue the delivery.
func (c *Client) ConsumeMutations(ctx context.Context, handler func(*Mutation) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming mutation events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := MutationFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal event", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle event",
					"error", err,
					"entity", msg.Entity,
					"action", msg.Action,
					"id", msg.ID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
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

// exponentialBackoff returns the wait before reconnect attempt n, capped at
// 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	d := time.Second << uint(attempt)
	if d > 30*time.Second || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// isConnectionError reports whether the error looks like a broken broker
// connection worth a reconnect, rather than a protocol-level failure.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "connection closed", "connection reset", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ConsumeWithReconnect runs ConsumeMutations and redials the broker with
// exponential backoff after connection-level failures.
func ConsumeWithReconnect(ctx context.Context, url, exchange, queue string, handler func(*Mutation) error) error {
	attempt := 0
	for {
		client, err := NewClient(url, exchange, queue)
		if err == nil {
			attempt = 0
			err = client.ConsumeMutations(ctx, handler)
			client.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "Broker connection lost, reconnecting",
			"error", err,
			"wait", wait,
			"attempt", attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
