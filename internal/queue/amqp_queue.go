// internal/queue/amqp_queue.go
package queue

import (
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

const maxDeliveries = 3

// AMQPQueue is the RabbitMQ-backed Queue used in real deployments. Each topic
// maps to a durable queue; failed deliveries are republished with an
// incremented x-retry-count header and dropped after maxDeliveries.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func DialAMQP(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch}, nil
}

func (q *AMQPQueue) Close() {
	q.ch.Close()
	q.conn.Close()
}

func (q *AMQPQueue) declare(topic string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (q *AMQPQueue) Publish(topic string, body []byte) error {
	return q.publishWithRetryCount(topic, body, 0)
}

func (q *AMQPQueue) publishWithRetryCount(topic string, body []byte, retryCount int32) error {
	queue, err := q.declare(topic)
	if err != nil {
		return fmt.Errorf("declare %s: %w", topic, err)
	}
	return q.ch.Publish(
		"",
		queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Headers:      amqp.Table{"x-retry-count": retryCount},
		},
	)
}

func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	queue, err := q.declare(topic)
	if err != nil {
		return fmt.Errorf("declare %s: %w", topic, err)
	}

	msgs, err := q.ch.Consume(
		queue.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", topic, err)
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				retryCount := retryCountOf(d)
				if retryCount+1 < maxDeliveries {
					if pubErr := q.publishWithRetryCount(topic, d.Body, retryCount+1); pubErr != nil {
						log.Printf("queue: requeue on %s failed: %v", topic, pubErr)
						d.Nack(false, true)
						continue
					}
				} else {
					log.Printf("queue: job on %s dropped after %d deliveries: %v", topic, retryCount+1, err)
				}
			}
			d.Ack(false)
		}
	}()

	return nil
}

func retryCountOf(d amqp.Delivery) int32 {
	if d.Headers == nil {
		return 0
	}
	if v, ok := d.Headers["x-retry-count"]; ok {
		switch n := v.(type) {
		case int32:
			return n
		case int64:
			return int32(n)
		}
	}
	return 0
}

var _ Queue = (*AMQPQueue)(nil)
