// internal/queue/queue.go
package queue

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Topics used by the pipeline.
const (
	TopicCampaignRuns  = "campaign_runs"
	TopicWebhookEvents = "webhook_events"
)

// Handler consumes one raw job body. A non-nil error asks the queue to
// redeliver, up to the queue's retry budget.
type Handler func(body []byte) error

// Queue interface
type Queue interface {
	Publish(topic string, body []byte) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue runs handlers on goroutines with the same bounded-retry
// semantics as the broker-backed queue. Used in tests and single-process
// deployments.
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]Handler
	MaxRetries int
	RetryDelay time.Duration
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

func (q *InMemoryQueue) Publish(topic string, body []byte) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		go q.processJob(topic, handler, body)
	}
	return nil
}

func (q *InMemoryQueue) processJob(topic string, handler Handler, body []byte) {
	for attempt := 0; ; attempt++ {
		err := handler(body)
		if err == nil {
			return // ACK
		}
		log.Printf("queue: job on %s failed (attempt %d/%d): %v", topic, attempt+1, q.MaxRetries+1, err)
		if attempt >= q.MaxRetries {
			log.Printf("queue: job on %s permanently failed after %d attempts", topic, attempt+1)
			return
		}
		time.Sleep(time.Duration(attempt+1) * q.RetryDelay)
	}
}

func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
