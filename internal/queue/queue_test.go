package queue

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestQueue() *InMemoryQueue {
	q := NewInMemoryQueue()
	q.RetryDelay = time.Millisecond
	return q
}

func TestPublishWithoutSubscriberFails(t *testing.T) {
	q := newTestQueue()
	if err := q.Publish(TopicCampaignRuns, []byte("{}")); err == nil {
		t.Fatal("expected error when no subscriber is registered")
	}
}

func TestPublishDeliversBody(t *testing.T) {
	q := newTestQueue()
	got := make(chan []byte, 1)

	q.Subscribe(TopicCampaignRuns, func(body []byte) error {
		got <- body
		return nil
	})

	if err := q.Publish(TopicCampaignRuns, []byte("job-1")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case body := <-got:
		if string(body) != "job-1" {
			t.Errorf("delivered body = %q", body)
		}
	case <-time.After(time.Second):
		t.Fatal("handler was never invoked")
	}
}

func TestFailingJobIsRetriedUpToBudget(t *testing.T) {
	q := newTestQueue()

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	q.Subscribe(TopicWebhookEvents, func(body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == q.MaxRetries+1 {
			close(done)
		}
		return errors.New("handler blew up")
	})

	if err := q.Publish(TopicWebhookEvents, []byte("{}")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job was not retried up to the budget")
	}

	// Give the queue a moment to prove it stops after the final attempt.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if attempts != q.MaxRetries+1 {
		t.Errorf("attempts = %d, want %d", attempts, q.MaxRetries+1)
	}
}

func TestRetryStopsAfterFirstSuccess(t *testing.T) {
	q := newTestQueue()

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	q.Subscribe(TopicCampaignRuns, func(body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})

	if err := q.Publish(TopicCampaignRuns, []byte("{}")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job never succeeded")
	}

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestEachSubscriberGetsTheJob(t *testing.T) {
	q := newTestQueue()
	var wg sync.WaitGroup
	wg.Add(2)

	for i := 0; i < 2; i++ {
		q.Subscribe(TopicCampaignRuns, func(body []byte) error {
			wg.Done()
			return nil
		})
	}

	if err := q.Publish(TopicCampaignRuns, []byte("{}")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	finished := make(chan struct{})
	go func() { wg.Wait(); close(finished) }()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("not every subscriber saw the job")
	}
}
