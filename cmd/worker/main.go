// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/unclebandit/wacrm-backend/internal/config"
	"github.com/unclebandit/wacrm-backend/internal/db"
	"github.com/unclebandit/wacrm-backend/internal/gateway"
	"github.com/unclebandit/wacrm-backend/internal/queue"
	"github.com/unclebandit/wacrm-backend/internal/quota"
	"github.com/unclebandit/wacrm-backend/internal/repository"
	"github.com/unclebandit/wacrm-backend/internal/secrets"
	"github.com/unclebandit/wacrm-backend/internal/service"
	"github.com/unclebandit/wacrm-backend/internal/webhook"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}
	defer conn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	box, err := secrets.NewBox(cfg.EncryptionKey)
	if err != nil {
		log.Fatal(err)
	}

	q, err := queue.DialAMQP(cfg.AmqpURL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ:", err)
	}
	defer q.Close()

	runner := &service.Runner{
		CampaignRepo: &repository.CampaignRepository{DB: conn},
		ContactRepo:  &repository.ContactRepository{DB: conn},
		MessageRepo:  &repository.MessageRepository{DB: conn},
		TenantRepo:   &repository.TenantRepository{DB: conn},
		Quota:        quota.NewTracker(redisClient),
		Gateway:      gateway.NewGraphClient(cfg.GraphAPIBase, cfg.GraphAPIVersion),
		Secrets:      box,
	}

	ingestor := webhook.NewIngestor(conn)

	ctx := context.Background()

	err = q.Subscribe(queue.TopicCampaignRuns, func(body []byte) error {
		var job service.RunJob
		if err := json.Unmarshal(body, &job); err != nil {
			log.Println("worker: invalid run job:", err)
			return nil // malformed, do not redeliver
		}
		log.Println("worker: running campaign", job.CampaignID)
		return runner.Run(ctx, job)
	})
	if err != nil {
		log.Fatal("failed to subscribe to campaign runs:", err)
	}

	err = q.Subscribe(queue.TopicWebhookEvents, func(body []byte) error {
		return ingestor.Process(ctx, body)
	})
	if err != nil {
		log.Fatal("failed to subscribe to webhook events:", err)
	}

	log.Println("worker running, waiting for jobs...")
	select {}
}
