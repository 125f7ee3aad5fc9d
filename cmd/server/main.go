// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/unclebandit/wacrm-backend/internal/config"
	"github.com/unclebandit/wacrm-backend/internal/controller"
	"github.com/unclebandit/wacrm-backend/internal/db"
	"github.com/unclebandit/wacrm-backend/internal/queue"
	"github.com/unclebandit/wacrm-backend/internal/repository"
	"github.com/unclebandit/wacrm-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()
	log.Println("connected to database")

	q, err := queue.DialAMQP(cfg.AmqpURL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ:", err)
	}
	defer q.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	messageRepo := &repository.MessageRepository{DB: conn}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		MessageRepo:  messageRepo,
		Queue:        q,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}
	webhookController := &controller.WebhookController{
		AppSecret:   cfg.AppSecret,
		VerifyToken: cfg.VerifyToken,
		Queue:       q,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns/{id}/send", campaignController.TriggerSend)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)

	// Provider webhook routes
	r.Get("/webhooks", webhookController.Handshake)
	r.Post("/webhooks", webhookController.Events)

	log.Println("server running on", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, r))
}
