// internal/controller/webhook_controller.go
package controller

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/unclebandit/wacrm-backend/internal/queue"
	"github.com/unclebandit/wacrm-backend/internal/webhook"
)

// maxWebhookBody caps what we read from the provider.
const maxWebhookBody = 1 << 20

type WebhookController struct {
	AppSecret   string
	VerifyToken string
	Queue       queue.Queue
}

// Handshake answers the provider's GET verification during endpoint setup:
// on mode=subscribe with a matching token the challenge is echoed verbatim.
func (c *WebhookController) Handshake(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	mode := params.Get("hub.mode")
	token := params.Get("hub.verify_token")
	challenge := params.Get("hub.challenge")

	if mode == "subscribe" && token == c.VerifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	log.Println("webhook: handshake rejected, invalid verify token")
	http.Error(w, "verification failed", http.StatusForbidden)
}

// Events receives provider event deliveries. The signature is checked over
// the raw bytes before the body is parsed or persisted; a verified payload
// is handed to the queue and the provider gets its acknowledgement
// immediately, because it enforces a short response budget and retries on
// timeout.
func (c *WebhookController) Events(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(webhook.SignatureHeader)
	if !webhook.VerifySignature(rawBody, signature, c.AppSecret) {
		log.Println("webhook: invalid signature, request rejected")
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	if err := c.Queue.Publish(queue.TopicWebhookEvents, rawBody); err != nil {
		log.Println("webhook: failed to enqueue payload:", err)
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "received"})
}
