package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/canopyhq/canopy/internal/models"
	"github.com/canopyhq/canopy/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService delivers domain events to organization webhooks.
// Delivery is best-effort: failures are logged and surfaced to the queue for
// retry, never to the request that produced the event.
type NotificationService struct {
	db     *gorm.DB
	client *http.Client
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db: db,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// webhookEnvelope is the wire format posted to organization webhooks.
type webhookEnvelope struct {
	DeliveryID string       `json:"delivery_id"`
	Type       string       `json:"type"`
	SentAt     time.Time    `json:"sent_at"`
	Event      *DomainEvent `json:"event"`
}

// DispatchEvent posts the event to the owning organization's webhook, if one
// is configured. Signature: hex HMAC-SHA256 of the body with the
// organization's webhook secret, in X-Canopy-Signature.
func (s *NotificationService) DispatchEvent(ctx context.Context, event *DomainEvent) error {
	var org models.Organization
	if err := s.db.First(&org, event.OrganizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Uint("organization_id", event.OrganizationID).Str("event", event.Type).
				Msg("event for unknown organization dropped")
			return nil
		}
		return err
	}

	if org.WebhookURL == "" {
		logger.Debug().Uint("organization_id", org.ID).Str("event", event.Type).
			Msg("no webhook configured, event dropped")
		return nil
	}

	envelope := webhookEnvelope{
		DeliveryID: event.ID,
		Type:       event.Type,
		SentAt:     time.Now(),
		Event:      event,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, org.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Canopy-Delivery", event.ID)
	if org.WebhookSecret != "" {
		req.Header.Set("X-Canopy-Signature", SignWebhookBody(body, org.WebhookSecret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	logger.Info().
		Str("delivery_id", event.ID).
		Str("event", event.Type).
		Uint("organization_id", org.ID).
		Msg("webhook delivered")
	return nil
}

// SignWebhookBody computes the hex HMAC-SHA256 signature of a webhook body.
func SignWebhookBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
