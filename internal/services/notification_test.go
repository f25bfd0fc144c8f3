package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canopyhq/canopy/internal/models"
)

func TestSignWebhookBody(t *testing.T) {
	body := []byte(`{"type":"scorecard.submitted"}`)
	secret := "topsecret"

	got := SignWebhookBody(body, secret)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Errorf("signature = %q, expected %q", got, want)
	}

	if SignWebhookBody(body, "othersecret") == got {
		t.Error("different secrets must produce different signatures")
	}
}

func TestDispatchEvent_DeliversSignedPayload(t *testing.T) {
	db := setupTestDB(t)

	var gotSignature, gotDelivery string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Canopy-Signature")
		gotDelivery = r.Header.Get("X-Canopy-Delivery")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	org := &models.Organization{Name: "Acme Climate", WebhookURL: server.URL, WebhookSecret: "s3cret"}
	mustCreate(t, db, org)

	service := NewNotificationService(db)
	event := &DomainEvent{Type: EventScorecardSubmitted, OrganizationID: org.ID}
	stamp(event)

	if err := service.DispatchEvent(context.Background(), event); err != nil {
		t.Fatalf("DispatchEvent failed: %v", err)
	}

	if gotDelivery != event.ID {
		t.Errorf("X-Canopy-Delivery = %q, expected %q", gotDelivery, event.ID)
	}
	if gotSignature != SignWebhookBody(gotBody, "s3cret") {
		t.Error("signature does not verify against the delivered body")
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(gotBody, &envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if envelope.Type != EventScorecardSubmitted || envelope.DeliveryID != event.ID {
		t.Errorf("envelope = %+v", envelope)
	}
}

func TestDispatchEvent_NoWebhookConfigured(t *testing.T) {
	db := setupTestDB(t)

	org := &models.Organization{Name: "Acme Climate"}
	mustCreate(t, db, org)

	service := NewNotificationService(db)
	event := &DomainEvent{Type: EventStageChanged, OrganizationID: org.ID}
	stamp(event)

	// No webhook: the event is dropped, not an error.
	if err := service.DispatchEvent(context.Background(), event); err != nil {
		t.Errorf("DispatchEvent without webhook: err = %v, expected nil", err)
	}
}

func TestDispatchEvent_UnknownOrganizationDropped(t *testing.T) {
	db := setupTestDB(t)

	service := NewNotificationService(db)
	event := &DomainEvent{Type: EventStageChanged, OrganizationID: 404}
	stamp(event)

	if err := service.DispatchEvent(context.Background(), event); err != nil {
		t.Errorf("DispatchEvent for unknown org: err = %v, expected nil (dropped)", err)
	}
}

func TestDispatchEvent_FailureStatusIsError(t *testing.T) {
	db := setupTestDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	org := &models.Organization{Name: "Acme Climate", WebhookURL: server.URL}
	mustCreate(t, db, org)

	service := NewNotificationService(db)
	event := &DomainEvent{Type: EventStageChanged, OrganizationID: org.ID}
	stamp(event)

	// A failing endpoint must surface an error so the queue can retry.
	if err := service.DispatchEvent(context.Background(), event); err == nil {
		t.Error("DispatchEvent should report non-2xx responses")
	}
}
