package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"collabHubAPI/internal/types/clerkhook"
	"collabHubAPI/internal/types/profile"
	"collabHubAPI/services"
)

type WebhookHandler struct {
	profileService *services.ProfileService
	accountService *services.AccountService
}

func NewWebhookHandler(profileService *services.ProfileService, accountService *services.AccountService) *WebhookHandler {
	return &WebhookHandler{
		profileService: profileService,
		accountService: accountService,
	}
}

// HandleClerkWebhook keeps the users table in sync with Clerk. Rows are only
// ever written from here; the API itself never creates users.
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 65536))
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	if !verifyWebhookSignature(r, body) {
		log.Println("Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event clerkhook.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		http.Error(w, "Error parsing webhook", http.StatusBadRequest)
		return
	}

	log.Printf("Received webhook event: %s", event.Type)

	ctx := r.Context()
	switch event.Type {
	case "user.created":
		if err := h.handleUserCreated(ctx, event.Data); err != nil {
			log.Printf("Error handling user.created: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "user.updated":
		if err := h.handleUserUpdated(ctx, event.Data); err != nil {
			log.Printf("Error handling user.updated: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "user.deleted":
		if err := h.accountService.DeleteAccountData(ctx, event.Data.ID); err != nil {
			log.Printf("Error handling user.deleted: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "email.created":
		if err := h.handleEmailVerified(ctx, event.Data); err != nil {
			log.Printf("Error handling email.created: %v", err)
			// Not critical; still acknowledge the event.
		}

	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, data clerkhook.WebhookEventData) error {
	email := ""
	emailVerified := false
	if len(data.EmailAddresses) > 0 {
		email = data.EmailAddresses[0].EmailAddress
		emailVerified = data.EmailAddresses[0].Verification.Status == "verified"
	}

	name := strings.TrimSpace(data.FirstName + " " + data.LastName)
	if name == "" {
		name = email
	}

	createReq := &profile.CreateUserRequest{
		ClerkID:   data.ID,
		Email:     email,
		Name:      name,
		AvatarURL: data.ImageURL,
	}

	if err := h.profileService.CreateUser(ctx, createReq); err != nil {
		return fmt.Errorf("failed to create user in database: %w", err)
	}

	if emailVerified {
		h.profileService.UpdateEmailVerification(ctx, data.ID, true)
	}

	log.Printf("Successfully created user (Clerk ID: %s)", data.ID)
	return nil
}

func (h *WebhookHandler) handleUserUpdated(ctx context.Context, data clerkhook.WebhookEventData) error {
	email := ""
	if len(data.EmailAddresses) > 0 {
		email = data.EmailAddresses[0].EmailAddress
	}

	name := strings.TrimSpace(data.FirstName + " " + data.LastName)

	if err := h.profileService.UpdateUserFromClerk(ctx, data.ID, email, name, data.ImageURL); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	log.Printf("Successfully updated user (Clerk ID: %s)", data.ID)
	return nil
}

func (h *WebhookHandler) handleEmailVerified(ctx context.Context, data clerkhook.WebhookEventData) error {
	if len(data.EmailAddresses) == 0 {
		return nil
	}
	if data.EmailAddresses[0].Verification.Status != "verified" {
		return nil
	}
	return h.profileService.UpdateEmailVerification(ctx, data.ID, true)
}

// verifyWebhookSignature checks the svix v1 signature Clerk attaches to every
// delivery. The secret arrives as "whsec_<base64>".
func verifyWebhookSignature(r *http.Request, body []byte) bool {
	webhookSecret := os.Getenv("CLERK_WEBHOOK_SECRET")
	if webhookSecret == "" {
		log.Println("CLERK_WEBHOOK_SECRET not set, skipping signature verification")
		return true
	}

	svixID := r.Header.Get("svix-id")
	svixTimestamp := r.Header.Get("svix-timestamp")
	svixSignature := r.Header.Get("svix-signature")

	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		log.Println("Missing webhook signature headers")
		return false
	}

	secret := strings.TrimPrefix(webhookSecret, "whsec_")
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}

	signedContent := fmt.Sprintf("%s.%s.%s", svixID, svixTimestamp, string(body))

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(signedContent))
	expectedSignature := hex.EncodeToString(mac.Sum(nil))
	expectedB64 := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// The header may carry several space-separated "v1,<sig>" entries.
	for _, part := range strings.Fields(svixSignature) {
		provided := strings.TrimPrefix(part, "v1,")
		if provided == part {
			continue
		}
		if hmac.Equal([]byte(provided), []byte(expectedSignature)) ||
			hmac.Equal([]byte(provided), []byte(expectedB64)) {
			return true
		}
	}
	return false
}
