package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signedWebhookRequest(t *testing.T, secret, body string) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", nil)
	r.Header.Set("svix-id", "msg_test")
	r.Header.Set("svix-timestamp", "1700000000")

	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(fmt.Sprintf("msg_test.1700000000.%s", body)))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	r.Header.Set("svix-signature", "v1,"+sig)

	return r
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("test-webhook-secret"))
	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_"+secret)
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	body := `{"type":"user.created","data":{"id":"user_123"}}`

	t.Run("valid signature passes", func(t *testing.T) {
		r := signedWebhookRequest(t, secret, body)
		assert.True(t, verifyWebhookSignature(r, []byte(body)))
	})

	t.Run("tampered body fails", func(t *testing.T) {
		r := signedWebhookRequest(t, secret, body)
		assert.False(t, verifyWebhookSignature(r, []byte(body+" ")))
	})

	t.Run("missing headers fail", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", nil)
		assert.False(t, verifyWebhookSignature(r, []byte(body)))
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		wrong := base64.StdEncoding.EncodeToString([]byte("another-secret"))
		r := signedWebhookRequest(t, wrong, body)
		assert.False(t, verifyWebhookSignature(r, []byte(body)))
	})
}

func TestVerifyWebhookSignatureSkipsWithoutSecret(t *testing.T) {
	os.Unsetenv("CLERK_WEBHOOK_SECRET")

	r := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", nil)
	assert.True(t, verifyWebhookSignature(r, []byte("{}")))
}
