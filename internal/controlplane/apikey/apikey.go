// Package apikey issues and verifies tenant API keys for the
// control plane, hashing keys at rest rather than storing them in
// plaintext so a database leak doesn't hand out live credentials.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// APIKey is a provisioned key's stored record. The raw key itself is
// never persisted, only its hash and a short prefix for display.
type APIKey struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	KeyHash   string    `json:"-"`
	KeyPrefix string    `json:"key_prefix"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the JSON body for POST /api/apikeys.
type CreateRequest struct {
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`
}

// CreateResponse includes the raw key, which the caller must store;
// the control plane discards it after this response.
type CreateResponse struct {
	APIKey
	RawKey string `json:"raw_key"`
}

// VerifyResponse is the JSON body for GET /api/verify.
type VerifyResponse struct {
	TenantID string `json:"tenant_id"`
}

// hashAPIKey returns the SHA-256 hex digest of a raw API key.
func hashAPIKey(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// dayBucket returns the current UTC date as a rate-limit bucket key.
func dayBucket() string {
	return time.Now().UTC().Format("2006-01-02")
}

// generateRawKey returns a fresh random API key and its prefix.
func generateRawKey() (raw, prefix string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = "ek_" + base64.RawURLEncoding.EncodeToString(buf)
	prefix = raw[:10]
	return raw, prefix, nil
}
