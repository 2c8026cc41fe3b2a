package domain

import (
	"time"

	"github.com/google/uuid"
)

// MerchantStatus represents the account state of a merchant.
type MerchantStatus string

const (
	MerchantStatusActive    MerchantStatus = "ACTIVE"
	MerchantStatusSuspended MerchantStatus = "SUSPENDED"
)

// Merchant holds the webhook configuration for a payment-request owner.
// Account issuance lives outside this service; this is the surface the
// settlement core consumes.
type Merchant struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	WebhookURL       *string        `json:"webhook_url,omitempty"`
	WebhookSecretEnc string         `json:"-"` // AES-256-GCM encrypted shared secret
	Status           MerchantStatus `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
}

// IsActive returns true if the merchant may use the API.
func (m *Merchant) IsActive() bool {
	return m.Status == MerchantStatusActive
}
