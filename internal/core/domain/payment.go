package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle state of a payment request.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusExpired   PaymentStatus = "expired"
)

// PaymentRequest represents a merchant's request for an on-chain payment.
// Rows are never physically deleted; terminal rows are retained for audit.
type PaymentRequest struct {
	ID          uuid.UUID       `json:"id"`
	MerchantID  uuid.UUID       `json:"merchant_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Network     Network         `json:"network"`
	Description string          `json:"description,omitempty"`
	ToAddress   string          `json:"to_address,omitempty"`
	Status      PaymentStatus   `json:"status"`
	TxHash      *string         `json:"tx_hash,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsTerminal returns true once the request has left the pending state.
// Terminal rows are immutable except for tx_hash recorded at completion.
func (p *PaymentRequest) IsTerminal() bool {
	return p.Status == StatusCompleted ||
		p.Status == StatusFailed ||
		p.Status == StatusExpired
}

// ExpiredBy reports whether the request has outlived the expiry window
// at the given instant. Only meaningful for pending requests.
func (p *PaymentRequest) ExpiredBy(now time.Time, window time.Duration) bool {
	return now.Sub(p.CreatedAt) > window
}
