package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet represents a merchant-owned settlement address on one network.
// SecretRef is an opaque handle to the encrypted key material; the raw
// private key never appears on the domain model.
type Wallet struct {
	ID         uuid.UUID       `json:"id"`
	MerchantID uuid.UUID       `json:"merchant_id"`
	Address    string          `json:"address"`
	Network    Network         `json:"network"`
	Currency   string          `json:"currency"`
	SecretRef  string          `json:"-"`
	Balance    decimal.Decimal `json:"balance"` // lazily refreshed, advisory
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
}
