package ports

import (
	"context"
	"time"

	"chainpay-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EncryptionService handles AES-256-GCM encryption/decryption of key
// material and merchant secrets at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification of
// webhook payloads.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// TokenService validates dashboard bearer tokens. Token issuance lives
// with the external auth service; Generate exists for that service and
// for tests.
type TokenService interface {
	Generate(merchantID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed token claims.
type TokenClaims struct {
	MerchantID uuid.UUID
}

// --- Service Ports (Business Logic) ---

// CreateWalletResult carries the persisted wallet plus the one-time
// mnemonic for BIP-39 chains. The mnemonic is print-once: it is
// returned to the caller and then discarded.
type CreateWalletResult struct {
	Wallet   *domain.Wallet
	Mnemonic string
}

// WalletService is a stateless facade over the adapter registry.
type WalletService interface {
	CreateWallet(ctx context.Context, merchantID uuid.UUID, network string) (*CreateWalletResult, error)
	GetBalance(ctx context.Context, network string, address string) (decimal.Decimal, error)
	GetWalletBalance(ctx context.Context, merchantID, walletID uuid.UUID) (*domain.Wallet, decimal.Decimal, error)
	RequestFaucetFunds(ctx context.Context, network string, address, token string) error
	ListWallets(ctx context.Context, merchantID uuid.UUID) ([]domain.Wallet, error)
	DeactivateWallet(ctx context.Context, merchantID, walletID uuid.UUID) error
}

// CreatePaymentParams holds validated input for payment-request creation.
type CreatePaymentParams struct {
	MerchantID  uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Network     string
	Description string
	ToAddress   string // optional; may be set later via SelectMethod
}

// SelectMethodParams holds the settlement method chosen by the payer.
type SelectMethodParams struct {
	Network   string
	ToAddress string
	Currency  string
	Amount    *decimal.Decimal
}

// SettlementService enforces the payment-request state machine:
// pending -> {completed, failed, expired}, terminal states immutable.
type SettlementService interface {
	Create(ctx context.Context, params CreatePaymentParams) (*domain.PaymentRequest, error)

	// SelectMethod mutates method fields while pending. On a terminal
	// request it is an idempotent no-op returning the stored row, so
	// retried client calls never error. Scoped to the owning merchant.
	SelectMethod(ctx context.Context, merchantID, id uuid.UUID, params SelectMethodParams) (*domain.PaymentRequest, error)

	// Complete transitions pending -> completed exactly once, recording
	// the transaction hash and notifying the merchant. A terminal
	// request yields a conflict error. Scoped to the owning merchant.
	Complete(ctx context.Context, merchantID, id uuid.UUID, txHash string) (*domain.PaymentRequest, error)

	// Expire forces a single stale pending request to failed.
	Expire(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error)

	// SweepExpired fails every pending request older than the expiry
	// window and returns the number of requests transitioned.
	SweepExpired(ctx context.Context) (int64, error)

	GetByID(ctx context.Context, merchantID, id uuid.UUID) (*domain.PaymentRequest, error)
	GetStatus(ctx context.Context, merchantID, id uuid.UUID) (domain.PaymentStatus, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.PaymentRequest, error)
}

// WebhookDispatcher signs, sends and records outbound payment
// notifications. Delivery failures are recorded, never propagated to
// the settlement transition that triggered them. Deliver is the
// internal entry point; Resend and ListDeliveries are merchant-facing
// and scoped to the payment's owner.
type WebhookDispatcher interface {
	Deliver(ctx context.Context, paymentID uuid.UUID) (*domain.WebhookDelivery, error)
	Resend(ctx context.Context, merchantID, paymentID uuid.UUID) (*domain.WebhookDelivery, error)
	ListDeliveries(ctx context.Context, merchantID, paymentID uuid.UUID) ([]domain.WebhookDelivery, error)
}
