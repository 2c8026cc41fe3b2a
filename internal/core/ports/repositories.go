package ports

import (
	"context"
	"time"

	"chainpay-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	UpdateWebhookURL(ctx context.Context, id uuid.UUID, url *string) error
}

// WalletRepository defines persistence operations for wallets.
// Wallets are soft-deactivated, never deleted.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByAddress(ctx context.Context, network domain.Network, address string) (*domain.Wallet, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Wallet, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// PaymentRepository defines persistence operations for payment requests.
//
// All transition methods are conditional updates predicated on
// status = pending. They return the number of rows affected so callers
// can detect a lost race: of two competing writers exactly one observes
// 1 row, the other 0.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.PaymentRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.PaymentRequest, error)
	ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.PaymentRequest, error)

	// UpdateMethodIfPending changes the settlement method (network,
	// destination address, currency, optionally amount) while pending.
	UpdateMethodIfPending(ctx context.Context, id uuid.UUID, network domain.Network, toAddress, currency string, amount *decimal.Decimal) (int64, error)

	// CompleteIfPending records the transaction hash and moves the
	// request to completed.
	CompleteIfPending(ctx context.Context, id uuid.UUID, txHash string) (int64, error)

	// FailIfPending moves a single stale request to failed, provided it
	// was created before the threshold.
	FailIfPending(ctx context.Context, id uuid.UUID, threshold time.Time) (int64, error)

	// FailStale bulk-fails every pending request created before the
	// threshold, optionally scoped to one merchant.
	FailStale(ctx context.Context, threshold time.Time, merchantID *uuid.UUID) (int64, error)
}

// WebhookDeliveryRepository is the append-only webhook delivery log.
type WebhookDeliveryRepository interface {
	Create(ctx context.Context, delivery *domain.WebhookDelivery) error
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]domain.WebhookDelivery, error)
	CountByPayment(ctx context.Context, paymentID uuid.UUID) (int, error)
}
