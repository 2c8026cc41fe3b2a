package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"chainpay-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merchants[m.ID] = m
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (r *inMemoryMerchantRepo) UpdateWebhookURL(ctx context.Context, id uuid.UUID, url *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	m.WebhookURL = url
	return nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.ID] = w
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	copied := *w
	return &copied, nil
}

func (r *inMemoryWalletRepo) GetByAddress(ctx context.Context, network domain.Network, address string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.Network == network && w.Address == address {
			copied := *w
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Wallet
	for _, w := range r.wallets {
		if w.MerchantID == merchantID {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance = balance
	return nil
}

func (r *inMemoryWalletRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Active = active
	return nil
}

// --- In-Memory Payment Repo ---

// inMemoryPaymentRepo mirrors the conditional-update semantics of the
// SQL repo: every transition checks status under the same lock that
// applies it, so concurrent writers race exactly as they do against
// PostgreSQL.
type inMemoryPaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*domain.PaymentRequest
}

func newInMemoryPaymentRepo() *inMemoryPaymentRepo {
	return &inMemoryPaymentRepo{payments: make(map[uuid.UUID]*domain.PaymentRequest)}
}

func (r *inMemoryPaymentRepo) Create(ctx context.Context, p *domain.PaymentRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *p
	r.payments[p.ID] = &copied
	return nil
}

func (r *inMemoryPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *inMemoryPaymentRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.PaymentRequest
	for _, p := range r.payments {
		if p.MerchantID == merchantID {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *inMemoryPaymentRepo) ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.PaymentRequest
	for _, p := range r.payments {
		if p.Status == status {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *inMemoryPaymentRepo) UpdateMethodIfPending(ctx context.Context, id uuid.UUID, network domain.Network, toAddress, currency string, amount *decimal.Decimal) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.Status != domain.StatusPending {
		return 0, nil
	}
	p.Network = network
	p.ToAddress = toAddress
	p.Currency = currency
	if amount != nil {
		p.Amount = *amount
	}
	p.UpdatedAt = time.Now().UTC()
	return 1, nil
}

func (r *inMemoryPaymentRepo) CompleteIfPending(ctx context.Context, id uuid.UUID, txHash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.Status != domain.StatusPending {
		return 0, nil
	}
	p.Status = domain.StatusCompleted
	p.TxHash = &txHash
	p.UpdatedAt = time.Now().UTC()
	return 1, nil
}

func (r *inMemoryPaymentRepo) FailIfPending(ctx context.Context, id uuid.UUID, threshold time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.Status != domain.StatusPending || !p.CreatedAt.Before(threshold) {
		return 0, nil
	}
	p.Status = domain.StatusFailed
	p.UpdatedAt = time.Now().UTC()
	return 1, nil
}

func (r *inMemoryPaymentRepo) FailStale(ctx context.Context, threshold time.Time, merchantID *uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, p := range r.payments {
		if p.Status != domain.StatusPending || !p.CreatedAt.Before(threshold) {
			continue
		}
		if merchantID != nil && p.MerchantID != *merchantID {
			continue
		}
		p.Status = domain.StatusFailed
		p.UpdatedAt = time.Now().UTC()
		count++
	}
	return count, nil
}

// --- In-Memory Webhook Delivery Repo ---

type inMemoryDeliveryRepo struct {
	mu         sync.Mutex
	deliveries []domain.WebhookDelivery
}

func newInMemoryDeliveryRepo() *inMemoryDeliveryRepo {
	return &inMemoryDeliveryRepo{}
}

func (r *inMemoryDeliveryRepo) Create(ctx context.Context, d *domain.WebhookDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, *d)
	return nil
}

func (r *inMemoryDeliveryRepo) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]domain.WebhookDelivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WebhookDelivery
	for _, d := range r.deliveries {
		if d.PaymentID == paymentID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Attempt < result[j].Attempt })
	return result, nil
}

func (r *inMemoryDeliveryRepo) CountByPayment(ctx context.Context, paymentID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, d := range r.deliveries {
		if d.PaymentID == paymentID {
			count++
		}
	}
	return count, nil
}
