package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainpay-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PaymentRepo implements ports.PaymentRepository.
//
// Status transitions are single conditional UPDATEs predicated on
// status = 'pending'. Postgres row locking makes each one atomic, so
// two racing writers resolve to exactly one winner without any
// application-side locking.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentColumns = `id, merchant_id, amount, currency, network, description, to_address, status, tx_hash, created_at, updated_at`

// Create inserts a new payment request.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.PaymentRequest) error {
	query := `INSERT INTO payment_requests (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.MerchantID, p.Amount, p.Currency, p.Network,
		p.Description, p.ToAddress, p.Status, p.TxHash,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment request: %w", err)
	}
	return nil
}

// GetByID fetches a payment request by UUID. Returns nil when absent.
func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_requests WHERE id = $1`
	return r.scanPayment(r.pool.QueryRow(ctx, query, id))
}

// ListByMerchant fetches the merchant's payment requests, newest first.
func (r *PaymentRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.PaymentRequest, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_requests
		WHERE merchant_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list payment requests: %w", err)
	}
	defer rows.Close()
	return r.collectPayments(rows)
}

// ListByStatus fetches every payment request in the given status,
// oldest first. The expiry sweep's fallback path reads pending rows
// through this.
func (r *PaymentRepo) ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.PaymentRequest, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_requests
		WHERE status = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("list payment requests by status: %w", err)
	}
	defer rows.Close()
	return r.collectPayments(rows)
}

// UpdateMethodIfPending changes the settlement method while pending.
// A nil amount leaves the stored amount untouched.
func (r *PaymentRepo) UpdateMethodIfPending(ctx context.Context, id uuid.UUID, network domain.Network, toAddress, currency string, amount *decimal.Decimal) (int64, error) {
	query := `UPDATE payment_requests
		SET network = $2, to_address = $3, currency = $4,
		    amount = COALESCE($5, amount), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, id, network, toAddress, currency, amount)
	if err != nil {
		return 0, fmt.Errorf("update payment method: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CompleteIfPending records the transaction hash and moves the request
// to completed.
func (r *PaymentRepo) CompleteIfPending(ctx context.Context, id uuid.UUID, txHash string) (int64, error) {
	query := `UPDATE payment_requests
		SET status = 'completed', tx_hash = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, id, txHash)
	if err != nil {
		return 0, fmt.Errorf("complete payment request: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FailIfPending moves one stale pending request to failed.
func (r *PaymentRepo) FailIfPending(ctx context.Context, id uuid.UUID, threshold time.Time) (int64, error) {
	query := `UPDATE payment_requests
		SET status = 'failed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND created_at < $2`

	tag, err := r.pool.Exec(ctx, query, id, threshold)
	if err != nil {
		return 0, fmt.Errorf("fail payment request: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FailStale bulk-fails every pending request created before the
// threshold, optionally scoped to one merchant.
func (r *PaymentRepo) FailStale(ctx context.Context, threshold time.Time, merchantID *uuid.UUID) (int64, error) {
	query := `UPDATE payment_requests
		SET status = 'failed', updated_at = NOW()
		WHERE status = 'pending' AND created_at < $1
		  AND ($2::uuid IS NULL OR merchant_id = $2)`

	tag, err := r.pool.Exec(ctx, query, threshold, merchantID)
	if err != nil {
		return 0, fmt.Errorf("fail stale payment requests: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanPayment is a helper to scan a single row into a PaymentRequest.
func (r *PaymentRepo) scanPayment(row pgx.Row) (*domain.PaymentRequest, error) {
	p := &domain.PaymentRequest{}
	err := row.Scan(
		&p.ID, &p.MerchantID, &p.Amount, &p.Currency, &p.Network,
		&p.Description, &p.ToAddress, &p.Status, &p.TxHash,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment request: %w", err)
	}
	return p, nil
}

func (r *PaymentRepo) collectPayments(rows pgx.Rows) ([]domain.PaymentRequest, error) {
	var payments []domain.PaymentRequest
	for rows.Next() {
		var p domain.PaymentRequest
		if err := rows.Scan(
			&p.ID, &p.MerchantID, &p.Amount, &p.Currency, &p.Network,
			&p.Description, &p.ToAddress, &p.Status, &p.TxHash,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment request: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
