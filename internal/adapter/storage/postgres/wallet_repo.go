package postgres

import (
	"context"
	"errors"
	"fmt"

	"chainpay-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository. Wallets carry encrypted
// key material, so rows are soft-deactivated and never deleted.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, merchant_id, address, network, currency, secret_ref, balance, active, created_at`

// Create inserts a new wallet.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.MerchantID, w.Address, w.Network, w.Currency,
		w.SecretRef, w.Balance, w.Active, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by UUID. Returns nil when absent.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return r.scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByAddress fetches a wallet by network and address.
func (r *WalletRepo) GetByAddress(ctx context.Context, network domain.Network, address string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE network = $1 AND address = $2`
	return r.scanWallet(r.pool.QueryRow(ctx, query, network, address))
}

// ListByMerchant fetches the merchant's wallets, newest first.
func (r *WalletRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE merchant_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(
			&w.ID, &w.MerchantID, &w.Address, &w.Network, &w.Currency,
			&w.SecretRef, &w.Balance, &w.Active, &w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// UpdateBalance refreshes the cached balance column.
func (r *WalletRepo) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, balance)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

// SetActive toggles the wallet's active flag.
func (r *WalletRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE wallets SET active = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("set wallet active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

func (r *WalletRepo) scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.MerchantID, &w.Address, &w.Network, &w.Currency,
		&w.SecretRef, &w.Balance, &w.Active, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
