package postgres

import (
	"context"
	"errors"
	"fmt"

	"chainpay-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

const merchantColumns = `id, name, webhook_url, webhook_secret_enc, status, created_at`

// Create inserts a new merchant.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := `INSERT INTO merchants (` + merchantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Name, m.WebhookURL, m.WebhookSecretEnc, m.Status, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant by UUID. Returns nil when absent.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`

	m := &domain.Merchant{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.WebhookURL, &m.WebhookSecretEnc, &m.Status, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	return m, nil
}

// UpdateWebhookURL changes or clears the merchant's webhook URL.
func (r *MerchantRepo) UpdateWebhookURL(ctx context.Context, id uuid.UUID, url *string) error {
	query := `UPDATE merchants SET webhook_url = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, url)
	if err != nil {
		return fmt.Errorf("update merchant webhook url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", id)
	}
	return nil
}
