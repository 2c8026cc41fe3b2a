package postgres

import (
	"context"
	"fmt"

	"chainpay-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// WebhookDeliveryRepo implements ports.WebhookDeliveryRepository.
// The table is append-only; there is no update path.
type WebhookDeliveryRepo struct {
	pool Pool
}

// NewWebhookDeliveryRepo creates a new WebhookDeliveryRepo.
func NewWebhookDeliveryRepo(pool Pool) *WebhookDeliveryRepo {
	return &WebhookDeliveryRepo{pool: pool}
}

const deliveryColumns = `id, merchant_id, payment_id, url, request_body, response_code, response_body, success, attempt, created_at`

// Create appends a delivery attempt to the log.
func (r *WebhookDeliveryRepo) Create(ctx context.Context, d *domain.WebhookDelivery) error {
	query := `INSERT INTO webhook_deliveries (` + deliveryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.MerchantID, d.PaymentID, d.URL, d.RequestBody,
		d.ResponseCode, d.ResponseBody, d.Success, d.Attempt, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook delivery: %w", err)
	}
	return nil
}

// ListByPayment fetches the payment's delivery log, oldest first.
func (r *WebhookDeliveryRepo) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]domain.WebhookDelivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM webhook_deliveries
		WHERE payment_id = $1 ORDER BY attempt ASC`

	rows, err := r.pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list webhook deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []domain.WebhookDelivery
	for rows.Next() {
		var d domain.WebhookDelivery
		if err := rows.Scan(
			&d.ID, &d.MerchantID, &d.PaymentID, &d.URL, &d.RequestBody,
			&d.ResponseCode, &d.ResponseBody, &d.Success, &d.Attempt, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan webhook delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// CountByPayment returns how many attempts have been logged for the
// payment.
func (r *WebhookDeliveryRepo) CountByPayment(ctx context.Context, paymentID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM webhook_deliveries WHERE payment_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, paymentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count webhook deliveries: %w", err)
	}
	return count, nil
}
