package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookDelivery records one outbound webhook attempt for a payment.
// The log is append-only: a resend creates a new row, existing rows are
// never mutated.
type WebhookDelivery struct {
	ID           uuid.UUID `json:"id"`
	MerchantID   uuid.UUID `json:"merchant_id"`
	PaymentID    uuid.UUID `json:"payment_id"`
	URL          string    `json:"url"`
	RequestBody  string    `json:"request_body"`
	ResponseCode *int      `json:"response_code,omitempty"` // nil when the request never reached the remote
	ResponseBody *string   `json:"response_body,omitempty"`
	Success      bool      `json:"success"`
	Attempt      int       `json:"attempt"`
	CreatedAt    time.Time `json:"created_at"`
}
