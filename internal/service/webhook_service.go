package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/pkg/apperror"
	"chainpay-gateway/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SignatureHeader carries the HMAC-SHA256 of the request body, hex
// encoded with a scheme prefix.
const SignatureHeader = "x-webhook-signature"

const maxResponseBodyLen = 512

// EventPaymentStatus is the event type for payment status notifications.
const EventPaymentStatus = "payment.status"

// WebhookPayload is the JSON body posted to the merchant's webhook URL.
type WebhookPayload struct {
	Event     string  `json:"event"`
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Amount    string  `json:"amount"`
	Currency  string  `json:"currency"`
	Network   string  `json:"network"`
	ToAddress string  `json:"to_address,omitempty"`
	TxHash    *string `json:"tx_hash,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookDispatcherImpl implements ports.WebhookDispatcher.
//
// Every attempt, successful or not, is appended to the delivery log.
// Rows are never updated; the attempt counter is derived from the log
// itself.
type WebhookDispatcherImpl struct {
	paymentRepo  ports.PaymentRepository
	merchantRepo ports.MerchantRepository
	deliveryRepo ports.WebhookDeliveryRepository
	encSvc       ports.EncryptionService
	sigSvc       ports.SignatureService
	httpClient   HTTPClient
	log          zerolog.Logger
}

// NewWebhookDispatcher creates a new WebhookDispatcherImpl.
func NewWebhookDispatcher(
	paymentRepo ports.PaymentRepository,
	merchantRepo ports.MerchantRepository,
	deliveryRepo ports.WebhookDeliveryRepository,
	encSvc ports.EncryptionService,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	log zerolog.Logger,
) *WebhookDispatcherImpl {
	return &WebhookDispatcherImpl{
		paymentRepo:  paymentRepo,
		merchantRepo: merchantRepo,
		deliveryRepo: deliveryRepo,
		encSvc:       encSvc,
		sigSvc:       sigSvc,
		httpClient:   httpClient,
		log:          log,
	}
}

// Deliver signs and posts the payment's current status to the owning
// merchant's webhook URL, appending the outcome to the delivery log.
// A merchant without a webhook URL is skipped without error.
func (s *WebhookDispatcherImpl) Deliver(ctx context.Context, paymentID uuid.UUID) (*domain.WebhookDelivery, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil {
		return nil, apperror.ErrNotFound("payment request")
	}

	merchant, err := s.merchantRepo.GetByID(ctx, payment.MerchantID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}
	if merchant.WebhookURL == nil || *merchant.WebhookURL == "" {
		s.log.Debug().
			Str("merchant_id", merchant.ID.String()).
			Msg("webhook: no URL configured, skipping")
		return nil, nil
	}

	secret, err := s.encSvc.Decrypt(merchant.WebhookSecretEnc)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt webhook secret: %w", err))
	}

	body, err := json.Marshal(WebhookPayload{
		Event:     EventPaymentStatus,
		ID:        payment.ID.String(),
		Status:    string(payment.Status),
		Amount:    payment.Amount.String(),
		Currency:  payment.Currency,
		Network:   string(payment.Network),
		ToAddress: payment.ToAddress,
		TxHash:    payment.TxHash,
		CreatedAt: payment.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal payload: %w", err))
	}
	signature := s.sigSvc.Sign(secret, string(body))

	attempt, err := s.deliveryRepo.CountByPayment(ctx, paymentID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("count deliveries: %w", err))
	}

	delivery := &domain.WebhookDelivery{
		ID:          uuid.New(),
		MerchantID:  merchant.ID,
		PaymentID:   paymentID,
		URL:         *merchant.WebhookURL,
		RequestBody: string(body),
		Attempt:     attempt + 1,
		CreatedAt:   time.Now().UTC(),
	}

	s.post(ctx, delivery, body, signature)

	if err := s.deliveryRepo.Create(ctx, delivery); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("record delivery: %w", err))
	}

	result := "failure"
	if delivery.Success {
		result = "success"
	}
	metrics.WebhookDeliveries.WithLabelValues(result).Inc()
	s.log.Info().
		Str("payment_id", paymentID.String()).
		Int("attempt", delivery.Attempt).
		Bool("success", delivery.Success).
		Msg("webhook delivery attempted")

	return delivery, nil
}

// Resend re-dispatches the payment's current status for its owning
// merchant. It is the same operation as Deliver with a fresh attempt
// number; the log keeps every prior attempt.
func (s *WebhookDispatcherImpl) Resend(ctx context.Context, merchantID, paymentID uuid.UUID) (*domain.WebhookDelivery, error) {
	if err := s.checkOwner(ctx, merchantID, paymentID); err != nil {
		return nil, err
	}
	return s.Deliver(ctx, paymentID)
}

// ListDeliveries returns the payment's delivery log for its owning
// merchant, oldest first.
func (s *WebhookDispatcherImpl) ListDeliveries(ctx context.Context, merchantID, paymentID uuid.UUID) ([]domain.WebhookDelivery, error) {
	if err := s.checkOwner(ctx, merchantID, paymentID); err != nil {
		return nil, err
	}
	deliveries, err := s.deliveryRepo.ListByPayment(ctx, paymentID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list deliveries: %w", err))
	}
	return deliveries, nil
}

// checkOwner hides another merchant's payment behind not-found.
func (s *WebhookDispatcherImpl) checkOwner(ctx context.Context, merchantID, paymentID uuid.UUID) error {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil || payment.MerchantID != merchantID {
		return apperror.ErrNotFound("payment request")
	}
	return nil
}

// post performs the signed POST and fills the delivery's outcome
// fields. Transport errors leave ResponseCode nil.
func (s *WebhookDispatcherImpl) post(ctx context.Context, delivery *domain.WebhookDelivery, body []byte, signature string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.URL, bytes.NewReader(body))
	if err != nil {
		msg := err.Error()
		delivery.ResponseBody = &msg
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, "sha256="+signature)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		msg := err.Error()
		delivery.ResponseBody = &msg
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyLen))
	code := resp.StatusCode
	text := string(respBody)

	delivery.ResponseCode = &code
	delivery.ResponseBody = &text
	delivery.Success = code >= 200 && code < 300
}
