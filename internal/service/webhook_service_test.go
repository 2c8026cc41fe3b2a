package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports/mocks"
	"chainpay-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type capturingHTTPClient struct {
	requests   []*http.Request
	bodies     []string
	statusCode int
	respBody   string
	err        error
}

func (c *capturingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.requests = append(c.requests, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		c.bodies = append(c.bodies, string(b))
	}
	if c.err != nil {
		return nil, c.err
	}
	return &http.Response{
		StatusCode: c.statusCode,
		Body:       io.NopCloser(strings.NewReader(c.respBody)),
	}, nil
}

type webhookTestDeps struct {
	svc          *WebhookDispatcherImpl
	paymentRepo  *mocks.MockPaymentRepository
	merchantRepo *mocks.MockMerchantRepository
	deliveryRepo *mocks.MockWebhookDeliveryRepository
	encSvc       *mocks.MockEncryptionService
	httpClient   *capturingHTTPClient
	ctrl         *gomock.Controller
}

func setupWebhookDispatcher(t *testing.T) *webhookTestDeps {
	ctrl := gomock.NewController(t)
	d := &webhookTestDeps{
		paymentRepo:  mocks.NewMockPaymentRepository(ctrl),
		merchantRepo: mocks.NewMockMerchantRepository(ctrl),
		deliveryRepo: mocks.NewMockWebhookDeliveryRepository(ctrl),
		encSvc:       mocks.NewMockEncryptionService(ctrl),
		httpClient:   &capturingHTTPClient{statusCode: http.StatusOK, respBody: "ok"},
		ctrl:         ctrl,
	}
	// real HMAC, so the signature header can be verified end to end
	d.svc = NewWebhookDispatcher(
		d.paymentRepo, d.merchantRepo, d.deliveryRepo,
		d.encSvc, NewHMACSignatureService(), d.httpClient, zerolog.Nop(),
	)
	return d
}

func webhookFixtures() (*domain.Merchant, *domain.PaymentRequest) {
	url := "https://merchant.example/webhooks"
	txHash := "0xdeadbeef"
	merchant := &domain.Merchant{
		ID:               uuid.New(),
		Name:             "Acme",
		WebhookURL:       &url,
		WebhookSecretEnc: "enc-secret",
		Status:           domain.MerchantStatusActive,
	}
	payment := &domain.PaymentRequest{
		ID:         uuid.New(),
		MerchantID: merchant.ID,
		Amount:     decimal.RequireFromString("49.99"),
		Currency:   "USDC",
		Network:    domain.NetworkPolygon,
		ToAddress:  "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		Status:     domain.StatusCompleted,
		TxHash:     &txHash,
		CreatedAt:  time.Now().UTC(),
	}
	return merchant, payment
}

func TestWebhookDispatcher_Deliver_Success(t *testing.T) {
	d := setupWebhookDispatcher(t)
	merchant, payment := webhookFixtures()

	d.paymentRepo.EXPECT().GetByID(gomock.Any(), payment.ID).Return(payment, nil)
	d.merchantRepo.EXPECT().GetByID(gomock.Any(), merchant.ID).Return(merchant, nil)
	d.encSvc.EXPECT().Decrypt("enc-secret").Return("whsec_plain", nil)
	d.deliveryRepo.EXPECT().CountByPayment(gomock.Any(), payment.ID).Return(0, nil)
	d.deliveryRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	delivery, err := d.svc.Deliver(context.Background(), payment.ID)
	require.NoError(t, err)
	require.NotNil(t, delivery)

	assert.True(t, delivery.Success)
	assert.Equal(t, 1, delivery.Attempt)
	require.NotNil(t, delivery.ResponseCode)
	assert.Equal(t, http.StatusOK, *delivery.ResponseCode)
	assert.Equal(t, "ok", *delivery.ResponseBody)

	// signed request went out with the scheme-prefixed header
	require.Len(t, d.httpClient.requests, 1)
	req := d.httpClient.requests[0]
	assert.Equal(t, *merchant.WebhookURL, req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	sig := req.Header.Get(SignatureHeader)
	require.True(t, strings.HasPrefix(sig, "sha256="))
	hexSig := strings.TrimPrefix(sig, "sha256=")
	assert.True(t, NewHMACSignatureService().Verify("whsec_plain", d.httpClient.bodies[0], hexSig),
		"receiver must be able to verify the body against the header")

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(d.httpClient.bodies[0]), &payload))
	assert.Equal(t, EventPaymentStatus, payload.Event)
	assert.Equal(t, payment.ID.String(), payload.ID)
	assert.Equal(t, "completed", payload.Status)
	assert.Equal(t, "49.99", payload.Amount)
	assert.Equal(t, "polygon", payload.Network)
	require.NotNil(t, payload.TxHash)
	assert.Equal(t, "0xdeadbeef", *payload.TxHash)
}

func TestWebhookDispatcher_Deliver_RecordsNon2xx(t *testing.T) {
	d := setupWebhookDispatcher(t)
	merchant, payment := webhookFixtures()
	d.httpClient.statusCode = http.StatusInternalServerError
	d.httpClient.respBody = "oops"

	d.paymentRepo.EXPECT().GetByID(gomock.Any(), payment.ID).Return(payment, nil)
	d.merchantRepo.EXPECT().GetByID(gomock.Any(), merchant.ID).Return(merchant, nil)
	d.encSvc.EXPECT().Decrypt("enc-secret").Return("whsec_plain", nil)
	d.deliveryRepo.EXPECT().CountByPayment(gomock.Any(), payment.ID).Return(2, nil)

	var recorded *domain.WebhookDelivery
	d.deliveryRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, del *domain.WebhookDelivery) error {
			recorded = del
			return nil
		})

	delivery, err := d.svc.Deliver(context.Background(), payment.ID)
	require.NoError(t, err, "a failed delivery is recorded, not surfaced as an error")

	assert.False(t, delivery.Success)
	assert.Equal(t, 3, delivery.Attempt)
	assert.Equal(t, http.StatusInternalServerError, *delivery.ResponseCode)
	assert.Same(t, recorded, delivery, "the logged row is the returned row")
}

func TestWebhookDispatcher_Deliver_RecordsTransportError(t *testing.T) {
	d := setupWebhookDispatcher(t)
	merchant, payment := webhookFixtures()
	d.httpClient.err = errors.New("connection refused")

	d.paymentRepo.EXPECT().GetByID(gomock.Any(), payment.ID).Return(payment, nil)
	d.merchantRepo.EXPECT().GetByID(gomock.Any(), merchant.ID).Return(merchant, nil)
	d.encSvc.EXPECT().Decrypt("enc-secret").Return("whsec_plain", nil)
	d.deliveryRepo.EXPECT().CountByPayment(gomock.Any(), payment.ID).Return(0, nil)
	d.deliveryRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	delivery, err := d.svc.Deliver(context.Background(), payment.ID)
	require.NoError(t, err)

	assert.False(t, delivery.Success)
	assert.Nil(t, delivery.ResponseCode)
	require.NotNil(t, delivery.ResponseBody)
	assert.Contains(t, *delivery.ResponseBody, "connection refused")
}

func TestWebhookDispatcher_Deliver_SkipsMerchantWithoutURL(t *testing.T) {
	d := setupWebhookDispatcher(t)
	merchant, payment := webhookFixtures()
	merchant.WebhookURL = nil

	d.paymentRepo.EXPECT().GetByID(gomock.Any(), payment.ID).Return(payment, nil)
	d.merchantRepo.EXPECT().GetByID(gomock.Any(), merchant.ID).Return(merchant, nil)

	delivery, err := d.svc.Deliver(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Nil(t, delivery)
	assert.Empty(t, d.httpClient.requests)
}

func TestWebhookDispatcher_Deliver_PaymentNotFound(t *testing.T) {
	d := setupWebhookDispatcher(t)
	id := uuid.New()

	d.paymentRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	_, err := d.svc.Deliver(context.Background(), id)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_404", appErr.Code)
}

func TestWebhookDispatcher_Resend_IncrementsAttempt(t *testing.T) {
	d := setupWebhookDispatcher(t)
	merchant, payment := webhookFixtures()

	// ownership check plus the delivery's own payment load
	d.paymentRepo.EXPECT().GetByID(gomock.Any(), payment.ID).Return(payment, nil).Times(2)
	d.merchantRepo.EXPECT().GetByID(gomock.Any(), merchant.ID).Return(merchant, nil)
	d.encSvc.EXPECT().Decrypt("enc-secret").Return("whsec_plain", nil)
	d.deliveryRepo.EXPECT().CountByPayment(gomock.Any(), payment.ID).Return(4, nil)
	d.deliveryRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	delivery, err := d.svc.Resend(context.Background(), merchant.ID, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, delivery.Attempt)
}

func TestWebhookDispatcher_Resend_WrongMerchantNotFound(t *testing.T) {
	d := setupWebhookDispatcher(t)
	_, payment := webhookFixtures()

	d.paymentRepo.EXPECT().GetByID(gomock.Any(), payment.ID).Return(payment, nil)

	_, err := d.svc.Resend(context.Background(), uuid.New(), payment.ID)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_404", appErr.Code)
	assert.Empty(t, d.httpClient.requests, "no webhook may fire for a foreign merchant")
}

func TestWebhookDispatcher_ListDeliveries(t *testing.T) {
	d := setupWebhookDispatcher(t)
	_, payment := webhookFixtures()
	rows := []domain.WebhookDelivery{
		{ID: uuid.New(), PaymentID: payment.ID, Attempt: 1},
		{ID: uuid.New(), PaymentID: payment.ID, Attempt: 2},
	}

	d.paymentRepo.EXPECT().GetByID(gomock.Any(), payment.ID).Return(payment, nil)
	d.deliveryRepo.EXPECT().ListByPayment(gomock.Any(), payment.ID).Return(rows, nil)

	got, err := d.svc.ListDeliveries(context.Background(), payment.MerchantID, payment.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestWebhookDispatcher_ListDeliveries_WrongMerchantNotFound(t *testing.T) {
	d := setupWebhookDispatcher(t)
	_, payment := webhookFixtures()

	d.paymentRepo.EXPECT().GetByID(gomock.Any(), payment.ID).Return(payment, nil)

	_, err := d.svc.ListDeliveries(context.Background(), uuid.New(), payment.ID)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PAY_404", appErr.Code)
}
