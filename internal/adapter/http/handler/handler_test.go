package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chainpay-gateway/internal/adapter/http/dto"
	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/internal/core/ports/mocks"
	"chainpay-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Wallet Handler Tests ---

func TestCreateWallet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	merchantID := uuid.New()
	walletID := uuid.New()

	mockWallet.EXPECT().CreateWallet(gomock.Any(), merchantID, "ethereum").Return(&ports.CreateWalletResult{
		Wallet: &domain.Wallet{
			ID:         walletID,
			MerchantID: merchantID,
			Address:    "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
			Network:    domain.NetworkEthereum,
			Currency:   "ETH",
			Balance:    decimal.Zero,
			Active:     true,
			CreatedAt:  time.Now(),
		},
	}, nil)

	body, _ := json.Marshal(dto.CreateWalletRequest{Network: "ethereum"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("merchant_id", merchantID)

	h.CreateWallet(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	wallet := data["wallet"].(map[string]interface{})
	assert.Equal(t, walletID.String(), wallet["id"])
	assert.Equal(t, "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", wallet["address"])
	_, hasMnemonic := data["mnemonic"]
	assert.False(t, hasMnemonic, "non-BIP-39 networks must not return a mnemonic")
}

func TestCreateWallet_MnemonicShownOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	merchantID := uuid.New()
	mockWallet.EXPECT().CreateWallet(gomock.Any(), merchantID, "bitcoin").Return(&ports.CreateWalletResult{
		Wallet: &domain.Wallet{
			ID:         uuid.New(),
			MerchantID: merchantID,
			Address:    "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
			Network:    domain.NetworkBitcoin,
			Currency:   "BTC",
			CreatedAt:  time.Now(),
		},
		Mnemonic: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
	}, nil)

	body, _ := json.Marshal(dto.CreateWalletRequest{Network: "bitcoin"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("merchant_id", merchantID)

	h.CreateWallet(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Contains(t, data["mnemonic"], "abandon")
}

func TestCreateWallet_UnsupportedNetwork(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	merchantID := uuid.New()
	mockWallet.EXPECT().CreateWallet(gomock.Any(), merchantID, "dogecoin").
		Return(nil, apperror.ErrUnsupportedNetwork("dogecoin"))

	body, _ := json.Marshal(dto.CreateWalletRequest{Network: "dogecoin"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("merchant_id", merchantID)

	h.CreateWallet(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NET_001", resp["error_code"])
}

func TestCreateWallet_MissingMerchantID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	h.CreateWallet(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetWalletBalance_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	merchantID := uuid.New()
	walletID := uuid.New()
	balance := decimal.RequireFromString("1.5")

	mockWallet.EXPECT().GetWalletBalance(gomock.Any(), merchantID, walletID).Return(&domain.Wallet{
		ID:       walletID,
		Address:  "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		Network:  domain.NetworkEthereum,
		Currency: "ETH",
		Balance:  balance,
	}, balance, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: walletID.String()}}
	c.Set("merchant_id", merchantID)

	h.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "1.5", data["balance"])
	assert.Equal(t, "ETH", data["currency"])
}

func TestGetWalletBalance_BadID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	c.Set("merchant_id", uuid.New())

	h.GetBalance(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestFaucet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWallet := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(mockWallet)

	mockWallet.EXPECT().
		RequestFaucetFunds(gomock.Any(), "solana", "4Nd1mYvM6L5cVUvJQi95U2MQHzRGoXSkP6aEvBFzFzFr", "SOL").
		Return(nil)

	body, _ := json.Marshal(dto.FaucetRequest{
		Network: "solana",
		Address: "4Nd1mYvM6L5cVUvJQi95U2MQHzRGoXSkP6aEvBFzFzFr",
		Token:   "SOL",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("merchant_id", uuid.New())

	h.RequestFaucet(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Payment Handler Tests ---

func testPayment(merchantID uuid.UUID) *domain.PaymentRequest {
	now := time.Now()
	return &domain.PaymentRequest{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Amount:     decimal.RequireFromString("0.25"),
		Currency:   "ETH",
		Network:    domain.NetworkEthereum,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCreatePayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettlement := mocks.NewMockSettlementService(ctrl)
	h := NewPaymentHandler(mockSettlement)

	merchantID := uuid.New()
	payment := testPayment(merchantID)

	mockSettlement.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, params ports.CreatePaymentParams) (*domain.PaymentRequest, error) {
			assert.Equal(t, merchantID, params.MerchantID)
			assert.Equal(t, "ethereum", params.Network)
			assert.True(t, params.Amount.Equal(decimal.RequireFromString("0.25")))
			return payment, nil
		})

	body := []byte(`{"amount":"0.25","network":"ethereum"}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("merchant_id", merchantID)

	h.CreatePayment(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, payment.ID.String(), data["id"])
	assert.Equal(t, "pending", data["status"])
}

func TestCreatePayment_InvalidAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettlement := mocks.NewMockSettlementService(ctrl)
	h := NewPaymentHandler(mockSettlement)

	mockSettlement.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInvalidAmount())

	body := []byte(`{"amount":"-1","network":"ethereum"}`)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("merchant_id", uuid.New())

	h.CreatePayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VAL_002", resp["error_code"])
}

func TestSelectMethod_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettlement := mocks.NewMockSettlementService(ctrl)
	h := NewPaymentHandler(mockSettlement)

	merchantID := uuid.New()
	payment := testPayment(merchantID)
	payment.Network = domain.NetworkPolygon
	payment.Currency = "USDC"
	payment.ToAddress = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

	mockSettlement.EXPECT().SelectMethod(gomock.Any(), merchantID, payment.ID, ports.SelectMethodParams{
		Network:   "polygon",
		ToAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		Currency:  "USDC",
	}).Return(payment, nil)

	body, _ := json.Marshal(dto.SelectMethodRequest{
		Network:   "polygon",
		ToAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		Currency:  "USDC",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: payment.ID.String()}}
	c.Set("merchant_id", merchantID)

	h.SelectMethod(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "polygon", data["network"])
	assert.Equal(t, "USDC", data["currency"])
}

func TestCompletePayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettlement := mocks.NewMockSettlementService(ctrl)
	h := NewPaymentHandler(mockSettlement)

	merchantID := uuid.New()
	payment := testPayment(merchantID)
	payment.Status = domain.StatusCompleted
	txHash := "0xdeadbeef"
	payment.TxHash = &txHash

	mockSettlement.EXPECT().Complete(gomock.Any(), merchantID, payment.ID, "0xdeadbeef").Return(payment, nil)

	body, _ := json.Marshal(dto.CompletePaymentRequest{TxHash: "0xdeadbeef"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: payment.ID.String()}}
	c.Set("merchant_id", merchantID)

	h.CompletePayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, "0xdeadbeef", data["tx_hash"])
}

func TestCompletePayment_Conflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettlement := mocks.NewMockSettlementService(ctrl)
	h := NewPaymentHandler(mockSettlement)

	paymentID := uuid.New()
	mockSettlement.EXPECT().Complete(gomock.Any(), gomock.Any(), paymentID, "0xdeadbeef").
		Return(nil, apperror.ErrConflict("payment request already failed"))

	body, _ := json.Marshal(dto.CompletePaymentRequest{TxHash: "0xdeadbeef"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: paymentID.String()}}
	c.Set("merchant_id", uuid.New())

	h.CompletePayment(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PAY_409", resp["error_code"])
}

func TestCompletePayment_MissingTxHash(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPaymentHandler(mocks.NewMockSettlementService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}
	c.Set("merchant_id", uuid.New())

	h.CompletePayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPaymentStatus_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettlement := mocks.NewMockSettlementService(ctrl)
	h := NewPaymentHandler(mockSettlement)

	merchantID := uuid.New()
	paymentID := uuid.New()
	mockSettlement.EXPECT().GetStatus(gomock.Any(), merchantID, paymentID).
		Return(domain.StatusPending, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: paymentID.String()}}
	c.Set("merchant_id", merchantID)

	h.GetPaymentStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
}

func TestGetPayment_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettlement := mocks.NewMockSettlementService(ctrl)
	h := NewPaymentHandler(mockSettlement)

	merchantID := uuid.New()
	paymentID := uuid.New()
	mockSettlement.EXPECT().GetByID(gomock.Any(), merchantID, paymentID).
		Return(nil, apperror.ErrNotFound("payment request"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: paymentID.String()}}
	c.Set("merchant_id", merchantID)

	h.GetPayment(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSweepExpired_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSettlement := mocks.NewMockSettlementService(ctrl)
	h := NewPaymentHandler(mockSettlement)

	mockSettlement.EXPECT().SweepExpired(gomock.Any()).Return(int64(3), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Set("merchant_id", uuid.New())

	h.SweepExpired(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["expired"])
}

// --- Webhook Handler Tests ---

func TestListDeliveries_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDispatcher := mocks.NewMockWebhookDispatcher(ctrl)
	h := NewWebhookHandler(mockDispatcher)

	merchantID := uuid.New()
	paymentID := uuid.New()
	code := 200
	body := "ok"
	mockDispatcher.EXPECT().ListDeliveries(gomock.Any(), merchantID, paymentID).Return([]domain.WebhookDelivery{
		{
			ID:           uuid.New(),
			PaymentID:    paymentID,
			URL:          "https://merchant.example/webhooks",
			ResponseCode: &code,
			ResponseBody: &body,
			Success:      true,
			Attempt:      1,
			CreatedAt:    time.Now(),
		},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: paymentID.String()}}
	c.Set("merchant_id", merchantID)

	h.ListDeliveries(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].([]interface{})
	require.Len(t, items, 1)
	delivery := items[0].(map[string]interface{})
	assert.Equal(t, true, delivery["success"])
	assert.Equal(t, float64(1), delivery["attempt"])
}

func TestResendDelivery_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDispatcher := mocks.NewMockWebhookDispatcher(ctrl)
	h := NewWebhookHandler(mockDispatcher)

	paymentID := uuid.New()
	mockDispatcher.EXPECT().Resend(gomock.Any(), gomock.Any(), paymentID).Return(&domain.WebhookDelivery{
		ID:        uuid.New(),
		PaymentID: paymentID,
		URL:       "https://merchant.example/webhooks",
		Success:   true,
		Attempt:   2,
		CreatedAt: time.Now(),
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: paymentID.String()}}
	c.Set("merchant_id", uuid.New())

	h.ResendDelivery(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["attempt"])
}

func TestResendDelivery_NoWebhookURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDispatcher := mocks.NewMockWebhookDispatcher(ctrl)
	h := NewWebhookHandler(mockDispatcher)

	paymentID := uuid.New()
	mockDispatcher.EXPECT().Resend(gomock.Any(), gomock.Any(), paymentID).Return(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: paymentID.String()}}
	c.Set("merchant_id", uuid.New())

	h.ResendDelivery(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health Check Test ---

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck()(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
