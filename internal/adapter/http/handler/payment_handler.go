package handler

import (
	"time"

	"chainpay-gateway/internal/adapter/http/dto"
	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/pkg/apperror"
	"chainpay-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment-request endpoints.
type PaymentHandler struct {
	settlementSvc ports.SettlementService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(settlementSvc ports.SettlementService) *PaymentHandler {
	return &PaymentHandler{settlementSvc: settlementSvc}
}

// CreatePayment handles POST /api/v1/payments.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	merchantID, ok := merchantFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.Create(c.Request.Context(), ports.CreatePaymentParams{
		MerchantID:  merchantID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Network:     req.Network,
		Description: req.Description,
		ToAddress:   req.ToAddress,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toPaymentResponse(result))
}

// SelectMethod handles PUT /api/v1/payments/:id/method.
func (h *PaymentHandler) SelectMethod(c *gin.Context) {
	merchantID, ok := merchantFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payment id"))
		return
	}

	var req dto.SelectMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.SelectMethod(c.Request.Context(), merchantID, paymentID, ports.SelectMethodParams{
		Network:   req.Network,
		ToAddress: req.ToAddress,
		Currency:  req.Currency,
		Amount:    req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPaymentResponse(result))
}

// CompletePayment handles POST /api/v1/payments/:id/complete.
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	merchantID, ok := merchantFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payment id"))
		return
	}

	var req dto.CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.settlementSvc.Complete(c.Request.Context(), merchantID, paymentID, req.TxHash)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPaymentResponse(result))
}

// GetPayment handles GET /api/v1/payments/:id.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	merchantID, ok := merchantFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payment id"))
		return
	}

	result, err := h.settlementSvc.GetByID(c.Request.Context(), merchantID, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPaymentResponse(result))
}

// GetPaymentStatus handles GET /api/v1/payments/:id/status.
func (h *PaymentHandler) GetPaymentStatus(c *gin.Context) {
	merchantID, ok := merchantFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payment id"))
		return
	}

	status, err := h.settlementSvc.GetStatus(c.Request.Context(), merchantID, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PaymentStatusResponse{
		ID:     paymentID.String(),
		Status: string(status),
	})
}

// ListPayments handles GET /api/v1/payments.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	merchantID, ok := merchantFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	payments, err := h.settlementSvc.ListByMerchant(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, toPaymentResponse(&payments[i]))
	}
	response.OK(c, items)
}

// SweepExpired handles POST /api/v1/payments/sweep. The sweep also runs
// on a timer; this endpoint exists for operational use.
func (h *PaymentHandler) SweepExpired(c *gin.Context) {
	if _, ok := merchantFromContext(c); !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	expired, err := h.settlementSvc.SweepExpired(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SweepResponse{Expired: expired})
}

// toPaymentResponse converts domain.PaymentRequest to DTO.
func toPaymentResponse(p *domain.PaymentRequest) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:          p.ID.String(),
		Amount:      p.Amount.String(),
		Currency:    p.Currency,
		Network:     string(p.Network),
		Description: p.Description,
		ToAddress:   p.ToAddress,
		Status:      string(p.Status),
		TxHash:      p.TxHash,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
