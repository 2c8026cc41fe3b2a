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

// WebhookHandler exposes the append-only webhook delivery log.
type WebhookHandler struct {
	dispatcher ports.WebhookDispatcher
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(dispatcher ports.WebhookDispatcher) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher}
}

// ListDeliveries handles GET /api/v1/payments/:id/deliveries.
func (h *WebhookHandler) ListDeliveries(c *gin.Context) {
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

	deliveries, err := h.dispatcher.ListDeliveries(c.Request.Context(), merchantID, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.DeliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		items = append(items, toDeliveryResponse(&deliveries[i]))
	}
	response.OK(c, items)
}

// ResendDelivery handles POST /api/v1/payments/:id/deliveries/resend.
// A resend always appends a new delivery row.
func (h *WebhookHandler) ResendDelivery(c *gin.Context) {
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

	delivery, err := h.dispatcher.Resend(c.Request.Context(), merchantID, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if delivery == nil {
		// Merchant has no webhook URL configured.
		response.Error(c, apperror.Validation("merchant has no webhook url configured"))
		return
	}

	response.Created(c, toDeliveryResponse(delivery))
}

// toDeliveryResponse converts domain.WebhookDelivery to DTO.
func toDeliveryResponse(d *domain.WebhookDelivery) dto.DeliveryResponse {
	return dto.DeliveryResponse{
		ID:           d.ID.String(),
		PaymentID:    d.PaymentID.String(),
		URL:          d.URL,
		ResponseCode: d.ResponseCode,
		ResponseBody: d.ResponseBody,
		Success:      d.Success,
		Attempt:      d.Attempt,
		CreatedAt:    d.CreatedAt.Format(time.RFC3339),
	}
}
