package handler

import (
	"time"

	"chainpay-gateway/internal/adapter/http/dto"
	"chainpay-gateway/internal/adapter/http/middleware"
	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/pkg/apperror"
	"chainpay-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	merchantID, ok := merchantFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.walletSvc.CreateWallet(c.Request.Context(), merchantID, req.Network)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CreateWalletResponse{
		Wallet:   toWalletResponse(result.Wallet),
		Mnemonic: result.Mnemonic,
	})
}

// ListWallets handles GET /api/v1/wallets.
func (h *WalletHandler) ListWallets(c *gin.Context) {
	merchantID, ok := merchantFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallets, err := h.walletSvc.ListWallets(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WalletResponse, 0, len(wallets))
	for i := range wallets {
		items = append(items, toWalletResponse(&wallets[i]))
	}
	response.OK(c, items)
}

// GetBalance handles GET /api/v1/wallets/:id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	merchantID, ok := merchantFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	wallet, balance, err := h.walletSvc.GetWalletBalance(c.Request.Context(), merchantID, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletBalanceResponse{
		WalletID: wallet.ID.String(),
		Address:  wallet.Address,
		Network:  string(wallet.Network),
		Currency: wallet.Currency,
		Balance:  balance.String(),
	})
}

// RequestFaucet handles POST /api/v1/wallets/faucet.
func (h *WalletHandler) RequestFaucet(c *gin.Context) {
	if _, ok := merchantFromContext(c); !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.FaucetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.walletSvc.RequestFaucetFunds(c.Request.Context(), req.Network, req.Address, req.Token); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"funded": true})
}

// DeactivateWallet handles DELETE /api/v1/wallets/:id. Wallets are
// soft-deactivated, never deleted.
func (h *WalletHandler) DeactivateWallet(c *gin.Context) {
	merchantID, ok := merchantFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	if err := h.walletSvc.DeactivateWallet(c.Request.Context(), merchantID, walletID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deactivated": true})
}

// merchantFromContext reads the merchant ID set by the auth middleware.
func merchantFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.CtxMerchantID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// toWalletResponse converts domain.Wallet to DTO.
func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:        w.ID.String(),
		Address:   w.Address,
		Network:   string(w.Network),
		Currency:  w.Currency,
		Balance:   w.Balance.String(),
		Active:    w.Active,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}
