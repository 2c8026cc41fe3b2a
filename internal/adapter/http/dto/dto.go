package dto

import "github.com/shopspring/decimal"

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	Network string `json:"network" binding:"required,min=2,max=32"`
}

// WalletResponse is the wallet representation returned to merchants.
// The secret reference is never serialised.
type WalletResponse struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Network   string `json:"network"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

// CreateWalletResponse carries the new wallet plus the one-time mnemonic
// for BIP-39 networks. The mnemonic is shown exactly once and never
// stored in plaintext.
type CreateWalletResponse struct {
	Wallet   WalletResponse `json:"wallet"`
	Mnemonic string         `json:"mnemonic,omitempty"`
}

// WalletBalanceResponse is the response for a wallet balance query.
type WalletBalanceResponse struct {
	WalletID string `json:"wallet_id"`
	Address  string `json:"address"`
	Network  string `json:"network"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// FaucetRequest is the request body for a testnet faucet funding call.
type FaucetRequest struct {
	Network string `json:"network" binding:"required"`
	Address string `json:"address" binding:"required"`
	Token   string `json:"token,omitempty"`
}

// CreatePaymentRequest is the request body for payment-request creation.
type CreatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency,omitempty"`
	Network     string          `json:"network" binding:"required"`
	Description string          `json:"description,omitempty" binding:"max=500"`
	ToAddress   string          `json:"to_address,omitempty"`
}

// SelectMethodRequest is the request body for choosing the settlement
// method of a pending payment request.
type SelectMethodRequest struct {
	Network   string           `json:"network" binding:"required"`
	ToAddress string           `json:"to_address" binding:"required"`
	Currency  string           `json:"currency,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
}

// CompletePaymentRequest is the request body for marking a payment as
// settled on-chain.
type CompletePaymentRequest struct {
	TxHash string `json:"tx_hash" binding:"required,max=128"`
}

// PaymentResponse is the payment-request representation returned to
// merchants.
type PaymentResponse struct {
	ID          string  `json:"id"`
	Amount      string  `json:"amount"`
	Currency    string  `json:"currency"`
	Network     string  `json:"network"`
	Description string  `json:"description,omitempty"`
	ToAddress   string  `json:"to_address,omitempty"`
	Status      string  `json:"status"`
	TxHash      *string `json:"tx_hash,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// PaymentStatusResponse is the lightweight status poll response.
type PaymentStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SweepResponse reports how many stale pending requests the sweep
// transitioned.
type SweepResponse struct {
	Expired int64 `json:"expired"`
}

// DeliveryResponse is one row of the append-only webhook delivery log.
type DeliveryResponse struct {
	ID           string  `json:"id"`
	PaymentID    string  `json:"payment_id"`
	URL          string  `json:"url"`
	ResponseCode *int    `json:"response_code,omitempty"`
	ResponseBody *string `json:"response_body,omitempty"`
	Success      bool    `json:"success"`
	Attempt      int     `json:"attempt"`
	CreatedAt    string  `json:"created_at"`
}
