package ports

import (
	"context"

	"chainpay-gateway/internal/core/domain"

	"github.com/shopspring/decimal"
)

// AddressInfo is the result of generating a settlement address.
// Mnemonic is set only for chains using BIP-39 derivation; it is the
// single place a human-recoverable secret surfaces and must never be
// logged or persisted.
type AddressInfo struct {
	Address   string
	SecretRef string // opaque encrypted key reference
	Mnemonic  string
}

// TxReceipt describes a submitted on-chain transfer.
type TxReceipt struct {
	Hash        string
	ExplorerURL string
}

// SendRequest holds the parameters for a transfer submission.
type SendRequest struct {
	Network   domain.Network
	From      string
	To        string
	Amount    decimal.Decimal
	Currency  string
	SecretRef string // key reference of the sending wallet
}

// ChainAdapter implements address generation, balance reads and
// transaction submission for one chain family.
type ChainAdapter interface {
	// Family identifies the chain family this adapter serves.
	Family() domain.ChainFamily

	// GenerateAddress creates a fresh keypair and settlement address for
	// the given network.
	GenerateAddress(ctx context.Context, network domain.Network) (*AddressInfo, error)

	// GetBalance reads the confirmed native balance of an address,
	// expressed in whole coin units.
	GetBalance(ctx context.Context, network domain.Network, address string) (decimal.Decimal, error)

	// SendTransaction submits a transfer. Families without a signing
	// implementation return apperror.ErrSendNotSupported; they never
	// attempt a partial submission.
	SendTransaction(ctx context.Context, req SendRequest) (*TxReceipt, error)

	// RequestFaucet asks the network's test faucet to fund an address.
	RequestFaucet(ctx context.Context, network domain.Network, address, token string) error
}

// AdapterRegistry resolves a network identifier to its chain adapter.
// Unknown networks are rejected with an explicit error, never mapped to
// a default chain.
type AdapterRegistry interface {
	ForNetwork(network domain.Network) (ChainAdapter, error)
	Families() []domain.ChainFamily
}
