package service

import (
	"context"
	"fmt"
	"time"

	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletService. It is a thin facade
// over the adapter registry: network strings are parsed and rejected
// here, before any chain call, so an unknown network never reaches an
// adapter.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	registry   ports.AdapterRegistry
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	registry ports.AdapterRegistry,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		registry:   registry,
		log:        log,
	}
}

// CreateWallet generates a fresh address on the requested network and
// persists it. For BIP-39 chains the result carries the mnemonic; it is
// returned to the caller once and discarded.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, merchantID uuid.UUID, network string) (*ports.CreateWalletResult, error) {
	n, ok := domain.ParseNetwork(network)
	if !ok {
		return nil, apperror.ErrUnsupportedNetwork(network)
	}

	adapter, err := s.registry.ForNetwork(n)
	if err != nil {
		return nil, err
	}

	info, err := adapter.GenerateAddress(ctx, n)
	if err != nil {
		return nil, err
	}

	wallet := &domain.Wallet{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Address:    info.Address,
		Network:    n,
		Currency:   n.Symbol(),
		SecretRef:  info.SecretRef,
		Balance:    decimal.Zero,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("network", string(n)).
		Str("address", wallet.Address).
		Msg("wallet created")

	return &ports.CreateWalletResult{Wallet: wallet, Mnemonic: info.Mnemonic}, nil
}

// GetBalance reads the live on-chain balance. The read is advisory: an
// adapter failure degrades to zero with a warn log instead of erroring.
// When the address belongs to a stored wallet the cached balance column
// is refreshed, best effort.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, network string, address string) (decimal.Decimal, error) {
	n, ok := domain.ParseNetwork(network)
	if !ok {
		return decimal.Zero, apperror.ErrUnsupportedNetwork(network)
	}
	if !domain.ValidAddress(n, address) {
		return decimal.Zero, apperror.ErrInvalidAddress(string(n))
	}

	adapter, err := s.registry.ForNetwork(n)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := adapter.GetBalance(ctx, n, address)
	if err != nil {
		s.log.Warn().Err(err).
			Str("network", string(n)).
			Str("address", address).
			Msg("balance read failed, reporting zero")
		return decimal.Zero, nil
	}

	if wallet, err := s.walletRepo.GetByAddress(ctx, n, address); err == nil && wallet != nil {
		if err := s.walletRepo.UpdateBalance(ctx, wallet.ID, balance); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", wallet.ID.String()).Msg("failed to cache wallet balance")
		}
	}

	return balance, nil
}

// GetWalletBalance reads the live balance of a stored wallet and
// refreshes the cached column. A failed chain read degrades to the
// cached balance with a warn log.
func (s *WalletServiceImpl) GetWalletBalance(ctx context.Context, merchantID, walletID uuid.UUID) (*domain.Wallet, decimal.Decimal, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, decimal.Zero, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil || wallet.MerchantID != merchantID {
		return nil, decimal.Zero, apperror.ErrNotFound("wallet")
	}

	adapter, err := s.registry.ForNetwork(wallet.Network)
	if err != nil {
		return nil, decimal.Zero, err
	}
	balance, err := adapter.GetBalance(ctx, wallet.Network, wallet.Address)
	if err != nil {
		s.log.Warn().Err(err).
			Str("wallet_id", wallet.ID.String()).
			Msg("balance read failed, serving cached balance")
		return wallet, wallet.Balance, nil
	}

	if err := s.walletRepo.UpdateBalance(ctx, wallet.ID, balance); err != nil {
		s.log.Warn().Err(err).Str("wallet_id", wallet.ID.String()).Msg("failed to cache wallet balance")
	}
	wallet.Balance = balance
	return wallet, balance, nil
}

// RequestFaucetFunds asks the network's testnet faucet to fund the
// address. The request is advisory; a faucet failure is logged and
// swallowed.
func (s *WalletServiceImpl) RequestFaucetFunds(ctx context.Context, network string, address, token string) error {
	n, ok := domain.ParseNetwork(network)
	if !ok {
		return apperror.ErrUnsupportedNetwork(network)
	}
	if !domain.ValidAddress(n, address) {
		return apperror.ErrInvalidAddress(string(n))
	}

	adapter, err := s.registry.ForNetwork(n)
	if err != nil {
		return err
	}
	if err := adapter.RequestFaucet(ctx, n, address, token); err != nil {
		s.log.Warn().Err(err).
			Str("network", string(n)).
			Str("address", address).
			Msg("faucet request failed")
	}
	return nil
}

// ListWallets returns the merchant's wallets, active and inactive.
func (s *WalletServiceImpl) ListWallets(ctx context.Context, merchantID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list wallets: %w", err))
	}
	return wallets, nil
}

// DeactivateWallet soft-deactivates a wallet. Rows are never deleted;
// the key material must stay recoverable.
func (s *WalletServiceImpl) DeactivateWallet(ctx context.Context, merchantID, walletID uuid.UUID) error {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil || wallet.MerchantID != merchantID {
		return apperror.ErrNotFound("wallet")
	}
	if err := s.walletRepo.SetActive(ctx, walletID, false); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("deactivate wallet: %w", err))
	}
	return nil
}
