package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"chainpay-gateway/config"
	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/pkg/apperror"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// faucetAirdropLamports is the amount requested per faucet call (1 SOL).
const faucetAirdropLamports = 1_000_000_000

// solRPC is the subset of rpc.Client the adapter needs.
type solRPC interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error)
}

// SOLAdapter serves the Solana network. Keypairs come from a single
// ed25519 key-generation primitive; balance and faucet calls delegate
// to the configured RPC connection. Transaction submission is
// unimplemented and fails loudly.
type SOLAdapter struct {
	cfg         config.SolanaConfig
	encSvc      ports.EncryptionService
	client      solRPC
	readTimeout time.Duration
	log         zerolog.Logger
}

// NewSOLAdapter creates the Solana adapter.
func NewSOLAdapter(cfg config.ChainsConfig, encSvc ports.EncryptionService, log zerolog.Logger) *SOLAdapter {
	return &SOLAdapter{
		cfg:         cfg.Solana,
		encSvc:      encSvc,
		client:      rpc.New(cfg.Solana.RPCURL),
		readTimeout: cfg.ReadTimeout,
		log:         log,
	}
}

// Family implements ports.ChainAdapter.
func (a *SOLAdapter) Family() domain.ChainFamily {
	return domain.FamilySOL
}

// GenerateAddress creates a fresh ed25519 keypair. The base58 public
// key is the address.
func (a *SOLAdapter) GenerateAddress(ctx context.Context, network domain.Network) (*ports.AddressInfo, error) {
	if network != domain.NetworkSolana {
		return nil, apperror.ErrUnsupportedNetwork(string(network))
	}

	wallet := solana.NewWallet()

	secretRef, err := a.encSvc.Encrypt(wallet.PrivateKey.String())
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}

	return &ports.AddressInfo{
		Address:   wallet.PublicKey().String(),
		SecretRef: secretRef,
	}, nil
}

// GetBalance reads the finalized lamport balance via RPC. Reads are
// retried once; they are idempotent.
func (a *SOLAdapter) GetBalance(ctx context.Context, network domain.Network, address string) (decimal.Decimal, error) {
	if network != domain.NetworkSolana {
		return decimal.Zero, apperror.ErrUnsupportedNetwork(string(network))
	}
	pubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return decimal.Zero, apperror.ErrInvalidAddress(string(network))
	}

	var result *rpc.GetBalanceResult
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, a.readTimeout)
		result, lastErr = a.client.GetBalance(callCtx, pubKey, rpc.CommitmentFinalized)
		cancel()
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return decimal.Zero, apperror.ErrUpstream(string(network), "balance", lastErr)
	}

	lamports := new(big.Int).SetUint64(result.Value)
	return decimal.NewFromBigInt(lamports, -network.Decimals()), nil
}

// SendTransaction is not implemented for Solana; it fails loudly
// rather than silently dropping the transfer.
func (a *SOLAdapter) SendTransaction(ctx context.Context, req ports.SendRequest) (*ports.TxReceipt, error) {
	return nil, apperror.ErrSendNotSupported(string(req.Network))
}

// RequestFaucet asks the RPC node for a devnet airdrop.
func (a *SOLAdapter) RequestFaucet(ctx context.Context, network domain.Network, address, token string) error {
	if network != domain.NetworkSolana {
		return apperror.ErrUnsupportedNetwork(string(network))
	}
	if token != "" && !strings.EqualFold(token, network.Symbol()) {
		return apperror.Validation(fmt.Sprintf("faucet only funds native %s", network.Symbol()))
	}
	pubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return apperror.ErrInvalidAddress(string(network))
	}

	callCtx, cancel := context.WithTimeout(ctx, a.readTimeout)
	defer cancel()

	sig, err := a.client.RequestAirdrop(callCtx, pubKey, faucetAirdropLamports, rpc.CommitmentFinalized)
	if err != nil {
		return apperror.ErrUpstream(string(network), "faucet", err)
	}

	a.log.Info().
		Str("network", string(network)).
		Str("address", address).
		Str("signature", sig.String()).
		Msg("faucet airdrop requested")
	return nil
}
