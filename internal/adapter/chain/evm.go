package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"chainpay-gateway/config"
	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const evmTransferGasLimit = 21_000

// evmRPC is the subset of ethclient.Client the adapter needs; it exists
// so tests can stub the provider.
type evmRPC interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// EVMAdapter serves every EVM-tagged network through JSON-RPC providers
// keyed by network name. One key-generation routine is shared by all of
// them; only the RPC endpoint and chain ID differ.
type EVMAdapter struct {
	networks    map[domain.Network]config.EVMNetworkConfig
	encSvc      ports.EncryptionService
	httpClient  *http.Client
	readTimeout time.Duration
	sendTimeout time.Duration
	log         zerolog.Logger

	mu      sync.Mutex
	clients map[domain.Network]evmRPC
	dial    func(rawurl string) (evmRPC, error)
}

// NewEVMAdapter creates the EVM-family adapter.
func NewEVMAdapter(cfg config.ChainsConfig, encSvc ports.EncryptionService, log zerolog.Logger) *EVMAdapter {
	networks := make(map[domain.Network]config.EVMNetworkConfig, len(cfg.EVM))
	for name, nc := range cfg.EVM {
		if n, ok := domain.ParseNetwork(name); ok {
			networks[n] = nc
		}
	}
	return &EVMAdapter{
		networks:    networks,
		encSvc:      encSvc,
		httpClient:  &http.Client{Timeout: cfg.ReadTimeout},
		readTimeout: cfg.ReadTimeout,
		sendTimeout: cfg.SendTimeout,
		log:         log,
		clients:     make(map[domain.Network]evmRPC),
		dial: func(rawurl string) (evmRPC, error) {
			return ethclient.Dial(rawurl)
		},
	}
}

// Family implements ports.ChainAdapter.
func (a *EVMAdapter) Family() domain.ChainFamily {
	return domain.FamilyEVM
}

// GenerateAddress creates a fresh secp256k1 keypair; the address is
// deterministic from the public key. The private key leaves this method
// only as an encrypted reference.
func (a *EVMAdapter) GenerateAddress(ctx context.Context, network domain.Network) (*ports.AddressInfo, error) {
	if _, err := a.networkConfig(network); err != nil {
		return nil, err
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, apperror.ErrUpstream(string(network), "key generation", err)
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey).Hex()
	privateKeyHex := hexutil.Encode(crypto.FromECDSA(privateKey))[2:]

	secretRef, err := a.encSvc.Encrypt(privateKeyHex)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}

	return &ports.AddressInfo{
		Address:   address,
		SecretRef: secretRef,
	}, nil
}

// GetBalance reads the confirmed native balance via the network's
// JSON-RPC provider. Reads are retried once; they are idempotent.
func (a *EVMAdapter) GetBalance(ctx context.Context, network domain.Network, address string) (decimal.Decimal, error) {
	client, err := a.clientFor(network)
	if err != nil {
		return decimal.Zero, err
	}

	account := common.HexToAddress(address)

	var wei *big.Int
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, a.readTimeout)
		wei, err = client.BalanceAt(callCtx, account, nil)
		cancel()
		if err == nil {
			break
		}
	}
	if err != nil {
		return decimal.Zero, apperror.ErrUpstream(string(network), "balance", err)
	}

	return decimal.NewFromBigInt(wei, -network.Decimals()), nil
}

// SendTransaction signs and submits a native-coin transfer. Submission
// is never retried; a resubmitted transfer risks a double spend.
func (a *EVMAdapter) SendTransaction(ctx context.Context, req ports.SendRequest) (*ports.TxReceipt, error) {
	nc, err := a.networkConfig(req.Network)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(req.Currency, req.Network.Symbol()) {
		return nil, apperror.Validation(fmt.Sprintf("only native %s transfers are supported on %s", req.Network.Symbol(), req.Network))
	}

	client, err := a.clientFor(req.Network)
	if err != nil {
		return nil, err
	}

	privateKeyHex, err := a.encSvc.Decrypt(req.SecretRef)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("parse private key: %w", err))
	}

	sendCtx, cancel := context.WithTimeout(ctx, a.sendTimeout)
	defer cancel()

	from := common.HexToAddress(req.From)
	nonce, err := client.PendingNonceAt(sendCtx, from)
	if err != nil {
		return nil, apperror.ErrUpstream(string(req.Network), "nonce", err)
	}
	tipCap, err := client.SuggestGasTipCap(sendCtx)
	if err != nil {
		return nil, apperror.ErrUpstream(string(req.Network), "gas tip", err)
	}
	head, err := client.HeaderByNumber(sendCtx, nil)
	if err != nil {
		return nil, apperror.ErrUpstream(string(req.Network), "head block", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	// fee cap covers the tip plus two base-fee doublings
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(baseFee, big.NewInt(2)))

	wei := req.Amount.Shift(req.Network.Decimals()).BigInt()
	to := common.HexToAddress(req.To)
	chainID := big.NewInt(nc.ChainID)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       evmTransferGasLimit,
		To:        &to,
		Value:     wei,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), privateKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sign transaction: %w", err))
	}

	if err := client.SendTransaction(sendCtx, signedTx); err != nil {
		return nil, apperror.ErrUpstream(string(req.Network), "send transaction", err)
	}

	hash := signedTx.Hash().Hex()
	a.log.Info().
		Str("network", string(req.Network)).
		Str("tx_hash", hash).
		Str("amount", req.Amount.String()).
		Msg("evm transaction submitted")

	return &ports.TxReceipt{
		Hash:        hash,
		ExplorerURL: explorerTxURL(nc.ExplorerURL, hash),
	}, nil
}

// RequestFaucet posts a funding request to the configured testnet
// faucet endpoint for the network.
func (a *EVMAdapter) RequestFaucet(ctx context.Context, network domain.Network, address, token string) error {
	nc, err := a.networkConfig(network)
	if err != nil {
		return err
	}
	if nc.FaucetURL == "" {
		return apperror.Validation(fmt.Sprintf("no faucet configured for %s", network))
	}

	body, err := json.Marshal(map[string]string{
		"address": address,
		"token":   token,
	})
	if err != nil {
		return apperror.InternalError(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.readTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, nc.FaucetURL, bytes.NewReader(body))
	if err != nil {
		return apperror.InternalError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return apperror.ErrUpstream(string(network), "faucet", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperror.ErrUpstream(string(network), "faucet", fmt.Errorf("faucet returned status %d", resp.StatusCode))
	}
	return nil
}

func (a *EVMAdapter) networkConfig(network domain.Network) (config.EVMNetworkConfig, error) {
	nc, ok := a.networks[network]
	if !ok {
		return config.EVMNetworkConfig{}, apperror.ErrUnsupportedNetwork(string(network))
	}
	return nc, nil
}

func (a *EVMAdapter) clientFor(network domain.Network) (evmRPC, error) {
	nc, err := a.networkConfig(network)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if client, ok := a.clients[network]; ok {
		return client, nil
	}
	client, err := a.dial(nc.RPCURL)
	if err != nil {
		return nil, apperror.ErrUpstream(string(network), "dial", err)
	}
	a.clients[network] = client
	return client, nil
}

func explorerTxURL(base, hash string) string {
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/tx/" + hash
}
