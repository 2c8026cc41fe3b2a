package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chainpay-gateway/config"
	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/pkg/apperror"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip39"
)

// BIP-44 coin types per network. The full derivation path is
// m/44'/coin'/0'/0/0.
var utxoCoinTypes = map[domain.Network]uint32{
	domain.NetworkBitcoin:     0,
	domain.NetworkBitcoinCash: 145,
}

// UTXOAdapter serves the Bitcoin family. Addresses are derived
// hierarchically (BIP-32/BIP-39) from a freshly generated mnemonic;
// the mnemonic is returned exactly once and never stored or logged.
//
// Transaction submission is unimplemented; sends fail with an explicit
// not-supported error.
type UTXOAdapter struct {
	networks    map[domain.Network]config.UTXONetworkConfig
	encSvc      ports.EncryptionService
	httpClient  *http.Client
	readTimeout time.Duration
	log         zerolog.Logger
}

// NewUTXOAdapter creates the Bitcoin-family adapter.
func NewUTXOAdapter(cfg config.ChainsConfig, encSvc ports.EncryptionService, log zerolog.Logger) *UTXOAdapter {
	networks := make(map[domain.Network]config.UTXONetworkConfig, len(cfg.UTXO))
	for name, nc := range cfg.UTXO {
		if n, ok := domain.ParseNetwork(name); ok {
			networks[n] = nc
		}
	}
	return &UTXOAdapter{
		networks:    networks,
		encSvc:      encSvc,
		httpClient:  &http.Client{Timeout: cfg.ReadTimeout},
		readTimeout: cfg.ReadTimeout,
		log:         log,
	}
}

// Family implements ports.ChainAdapter.
func (a *UTXOAdapter) Family() domain.ChainFamily {
	return domain.FamilyUTXO
}

// GenerateAddress derives a P2PKH address from a new BIP-39 mnemonic
// at the network's BIP-44 path.
func (a *UTXOAdapter) GenerateAddress(ctx context.Context, network domain.Network) (*ports.AddressInfo, error) {
	coinType, ok := utxoCoinTypes[network]
	if !ok {
		return nil, apperror.ErrUnsupportedNetwork(string(network))
	}

	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate entropy: %w", err))
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate mnemonic: %w", err))
	}

	params := &chaincfg.MainNetParams
	master, err := hdkeychain.NewMaster(bip39.NewSeed(mnemonic, ""), params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("derive master key: %w", err))
	}

	key := master
	for _, step := range []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
		0,
	} {
		if key, err = key.Derive(step); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("derive child key: %w", err))
		}
	}

	pubKey, err := key.ECPubKey()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("derive public key: %w", err))
	}
	address, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pubKey.SerializeCompressed()), params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encode address: %w", err))
	}

	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("derive private key: %w", err))
	}
	wif, err := btcutil.NewWIF(privKey, params, true)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encode WIF: %w", err))
	}

	secretRef, err := a.encSvc.Encrypt(wif.String())
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(err)
	}

	return &ports.AddressInfo{
		Address:   address.EncodeAddress(),
		SecretRef: secretRef,
		Mnemonic:  mnemonic,
	}, nil
}

// esploraAddressStats mirrors the address endpoint of a
// blockstream-style index API.
type esploraAddressStats struct {
	ChainStats struct {
		FundedTxoSum int64 `json:"funded_txo_sum"`
		SpentTxoSum  int64 `json:"spent_txo_sum"`
	} `json:"chain_stats"`
}

// GetBalance reads the confirmed balance from the esplora index.
// Reads are retried once; they are idempotent.
func (a *UTXOAdapter) GetBalance(ctx context.Context, network domain.Network, address string) (decimal.Decimal, error) {
	nc, ok := a.networks[network]
	if !ok || nc.EsploraURL == "" {
		return decimal.Zero, apperror.ErrUnsupportedNetwork(string(network))
	}

	url := strings.TrimRight(nc.EsploraURL, "/") + "/address/" + address

	var stats esploraAddressStats
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		lastErr = a.fetchJSON(ctx, url, &stats)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return decimal.Zero, apperror.ErrUpstream(string(network), "balance", lastErr)
	}

	sats := stats.ChainStats.FundedTxoSum - stats.ChainStats.SpentTxoSum
	return decimal.New(sats, -network.Decimals()), nil
}

// SendTransaction is not implemented for the Bitcoin family. There is
// no coin-selection logic yet.
func (a *UTXOAdapter) SendTransaction(ctx context.Context, req ports.SendRequest) (*ports.TxReceipt, error) {
	return nil, apperror.ErrSendNotSupported(string(req.Network))
}

// RequestFaucet is unavailable for the Bitcoin family.
func (a *UTXOAdapter) RequestFaucet(ctx context.Context, network domain.Network, address, token string) error {
	return apperror.Validation(fmt.Sprintf("no faucet available for %s", network))
}

func (a *UTXOAdapter) fetchJSON(ctx context.Context, url string, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, a.readTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("esplora status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
