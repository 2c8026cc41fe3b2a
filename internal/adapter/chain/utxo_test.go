package chain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chainpay-gateway/config"
	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/pkg/apperror"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

func newTestUTXOAdapter(t *testing.T, esploraURL string) *UTXOAdapter {
	t.Helper()
	cfg := config.ChainsConfig{
		ReadTimeout: time.Second,
		UTXO: map[string]config.UTXONetworkConfig{
			"bitcoin":      {EsploraURL: esploraURL, ExplorerURL: "https://blockstream.info"},
			"bitcoin-cash": {EsploraURL: esploraURL},
		},
	}
	return NewUTXOAdapter(cfg, fakeEncryption{}, zerolog.Nop())
}

func TestUTXOAdapter_GenerateAddress(t *testing.T) {
	a := newTestUTXOAdapter(t, "")

	for _, network := range []domain.Network{domain.NetworkBitcoin, domain.NetworkBitcoinCash} {
		t.Run(string(network), func(t *testing.T) {
			info, err := a.GenerateAddress(context.Background(), network)
			require.NoError(t, err)

			// legacy P2PKH, decodable against mainnet params
			decoded, err := btcutil.DecodeAddress(info.Address, &chaincfg.MainNetParams)
			require.NoError(t, err)
			_, ok := decoded.(*btcutil.AddressPubKeyHash)
			assert.True(t, ok, "expected P2PKH address, got %T", decoded)

			assert.True(t, bip39.IsMnemonicValid(info.Mnemonic))
			assert.Len(t, strings.Fields(info.Mnemonic), 12)
			assert.NotEmpty(t, info.SecretRef)

			wifStr, err := fakeEncryption{}.Decrypt(info.SecretRef)
			require.NoError(t, err)
			wif, err := btcutil.DecodeWIF(wifStr)
			require.NoError(t, err)
			assert.True(t, wif.CompressPubKey)
		})
	}
}

func TestUTXOAdapter_GenerateAddress_UnsupportedNetwork(t *testing.T) {
	a := newTestUTXOAdapter(t, "")

	_, err := a.GenerateAddress(context.Background(), domain.NetworkEthereum)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NET_001", appErr.Code)
}

func TestUTXOAdapter_GetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/address/")
		w.Write([]byte(`{"chain_stats":{"funded_txo_sum":150000000,"spent_txo_sum":50000000}}`))
	}))
	defer srv.Close()

	a := newTestUTXOAdapter(t, srv.URL)

	got, err := a.GetBalance(context.Background(), domain.NetworkBitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("1")), "got %s", got)
}

func TestUTXOAdapter_GetBalance_RetriesOnce(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"chain_stats":{"funded_txo_sum":25000,"spent_txo_sum":0}}`))
	}))
	defer srv.Close()

	a := newTestUTXOAdapter(t, srv.URL)

	got, err := a.GetBalance(context.Background(), domain.NetworkBitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.New(25000, -8)))
	assert.Equal(t, 2, calls)
}

func TestUTXOAdapter_GetBalance_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := newTestUTXOAdapter(t, srv.URL)

	_, err := a.GetBalance(context.Background(), domain.NetworkBitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CHN_001", appErr.Code)
}

func TestUTXOAdapter_SendTransaction_NotSupported(t *testing.T) {
	a := newTestUTXOAdapter(t, "")

	_, err := a.SendTransaction(context.Background(), ports.SendRequest{Network: domain.NetworkBitcoin})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CHN_002", appErr.Code)
	assert.Equal(t, http.StatusNotImplemented, appErr.HTTPStatus)
}

func TestUTXOAdapter_RequestFaucet_Unavailable(t *testing.T) {
	a := newTestUTXOAdapter(t, "")

	err := a.RequestFaucet(context.Background(), domain.NetworkBitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", "")
	require.Error(t, err)
}
