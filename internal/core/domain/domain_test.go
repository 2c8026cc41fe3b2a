package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNetwork_Canonical(t *testing.T) {
	for _, n := range AllNetworks() {
		got, ok := ParseNetwork(string(n))
		require.True(t, ok, "network %s should parse", n)
		assert.Equal(t, n, got)
	}
}

func TestParseNetwork_CaseInsensitive(t *testing.T) {
	got, ok := ParseNetwork("  ETHEREUM ")
	require.True(t, ok)
	assert.Equal(t, NetworkEthereum, got)
}

func TestParseNetwork_Synonyms(t *testing.T) {
	cases := map[string]Network{
		"bsc":   NetworkBinance,
		"BNB":   NetworkBinance,
		"btc":   NetworkBitcoin,
		"bch":   NetworkBitcoinCash,
		"sol":   NetworkSolana,
		"matic": NetworkPolygon,
	}
	for in, want := range cases {
		got, ok := ParseNetwork(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
}

func TestParseNetwork_RejectsUnknown(t *testing.T) {
	// Unknown networks must be rejected, never defaulted to ethereum.
	_, ok := ParseNetwork("dogecoin")
	assert.False(t, ok)

	_, ok = ParseNetwork("")
	assert.False(t, ok)
}

func TestFamilyOf(t *testing.T) {
	cases := map[Network]ChainFamily{
		NetworkEthereum:    FamilyEVM,
		NetworkPolygon:     FamilyEVM,
		NetworkBase:        FamilyEVM,
		NetworkArbitrum:    FamilyEVM,
		NetworkBinance:     FamilyEVM,
		NetworkBitcoin:     FamilyUTXO,
		NetworkBitcoinCash: FamilyUTXO,
		NetworkSolana:      FamilySOL,
	}
	for n, want := range cases {
		got, ok := FamilyOf(n)
		require.True(t, ok, n)
		assert.Equal(t, want, got)
	}

	// Tron is recognised but carries no adapter family yet.
	_, ok := FamilyOf(NetworkTron)
	assert.False(t, ok)
}

func TestNetworkMetadata(t *testing.T) {
	for _, n := range AllNetworks() {
		assert.NotEmpty(t, n.Symbol(), "symbol for %s", n)
		assert.Greater(t, n.Decimals(), int32(0), "decimals for %s", n)
	}
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress(NetworkEthereum, "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"))
	assert.False(t, ValidAddress(NetworkEthereum, "0x123"))
	assert.False(t, ValidAddress(NetworkEthereum, "71C7656EC7ab88b098defB751B7401B5f6d8976F"))

	assert.True(t, ValidAddress(NetworkSolana, "4Nd1mYvH4kFssmvzmcrFyXdUqJjRrP6pfnpn2wUyyj4x"))
	assert.False(t, ValidAddress(NetworkSolana, "0OIl"))

	assert.True(t, ValidAddress(NetworkBitcoin, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"))
	assert.False(t, ValidAddress(NetworkBitcoin, "bogus!"))
}

func TestPaymentRequest_IsTerminal(t *testing.T) {
	p := &PaymentRequest{Status: StatusPending}
	assert.False(t, p.IsTerminal())

	for _, s := range []PaymentStatus{StatusCompleted, StatusFailed, StatusExpired} {
		p.Status = s
		assert.True(t, p.IsTerminal(), string(s))
	}
}

func TestPaymentRequest_ExpiredBy(t *testing.T) {
	created := time.Now()
	p := &PaymentRequest{Status: StatusPending, CreatedAt: created}

	assert.False(t, p.ExpiredBy(created.Add(2*time.Minute), 5*time.Minute))
	assert.True(t, p.ExpiredBy(created.Add(6*time.Minute), 5*time.Minute))
}
