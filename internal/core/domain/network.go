package domain

import "strings"

// Network identifies a supported blockchain network.
type Network string

const (
	NetworkEthereum    Network = "ethereum"
	NetworkPolygon     Network = "polygon"
	NetworkBase        Network = "base"
	NetworkArbitrum    Network = "arbitrum"
	NetworkBinance     Network = "binance"
	NetworkBitcoin     Network = "bitcoin"
	NetworkBitcoinCash Network = "bitcoin-cash"
	NetworkSolana      Network = "solana"
	NetworkTron        Network = "tron"
)

// ChainFamily groups networks that share an addressing and signing model.
type ChainFamily string

const (
	FamilyEVM  ChainFamily = "EVM"
	FamilyUTXO ChainFamily = "UTXO"
	FamilySOL  ChainFamily = "SOL"
)

// networkInfo holds static per-network metadata.
// A network with an empty family is recognised but has no adapter
// implementation; the registry rejects it as unsupported.
type networkInfo struct {
	family   ChainFamily
	symbol   string
	decimals int32
}

var networks = map[Network]networkInfo{
	NetworkEthereum:    {FamilyEVM, "ETH", 18},
	NetworkPolygon:     {FamilyEVM, "MATIC", 18},
	NetworkBase:        {FamilyEVM, "ETH", 18},
	NetworkArbitrum:    {FamilyEVM, "ETH", 18},
	NetworkBinance:     {FamilyEVM, "BNB", 18},
	NetworkBitcoin:     {FamilyUTXO, "BTC", 8},
	NetworkBitcoinCash: {FamilyUTXO, "BCH", 8},
	NetworkSolana:      {FamilySOL, "SOL", 9},
	NetworkTron:        {"", "TRX", 6},
}

// networkSynonyms folds common aliases onto canonical network names.
// Folding happens at the API boundary only; persisted records always
// carry the canonical name.
var networkSynonyms = map[string]Network{
	"eth":    NetworkEthereum,
	"matic":  NetworkPolygon,
	"bsc":    NetworkBinance,
	"bnb":    NetworkBinance,
	"btc":    NetworkBitcoin,
	"bch":    NetworkBitcoinCash,
	"sol":    NetworkSolana,
	"trx":    NetworkTron,
}

// ParseNetwork normalizes a caller-supplied network name.
// Matching is case-insensitive and folds known synonyms. Unknown names
// are rejected, never defaulted.
func ParseNetwork(s string) (Network, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if n, ok := networkSynonyms[name]; ok {
		return n, true
	}
	n := Network(name)
	if _, ok := networks[n]; ok {
		return n, true
	}
	return "", false
}

// FamilyOf returns the chain family implementing the given network.
// ok is false when the network is unknown or has no adapter family.
func FamilyOf(n Network) (ChainFamily, bool) {
	info, ok := networks[n]
	if !ok || info.family == "" {
		return "", false
	}
	return info.family, true
}

// Symbol returns the native currency symbol for a network.
func (n Network) Symbol() string {
	return networks[n].symbol
}

// Decimals returns the native currency precision for a network.
func (n Network) Decimals() int32 {
	return networks[n].decimals
}

// Valid reports whether n is a recognised network identifier.
func (n Network) Valid() bool {
	_, ok := networks[n]
	return ok
}

// AllNetworks returns every recognised network identifier.
func AllNetworks() []Network {
	out := make([]Network, 0, len(networks))
	for n := range networks {
		out = append(out, n)
	}
	return out
}
