package domain

import "regexp"

var (
	evmAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	solAddressRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	// Legacy P2PKH (and P2SH) base58 addresses for the Bitcoin family.
	utxoAddressRe = regexp.MustCompile(`^[13mn2][1-9A-HJ-NP-Za-km-z]{25,34}$`)
)

// ValidAddress reports whether addr matches the canonical on-chain
// address format of the network's family.
func ValidAddress(n Network, addr string) bool {
	family, ok := FamilyOf(n)
	if !ok {
		return false
	}
	switch family {
	case FamilyEVM:
		return evmAddressRe.MatchString(addr)
	case FamilySOL:
		return solAddressRe.MatchString(addr)
	case FamilyUTXO:
		return utxoAddressRe.MatchString(addr)
	}
	return false
}
