package models

import "strings"

// base58Alphabet is the Bitcoin/Solana base58 alphabet (no 0, O, I, l).
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// LamportsPerSOL is the fixed conversion factor between lamports and SOL.
const LamportsPerSOL = 1_000_000_000

// ValidAddress reports whether addr looks like a Solana base58 public key:
// 32 to 44 characters drawn entirely from the base58 alphabet.
//
// This is a format check only — it never touches the network. Address
// validation always precedes RPC I/O.
func ValidAddress(addr string) bool {
	if len(addr) < 32 || len(addr) > 44 {
		return false
	}
	for _, r := range addr {
		if !strings.ContainsRune(base58Alphabet, r) {
			return false
		}
	}
	return true
}

// AddressCategory classifies an on-chain account by what getAccountInfo
// reveals about it.
type AddressCategory string

const (
	CategoryIndividual  AddressCategory = "individual"
	CategoryProgram     AddressCategory = "program"
	CategoryTokenMint   AddressCategory = "token_mint"
	CategoryTokenAccount AddressCategory = "token_account"
	CategoryUnknown     AddressCategory = "unknown"
)

// AccountIdentity is the result of a get_account_identity lookup.
type AccountIdentity struct {
	Address      string          `json:"address"`
	Exists       bool            `json:"account_exists"`
	Category     AddressCategory `json:"category"`
	Executable   bool            `json:"executable"`
	OwnerProgram string          `json:"owner_program,omitempty"`
}

// IsProgramLike reports whether the identity belongs to a program or token
// mint rather than a wallet — the boundary used to separate
// linked_addresses from program_addresses in the detective view.
func (a AccountIdentity) IsProgramLike() bool {
	return a.Executable || a.Category == CategoryProgram || a.Category == CategoryTokenMint
}
