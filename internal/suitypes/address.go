// Package suitypes holds the scalar identity types shared by every
// component of the replay core: addresses, object ids, digests, owners,
// and type tags. These mirror the wire shapes in
// github.com/open-move/sui-go-sdk/types and typetag, generalized to the
// historical-replay setting (no signing, no live network).
package suitypes

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// AddressLength is the width of a Sui/Move address in bytes.
const AddressLength = 32

// Address is a 32-byte on-chain identity: an account, a package, or an
// object. Packages and objects share the address space (spec.md §3).
type Address [AddressLength]byte

// ParseAddress accepts a 0x-prefixed hex string of any length up to 64
// hex digits and zero-pads on the left, per spec.md §6.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) > AddressLength*2 {
		return a, fmt.Errorf("suitypes: address %q longer than %d hex digits", s, AddressLength*2)
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("suitypes: invalid hex address %q: %w", s, err)
	}
	copy(a[AddressLength-len(raw):], raw)
	return a, nil
}

// MustAddress panics on a malformed address. Reserved for well-known
// framework constants below.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the address as a 0x-prefixed, zero-padded hex string.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether every byte is zero.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ObjectID is an address-shaped object identity (spec.md §3).
type ObjectID = Address

// Digest is a 32-byte Blake2b-256 content hash.
type Digest [32]byte

// ZeroDigest is the all-zero marker assigned to deleted objects
// (spec.md §3).
var ZeroDigest Digest

// DigestFromBase58 decodes a base58-rendered transaction digest
// (spec.md §6).
func DigestFromBase58(s string) (Digest, error) {
	var d Digest
	raw, err := base58.Decode(s)
	if err != nil {
		return d, fmt.Errorf("suitypes: invalid base58 digest %q: %w", s, err)
	}
	if len(raw) != len(d) {
		return d, fmt.Errorf("suitypes: digest %q decodes to %d bytes, want %d", s, len(raw), len(d))
	}
	copy(d[:], raw)
	return d, nil
}

// Base58 renders the digest in the same base58 form used for transaction
// digests on-chain.
func (d Digest) Base58() string {
	return base58.Encode(d[:])
}

// Hex renders the digest as 0x-prefixed hex, used for object/package
// digests which are conventionally shown in hex rather than base58.
func (d Digest) Hex() string {
	return "0x" + hex.EncodeToString(d[:])
}

func (d Digest) IsZero() bool { return d == ZeroDigest }

// Well-known framework addresses. The Bytecode Resolver's
// PreloadFramework covers 0x1-0x3, but its built-in snapshot holds no
// modules, so nothing is installed at them unless a fetched or imported
// package supplies them.
var (
	MoveStdlibAddress    = MustAddress("0x1")
	SuiFrameworkAddress  = MustAddress("0x2")
	SuiSystemAddress     = MustAddress("0x3")
	SuiClockObjectID     = MustAddress("0x6")
	SuiDenyListObjectID  = MustAddress("0x403")
)
