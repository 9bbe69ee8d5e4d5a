// Package bcs implements the canonical binary serialization used for all
// object bytes, command arguments, and hash inputs (spec.md §6): integers
// little-endian, lengths ULEB128-prefixed, structs concatenated
// field-by-field in declaration order.
//
// Struct (de)serialization for the Rust-style Move/Sui BCS enums
// (Command, Argument, CallArg, TransactionKind, ...) is delegated to
// github.com/iotaledger/bcs-go, which understands the `IsBcsEnum()`
// marker method convention already used by the open-move sui-go-sdk
// transaction types this package's callers are modeled on.
package bcs

import (
	"bytes"
	"encoding/binary"
	"fmt"

	iotabcs "github.com/iotaledger/bcs-go"
)

// Marshal encodes v using the shared BCS rules.
func Marshal(v any) ([]byte, error) {
	return iotabcs.Marshal(v)
}

// Unmarshal decodes BCS bytes into v.
func Unmarshal(data []byte, v any) error {
	return iotabcs.Unmarshal(data, v)
}

// PutUvarint appends a ULEB128-encoded length prefix to buf, matching the
// encoding Move's BCS uses for vector/string lengths.
func PutUvarint(buf *bytes.Buffer, n uint64) {
	var scratch [binary.MaxVarintLen64]byte
	w := binary.PutUvarint(scratch[:], n)
	buf.Write(scratch[:w])
}

// PutU64LE appends n as 8 little-endian bytes — the fixed-width encoding
// spec.md §3 specifies for the dynamic-field child-id length prefix
// (distinct from the ULEB128 length prefix used elsewhere in BCS).
func PutU64LE(buf *bytes.Buffer, n uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], n)
	buf.Write(scratch[:])
}

// ReadUvarint reads a ULEB128-encoded length prefix.
func ReadUvarint(r *bytes.Reader) (uint64, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, fmt.Errorf("bcs: malformed uvarint: %w", err)
	}
	return n, nil
}
