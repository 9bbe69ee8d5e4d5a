package vm

import "github.com/sui-sandbox/replay/internal/suitypes"

// TxContext is the harness-provided value carrying sender, epoch,
// digest, and a fresh-id counter, injected as the last argument of entry
// functions that accept it (spec.md §3 GLOSSARY, §4.6).
type TxContext struct {
	Sender      suitypes.Address
	Digest      suitypes.Digest
	Epoch       uint64
	TimestampMs uint64
	freshIDSeq  uint64
}

// FreshID derives the next object id for this transaction, following the
// same "digest + running counter" construction the live network uses so
// object ids created during replay are deterministic across runs.
func (tc *TxContext) FreshID() suitypes.ObjectID {
	tc.freshIDSeq++
	seed := tc.Digest
	seed[0] ^= byte(tc.freshIDSeq)
	seed[1] ^= byte(tc.freshIDSeq >> 8)
	seed[2] ^= byte(tc.freshIDSeq >> 16)
	seed[3] ^= byte(tc.freshIDSeq >> 24)
	return suitypes.ObjectID(seed)
}
