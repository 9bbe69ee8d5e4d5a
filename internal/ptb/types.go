// Package ptb implements the PTB Executor (spec.md §4.6, C6): it walks
// the command list, resolves arguments, drives the VM, and propagates
// mutable-reference outputs; effects are built from the result by
// internal/effects.
package ptb

import (
	"github.com/sirupsen/logrus"

	"github.com/sui-sandbox/replay/internal/dynamicfield"
	"github.com/sui-sandbox/replay/internal/linkage"
	"github.com/sui-sandbox/replay/internal/objectstore"
	"github.com/sui-sandbox/replay/internal/resolver"
	"github.com/sui-sandbox/replay/internal/suitypes"
	"github.com/sui-sandbox/replay/internal/vm"
)

// TypedValue is a value flowing through the PTB: its BCS bytes plus its
// known type tag, resolved either from an input descriptor or a
// pre-resolved function return signature (spec.md §3 "Every argument
// carries an implicit type tag").
type TypedValue struct {
	Type suitypes.TypeTag
	BCS  []byte
	// ObjectID is set when this value denotes a live object (as opposed
	// to a pure value), so TransferObjects/SplitCoins/etc. can look it
	// up in the Object Store without re-deriving an id from bytes
	// (spec.md §4.6 "never assume first 32 bytes are the id").
	ObjectID *suitypes.ObjectID
}

// Executor drives one transaction's PTB against the Object Store,
// Bytecode Resolver, Dynamic Field Engine, and VM Harness (spec.md §4.6
// "State").
type Executor struct {
	store    *objectstore.Store
	res      *resolver.Resolver
	dfield   *dynamicfield.Engine
	aliases  *linkage.Map
	harness  *vm.Harness

	inputs       []suitypes.Input
	inputObjects []*suitypes.ObjectID // parallel to inputs; nil for pure inputs
	results      [][]TypedValue
	gasCoinID    suitypes.ObjectID

	log *logrus.Entry
}

// NewExecutor constructs an executor for one transaction. inputObjects
// must be parallel to tx.Inputs, already primed into store by the
// orchestrator (spec.md §4.9 steps 3/6).
func NewExecutor(
	store *objectstore.Store,
	res *resolver.Resolver,
	dfield *dynamicfield.Engine,
	aliases *linkage.Map,
	harness *vm.Harness,
	inputs []suitypes.Input,
	inputObjects []*suitypes.ObjectID,
	gasCoinID suitypes.ObjectID,
	log *logrus.Entry,
) *Executor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Executor{
		store:        store,
		res:          res,
		dfield:       dfield,
		aliases:      aliases,
		harness:      harness,
		inputs:       inputs,
		inputObjects: inputObjects,
		gasCoinID:    gasCoinID,
		log:          log.WithField("component", "ptb_executor"),
	}
}

// Results exposes the per-command result vectors built so far, for
// testing and for effects construction.
func (e *Executor) Results() [][]TypedValue {
	return e.results
}
