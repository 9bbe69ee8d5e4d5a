// Package grpcarchive adapts the generated-style suirpc ledger client
// into the Historical State Provider's object/package/transaction
// fetch contract (spec.md §4.2, §6 "gRPC archive"). Transaction fetch
// decodes only the digest, checkpoint and timestamp;
// unchanged_loaded_runtime_objects and the rest of the effects are not
// decoded.
package grpcarchive

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sui-sandbox/replay/internal/resolver"
	"github.com/sui-sandbox/replay/internal/suirpc"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

// Client wraps a suirpc.LedgerServiceClient and decodes its
// structpb-carried responses into replay-core domain types.
type Client struct {
	ledger  suirpc.LedgerServiceClient
	pkgMeta suirpc.MovePackageServiceClient // nil unless FetchFunctionSignature is needed
}

func New(ledger suirpc.LedgerServiceClient) *Client {
	return &Client{ledger: ledger}
}

// WithMovePackageService attaches the normalized-signature RPC client
// used by FetchFunctionSignature; optional, since the checkpoint archive
// has no equivalent and not every replay needs it.
func (c *Client) WithMovePackageService(pkgMeta suirpc.MovePackageServiceClient) *Client {
	c.pkgMeta = pkgMeta
	return c
}

// FetchFunctionSignature returns the normalized parameter/return shape
// of one Move function, used by the orchestrator to populate the
// Bytecode Resolver before the PTB Executor runs (spec.md §4.1).
func (c *Client) FetchFunctionSignature(ctx context.Context, packageID suitypes.Address, module, function string) (resolver.FunctionSignature, error) {
	if c.pkgMeta == nil {
		return resolver.FunctionSignature{}, fmt.Errorf("grpcarchive: no MovePackageService client configured")
	}
	resp, err := c.pkgMeta.GetFunction(ctx, packageID.String(), module, function)
	if err != nil {
		return resolver.FunctionSignature{}, fmt.Errorf("grpcarchive: GetFunction: %w", err)
	}
	return decodeFunctionSignature(resp)
}

// FetchObjectAtVersion implements the C2 contract via the gRPC archive.
// version 0 is treated as "no pin" (GetObject is sent without a version,
// and with no checkpoint, so the server answers with its latest version
// of the object) rather than a literal version 0, since callers
// resolving dynamic-field children rarely know the exact version.
func (c *Client) FetchObjectAtVersion(ctx context.Context, id suitypes.ObjectID, version uint64) (*suitypes.Object, error) {
	idStr := id.String()
	var versionPtr *uint64
	if version != 0 {
		versionPtr = &version
	}
	resp, err := c.ledger.GetObject(ctx, idStr, versionPtr)
	if err != nil {
		return nil, fmt.Errorf("grpcarchive: GetObject: %w", err)
	}
	return decodeObject(resp)
}

// FetchTransaction returns the transaction record with only its digest,
// checkpoint and timestamp decoded (spec.md §4.2); sender, inputs,
// commands and effects, including unchanged_loaded_runtime_objects, are
// left empty.
func (c *Client) FetchTransaction(ctx context.Context, digest string) (*suitypes.TransactionRecord, error) {
	resp, err := c.ledger.GetTransaction(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("grpcarchive: GetTransaction: %w", err)
	}
	return decodeTransaction(resp)
}

// FetchPackageClosure returns a single package entry; the Historical
// State Provider walks the closure by repeatedly calling this per
// dependency address (spec.md §4.2 "fetch_package_closure").
func (c *Client) FetchPackageClosure(ctx context.Context, packageID suitypes.Address, checkpoint uint64) (*suitypes.Package, error) {
	resp, err := c.ledger.GetPackage(ctx, packageID.String(), checkpoint)
	if err != nil {
		return nil, fmt.Errorf("grpcarchive: GetPackage: %w", err)
	}
	return decodePackage(resp)
}

func decodeObject(s *structpb.Struct) (*suitypes.Object, error) {
	fields := s.GetFields()
	id, err := suitypes.ParseAddress(fields["object_id"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("grpcarchive: decoding object id: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(fields["bcs_base64"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("grpcarchive: decoding object bcs: %w", err)
	}
	return &suitypes.Object{
		ID:      id,
		Version: uint64(fields["version"].GetNumberValue()),
		BCS:     data,
	}, nil
}

func decodeTransaction(s *structpb.Struct) (*suitypes.TransactionRecord, error) {
	fields := s.GetFields()
	digest, err := suitypes.DigestFromBase58(fields["digest"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("grpcarchive: decoding transaction digest: %w", err)
	}
	return &suitypes.TransactionRecord{
		Digest:      digest,
		Checkpoint:  uint64(fields["checkpoint"].GetNumberValue()),
		TimestampMs: uint64(fields["timestamp_ms"].GetNumberValue()),
	}, nil
}

func decodePackage(s *structpb.Struct) (*suitypes.Package, error) {
	fields := s.GetFields()
	runtimeAddr, err := suitypes.ParseAddress(fields["runtime_address"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("grpcarchive: decoding package runtime address: %w", err)
	}
	originalAddr := runtimeAddr
	if v, ok := fields["original_address"]; ok {
		originalAddr, err = suitypes.ParseAddress(v.GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("grpcarchive: decoding package original address: %w", err)
		}
	}

	modules := make(map[string][]byte)
	if modFields := fields["modules"].GetStructValue().GetFields(); modFields != nil {
		for name, v := range modFields {
			data, decodeErr := base64.StdEncoding.DecodeString(v.GetStringValue())
			if decodeErr != nil {
				return nil, fmt.Errorf("grpcarchive: decoding module %q: %w", name, decodeErr)
			}
			modules[name] = data
		}
	}

	return &suitypes.Package{
		RuntimeAddress:  runtimeAddr,
		OriginalAddress: originalAddr,
		Version:         uint64(fields["version"].GetNumberValue()),
		Modules:         modules,
	}, nil
}

// decodeFunctionSignature parses the normalized-signature response shape
// into a resolver.FunctionSignature: "parameters" and "returns" are lists
// of normalized type-tag strings (spec.md §4.1), "type_parameters" gives,
// by parameter position, the type-parameter index of each bare
// placeholder (negative for a concrete type), "type_parameter_count" is
// the function's type-parameter count, and "mutable_refs"/"immutable_refs"
// name which parameter indices are taken by reference.
func decodeFunctionSignature(s *structpb.Struct) (resolver.FunctionSignature, error) {
	fields := s.GetFields()

	mutableRefs := numberSet(fields["mutable_refs"])
	immutableRefs := numberSet(fields["immutable_refs"])
	typeParamRefs := typeParamIndexByPosition(fields["type_parameters"])

	rawParams := fields["parameters"].GetListValue().GetValues()
	params := make([]resolver.ParamType, len(rawParams))
	for i, v := range rawParams {
		s := v.GetStringValue()
		p := resolver.ParamType{TypeParamIndex: -1}
		if s == "tx_context" {
			p.IsTxContext = true
		} else if idx, ok := typeParamRefs[i]; ok {
			p.TypeParamIndex = idx
		} else {
			tag, err := suitypes.ParseTypeTag(s)
			if err != nil {
				return resolver.FunctionSignature{}, fmt.Errorf("grpcarchive: decoding parameter %d type %q: %w", i, s, err)
			}
			p.Type = tag
		}
		p.ByMutableRef = mutableRefs[i]
		p.ByImmutableRef = immutableRefs[i]
		params[i] = p
	}

	rawReturns := fields["returns"].GetListValue().GetValues()
	returns := make([]suitypes.TypeTag, len(rawReturns))
	for i, v := range rawReturns {
		tag, err := suitypes.ParseTypeTag(v.GetStringValue())
		if err != nil {
			return resolver.FunctionSignature{}, fmt.Errorf("grpcarchive: decoding return %d type %q: %w", i, v.GetStringValue(), err)
		}
		returns[i] = tag
	}

	return resolver.FunctionSignature{
		TypeParamCount: int(fields["type_parameter_count"].GetNumberValue()),
		Parameters:     params,
		Returns:        returns,
		IsEntry:        fields["is_entry"].GetBoolValue(),
		IsPublic:       fields["is_public"].GetBoolValue(),
	}, nil
}

func numberSet(v *structpb.Value) map[int]bool {
	out := make(map[int]bool)
	for _, n := range v.GetListValue().GetValues() {
		out[int(n.GetNumberValue())] = true
	}
	return out
}

func typeParamIndexByPosition(v *structpb.Value) map[int]int {
	out := make(map[int]int)
	for pos, n := range v.GetListValue().GetValues() {
		if n.GetNumberValue() >= 0 {
			out[pos] = int(n.GetNumberValue())
		}
	}
	return out
}
