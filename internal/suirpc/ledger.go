// Package suirpc is the thin gRPC client layer for the historical
// archive's ledger service (spec.md §6 "gRPC archive"). It mirrors the
// method surface of the teacher's own generated LedgerServiceClient
// (sui.go: GetObject, GetTransaction, BatchGetObjects) but, since the
// retrieval pack carries only the teacher's hand-written call sites and
// not its protoc-generated package, requests and responses here are
// carried as google.golang.org/protobuf's structpb.Struct rather than
// bespoke generated message types — a real deployment swaps this layer
// for protoc-gen-go stubs generated from the live service's .proto file
// without touching any caller in internal/historical.
package suirpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	methodGetObject       = "/sui.rpc.v2.LedgerService/GetObject"
	methodBatchGetObjects = "/sui.rpc.v2.LedgerService/BatchGetObjects"
	methodGetTransaction  = "/sui.rpc.v2.LedgerService/GetTransaction"
	methodGetPackage      = "/sui.rpc.v2.LedgerService/GetPackage"
)

// LedgerServiceClient is the gRPC surface the Historical State Provider
// needs from the archive service (spec.md §4.2, §6).
type LedgerServiceClient interface {
	GetObject(ctx context.Context, objectID string, version *uint64) (*structpb.Struct, error)
	BatchGetObjects(ctx context.Context, requests map[string]*uint64) (*structpb.Struct, error)
	GetTransaction(ctx context.Context, digest string) (*structpb.Struct, error)
	GetPackage(ctx context.Context, packageID string, checkpoint uint64) (*structpb.Struct, error)
}

type client struct {
	conn *grpc.ClientConn
}

// NewLedgerServiceClient wraps an established gRPC connection.
func NewLedgerServiceClient(conn *grpc.ClientConn) LedgerServiceClient {
	return &client{conn: conn}
}

func (c *client) GetObject(ctx context.Context, objectID string, version *uint64) (*structpb.Struct, error) {
	fields := map[string]any{"object_id": objectID}
	if version != nil {
		fields["version"] = float64(*version)
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("suirpc: building GetObject request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, methodGetObject, req, resp); err != nil {
		return nil, fmt.Errorf("suirpc: GetObject: %w", err)
	}
	return resp, nil
}

func (c *client) BatchGetObjects(ctx context.Context, requests map[string]*uint64) (*structpb.Struct, error) {
	items := make([]any, 0, len(requests))
	for id, version := range requests {
		entry := map[string]any{"object_id": id}
		if version != nil {
			entry["version"] = float64(*version)
		}
		items = append(items, entry)
	}
	req, err := structpb.NewStruct(map[string]any{"requests": items})
	if err != nil {
		return nil, fmt.Errorf("suirpc: building BatchGetObjects request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, methodBatchGetObjects, req, resp); err != nil {
		return nil, fmt.Errorf("suirpc: BatchGetObjects: %w", err)
	}
	return resp, nil
}

func (c *client) GetTransaction(ctx context.Context, digest string) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"digest": digest})
	if err != nil {
		return nil, fmt.Errorf("suirpc: building GetTransaction request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, methodGetTransaction, req, resp); err != nil {
		return nil, fmt.Errorf("suirpc: GetTransaction: %w", err)
	}
	return resp, nil
}

func (c *client) GetPackage(ctx context.Context, packageID string, checkpoint uint64) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"package_id": packageID, "checkpoint": float64(checkpoint)})
	if err != nil {
		return nil, fmt.Errorf("suirpc: building GetPackage request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, methodGetPackage, req, resp); err != nil {
		return nil, fmt.Errorf("suirpc: GetPackage: %w", err)
	}
	return resp, nil
}
