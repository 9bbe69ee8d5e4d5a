package suirpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const methodGetFunction = "/sui.rpc.v2.MovePackageService/GetFunction"

// MovePackageServiceClient mirrors the teacher's GetFunction call
// (sui.go: MovePackageServiceClient.GetFunction) for normalized Move
// function signatures, used by the replay orchestrator to populate the
// Bytecode Resolver's FunctionSignature table before execution
// (spec.md §4.1).
type MovePackageServiceClient interface {
	GetFunction(ctx context.Context, packageID, module, function string) (*structpb.Struct, error)
}

type movePackageClient struct {
	conn *grpc.ClientConn
}

func NewMovePackageServiceClient(conn *grpc.ClientConn) MovePackageServiceClient {
	return &movePackageClient{conn: conn}
}

func (c *movePackageClient) GetFunction(ctx context.Context, packageID, module, function string) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{
		"package_id": packageID,
		"module":     module,
		"name":       function,
	})
	if err != nil {
		return nil, fmt.Errorf("suirpc: building GetFunction request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, methodGetFunction, req, resp); err != nil {
		return nil, fmt.Errorf("suirpc: GetFunction: %w", err)
	}
	return resp, nil
}
