// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"
	"google.golang.org/grpc"

	"github.com/ava-labs/cairorpc/cairorpc"
	"github.com/ava-labs/cairorpc/values"
)

// Client defines cairorpc client operations.
type Client interface {
	// Call dispatches [method] with [params]. [code] is the compiled
	// program of cairo_run calls and nil otherwise.
	Call(ctx context.Context, method string, code []byte, params map[string]interface{}) ([]interface{}, error)
}

// New creates a client of the JSON-RPC API served at [uri].
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) Call(ctx context.Context, method string, code []byte, params map[string]interface{}) ([]interface{}, error) {
	packed, err := values.EncodeMap(params)
	if err != nil {
		return nil, err
	}
	args := &cairorpc.CallArgs{
		Method:   method,
		Encoding: formatting.Hex,
		Params:   values.ToWireMap(packed),
	}
	if len(code) > 0 {
		args.Code, err = formatting.Encode(formatting.Hex, code)
		if err != nil {
			return nil, err
		}
	}

	resp := new(cairorpc.CallReply)
	err = cli.req.SendRequest(ctx,
		cairorpc.Name+".call",
		args,
		resp,
	)
	if err != nil {
		return nil, err
	}
	return values.DecodeArray(values.FromWireArray(resp.Result)), nil
}

// NewGRPC creates a client of the gRPC API over [conn].
func NewGRPC(conn grpc.ClientConnInterface) Client {
	return &grpcClient{cli: cairorpc.NewCAIROVMClient(conn)}
}

type grpcClient struct {
	cli cairorpc.CAIROVMClient
}

func (g *grpcClient) Call(ctx context.Context, method string, code []byte, params map[string]interface{}) ([]interface{}, error) {
	packed, err := values.EncodeMap(params)
	if err != nil {
		return nil, err
	}
	resp, err := g.cli.Call(ctx, &cairorpc.CallRequest{
		Method: method,
		Code:   code,
		Params: packed,
	})
	if err != nil {
		return nil, err
	}
	return values.DecodeArray(resp.Result), nil
}
