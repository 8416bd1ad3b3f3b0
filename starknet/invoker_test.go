// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package starknet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/cairorpc/failures"
)

const transferABI = `[{"type": "function", "name": "transfer", "inputs": [
	{"name": "to", "type": "felt"},
	{"name": "amount", "type": "felt"}
]}]`

// recordingBackend records the last transaction and answers with canned
// responses.
type recordingBackend struct {
	params *InvocationParams
	tx     *InvokeFunction
	block  BlockRef

	call *CallContractResponse
	add  *AddTransactionResponse
	err  error
}

func (b *recordingBackend) factory(p *InvocationParams) (Backend, error) {
	b.params = p
	return b, nil
}

func (b *recordingBackend) CallContract(_ context.Context, tx *InvokeFunction, block BlockRef) (*CallContractResponse, error) {
	b.tx, b.block = tx, block
	return b.call, b.err
}

func (b *recordingBackend) AddTransaction(_ context.Context, tx *InvokeFunction) (*AddTransactionResponse, error) {
	b.tx = tx
	return b.add, b.err
}

func TestInvokeStandIn(t *testing.T) {
	require := require.New(t)

	invoker := NewInvoker(Defaults{}, nil, nil)
	result, err := invoker.Invoke(context.Background(), map[string]interface{}{
		"function": "balanceOf",
		"inputs":   "1",
		"address":  "0x1234",
		"testing":  true,
	})
	require.NoError(err)
	require.Equal([]interface{}{StandInCallResult}, result)

	result, err = invoker.Invoke(context.Background(), map[string]interface{}{
		"function":  "transfer",
		"inputs":    "1,2",
		"signature": "3,4",
		"abi":       transferABI,
		"address":   "0x1234",
		"type":      "invoke",
		"testing":   true,
	})
	require.NoError(err)
	require.Equal([]interface{}{TransactionReceived, StandInTransactionHash}, result)
}

func TestInvokeValidation(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
		err    string
	}{
		{
			name:   "address prefix",
			params: map[string]interface{}{"function": "f", "address": "123123", "testing": true},
			err:    "must start with '0x'",
		},
		{
			name:   "bad input",
			params: map[string]interface{}{"function": "f", "address": "0x1", "inputs": "1,nope", "testing": true},
			err:    "Invalid input value: 'nope'.",
		},
		{
			name:   "missing function",
			params: map[string]interface{}{"address": "0x1", "testing": true},
			err:    "Function name is required.",
		},
		{
			name:   "function not in abi",
			params: map[string]interface{}{"function": "mint", "address": "0x1", "abi": transferABI, "testing": true},
			err:    "Function mint not found.",
		},
		{
			name:   "argument count",
			params: map[string]interface{}{"function": "transfer", "address": "0x1", "inputs": "1,2,3", "abi": transferABI, "testing": true},
			err:    "Wrong number of arguments. Expected 2, got 3.",
		},
		{
			name: "array length past the inputs",
			params: map[string]interface{}{
				"function": "f",
				"address":  "0x1",
				"inputs":   "9223372036854775808",
				"abi": `[{"type": "struct", "name": "Pair", "size": 2},
					{"type": "function", "name": "f", "inputs": [
						{"name": "n", "type": "felt"},
						{"name": "arr", "type": "Pair*"}
					]}]`,
				"testing": true,
			},
			err: "Expected at least 18446744073709551617 inputs, got 1.",
		},
		{
			name:   "unknown network",
			params: map[string]interface{}{"function": "f", "address": "0x1", "network": "devnet"},
			err:    "Unknown network 'devnet'.",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			backend := &recordingBackend{}
			invoker := NewInvoker(Defaults{}, backend.factory, nil)
			_, err := invoker.Invoke(context.Background(), test.params)
			require.ErrorIs(err, failures.ErrValidation)
			require.ErrorContains(err, test.err)
			require.Nil(backend.params)
		})
	}
}

func TestInvokeCall(t *testing.T) {
	require := require.New(t)

	backend := &recordingBackend{call: &CallContractResponse{Result: []interface{}{int64(5), "0x1"}}}
	invoker := NewInvoker(Defaults{Network: "alpha-goerli2"}, backend.factory, nil)

	result, err := invoker.Invoke(context.Background(), map[string]interface{}{
		"function":   "balanceOf",
		"inputs":     "0x10",
		"address":    "0xabc",
		"block_hash": "0xfeed",
	})
	require.NoError(err)
	require.Equal([]interface{}{int64(5), "0x1"}, result)

	require.Equal("https://alpha4-2.starknet.io/feeder_gateway", backend.params.FeederGatewayURL)
	require.Equal("0xabc", backend.tx.ContractAddress.Hex())
	require.Equal([]string{"16"}, feltsToDecimal(backend.tx.Calldata))
	require.Empty(backend.tx.Signature)
	require.Equal("0xfeed", backend.block.Hash)

	backend.call = &CallContractResponse{Result: "0x7"}
	result, err = invoker.Invoke(context.Background(), map[string]interface{}{
		"function": "balanceOf",
		"address":  "0xabc",
	})
	require.NoError(err)
	require.Equal([]interface{}{"0x7"}, result)
}

func TestInvokeRejected(t *testing.T) {
	require := require.New(t)

	backend := &recordingBackend{add: &AddTransactionResponse{Code: "REJECTED"}}
	invoker := NewInvoker(Defaults{}, backend.factory, nil)

	_, err := invoker.Invoke(context.Background(), map[string]interface{}{
		"function": "transfer",
		"address":  "0x1",
		"type":     "invoke",
	})
	require.ErrorIs(err, failures.ErrGateway)
	require.ErrorContains(err, "Failed to send transaction.")
	require.ErrorContains(err, "REJECTED")

	backend.add = nil
	backend.err = failures.Gatewayf("Gateway returned 500: boom")
	_, err = invoker.Invoke(context.Background(), map[string]interface{}{
		"function": "transfer",
		"address":  "0x1",
		"type":     "invoke",
	})
	require.ErrorIs(err, failures.ErrGateway)
	require.EqualError(err, "Gateway returned 500: boom")
}

func TestInvokeGatewayDefaults(t *testing.T) {
	require := require.New(t)

	backend := &recordingBackend{call: &CallContractResponse{Result: int64(3)}}
	invoker := NewInvoker(Defaults{
		Network:    "alpha-mainnet",
		GatewayURL: "http://localhost:5050/gateway",
	}, backend.factory, nil)

	_, err := invoker.Invoke(context.Background(), map[string]interface{}{"function": "f", "address": "0x1"})
	require.NoError(err)
	require.Equal("http://localhost:5050/gateway", backend.params.GatewayURL)
	require.Equal("https://alpha-mainnet.starknet.io/feeder_gateway", backend.params.FeederGatewayURL)

	_, err = invoker.Invoke(context.Background(), map[string]interface{}{
		"function": "f",
		"address":  "0x1",
		"network":  "alpha-goerli",
	})
	require.NoError(err)
	require.Equal("https://alpha4.starknet.io/gateway", backend.params.GatewayURL)

	_, err = invoker.Invoke(context.Background(), map[string]interface{}{
		"function":           "f",
		"address":            "0x1",
		"feeder_gateway_url": "http://feeder",
	})
	require.NoError(err)
	require.Equal("http://feeder", backend.params.FeederGatewayURL)
	require.Equal("http://localhost:5050/gateway", backend.params.GatewayURL)
}
