// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package starknet

import (
	"context"
)

const (
	StandInCallResult      = int64(1)
	StandInTransactionHash = int64(2)
)

var _ Backend = (*StandIn)(nil)

// StandIn is an in-memory Backend returning canned results.
type StandIn struct{}

func (*StandIn) CallContract(context.Context, *InvokeFunction, BlockRef) (*CallContractResponse, error) {
	return &CallContractResponse{Result: StandInCallResult}, nil
}

func (*StandIn) AddTransaction(context.Context, *InvokeFunction) (*AddTransactionResponse, error) {
	return &AddTransactionResponse{Code: TransactionReceived, TransactionHash: StandInTransactionHash}, nil
}
