// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package starknet

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/holiman/uint256"
)

const (
	// TransactionReceived is the code the gateway acknowledges a submission
	// with.
	TransactionReceived = "TRANSACTION_RECEIVED"

	invokeFunctionType = "INVOKE_FUNCTION"
)

// InvokeFunction describes a call of a contract entry point.
type InvokeFunction struct {
	ContractAddress    *uint256.Int
	EntryPointSelector *uint256.Int
	Calldata           []*uint256.Int
	Signature          []*uint256.Int
}

func (tx *InvokeFunction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type               string   `json:"type"`
		ContractAddress    string   `json:"contract_address"`
		EntryPointSelector string   `json:"entry_point_selector"`
		Calldata           []string `json:"calldata"`
		Signature          []string `json:"signature"`
	}{
		Type:               invokeFunctionType,
		ContractAddress:    tx.ContractAddress.Hex(),
		EntryPointSelector: tx.EntryPointSelector.Hex(),
		Calldata:           feltsToDecimal(tx.Calldata),
		Signature:          feltsToDecimal(tx.Signature),
	})
}

// BlockRef names the block a read runs against. Hash wins over Number; with
// neither the gateway picks its latest block.
type BlockRef struct {
	Hash   string
	Number *int64
}

type CallContractResponse struct {
	// Result is either a single value or a []interface{} of values.
	Result interface{}
}

type AddTransactionResponse struct {
	Code            string
	TransactionHash interface{}
}

// Backend is the ledger gateway: a read path and a write path.
type Backend interface {
	CallContract(ctx context.Context, tx *InvokeFunction, block BlockRef) (*CallContractResponse, error)
	AddTransaction(ctx context.Context, tx *InvokeFunction) (*AddTransactionResponse, error)
}

// BackendFactory returns the backend serving one call.
type BackendFactory func(p *InvocationParams) (Backend, error)

// DefaultBackendFactory serves testing calls from the stand-in and the rest
// from the HTTP gateway found at the call's URLs.
func DefaultBackendFactory(client *http.Client) BackendFactory {
	return func(p *InvocationParams) (Backend, error) {
		if p.Testing {
			return &StandIn{}, nil
		}
		return NewHTTPBackend(p.GatewayURL, p.FeederGatewayURL, client), nil
	}
}
