// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package starknet routes read and write calls of contract functions to a
// ledger gateway.
package starknet

import (
	"context"
	"net/http"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/cairorpc/failures"
)

// Defaults are the gateway settings of calls that name none.
type Defaults struct {
	Network          string
	GatewayURL       string
	FeederGatewayURL string
}

// Invoker validates a call and submits it to the gateway.
type Invoker struct {
	defaults   Defaults
	newBackend BackendFactory
	log        log.Logger
}

// NewInvoker returns an invoker falling back to [defaults] for calls naming
// no network or URL. A nil [newBackend] uses DefaultBackendFactory.
func NewInvoker(defaults Defaults, newBackend BackendFactory, logger log.Logger) *Invoker {
	if newBackend == nil {
		newBackend = DefaultBackendFactory(http.DefaultClient)
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Invoker{
		defaults:   defaults,
		newBackend: newBackend,
		log:        logger.New("module", "starknet"),
	}
}

// Invoke runs the call described by [raw]. Reads return the gateway's
// result; writes return the status code and the transaction hash.
func (i *Invoker) Invoke(ctx context.Context, raw map[string]interface{}) ([]interface{}, error) {
	params, err := NewInvocationParams(raw)
	if err != nil {
		return nil, err
	}

	address, err := ParseAddress(params.Address)
	if err != nil {
		return nil, err
	}
	inputs, err := ParseInputs(params.Inputs)
	if err != nil {
		return nil, err
	}
	signature, err := ParseInputs(params.Signature)
	if err != nil {
		return nil, err
	}
	selector, err := SelectorFromName(params.Function)
	if err != nil {
		return nil, err
	}

	if params.ABI != "" {
		abi, err := ParseABI(params.ABI)
		if err != nil {
			return nil, err
		}
		entry, ok := abi.Function(params.Function)
		if !ok {
			return nil, failures.Validationf("Function %s not found.", params.Function)
		}
		if err := ValidateArguments(inputs, entry, abi); err != nil {
			return nil, err
		}
	}

	if err := i.resolveGateway(params); err != nil {
		return nil, err
	}
	backend, err := i.newBackend(params)
	if err != nil {
		return nil, err
	}

	tx := &InvokeFunction{
		ContractAddress:    address,
		EntryPointSelector: selector,
		Calldata:           inputs,
		Signature:          signature,
	}
	i.log.Debug("submitting", "type", params.Type, "address", address.Hex(), "function", params.Function, "testing", params.Testing)

	if params.Type == ModeInvoke {
		return i.invoke(ctx, backend, tx)
	}
	return i.call(ctx, backend, tx, params.Block())
}

// resolveGateway fills the gateway URLs. The call's own URLs and network
// come first, then the server's URLs and network.
func (i *Invoker) resolveGateway(p *InvocationParams) error {
	if err := ResolveNetwork(p, ""); err != nil {
		return err
	}
	if p.Network != "" {
		return nil
	}
	if p.GatewayURL == "" {
		p.GatewayURL = i.defaults.GatewayURL
	}
	if p.FeederGatewayURL == "" {
		p.FeederGatewayURL = i.defaults.FeederGatewayURL
	}
	return ResolveNetwork(p, i.defaults.Network)
}

func (i *Invoker) call(ctx context.Context, backend Backend, tx *InvokeFunction, block BlockRef) ([]interface{}, error) {
	resp, err := backend.CallContract(ctx, tx, block)
	if err != nil {
		return nil, err
	}
	if result, ok := resp.Result.([]interface{}); ok {
		return result, nil
	}
	return []interface{}{resp.Result}, nil
}

func (i *Invoker) invoke(ctx context.Context, backend Backend, tx *InvokeFunction) ([]interface{}, error) {
	resp, err := backend.AddTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	if resp.Code != TransactionReceived {
		return nil, failures.Gatewayf("Failed to send transaction. Response: %+v.", *resp)
	}
	return []interface{}{resp.Code, resp.TransactionHash}, nil
}
