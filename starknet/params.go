// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package starknet

import (
	"github.com/mitchellh/mapstructure"

	"github.com/ava-labs/cairorpc/failures"
)

// Mode selects the read or the write path of the gateway.
type Mode string

const (
	ModeCall   Mode = "call"
	ModeInvoke Mode = "invoke"

	listSeparator = ","
)

// InvocationParams is the validated shape of a starknet call's parameters.
// Keys missing from the raw parameters keep their zero value, except Type
// which defaults to ModeCall. Unknown keys are ignored.
type InvocationParams struct {
	Function  string   `mapstructure:"function"`
	Inputs    []string `mapstructure:"inputs"`
	Signature []string `mapstructure:"signature"`
	ABI       string   `mapstructure:"abi"`
	Address   string   `mapstructure:"address"`
	Type      Mode     `mapstructure:"type"`

	BlockHash   string `mapstructure:"block_hash"`
	BlockNumber *int64 `mapstructure:"block_number"`

	GatewayURL       string `mapstructure:"gateway_url"`
	FeederGatewayURL string `mapstructure:"feeder_gateway_url"`
	Network          string `mapstructure:"network"`

	// Testing routes the call to the stand-in backend.
	Testing bool `mapstructure:"testing"`
}

// NewInvocationParams decodes [raw]. Inputs and signature arrive as
// comma separated strings.
func NewInvocationParams(raw map[string]interface{}) (*InvocationParams, error) {
	params := &InvocationParams{Type: ModeCall}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(listSeparator),
		WeaklyTypedInput: true,
		Result:           params,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, failures.Validationf("Invalid parameters: %s.", err)
	}

	switch params.Type {
	case ModeCall, ModeInvoke:
	case "":
		params.Type = ModeCall
	default:
		return nil, failures.Validationf("Unknown type '%s'. Expected '%s' or '%s'.", params.Type, ModeCall, ModeInvoke)
	}
	return params, nil
}

// Block returns the block the read path runs against.
func (p *InvocationParams) Block() BlockRef {
	return BlockRef{Hash: p.BlockHash, Number: p.BlockNumber}
}
