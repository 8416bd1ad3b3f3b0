// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package starknet

import (
	"sort"
	"strings"

	"github.com/ava-labs/cairorpc/failures"
)

// networks maps network names to the host serving their gateways.
var networks = map[string]string{
	"alpha-goerli":  "alpha4.starknet.io",
	"alpha-goerli2": "alpha4-2.starknet.io",
	"alpha-mainnet": "alpha-mainnet.starknet.io",
}

// Networks returns the supported network names.
func Networks() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveNetwork fills the gateway URLs [p] leaves empty from its network,
// or from [fallback] when it names none. Explicit URLs win.
func ResolveNetwork(p *InvocationParams, fallback string) error {
	network := p.Network
	if network == "" {
		network = fallback
	}
	if network == "" {
		return nil
	}

	host, ok := networks[network]
	if !ok {
		return failures.Validationf(
			"Unknown network '%s'. Supported networks: %s.",
			network, strings.Join(Networks(), ", "),
		)
	}
	p.Network = network
	if p.GatewayURL == "" {
		p.GatewayURL = "https://" + host + "/gateway"
	}
	if p.FeederGatewayURL == "" {
		p.FeederGatewayURL = "https://" + host + "/feeder_gateway"
	}
	return nil
}
