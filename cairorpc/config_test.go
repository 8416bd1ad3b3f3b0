// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cairorpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigVerify(t *testing.T) {
	require := require.New(t)

	require.NoError(DefaultConfig().Verify())

	config := DefaultConfig()
	config.Transport = "websocket"
	config.Workers = 0
	config.Layout = "dex"
	err := config.Verify()
	require.ErrorContains(err, `unknown transport "websocket"`)

	config = DefaultConfig()
	config.Workers = 0
	require.ErrorIs(config.Verify(), errNoWorkers)

	config = DefaultConfig()
	config.MetricsPort = config.Port
	require.ErrorIs(config.Verify(), errSamePorts)

	// the JSON-RPC transport serves metrics next to the API
	config.Transport = TransportJSONRPC
	require.NoError(config.Verify())

	config = DefaultConfig()
	config.Layout = "dex"
	require.ErrorContains(config.Verify(), "Unknown layout")
}
