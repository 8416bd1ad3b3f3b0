// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cairorpc

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/cairorpc/program"
)

const (
	TransportGRPC    = "grpc"
	TransportJSONRPC = "jsonrpc"

	DefaultPort           = 6066
	DefaultMetricsPort    = 6067
	DefaultWorkers        = 4
	DefaultMaxConnections = 256
)

var (
	errNoWorkers       = errors.New("workers must be positive")
	errSamePorts       = errors.New("metrics port must differ from the API port")
	errNegativeMaxConn = errors.New("max connections must not be negative")
)

// Config is the server configuration.
type Config struct {
	Host           string
	Port           uint16
	Transport      string
	Workers        int
	MaxConnections int

	// Metrics exposes /metrics. The JSON-RPC transport serves it next to
	// the API; the gRPC transport serves it on MetricsPort.
	Metrics     bool
	MetricsPort uint16

	// Gateway settings of calls that name none.
	Network          string
	GatewayURL       string
	FeederGatewayURL string

	Layout string
}

func DefaultConfig() Config {
	return Config{
		Host:           "::",
		Port:           DefaultPort,
		Transport:      TransportGRPC,
		Workers:        DefaultWorkers,
		MaxConnections: DefaultMaxConnections,
		Metrics:        true,
		MetricsPort:    DefaultMetricsPort,
		Layout:         program.DefaultLayout,
	}
}

// Verify returns the first problem of the configuration.
func (c Config) Verify() error {
	errs := wrappers.Errs{}
	switch c.Transport {
	case TransportGRPC, TransportJSONRPC:
	default:
		errs.Add(fmt.Errorf("unknown transport %q, expected %q or %q", c.Transport, TransportGRPC, TransportJSONRPC))
	}
	if c.Workers <= 0 {
		errs.Add(errNoWorkers)
	}
	if c.MaxConnections < 0 {
		errs.Add(errNegativeMaxConn)
	}
	if c.separateMetrics() && c.Port != 0 && c.Port == c.MetricsPort {
		errs.Add(errSamePorts)
	}
	if _, err := program.GetLayout(c.Layout); err != nil {
		errs.Add(err)
	}
	return errs.Err
}

func (c Config) separateMetrics() bool {
	return c.Metrics && c.Transport == TransportGRPC
}
