// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/cairorpc/cairorpc"
	"github.com/ava-labs/cairorpc/program"
)

const (
	envPrefix     = "cairorpc"
	networkEnvVar = "STARKNET_NETWORK"
	envFile       = ".env"

	versionKey          = "version"
	hostKey             = "host"
	portKey             = "port"
	daemonKey           = "daemon"
	transportKey        = "transport"
	workersKey          = "workers"
	maxConnectionsKey   = "max-connections"
	logLevelKey         = "log-level"
	metricsKey          = "metrics"
	metricsPortKey      = "metrics-port"
	networkKey          = "network"
	gatewayURLKey       = "gateway-url"
	feederGatewayURLKey = "feeder-gateway-url"
	layoutKey           = "layout"
)

var errPortRange = errors.New("port out of range")

func buildFlagSet() *pflag.FlagSet {
	defaults := cairorpc.DefaultConfig()
	fs := pflag.NewFlagSet("cairorpc", pflag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints the version and quits")
	fs.String(hostKey, defaults.Host, "Address to listen on")
	fs.Uint(portKey, uint(defaults.Port), "Port to listen on")
	fs.Bool(daemonKey, false, "Serve in the background until interrupted")
	fs.String(transportKey, defaults.Transport, fmt.Sprintf("API transport, %q or %q", cairorpc.TransportGRPC, cairorpc.TransportJSONRPC))
	fs.Int(workersKey, defaults.Workers, "Number of calls served at once")
	fs.Int(maxConnectionsKey, defaults.MaxConnections, "Maximum number of open connections, 0 for no limit")
	fs.String(logLevelKey, log.LvlInfo.String(), "Log level (crit, eror, warn, info, dbug)")
	fs.Bool(metricsKey, defaults.Metrics, "Expose prometheus metrics")
	fs.Uint(metricsPortKey, uint(defaults.MetricsPort), "Port of the metrics endpoint of the gRPC transport")
	fs.String(networkKey, "", "Ledger network of calls naming none (also "+networkEnvVar+")")
	fs.String(gatewayURLKey, "", "Gateway URL of calls naming none")
	fs.String(feederGatewayURLKey, "", "Feeder gateway URL of calls naming none")
	fs.String(layoutKey, program.DefaultLayout, "Memory layout of program runs")

	return fs
}

// getViper returns the viper environment of the server binary. Values come
// from flags, then CAIRORPC_* variables, then an optional .env file.
func getViper(args []string) (*viper.Viper, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("couldn't load %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(networkKey, networkEnvVar); err != nil {
		return nil, err
	}

	fs := buildFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

func getPort(v *viper.Viper, key string) (uint16, error) {
	port := v.GetUint(key)
	if port > 65535 {
		return 0, fmt.Errorf("%w: %s=%d", errPortRange, key, port)
	}
	return uint16(port), nil
}

// getConfig reads the server configuration out of [v].
func getConfig(v *viper.Viper) (cairorpc.Config, error) {
	port, err := getPort(v, portKey)
	if err != nil {
		return cairorpc.Config{}, err
	}
	metricsPort, err := getPort(v, metricsPortKey)
	if err != nil {
		return cairorpc.Config{}, err
	}

	config := cairorpc.Config{
		Host:             v.GetString(hostKey),
		Port:             port,
		Transport:        v.GetString(transportKey),
		Workers:          v.GetInt(workersKey),
		MaxConnections:   v.GetInt(maxConnectionsKey),
		Metrics:          v.GetBool(metricsKey),
		MetricsPort:      metricsPort,
		Network:          v.GetString(networkKey),
		GatewayURL:       v.GetString(gatewayURLKey),
		FeederGatewayURL: v.GetString(feederGatewayURLKey),
		Layout:           v.GetString(layoutKey),
	}
	return config, config.Verify()
}

// getLogLevel parses the --log-level value.
func getLogLevel(v *viper.Viper) (log.Lvl, error) {
	return log.LvlFromString(v.GetString(logLevelKey))
}
