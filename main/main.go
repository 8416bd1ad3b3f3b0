// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/cairorpc/cairorpc"
)

const stopTimeout = 30 * time.Second

func main() {
	v, err := getViper(os.Args[1:])
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if v.GetBool(versionKey) {
		fmt.Printf("%s@%s\n", cairorpc.Name, cairorpc.Version)
		os.Exit(0)
	}

	level, err := getLogLevel(v)
	if err != nil {
		fmt.Printf("couldn't parse log level: %s\n", err)
		os.Exit(1)
	}
	log.Root().SetHandler(log.LvlFilterHandler(level, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	config, err := getConfig(v)
	if err != nil {
		log.Crit("invalid config", "error", err)
		os.Exit(1)
	}
	server, err := cairorpc.NewServer(config, log.Root())
	if err != nil {
		log.Crit("couldn't create server", "error", err)
		os.Exit(1)
	}
	if err := server.Listen(); err != nil {
		log.Crit("couldn't start server", "error", err)
		os.Exit(1)
	}

	if !v.GetBool(daemonKey) {
		if err := server.Serve(); err != nil {
			log.Crit("serve returned an error", "error", err)
			os.Exit(1)
		}
		return
	}

	served := make(chan error, 1)
	go func() { served <- server.Serve() }()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-signals:
		log.Info("received signal", "signal", sig)
	case err := <-served:
		log.Crit("serve returned an error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Error("couldn't stop server cleanly", "error", err)
	}
	if err := <-served; err != nil {
		log.Error("serve returned an error", "error", err)
	}
}
