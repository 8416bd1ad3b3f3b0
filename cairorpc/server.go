// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cairorpc serves the Call operation over gRPC or JSON-RPC.
package cairorpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/avalanchego/version"

	"github.com/ava-labs/cairorpc/program"
	"github.com/ava-labs/cairorpc/starknet"
)

const (
	// Name is the JSON-RPC service name, e.g. cairo.call
	Name = "cairo"

	metricsNamespace  = "cairorpc"
	readHeaderTimeout = 10 * time.Second
)

var (
	Version = &version.Semantic{Major: 0, Minor: 3, Patch: 0}

	errNotListening = errors.New("server is not listening")
)

// Server owns the listeners, the worker pool and the router of one process.
type Server struct {
	config   Config
	log      log.Logger
	pool     *Pool
	router   *Router
	registry *prometheus.Registry

	listener   net.Listener
	grpcServer *grpc.Server
	httpServer *http.Server

	metricsListener net.Listener
	metricsServer   *http.Server
}

// NewServer builds the server described by [config]. Nothing is bound
// until Listen.
func NewServer(config Config, logger log.Logger) (*Server, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Root()
	}

	programs, err := program.NewInvoker(config.Layout, logger)
	if err != nil {
		return nil, err
	}
	gateway := starknet.NewInvoker(starknet.Defaults{
		Network:          config.Network,
		GatewayURL:       config.GatewayURL,
		FeederGatewayURL: config.FeederGatewayURL,
	}, nil, logger)

	pool, err := NewPool(config.Workers)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: config,
		log:    logger.New("module", "server"),
		pool:   pool,
	}

	var metrics *Metrics
	if config.Metrics {
		s.registry = prometheus.NewRegistry()
		errs := wrappers.Errs{}
		errs.Add(
			s.registry.Register(collectors.NewGoCollector()),
			s.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
		)
		metrics, err = NewMetrics(metricsNamespace, s.registry, pool)
		errs.Add(err)
		if errs.Errored() {
			pool.Release()
			return nil, errs.Err
		}
	}
	s.router = NewRouter(programs, gateway, pool, metrics, logger)

	switch config.Transport {
	case TransportGRPC:
		s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logCall))
		RegisterCAIROVMServer(s.grpcServer, NewGRPCService(s.router))
		if config.Metrics {
			s.metricsServer = newHTTPServer(NewHTTPHandler(nil, s.registry))
		}
	case TransportJSONRPC:
		api, err := NewRPCHandler(s.router)
		if err != nil {
			pool.Release()
			return nil, err
		}
		var gatherer prometheus.Gatherer
		if config.Metrics {
			gatherer = s.registry
		}
		s.httpServer = newHTTPServer(NewHTTPHandler(api, gatherer))
	}
	return s, nil
}

func newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// Router returns the router calls are dispatched by.
func (s *Server) Router() *Router { return s.router }

// Listen binds the API address and, for gRPC with metrics, the metrics
// address.
func (s *Server) Listen() error {
	listener, err := s.listen(s.config.Port)
	if err != nil {
		return err
	}
	if s.config.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, s.config.MaxConnections)
	}
	s.listener = listener

	if s.metricsServer != nil {
		s.metricsListener, err = s.listen(s.config.MetricsPort)
		if err != nil {
			_ = s.listener.Close()
			return err
		}
	}
	return nil
}

func (s *Server) listen(port uint16) (net.Listener, error) {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(int(port)))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("couldn't listen on %s: %w", addr, err)
	}
	return listener, nil
}

// Addr returns the bound API address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// MetricsAddr returns the bound metrics address of the gRPC transport.
func (s *Server) MetricsAddr() net.Addr {
	if s.metricsListener == nil {
		return nil
	}
	return s.metricsListener.Addr()
}

// Serve serves calls until Stop. It must follow a successful Listen.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errNotListening
	}
	if s.metricsServer != nil {
		go func() {
			s.log.Info("serving metrics", "address", s.metricsListener.Addr())
			if err := s.metricsServer.Serve(s.metricsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	s.log.Info("serving",
		"version", Version,
		"transport", s.config.Transport,
		"address", s.listener.Addr(),
		"workers", s.pool.Size(),
	)
	if s.grpcServer != nil {
		return s.grpcServer.Serve(s.listener)
	}
	if err := s.httpServer.Serve(s.listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops accepting calls and waits for running ones until [ctx] is
// done.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping server")
	errs := wrappers.Errs{}
	if s.grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.grpcServer.Stop()
			errs.Add(ctx.Err())
		}
	}
	if s.httpServer != nil {
		errs.Add(s.httpServer.Shutdown(ctx))
	}
	if s.metricsServer != nil {
		errs.Add(s.metricsServer.Shutdown(ctx))
	}
	s.pool.Release()
	return errs.Err
}

func (s *Server) logCall(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.log.Debug("grpc call", "method", info.FullMethod, "duration", time.Since(start), "error", err)
	return resp, err
}
