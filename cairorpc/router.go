// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cairorpc

import (
	"context"
	"time"

	log "github.com/inconshreveable/log15"
	pkgerrors "github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/ava-labs/cairorpc/failures"
	"github.com/ava-labs/cairorpc/values"
)

const (
	MethodCairoRun     = "cairo_run"
	MethodStarknetCall = "starknet_call"

	unknownMethodPrefix = "Error. Unknown method: "
)

// ProgramRunner executes compiled programs.
type ProgramRunner interface {
	Run(ctx context.Context, params map[string]interface{}, code []byte) ([]interface{}, error)
}

// GatewayInvoker calls contract functions on the ledger gateway.
type GatewayInvoker interface {
	Invoke(ctx context.Context, params map[string]interface{}) ([]interface{}, error)
}

// Router is the single entry point of every call. It never fails: invoker
// failures come back as an error triple and unknown methods as a one
// element informational result.
type Router struct {
	programs ProgramRunner
	gateway  GatewayInvoker

	// pool is nil when calls run on the caller's goroutine
	pool    *Pool
	metrics *Metrics
	log     log.Logger
}

func NewRouter(
	programs ProgramRunner,
	gateway GatewayInvoker,
	pool *Pool,
	metrics *Metrics,
	logger log.Logger,
) *Router {
	if logger == nil {
		logger = log.Root()
	}
	return &Router{
		programs: programs,
		gateway:  gateway,
		pool:     pool,
		metrics:  metrics,
		log:      logger.New("module", "router"),
	}
}

// Handle dispatches [method] with the packed [params] and returns the packed
// result sequence.
func (r *Router) Handle(ctx context.Context, method string, params map[string]*anypb.Any, code []byte) []*anypb.Any {
	var result []interface{}
	task := func() { result = r.handle(ctx, method, values.DecodeMap(params), code) }

	if r.pool == nil {
		task()
	} else if err := r.pool.Do(task); err != nil {
		result = r.fail(method, failures.Execution(pkgerrors.Wrap(err, "couldn't schedule call")))
	}

	encoded, err := values.EncodeArray(result)
	if err != nil {
		encoded, err = values.EncodeArray(r.fail(method, failures.Execution(pkgerrors.Wrap(err, "couldn't encode result"))))
		if err != nil {
			r.log.Error("dropping unencodable result", "method", method, "error", err)
			return nil
		}
	}
	return encoded
}

func (r *Router) handle(ctx context.Context, method string, params map[string]interface{}, code []byte) []interface{} {
	start := time.Now()
	if method != MethodCairoRun && method != MethodStarknetCall {
		r.log.Debug("unknown method", "method", method)
		r.metrics.observe(method, outcomeUnknown, time.Since(start))
		return []interface{}{unknownMethodPrefix + method}
	}

	r.log.Debug("handling call", "method", method, "params", len(params), "codeLen", len(code))
	result, err := r.dispatch(ctx, method, params, code)
	if err != nil {
		r.metrics.observe(method, outcomeError, time.Since(start))
		return r.fail(method, err)
	}
	r.metrics.observe(method, outcomeOK, time.Since(start))
	return result
}

// dispatch runs the invoker of [method], turning a panic into an error.
func (r *Router) dispatch(ctx context.Context, method string, params map[string]interface{}, code []byte) (result []interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = failures.Recovered(p)
		}
	}()

	switch method {
	case MethodCairoRun:
		return r.programs.Run(ctx, params, code)
	default:
		return r.gateway.Invoke(ctx, params)
	}
}

func (r *Router) fail(method string, err error) []interface{} {
	result := failures.Result(err)
	r.log.Warn("call failed", "method", method, "error", err, "file", result[1], "line", result[2])
	return result
}
