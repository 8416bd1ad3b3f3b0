// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cairorpc

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/ava-labs/cairorpc/failures"
	"github.com/ava-labs/cairorpc/program"
	"github.com/ava-labs/cairorpc/program/programtest"
	"github.com/ava-labs/cairorpc/starknet"
	"github.com/ava-labs/cairorpc/values"
)

func discardLogger() log.Logger {
	logger := log.New()
	logger.SetHandler(log.DiscardHandler())
	return logger
}

type invokerFunc func(ctx context.Context, params map[string]interface{}) ([]interface{}, error)

func (f invokerFunc) Invoke(ctx context.Context, params map[string]interface{}) ([]interface{}, error) {
	return f(ctx, params)
}

type runnerFunc func(ctx context.Context, params map[string]interface{}, code []byte) ([]interface{}, error)

func (f runnerFunc) Run(ctx context.Context, params map[string]interface{}, code []byte) ([]interface{}, error) {
	return f(ctx, params, code)
}

func packParams(t *testing.T, params map[string]interface{}) map[string]*anypb.Any {
	packed, err := values.EncodeMap(params)
	require.NoError(t, err)
	return packed
}

func newTestRouter(t *testing.T) *Router {
	programs, err := program.NewInvoker(program.DefaultLayout, discardLogger())
	require.NoError(t, err)
	gateway := starknet.NewInvoker(starknet.Defaults{}, nil, discardLogger())
	return NewRouter(programs, gateway, nil, nil, discardLogger())
}

func TestRouterUnknownMethod(t *testing.T) {
	require := require.New(t)

	router := newTestRouter(t)
	result := values.DecodeArray(router.Handle(context.Background(), "unknown_method", nil, nil))
	require.Equal([]interface{}{"Error. Unknown method: unknown_method"}, result)
}

func TestRouterCairoRun(t *testing.T) {
	require := require.New(t)

	router := newTestRouter(t)
	params := packParams(t, map[string]interface{}{"input": 25, "function": "pow"})
	result := values.DecodeArray(router.Handle(context.Background(), MethodCairoRun, params, programtest.Arithmetic))
	require.Equal([]interface{}{int64(625)}, result)

	// the program reads input, which is missing
	params = packParams(t, map[string]interface{}{"function": "pow"})
	result = values.DecodeArray(router.Handle(context.Background(), MethodCairoRun, params, programtest.Arithmetic))
	require.Len(result, 3)
	require.Contains(result[0], "KeyError: 'input'")
	require.True(strings.HasPrefix(result[0].(string), "Error: "))
	require.True(strings.HasPrefix(result[1].(string), "File: "))
	require.True(strings.HasPrefix(result[2].(string), "Line "))
}

func TestRouterStarknetCall(t *testing.T) {
	require := require.New(t)

	router := newTestRouter(t)
	params := packParams(t, map[string]interface{}{
		"function": "transfer",
		"inputs":   "1,2",
		"address":  "0x1234",
		"type":     "invoke",
		"testing":  1,
	})
	result := values.DecodeArray(router.Handle(context.Background(), MethodStarknetCall, params, nil))
	require.Equal([]interface{}{starknet.TransactionReceived, starknet.StandInTransactionHash}, result)

	params = packParams(t, map[string]interface{}{"function": "f", "address": "123123", "testing": 1})
	result = values.DecodeArray(router.Handle(context.Background(), MethodStarknetCall, params, nil))
	require.Len(result, 3)
	require.Contains(result[0], "must start with '0x'")
}

func TestRouterRecoversPanics(t *testing.T) {
	require := require.New(t)

	gateway := invokerFunc(func(context.Context, map[string]interface{}) ([]interface{}, error) {
		var params map[string]int
		params["x"]++
		return nil, nil
	})
	router := NewRouter(nil, gateway, nil, nil, discardLogger())

	result := values.DecodeArray(router.Handle(context.Background(), MethodStarknetCall, nil, nil))
	require.Len(result, 3)
	require.Contains(result[0], "panic: assignment to entry in nil map")
	require.Equal("File: router_test.go", result[1])
}

func TestRouterUnencodableResult(t *testing.T) {
	require := require.New(t)

	programs := runnerFunc(func(context.Context, map[string]interface{}, []byte) ([]interface{}, error) {
		return []interface{}{1.5}, nil
	})
	router := NewRouter(programs, nil, nil, nil, discardLogger())

	result := values.DecodeArray(router.Handle(context.Background(), MethodCairoRun, nil, nil))
	require.Len(result, 3)
	require.Contains(result[0], "couldn't encode result")
}

func TestRouterPoolBoundsConcurrency(t *testing.T) {
	require := require.New(t)

	pool, err := NewPool(2)
	require.NoError(err)
	defer pool.Release()

	var running, peak int32
	programs := runnerFunc(func(context.Context, map[string]interface{}, []byte) ([]interface{}, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return []interface{}{int64(1)}, nil
	})
	router := NewRouter(programs, nil, pool, nil, discardLogger())

	results := make([][]interface{}, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = values.DecodeArray(router.Handle(context.Background(), MethodCairoRun, nil, nil))
		}(i)
	}
	wg.Wait()
	for _, result := range results {
		require.Equal([]interface{}{int64(1)}, result)
	}
	require.LessOrEqual(atomic.LoadInt32(&peak), int32(2))
	require.Positive(atomic.LoadInt32(&peak))
}

func TestRouterReleasedPool(t *testing.T) {
	require := require.New(t)

	pool, err := NewPool(1)
	require.NoError(err)
	pool.Release()

	programs := runnerFunc(func(context.Context, map[string]interface{}, []byte) ([]interface{}, error) {
		return []interface{}{int64(1)}, nil
	})
	router := NewRouter(programs, nil, pool, nil, discardLogger())
	result := values.DecodeArray(router.Handle(context.Background(), MethodCairoRun, nil, nil))
	require.Len(result, 3)
	require.Contains(result[0], "couldn't schedule call")
}

func TestRouterMetrics(t *testing.T) {
	require := require.New(t)

	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics("test", registry, nil)
	require.NoError(err)

	programs := runnerFunc(func(context.Context, map[string]interface{}, []byte) ([]interface{}, error) {
		return nil, failures.Executionf("boom")
	})
	gateway := invokerFunc(func(context.Context, map[string]interface{}) ([]interface{}, error) {
		return []interface{}{int64(1)}, nil
	})
	router := NewRouter(programs, gateway, nil, metrics, discardLogger())

	ctx := context.Background()
	router.Handle(ctx, MethodCairoRun, nil, nil)
	router.Handle(ctx, MethodStarknetCall, nil, nil)
	router.Handle(ctx, MethodStarknetCall, nil, nil)
	router.Handle(ctx, "nope", nil, nil)

	require.Equal(1.0, testutil.ToFloat64(metrics.calls.WithLabelValues(MethodCairoRun, outcomeError)))
	require.Equal(2.0, testutil.ToFloat64(metrics.calls.WithLabelValues(MethodStarknetCall, outcomeOK)))
	require.Equal(1.0, testutil.ToFloat64(metrics.calls.WithLabelValues(unknownMethodLabel, outcomeUnknown)))

	_, err = NewMetrics("test", registry, nil)
	require.Error(err)
}
