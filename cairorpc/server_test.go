// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cairorpc

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ava-labs/cairorpc/values"
)

func startTestServer(t *testing.T, transport string) *Server {
	config := DefaultConfig()
	config.Host = "127.0.0.1"
	config.Port = 0
	config.MetricsPort = 0
	config.Transport = transport

	server, err := NewServer(config, discardLogger())
	require.NoError(t, err)
	require.NoError(t, server.Listen())

	served := make(chan error, 1)
	go func() { served <- server.Serve() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, server.Stop(ctx))
		require.NoError(t, <-served)
	})
	return server
}

func get(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServerJSONRPC(t *testing.T) {
	require := require.New(t)
	server := startTestServer(t, TransportJSONRPC)
	url := "http://" + server.Addr().String()

	reply := postCall(t, url, &CallArgs{Method: "nope"})
	require.Nil(reply.Error)
	require.Len(reply.Result.Result, 1)

	status, _ := get(t, url+HealthPath)
	require.Equal(http.StatusOK, status)

	status, body := get(t, url+MetricsPath)
	require.Equal(http.StatusOK, status)
	require.Contains(body, `cairorpc_calls_total{method="unknown",outcome="unknown_method"} 1`)
	require.Contains(body, "cairorpc_workers_busy")
	require.Nil(server.MetricsAddr())
}

func TestServerGRPC(t *testing.T) {
	require := require.New(t)
	server := startTestServer(t, TransportGRPC)

	conn, err := grpc.NewClient(server.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(err)
	defer conn.Close()

	resp, err := NewCAIROVMClient(conn).Call(context.Background(), &CallRequest{Method: "nope"})
	require.NoError(err)
	require.Equal([]interface{}{"Error. Unknown method: nope"}, values.DecodeArray(resp.Result))

	require.NotNil(server.MetricsAddr())
	status, body := get(t, "http://"+server.MetricsAddr().String()+MetricsPath)
	require.Equal(http.StatusOK, status)
	require.Contains(body, "cairorpc_calls_total")
}

func TestServerServeBeforeListen(t *testing.T) {
	require := require.New(t)

	server, err := NewServer(DefaultConfig(), discardLogger())
	require.NoError(err)
	require.ErrorIs(server.Serve(), errNotListening)
	server.pool.Release()
}

func TestServerPortInUse(t *testing.T) {
	require := require.New(t)
	running := startTestServer(t, TransportJSONRPC)

	config := DefaultConfig()
	config.Host = "127.0.0.1"
	config.Transport = TransportJSONRPC
	config.Port = uint16(running.Addr().(*net.TCPAddr).Port)

	server, err := NewServer(config, discardLogger())
	require.NoError(err)
	defer server.pool.Release()
	require.ErrorContains(server.Listen(), "couldn't listen on")
}
