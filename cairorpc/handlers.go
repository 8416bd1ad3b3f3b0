// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cairorpc

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/rpc/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cjson "github.com/ava-labs/avalanchego/utils/json"
)

const (
	RPCPath     = "/rpc"
	MetricsPath = "/metrics"
	HealthPath  = "/health"
)

// NewRPCHandler returns the JSON-RPC handler serving [router] under the
// service name Name.
func NewRPCHandler(router *Router) (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(NewService(router), Name)
}

// NewHTTPHandler routes the API, the metrics and the health check. A nil
// [api] or [gatherer] leaves the matching path out.
func NewHTTPHandler(api http.Handler, gatherer prometheus.Gatherer) http.Handler {
	r := mux.NewRouter()
	if api != nil {
		r.Handle(RPCPath, api).Methods(http.MethodPost)
	}
	if gatherer != nil {
		r.Handle(MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	r.HandleFunc(HealthPath, health).Methods(http.MethodGet)
	return r
}

type healthReply struct {
	Healthy bool `json:"healthy"`
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthReply{Healthy: true})
}
