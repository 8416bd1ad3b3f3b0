// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cairorpc

import (
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/utils/formatting"

	"github.com/ava-labs/cairorpc/values"
)

// Service is the JSON-RPC API of the gateway
type Service struct{ router *Router }

func NewService(router *Router) *Service {
	return &Service{router: router}
}

// CallArgs are the arguments to Call
type CallArgs struct {
	// Method names the invoker, e.g. cairo_run
	Method string `json:"method"`

	// Code is the compiled program in [Encoding], empty for gateway calls
	Code     string              `json:"code"`
	Encoding formatting.Encoding `json:"encoding"`

	Params map[string]values.Wire `json:"params"`
}

// CallReply is the reply from Call
type CallReply struct {
	Result []values.Wire `json:"result"`
}

// Call dispatches [args].Method. Invoker failures are reported in the
// result, only an undecodable code string fails the request.
func (s *Service) Call(r *http.Request, args *CallArgs, reply *CallReply) error {
	var code []byte
	if args.Code != "" {
		bytes, err := formatting.Decode(args.Encoding, args.Code)
		if err != nil {
			return fmt.Errorf("couldn't decode code: %w", err)
		}
		code = bytes
	}

	result := s.router.Handle(r.Context(), args.Method, values.FromWireMap(args.Params), code)
	reply.Result = values.ToWireArray(result)
	return nil
}
