// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package values

import (
	"google.golang.org/protobuf/types/known/anypb"
)

// Wire is the JSON shape of a packed value. It mirrors the two fields of a
// protobuf Any so the tag survives transports that don't speak protobuf.
type Wire struct {
	TypeURL string `json:"typeUrl"`
	Value   []byte `json:"value"`
}

func ToWire(a *anypb.Any) Wire {
	return Wire{TypeURL: a.GetTypeUrl(), Value: a.GetValue()}
}

func FromWire(w Wire) *anypb.Any {
	return &anypb.Any{TypeUrl: w.TypeURL, Value: w.Value}
}

func ToWireArray(arr []*anypb.Any) []Wire {
	result := make([]Wire, len(arr))
	for i, a := range arr {
		result[i] = ToWire(a)
	}
	return result
}

func FromWireArray(arr []Wire) []*anypb.Any {
	result := make([]*anypb.Any, len(arr))
	for i, w := range arr {
		result[i] = FromWire(w)
	}
	return result
}

func ToWireMap(m map[string]*anypb.Any) map[string]Wire {
	result := make(map[string]Wire, len(m))
	for key, a := range m {
		result[key] = ToWire(a)
	}
	return result
}

func FromWireMap(m map[string]Wire) map[string]*anypb.Any {
	result := make(map[string]*anypb.Any, len(m))
	for key, w := range m {
		result[key] = FromWire(w)
	}
	return result
}
