// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package values packs the loosely typed scalars exchanged with callers into
// self-describing protobuf Any containers and back.
package values

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	ErrUnsupportedType = errors.New("unsupported value type")
	errIntOverflow     = errors.New("integer does not fit in int64")
)

// Encode packs [v] into an Any tagged with the value's kind.
// Integers are packed as Int64Value and strings as StringValue.
func Encode(v interface{}) (*anypb.Any, error) {
	switch val := v.(type) {
	case string:
		return anypb.New(wrapperspb.String(val))
	default:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return anypb.New(wrapperspb.Int64(n))
	}
}

// Decode unpacks [a]. The second return is false when the tag is neither an
// integer nor a string kind, or when the payload is corrupt.
func Decode(a *anypb.Any) (interface{}, bool) {
	if a == nil {
		return nil, false
	}
	switch {
	case a.MessageIs(&wrapperspb.Int64Value{}):
		v := &wrapperspb.Int64Value{}
		if err := a.UnmarshalTo(v); err != nil {
			return nil, false
		}
		return v.GetValue(), true
	case a.MessageIs(&wrapperspb.Int32Value{}):
		v := &wrapperspb.Int32Value{}
		if err := a.UnmarshalTo(v); err != nil {
			return nil, false
		}
		return int64(v.GetValue()), true
	case a.MessageIs(&wrapperspb.StringValue{}):
		v := &wrapperspb.StringValue{}
		if err := a.UnmarshalTo(v); err != nil {
			return nil, false
		}
		return v.GetValue(), true
	default:
		return nil, false
	}
}

// EncodeArray packs every element of [arr], preserving order.
func EncodeArray(arr []interface{}) ([]*anypb.Any, error) {
	result := make([]*anypb.Any, 0, len(arr))
	for i, v := range arr {
		packed, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("couldn't encode element %d: %w", i, err)
		}
		result = append(result, packed)
	}
	return result, nil
}

// EncodeMap packs every entry of [m].
func EncodeMap(m map[string]interface{}) (map[string]*anypb.Any, error) {
	result := make(map[string]*anypb.Any, len(m))
	for key, v := range m {
		packed, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("couldn't encode %q: %w", key, err)
		}
		result[key] = packed
	}
	return result, nil
}

// DecodeArray unpacks [arr], dropping elements with unknown tags.
func DecodeArray(arr []*anypb.Any) []interface{} {
	result := make([]interface{}, 0, len(arr))
	for _, packed := range arr {
		if v, ok := Decode(packed); ok {
			result = append(result, v)
		}
	}
	return result
}

// DecodeMap unpacks [m], dropping entries with unknown tags.
func DecodeMap(m map[string]*anypb.Any) map[string]interface{} {
	result := make(map[string]interface{}, len(m))
	for key, packed := range m {
		if v, ok := Decode(packed); ok {
			result[key] = v
		}
	}
	return result
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return uintToInt64(n)
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func uintToInt64(n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, errIntOverflow
	}
	return int64(n), nil
}
