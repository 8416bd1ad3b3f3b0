// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package starknet

import (
	"encoding/json"
	"math/big"
	"math/bits"
	"strings"

	"github.com/holiman/uint256"

	"github.com/ava-labs/cairorpc/failures"
)

const (
	entryFunction = "function"
	entryStruct   = "struct"

	feltType = "felt"
)

// ABIMember is one input, output or struct member of an ABI entry.
type ABIMember struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Offset int    `json:"offset,omitempty"`
}

// ABIEntry is one entry of a contract's interface description.
type ABIEntry struct {
	Type    string      `json:"type"`
	Name    string      `json:"name"`
	Inputs  []ABIMember `json:"inputs,omitempty"`
	Outputs []ABIMember `json:"outputs,omitempty"`
	Members []ABIMember `json:"members,omitempty"`
	Size    int         `json:"size,omitempty"`
}

// ABI is a contract's interface description.
type ABI []ABIEntry

func ParseABI(raw string) (ABI, error) {
	var abi ABI
	if err := json.Unmarshal([]byte(raw), &abi); err != nil {
		return nil, failures.Validationf("Invalid ABI: %s.", err)
	}
	return abi, nil
}

// Function returns the function entry called [name].
func (a ABI) Function(name string) (*ABIEntry, bool) {
	for i := range a {
		if a[i].Type == entryFunction && a[i].Name == name {
			return &a[i], true
		}
	}
	return nil, false
}

func (a ABI) structs() map[string]*ABIEntry {
	structs := make(map[string]*ABIEntry)
	for i := range a {
		if a[i].Type == entryStruct {
			structs[a[i].Name] = &a[i]
		}
	}
	return structs
}

// ValidateArguments checks that [inputs] has the layout [entry] declares.
// A type made of felts takes its size in inputs, and a one felt value is
// remembered as the length of a following array. An array T* takes as many
// T as that length says.
func ValidateArguments(inputs []*uint256.Int, entry *ABIEntry, abi ABI) error {
	sizes := &typeSizer{structs: abi.structs(), resolving: map[string]bool{}}
	available := uint64(len(inputs))

	var (
		previousFelt *uint256.Int
		consumed     uint64
	)
	for _, desc := range entry.Inputs {
		typ := strings.TrimSpace(desc.Type)
		if pointee, ok := strings.CutSuffix(typ, "*"); ok {
			elemSize, err := sizes.size(pointee)
			if err != nil {
				return err
			}
			if previousFelt == nil {
				return failures.Validationf(
					"The array argument %s of type %s must be preceded by a length argument of type felt.",
					desc.Name, typ,
				)
			}
			expected := new(big.Int).Mul(previousFelt.ToBig(), new(big.Int).SetUint64(elemSize))
			expected.Add(expected, new(big.Int).SetUint64(consumed))
			if expected.Cmp(new(big.Int).SetUint64(available)) > 0 {
				return failures.Validationf("Expected at least %s inputs, got %d.", expected, len(inputs))
			}
			consumed = expected.Uint64()
			continue
		}

		size, err := sizes.size(typ)
		if err != nil {
			return err
		}
		if size > available-consumed {
			expected := new(big.Int).SetUint64(consumed)
			expected.Add(expected, new(big.Int).SetUint64(size))
			return failures.Validationf("Expected at least %s inputs, got %d.", expected, len(inputs))
		}
		if size == 1 {
			previousFelt = inputs[consumed]
		}
		consumed += size
	}

	if consumed != available {
		return failures.Validationf("Wrong number of arguments. Expected %d, got %d.", consumed, len(inputs))
	}
	return nil
}

// typeSizer resolves how many felts a type made only of felts occupies.
// Pointers are not made of felts.
type typeSizer struct {
	structs   map[string]*ABIEntry
	resolving map[string]bool
}

func (s *typeSizer) size(typ string) (uint64, error) {
	typ = strings.TrimSpace(typ)
	switch {
	case typ == feltType:
		return 1, nil
	case strings.HasSuffix(typ, "*"):
		return 0, failures.Validationf("Type '%s' is not supported.", typ)
	case strings.HasPrefix(typ, "(") && strings.HasSuffix(typ, ")"):
		var total uint64
		for _, member := range splitTuple(typ[1 : len(typ)-1]) {
			// named tuple members look like "x: felt"
			if i := strings.Index(member, ":"); i >= 0 {
				member = member[i+1:]
			}
			size, err := s.size(member)
			if err != nil {
				return 0, err
			}
			if total, err = addSize(typ, total, size); err != nil {
				return 0, err
			}
		}
		return total, nil
	}

	entry, ok := s.structs[typ]
	if !ok {
		return 0, failures.Validationf("Unknown type '%s'.", typ)
	}
	if len(entry.Members) == 0 && entry.Size > 0 {
		return uint64(entry.Size), nil
	}
	if s.resolving[typ] {
		return 0, failures.Validationf("Type '%s' is recursive.", typ)
	}
	s.resolving[typ] = true
	defer delete(s.resolving, typ)

	var total uint64
	for _, member := range entry.Members {
		size, err := s.size(member.Type)
		if err != nil {
			return 0, err
		}
		if total, err = addSize(typ, total, size); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func addSize(typ string, a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, failures.Validationf("Type '%s' is too large.", typ)
	}
	return sum, nil
}

// splitTuple splits the members of a tuple on top level commas.
func splitTuple(s string) []string {
	var (
		members []string
		depth   int
		start   int
	)
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				members = append(members, s[start:i])
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		members = append(members, last)
	}
	return members
}
