// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package starknet

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"github.com/ava-labs/cairorpc/failures"
)

const hexPrefix = "0x"

// FieldPrime is the order of the field felts live in: 2^251 + 17*2^192 + 1.
var FieldPrime = func() *uint256.Int {
	p := new(uint256.Int).Lsh(uint256.NewInt(1), 251)
	p.Add(p, new(uint256.Int).Lsh(uint256.NewInt(17), 192))
	return p.AddUint64(p, 1)
}()

// ParseFelt parses a decimal or 0x-prefixed hex field element.
func ParseFelt(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	n, ok := parseInt(s)
	if !ok {
		return nil, failures.Validationf("Invalid input value: '%s'. Expected a number.", s)
	}
	if n.Sign() < 0 {
		return nil, failures.Validationf("Invalid input value: '%s'. Expected a non-negative number.", s)
	}
	v, overflow := uint256.FromBig(n)
	if overflow || !v.Lt(FieldPrime) {
		return nil, failures.Validationf("Invalid input value: '%s'. Expected a value below the field prime.", s)
	}
	return v, nil
}

// ParseInputs parses every element of [values] as a felt.
func ParseInputs(values []string) ([]*uint256.Int, error) {
	result := make([]*uint256.Int, 0, len(values))
	for _, s := range values {
		v, err := ParseFelt(s)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// ParseAddress parses a 0x-prefixed contract address.
func ParseAddress(s string) (*uint256.Int, error) {
	if !strings.HasPrefix(s, hexPrefix) {
		return nil, failures.Validationf("The address must start with '0x'. Got: %s.", s)
	}
	n, ok := parseHex(strings.TrimPrefix(s, hexPrefix))
	if !ok {
		return nil, failures.Validationf("Invalid address format: %s.", s)
	}
	v, overflow := uint256.FromBig(n)
	if overflow {
		return nil, failures.Validationf("Invalid address format: %s.", s)
	}
	return v, nil
}

func parseInt(s string) (*big.Int, bool) {
	if strings.HasPrefix(s, hexPrefix) {
		return parseHex(strings.TrimPrefix(s, hexPrefix))
	}
	return new(big.Int).SetString(s, 10)
}

// parseHex parses the digits after a 0x prefix. A sign there is not a digit.
func parseHex(digits string) (*big.Int, bool) {
	if strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-") {
		return nil, false
	}
	return new(big.Int).SetString(digits, 16)
}

func feltsToDecimal(values []*uint256.Int) []string {
	result := make([]string, len(values))
	for i, v := range values {
		result[i] = v.ToBig().String()
	}
	return result
}
