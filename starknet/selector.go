// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package starknet

import (
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/ava-labs/cairorpc/failures"
)

// selectorMask keeps the low 250 bits of a Keccak digest.
var selectorMask = new(uint256.Int).Sub(
	new(uint256.Int).Lsh(uint256.NewInt(1), 250),
	uint256.NewInt(1),
)

// SelectorFromName returns the entry point selector of the function [name]:
// its Keccak-256 digest truncated to 250 bits.
func SelectorFromName(name string) (*uint256.Int, error) {
	if name == "" {
		return nil, failures.Validationf("Function name is required.")
	}
	for i := 0; i < len(name); i++ {
		if name[i] > 0x7f {
			return nil, failures.Validationf("Function name must be ASCII. Got: %s.", name)
		}
	}

	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(name))
	v := new(uint256.Int).SetBytes(h.Sum(nil))
	return v.And(v, selectorMask), nil
}
