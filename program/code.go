// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/ava-labs/cairorpc/failures"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// DecodeCode returns the raw bytecode carried by [code]. Raw modules are
// recognized by their magic number; anything else is taken as hex text with
// an optional 0x prefix.
func DecodeCode(code []byte) ([]byte, error) {
	if len(code) == 0 {
		return nil, failures.Validationf("Program code is empty.")
	}
	if bytes.HasPrefix(code, wasmMagic) {
		return code, nil
	}

	text := strings.TrimSpace(string(code))
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, failures.Validationf("Program code is neither bytecode nor hex: %s.", err)
	}
	return raw, nil
}
