// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"github.com/spf13/cast"

	"github.com/ava-labs/cairorpc/failures"
)

const (
	// DefaultLabel is run when the requested function has no label.
	DefaultLabel = "default"

	functionKey = "function"
)

// LabelLookup finds labels in a parsed program.
type LabelLookup interface {
	Label(name string) (string, error)
}

// ResolveEntrypoint picks the label the program's callback runs: the label
// named by params["function"] when it exists, else DefaultLabel. Only the
// DefaultLabel lookup's failure is returned.
func ResolveEntrypoint(program LabelLookup, params map[string]interface{}) (string, error) {
	var (
		label string
		err   error
	)
	for _, name := range labelCandidates(params) {
		label, err = lookup(program, name)
		if err == nil {
			return label, nil
		}
	}
	return "", err
}

func labelCandidates(params map[string]interface{}) []string {
	candidates := make([]string, 0, 2)
	if fn, ok := params[functionKey]; ok && fn != nil {
		if name, err := cast.ToStringE(fn); err == nil && name != DefaultLabel {
			candidates = append(candidates, name)
		}
	}
	return append(candidates, DefaultLabel)
}

// lookup turns a panicking lookup into a failed attempt.
func lookup(program LabelLookup, name string) (label string, err error) {
	defer func() {
		if r := recover(); r != nil {
			label, err = "", failures.Recovered(r)
		}
	}()
	return program.Label(name)
}
