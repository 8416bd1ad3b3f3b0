// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"github.com/ava-labs/cairorpc/failures"
)

const (
	// CellSize is the width in bytes of one memory cell.
	CellSize = 8

	DefaultLayout = "small"
)

// Layout fixes where the output segment lives in program memory and how many
// cells it can hold.
type Layout struct {
	Name        string
	OutputBase  uint32
	OutputCells uint32
}

var layouts = map[string]Layout{
	// plain has no output builtin.
	"plain": {Name: "plain"},
	"small": {Name: "small", OutputBase: 0x1000, OutputCells: 1024},
}

// GetLayout returns the layout profile called [name].
func GetLayout(name string) (Layout, error) {
	layout, ok := layouts[name]
	if !ok {
		return Layout{}, failures.Validationf("Unknown layout %q.", name)
	}
	return layout, nil
}

func (l Layout) hasOutput() bool { return l.OutputCells > 0 }

// outputEnd is the first address past the output segment.
func (l Layout) outputEnd() uint64 {
	return uint64(l.OutputBase) + uint64(l.OutputCells)*CellSize
}
