// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"context"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/cairorpc/failures"
)

// Invoker runs compiled programs, one fresh runner per call.
type Invoker struct {
	layout Layout
	log    log.Logger
}

// NewInvoker returns an invoker using the layout profile [layoutName].
func NewInvoker(layoutName string, logger log.Logger) (*Invoker, error) {
	layout, err := GetLayout(layoutName)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Invoker{
		layout: layout,
		log:    logger.New("module", "program"),
	}, nil
}

// Run executes [code] with [params] as its input parameters and returns the
// contents of the program's output segment.
func (i *Invoker) Run(ctx context.Context, params map[string]interface{}, code []byte) ([]interface{}, error) {
	bytecode, err := DecodeCode(code)
	if err != nil {
		return nil, err
	}

	runner, err := NewRunner(ctx, bytecode, i.layout)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := runner.Close(ctx); err != nil {
			i.log.Warn("couldn't close runner", "err", err)
		}
	}()

	if err := runner.InitializeSegments(ctx); err != nil {
		return nil, err
	}
	entrypoint, err := runner.InitializeMainEntrypoint()
	if err != nil {
		return nil, err
	}
	runner.InitializeVM(params)

	callback, err := ResolveEntrypoint(runner, params)
	if err != nil {
		return nil, err
	}
	runner.BindCallback(callback)
	i.log.Debug("running program", "entrypoint", entrypoint, "callback", callback, "layout", i.layout.Name)

	if err := runner.RunUntilEnd(ctx, entrypoint, RunResources{}); err != nil {
		return nil, err
	}
	runner.EndRun(false)
	returnValues, err := runner.ReadReturnValues()
	if err != nil {
		return nil, failures.Execution(err)
	}
	i.log.Debug("program finished", "returnValues", returnValues)

	return readOutput(runner)
}

func readOutput(runner *Runner) ([]interface{}, error) {
	output := runner.Output()
	size := output.UsedCells()
	result := make([]interface{}, 0, size)
	for j := uint32(0); j < size; j++ {
		cell, err := runner.ReadCell(output.Base() + j*CellSize)
		if err != nil {
			return nil, err
		}
		result = append(result, int64(cell))
	}
	return result, nil
}
