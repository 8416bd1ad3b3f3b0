// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package program runs compiled WebAssembly programs against named input
// parameters and reads back their output segment.
package program

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/ava-labs/cairorpc/failures"
)

const (
	hostModule = "env"
	moduleName = "program"

	// EntrypointName is the export execution starts at.
	EntrypointName = "main"
)

var (
	errRunNotEnded   = errors.New("run has not ended")
	errNoCallback    = errors.New("no callback bound")
	errOutputFull    = errors.New("output segment is full")
	errNoOutput      = errors.New("layout has no output builtin")
	errKeyOutOfRange = errors.New("input key is out of memory bounds")
)

// RunResources bounds a run. A nil MaxSteps means unbounded.
// The wasm engine has no step counter, so MaxSteps is carried but not
// enforced.
type RunResources struct {
	MaxSteps *uint64
}

// Runner drives one execution of one program. A Runner is not reusable.
type Runner struct {
	layout   Layout
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	module   api.Module
	output   *OutputBuiltin

	// input is exposed to the program through the input host function.
	input    map[string]interface{}
	callback string

	returnValues []uint64
	ended        bool
}

// NewRunner parses [bytecode] into a fresh engine instance.
func NewRunner(ctx context.Context, bytecode []byte, layout Layout) (*Runner, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig())
	compiled, err := rt.CompileModule(ctx, bytecode)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, failures.Validationf("Invalid program: %s.", err)
	}
	return &Runner{
		layout:   layout,
		runtime:  rt,
		compiled: compiled,
		output:   &OutputBuiltin{base: layout.OutputBase, capacity: layout.OutputCells},
	}, nil
}

// InitializeSegments links the host functions and instantiates program
// memory, checking the layout's output segment fits in it.
func (r *Runner) InitializeSegments(ctx context.Context) error {
	_, err := r.runtime.NewHostModuleBuilder(hostModule).
		NewFunctionBuilder().WithFunc(r.hostInput).Export("input").
		NewFunctionBuilder().WithFunc(r.hostOutput).Export("output").
		NewFunctionBuilder().WithFunc(r.hostCallback).Export("callback").
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("couldn't instantiate host functions: %w", err)
	}

	module, err := r.runtime.InstantiateModule(ctx, r.compiled,
		wazero.NewModuleConfig().WithName(moduleName).WithStartFunctions())
	if err != nil {
		return failures.Execution(err)
	}
	r.module = module

	mem := module.Memory()
	if mem == nil {
		return failures.Validationf("Program has no memory.")
	}
	if r.layout.hasOutput() && r.layout.outputEnd() > uint64(mem.Size()) {
		return failures.Validationf(
			"Layout %s needs memory up to %d, program has %d bytes.",
			r.layout.Name, r.layout.outputEnd(), mem.Size(),
		)
	}
	return nil
}

// InitializeMainEntrypoint returns the export execution starts at.
func (r *Runner) InitializeMainEntrypoint() (string, error) {
	if _, ok := r.compiled.ExportedFunctions()[EntrypointName]; !ok {
		return "", failures.Validationf("Program is missing entrypoint %s.", EntrypointName)
	}
	return EntrypointName, nil
}

// InitializeVM exposes [input] to the program as its input parameters.
func (r *Runner) InitializeVM(input map[string]interface{}) {
	r.input = input
}

// Label returns the reference of the label called [name].
func (r *Runner) Label(name string) (string, error) {
	if name == EntrypointName {
		return "", failures.Validationf("Label %s is the entrypoint.", name)
	}
	if _, ok := r.compiled.ExportedFunctions()[name]; !ok {
		return "", failures.Validationf("Label %s not found.", name)
	}
	return name, nil
}

// BindCallback makes [label] the target of the program's callback.
func (r *Runner) BindCallback(label string) {
	r.callback = label
}

// RunUntilEnd runs [entrypoint] to completion.
func (r *Runner) RunUntilEnd(ctx context.Context, entrypoint string, _ RunResources) error {
	fn := r.module.ExportedFunction(entrypoint)
	if fn == nil {
		return failures.Validationf("Program is missing entrypoint %s.", entrypoint)
	}
	results, err := fn.Call(ctx)
	if err != nil {
		return failures.Execution(err)
	}
	r.returnValues = results
	return nil
}

// EndRun closes the run's bookkeeping. This engine keeps no trace, so
// [disableTracePadding] has no effect.
func (r *Runner) EndRun(disableTracePadding bool) {
	r.ended = true
}

// ReadReturnValues returns the values the entrypoint returned.
func (r *Runner) ReadReturnValues() ([]uint64, error) {
	if !r.ended {
		return nil, errRunNotEnded
	}
	return r.returnValues, nil
}

// Output returns the output builtin.
func (r *Runner) Output() *OutputBuiltin { return r.output }

// ReadCell reads the memory cell at [addr].
func (r *Runner) ReadCell(addr uint32) (uint64, error) {
	v, ok := r.module.Memory().ReadUint64Le(addr)
	if !ok {
		return 0, failures.Executionf("Memory address %d is out of bounds.", addr)
	}
	return v, nil
}

// Close releases the engine.
func (r *Runner) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// Host functions trap by panicking; the engine turns the panic into an error
// returned from the running call.

func (r *Runner) hostInput(_ context.Context, m api.Module, ptr, size uint32) int64 {
	key, ok := m.Memory().Read(ptr, size)
	if !ok {
		panic(errKeyOutOfRange)
	}
	v, found := r.input[string(key)]
	if !found {
		panic(fmt.Errorf("KeyError: '%s'", key))
	}
	n, err := inputInt(v)
	if err != nil {
		panic(fmt.Errorf("ValueError: input '%s' is not an integer: %v", key, v))
	}
	return n
}

// inputInt reads strings as decimal, or hex after a 0x prefix.
func inputInt(v interface{}) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return cast.ToInt64E(v)
	}
	s = strings.TrimSpace(s)
	if digits, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseInt(digits, 16, 64)
	}
	return strconv.ParseInt(s, 10, 64)
}

func (r *Runner) hostOutput(_ context.Context, m api.Module, v uint64) {
	if err := r.output.append(m.Memory(), v); err != nil {
		panic(err)
	}
}

func (r *Runner) hostCallback(ctx context.Context, m api.Module) {
	if r.callback == "" {
		panic(errNoCallback)
	}
	fn := m.ExportedFunction(r.callback)
	if fn == nil {
		panic(fmt.Errorf("callback %s is not exported", r.callback))
	}
	if _, err := fn.Call(ctx); err != nil {
		panic(err)
	}
}

// OutputBuiltin owns the output segment: a run of cells starting at base that
// the program appends to.
type OutputBuiltin struct {
	base     uint32
	capacity uint32
	used     uint32
}

func (o *OutputBuiltin) Base() uint32 { return o.base }

// UsedCells returns how many cells the program wrote.
func (o *OutputBuiltin) UsedCells() uint32 { return o.used }

func (o *OutputBuiltin) append(mem api.Memory, v uint64) error {
	if o.capacity == 0 {
		return errNoOutput
	}
	if o.used == o.capacity {
		return errOutputFull
	}
	if !mem.WriteUint64Le(o.base+o.used*CellSize, v) {
		return errOutputFull
	}
	o.used++
	return nil
}
