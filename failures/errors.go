// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package failures defines the errors invokers raise and the three element
// result the router reports them with.
package failures

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrValidation = errors.New("validation error")
	ErrExecution  = errors.New("execution error")
	ErrGateway    = errors.New("gateway error")
)

const unknownSource = "unknown"

// Error is a failure of one call, tagged with its kind and the place it was
// raised at.
type Error struct {
	Kind error
	Msg  string
	File string
	Line int
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

// Validationf reports malformed input detected before any backend work.
func Validationf(format string, args ...interface{}) error {
	return newError(ErrValidation, nil, fmt.Sprintf(format, args...))
}

// Execution wraps a failure reported by the program runner, keeping the
// runner's own diagnostic as the message.
func Execution(err error) error {
	return newError(ErrExecution, err, err.Error())
}

func Executionf(format string, args ...interface{}) error {
	return newError(ErrExecution, nil, fmt.Sprintf(format, args...))
}

// Gatewayf reports a rejection by the ledger gateway.
func Gatewayf(format string, args ...interface{}) error {
	return newError(ErrGateway, nil, fmt.Sprintf(format, args...))
}

// WrapGateway reports a transport or decoding failure talking to the gateway.
func WrapGateway(err error, format string, args ...interface{}) error {
	return newError(ErrGateway, err, fmt.Sprintf(format, args...)+": "+err.Error())
}

func newError(kind, cause error, msg string) *Error {
	e := &Error{Kind: kind, Msg: msg, Err: cause, File: unknownSource}
	if _, file, line, ok := runtime.Caller(2); ok {
		e.File = filepath.Base(file)
		e.Line = line
	}
	return e
}

// Recovered converts a recovered panic into an error whose origin is the
// frame that panicked. It must be called from the deferred function.
func Recovered(r interface{}) error {
	e := &Error{Kind: ErrExecution, Msg: fmt.Sprintf("panic: %v", r), File: unknownSource}
	if err, ok := r.(error); ok {
		e.Err = err
	}

	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	panicking := false
	for {
		frame, more := frames.Next()
		switch {
		case frame.Function == "runtime.gopanic":
			panicking = true
		case panicking && !strings.HasPrefix(frame.Function, "runtime."):
			e.File = filepath.Base(frame.File)
			e.Line = frame.Line
			return e
		}
		if !more {
			return e
		}
	}
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Origin returns the source file and line [err] was raised at, or
// ("unknown", 0) when it carries no location.
func Origin(err error) (string, int) {
	var fe *Error
	if errors.As(err, &fe) && fe.File != unknownSource {
		return fe.File, fe.Line
	}

	// The innermost stack is the closest to where the failure happened.
	var st stackTracer
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if s, ok := cur.(stackTracer); ok {
			st = s
		}
	}
	if st != nil {
		if trace := st.StackTrace(); len(trace) > 0 {
			line, _ := strconv.Atoi(fmt.Sprintf("%d", trace[0]))
			return fmt.Sprintf("%s", trace[0]), line
		}
	}
	return unknownSource, 0
}

// Result renders [err] as the error triple returned to callers in place of
// a regular result sequence.
func Result(err error) []interface{} {
	file, line := Origin(err)
	return []interface{}{
		"Error: " + err.Error(),
		"File: " + file,
		"Line " + strconv.Itoa(line),
	}
}
