// Package vm implements the suspendable register bytecode machine (spec
// §4.2): frame stack, exception table walk, property access, and the
// generator/async suspension points. It keeps the teacher's
// manager-struct-with-mutex idiom (CallStackManager, grounded on
// call_stack.go's CallStackManager) and OutputWriter façade (grounded on
// context.go's ExecutionContext.OutputWriter), generalized to JS/TS
// register bytecode.
package vm

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tsrun-lang/tsrun/compiler"
	"github.com/tsrun-lang/tsrun/gc"
	"github.com/tsrun-lang/tsrun/intern"
	"github.com/tsrun-lang/tsrun/opcodes"
	"github.com/tsrun-lang/tsrun/tsrerrors"
	"github.com/tsrun-lang/tsrun/values"
)

// Signal tags what, if anything, interrupted the dispatch loop on the most
// recent Step call (spec §6.1's step() result kinds, minus NeedImports,
// which concerns module resolution rather than bytecode dispatch and is
// not produced by this package).
type Signal byte

const (
	SigNone Signal = iota
	SigComplete
	SigThrow
	SigAwait
	SigYield
)

// VM is one interpreter instance's register machine: heap, call stack,
// globals, and the dispatch loop. Every interpreter owns its own VM; none
// of this state is process-global (spec §5 Shared resources).
type VM struct {
	SessionID string

	Heap    *gc.Space[*values.Object]
	Globals gc.RawHandle // the global object (globalThis)

	WellKnown *values.WellKnownSymbols
	Symbols   *values.SymbolRegistry
	Interns   *intern.Table

	CallStack *CallStackManager

	Output io.Writer

	Deadline time.Time // zero value = no timeout

	// Out-of-band signal payload set by the dispatch loop when Step
	// returns a Signal other than SigNone.
	CompletedValue values.Value
	ThrownError    *tsrerrors.GuestError
	AwaitedValue   values.Value
	YieldedValue   values.Value
}

// NewVM constructs a fresh interpreter instance with its own heap arena.
// gcThreshold should be gc.AggressiveThreshold in tests that hunt for
// guard bugs and gc.DefaultThreshold otherwise (spec §4.3 Tunables).
func NewVM(gcThreshold int) *VM {
	heap := gc.NewSpace[*values.Object](gcThreshold)
	cs := NewCallStackManager()
	heap.SetFrameRoots(cs.Roots)

	vm := &VM{
		SessionID: uuid.NewString(),
		Heap:      heap,
		WellKnown: values.NewWellKnownSymbols(),
		Symbols:   values.NewSymbolRegistry(),
		Interns:   intern.NewTable(),
		CallStack: cs,
		Output:    os.Stdout,
	}

	globalObj := values.NewObject(gc.RawHandle{})
	h := heap.Alloc(globalObj)
	vm.Globals = h.Raw
	heap.AddPermanentRoot(vm.Globals)
	return vm
}

// globalObject is a convenience wrapper around Heap.Deref for the global
// object, used by LOAD_GLOBAL/STORE_GLOBAL.
func (m *VM) globalObject() *values.Object {
	obj, ok := m.Heap.Deref(gc.Handle[*values.Object]{Raw: m.Globals})
	if !ok {
		panic(tsrerrors.NewInternalError(tsrerrors.ErrStaleHandle, 0, 0, "global object handle is stale"))
	}
	return obj
}

// LoadTopLevel pushes a fresh frame for chunk (the module/script body) and
// runs it to completion or first suspension, returning the outcome signal.
func (m *VM) LoadTopLevel(chunk *compiler.Chunk) Signal {
	frame := &CallFrame{Chunk: chunk, Registers: make([]values.Value, chunk.NumRegisters)}
	m.CallStack.PushFrame(frame)
	return m.Run()
}

// Run dispatches instructions until the call stack empties (SigComplete),
// a guest exception escapes the outermost frame (SigThrow), or a
// suspension point is hit (SigAwait/SigYield). It also throws a recoverable
// timeout GuestError if m.Deadline has passed (spec §5 Timeouts).
func (m *VM) Run() Signal {
	for {
		frame := m.CallStack.CurrentFrame()
		if frame == nil {
			return SigComplete
		}
		if !m.Deadline.IsZero() && time.Now().After(m.Deadline) {
			m.ThrownError = tsrerrors.NewGuestError(tsrerrors.KindRangeError, "execution timed out")
			return SigThrow
		}

		sig := m.step(frame)
		if sig != SigNone {
			return sig
		}
	}
}

// internalErrorf panics with an InternalError; dispatch recovers it at the
// Step boundary and folds it into ThrownError as an uncatchable condition
// reported to the host (spec §4.2 Failure semantics: never a process
// panic).
func (m *VM) internalErrorf(cause error, op opcodes.Opcode, ip int, format string, args ...interface{}) {
	panic(tsrerrors.NewInternalError(cause, op, ip, format, args...))
}
