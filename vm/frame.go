package vm

import (
	"sync"

	"github.com/tsrun-lang/tsrun/compiler"
	"github.com/tsrun-lang/tsrun/gc"
	"github.com/tsrun-lang/tsrun/values"
)

// CallFrame is one activation record: a register file, the chunk it is
// executing, the current program counter, and the lexical environment it
// closes over (spec §3.4).
type CallFrame struct {
	Chunk    *compiler.Chunk
	Registers []values.Value
	PC       int
	Env      gc.RawHandle // current Environment object
	This     values.Value
	NewTarget values.Value

	// CallerFrame is the frame to resume on return; ReturnReg is the
	// caller's register that receives this frame's result.
	CallerFrame *CallFrame
	ReturnReg   uint32

	// ConstructedInstance is set for a frame invoked via `new`: if the
	// constructor body returns a non-object, the instance is yielded
	// instead (spec's ordinary construct behavior).
	ConstructedInstance values.Value

	// IsGeneratorBody marks a frame driven by Generator.next rather than
	// an ordinary call.
	IsGeneratorBody bool
}

// roots returns every handle this frame can reach directly: its register
// file's object values, its environment, `this`, and new.target — the
// "live frames' register file and current environment" root kind from
// spec §4.3.
func (f *CallFrame) roots(out []gc.RawHandle) []gc.RawHandle {
	if f.Env.Valid() {
		out = append(out, f.Env)
	}
	if f.This.Type == values.TypeObject {
		out = append(out, f.This.Handle())
	}
	if f.NewTarget.Type == values.TypeObject {
		out = append(out, f.NewTarget.Handle())
	}
	if f.ConstructedInstance.Type == values.TypeObject {
		out = append(out, f.ConstructedInstance.Handle())
	}
	for _, r := range f.Registers {
		if r.Type == values.TypeObject {
			out = append(out, r.Handle())
		}
	}
	return out
}

// CallStackManager manages the live call stack for one interpreter
// instance, following the teacher's manager-struct-with-mutex idiom
// (call_stack.go's CallStackManager) generalized from PHP frames to
// register-VM CallFrames.
type CallStackManager struct {
	mu     sync.Mutex
	frames []*CallFrame
}

// NewCallStackManager constructs an empty stack.
func NewCallStackManager() *CallStackManager {
	return &CallStackManager{frames: make([]*CallFrame, 0, 8)}
}

// PushFrame adds a new call frame to the call stack.
func (cs *CallStackManager) PushFrame(f *CallFrame) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.frames = append(cs.frames, f)
}

// PopFrame removes and returns the current call frame, or nil if empty.
func (cs *CallStackManager) PopFrame() *CallFrame {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.frames) == 0 {
		return nil
	}
	idx := len(cs.frames) - 1
	f := cs.frames[idx]
	cs.frames = cs.frames[:idx]
	return f
}

// CurrentFrame returns the actively executing frame, or nil if the stack
// is empty.
func (cs *CallStackManager) CurrentFrame() *CallFrame {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.frames) == 0 {
		return nil
	}
	return cs.frames[len(cs.frames)-1]
}

// Depth returns the current call stack depth.
func (cs *CallStackManager) Depth() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.frames)
}

// Roots collects GC roots across every live frame (spec §4.3 root kind 2),
// used as the vm's gc.RootProvider.
func (cs *CallStackManager) Roots() []gc.RawHandle {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	var out []gc.RawHandle
	for _, f := range cs.frames {
		out = f.roots(out)
	}
	return out
}

// Names returns the current stack trace as function names, outermost
// first, for attaching to a thrown GuestError.
func (cs *CallStackManager) Names() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	names := make([]string, len(cs.frames))
	for i, f := range cs.frames {
		names[i] = f.Chunk.Name
	}
	return names
}
