package vm

import (
	"github.com/tsrun-lang/tsrun/compiler"
	"github.com/tsrun-lang/tsrun/gc"
	"github.com/tsrun-lang/tsrun/opcodes"
	"github.com/tsrun-lang/tsrun/tsrerrors"
	"github.com/tsrun-lang/tsrun/values"
)

// dispatchCall implements OP_CALL/OP_CALL_METHOD: it pushes a new CallFrame
// for an interpreted callee and lets the outer Run loop pick it up next
// iteration (the flat-trampoline design — spec §4.2's suspendable VM
// requires that a deeply nested call chain never grows the Go call stack,
// so every call is a push, never a recursive step() invocation), or runs a
// native function to completion immediately since native functions can
// never themselves suspend.
func (m *VM) dispatchCall(frame *CallFrame, inst opcodes.Instruction) Signal {
	var callee values.Value
	var this values.Value
	var args []values.Value

	if inst.Op == opcodes.OP_CALL_METHOD {
		callee = frame.reg(inst.B)
		this = frame.reg(inst.B + 1)
		for i := uint32(0); i < inst.C; i++ {
			args = append(args, frame.reg(inst.B+2+i))
		}
	} else {
		callee = frame.reg(inst.B)
		this = values.Undefined()
		for i := uint32(0); i < inst.C; i++ {
			args = append(args, frame.reg(inst.B+1+i))
		}
	}

	fn := m.derefObject(callee.Handle())
	if callee.Type != values.TypeObject || fn == nil || fn.Exotic != values.ExoticFunction {
		panic(tsrerrors.NewGuestError(tsrerrors.KindTypeError, "value is not a function"))
	}

	if fn.Function.Kind == values.FuncBound {
		boundArgs := append(append([]values.Value{}, fn.Function.BoundArgs...), args...)
		return m.invokeBound(frame, inst.A, fn.Function.BoundTarget, fn.Function.BoundThis, boundArgs)
	}

	if fn.Function.Kind == values.FuncNative {
		result, err := fn.Function.Native(this, args)
		if err != nil {
			return m.raise(asGuestError(err))
		}
		frame.setReg(inst.A, result)
		frame.PC++
		return SigNone
	}

	chunk, _ := fn.Function.Chunk.(*compiler.Chunk)
	if chunk == nil {
		m.internalErrorf(tsrerrors.ErrCorruptChunk, inst.Op, frame.PC, "function object has no chunk")
	}
	callee2Frame := m.newCallFrame(chunk, fn.Function.Env, this, values.Undefined(), args)
	callee2Frame.CallerFrame = frame
	callee2Frame.ReturnReg = inst.A
	frame.PC++ // resume here once the callee returns
	m.CallStack.PushFrame(callee2Frame)
	return SigNone
}

func (m *VM) invokeBound(frame *CallFrame, returnReg uint32, target gc.RawHandle, this values.Value, args []values.Value) Signal {
	fn := m.derefObject(target)
	if fn == nil || fn.Exotic != values.ExoticFunction {
		panic(tsrerrors.NewGuestError(tsrerrors.KindTypeError, "bound target is not a function"))
	}
	if fn.Function.Kind == values.FuncNative {
		result, err := fn.Function.Native(this, args)
		if err != nil {
			return m.raise(asGuestError(err))
		}
		frame.setReg(returnReg, result)
		frame.PC++
		return SigNone
	}
	chunk, _ := fn.Function.Chunk.(*compiler.Chunk)
	if chunk == nil {
		m.internalErrorf(tsrerrors.ErrCorruptChunk, opcodes.OP_CALL, frame.PC, "bound function has no chunk")
	}
	newFrame := m.newCallFrame(chunk, fn.Function.Env, this, values.Undefined(), args)
	newFrame.CallerFrame = frame
	newFrame.ReturnReg = returnReg
	frame.PC++
	m.CallStack.PushFrame(newFrame)
	return SigNone
}

// dispatchNew implements OP_NEW: allocate a fresh instance with the
// constructor's `.prototype` as its [[Prototype]], call the constructor
// with `this` bound to the instance and new.target set, and — unless the
// constructor itself returns an object — yield the instance.
func (m *VM) dispatchNew(frame *CallFrame, inst opcodes.Instruction) Signal {
	ctor := frame.reg(inst.B)
	var args []values.Value
	for i := uint32(0); i < inst.C; i++ {
		args = append(args, frame.reg(inst.B+1+i))
	}
	ctorObj := m.derefObject(ctor.Handle())
	if ctor.Type != values.TypeObject || ctorObj == nil || ctorObj.Exotic != values.ExoticFunction {
		panic(tsrerrors.NewGuestError(tsrerrors.KindTypeError, "value is not a constructor"))
	}

	instObj := values.NewObject(gc.RawHandle{})
	if protoProp, ok := ctorObj.GetOwn(values.StringKey("prototype")); ok && protoProp.Value.Type == values.TypeObject {
		instObj.Prototype = protoProp.Value.Handle()
	} else {
		instObj.NullProto = true
	}
	h := m.Heap.Alloc(instObj)
	instance := values.Object(h.Raw)

	if ctorObj.Function.Kind == values.FuncNative {
		result, err := ctorObj.Function.Native(instance, args)
		if err != nil {
			return m.raise(asGuestError(err))
		}
		if result.Type == values.TypeObject {
			frame.setReg(inst.A, result)
		} else {
			frame.setReg(inst.A, instance)
		}
		frame.PC++
		return SigNone
	}

	chunk, _ := ctorObj.Function.Chunk.(*compiler.Chunk)
	if chunk == nil {
		m.internalErrorf(tsrerrors.ErrCorruptChunk, inst.Op, frame.PC, "constructor has no chunk")
	}
	newFrame := m.newCallFrame(chunk, ctorObj.Function.Env, instance, instance, args)
	newFrame.CallerFrame = frame
	newFrame.ReturnReg = inst.A
	newFrame.ConstructedInstance = instance
	frame.PC++
	m.CallStack.PushFrame(newFrame)
	return SigNone
}

func (m *VM) newCallFrame(chunk *compiler.Chunk, env gc.RawHandle, this, newTarget values.Value, args []values.Value) *CallFrame {
	f := &CallFrame{
		Chunk:     chunk,
		Registers: make([]values.Value, chunk.NumRegisters),
		Env:       m.newEnvironment(env),
		This:      this,
		NewTarget: newTarget,
	}
	for i, p := range chunk.Params {
		var v values.Value
		switch {
		case p.IsRest:
			var rest []values.Value
			if i < len(args) {
				rest = args[i:]
			}
			v = m.newArray(rest)
		case i < len(args):
			v = args[i]
		default:
			v = values.Undefined()
		}
		if i < len(f.Registers) {
			f.Registers[i] = v
		}
		m.declareBinding(f.Env, p.Name, true)
		m.initBinding(f.Env, p.Name, v)
	}
	return f
}

// doReturn implements OP_RETURN/OP_RETURN_UNDEFINED: pop the current frame
// and resume the caller (or report SigComplete if this was the outermost
// frame). A `new` expression's constructor returning a non-object instead
// yields the already-constructed instance (spec's ordinary construct
// behavior).
func (m *VM) doReturn(frame *CallFrame, v values.Value) Signal {
	m.CallStack.PopFrame()
	caller := frame.CallerFrame
	if caller == nil {
		m.CompletedValue = v
		return SigComplete
	}
	if frame.ConstructedInstance.Type == values.TypeObject && v.Type != values.TypeObject {
		v = frame.ConstructedInstance
	}
	caller.setReg(frame.ReturnReg, v)
	return SigNone
}

// makeClosure builds a Function object from the chunk at childIndex in the
// current frame's chunk's Children list, capturing frame.Env as its
// closure environment (spec §4.1 "closures capture by environment record,
// not by individual variable").
func (m *VM) makeClosure(frame *CallFrame, childIndex int, isClass bool) values.Value {
	if childIndex < 0 || childIndex >= len(frame.Chunk.Children) {
		m.internalErrorf(tsrerrors.ErrCorruptChunk, opcodes.OP_CLOSURE, frame.PC, "closure child index %d out of range", childIndex)
	}
	child := frame.Chunk.Children[childIndex]

	fnObj := values.NewObject(gc.RawHandle{})
	fnObj.Exotic = values.ExoticFunction
	fnObj.Function = &values.FunctionData{
		Kind:        values.FuncInterpreted,
		Name:        child.Name,
		Chunk:       child,
		Env:         frame.Env,
		ParamCount:  len(child.Params),
		IsGenerator: child.IsGenerator,
		IsAsync:     child.IsAsync,
	}
	h := m.Heap.Alloc(fnObj)

	proto := values.NewObject(gc.RawHandle{})
	protoH := m.Heap.Alloc(proto)
	fnObj.DefineOwn(values.StringKey("prototype"), values.Property{Value: values.Object(protoH.Raw), Writable: true})
	fnObj.DefineOwn(values.StringKey("name"), values.Property{Value: values.String(child.Name)})
	fnObj.DefineOwn(values.StringKey("length"), values.Property{Value: values.Number(float64(len(child.Params)))})

	return values.Object(h.Raw)
}

// invokeSync runs callee to completion synchronously within the current
// step(), used by property accessor invocation. Accessors are always
// ordinary (non-generator, non-async) functions in JS, so encountering a
// suspension signal here is a genuine internal error, not a real case the
// compiler would ever produce.
func (m *VM) invokeSync(this, callee values.Value, args []values.Value) (values.Value, *tsrerrors.GuestError) {
	fnObj := m.derefObject(callee.Handle())
	if fnObj == nil || fnObj.Exotic != values.ExoticFunction {
		return values.Value{}, tsrerrors.NewGuestError(tsrerrors.KindTypeError, "value is not a function")
	}
	if fnObj.Function.Kind == values.FuncNative {
		v, err := fnObj.Function.Native(this, args)
		if err != nil {
			return values.Value{}, asGuestError(err)
		}
		return v, nil
	}
	chunk, _ := fnObj.Function.Chunk.(*compiler.Chunk)
	if chunk == nil {
		return values.Value{}, tsrerrors.NewGuestError(tsrerrors.KindTypeError, "accessor has no chunk")
	}
	f := m.newCallFrame(chunk, fnObj.Function.Env, this, values.Undefined(), args)
	baseDepth := m.CallStack.Depth()
	m.CallStack.PushFrame(f)
	for m.CallStack.Depth() > baseDepth {
		top := m.CallStack.CurrentFrame()
		sig := m.step(top)
		switch sig {
		case SigThrow:
			return values.Value{}, m.ThrownError
		case SigYield, SigAwait:
			return values.Value{}, tsrerrors.NewGuestError(tsrerrors.KindError, "cannot suspend inside a property accessor")
		}
	}
	return m.CompletedValue, nil
}

func asGuestError(err error) *tsrerrors.GuestError {
	if ge, ok := err.(*tsrerrors.GuestError); ok {
		return ge
	}
	return tsrerrors.NewGuestError(tsrerrors.KindError, "%s", err.Error())
}
