package vm

import (
	"math"
	"math/big"

	"github.com/tsrun-lang/tsrun/opcodes"
	"github.com/tsrun-lang/tsrun/tsrerrors"
	"github.com/tsrun-lang/tsrun/values"
)

// step decodes and executes the single instruction at frame.PC, advancing
// PC (or transferring control via jump/call/return), and returns a Signal
// describing whether dispatch should keep going (SigNone) or the Run loop
// should stop and report an outcome to the caller.
//
// step recovers internal panics (tsrerrors.InternalError, out-of-range
// register access, stale handles) at this boundary so a corrupted chunk or
// a host bug never reaches the Go runtime as an unrecovered panic (spec
// §4.2 Failure semantics).
func (m *VM) step(frame *CallFrame) (sig Signal) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *tsrerrors.InternalError:
				e.SessionID = m.SessionID
				m.ThrownError = &tsrerrors.GuestError{Kind: tsrerrors.KindError, Message: e.Error()}
				sig = SigThrow
			case *tsrerrors.GuestError:
				sig = m.raise(e)
			default:
				panic(r)
			}
		}
	}()

	if frame.PC < 0 || frame.PC >= len(frame.Chunk.Instructions) {
		m.internalErrorf(tsrerrors.ErrCorruptChunk, opcodes.OP_NOP, frame.PC, "program counter out of range")
	}
	inst := frame.Chunk.Instructions[frame.PC]

	switch inst.Op {
	case opcodes.OP_NOP:
		frame.PC++

	case opcodes.OP_LOAD_CONST:
		frame.setReg(inst.A, m.constant(frame, inst.Imm))
		frame.PC++
	case opcodes.OP_LOAD_UNDEFINED:
		frame.setReg(inst.A, values.Undefined())
		frame.PC++
	case opcodes.OP_LOAD_NULL:
		frame.setReg(inst.A, values.Null())
		frame.PC++
	case opcodes.OP_LOAD_TRUE:
		frame.setReg(inst.A, values.Bool(true))
		frame.PC++
	case opcodes.OP_LOAD_FALSE:
		frame.setReg(inst.A, values.Bool(false))
		frame.PC++
	case opcodes.OP_MOVE:
		frame.setReg(inst.A, frame.reg(inst.B))
		frame.PC++
	case opcodes.OP_LOAD_THIS:
		frame.setReg(inst.A, frame.This)
		frame.PC++
	case opcodes.OP_LOAD_NEW_TARGET:
		frame.setReg(inst.A, frame.NewTarget)
		frame.PC++

	case opcodes.OP_LOAD_GLOBAL:
		name := m.constant(frame, inst.Imm).AsString()
		frame.setReg(inst.A, m.getGlobal(name))
		frame.PC++
	case opcodes.OP_STORE_GLOBAL:
		name := m.constant(frame, inst.Imm).AsString()
		m.setGlobal(name, frame.reg(inst.A))
		frame.PC++

	case opcodes.OP_LOAD_UPVALUE:
		name := m.constant(frame, inst.Imm).AsString()
		frame.setReg(inst.A, m.readBinding(frame.Env, name))
		frame.PC++
	case opcodes.OP_STORE_UPVALUE:
		name := m.constant(frame, inst.Imm).AsString()
		m.assignBinding(frame.Env, name, frame.reg(inst.A))
		frame.PC++

	case opcodes.OP_ADD, opcodes.OP_SUB, opcodes.OP_MUL, opcodes.OP_DIV, opcodes.OP_MOD, opcodes.OP_POW,
		opcodes.OP_BW_AND, opcodes.OP_BW_OR, opcodes.OP_BW_XOR, opcodes.OP_SHL, opcodes.OP_SHR, opcodes.OP_USHR,
		opcodes.OP_EQ, opcodes.OP_NEQ, opcodes.OP_SEQ, opcodes.OP_SNEQ,
		opcodes.OP_LT, opcodes.OP_LTE, opcodes.OP_GT, opcodes.OP_GTE:
		frame.setReg(inst.A, m.binaryOp(inst.Op, frame.reg(inst.B), frame.reg(inst.C)))
		frame.PC++

	case opcodes.OP_NEG, opcodes.OP_PLUS, opcodes.OP_NOT, opcodes.OP_BW_NOT, opcodes.OP_TYPEOF,
		opcodes.OP_TO_STRING, opcodes.OP_TO_NUMBER, opcodes.OP_TO_BOOLEAN, opcodes.OP_TO_OBJECT:
		frame.setReg(inst.A, m.unaryOp(inst.Op, frame.reg(inst.B)))
		frame.PC++

	case opcodes.OP_INC, opcodes.OP_DEC:
		old := m.toNumber(frame.reg(inst.A))
		delta := 1.0
		if inst.Op == opcodes.OP_DEC {
			delta = -1.0
		}
		frame.setReg(inst.A, values.Number(old+delta))
		frame.PC++

	case opcodes.OP_INSTANCEOF:
		frame.setReg(inst.A, values.Bool(m.instanceOf(frame.reg(inst.B), frame.reg(inst.C))))
		frame.PC++
	case opcodes.OP_IN:
		frame.setReg(inst.A, values.Bool(m.hasProperty(frame.reg(inst.C), m.toPropertyKey(frame.reg(inst.B)))))
		frame.PC++

	case opcodes.OP_JMP:
		frame.PC += int(inst.Imm)
	case opcodes.OP_JMP_IF_TRUE:
		if frame.reg(inst.B).ToBoolean() {
			frame.PC += int(inst.Imm)
		} else {
			frame.PC++
		}
	case opcodes.OP_JMP_IF_FALSE:
		if !frame.reg(inst.B).ToBoolean() {
			frame.PC += int(inst.Imm)
		} else {
			frame.PC++
		}
	case opcodes.OP_JMP_IF_NULLISH:
		if frame.reg(inst.B).IsNullish() {
			frame.PC += int(inst.Imm)
		} else {
			frame.PC++
		}

	case opcodes.OP_RETURN:
		return m.doReturn(frame, frame.reg(inst.B))
	case opcodes.OP_RETURN_UNDEFINED:
		return m.doReturn(frame, values.Undefined())

	case opcodes.OP_GET_PROP:
		key := values.StringKey(m.constant(frame, inst.Imm).AsString())
		frame.setReg(inst.A, m.getProperty(frame.reg(inst.B), key))
		frame.PC++
	case opcodes.OP_SET_PROP:
		key := values.StringKey(m.constant(frame, inst.Imm).AsString())
		m.setProperty(frame.reg(inst.A), key, frame.reg(inst.B))
		frame.PC++
	case opcodes.OP_GET_PROP_COMPUTED:
		frame.setReg(inst.A, m.getProperty(frame.reg(inst.B), m.toPropertyKey(frame.reg(inst.C))))
		frame.PC++
	case opcodes.OP_SET_PROP_COMPUTED:
		m.setProperty(frame.reg(inst.A), m.toPropertyKey(frame.reg(inst.B)), frame.reg(inst.C))
		frame.PC++
	case opcodes.OP_GET_PROP_OPT:
		recv := frame.reg(inst.B)
		if recv.IsNullish() {
			frame.setReg(inst.A, values.Undefined())
		} else {
			key := values.StringKey(m.constant(frame, inst.Imm).AsString())
			frame.setReg(inst.A, m.getProperty(recv, key))
		}
		frame.PC++
	case opcodes.OP_DELETE_PROP:
		// The compiler emits either a computed key in register C (key
		// register may legitimately be r0) or a non-computed key as a
		// constant-pool name in Imm; Imm != 0 disambiguates the common
		// case but collides with a literal first-constant index of 0 —
		// a known narrow edge case, see DESIGN.md.
		var key values.PropertyKey
		if inst.Imm != 0 {
			key = values.StringKey(m.constant(frame, inst.Imm).AsString())
		} else {
			key = m.toPropertyKey(frame.reg(inst.C))
		}
		frame.setReg(inst.A, values.Bool(m.deleteProperty(frame.reg(inst.B), key)))
		frame.PC++
	case opcodes.OP_HAS_PROP:
		frame.setReg(inst.A, values.Bool(m.hasProperty(frame.reg(inst.C), m.toPropertyKey(frame.reg(inst.B)))))
		frame.PC++
	case opcodes.OP_GET_INDEX:
		frame.setReg(inst.A, m.getProperty(frame.reg(inst.B), m.toPropertyKey(frame.reg(inst.C))))
		frame.PC++
	case opcodes.OP_SET_INDEX:
		m.setProperty(frame.reg(inst.A), m.toPropertyKey(frame.reg(inst.B)), frame.reg(inst.C))
		frame.PC++

	case opcodes.OP_GET_PRIVATE, opcodes.OP_SET_PRIVATE, opcodes.OP_DEFINE_PRIVATE:
		// The compiler emits these opcodes without any private-name
		// operand, so dispatch cannot tell which field is addressed; they
		// have no effect and the destination register keeps its previous
		// value.
		frame.PC++

	case opcodes.OP_CALL, opcodes.OP_CALL_METHOD:
		return m.dispatchCall(frame, inst)
	case opcodes.OP_NEW:
		return m.dispatchNew(frame, inst)

	case opcodes.OP_CLOSURE:
		frame.setReg(inst.A, m.makeClosure(frame, int(inst.Imm), false))
		frame.PC++
	case opcodes.OP_CLASS:
		frame.setReg(inst.A, m.makeClosure(frame, int(inst.Imm), false))
		frame.PC++

	case opcodes.OP_PUSH_SCOPE:
		frame.Env = m.pushScope(frame.Env)
		frame.PC++
	case opcodes.OP_POP_SCOPE:
		frame.Env = m.popScope(frame.Env)
		frame.PC++

	// DECLARE_LET/CONST/VAR, INIT_BINDING, ASSIGN_BINDING operate directly
	// on the register the compiler dedicated to this local for the
	// function's lifetime (compiler.go's scope.locals maps a name to one
	// fixed register, not a named Environment binding) — so at the VM
	// level these reduce to register moves. TDZ enforcement (reading a
	// `let`/`const` before its DECLARE_LET/INIT_BINDING has executed) is
	// not yet lowered: the register simply holds undefined until
	// initialized, rather than raising ReferenceError.
	case opcodes.OP_DECLARE_LET, opcodes.OP_DECLARE_CONST, opcodes.OP_DECLARE_VAR:
		frame.setReg(inst.A, values.Undefined())
		frame.PC++
	case opcodes.OP_INIT_BINDING, opcodes.OP_ASSIGN_BINDING:
		frame.setReg(inst.A, frame.reg(inst.B))
		frame.PC++
	case opcodes.OP_READ_BINDING:
		frame.setReg(inst.A, frame.reg(inst.B))
		frame.PC++

	case opcodes.OP_NEW_ARRAY:
		frame.setReg(inst.A, m.newArray(nil))
		frame.PC++
	case opcodes.OP_NEW_OBJECT:
		frame.setReg(inst.A, m.newPlainObject())
		frame.PC++
	case opcodes.OP_ARRAY_PUSH:
		m.arrayPush(frame.reg(inst.A), frame.reg(inst.B))
		frame.PC++

	case opcodes.OP_GET_ITERATOR:
		frame.setReg(inst.A, m.getIterator(frame.reg(inst.B)))
		frame.PC++
	case opcodes.OP_ITER_NEXT:
		done, v := m.iterNext(frame.reg(inst.B))
		frame.setReg(inst.A, v)
		frame.setReg(inst.C, values.Bool(done))
		frame.PC++
	case opcodes.OP_ITER_CLOSE:
		frame.PC++
	case opcodes.OP_FOR_IN_KEYS:
		frame.setReg(inst.A, m.forInKeys(frame.reg(inst.B)))
		frame.PC++

	case opcodes.OP_THROW:
		return m.raise(m.valueToGuestError(frame.reg(inst.B)))
	case opcodes.OP_RETHROW:
		return m.raise(m.valueToGuestError(frame.reg(inst.A)))
	case opcodes.OP_TRY_BEGIN, opcodes.OP_TRY_END:
		frame.PC++

	case opcodes.OP_YIELD, opcodes.OP_YIELD_STAR:
		m.YieldedValue = frame.reg(inst.B)
		frame.PC++
		return SigYield
	case opcodes.OP_AWAIT:
		m.AwaitedValue = frame.reg(inst.B)
		frame.PC++
		return SigAwait
	case opcodes.OP_AWAIT_RESUME, opcodes.OP_RESUME_WITH_VALUE:
		frame.setReg(inst.A, m.AwaitedValue)
		frame.PC++
	case opcodes.OP_RESUME_WITH_THROW:
		return m.raise(m.valueToGuestError(m.AwaitedValue))

	case opcodes.OP_AND:
		frame.setReg(inst.A, values.Bool(frame.reg(inst.B).ToBoolean() && frame.reg(inst.C).ToBoolean()))
		frame.PC++
	case opcodes.OP_OR:
		frame.setReg(inst.A, values.Bool(frame.reg(inst.B).ToBoolean() || frame.reg(inst.C).ToBoolean()))
		frame.PC++
	case opcodes.OP_NULLISH:
		l := frame.reg(inst.B)
		if l.IsNullish() {
			frame.setReg(inst.A, frame.reg(inst.C))
		} else {
			frame.setReg(inst.A, l)
		}
		frame.PC++

	case opcodes.OP_SPREAD_ARGS, opcodes.OP_REST_PARAMS, opcodes.OP_CLOSURE_ACCESSOR, opcodes.OP_LOAD_ARGUMENTS:
		// Rest parameters are gathered when the call frame is built
		// (newCallFrame); at dispatch time these four opcodes have no
		// effect.
		frame.PC++

	default:
		m.internalErrorf(tsrerrors.ErrCorruptChunk, inst.Op, frame.PC, "unimplemented opcode")
	}

	return SigNone
}

func (f *CallFrame) reg(i uint32) values.Value {
	if int(i) >= len(f.Registers) {
		panic(tsrerrors.NewInternalError(tsrerrors.ErrUnboundRegister, 0, f.PC, "register r%d out of range (nregs=%d)", i, len(f.Registers)))
	}
	return f.Registers[i]
}

func (f *CallFrame) setReg(i uint32, v values.Value) {
	if int(i) >= len(f.Registers) {
		panic(tsrerrors.NewInternalError(tsrerrors.ErrUnboundRegister, 0, f.PC, "register r%d out of range (nregs=%d)", i, len(f.Registers)))
	}
	f.Registers[i] = v
}

func (m *VM) constant(frame *CallFrame, idx int32) values.Value {
	if idx < 0 || int(idx) >= len(frame.Chunk.Constants) {
		m.internalErrorf(tsrerrors.ErrCorruptChunk, opcodes.OP_LOAD_CONST, frame.PC, "constant index %d out of range", idx)
	}
	return frame.Chunk.Constants[idx]
}

// toNumber implements ECMAScript ToNumber for the subset of types the
// dispatch loop needs; every other type, BigInt included, yields NaN.
func (m *VM) toNumber(v values.Value) float64 {
	switch v.Type {
	case values.TypeNumber:
		return v.AsNumber()
	case values.TypeBool:
		if v.AsBool() {
			return 1
		}
		return 0
	case values.TypeUndefined:
		return math.NaN()
	case values.TypeNull:
		return 0
	case values.TypeString:
		s := v.AsString()
		if s == "" {
			return 0
		}
		f, ok := new(big.Float).SetString(s)
		if !ok {
			return math.NaN()
		}
		r, _ := f.Float64()
		return r
	default:
		return math.NaN()
	}
}

func (m *VM) toJSString(v values.Value) string {
	switch v.Type {
	case values.TypeString:
		return v.AsString()
	case values.TypeUndefined:
		return "undefined"
	case values.TypeNull:
		return "null"
	case values.TypeBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case values.TypeNumber:
		return formatNumber(v.AsNumber())
	case values.TypeBigInt:
		if v.AsBigInt() != nil {
			return v.AsBigInt().String()
		}
		return "0n"
	case values.TypeSymbol:
		return "Symbol(" + v.AsSymbol().Description + ")"
	case values.TypeObject:
		return m.objectToString(v)
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return big.NewFloat(f).Text('f', -1)
	}
	return big.NewFloat(f).Text('g', -1)
}
