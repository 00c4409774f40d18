package vm

import (
	"math"

	"github.com/tsrun-lang/tsrun/opcodes"
	"github.com/tsrun-lang/tsrun/tsrerrors"
	"github.com/tsrun-lang/tsrun/values"
)

// binaryOp implements the arithmetic/comparison/equality opcode family
// (spec §4.2 core opcodes table, "Arithmetic/Logical"). BigInt operands are
// mixed-mode rejected per spec: `+`/`-`/etc. between BigInt and Number is a
// TypeError, matching real ECMAScript semantics.
func (m *VM) binaryOp(op opcodes.Opcode, a, b values.Value) values.Value {
	switch op {
	case opcodes.OP_ADD, opcodes.OP_SUB, opcodes.OP_MUL, opcodes.OP_DIV, opcodes.OP_MOD, opcodes.OP_POW,
		opcodes.OP_BW_AND, opcodes.OP_BW_OR, opcodes.OP_BW_XOR, opcodes.OP_SHL, opcodes.OP_SHR, opcodes.OP_USHR:
		mixed := (a.Type == values.TypeBigInt) != (b.Type == values.TypeBigInt)
		concat := op == opcodes.OP_ADD && (a.Type == values.TypeString || b.Type == values.TypeString)
		if mixed && !concat {
			panic(tsrerrors.NewGuestError(tsrerrors.KindTypeError, "Cannot mix BigInt and other types, use explicit conversions"))
		}
	}
	switch op {
	case opcodes.OP_ADD:
		if a.Type == values.TypeString || b.Type == values.TypeString {
			return values.String(m.toJSString(a) + m.toJSString(b))
		}
		if a.Type == values.TypeBigInt && b.Type == values.TypeBigInt {
			return values.BigIntValue(a.AsBigInt().Add(b.AsBigInt()))
		}
		return values.Number(m.toNumber(a) + m.toNumber(b))
	case opcodes.OP_SUB:
		return values.Number(m.toNumber(a) - m.toNumber(b))
	case opcodes.OP_MUL:
		return values.Number(m.toNumber(a) * m.toNumber(b))
	case opcodes.OP_DIV:
		return values.Number(m.toNumber(a) / m.toNumber(b))
	case opcodes.OP_MOD:
		return values.Number(math.Mod(m.toNumber(a), m.toNumber(b)))
	case opcodes.OP_POW:
		return values.Number(math.Pow(m.toNumber(a), m.toNumber(b)))
	case opcodes.OP_BW_AND:
		return values.Number(float64(toInt32(m.toNumber(a)) & toInt32(m.toNumber(b))))
	case opcodes.OP_BW_OR:
		return values.Number(float64(toInt32(m.toNumber(a)) | toInt32(m.toNumber(b))))
	case opcodes.OP_BW_XOR:
		return values.Number(float64(toInt32(m.toNumber(a)) ^ toInt32(m.toNumber(b))))
	case opcodes.OP_SHL:
		return values.Number(float64(toInt32(m.toNumber(a)) << (toUint32(m.toNumber(b)) & 31)))
	case opcodes.OP_SHR:
		return values.Number(float64(toInt32(m.toNumber(a)) >> (toUint32(m.toNumber(b)) & 31)))
	case opcodes.OP_USHR:
		return values.Number(float64(toUint32(m.toNumber(a)) >> (toUint32(m.toNumber(b)) & 31)))
	case opcodes.OP_SEQ:
		return values.Bool(values.StrictEquals(a, b))
	case opcodes.OP_SNEQ:
		return values.Bool(!values.StrictEquals(a, b))
	case opcodes.OP_EQ:
		return values.Bool(m.looseEquals(a, b))
	case opcodes.OP_NEQ:
		return values.Bool(!m.looseEquals(a, b))
	case opcodes.OP_LT:
		return values.Bool(m.compare(a, b) < 0)
	case opcodes.OP_LTE:
		return values.Bool(m.compare(a, b) <= 0)
	case opcodes.OP_GT:
		return values.Bool(m.compare(a, b) > 0)
	case opcodes.OP_GTE:
		return values.Bool(m.compare(a, b) >= 0)
	default:
		m.internalErrorf(tsrerrors.ErrCorruptChunk, op, 0, "not a binary opcode")
		return values.Undefined()
	}
}

func (m *VM) unaryOp(op opcodes.Opcode, v values.Value) values.Value {
	switch op {
	case opcodes.OP_NEG:
		return values.Number(-m.toNumber(v))
	case opcodes.OP_PLUS:
		return values.Number(m.toNumber(v))
	case opcodes.OP_NOT:
		return values.Bool(!v.ToBoolean())
	case opcodes.OP_BW_NOT:
		return values.Number(float64(^toInt32(m.toNumber(v))))
	case opcodes.OP_TYPEOF:
		return values.String(m.typeOf(v))
	case opcodes.OP_TO_STRING:
		return values.String(m.toJSString(v))
	case opcodes.OP_TO_NUMBER:
		return values.Number(m.toNumber(v))
	case opcodes.OP_TO_BOOLEAN:
		return values.Bool(v.ToBoolean())
	case opcodes.OP_TO_OBJECT:
		return v
	default:
		m.internalErrorf(tsrerrors.ErrCorruptChunk, op, 0, "not a unary opcode")
		return values.Undefined()
	}
}

func (m *VM) typeOf(v values.Value) string {
	switch v.Type {
	case values.TypeUndefined:
		return "undefined"
	case values.TypeNull:
		return "object"
	case values.TypeBool:
		return "boolean"
	case values.TypeNumber:
		return "number"
	case values.TypeBigInt:
		return "bigint"
	case values.TypeString:
		return "string"
	case values.TypeSymbol:
		return "symbol"
	case values.TypeObject:
		if obj := m.derefObject(v.Handle()); obj != nil && obj.Exotic == values.ExoticFunction {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

// looseEquals implements `==` for the pairs the VM actually needs: identical
// types fall back to StrictEquals, null/undefined are mutually (and only
// mutually) equal, and number/string mixes coerce the string side.
func (m *VM) looseEquals(a, b values.Value) bool {
	if a.Type == b.Type {
		return values.StrictEquals(a, b)
	}
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	if a.IsNullish() || b.IsNullish() {
		return false
	}
	if a.Type == values.TypeNumber && b.Type == values.TypeString {
		return a.AsNumber() == m.toNumber(b)
	}
	if a.Type == values.TypeString && b.Type == values.TypeNumber {
		return m.toNumber(a) == b.AsNumber()
	}
	if a.Type == values.TypeBool {
		return m.looseEquals(values.Number(boolToFloat(a.AsBool())), b)
	}
	if b.Type == values.TypeBool {
		return m.looseEquals(a, values.Number(boolToFloat(b.AsBool())))
	}
	return false
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// compare implements the relational operators' ToPrimitive+ToNumber (or
// string-lexicographic, if both operands are strings) algorithm.
func (m *VM) compare(a, b values.Value) int {
	if a.Type == values.TypeString && b.Type == values.TypeString {
		as, bs := a.AsString(), b.AsString()
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	an, bn := m.toNumber(a), m.toNumber(b)
	switch {
	case math.IsNaN(an) || math.IsNaN(bn):
		return 2 // neither < nor > nor == ; callers treating 2 as "not <=" etc. get correct JS NaN behavior
	case an < bn:
		return -1
	case an > bn:
		return 1
	default:
		return 0
	}
}

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(f)))
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(f))
}

// instanceOf implements `instanceof` by walking the candidate's prototype
// chain looking for ctor's `.prototype` object (spec's ordinary
// [[HasInstance]]; Symbol.hasInstance overrides are not yet lowered).
func (m *VM) instanceOf(v, ctor values.Value) bool {
	if v.Type != values.TypeObject || ctor.Type != values.TypeObject {
		return false
	}
	ctorObj := m.derefObject(ctor.Handle())
	if ctorObj == nil || ctorObj.Exotic != values.ExoticFunction {
		panic(tsrerrors.NewGuestError(tsrerrors.KindTypeError, "right-hand side of 'instanceof' is not callable"))
	}
	protoProp, ok := ctorObj.GetOwn(values.StringKey("prototype"))
	if !ok {
		return false
	}
	target := protoProp.Value
	cur := m.derefObject(v.Handle())
	for cur != nil && !cur.NullProto {
		if target.Type == values.TypeObject && cur.Prototype == target.Handle() {
			return true
		}
		cur = m.derefObject(cur.Prototype)
	}
	return false
}
