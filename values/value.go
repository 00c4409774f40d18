// Package values implements the tagged Value union and the Object model
// described in spec.md §3: a JS/TS value is either a primitive carried
// inline or a handle into the GC-managed object arena.
package values

import (
	"math"

	"github.com/tsrun-lang/tsrun/gc"
)

// ValueType tags the kind of value stored in a Value.
type ValueType byte

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBool
	TypeNumber
	TypeBigInt
	TypeString
	TypeSymbol
	TypeObject
)

func (t ValueType) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBool:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeBigInt:
		return "bigint"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the tagged union described in spec §3.1. Only one of the payload
// fields is meaningful at a time, selected by Type; this mirrors the
// teacher's single-interface-field Value but splits the payload into typed
// fields to avoid an interface allocation for the hot primitive cases
// (bool/number/object handle).
type Value struct {
	Type   ValueType
	num    float64
	str    string
	b      bool
	big    *BigInt
	sym    *Symbol
	handle gc.RawHandle
}

// Undefined is the JS `undefined` value.
func Undefined() Value { return Value{Type: TypeUndefined} }

// Null is the JS `null` value.
func Null() Value { return Value{Type: TypeNull} }

// Bool constructs a boolean value.
func Bool(b bool) Value { return Value{Type: TypeBool, b: b} }

// Number constructs a number value (IEEE-754 double).
func Number(f float64) Value { return Value{Type: TypeNumber, num: f} }

// Int is a convenience constructor for integer-valued numbers.
func Int(i int64) Value { return Number(float64(i)) }

// String constructs a string value. Callers are expected to have already
// interned short/identifier-shaped strings via intern.Table; Value itself
// does not intern, it only carries whatever string it is given.
func String(s string) Value { return Value{Type: TypeString, str: s} }

// BigIntValue wraps a BigInt as a Value.
func BigIntValue(b *BigInt) Value { return Value{Type: TypeBigInt, big: b} }

// SymbolValue wraps a Symbol as a Value.
func SymbolValue(s *Symbol) Value { return Value{Type: TypeSymbol, sym: s} }

// Object constructs an object value from a heap handle.
func Object(h gc.RawHandle) Value { return Value{Type: TypeObject, handle: h} }

// AsBool returns the boolean payload; only meaningful when Type == TypeBool.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the float64 payload; only meaningful when Type == TypeNumber.
func (v Value) AsNumber() float64 { return v.num }

// AsString returns the string payload; only meaningful when Type == TypeString.
func (v Value) AsString() string { return v.str }

// AsBigInt returns the BigInt payload; only meaningful when Type == TypeBigInt.
func (v Value) AsBigInt() *BigInt { return v.big }

// AsSymbol returns the Symbol payload; only meaningful when Type == TypeSymbol.
func (v Value) AsSymbol() *Symbol { return v.sym }

// Handle returns the object handle payload; only meaningful when Type == TypeObject.
func (v Value) Handle() gc.RawHandle { return v.handle }

// IsNullish reports whether v is undefined or null (used by the VM's
// nullish-coalescing and optional-chaining opcodes).
func (v Value) IsNullish() bool {
	return v.Type == TypeUndefined || v.Type == TypeNull
}

// ToBoolean implements JS ToBoolean coercion.
func (v Value) ToBoolean() bool {
	switch v.Type {
	case TypeUndefined, TypeNull:
		return false
	case TypeBool:
		return v.b
	case TypeNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case TypeBigInt:
		return v.big != nil && v.big.Sign() != 0
	case TypeString:
		return v.str != ""
	case TypeSymbol, TypeObject:
		return true
	default:
		return false
	}
}

// StrictEquals implements `===`: no coercion, NaN is never equal to anything
// including itself (spec §3.1, §8.1 determinism does not require IEEE total
// order here, only that repeated evaluation agrees).
func StrictEquals(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeUndefined, TypeNull:
		return true
	case TypeBool:
		return a.b == b.b
	case TypeNumber:
		return a.num == b.num
	case TypeBigInt:
		if a.big == nil || b.big == nil {
			return a.big == b.big
		}
		return a.big.Cmp(b.big) == 0
	case TypeString:
		return a.str == b.str
	case TypeSymbol:
		return a.sym == b.sym
	case TypeObject:
		return a.handle == b.handle
	default:
		return false
	}
}
