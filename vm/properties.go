package vm

import (
	"github.com/tsrun-lang/tsrun/gc"
	"github.com/tsrun-lang/tsrun/tsrerrors"
	"github.com/tsrun-lang/tsrun/values"
)

func (m *VM) derefObject(h gc.RawHandle) *values.Object {
	if !h.Valid() {
		return nil
	}
	obj, ok := m.Heap.Deref(gc.Handle[*values.Object]{Raw: h})
	if !ok {
		return nil
	}
	return obj
}

func (m *VM) toPropertyKey(v values.Value) values.PropertyKey {
	if v.Type == values.TypeSymbol {
		return values.SymKey(v.AsSymbol())
	}
	if v.Type == values.TypeNumber {
		n := v.AsNumber()
		if n >= 0 && n == float64(uint32(n)) {
			return values.IndexKey(uint32(n))
		}
	}
	return values.StringKey(m.toJSString(v))
}

// getProperty implements spec §4.2's "Property access": a prototype-chain
// walk with accessor invocation, stopping at the first object in the chain
// that owns the key.
func (m *VM) getProperty(recv values.Value, key values.PropertyKey) values.Value {
	if recv.IsNullish() {
		panic(tsrerrors.NewGuestError(tsrerrors.KindTypeError, "cannot read properties of %s (reading '%s')", m.typeOf(recv), keyText(key)))
	}
	if recv.Type != values.TypeObject {
		return values.Undefined() // primitive boxing/prototypes not yet lowered
	}
	cur := m.derefObject(recv.Handle())
	for cur != nil {
		if prop, ok := cur.GetOwn(key); ok {
			if prop.Accessor {
				if prop.Get.Type != values.TypeObject {
					return values.Undefined()
				}
				v, gerr := m.invokeSync(recv, prop.Get, nil)
				if gerr != nil {
					panic(gerr)
				}
				return v
			}
			return prop.Value
		}
		if cur.NullProto {
			break
		}
		cur = m.derefObject(cur.Prototype)
	}
	if key.Kind == values.KeyString && key.Str == "length" {
		if arr := m.derefObject(recv.Handle()); arr != nil && arr.Exotic == values.ExoticArray {
			return values.Number(float64(arr.Array.Length))
		}
	}
	return values.Undefined()
}

func (m *VM) setProperty(recv values.Value, key values.PropertyKey, val values.Value) {
	if recv.Type != values.TypeObject {
		return
	}
	obj := m.derefObject(recv.Handle())
	if obj == nil {
		m.internalErrorf(tsrerrors.ErrStaleHandle, 0, 0, "setProperty on stale handle")
	}
	if existing, ok := obj.GetOwn(key); ok && existing.Accessor {
		if existing.Set.Type == values.TypeObject {
			if _, gerr := m.invokeSync(recv, existing.Set, []values.Value{val}); gerr != nil {
				panic(gerr)
			}
		}
		return
	}
	obj.DefineOwn(key, values.DataProperty(val))
}

func (m *VM) deleteProperty(recv values.Value, key values.PropertyKey) bool {
	if recv.Type != values.TypeObject {
		return true
	}
	obj := m.derefObject(recv.Handle())
	if obj == nil {
		return true
	}
	return obj.Delete(key)
}

func (m *VM) hasProperty(recv values.Value, key values.PropertyKey) bool {
	if recv.Type != values.TypeObject {
		return false
	}
	cur := m.derefObject(recv.Handle())
	for cur != nil {
		if _, ok := cur.GetOwn(key); ok {
			return true
		}
		if cur.NullProto {
			return false
		}
		cur = m.derefObject(cur.Prototype)
	}
	return false
}

func keyText(key values.PropertyKey) string {
	switch key.Kind {
	case values.KeyString:
		return key.Str
	case values.KeySymbol:
		return key.Sym.Description
	default:
		return ""
	}
}

func (m *VM) newPlainObject() values.Value {
	obj := values.NewObject(gc.RawHandle{})
	h := m.Heap.Alloc(obj)
	return values.Object(h.Raw)
}

func (m *VM) newArray(elems []values.Value) values.Value {
	obj := values.NewObject(gc.RawHandle{})
	obj.Exotic = values.ExoticArray
	obj.Array = &values.ArrayData{}
	h := m.Heap.Alloc(obj)
	for i, e := range elems {
		obj.DefineOwn(values.IndexKey(uint32(i)), values.DataProperty(e))
	}
	return values.Object(h.Raw)
}

func (m *VM) arrayPush(arr, v values.Value) {
	if arr.Type != values.TypeObject {
		return
	}
	obj := m.derefObject(arr.Handle())
	if obj == nil || obj.Exotic != values.ExoticArray {
		return
	}
	idx := obj.Array.Length
	obj.DefineOwn(values.IndexKey(idx), values.DataProperty(v))
}

func (m *VM) objectToString(v values.Value) string {
	obj := m.derefObject(v.Handle())
	if obj == nil {
		return "[object Object]"
	}
	switch obj.Exotic {
	case values.ExoticArray:
		parts := make([]string, 0, obj.Array.Length)
		for i := uint32(0); i < obj.Array.Length; i++ {
			if p, ok := obj.GetOwn(values.IndexKey(i)); ok {
				parts = append(parts, m.toJSString(p.Value))
			} else {
				parts = append(parts, "")
			}
		}
		return joinComma(parts)
	case values.ExoticFunction:
		name := obj.Function.Name
		return "function " + name + "() { [native code] }"
	default:
		return "[object Object]"
	}
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}

// getIterator returns the iterator object a for-of/for-in loop walks.
// Arrays get a built-in index-cursor iterator object; any other object is
// returned unchanged and its Symbol.iterator method is not called. iterNext
// only advances objects carrying that cursor state, so any other object
// iterates as already exhausted.
func (m *VM) getIterator(v values.Value) values.Value {
	if v.Type != values.TypeObject {
		panic(tsrerrors.NewGuestError(tsrerrors.KindTypeError, "value is not iterable"))
	}
	obj := m.derefObject(v.Handle())
	if obj != nil && obj.Exotic == values.ExoticArray {
		iter := values.NewObject(gc.RawHandle{})
		iter.DefineOwn(values.StringKey("__cursor"), values.DataProperty(values.Number(0)))
		iter.DefineOwn(values.StringKey("__target"), values.DataProperty(v))
		h := m.Heap.Alloc(iter)
		return values.Object(h.Raw)
	}
	return v
}

func (m *VM) iterNext(iter values.Value) (done bool, val values.Value) {
	obj := m.derefObject(iter.Handle())
	if obj == nil {
		return true, values.Undefined()
	}
	cursorProp, _ := obj.GetOwn(values.StringKey("__cursor"))
	targetProp, hasTarget := obj.GetOwn(values.StringKey("__target"))
	if !hasTarget {
		return true, values.Undefined()
	}
	idx := uint32(cursorProp.Value.AsNumber())
	targetObj := m.derefObject(targetProp.Value.Handle())
	if targetObj == nil || idx >= targetObj.Array.Length {
		return true, values.Undefined()
	}
	obj.DefineOwn(values.StringKey("__cursor"), values.DataProperty(values.Number(float64(idx+1))))
	p, _ := targetObj.GetOwn(values.IndexKey(idx))
	return false, p.Value
}

// forInKeys returns an array of the receiver's own enumerable string keys,
// walking the prototype chain (spec's for-in semantics), as an array value
// for the compiler's emitted enumeration loop to walk.
func (m *VM) forInKeys(v values.Value) values.Value {
	if v.Type != values.TypeObject {
		return m.newArray(nil)
	}
	seen := map[string]bool{}
	var out []values.Value
	cur := m.derefObject(v.Handle())
	for cur != nil {
		for _, k := range cur.OwnKeys() {
			if k.Kind != values.KeyString && k.Kind != values.KeyIndex {
				continue
			}
			text := keyText(k)
			if k.Kind == values.KeyIndex {
				text = formatNumber(float64(k.Index))
			}
			if seen[text] {
				continue
			}
			seen[text] = true
			if p, ok := cur.GetOwn(k); ok && p.Enumerable {
				out = append(out, values.String(text))
			}
		}
		if cur.NullProto {
			break
		}
		cur = m.derefObject(cur.Prototype)
	}
	return m.newArray(out)
}
