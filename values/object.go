package values

import (
	"sort"

	"github.com/tsrun-lang/tsrun/gc"
)

// ExoticKind selects the exotic behavior of an Object beyond ordinary
// property storage (spec §3.2).
type ExoticKind byte

const (
	ExoticOrdinary ExoticKind = iota
	ExoticArray
	ExoticFunction
	ExoticMap
	ExoticSet
	ExoticDate
	ExoticRegExp
	ExoticGenerator
	ExoticPromise
	ExoticEnvironment
)

// PropertyKeyKind selects which field of a PropertyKey is meaningful.
type PropertyKeyKind byte

const (
	KeyString PropertyKeyKind = iota
	KeyIndex
	KeySymbol
)

// PropertyKey is either an interned string, a dense array index (fast path),
// or a symbol (spec §3.2).
type PropertyKey struct {
	Kind  PropertyKeyKind
	Str   string
	Index uint32
	Sym   *Symbol
}

// StringKey builds a string-keyed PropertyKey.
func StringKey(s string) PropertyKey { return PropertyKey{Kind: KeyString, Str: s} }

// IndexKey builds a dense-array-index PropertyKey.
func IndexKey(i uint32) PropertyKey { return PropertyKey{Kind: KeyIndex, Index: i} }

// SymKey builds a symbol-keyed PropertyKey.
func SymKey(s *Symbol) PropertyKey { return PropertyKey{Kind: KeySymbol, Sym: s} }

// Property is a full property descriptor (spec §3.2): either a data property
// or an accessor pair, each with the standard writable/enumerable/
// configurable attribute triple.
type Property struct {
	Value        Value
	Get          Value
	Set          Value
	Accessor     bool
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// DataProperty builds a plain writable/enumerable/configurable data property,
// the default produced by ordinary assignment.
func DataProperty(v Value) Property {
	return Property{Value: v, Writable: true, Enumerable: true, Configurable: true}
}

// PrivateKey identifies a class's `#name` private field; one PrivateKey
// instance per declared field per class, shared by every instance. The VM
// does not use these keys at run time: it treats the private-field
// opcodes as no-ops (see DESIGN.md, Open Gaps #4).
type PrivateKey struct {
	Name string
}

// NewPrivateKey allocates a fresh compile-time-unique private field key.
func NewPrivateKey(name string) *PrivateKey { return &PrivateKey{Name: name} }

// HandleTracer is implemented by exotic-variant payloads (generator register
// snapshots, promise reaction closures, compiled function chunks) that hold
// their own references into the object heap but live outside the Property
// map, so Object.Trace can still reach them.
type HandleTracer interface {
	TraceHandles(visit func(gc.RawHandle))
}

// Object is the GC-managed heap object described in spec §3.2. It is the
// element type stored in a gc.Space[*Object].
type Object struct {
	Prototype  gc.RawHandle
	NullProto  bool
	Extensible bool
	Frozen     bool
	Sealed     bool

	indexProps map[uint32]*Property
	indexOrder []uint32 // kept sorted ascending

	strProps map[string]*Property
	strOrder []string // insertion order

	symProps map[*Symbol]*Property
	symOrder []*Symbol

	private map[*PrivateKey]Value

	Exotic     ExoticKind
	Array      *ArrayData
	Function   *FunctionData
	MapData    *MapData
	SetData    *SetData
	Date       *DateData
	RegExp     *RegExpData
	Generator  *GeneratorData
	Promise    *PromiseData
	Env        *EnvironmentData
}

// NewObject constructs an ordinary object with the given prototype.
func NewObject(proto gc.RawHandle) *Object {
	return &Object{
		Prototype:  proto,
		Extensible: true,
		indexProps: make(map[uint32]*Property),
		strProps:   make(map[string]*Property),
		symProps:   make(map[*Symbol]*Property),
	}
}

// NewNullProtoObject constructs an object with no prototype (Object.create(null)).
func NewNullProtoObject() *Object {
	o := NewObject(gc.RawHandle{})
	o.NullProto = true
	return o
}

// GetOwn returns the own property at key, if present.
func (o *Object) GetOwn(key PropertyKey) (*Property, bool) {
	switch key.Kind {
	case KeyIndex:
		p, ok := o.indexProps[key.Index]
		return p, ok
	case KeyString:
		p, ok := o.strProps[key.Str]
		return p, ok
	case KeySymbol:
		p, ok := o.symProps[key.Sym]
		return p, ok
	default:
		return nil, false
	}
}

// DefineOwn creates or replaces the own property at key. It enforces the
// object-model invariants from spec §4.5: frozen objects reject any
// mutation; sealed objects reject new keys; non-configurable/non-writable
// existing data properties reject silent overwrite by the caller's policy
// (the VM decides whether that is a silent no-op or a TypeError per strict
// mode; DefineOwn itself just reports ok=false on a would-be violation so
// the VM can pick).
func (o *Object) DefineOwn(key PropertyKey, prop Property) bool {
	existing, has := o.GetOwn(key)
	if !has {
		if !o.Extensible || o.Sealed || o.Frozen {
			return false
		}
	} else if o.Frozen || (existing.Configurable == false && !prop.Configurable && !propertiesCompatible(*existing, prop)) {
		return false
	}

	switch key.Kind {
	case KeyIndex:
		if _, exists := o.indexProps[key.Index]; !exists {
			o.insertIndexOrdered(key.Index)
		}
		o.indexProps[key.Index] = &prop
		if o.Exotic == ExoticArray && o.Array != nil && key.Index+1 > o.Array.Length {
			o.Array.Length = key.Index + 1
		}
	case KeyString:
		if _, exists := o.strProps[key.Str]; !exists {
			o.strOrder = append(o.strOrder, key.Str)
		}
		o.strProps[key.Str] = &prop
	case KeySymbol:
		if _, exists := o.symProps[key.Sym]; !exists {
			o.symOrder = append(o.symOrder, key.Sym)
		}
		o.symProps[key.Sym] = &prop
	}
	return true
}

func propertiesCompatible(a, b Property) bool {
	return a.Value == b.Value && a.Writable == b.Writable
}

func (o *Object) insertIndexOrdered(idx uint32) {
	i := sort.Search(len(o.indexOrder), func(i int) bool { return o.indexOrder[i] >= idx })
	o.indexOrder = append(o.indexOrder, 0)
	copy(o.indexOrder[i+1:], o.indexOrder[i:])
	o.indexOrder[i] = idx
}

// Delete removes an own property. Returns false if the property is
// non-configurable (spec §4.5).
func (o *Object) Delete(key PropertyKey) bool {
	prop, ok := o.GetOwn(key)
	if !ok {
		return true
	}
	if !prop.Configurable {
		return false
	}
	switch key.Kind {
	case KeyIndex:
		delete(o.indexProps, key.Index)
		o.indexOrder = removeUint32(o.indexOrder, key.Index)
		if o.Exotic == ExoticArray && o.Array != nil {
			o.Array.recomputeLength(o)
		}
	case KeyString:
		delete(o.strProps, key.Str)
		o.strOrder = removeString(o.strOrder, key.Str)
	case KeySymbol:
		delete(o.symProps, key.Sym)
		o.symOrder = removeSymbol(o.symOrder, key.Sym)
	}
	return true
}

// OwnKeys returns own property keys in spec §3.2 / §4.5 order: ascending
// integer keys, then string keys in insertion order, then symbol keys in
// insertion order.
func (o *Object) OwnKeys() []PropertyKey {
	keys := make([]PropertyKey, 0, len(o.indexOrder)+len(o.strOrder)+len(o.symOrder))
	for _, idx := range o.indexOrder {
		keys = append(keys, IndexKey(idx))
	}
	for _, s := range o.strOrder {
		keys = append(keys, StringKey(s))
	}
	for _, sym := range o.symOrder {
		keys = append(keys, SymKey(sym))
	}
	return keys
}

// GetPrivate reads a private field. It performs no access control, and no
// caller in the VM checks that access comes from the declaring class.
func (o *Object) GetPrivate(k *PrivateKey) (Value, bool) {
	if o.private == nil {
		return Value{}, false
	}
	v, ok := o.private[k]
	return v, ok
}

// DefinePrivate installs a private field slot (called once, at instance
// construction time, for every private field the class declares).
func (o *Object) DefinePrivate(k *PrivateKey, v Value) {
	if o.private == nil {
		o.private = make(map[*PrivateKey]Value)
	}
	o.private[k] = v
}

// SetPrivate overwrites an already-defined private field.
func (o *Object) SetPrivate(k *PrivateKey, v Value) bool {
	if o.private == nil {
		return false
	}
	if _, ok := o.private[k]; !ok {
		return false
	}
	o.private[k] = v
	return true
}

// Trace implements gc.Traceable.
func (o *Object) Trace(visit func(gc.RawHandle)) {
	if !o.NullProto {
		visit(o.Prototype)
	}
	for _, p := range o.indexProps {
		traceProperty(p, visit)
	}
	for _, p := range o.strProps {
		traceProperty(p, visit)
	}
	for _, p := range o.symProps {
		traceProperty(p, visit)
	}
	for _, v := range o.private {
		if v.Type == TypeObject {
			visit(v.Handle())
		}
	}

	switch o.Exotic {
	case ExoticFunction:
		if o.Function != nil {
			visit(o.Function.Env)
			visit(o.Function.BoundTarget)
			if o.Function.BoundThis.Type == TypeObject {
				visit(o.Function.BoundThis.Handle())
			}
			for _, a := range o.Function.BoundArgs {
				if a.Type == TypeObject {
					visit(a.Handle())
				}
			}
			if t, ok := o.Function.Chunk.(HandleTracer); ok && t != nil {
				t.TraceHandles(visit)
			}
		}
	case ExoticMap:
		if o.MapData != nil {
			o.MapData.trace(visit)
		}
	case ExoticSet:
		if o.SetData != nil {
			o.SetData.trace(visit)
		}
	case ExoticGenerator:
		if o.Generator != nil {
			if t, ok := o.Generator.Snapshot.(HandleTracer); ok && t != nil {
				t.TraceHandles(visit)
			}
		}
	case ExoticPromise:
		if o.Promise != nil {
			if o.Promise.Result.Type == TypeObject {
				visit(o.Promise.Result.Handle())
			}
			for _, h := range o.Promise.Reactions {
				if t, ok := h.(HandleTracer); ok && t != nil {
					t.TraceHandles(visit)
				}
			}
		}
	case ExoticEnvironment:
		if o.Env != nil {
			visit(o.Env.Outer)
			for _, b := range o.Env.Bindings {
				if b.Value.Type == TypeObject {
					visit(b.Value.Handle())
				}
			}
		}
	}
}

func traceProperty(p *Property, visit func(gc.RawHandle)) {
	if p == nil {
		return
	}
	if p.Accessor {
		if p.Get.Type == TypeObject {
			visit(p.Get.Handle())
		}
		if p.Set.Type == TypeObject {
			visit(p.Set.Handle())
		}
		return
	}
	if p.Value.Type == TypeObject {
		visit(p.Value.Handle())
	}
}

func removeUint32(s []uint32, v uint32) []uint32 {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func removeSymbol(s []*Symbol, v *Symbol) []*Symbol {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
