package values

import "github.com/tsrun-lang/tsrun/gc"

// ArrayData is the exotic-variant payload for Array instances. Elements
// themselves live in the owning Object's indexProps, keyed by IndexKey;
// ArrayData only tracks the `length` invariant (spec §3.2: length is always
// 1 + the largest own integer index, or 0 for an empty array).
type ArrayData struct {
	Length uint32
}

func (a *ArrayData) recomputeLength(o *Object) {
	if len(o.indexOrder) == 0 {
		a.Length = 0
		return
	}
	a.Length = o.indexOrder[len(o.indexOrder)-1] + 1
}

// FunctionKind distinguishes the ways a Function exotic object can be
// callable.
type FunctionKind byte

const (
	FuncInterpreted FunctionKind = iota
	FuncNative
	FuncBound
)

// NativeFunc is the Go-side implementation of a native (builtin or
// host-registered) function. this/args follow JS call conventions; a
// returned error is translated to a thrown guest exception by the VM.
type NativeFunc func(this Value, args []Value) (Value, error)

// FunctionData is the exotic-variant payload for Function instances.
//
// Chunk is typed interface{} rather than *compiler.Chunk because compiler
// imports values (for constant-pool Values) and values must not import
// compiler back; the VM, which imports both, type-asserts it to
// *compiler.Chunk before dispatch. This mirrors the teacher's own use of
// interface{}-typed function-pointer fields in its registry records.
type FunctionData struct {
	Kind FunctionKind
	Name string

	Chunk      interface{}
	Env        gc.RawHandle
	ParamCount int
	IsGenerator bool
	IsAsync     bool

	Native NativeFunc

	BoundTarget gc.RawHandle
	BoundThis   Value
	BoundArgs   []Value
}

// mapEntry is one live key/value pair of a Map, kept in insertion order
// (spec requires Map/Set iteration in insertion order, same as property
// iteration).
type mapEntry struct {
	key Value
	val Value
}

// MapData is the exotic-variant payload for Map instances.
type MapData struct {
	entries []mapEntry
	index   map[sameValueZeroKey]int
}

// NewMapData constructs an empty Map payload.
func NewMapData() *MapData {
	return &MapData{index: make(map[sameValueZeroKey]int)}
}

// Get reads a Map entry using SameValueZero key comparison.
func (m *MapData) Get(key Value) (Value, bool) {
	i, ok := m.index[sameValueZeroOf(key)]
	if !ok {
		return Value{}, false
	}
	return m.entries[i].val, true
}

// Set inserts or updates a Map entry, preserving insertion order on update.
func (m *MapData) Set(key, val Value) {
	k := sameValueZeroOf(key)
	if i, ok := m.index[k]; ok {
		m.entries[i].val = val
		return
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: key, val: val})
}

// Delete removes a Map entry, if present.
func (m *MapData) Delete(key Value) bool {
	k := sameValueZeroOf(key)
	i, ok := m.index[k]
	if !ok {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, k)
	for kk, idx := range m.index {
		if idx > i {
			m.index[kk] = idx - 1
		}
	}
	return true
}

// Size returns the number of live entries.
func (m *MapData) Size() int { return len(m.entries) }

// Entries returns the live entries in insertion order.
func (m *MapData) Entries() []struct{ Key, Val Value } {
	out := make([]struct{ Key, Val Value }, len(m.entries))
	for i, e := range m.entries {
		out[i] = struct{ Key, Val Value }{e.key, e.val}
	}
	return out
}

func (m *MapData) trace(visit func(gc.RawHandle)) {
	for _, e := range m.entries {
		if e.key.Type == TypeObject {
			visit(e.key.Handle())
		}
		if e.val.Type == TypeObject {
			visit(e.val.Handle())
		}
	}
}

// SetData is the exotic-variant payload for Set instances.
type SetData struct {
	values []Value
	index  map[sameValueZeroKey]int
}

// NewSetData constructs an empty Set payload.
func NewSetData() *SetData {
	return &SetData{index: make(map[sameValueZeroKey]int)}
}

// Add inserts v if not already present; returns whether it was added.
func (s *SetData) Add(v Value) bool {
	k := sameValueZeroOf(v)
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.values)
	s.values = append(s.values, v)
	return true
}

// Has reports whether v is a member.
func (s *SetData) Has(v Value) bool {
	_, ok := s.index[sameValueZeroOf(v)]
	return ok
}

// Delete removes v, if present.
func (s *SetData) Delete(v Value) bool {
	k := sameValueZeroOf(v)
	i, ok := s.index[k]
	if !ok {
		return false
	}
	s.values = append(s.values[:i], s.values[i+1:]...)
	delete(s.index, k)
	for kk, idx := range s.index {
		if idx > i {
			s.index[kk] = idx - 1
		}
	}
	return true
}

// Size returns the number of members.
func (s *SetData) Size() int { return len(s.values) }

// Values returns the members in insertion order.
func (s *SetData) Values() []Value {
	out := make([]Value, len(s.values))
	copy(out, s.values)
	return out
}

func (s *SetData) trace(visit func(gc.RawHandle)) {
	for _, v := range s.values {
		if v.Type == TypeObject {
			visit(v.Handle())
		}
	}
}

// sameValueZeroKey is a comparable key usable in a Go map that implements
// JS's SameValueZero (used by Map/Set membership: like ===, but NaN equals
// NaN and +0 equals -0).
type sameValueZeroKey struct {
	typ    ValueType
	num    float64
	str    string
	b      bool
	ptr    interface{}
	handle gc.RawHandle
}

func sameValueZeroOf(v Value) sameValueZeroKey {
	k := sameValueZeroKey{typ: v.Type}
	switch v.Type {
	case TypeNumber:
		n := v.num
		if n != n {
			k.str = "NaN" // every NaN maps to the same key
			n = 0
		} else if n == 0 {
			n = 0 // normalize -0 to +0
		}
		k.num = n
	case TypeBool:
		k.b = v.b
	case TypeString:
		k.str = v.str
	case TypeBigInt:
		if v.big != nil {
			k.str = v.big.String()
		}
	case TypeSymbol:
		k.ptr = v.sym
	case TypeObject:
		k.handle = v.handle
	}
	return k
}

// DateData is the exotic-variant payload for Date instances: milliseconds
// since the epoch, or NaN for an Invalid Date.
type DateData struct {
	Millis float64
}

// RegExpData is the exotic-variant payload for RegExp instances. Compiled
// is a provider-specific compiled-pattern handle (spec §9's RegExp provider
// interface decision); the VM's regexp provider type-asserts it back.
type RegExpData struct {
	Source     string
	Flags      string
	LastIndex  int
	Compiled   interface{}
}

// GeneratorState tracks a generator/async-generator's suspension state
// (spec §4.3, §6).
type GeneratorState byte

const (
	GeneratorSuspendedStart GeneratorState = iota
	GeneratorSuspendedYield
	GeneratorExecuting
	GeneratorCompleted
)

// GeneratorData is the exotic-variant payload for Generator instances.
// Snapshot is the VM's own resumable-frame type (register file, PC, call
// stack fragment); kept as interface{} here to avoid a values->vm import
// cycle, same rationale as FunctionData.Chunk.
type GeneratorData struct {
	State    GeneratorState
	Snapshot interface{}
}

// PromiseState is the standard pending/fulfilled/rejected tri-state.
type PromiseState byte

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

// PromiseData is the exotic-variant payload for Promise instances.
// Reactions holds opaque (VM-defined) reaction-job closures queued by
// .then/.catch/.finally before settlement; OrderID links a still-pending
// promise to the host order that will settle it (spec §4.4), 0 if none.
type PromiseData struct {
	State     PromiseState
	Result    Value
	Reactions []interface{}
	OrderID   uint64
}

// Binding is one lexical binding slot inside an Environment (spec §4.3's
// environment-record chain).
type Binding struct {
	Value       Value
	Mutable     bool
	Initialized bool
}

// EnvironmentData is the exotic-variant payload for Environment objects,
// the runtime representation of a lexical scope / closure frame.
type EnvironmentData struct {
	Outer    gc.RawHandle
	Bindings map[string]*Binding
}

// NewEnvironmentData constructs an empty environment chained to outer.
func NewEnvironmentData(outer gc.RawHandle) *EnvironmentData {
	return &EnvironmentData{Outer: outer, Bindings: make(map[string]*Binding)}
}
