package vm

import (
	"github.com/tsrun-lang/tsrun/gc"
	"github.com/tsrun-lang/tsrun/tsrerrors"
	"github.com/tsrun-lang/tsrun/values"
)

// Environment objects are ordinary heap objects with Exotic ==
// ExoticEnvironment (spec §4.3's environment-record chain), so they are
// GC-rooted and traced the same way as any other object.

func (m *VM) newEnvironment(outer gc.RawHandle) gc.RawHandle {
	obj := values.NewObject(gc.RawHandle{})
	obj.NullProto = true
	obj.Exotic = values.ExoticEnvironment
	obj.Env = values.NewEnvironmentData(outer)
	h := m.Heap.Alloc(obj)
	return h.Raw
}

func (m *VM) pushScope(outer gc.RawHandle) gc.RawHandle {
	return m.newEnvironment(outer)
}

// popScope returns the enclosing environment, discarding the innermost
// block scope's bindings (they remain reachable only if a closure captured
// this exact Environment object, in which case the GC keeps it alive).
func (m *VM) popScope(env gc.RawHandle) gc.RawHandle {
	e := m.envData(env)
	if e == nil {
		return env
	}
	return e.Outer
}

func (m *VM) envData(h gc.RawHandle) *values.EnvironmentData {
	obj := m.derefObject(h)
	if obj == nil || obj.Exotic != values.ExoticEnvironment {
		return nil
	}
	return obj.Env
}

func (m *VM) declareBinding(env gc.RawHandle, name string, mutable bool) {
	e := m.envData(env)
	if e == nil {
		m.internalErrorf(tsrerrors.ErrCorruptChunk, 0, 0, "declareBinding on non-environment handle")
	}
	e.Bindings[name] = &values.Binding{Mutable: mutable}
}

func (m *VM) initBinding(env gc.RawHandle, name string, v values.Value) {
	e := m.envData(env)
	if e == nil {
		m.internalErrorf(tsrerrors.ErrCorruptChunk, 0, 0, "initBinding on non-environment handle")
	}
	b, ok := e.Bindings[name]
	if !ok {
		b = &values.Binding{Mutable: true}
		e.Bindings[name] = b
	}
	b.Value = v
	b.Initialized = true
}

func (m *VM) assignBinding(env gc.RawHandle, name string, v values.Value) {
	cur := env
	for cur.Valid() {
		e := m.envData(cur)
		if e == nil {
			break
		}
		if b, ok := e.Bindings[name]; ok {
			if !b.Initialized {
				panic(tsrerrors.NewGuestError(tsrerrors.KindReferenceError, "cannot access '%s' before initialization", name))
			}
			if !b.Mutable {
				panic(tsrerrors.NewGuestError(tsrerrors.KindTypeError, "assignment to constant variable '%s'", name))
			}
			b.Value = v
			return
		}
		cur = e.Outer
	}
	// Strict mode: assigning a name bound neither in the chain nor on the
	// global object is a ReferenceError, not an implicit global.
	if _, ok := m.globalObject().GetOwn(values.StringKey(name)); !ok {
		panic(tsrerrors.NewGuestError(tsrerrors.KindReferenceError, "%s is not defined", name))
	}
	m.setGlobal(name, v)
}

func (m *VM) readBinding(env gc.RawHandle, name string) values.Value {
	cur := env
	for cur.Valid() {
		e := m.envData(cur)
		if e == nil {
			break
		}
		if b, ok := e.Bindings[name]; ok {
			if !b.Initialized {
				panic(tsrerrors.NewGuestError(tsrerrors.KindReferenceError, "cannot access '%s' before initialization", name))
			}
			return b.Value
		}
		cur = e.Outer
	}
	return m.getGlobal(name)
}

func (m *VM) getGlobal(name string) values.Value {
	obj := m.globalObject()
	if p, ok := obj.GetOwn(values.StringKey(name)); ok {
		return p.Value
	}
	panic(tsrerrors.NewGuestError(tsrerrors.KindReferenceError, "%s is not defined", name))
}

func (m *VM) setGlobal(name string, v values.Value) {
	obj := m.globalObject()
	obj.DefineOwn(values.StringKey(name), values.DataProperty(v))
}
