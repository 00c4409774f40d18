package vm

import (
	"github.com/tsrun-lang/tsrun/tsrerrors"
	"github.com/tsrun-lang/tsrun/values"
)

// raise walks the call stack's exception tables looking for a handler for
// e, starting at the throwing frame (spec §4.2 Exceptions: "a per-chunk
// exception table... walked at throw time"). If a handler is found, control
// transfers to its catch or finally PC and dispatch continues (SigNone); if
// none is found anywhere up the stack, the exception escapes to the host
// (SigThrow) and m.ThrownError records it.
func (m *VM) raise(e *tsrerrors.GuestError) Signal {
	e.Stack = m.CallStack.Names()
	for {
		frame := m.CallStack.CurrentFrame()
		if frame == nil {
			m.ThrownError = e
			return SigThrow
		}
		if entry, ok := findHandler(frame); ok {
			if entry.CatchPC >= 0 {
				frame.setReg(entry.CatchRegister, m.errorToValue(e))
				frame.PC = entry.CatchPC
			} else {
				frame.PC = entry.FinallyPC
			}
			return SigNone
		}
		m.CallStack.PopFrame()
	}
}

func findHandler(frame *CallFrame) (entryT, bool) {
	for _, e := range frame.Chunk.Exceptions {
		if frame.PC >= e.TryStart && frame.PC < e.TryEnd {
			if e.CatchPC >= 0 || e.FinallyPC >= 0 {
				return entryT{CatchPC: e.CatchPC, FinallyPC: e.FinallyPC, CatchRegister: e.CatchRegister}, true
			}
		}
	}
	return entryT{}, false
}

type entryT struct {
	CatchPC       int
	FinallyPC     int
	CatchRegister uint32
}

// errorToValue materializes a GuestError as a catchable JS Error object
// instance (name/message/stack own properties), the shape `catch (e)`
// receives.
func (m *VM) errorToValue(e *tsrerrors.GuestError) values.Value {
	obj := m.newPlainObject()
	m.setProperty(obj, values.StringKey("name"), values.String(string(e.Kind)))
	m.setProperty(obj, values.StringKey("message"), values.String(e.Message))
	stackText := e.Message
	for _, frame := range e.Stack {
		stackText += "\n    at " + frame
	}
	m.setProperty(obj, values.StringKey("stack"), values.String(stackText))
	return obj
}

// valueToGuestError implements `throw <value>`: any value can be thrown in
// JS, not just Error instances, so a thrown non-Error value round-trips
// through a GuestError carrying its display string, preserving identity
// loosely (full arbitrary-value throw/rethrow fidelity is not yet lowered —
// see DESIGN.md).
func (m *VM) valueToGuestError(v values.Value) *tsrerrors.GuestError {
	if v.Type == values.TypeObject {
		if obj := m.derefObject(v.Handle()); obj != nil {
			if nameProp, ok := obj.GetOwn(values.StringKey("name")); ok {
				if msgProp, ok2 := obj.GetOwn(values.StringKey("message")); ok2 {
					return tsrerrors.NewGuestError(tsrerrors.GuestKind(m.toJSString(nameProp.Value)), "%s", m.toJSString(msgProp.Value))
				}
			}
		}
	}
	return tsrerrors.NewGuestError(tsrerrors.KindError, "%s", m.toJSString(v))
}
