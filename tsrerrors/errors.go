// Package tsrerrors implements the error taxonomy described in spec §7:
// guest-visible exceptions that participate in try/catch, and internal
// errors that abort a step without ever panicking the host process. The
// split and the wrap/unwrap shape follow vm.VMError/ErrorType in the
// teacher repo, generalized from PHP exception kinds to JS error kinds.
package tsrerrors

import (
	"errors"
	"fmt"

	"github.com/tsrun-lang/tsrun/opcodes"
)

// GuestKind names the JS error constructor a GuestError corresponds to.
type GuestKind string

const (
	KindError         GuestKind = "Error"
	KindTypeError      GuestKind = "TypeError"
	KindRangeError     GuestKind = "RangeError"
	KindReferenceError GuestKind = "ReferenceError"
	KindSyntaxError    GuestKind = "SyntaxError"
	KindEvalError      GuestKind = "EvalError"
	KindURIError       GuestKind = "URIError"
)

// Sentinel base errors, mirrored after the teacher's grouped Err* vars, so
// callers can errors.Is against a stable identity regardless of message text.
var (
	ErrTypeError      = errors.New("type error")
	ErrRangeError     = errors.New("range error")
	ErrReferenceError = errors.New("reference error")
	ErrSyntaxError    = errors.New("syntax error")

	ErrUnboundRegister  = errors.New("unbound register")
	ErrCorruptChunk     = errors.New("corrupted bytecode chunk")
	ErrStaleHandle      = errors.New("stale GC handle")
	ErrCallStackEmpty   = errors.New("call stack is empty")
	ErrTimeout          = errors.New("execution timed out")
	ErrAsyncGeneratorUnsupported = errors.New("async generator functions are not supported")
)

// GuestError is a JS-visible thrown value: it participates in the
// exception table walk and is observable by guest `catch` clauses (spec
// §4.2 Exceptions).
type GuestError struct {
	Kind    GuestKind
	Message string
	Op      opcodes.Opcode
	Span    string // source span rendered as text, e.g. "12:4-12:19"
	Stack   []string
}

func (e *GuestError) Error() string {
	if e.Span != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Span)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GuestError) Unwrap() error {
	switch e.Kind {
	case KindTypeError:
		return ErrTypeError
	case KindRangeError:
		return ErrRangeError
	case KindReferenceError:
		return ErrReferenceError
	case KindSyntaxError:
		return ErrSyntaxError
	default:
		return nil
	}
}

// NewGuestError builds a GuestError with a formatted message.
func NewGuestError(kind GuestKind, format string, args ...interface{}) *GuestError {
	return &GuestError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithSpan attaches a source span and returns the same error for chaining.
func (e *GuestError) WithSpan(span string) *GuestError {
	e.Span = span
	return e
}

// WithStack attaches a call-stack trace (function names, outermost first).
func (e *GuestError) WithStack(frames []string) *GuestError {
	e.Stack = frames
	return e
}

// InternalError represents a host-side invariant violation — corrupted
// bytecode, an out-of-range register, a stale GC handle reached without a
// guard. It is never a guest-catchable exception; it aborts the current
// step and is surfaced to the host as an Error step result (spec §4.2
// Failure semantics).
type InternalError struct {
	Cause   error
	Message string
	Op      opcodes.Opcode
	IP      int
	SessionID string
}

func (e *InternalError) Error() string {
	where := ""
	if e.SessionID != "" {
		where = fmt.Sprintf(" [session %s]", e.SessionID)
	}
	if e.Message != "" {
		return fmt.Sprintf("internal error%s at ip=%d (%s): %s: %s", where, e.IP, e.Op, e.Cause, e.Message)
	}
	return fmt.Sprintf("internal error%s at ip=%d (%s): %s", where, e.IP, e.Op, e.Cause)
}

func (e *InternalError) Unwrap() error { return e.Cause }

func (e *InternalError) Is(target error) bool { return errors.Is(e.Cause, target) }

// NewInternalError builds an InternalError wrapping a sentinel cause.
func NewInternalError(cause error, op opcodes.Opcode, ip int, format string, args ...interface{}) *InternalError {
	return &InternalError{Cause: cause, Op: op, IP: ip, Message: fmt.Sprintf(format, args...)}
}
