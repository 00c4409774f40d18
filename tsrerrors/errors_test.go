package tsrerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsrun-lang/tsrun/opcodes"
)

func TestGuestErrorUnwrapMatchesSentinel(t *testing.T) {
	err := NewGuestError(KindTypeError, "cannot read properties of %s", "undefined")
	require.True(t, errors.Is(err, ErrTypeError))
	require.False(t, errors.Is(err, ErrRangeError))
}

func TestGuestErrorWithSpanAndStack(t *testing.T) {
	err := NewGuestError(KindReferenceError, "x is not defined").WithSpan("3:1-3:2").WithStack([]string{"main", "foo"})
	require.Contains(t, err.Error(), "3:1-3:2")
	require.Equal(t, []string{"main", "foo"}, err.Stack)
}

func TestInternalErrorUnwrap(t *testing.T) {
	err := NewInternalError(ErrUnboundRegister, opcodes.OP_ADD, 42, "register %d out of range", 9)
	require.True(t, errors.Is(err, ErrUnboundRegister))
	require.Contains(t, err.Error(), "ip=42")
}
