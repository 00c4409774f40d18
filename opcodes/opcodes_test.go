package opcodes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpcodeStringKnown(t *testing.T) {
	require.Equal(t, "ADD", OP_ADD.String())
	require.Equal(t, "AWAIT", OP_AWAIT.String())
	require.Equal(t, "CALL_METHOD", OP_CALL_METHOD.String())
}

func TestOpcodeStringUnknownFallsBack(t *testing.T) {
	var bogus Opcode = 250
	require.Contains(t, bogus.String(), "OP_UNKNOWN")
}

func TestInstructionStringIncludesOperands(t *testing.T) {
	inst := Instruction{Op: OP_ADD, A: 1, B: 2, C: 3}
	s := inst.String()
	require.Contains(t, s, "ADD")
	require.Contains(t, s, "A=1")
}

func TestIsSuspensionPoint(t *testing.T) {
	require.True(t, IsSuspensionPoint(OP_YIELD))
	require.True(t, IsSuspensionPoint(OP_AWAIT))
	require.True(t, IsSuspensionPoint(OP_YIELD_STAR))
	require.False(t, IsSuspensionPoint(OP_ADD))
}

func TestOpcodeRangesDoNotCollide(t *testing.T) {
	seen := map[Opcode]string{}
	for op, name := range opcodeNames {
		if other, dup := seen[op]; dup {
			t.Fatalf("opcode value %d used by both %s and %s", op, other, name)
		}
		seen[op] = name
	}
}
