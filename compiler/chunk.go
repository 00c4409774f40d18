// Package compiler lowers the AST (spec §3.3, §4.1) into register bytecode
// chunks the vm package dispatches. It keeps the teacher's
// ExecutionContext/CallStackManager manager-struct idiom, applied here at
// compile time as Compiler/scope, and its grouped-iota opcode table from
// opcodes, but targets JS/TS semantics end to end.
package compiler

import (
	"fmt"
	"strings"

	"github.com/tsrun-lang/tsrun/ast"
	"github.com/tsrun-lang/tsrun/opcodes"
	"github.com/tsrun-lang/tsrun/values"
)

// ParamDescriptor documents one declared parameter for arity/rest-param
// handling at call time.
type ParamDescriptor struct {
	Name       string
	HasDefault bool
	IsRest     bool
}

// ExceptionEntry is one row of a chunk's exception table (spec §4.1
// Errors): [TryStart, TryEnd) is protected by CatchPC (or none, if
// CatchPC < 0) and FinallyPC (or none, if FinallyPC < 0).
type ExceptionEntry struct {
	TryStart, TryEnd int
	CatchPC          int
	FinallyPC        int
	CatchRegister    uint32 // register the thrown value is stored into, for CatchPC
}

// SuspensionPoint records a generator/async suspension site and the
// registers live across it, so the VM can snapshot only what's needed
// (spec §4.1: "pre-computes which registers are live across each
// suspension point").
type SuspensionPoint struct {
	PC           int
	LiveRegisters []uint32
}

// Chunk is one compiled function (or the top-level module/script body).
type Chunk struct {
	Name         string
	Instructions []opcodes.Instruction
	Spans        []ast.Span // parallel to Instructions, for error reporting
	Constants    []values.Value
	NumRegisters int
	Params       []ParamDescriptor
	IsGenerator  bool
	IsAsync      bool
	Exceptions   []ExceptionEntry
	Suspensions  []SuspensionPoint
	// Children holds nested function/closure chunks, referenced from
	// OP_CLOSURE's Imm as an index into this slice.
	Children []*Chunk
}

func (c *Chunk) addConstant(v values.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Disassemble renders a chunk (and its nested children, recursively) as
// human-readable text, in the teacher's opcode-table disassembler style.
func Disassemble(c *Chunk) string {
	var b strings.Builder
	disassemble(&b, c, 0)
	return b.String()
}

func disassemble(b *strings.Builder, c *Chunk, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%schunk %s (regs=%d params=%d generator=%v async=%v)\n",
		indent, c.Name, c.NumRegisters, len(c.Params), c.IsGenerator, c.IsAsync)
	for i, inst := range c.Instructions {
		fmt.Fprintf(b, "%s  %04d  %s\n", indent, i, inst.String())
	}
	if len(c.Exceptions) > 0 {
		fmt.Fprintf(b, "%s  exception table:\n", indent)
		for _, e := range c.Exceptions {
			fmt.Fprintf(b, "%s    try[%d,%d) catch=%d finally=%d\n", indent, e.TryStart, e.TryEnd, e.CatchPC, e.FinallyPC)
		}
	}
	for _, child := range c.Children {
		disassemble(b, child, depth+1)
	}
}
