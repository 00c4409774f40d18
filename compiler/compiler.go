package compiler

import (
	"fmt"

	"github.com/tsrun-lang/tsrun/ast"
	"github.com/tsrun-lang/tsrun/opcodes"
	"github.com/tsrun-lang/tsrun/values"
)

// scope tracks register allocation and lexical bindings for one function
// body, chained to its enclosing function's scope for closure capture
// (spec §3.5 Environment).
type scope struct {
	parent   *scope
	locals   map[string]uint32 // name -> register, for the common fast-path case
	nextReg  uint32
	loopExit []int // pc patch-list for `break` at the current loop depth
	loopCont []int // pc patch-list for `continue`
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, locals: make(map[string]uint32)}
}

func (s *scope) alloc() uint32 {
	r := s.nextReg
	s.nextReg++
	return r
}

// Compiler lowers one Program or function body into a Chunk at a time.
type Compiler struct {
	chunk *Chunk
	sc    *scope

	// privateFields maps a class's `#name` field to a compile-time-unique
	// key object, resolving the Open Question on private-field identity
	// (see DESIGN.md).
	privateFields map[string]*values.PrivateKey
}

// NewCompiler constructs a fresh compiler instance. One Compiler compiles
// exactly one Program; nested functions are compiled by the same Compiler,
// which swaps in a fresh chunk and scope for the duration of each body, so
// the privateFields table is shared by every method of a class.
func NewCompiler() *Compiler {
	return &Compiler{privateFields: make(map[string]*values.PrivateKey)}
}

// Compile lowers a Program to its top-level Chunk.
func (c *Compiler) Compile(prog *ast.Program) (chunk *Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(compileError); ok {
				err = ce.err
				return
			}
			panic(r)
		}
	}()

	c.chunk = &Chunk{Name: "<module>"}
	c.sc = newScope(nil)

	// The script completes with the value of its last top-level expression
	// statement (undefined if it has none).
	var result uint32
	hasResult := false
	for _, stmt := range prog.Body {
		if es, ok := stmt.(*ast.ExpressionStatement); ok {
			r := c.compileExpression(es.Expression)
			if !hasResult {
				result, hasResult = c.sc.alloc(), true
			}
			c.emit(opcodes.OP_MOVE, result, r, 0, 0, es.Span())
			continue
		}
		c.compileStatement(stmt)
	}
	if hasResult {
		c.emit(opcodes.OP_RETURN, 0, result, 0, 0, ast.Span{})
	} else {
		c.emit(opcodes.OP_RETURN_UNDEFINED, 0, 0, 0, 0, ast.Span{})
	}
	c.chunk.NumRegisters = int(c.sc.nextReg)
	return c.chunk, nil
}

// compileError unwinds the recursive descent on the first unsupported or
// invalid construct, carrying a tsrerrors-shaped SyntaxError message.
// Compile recovers it and returns the wrapped error as a plain Go error;
// it is not converted into a *tsrerrors.GuestError.
type compileError struct{ err error }

func (c *Compiler) fail(span ast.Span, format string, args ...interface{}) {
	panic(compileError{err: fmt.Errorf("SyntaxError at %s: %s", span.String(), fmt.Sprintf(format, args...))})
}

func (c *Compiler) emit(op opcodes.Opcode, a, b, c2 uint32, imm int32, span ast.Span) int {
	c.chunk.Instructions = append(c.chunk.Instructions, opcodes.Instruction{Op: op, A: a, B: b, C: c2, Imm: imm})
	c.chunk.Spans = append(c.chunk.Spans, span)
	return len(c.chunk.Instructions) - 1
}

func (c *Compiler) patchJump(at int, target int) {
	c.chunk.Instructions[at].Imm = int32(target - at)
}

func (c *Compiler) here() int { return len(c.chunk.Instructions) }

// --- statements ---

func (c *Compiler) compileStatement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		c.compileExpression(n.Expression)
	case *ast.VarDeclaration:
		c.compileVarDeclaration(n)
	case *ast.BlockStatement:
		c.emit(opcodes.OP_PUSH_SCOPE, 0, 0, 0, 0, n.Span())
		for _, st := range n.Body {
			c.compileStatement(st)
		}
		c.emit(opcodes.OP_POP_SCOPE, 0, 0, 0, 0, n.Span())
	case *ast.IfStatement:
		c.compileIf(n)
	case *ast.WhileStatement:
		c.compileWhile(n)
	case *ast.DoWhileStatement:
		c.compileDoWhile(n)
	case *ast.ForStatement:
		c.compileFor(n)
	case *ast.ForOfStatement:
		c.compileForOf(n)
	case *ast.ForInStatement:
		c.compileForIn(n)
	case *ast.ReturnStatement:
		if n.Argument == nil {
			c.emit(opcodes.OP_RETURN_UNDEFINED, 0, 0, 0, 0, n.Span())
			return
		}
		r := c.compileExpression(n.Argument)
		c.emit(opcodes.OP_RETURN, 0, r, 0, 0, n.Span())
	case *ast.ThrowStatement:
		r := c.compileExpression(n.Argument)
		c.emit(opcodes.OP_THROW, 0, r, 0, 0, n.Span())
	case *ast.TryStatement:
		c.compileTry(n)
	case *ast.FunctionDeclaration:
		c.compileFunctionDeclaration(n)
	case *ast.ClassDeclaration:
		c.compileClassDeclaration(n)
	case *ast.BreakStatement:
		c.compileBreak(n)
	case *ast.ContinueStatement:
		c.compileContinue(n)
	case *ast.EmptyStatement, *ast.DebuggerStatement:
		// no-op
	case *ast.ImportDeclaration, *ast.ExportNamedDeclaration,
		*ast.ExportDefaultDeclaration, *ast.ExportAllDeclaration:
		// Not lowered to bytecode: import/export declarations are skipped
		// and emit no instructions.
	case *ast.TSInterfaceDeclaration, *ast.TSTypeAliasDeclaration, *ast.TSEnumDeclaration:
		// erased
	default:
		c.fail(s.Span(), "unsupported statement %T", s)
	}
}

func (c *Compiler) compileBreak(n *ast.BreakStatement) {
	if c.sc.loopExit == nil {
		c.fail(n.Span(), "illegal break statement")
	}
	pc := c.emit(opcodes.OP_JMP, 0, 0, 0, 0, n.Span())
	c.sc.loopExit = append(c.sc.loopExit, pc)
}

func (c *Compiler) compileContinue(n *ast.ContinueStatement) {
	if c.sc.loopCont == nil {
		c.fail(n.Span(), "illegal continue statement")
	}
	pc := c.emit(opcodes.OP_JMP, 0, 0, 0, 0, n.Span())
	c.sc.loopCont = append(c.sc.loopCont, pc)
}

func (c *Compiler) compileVarDeclaration(n *ast.VarDeclaration) {
	for _, d := range n.Declarations {
		id, ok := d.Id.(*ast.Identifier)
		if !ok {
			c.fail(d.Span(), "destructuring declarations are not yet lowered")
		}
		reg := c.sc.alloc()
		c.sc.locals[id.Name] = reg
		switch n.DeclKind {
		case "let":
			c.emit(opcodes.OP_DECLARE_LET, reg, 0, 0, 0, n.Span())
		case "const":
			c.emit(opcodes.OP_DECLARE_CONST, reg, 0, 0, 0, n.Span())
		default:
			c.emit(opcodes.OP_DECLARE_VAR, reg, 0, 0, 0, n.Span())
		}
		if d.Init != nil {
			v := c.compileExpression(d.Init)
			c.emit(opcodes.OP_INIT_BINDING, reg, v, 0, 0, n.Span())
		} else if n.DeclKind != "let" {
			c.emit(opcodes.OP_INIT_BINDING, reg, 0, 0, 0, n.Span())
		}
	}
}

func (c *Compiler) compileIf(n *ast.IfStatement) {
	test := c.compileExpression(n.Test)
	jf := c.emit(opcodes.OP_JMP_IF_FALSE, 0, test, 0, 0, n.Span())
	c.compileStatement(n.Consequent)
	if n.Alternate == nil {
		c.patchJump(jf, c.here())
		return
	}
	jend := c.emit(opcodes.OP_JMP, 0, 0, 0, 0, n.Span())
	c.patchJump(jf, c.here())
	c.compileStatement(n.Alternate)
	c.patchJump(jend, c.here())
}

func (c *Compiler) withLoop(f func(breakTo func(), contTo func())) {
	savedExit, savedCont := c.sc.loopExit, c.sc.loopCont
	c.sc.loopExit, c.sc.loopCont = []int{}, []int{}
	f(func() {
		for _, pc := range c.sc.loopExit {
			c.patchJump(pc, c.here())
		}
	}, func() {
		for _, pc := range c.sc.loopCont {
			c.patchJump(pc, c.here())
		}
	})
	c.sc.loopExit, c.sc.loopCont = savedExit, savedCont
}

func (c *Compiler) compileWhile(n *ast.WhileStatement) {
	c.withLoop(func(patchBreaks, patchContinues func()) {
		start := c.here()
		test := c.compileExpression(n.Test)
		jf := c.emit(opcodes.OP_JMP_IF_FALSE, 0, test, 0, 0, n.Span())
		c.compileStatement(n.Body)
		patchContinues()
		c.emit(opcodes.OP_JMP, 0, 0, 0, int32(start-c.here()), n.Span())
		c.patchJump(jf, c.here())
		patchBreaks()
	})
}

func (c *Compiler) compileDoWhile(n *ast.DoWhileStatement) {
	c.withLoop(func(patchBreaks, patchContinues func()) {
		start := c.here()
		c.compileStatement(n.Body)
		patchContinues()
		test := c.compileExpression(n.Test)
		c.emit(opcodes.OP_JMP_IF_TRUE, 0, test, 0, int32(start-c.here()), n.Span())
		patchBreaks()
	})
}

func (c *Compiler) compileFor(n *ast.ForStatement) {
	c.emit(opcodes.OP_PUSH_SCOPE, 0, 0, 0, 0, n.Span())
	if n.Init != nil {
		switch init := n.Init.(type) {
		case *ast.VarDeclaration:
			c.compileVarDeclaration(init)
		case ast.Expression:
			c.compileExpression(init)
		}
	}
	c.withLoop(func(patchBreaks, patchContinues func()) {
		start := c.here()
		var jf int
		hasTest := n.Test != nil
		if hasTest {
			test := c.compileExpression(n.Test)
			jf = c.emit(opcodes.OP_JMP_IF_FALSE, 0, test, 0, 0, n.Span())
		}
		c.compileStatement(n.Body)
		patchContinues()
		if n.Update != nil {
			c.compileExpression(n.Update)
		}
		c.emit(opcodes.OP_JMP, 0, 0, 0, int32(start-c.here()), n.Span())
		if hasTest {
			c.patchJump(jf, c.here())
		}
		patchBreaks()
	})
	c.emit(opcodes.OP_POP_SCOPE, 0, 0, 0, 0, n.Span())
}

func (c *Compiler) compileForOf(n *ast.ForOfStatement) {
	rhs := c.compileExpression(n.Right)
	iter := c.sc.alloc()
	c.emit(opcodes.OP_GET_ITERATOR, iter, rhs, 0, 0, n.Span())
	c.withLoop(func(patchBreaks, patchContinues func()) {
		start := c.here()
		val := c.sc.alloc()
		done := c.sc.alloc()
		c.emit(opcodes.OP_ITER_NEXT, val, iter, done, 0, n.Span())
		jf := c.emit(opcodes.OP_JMP_IF_TRUE, 0, done, 0, 0, n.Span())
		c.bindForTarget(n.Left, val, n.Span())
		c.compileStatement(n.Body)
		patchContinues()
		c.emit(opcodes.OP_JMP, 0, 0, 0, int32(start-c.here()), n.Span())
		c.patchJump(jf, c.here())
		c.emit(opcodes.OP_ITER_CLOSE, 0, iter, 0, 0, n.Span())
		patchBreaks()
	})
}

func (c *Compiler) compileForIn(n *ast.ForInStatement) {
	rhs := c.compileExpression(n.Right)
	keys := c.sc.alloc()
	c.emit(opcodes.OP_FOR_IN_KEYS, keys, rhs, 0, 0, n.Span())
	iter := c.sc.alloc()
	c.emit(opcodes.OP_GET_ITERATOR, iter, keys, 0, 0, n.Span())
	c.withLoop(func(patchBreaks, patchContinues func()) {
		start := c.here()
		val := c.sc.alloc()
		done := c.sc.alloc()
		c.emit(opcodes.OP_ITER_NEXT, val, iter, done, 0, n.Span())
		jf := c.emit(opcodes.OP_JMP_IF_TRUE, 0, done, 0, 0, n.Span())
		c.bindForTarget(n.Left, val, n.Span())
		c.compileStatement(n.Body)
		patchContinues()
		c.emit(opcodes.OP_JMP, 0, 0, 0, int32(start-c.here()), n.Span())
		c.patchJump(jf, c.here())
		patchBreaks()
	})
}

func (c *Compiler) bindForTarget(left ast.Node, valReg uint32, span ast.Span) {
	switch t := left.(type) {
	case *ast.VarDeclaration:
		id, ok := t.Declarations[0].Id.(*ast.Identifier)
		if !ok {
			c.fail(span, "destructuring for-loop targets are not yet lowered")
		}
		reg := c.sc.alloc()
		c.sc.locals[id.Name] = reg
		c.emit(opcodes.OP_DECLARE_LET, reg, 0, 0, 0, span)
		c.emit(opcodes.OP_INIT_BINDING, reg, valReg, 0, 0, span)
	case *ast.Identifier:
		reg, ok := c.resolveLocal(t.Name)
		if !ok {
			c.fail(span, "assignment to undeclared variable %q", t.Name)
		}
		c.emit(opcodes.OP_ASSIGN_BINDING, reg, valReg, 0, 0, span)
	default:
		c.fail(span, "unsupported for-loop target")
	}
}

func (c *Compiler) compileTry(n *ast.TryStatement) {
	start := c.emit(opcodes.OP_TRY_BEGIN, 0, 0, 0, 0, n.Span())
	c.compileStatement(n.Block)
	end := c.emit(opcodes.OP_TRY_END, 0, 0, 0, 0, n.Span())

	entry := ExceptionEntry{TryStart: start, TryEnd: end, CatchPC: -1, FinallyPC: -1}

	if n.Handler != nil {
		jskip := c.emit(opcodes.OP_JMP, 0, 0, 0, 0, n.Span())
		entry.CatchPC = c.here()
		if n.Handler.Param != nil {
			id, ok := n.Handler.Param.(*ast.Identifier)
			if !ok {
				c.fail(n.Handler.Span(), "destructuring catch parameters are not yet lowered")
			}
			reg := c.sc.alloc()
			c.sc.locals[id.Name] = reg
			entry.CatchRegister = reg
		}
		c.compileStatement(n.Handler.Body)
		c.patchJump(jskip, c.here())
	}
	if n.Finalizer != nil {
		c.compileStatement(n.Finalizer)
	}
	c.chunk.Exceptions = append(c.chunk.Exceptions, entry)
}

func (c *Compiler) compileFunctionDeclaration(n *ast.FunctionDeclaration) {
	child := c.compileFunctionBody(n.Id.Name, n.Params, n.Body, n.Generator, n.Async)
	idx := len(c.chunk.Children)
	c.chunk.Children = append(c.chunk.Children, child)
	reg := c.sc.alloc()
	c.sc.locals[n.Id.Name] = reg
	c.emit(opcodes.OP_DECLARE_VAR, reg, 0, 0, 0, n.Span())
	c.emit(opcodes.OP_CLOSURE, reg, 0, 0, int32(idx), n.Span())
}

func (c *Compiler) compileClassDeclaration(n *ast.ClassDeclaration) {
	reg := c.sc.alloc()
	c.sc.locals[n.Id.Name] = reg
	c.emit(opcodes.OP_DECLARE_LET, reg, 0, 0, 0, n.Span())
	c.compileClassInto(reg, n.SuperClass, n.Body, n.Span())
}

func (c *Compiler) compileClassInto(dest uint32, superClass ast.Expression, body *ast.ClassBody, span ast.Span) {
	var superReg uint32
	if superClass != nil {
		superReg = c.compileExpression(superClass)
	}
	classIdx := len(c.chunk.Children)
	// Default constructor: an empty body; an explicit `constructor` method
	// replaces it below.
	ctorChunk := &Chunk{
		Name:         "<constructor>",
		Instructions: []opcodes.Instruction{{Op: opcodes.OP_RETURN_UNDEFINED}},
		Spans:        []ast.Span{span},
	}
	c.chunk.Children = append(c.chunk.Children, ctorChunk)
	for _, member := range body.Body {
		switch m := member.(type) {
		case *ast.MethodDefinition:
			fn, ok := m.Value, true
			_ = ok
			mchunk := c.compileFunctionBody(m.MethodKind, fn.Params, fn.Body, fn.Generator, fn.Async)
			if m.MethodKind == "constructor" {
				c.chunk.Children[classIdx] = mchunk
				continue
			}
			c.chunk.Children = append(c.chunk.Children, mchunk)
		case *ast.PropertyDefinition:
			if _, ok := m.Key.(*ast.PrivateIdentifier); ok {
				name := m.Key.(*ast.PrivateIdentifier).Name
				if _, exists := c.privateFields[name]; !exists {
					c.privateFields[name] = values.NewPrivateKey(name)
				}
			}
		}
	}
	c.emit(opcodes.OP_CLASS, dest, superReg, 0, int32(classIdx), span)
}

// compileFunctionBody compiles a nested function/method into its own Chunk,
// with a fresh register space and scope chained to the enclosing one for
// upvalue resolution.
func (c *Compiler) compileFunctionBody(name string, params []ast.Pattern, body *ast.BlockStatement, generator, async bool) *Chunk {
	if generator && async {
		c.fail(body.Span(), "async generator functions are not supported")
	}

	savedChunk, savedScope := c.chunk, c.sc
	c.chunk = &Chunk{Name: name, IsGenerator: generator, IsAsync: async}
	c.sc = newScope(savedScope)

	for _, p := range params {
		c.compileParam(p)
	}

	for _, st := range body.Body {
		c.compileStatement(st)
	}
	c.emit(opcodes.OP_RETURN_UNDEFINED, 0, 0, 0, 0, body.Span())
	c.chunk.NumRegisters = int(c.sc.nextReg)

	child := c.chunk
	c.chunk, c.sc = savedChunk, savedScope
	return child
}

func (c *Compiler) compileParam(p ast.Pattern) {
	switch t := p.(type) {
	case *ast.Identifier:
		reg := c.sc.alloc()
		c.sc.locals[t.Name] = reg
		c.chunk.Params = append(c.chunk.Params, ParamDescriptor{Name: t.Name})
	case *ast.RestElement:
		id, ok := t.Argument.(*ast.Identifier)
		if !ok {
			c.fail(p.Span(), "destructuring rest parameters are not yet lowered")
		}
		reg := c.sc.alloc()
		c.sc.locals[id.Name] = reg
		c.chunk.Params = append(c.chunk.Params, ParamDescriptor{Name: id.Name, IsRest: true})
		c.emit(opcodes.OP_REST_PARAMS, reg, 0, 0, 0, p.Span())
	case *ast.AssignmentPattern:
		id, ok := t.Left.(*ast.Identifier)
		if !ok {
			c.fail(p.Span(), "destructuring defaulted parameters are not yet lowered")
		}
		reg := c.sc.alloc()
		c.sc.locals[id.Name] = reg
		c.chunk.Params = append(c.chunk.Params, ParamDescriptor{Name: id.Name, HasDefault: true})
	default:
		c.fail(p.Span(), "unsupported parameter pattern %T", p)
	}
}

// resolveLocal looks up name in the current scope chain, returning the
// register it lives in if found in the current function's own scope.
// Upvalue resolution across function boundaries is handled at the VM level
// via OP_LOAD_UPVALUE once the closure's captured-environment chain is
// wired (see vm.Frame); here we only resolve same-function locals.
func (c *Compiler) resolveLocal(name string) (uint32, bool) {
	for s := c.sc; s != nil; s = s.parent {
		if r, ok := s.locals[name]; ok {
			return r, ok
		}
	}
	return 0, false
}
