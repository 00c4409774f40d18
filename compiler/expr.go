package compiler

import (
	"github.com/tsrun-lang/tsrun/ast"
	"github.com/tsrun-lang/tsrun/opcodes"
	"github.com/tsrun-lang/tsrun/values"
)

var binaryOp = map[string]opcodes.Opcode{
	"+": opcodes.OP_ADD, "-": opcodes.OP_SUB, "*": opcodes.OP_MUL,
	"/": opcodes.OP_DIV, "%": opcodes.OP_MOD, "**": opcodes.OP_POW,
	"&": opcodes.OP_BW_AND, "|": opcodes.OP_BW_OR, "^": opcodes.OP_BW_XOR,
	"<<": opcodes.OP_SHL, ">>": opcodes.OP_SHR, ">>>": opcodes.OP_USHR,
	"==": opcodes.OP_EQ, "!=": opcodes.OP_NEQ,
	"===": opcodes.OP_SEQ, "!==": opcodes.OP_SNEQ,
	"<": opcodes.OP_LT, "<=": opcodes.OP_LTE, ">": opcodes.OP_GT, ">=": opcodes.OP_GTE,
}

var unaryOp = map[string]opcodes.Opcode{
	"-": opcodes.OP_NEG, "+": opcodes.OP_PLUS, "!": opcodes.OP_NOT, "~": opcodes.OP_BW_NOT,
	"typeof": opcodes.OP_TYPEOF,
}

// compileExpression lowers e and returns the register holding its result.
func (c *Compiler) compileExpression(e ast.Expression) uint32 {
	switch n := e.(type) {
	case *ast.Literal:
		return c.compileLiteral(n)
	case *ast.Identifier:
		return c.compileIdentifierRead(n)
	case *ast.ThisExpression:
		r := c.sc.alloc()
		c.emit(opcodes.OP_LOAD_THIS, r, 0, 0, 0, n.Span())
		return r
	case *ast.TemplateLiteral:
		return c.compileTemplateLiteral(n)
	case *ast.ArrayExpression:
		return c.compileArrayExpression(n)
	case *ast.ObjectExpression:
		return c.compileObjectExpression(n)
	case *ast.FunctionExpression:
		name := "<anonymous>"
		if n.Id != nil {
			name = n.Id.Name
		}
		child := c.compileFunctionBody(name, n.Params, n.Body, n.Generator, n.Async)
		idx := len(c.chunk.Children)
		c.chunk.Children = append(c.chunk.Children, child)
		r := c.sc.alloc()
		c.emit(opcodes.OP_CLOSURE, r, 0, 0, int32(idx), n.Span())
		return r
	case *ast.ArrowFunctionExpression:
		return c.compileArrowFunction(n)
	case *ast.UnaryExpression:
		return c.compileUnary(n)
	case *ast.UpdateExpression:
		return c.compileUpdate(n)
	case *ast.BinaryExpression:
		return c.compileBinary(n)
	case *ast.LogicalExpression:
		return c.compileLogical(n)
	case *ast.ConditionalExpression:
		return c.compileConditional(n)
	case *ast.AssignmentExpression:
		return c.compileAssignment(n)
	case *ast.SequenceExpression:
		var last uint32
		for _, sub := range n.Expressions {
			last = c.compileExpression(sub)
		}
		return last
	case *ast.CallExpression:
		return c.compileCall(n)
	case *ast.NewExpression:
		return c.compileNew(n)
	case *ast.MemberExpression:
		return c.compileMemberRead(n)
	case *ast.SpreadElement:
		return c.compileExpression(n.Argument)
	case *ast.YieldExpression:
		return c.compileYield(n)
	case *ast.AwaitExpression:
		return c.compileAwait(n)
	case *ast.ParenthesizedExpression:
		return c.compileExpression(n.Expression)
	case *ast.TSAsExpression:
		return c.compileExpression(n.Expression)
	case *ast.TSNonNullExpression:
		return c.compileExpression(n.Expression)
	case *ast.ClassExpression:
		r := c.sc.alloc()
		c.compileClassInto(r, n.SuperClass, n.Body, n.Span())
		return r
	default:
		c.fail(e.Span(), "unsupported expression %T", e)
		return 0
	}
}

func (c *Compiler) compileLiteral(n *ast.Literal) uint32 {
	r := c.sc.alloc()
	switch n.LitKind {
	case ast.LiteralNumber:
		idx := c.chunk.addConstant(values.Number(n.Number))
		c.emit(opcodes.OP_LOAD_CONST, r, 0, 0, int32(idx), n.Span())
	case ast.LiteralString:
		idx := c.chunk.addConstant(values.String(n.Str))
		c.emit(opcodes.OP_LOAD_CONST, r, 0, 0, int32(idx), n.Span())
	case ast.LiteralBool:
		if n.Bool {
			c.emit(opcodes.OP_LOAD_TRUE, r, 0, 0, 0, n.Span())
		} else {
			c.emit(opcodes.OP_LOAD_FALSE, r, 0, 0, 0, n.Span())
		}
	case ast.LiteralNull:
		c.emit(opcodes.OP_LOAD_NULL, r, 0, 0, 0, n.Span())
	case ast.LiteralUndefined:
		c.emit(opcodes.OP_LOAD_UNDEFINED, r, 0, 0, 0, n.Span())
	case ast.LiteralBigInt:
		big, ok := values.ParseBigInt(n.Str)
		if !ok {
			c.fail(n.Span(), "invalid BigInt literal %q", n.Str)
		}
		idx := c.chunk.addConstant(values.BigIntValue(big))
		c.emit(opcodes.OP_LOAD_CONST, r, 0, 0, int32(idx), n.Span())
	}
	return r
}

func (c *Compiler) compileIdentifierRead(n *ast.Identifier) uint32 {
	if reg, ok := c.resolveLocal(n.Name); ok {
		return reg
	}
	r := c.sc.alloc()
	idx := c.chunk.addConstant(values.String(n.Name))
	c.emit(opcodes.OP_LOAD_GLOBAL, r, 0, 0, int32(idx), n.Span())
	return r
}

func (c *Compiler) compileTemplateLiteral(n *ast.TemplateLiteral) uint32 {
	result := c.sc.alloc()
	idx := c.chunk.addConstant(values.String(n.Quasis[0]))
	c.emit(opcodes.OP_LOAD_CONST, result, 0, 0, int32(idx), n.Span())
	for i, expr := range n.Expressions {
		v := c.compileExpression(expr)
		str := c.sc.alloc()
		c.emit(opcodes.OP_TO_STRING, str, v, 0, 0, n.Span())
		c.emit(opcodes.OP_ADD, result, result, str, 0, n.Span())
		if i+1 < len(n.Quasis) {
			qidx := c.chunk.addConstant(values.String(n.Quasis[i+1]))
			qreg := c.sc.alloc()
			c.emit(opcodes.OP_LOAD_CONST, qreg, 0, 0, int32(qidx), n.Span())
			c.emit(opcodes.OP_ADD, result, result, qreg, 0, n.Span())
		}
	}
	return result
}

func (c *Compiler) compileArrayExpression(n *ast.ArrayExpression) uint32 {
	r := c.sc.alloc()
	c.emit(opcodes.OP_NEW_ARRAY, r, 0, 0, 0, n.Span())
	for _, el := range n.Elements {
		if el == nil {
			c.emit(opcodes.OP_ARRAY_PUSH, r, 0, 0, 0, n.Span())
			continue
		}
		v := c.compileExpression(el)
		c.emit(opcodes.OP_ARRAY_PUSH, r, v, 0, 0, n.Span())
	}
	return r
}

func (c *Compiler) compileObjectExpression(n *ast.ObjectExpression) uint32 {
	r := c.sc.alloc()
	c.emit(opcodes.OP_NEW_OBJECT, r, 0, 0, 0, n.Span())
	for _, p := range n.Properties {
		val := c.compileExpression(p.Value)
		if ident, ok := p.Key.(*ast.Identifier); ok && !p.Computed {
			idx := c.chunk.addConstant(values.String(ident.Name))
			c.emit(opcodes.OP_SET_PROP, r, val, 0, int32(idx), n.Span())
			continue
		}
		key := c.compileExpression(p.Key)
		c.emit(opcodes.OP_SET_PROP_COMPUTED, r, key, val, 0, n.Span())
	}
	return r
}

func (c *Compiler) compileArrowFunction(n *ast.ArrowFunctionExpression) uint32 {
	savedChunk, savedScope := c.chunk, c.sc
	c.chunk = &Chunk{Name: "<arrow>", IsAsync: n.Async}
	c.sc = newScope(savedScope)
	for _, p := range n.Params {
		c.compileParam(p)
	}
	if n.ExpressionBody {
		v := c.compileExpression(n.Body.(ast.Expression))
		c.emit(opcodes.OP_RETURN, 0, v, 0, 0, n.Span())
	} else {
		body := n.Body.(*ast.BlockStatement)
		for _, st := range body.Body {
			c.compileStatement(st)
		}
		c.emit(opcodes.OP_RETURN_UNDEFINED, 0, 0, 0, 0, n.Span())
	}
	c.chunk.NumRegisters = int(c.sc.nextReg)
	child := c.chunk
	c.chunk, c.sc = savedChunk, savedScope

	idx := len(c.chunk.Children)
	c.chunk.Children = append(c.chunk.Children, child)
	r := c.sc.alloc()
	c.emit(opcodes.OP_CLOSURE, r, 0, 0, int32(idx), n.Span())
	return r
}

func (c *Compiler) compileUnary(n *ast.UnaryExpression) uint32 {
	if n.Operator == "delete" {
		member, ok := n.Argument.(*ast.MemberExpression)
		if !ok {
			c.fail(n.Span(), "delete of a non-member expression")
		}
		obj := c.compileExpression(member.Object)
		r := c.sc.alloc()
		if member.Computed {
			key := c.compileExpression(member.Property)
			c.emit(opcodes.OP_DELETE_PROP, r, obj, key, 0, n.Span())
		} else {
			idx := c.chunk.addConstant(values.String(member.Property.(*ast.Identifier).Name))
			c.emit(opcodes.OP_DELETE_PROP, r, obj, 0, int32(idx), n.Span())
		}
		return r
	}
	v := c.compileExpression(n.Argument)
	op, ok := unaryOp[n.Operator]
	if !ok {
		c.fail(n.Span(), "unsupported unary operator %q", n.Operator)
	}
	r := c.sc.alloc()
	c.emit(op, r, v, 0, 0, n.Span())
	return r
}

func (c *Compiler) compileUpdate(n *ast.UpdateExpression) uint32 {
	id, ok := n.Argument.(*ast.Identifier)
	if !ok {
		c.fail(n.Span(), "update expressions on non-identifier targets are not yet lowered")
	}
	reg, ok := c.resolveLocal(id.Name)
	if !ok {
		c.fail(n.Span(), "assignment to undeclared variable %q", id.Name)
	}
	op := opcodes.OP_INC
	if n.Operator == "--" {
		op = opcodes.OP_DEC
	}
	if n.Prefix {
		c.emit(op, reg, reg, 0, 0, n.Span())
		return reg
	}
	old := c.sc.alloc()
	c.emit(opcodes.OP_MOVE, old, reg, 0, 0, n.Span())
	c.emit(op, reg, reg, 0, 0, n.Span())
	return old
}

func (c *Compiler) compileBinary(n *ast.BinaryExpression) uint32 {
	if n.Operator == "instanceof" {
		l := c.compileExpression(n.Left)
		r := c.compileExpression(n.Right)
		dest := c.sc.alloc()
		c.emit(opcodes.OP_INSTANCEOF, dest, l, r, 0, n.Span())
		return dest
	}
	if n.Operator == "in" {
		l := c.compileExpression(n.Left)
		r := c.compileExpression(n.Right)
		dest := c.sc.alloc()
		c.emit(opcodes.OP_IN, dest, l, r, 0, n.Span())
		return dest
	}
	op, ok := binaryOp[n.Operator]
	if !ok {
		c.fail(n.Span(), "unsupported binary operator %q", n.Operator)
	}
	l := c.compileExpression(n.Left)
	r := c.compileExpression(n.Right)
	dest := c.sc.alloc()
	c.emit(op, dest, l, r, 0, n.Span())
	return dest
}

func (c *Compiler) compileLogical(n *ast.LogicalExpression) uint32 {
	l := c.compileExpression(n.Left)
	dest := c.sc.alloc()
	c.emit(opcodes.OP_MOVE, dest, l, 0, 0, n.Span())

	var skip int
	switch n.Operator {
	case "&&":
		skip = c.emit(opcodes.OP_JMP_IF_FALSE, 0, dest, 0, 0, n.Span())
	case "||":
		skip = c.emit(opcodes.OP_JMP_IF_TRUE, 0, dest, 0, 0, n.Span())
	case "??":
		// A nullish left side jumps to the right-hand evaluation below;
		// otherwise the unconditional jump skips it and keeps the left value.
		toRight := c.emit(opcodes.OP_JMP_IF_NULLISH, 0, dest, 0, 0, n.Span())
		skip = c.emit(opcodes.OP_JMP, 0, 0, 0, 0, n.Span())
		c.patchJump(toRight, c.here())
	default:
		c.fail(n.Span(), "unsupported logical operator %q", n.Operator)
	}
	r := c.compileExpression(n.Right)
	c.emit(opcodes.OP_MOVE, dest, r, 0, 0, n.Span())
	c.patchJump(skip, c.here())
	return dest
}

func (c *Compiler) compileConditional(n *ast.ConditionalExpression) uint32 {
	test := c.compileExpression(n.Test)
	dest := c.sc.alloc()
	jf := c.emit(opcodes.OP_JMP_IF_FALSE, 0, test, 0, 0, n.Span())
	cons := c.compileExpression(n.Consequent)
	c.emit(opcodes.OP_MOVE, dest, cons, 0, 0, n.Span())
	jend := c.emit(opcodes.OP_JMP, 0, 0, 0, 0, n.Span())
	c.patchJump(jf, c.here())
	alt := c.compileExpression(n.Alternate)
	c.emit(opcodes.OP_MOVE, dest, alt, 0, 0, n.Span())
	c.patchJump(jend, c.here())
	return dest
}

func (c *Compiler) compileAssignment(n *ast.AssignmentExpression) uint32 {
	rhs := c.compileExpression(n.Right)
	if n.Operator != "=" {
		op, ok := binaryOp[n.Operator[:len(n.Operator)-1]]
		if !ok {
			c.fail(n.Span(), "unsupported compound assignment operator %q", n.Operator)
		}
		cur := c.compileExpression(n.Left.(ast.Expression))
		combined := c.sc.alloc()
		c.emit(op, combined, cur, rhs, 0, n.Span())
		rhs = combined
	}

	switch target := n.Left.(type) {
	case *ast.Identifier:
		reg, ok := c.resolveLocal(target.Name)
		if !ok {
			c.fail(n.Span(), "assignment to undeclared variable %q", target.Name)
		}
		c.emit(opcodes.OP_ASSIGN_BINDING, reg, rhs, 0, 0, n.Span())
		return rhs
	case *ast.MemberExpression:
		obj := c.compileExpression(target.Object)
		if target.Computed {
			key := c.compileExpression(target.Property)
			c.emit(opcodes.OP_SET_PROP_COMPUTED, obj, key, rhs, 0, n.Span())
			return rhs
		}
		idx := c.chunk.addConstant(values.String(target.Property.(*ast.Identifier).Name))
		c.emit(opcodes.OP_SET_PROP, obj, rhs, 0, int32(idx), n.Span())
		return rhs
	default:
		c.fail(n.Span(), "destructuring assignment is not yet lowered")
		return 0
	}
}

// compileArgWindow evaluates every provided value (already-resolved source
// registers) into a single freshly-allocated *contiguous* register block,
// starting with the lead registers (the callee, or for a method call the
// method followed by its receiver) and then the arguments.
// Registers must all be reserved after every sub-expression has finished
// compiling — reserving them one at a time interleaved with each
// argument's own compileExpression would let that argument's temporaries
// land inside the window, breaking the [base, base+n) contiguity the CALL
// opcodes rely on.
func (c *Compiler) compileArgWindow(lead []uint32, args []ast.Expression) uint32 {
	argRegs := make([]uint32, len(args))
	for i, a := range args {
		argRegs[i] = c.compileExpression(a)
	}
	base := c.sc.alloc()
	for i, r := range lead {
		dst := base
		if i > 0 {
			dst = c.sc.alloc()
		}
		c.emit(opcodes.OP_MOVE, dst, r, 0, 0, ast.Span{})
	}
	for _, r := range argRegs {
		c.emit(opcodes.OP_MOVE, c.sc.alloc(), r, 0, 0, ast.Span{})
	}
	return base
}

func (c *Compiler) compileCall(n *ast.CallExpression) uint32 {
	if member, ok := n.Callee.(*ast.MemberExpression); ok {
		recv := c.compileExpression(member.Object)
		var method uint32
		if member.Computed {
			method = c.sc.alloc()
			key := c.compileExpression(member.Property)
			c.emit(opcodes.OP_GET_PROP_COMPUTED, method, recv, key, 0, n.Span())
		} else {
			method = c.sc.alloc()
			idx := c.chunk.addConstant(values.String(member.Property.(*ast.Identifier).Name))
			c.emit(opcodes.OP_GET_PROP, method, recv, 0, int32(idx), n.Span())
		}
		base := c.compileArgWindow([]uint32{method, recv}, n.Arguments)
		dest := c.sc.alloc()
		c.emit(opcodes.OP_CALL_METHOD, dest, base, uint32(len(n.Arguments)), 0, n.Span())
		return dest
	}

	callee := c.compileExpression(n.Callee)
	base := c.compileArgWindow([]uint32{callee}, n.Arguments)
	dest := c.sc.alloc()
	c.emit(opcodes.OP_CALL, dest, base, uint32(len(n.Arguments)), 0, n.Span())
	return dest
}

func (c *Compiler) compileNew(n *ast.NewExpression) uint32 {
	callee := c.compileExpression(n.Callee)
	base := c.compileArgWindow([]uint32{callee}, n.Arguments)
	dest := c.sc.alloc()
	c.emit(opcodes.OP_NEW, dest, base, uint32(len(n.Arguments)), 0, n.Span())
	return dest
}

func (c *Compiler) compileMemberRead(n *ast.MemberExpression) uint32 {
	obj := c.compileExpression(n.Object)
	dest := c.sc.alloc()
	op := opcodes.OP_GET_PROP
	if n.Optional {
		op = opcodes.OP_GET_PROP_OPT
	}
	if n.Computed {
		key := c.compileExpression(n.Property)
		if n.Optional {
			// OP_GET_PROP_OPT reads its key from the constant pool, so a
			// computed optional access is a nullish check around
			// OP_GET_PROP_COMPUTED.
			isNullish := c.emit(opcodes.OP_JMP_IF_NULLISH, 0, obj, 0, 0, n.Span())
			c.emit(opcodes.OP_GET_PROP_COMPUTED, dest, obj, key, 0, n.Span())
			end := c.emit(opcodes.OP_JMP, 0, 0, 0, 0, n.Span())
			c.patchJump(isNullish, c.here())
			c.emit(opcodes.OP_LOAD_UNDEFINED, dest, 0, 0, 0, n.Span())
			c.patchJump(end, c.here())
		} else {
			c.emit(opcodes.OP_GET_PROP_COMPUTED, dest, obj, key, 0, n.Span())
		}
		return dest
	}
	if priv, ok := n.Property.(*ast.PrivateIdentifier); ok {
		_ = priv
		c.emit(opcodes.OP_GET_PRIVATE, dest, obj, 0, 0, n.Span())
		return dest
	}
	idx := c.chunk.addConstant(values.String(n.Property.(*ast.Identifier).Name))
	c.emit(op, dest, obj, 0, int32(idx), n.Span())
	return dest
}

func (c *Compiler) compileYield(n *ast.YieldExpression) uint32 {
	var v uint32
	if n.Argument != nil {
		v = c.compileExpression(n.Argument)
	}
	dest := c.sc.alloc()
	op := opcodes.OP_YIELD
	if n.Delegate {
		op = opcodes.OP_YIELD_STAR
	}
	pc := c.emit(op, dest, v, 0, 0, n.Span())
	c.recordSuspension(pc)
	return dest
}

func (c *Compiler) compileAwait(n *ast.AwaitExpression) uint32 {
	v := c.compileExpression(n.Argument)
	dest := c.sc.alloc()
	pc := c.emit(opcodes.OP_AWAIT, dest, v, 0, 0, n.Span())
	c.recordSuspension(pc)
	return dest
}

// recordSuspension conservatively records every register allocated so far
// in the current function as live across the suspension point. A precise
// liveness analysis would shrink this set further.
func (c *Compiler) recordSuspension(pc int) {
	live := make([]uint32, c.sc.nextReg)
	for i := range live {
		live[i] = uint32(i)
	}
	c.chunk.Suspensions = append(c.chunk.Suspensions, SuspensionPoint{PC: pc, LiveRegisters: live})
}
