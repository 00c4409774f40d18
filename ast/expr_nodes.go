package ast

// Identifier is both an Expression (a reference) and a Pattern (a simple
// binding target), matching how a single production serves both roles in
// the grammar.
type Identifier struct {
	BaseNode
	Name string
}

func NewIdentifier(span Span, name string) *Identifier {
	return &Identifier{BaseNode: BaseNode{NodeKind: KindIdentifier, NodeSpan: span}, Name: name}
}
func (n *Identifier) expressionNode() {}
func (n *Identifier) patternNode()    {}
func (n *Identifier) Accept(v Visitor) { Walk(v, n) }

// PrivateIdentifier is a `#name` reference, valid only inside a class body
// (spec's Open Question (a): private fields).
type PrivateIdentifier struct {
	BaseNode
	Name string
}

func (n *PrivateIdentifier) expressionNode()  {}
func (n *PrivateIdentifier) Accept(v Visitor) { Walk(v, n) }

// LiteralKind tags which kind of value a Literal holds (in its Number, Str
// or Bool field).
type LiteralKind byte

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralNull
	LiteralUndefined
	LiteralBigInt // Str holds the decimal digit string, without trailing `n`
)

// Literal is a primitive literal.
type Literal struct {
	BaseNode
	LitKind LiteralKind
	Number  float64
	Str     string
	Bool    bool
}

func NewNumberLiteral(span Span, n float64) *Literal {
	return &Literal{BaseNode: BaseNode{NodeKind: KindLiteral, NodeSpan: span}, LitKind: LiteralNumber, Number: n}
}
func NewStringLiteral(span Span, s string) *Literal {
	return &Literal{BaseNode: BaseNode{NodeKind: KindLiteral, NodeSpan: span}, LitKind: LiteralString, Str: s}
}
func NewBoolLiteral(span Span, b bool) *Literal {
	return &Literal{BaseNode: BaseNode{NodeKind: KindLiteral, NodeSpan: span}, LitKind: LiteralBool, Bool: b}
}
func NewNullLiteral(span Span) *Literal {
	return &Literal{BaseNode: BaseNode{NodeKind: KindLiteral, NodeSpan: span}, LitKind: LiteralNull}
}
func NewBigIntLiteral(span Span, digits string) *Literal {
	return &Literal{BaseNode: BaseNode{NodeKind: KindLiteral, NodeSpan: span}, LitKind: LiteralBigInt, Str: digits}
}

func (n *Literal) expressionNode()  {}
func (n *Literal) Accept(v Visitor) { Walk(v, n) }

// TemplateLiteral is a template string with N+1 quasis interleaved with N
// expressions.
type TemplateLiteral struct {
	BaseNode
	Quasis      []string
	Expressions []Expression
}

func (n *TemplateLiteral) expressionNode() {}
func (n *TemplateLiteral) Children() []Node {
	out := make([]Node, len(n.Expressions))
	for i, e := range n.Expressions {
		out[i] = e
	}
	return out
}
func (n *TemplateLiteral) Accept(v Visitor) { Walk(v, n) }

// TaggedTemplateExpression is `` tag`...` ``.
type TaggedTemplateExpression struct {
	BaseNode
	Tag   Expression
	Quasi *TemplateLiteral
}

func (n *TaggedTemplateExpression) expressionNode()  {}
func (n *TaggedTemplateExpression) Children() []Node { return []Node{n.Tag, n.Quasi} }
func (n *TaggedTemplateExpression) Accept(v Visitor)  { Walk(v, n) }

// RegExpLiteral is a `/pattern/flags` literal; compilation of the pattern
// itself is deferred to the pluggable RegExp provider (spec §1, §9).
type RegExpLiteral struct {
	BaseNode
	Pattern, Flags string
}

func (n *RegExpLiteral) expressionNode()  {}
func (n *RegExpLiteral) Accept(v Visitor) { Walk(v, n) }

// ArrayExpression is an array literal; a nil element denotes an elision
// hole (`[1, , 3]`).
type ArrayExpression struct {
	BaseNode
	Elements []Expression
}

func (n *ArrayExpression) expressionNode() {}
func (n *ArrayExpression) Children() []Node {
	out := make([]Node, 0, len(n.Elements))
	for _, e := range n.Elements {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
func (n *ArrayExpression) Accept(v Visitor) { Walk(v, n) }

// Property is one object-literal entry (not to be confused with
// values.Property, the runtime property descriptor).
type Property struct {
	BaseNode
	Key       Expression
	Value     Expression
	Computed  bool
	Shorthand bool
	Method    bool
	PropKind  string // "init", "get", "set"
}

func (n *Property) Children() []Node { return []Node{n.Key, n.Value} }
func (n *Property) Accept(v Visitor) { Walk(v, n) }

// ObjectExpression is an object literal.
type ObjectExpression struct {
	BaseNode
	Properties []*Property
}

func (n *ObjectExpression) expressionNode() {}
func (n *ObjectExpression) Children() []Node {
	out := make([]Node, len(n.Properties))
	for i, p := range n.Properties {
		out[i] = p
	}
	return out
}
func (n *ObjectExpression) Accept(v Visitor) { Walk(v, n) }

// FunctionExpression covers both named and anonymous function expressions,
// including generator and async functions. `async function*` is rejected
// at compile time (spec's Open Question (c): deferred, see DESIGN.md).
type FunctionExpression struct {
	BaseNode
	Id        *Identifier
	Params    []Pattern
	Body      *BlockStatement
	Generator bool
	Async     bool
}

func (n *FunctionExpression) expressionNode() {}
func (n *FunctionExpression) Children() []Node {
	out := make([]Node, 0, len(n.Params)+2)
	if n.Id != nil {
		out = append(out, n.Id)
	}
	for _, p := range n.Params {
		out = append(out, p)
	}
	out = append(out, n.Body)
	return out
}
func (n *FunctionExpression) Accept(v Visitor) { Walk(v, n) }

// ArrowFunctionExpression: Body is either a *BlockStatement or a bare
// Expression (ExpressionBody true), per the concise-body production.
type ArrowFunctionExpression struct {
	BaseNode
	Params         []Pattern
	Body           Node
	Async          bool
	ExpressionBody bool
}

func (n *ArrowFunctionExpression) expressionNode() {}
func (n *ArrowFunctionExpression) Children() []Node {
	out := make([]Node, 0, len(n.Params)+1)
	for _, p := range n.Params {
		out = append(out, p)
	}
	out = append(out, n.Body)
	return out
}
func (n *ArrowFunctionExpression) Accept(v Visitor) { Walk(v, n) }

// ThisExpression is `this`.
type ThisExpression struct{ BaseNode }

func (n *ThisExpression) expressionNode()  {}
func (n *ThisExpression) Accept(v Visitor) { Walk(v, n) }

// SuperExpression is `super`, valid only in a derived class's constructor
// or in a method shorthand (`super.method()`).
type SuperExpression struct{ BaseNode }

func (n *SuperExpression) expressionNode()  {}
func (n *SuperExpression) Accept(v Visitor) { Walk(v, n) }

// UnaryExpression: +,-,!,~,typeof,void,delete.
type UnaryExpression struct {
	BaseNode
	Operator string
	Argument Expression
	Prefix   bool
}

func (n *UnaryExpression) expressionNode()  {}
func (n *UnaryExpression) Children() []Node { return []Node{n.Argument} }
func (n *UnaryExpression) Accept(v Visitor) { Walk(v, n) }

// UpdateExpression: ++/-- prefix or postfix.
type UpdateExpression struct {
	BaseNode
	Operator string
	Argument Expression
	Prefix   bool
}

func (n *UpdateExpression) expressionNode()  {}
func (n *UpdateExpression) Children() []Node { return []Node{n.Argument} }
func (n *UpdateExpression) Accept(v Visitor) { Walk(v, n) }

// BinaryExpression: arithmetic, bitwise, relational, equality operators.
type BinaryExpression struct {
	BaseNode
	Operator    string
	Left, Right Expression
}

func (n *BinaryExpression) expressionNode()  {}
func (n *BinaryExpression) Children() []Node { return []Node{n.Left, n.Right} }
func (n *BinaryExpression) Accept(v Visitor) { Walk(v, n) }

// LogicalExpression: &&, ||, ?? — kept distinct from BinaryExpression
// because these short-circuit and the compiler lowers them to branches.
type LogicalExpression struct {
	BaseNode
	Operator    string
	Left, Right Expression
}

func (n *LogicalExpression) expressionNode()  {}
func (n *LogicalExpression) Children() []Node { return []Node{n.Left, n.Right} }
func (n *LogicalExpression) Accept(v Visitor) { Walk(v, n) }

// AssignmentExpression: `=`, `+=`, ..., and destructuring assignment when
// Left is a pattern-shaped expression (ArrayExpression/ObjectExpression
// reinterpreted by the compiler, per the standard grammar's cover-grammar
// trick) or a genuine Pattern node.
type AssignmentExpression struct {
	BaseNode
	Operator string
	Left     Node
	Right    Expression
}

func (n *AssignmentExpression) expressionNode()  {}
func (n *AssignmentExpression) Children() []Node { return []Node{n.Left, n.Right} }
func (n *AssignmentExpression) Accept(v Visitor)  { Walk(v, n) }

// ConditionalExpression: `test ? consequent : alternate`.
type ConditionalExpression struct {
	BaseNode
	Test, Consequent, Alternate Expression
}

func (n *ConditionalExpression) expressionNode() {}
func (n *ConditionalExpression) Children() []Node {
	return []Node{n.Test, n.Consequent, n.Alternate}
}
func (n *ConditionalExpression) Accept(v Visitor) { Walk(v, n) }

// CallExpression. Optional marks `?.()`  (optional-chaining short-circuit).
type CallExpression struct {
	BaseNode
	Callee    Expression
	Arguments []Expression
	Optional  bool
}

func (n *CallExpression) expressionNode() {}
func (n *CallExpression) Children() []Node {
	out := make([]Node, 0, len(n.Arguments)+1)
	out = append(out, n.Callee)
	for _, a := range n.Arguments {
		out = append(out, a)
	}
	return out
}
func (n *CallExpression) Accept(v Visitor) { Walk(v, n) }

// NewExpression: `new Callee(Arguments...)`.
type NewExpression struct {
	BaseNode
	Callee    Expression
	Arguments []Expression
}

func (n *NewExpression) expressionNode() {}
func (n *NewExpression) Children() []Node {
	out := make([]Node, 0, len(n.Arguments)+1)
	out = append(out, n.Callee)
	for _, a := range n.Arguments {
		out = append(out, a)
	}
	return out
}
func (n *NewExpression) Accept(v Visitor) { Walk(v, n) }

// MemberExpression: `a.b`, `a[b]`, `a?.b`, `a?.[b]`. Property is an
// Identifier/PrivateIdentifier when !Computed, else an arbitrary Expression.
type MemberExpression struct {
	BaseNode
	Object   Expression
	Property Expression
	Computed bool
	Optional bool
}

func (n *MemberExpression) expressionNode()  {}
func (n *MemberExpression) Children() []Node { return []Node{n.Object, n.Property} }
func (n *MemberExpression) Accept(v Visitor) { Walk(v, n) }

// SequenceExpression: the comma operator.
type SequenceExpression struct {
	BaseNode
	Expressions []Expression
}

func (n *SequenceExpression) expressionNode() {}
func (n *SequenceExpression) Children() []Node {
	out := make([]Node, len(n.Expressions))
	for i, e := range n.Expressions {
		out[i] = e
	}
	return out
}
func (n *SequenceExpression) Accept(v Visitor) { Walk(v, n) }

// SpreadElement: `...expr` in a call/array/object position.
type SpreadElement struct {
	BaseNode
	Argument Expression
}

func (n *SpreadElement) expressionNode()  {}
func (n *SpreadElement) Children() []Node { return []Node{n.Argument} }
func (n *SpreadElement) Accept(v Visitor) { Walk(v, n) }

// YieldExpression: `yield`/`yield*` inside a generator body (spec §4.1
// suspension points).
type YieldExpression struct {
	BaseNode
	Argument Expression // nil for a bare `yield`
	Delegate bool
}

func (n *YieldExpression) expressionNode() {}
func (n *YieldExpression) Children() []Node {
	if n.Argument == nil {
		return nil
	}
	return []Node{n.Argument}
}
func (n *YieldExpression) Accept(v Visitor) { Walk(v, n) }

// AwaitExpression: `await expr` inside an async function body.
type AwaitExpression struct {
	BaseNode
	Argument Expression
}

func (n *AwaitExpression) expressionNode()  {}
func (n *AwaitExpression) Children() []Node { return []Node{n.Argument} }
func (n *AwaitExpression) Accept(v Visitor) { Walk(v, n) }

// ParenthesizedExpression preserves explicit grouping where it affects
// destructuring-vs-expression disambiguation; the compiler otherwise
// unwraps it.
type ParenthesizedExpression struct {
	BaseNode
	Expression Expression
}

func (n *ParenthesizedExpression) expressionNode()  {}
func (n *ParenthesizedExpression) Children() []Node { return []Node{n.Expression} }
func (n *ParenthesizedExpression) Accept(v Visitor)  { Walk(v, n) }

// TSAsExpression: `expr as Type`. Erased: the compiler lowers to Expression
// directly (spec Non-goals: no runtime type-checking of TypeScript).
type TSAsExpression struct {
	BaseNode
	Expression Expression
}

func (n *TSAsExpression) expressionNode()  {}
func (n *TSAsExpression) Children() []Node { return []Node{n.Expression} }
func (n *TSAsExpression) Accept(v Visitor) { Walk(v, n) }

// TSNonNullExpression: `expr!`. Erased, same as TSAsExpression.
type TSNonNullExpression struct {
	BaseNode
	Expression Expression
}

func (n *TSNonNullExpression) expressionNode()  {}
func (n *TSNonNullExpression) Children() []Node { return []Node{n.Expression} }
func (n *TSNonNullExpression) Accept(v Visitor)  { Walk(v, n) }
