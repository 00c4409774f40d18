package ast

// VarDeclarator: one `id [= init]` inside a VarDeclaration.
type VarDeclarator struct {
	BaseNode
	Id   Pattern
	Init Expression // nil if uninitialized
}

func (n *VarDeclarator) Children() []Node {
	if n.Init == nil {
		return []Node{n.Id}
	}
	return []Node{n.Id, n.Init}
}
func (n *VarDeclarator) Accept(v Visitor) { Walk(v, n) }

// VarDeclaration: `var`/`let`/`const`. The compiler's environment opcodes
// (OP_DECLARE_LET/CONST/VAR) key off DeclKind (spec §4.2 Environment
// family).
type VarDeclaration struct {
	BaseNode
	DeclKind     string // "var", "let", "const"
	Declarations []*VarDeclarator
}

func (n *VarDeclaration) statementNode() {}
func (n *VarDeclaration) Children() []Node {
	out := make([]Node, len(n.Declarations))
	for i, d := range n.Declarations {
		out[i] = d
	}
	return out
}
func (n *VarDeclaration) Accept(v Visitor) { Walk(v, n) }

// FunctionDeclaration: a named function statement; Id is never nil here
// (an unnamed function can only appear as a FunctionExpression).
type FunctionDeclaration struct {
	BaseNode
	Id        *Identifier
	Params    []Pattern
	Body      *BlockStatement
	Generator bool
	Async     bool
}

func (n *FunctionDeclaration) statementNode() {}
func (n *FunctionDeclaration) Children() []Node {
	out := make([]Node, 0, len(n.Params)+2)
	out = append(out, n.Id)
	for _, p := range n.Params {
		out = append(out, p)
	}
	return append(out, n.Body)
}
func (n *FunctionDeclaration) Accept(v Visitor) { Walk(v, n) }

// MethodDefinition is one entry of a ClassBody: a method, getter, setter,
// or the constructor.
type MethodDefinition struct {
	BaseNode
	Key       Expression
	Value     *FunctionExpression
	MethodKind string // "method", "get", "set", "constructor"
	Static    bool
	Computed  bool
}

func (n *MethodDefinition) Children() []Node { return []Node{n.Key, n.Value} }
func (n *MethodDefinition) Accept(v Visitor) { Walk(v, n) }

// PropertyDefinition is a class field, public or private (Key is a
// *PrivateIdentifier for `#name` fields — spec's Open Question (a)).
type PropertyDefinition struct {
	BaseNode
	Key      Expression
	Value    Expression // nil if uninitialized
	Static   bool
	Computed bool
}

func (n *PropertyDefinition) Children() []Node {
	if n.Value == nil {
		return []Node{n.Key}
	}
	return []Node{n.Key, n.Value}
}
func (n *PropertyDefinition) Accept(v Visitor) { Walk(v, n) }

// ClassBody holds a class's members in source order.
type ClassBody struct {
	BaseNode
	Body []Node // *MethodDefinition or *PropertyDefinition
}

func (n *ClassBody) Children() []Node { return n.Body }
func (n *ClassBody) Accept(v Visitor) { Walk(v, n) }

// ClassDeclaration: a named class statement.
type ClassDeclaration struct {
	BaseNode
	Id         *Identifier
	SuperClass Expression // nil for a base class
	Body       *ClassBody
}

func (n *ClassDeclaration) statementNode() {}
func (n *ClassDeclaration) Children() []Node {
	out := []Node{n.Id}
	if n.SuperClass != nil {
		out = append(out, n.SuperClass)
	}
	return append(out, n.Body)
}
func (n *ClassDeclaration) Accept(v Visitor) { Walk(v, n) }

// ClassExpression mirrors ClassDeclaration but in expression position; Id
// may be nil (anonymous class expression).
type ClassExpression struct {
	BaseNode
	Id         *Identifier
	SuperClass Expression
	Body       *ClassBody
}

func (n *ClassExpression) expressionNode() {}
func (n *ClassExpression) Children() []Node {
	var out []Node
	if n.Id != nil {
		out = append(out, n.Id)
	}
	if n.SuperClass != nil {
		out = append(out, n.SuperClass)
	}
	return append(out, n.Body)
}
func (n *ClassExpression) Accept(v Visitor) { Walk(v, n) }

// ImportSpecifier: `{ Imported as Local }` inside an import clause.
type ImportSpecifier struct {
	BaseNode
	Imported *Identifier
	Local    *Identifier
}

func (n *ImportSpecifier) Accept(v Visitor) { Walk(v, n) }

// ImportDefaultSpecifier: `import Local from ...`.
type ImportDefaultSpecifier struct {
	BaseNode
	Local *Identifier
}

func (n *ImportDefaultSpecifier) Accept(v Visitor) { Walk(v, n) }

// ImportNamespaceSpecifier: `import * as Local from ...`.
type ImportNamespaceSpecifier struct {
	BaseNode
	Local *Identifier
}

func (n *ImportNamespaceSpecifier) Accept(v Visitor) { Walk(v, n) }

// ImportDeclaration. Source is the raw specifier text; the runtime
// normalizes it per spec §4.4 (internal: prefix vs. host-resolved path).
type ImportDeclaration struct {
	BaseNode
	Specifiers []Node // *ImportSpecifier / *ImportDefaultSpecifier / *ImportNamespaceSpecifier
	Source     string
}

func (n *ImportDeclaration) statementNode()  {}
func (n *ImportDeclaration) Children() []Node { return n.Specifiers }
func (n *ImportDeclaration) Accept(v Visitor) { Walk(v, n) }

// ExportSpecifier: `{ Local as Exported }` inside an export clause.
type ExportSpecifier struct {
	BaseNode
	Local    *Identifier
	Exported *Identifier
}

func (n *ExportSpecifier) Accept(v Visitor) { Walk(v, n) }

// ExportNamedDeclaration covers both `export const x = ...` (Declaration
// set, Specifiers nil) and `export { a, b as c }` (Declaration nil).
// Source is non-empty for a re-export (`export { a } from "./m"`).
type ExportNamedDeclaration struct {
	BaseNode
	Declaration Statement
	Specifiers  []*ExportSpecifier
	Source      string
}

func (n *ExportNamedDeclaration) statementNode() {}
func (n *ExportNamedDeclaration) Children() []Node {
	if n.Declaration != nil {
		return []Node{n.Declaration}
	}
	out := make([]Node, len(n.Specifiers))
	for i, s := range n.Specifiers {
		out[i] = s
	}
	return out
}
func (n *ExportNamedDeclaration) Accept(v Visitor) { Walk(v, n) }

// ExportDefaultDeclaration: `export default <FunctionDeclaration |
// ClassDeclaration | Expression>`.
type ExportDefaultDeclaration struct {
	BaseNode
	Declaration Node
}

func (n *ExportDefaultDeclaration) statementNode()  {}
func (n *ExportDefaultDeclaration) Children() []Node { return []Node{n.Declaration} }
func (n *ExportDefaultDeclaration) Accept(v Visitor)  { Walk(v, n) }

// ExportAllDeclaration: `export * from "./m"` or `export * as ns from "./m"`.
type ExportAllDeclaration struct {
	BaseNode
	Exported *Identifier // nil for a bare `export *`
	Source   string
}

func (n *ExportAllDeclaration) statementNode()  {}
func (n *ExportAllDeclaration) Accept(v Visitor) { Walk(v, n) }

// TSInterfaceDeclaration, TSTypeAliasDeclaration, TSEnumDeclaration are
// accepted for TypeScript source compatibility and erased: the compiler
// walks past them without emitting bytecode (spec §1 Non-goals: no runtime
// type-checking of TypeScript). TSEnumDeclaration is the one exception
// worth a note — const-like numeric/string enums are a runtime construct
// in real TS, but this core treats all three uniformly as erased syntax,
// matching the distilled spec's "erase type annotations" framing.
type TSInterfaceDeclaration struct {
	BaseNode
	Name string
}

func (n *TSInterfaceDeclaration) statementNode()  {}
func (n *TSInterfaceDeclaration) Accept(v Visitor) { Walk(v, n) }

type TSTypeAliasDeclaration struct {
	BaseNode
	Name string
}

func (n *TSTypeAliasDeclaration) statementNode()  {}
func (n *TSTypeAliasDeclaration) Accept(v Visitor) { Walk(v, n) }

type TSEnumDeclaration struct {
	BaseNode
	Name string
}

func (n *TSEnumDeclaration) statementNode()  {}
func (n *TSEnumDeclaration) Accept(v Visitor) { Walk(v, n) }
