package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsrun-lang/tsrun/ast"
	"github.com/tsrun-lang/tsrun/opcodes"
)

func num(v float64) *ast.Literal { return ast.NewNumberLiteral(ast.Span{}, v) }

func TestCompileArithmeticExpression(t *testing.T) {
	prog := ast.NewProgram(ast.Span{}, []ast.Statement{
		&ast.ExpressionStatement{
			BaseNode: ast.BaseNode{NodeKind: ast.KindExpressionStatement},
			Expression: &ast.BinaryExpression{
				BaseNode: ast.BaseNode{NodeKind: ast.KindBinaryExpression},
				Operator: "+",
				Left:     num(1),
				Right:    num(2),
			},
		},
	}, false)

	chunk, err := NewCompiler().Compile(prog)
	require.NoError(t, err)
	require.NotEmpty(t, chunk.Instructions)

	var sawAdd bool
	for _, inst := range chunk.Instructions {
		if inst.Op == opcodes.OP_ADD {
			sawAdd = true
		}
	}
	require.True(t, sawAdd)
}

func TestCompileLetDeclarationAndRead(t *testing.T) {
	prog := ast.NewProgram(ast.Span{}, []ast.Statement{
		&ast.VarDeclaration{
			BaseNode: ast.BaseNode{NodeKind: ast.KindVarDeclaration},
			DeclKind: "let",
			Declarations: []*ast.VarDeclarator{
				{BaseNode: ast.BaseNode{NodeKind: ast.KindVarDeclarator}, Id: ast.NewIdentifier(ast.Span{}, "x"), Init: num(5)},
			},
		},
		&ast.ExpressionStatement{
			BaseNode:   ast.BaseNode{NodeKind: ast.KindExpressionStatement},
			Expression: ast.NewIdentifier(ast.Span{}, "x"),
		},
	}, false)

	chunk, err := NewCompiler().Compile(prog)
	require.NoError(t, err)

	var sawDeclareLet bool
	for _, inst := range chunk.Instructions {
		if inst.Op == opcodes.OP_DECLARE_LET {
			sawDeclareLet = true
		}
	}
	require.True(t, sawDeclareLet)
}

func TestCompileUnsupportedStatementReturnsError(t *testing.T) {
	prog := ast.NewProgram(ast.Span{}, []ast.Statement{
		&ast.VarDeclaration{
			BaseNode: ast.BaseNode{NodeKind: ast.KindVarDeclaration},
			DeclKind: "let",
			Declarations: []*ast.VarDeclarator{
				{BaseNode: ast.BaseNode{NodeKind: ast.KindVarDeclarator}, Id: &ast.ArrayPattern{BaseNode: ast.BaseNode{NodeKind: ast.KindArrayPattern}}, Init: num(1)},
			},
		},
	}, false)

	_, err := NewCompiler().Compile(prog)
	require.Error(t, err)
}

func TestDisassembleIncludesOpcodeMnemonics(t *testing.T) {
	prog := ast.NewProgram(ast.Span{}, []ast.Statement{
		&ast.ExpressionStatement{
			BaseNode:   ast.BaseNode{NodeKind: ast.KindExpressionStatement},
			Expression: num(1),
		},
	}, false)
	chunk, err := NewCompiler().Compile(prog)
	require.NoError(t, err)
	out := Disassemble(chunk)
	require.Contains(t, out, "LOAD_CONST")
}
