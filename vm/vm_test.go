package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsrun-lang/tsrun/ast"
	"github.com/tsrun-lang/tsrun/compiler"
	"github.com/tsrun-lang/tsrun/gc"
)

func num(v float64) *ast.Literal { return ast.NewNumberLiteral(ast.Span{}, v) }

func exprStmt(e ast.Expression) ast.Statement {
	return &ast.ExpressionStatement{BaseNode: ast.BaseNode{NodeKind: ast.KindExpressionStatement}, Expression: e}
}

func letDecl(name string, init ast.Expression) ast.Statement {
	return &ast.VarDeclaration{
		BaseNode: ast.BaseNode{NodeKind: ast.KindVarDeclaration},
		DeclKind: "let",
		Declarations: []*ast.VarDeclarator{
			{BaseNode: ast.BaseNode{NodeKind: ast.KindVarDeclarator}, Id: ast.NewIdentifier(ast.Span{}, name), Init: init},
		},
	}
}

func binOp(op string, l, r ast.Expression) ast.Expression {
	return &ast.BinaryExpression{BaseNode: ast.BaseNode{NodeKind: ast.KindBinaryExpression}, Operator: op, Left: l, Right: r}
}

// compileAndRun compiles prog and runs it to completion, returning the
// VM so callers can inspect CompletedValue/ThrownError/globals.
func compileAndRun(t *testing.T, stmts []ast.Statement) (*VM, Signal) {
	t.Helper()
	prog := ast.NewProgram(ast.Span{}, stmts, false)
	chunk, err := compiler.NewCompiler().Compile(prog)
	require.NoError(t, err)

	m := NewVM(gc.AggressiveThreshold)
	sig := m.LoadTopLevel(chunk)
	return m, sig
}

func TestRunArithmeticExpression(t *testing.T) {
	m, sig := compileAndRun(t, []ast.Statement{
		exprStmt(binOp("+", num(1), num(2))),
	})
	require.Equal(t, SigComplete, sig)
	require.Equal(t, float64(3), m.CompletedValue.AsNumber())
}

func TestRunStringConcatenation(t *testing.T) {
	m, sig := compileAndRun(t, []ast.Statement{
		exprStmt(binOp("+", ast.NewStringLiteral(ast.Span{}, "foo"), ast.NewStringLiteral(ast.Span{}, "bar"))),
	})
	require.Equal(t, SigComplete, sig)
	require.Equal(t, "foobar", m.CompletedValue.AsString())
}

func TestRunLetDeclarationAndRead(t *testing.T) {
	m, sig := compileAndRun(t, []ast.Statement{
		letDecl("x", num(41)),
		exprStmt(binOp("+", ast.NewIdentifier(ast.Span{}, "x"), num(1))),
	})
	require.Equal(t, SigComplete, sig)
	require.Equal(t, float64(42), m.CompletedValue.AsNumber())
}

func TestRunLooseEqualityCoercion(t *testing.T) {
	m, sig := compileAndRun(t, []ast.Statement{
		exprStmt(binOp("==", ast.NewStringLiteral(ast.Span{}, "1"), num(1))),
	})
	require.Equal(t, SigComplete, sig)
	require.True(t, m.CompletedValue.ToBoolean())
}

func TestRunStrictEqualityRejectsCoercion(t *testing.T) {
	m, sig := compileAndRun(t, []ast.Statement{
		exprStmt(binOp("===", ast.NewStringLiteral(ast.Span{}, "1"), num(1))),
	})
	require.Equal(t, SigComplete, sig)
	require.False(t, m.CompletedValue.ToBoolean())
}

func TestRunThrowUncaughtReportsSigThrow(t *testing.T) {
	m, sig := compileAndRun(t, []ast.Statement{
		&ast.ThrowStatement{BaseNode: ast.BaseNode{NodeKind: ast.KindThrowStatement}, Argument: ast.NewStringLiteral(ast.Span{}, "boom")},
	})
	require.Equal(t, SigThrow, sig)
	require.NotNil(t, m.ThrownError)
	require.Contains(t, m.ThrownError.Message, "boom")
}

func TestRunTryCatchRecoversThrownValue(t *testing.T) {
	m, sig := compileAndRun(t, []ast.Statement{
		&ast.TryStatement{
			BaseNode: ast.BaseNode{NodeKind: ast.KindTryStatement},
			Block: &ast.BlockStatement{BaseNode: ast.BaseNode{NodeKind: ast.KindBlockStatement}, Body: []ast.Statement{
				&ast.ThrowStatement{BaseNode: ast.BaseNode{NodeKind: ast.KindThrowStatement}, Argument: num(7)},
			}},
			Handler: &ast.CatchClause{
				BaseNode: ast.BaseNode{NodeKind: ast.KindCatchClause},
				Param:    ast.NewIdentifier(ast.Span{}, "e"),
				Body: &ast.BlockStatement{BaseNode: ast.BaseNode{NodeKind: ast.KindBlockStatement}, Body: []ast.Statement{
					exprStmt(ast.NewIdentifier(ast.Span{}, "e")),
				}},
			},
		},
	})
	require.Equal(t, SigComplete, sig)
	_ = m
}

func TestNewVMGlobalObjectIsARootedHeapObject(t *testing.T) {
	m := NewVM(gc.AggressiveThreshold)
	require.True(t, m.Globals.Valid())
	obj := m.globalObject()
	require.NotNil(t, obj)
}
