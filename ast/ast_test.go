package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type countingVisitor struct{ count int }

func (c *countingVisitor) Visit(n Node) bool {
	c.count++
	return true
}

func TestWalkVisitsEveryNode(t *testing.T) {
	prog := NewProgram(Span{}, []Statement{
		&ExpressionStatement{
			BaseNode:   BaseNode{NodeKind: KindExpressionStatement},
			Expression: NewNumberLiteral(Span{}, 1),
		},
		&VarDeclaration{
			BaseNode: BaseNode{NodeKind: KindVarDeclaration},
			DeclKind: "let",
			Declarations: []*VarDeclarator{
				{BaseNode: BaseNode{NodeKind: KindVarDeclarator}, Id: NewIdentifier(Span{}, "x"), Init: NewNumberLiteral(Span{}, 2)},
			},
		},
	}, false)

	v := &countingVisitor{}
	Walk(v, prog)
	// program + 2 statements + literal + declarator + identifier + literal = 7
	require.Equal(t, 7, v.count)
}

func TestArrayExpressionSkipsHoles(t *testing.T) {
	arr := &ArrayExpression{
		BaseNode: BaseNode{NodeKind: KindArrayExpression},
		Elements: []Expression{NewNumberLiteral(Span{}, 1), nil, NewNumberLiteral(Span{}, 3)},
	}
	require.Len(t, arr.Children(), 2)
}

func TestIdentifierSatisfiesExpressionAndPattern(t *testing.T) {
	id := NewIdentifier(Span{}, "x")
	var _ Expression = id
	var _ Pattern = id
	require.Equal(t, KindIdentifier, id.Kind())
}

func TestKindStringUnknownFallsBack(t *testing.T) {
	require.Equal(t, "KindUnknown", Kind(9999).String())
	require.Equal(t, "Program", KindProgram.String())
}
