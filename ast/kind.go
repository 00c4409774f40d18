package ast

// Kind tags which concrete node type a Node value holds, mirroring the
// teacher's grouped-enum-plus-interface shape but over JS/TS node shapes
// instead of PHP ones. The lexer/parser are out of scope (spec §1): this
// package only names the shapes the compiler consumes.
type Kind int

const (
	KindInvalid Kind = iota

	// Program & declarations (1-16)
	KindProgram
	KindVarDeclaration
	KindVarDeclarator
	KindFunctionDeclaration
	KindClassDeclaration
	KindClassBody
	KindMethodDefinition
	KindPropertyDefinition
	KindImportDeclaration
	KindImportSpecifier
	KindImportDefaultSpecifier
	KindImportNamespaceSpecifier
	KindExportNamedDeclaration
	KindExportDefaultDeclaration
	KindExportAllDeclaration
	KindExportSpecifier

	// Statements (17-35)
	KindBlockStatement
	KindExpressionStatement
	KindEmptyStatement
	KindIfStatement
	KindForStatement
	KindForInStatement
	KindForOfStatement
	KindWhileStatement
	KindDoWhileStatement
	KindSwitchStatement
	KindSwitchCase
	KindTryStatement
	KindCatchClause
	KindThrowStatement
	KindReturnStatement
	KindBreakStatement
	KindContinueStatement
	KindLabeledStatement
	KindDebuggerStatement

	// Expressions (36-64)
	KindIdentifier
	KindPrivateIdentifier
	KindLiteral
	KindTemplateLiteral
	KindTemplateElement
	KindTaggedTemplateExpression
	KindRegExpLiteral
	KindArrayExpression
	KindObjectExpression
	KindProperty
	KindFunctionExpression
	KindArrowFunctionExpression
	KindClassExpression
	KindThisExpression
	KindSuperExpression
	KindUnaryExpression
	KindUpdateExpression
	KindBinaryExpression
	KindLogicalExpression
	KindAssignmentExpression
	KindConditionalExpression
	KindCallExpression
	KindNewExpression
	KindMemberExpression
	KindSequenceExpression
	KindSpreadElement
	KindYieldExpression
	KindAwaitExpression
	KindParenthesizedExpression

	// Patterns (65-68)
	KindArrayPattern
	KindObjectPattern
	KindAssignmentPattern
	KindRestElement

	// TypeScript syntax accepted-and-erased (69-74): the compiler never
	// lowers these to bytecode, it strips them while walking (spec §1).
	KindTSTypeAnnotation
	KindTSAsExpression
	KindTSNonNullExpression
	KindTSInterfaceDeclaration
	KindTSTypeAliasDeclaration
	KindTSEnumDeclaration
)

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "KindUnknown"
}

var kindNames = map[Kind]string{
	KindProgram:                  "Program",
	KindVarDeclaration:           "VarDeclaration",
	KindVarDeclarator:            "VarDeclarator",
	KindFunctionDeclaration:      "FunctionDeclaration",
	KindClassDeclaration:         "ClassDeclaration",
	KindClassBody:                "ClassBody",
	KindMethodDefinition:         "MethodDefinition",
	KindPropertyDefinition:       "PropertyDefinition",
	KindImportDeclaration:        "ImportDeclaration",
	KindImportSpecifier:          "ImportSpecifier",
	KindImportDefaultSpecifier:   "ImportDefaultSpecifier",
	KindImportNamespaceSpecifier: "ImportNamespaceSpecifier",
	KindExportNamedDeclaration:   "ExportNamedDeclaration",
	KindExportDefaultDeclaration: "ExportDefaultDeclaration",
	KindExportAllDeclaration:     "ExportAllDeclaration",
	KindExportSpecifier:          "ExportSpecifier",

	KindBlockStatement:      "BlockStatement",
	KindExpressionStatement: "ExpressionStatement",
	KindEmptyStatement:      "EmptyStatement",
	KindIfStatement:         "IfStatement",
	KindForStatement:        "ForStatement",
	KindForInStatement:      "ForInStatement",
	KindForOfStatement:      "ForOfStatement",
	KindWhileStatement:      "WhileStatement",
	KindDoWhileStatement:    "DoWhileStatement",
	KindSwitchStatement:     "SwitchStatement",
	KindSwitchCase:          "SwitchCase",
	KindTryStatement:        "TryStatement",
	KindCatchClause:         "CatchClause",
	KindThrowStatement:      "ThrowStatement",
	KindReturnStatement:     "ReturnStatement",
	KindBreakStatement:      "BreakStatement",
	KindContinueStatement:   "ContinueStatement",
	KindLabeledStatement:    "LabeledStatement",
	KindDebuggerStatement:   "DebuggerStatement",

	KindIdentifier:               "Identifier",
	KindPrivateIdentifier:        "PrivateIdentifier",
	KindLiteral:                  "Literal",
	KindTemplateLiteral:          "TemplateLiteral",
	KindTemplateElement:          "TemplateElement",
	KindTaggedTemplateExpression: "TaggedTemplateExpression",
	KindRegExpLiteral:            "RegExpLiteral",
	KindArrayExpression:          "ArrayExpression",
	KindObjectExpression:         "ObjectExpression",
	KindProperty:                 "Property",
	KindFunctionExpression:       "FunctionExpression",
	KindArrowFunctionExpression:  "ArrowFunctionExpression",
	KindClassExpression:          "ClassExpression",
	KindThisExpression:           "ThisExpression",
	KindSuperExpression:          "SuperExpression",
	KindUnaryExpression:          "UnaryExpression",
	KindUpdateExpression:         "UpdateExpression",
	KindBinaryExpression:         "BinaryExpression",
	KindLogicalExpression:        "LogicalExpression",
	KindAssignmentExpression:     "AssignmentExpression",
	KindConditionalExpression:    "ConditionalExpression",
	KindCallExpression:           "CallExpression",
	KindNewExpression:            "NewExpression",
	KindMemberExpression:         "MemberExpression",
	KindSequenceExpression:       "SequenceExpression",
	KindSpreadElement:            "SpreadElement",
	KindYieldExpression:          "YieldExpression",
	KindAwaitExpression:          "AwaitExpression",
	KindParenthesizedExpression:  "ParenthesizedExpression",

	KindArrayPattern:      "ArrayPattern",
	KindObjectPattern:     "ObjectPattern",
	KindAssignmentPattern: "AssignmentPattern",
	KindRestElement:       "RestElement",

	KindTSTypeAnnotation:       "TSTypeAnnotation",
	KindTSAsExpression:         "TSAsExpression",
	KindTSNonNullExpression:    "TSNonNullExpression",
	KindTSInterfaceDeclaration: "TSInterfaceDeclaration",
	KindTSTypeAliasDeclaration: "TSTypeAliasDeclaration",
	KindTSEnumDeclaration:      "TSEnumDeclaration",
}
