// Package types defines the core type system of the rule engine.
//
// This package contains:
//   - Kind: the type-kind lattice (scalar and parameterized compound kinds)
//   - ASTNode: syntax tree nodes with statically inferred result kinds
//   - Expression: a compiled, immutable syntax tree
//   - Value helpers: normalization, equality, truthiness, coercion
//   - Error types: a structured root error with code classes, plus rich
//     parse and symbol-resolution errors
package types

// Expression represents a compiled rule expression.
//
// An Expression pairs the root of a fully constructed, statically checked
// syntax tree with its source text. It is immutable after construction and
// safe for concurrent use by multiple goroutines.
type Expression struct {
	ast    *ASTNode
	source string
}

// NewExpression creates a new Expression from a syntax tree root.
func NewExpression(ast *ASTNode, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// AST returns the root node of the syntax tree.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original rule text.
func (e *Expression) Source() string {
	return e.source
}

// String returns the rule text.
func (e *Expression) String() string {
	return e.source
}
