package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types. One node kind exists for every expression form of the
// rule grammar.
const (
	// Literals
	NodeNull      NodeType = "null"
	NodeBoolean   NodeType = "boolean"
	NodeFloat     NodeType = "float"
	NodeString    NodeType = "string"
	NodeBytes     NodeType = "bytes"
	NodeDatetime  NodeType = "datetime"
	NodeTimedelta NodeType = "timedelta"
	NodeRegex     NodeType = "regex" // /pattern/flags literal

	// References
	NodeSymbol  NodeType = "symbol"  // bare identifier, resolved against the thing
	NodeBuiltin NodeType = "builtin" // $name, resolved against the builtin table

	// Access
	NodeAttribute NodeType = "attribute" // LHS.name
	NodeIndex     NodeType = "index"     // LHS[RHS]

	// Operators
	NodeUnary      NodeType = "unary"      // -x, not x
	NodeArithmetic NodeType = "arithmetic" // + - * / % **
	NodeComparison NodeType = "comparison" // == != < <= > >=
	NodeLogical    NodeType = "logical"    // and, or (short-circuiting)
	NodeRegexMatch NodeType = "regexmatch" // =~, !~
	NodeMembership NodeType = "membership" // in
	NodeCoalesce   NodeType = "coalesce"   // ??
	NodeTernary    NodeType = "ternary"    // cond ? then : else

	// Constructors
	NodeArray   NodeType = "array"   // [a, b, c]
	NodeSet     NodeType = "set"     // {a, b, c}
	NodeMapping NodeType = "mapping" // {k: v, ...}

	// Comprehensions ([expr for sym in iter if cond] and friends)
	NodeComprehension NodeType = "comprehension"

	// Invocation
	NodeCall NodeType = "call" // callee(args...)
)

// Comprehension forms, stored in ASTNode.StrValue for NodeComprehension.
const (
	CompArray   = "array"   // [expr for sym in iter]
	CompSet     = "set"     // {expr for sym in iter}
	CompMapping = "mapping" // {key: value for sym in iter}
	CompAny     = "any"     // any(cond for sym in iter)
	CompAll     = "all"     // all(cond for sym in iter)
)

// ASTNode represents a node in the syntax tree of a rule.
//
// Field usage by node type:
//
//	literals        Value holds the literal's normalized value
//	symbol/builtin  Name holds the referenced name
//	attribute       LHS is the base expression, Name the attribute
//	index           LHS is the base, RHS the index expression
//	unary           Op is "-" or "not", RHS the operand
//	binary forms    Op is the operator, LHS and RHS the operands
//	ternary         LHS condition, RHS then-branch, Expressions[0] else
//	array/set       Expressions are the elements
//	mapping         Expressions are alternating key, value expressions
//	comprehension   StrValue is the form, Name the bound symbol,
//	                LHS the element (or key) expression, RHS the iterable,
//	                Expressions[0] the mapping value expression (nil slice
//	                otherwise), Cond the optional filter condition
//	call            LHS is the callee expression, Arguments the arguments
type ASTNode struct {
	Type     NodeType
	Value    any
	Op       string
	Name     string
	StrValue string
	Position int
	Line     int
	Column   int

	LHS         *ASTNode
	RHS         *ASTNode
	Cond        *ASTNode
	Expressions []*ASTNode
	Arguments   []*ASTNode

	// ResultKind is the statically inferred kind of this node, computed at
	// construction time for literal and structural nodes. Unknown when the
	// kind depends on runtime resolution.
	ResultKind Kind
}

// NewASTNode creates a new AST node of the specified type at a source
// location.
func NewASTNode(nodeType NodeType, position, line, column int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
		Line:     line,
		Column:   column,
	}
}

// String returns a string representation of the node type.
func (n *ASTNode) String() string {
	return string(n.Type)
}
