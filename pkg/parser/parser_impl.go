package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

// Parser implements a recursive descent parser for rule expressions.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	current Token
	depth   int
	opts    CompileOptions
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		Timezone: time.UTC,
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Timezone == nil {
		options.Timezone = time.UTC
	}

	p := &Parser{
		lexer: NewLexer(input),
		opts:  options,
	}

	// Read the first token
	p.advance(false)

	return p
}

// Parse parses the entire expression and returns the compiled Expression.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	if p.current.Type == TokenEOF {
		return nil, p.errorf(types.ErrUnexpectedEnd, "empty expression")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		return nil, p.errorf(types.ErrSyntax, "unexpected token %q", p.current.Value)
	}

	return types.NewExpression(node, p.lexer.input), nil
}

// Operator precedence table (binding power).
// Higher values bind more tightly.
var precedence = map[TokenType]int{
	TokenCondition:     10, // ?: ternary
	TokenCoalesce:      15, // ??
	TokenOr:            20, // or
	TokenAnd:           25, // and
	TokenIn:            35, // in
	TokenRegexMatch:    35, // =~
	TokenRegexNotMatch: 35, // !~
	TokenEqual:         40, // ==
	TokenNotEqual:      40, // !=
	TokenLess:          40, // <
	TokenLessEqual:     40, // <=
	TokenGreater:       40, // >
	TokenGreaterEqual:  40, // >=
	TokenPlus:          50, // +
	TokenMinus:         50, // -
	TokenMult:          60, // *
	TokenDiv:           60, // /
	TokenMod:           60, // %
	TokenPow:           65, // ** (right-associative)
	TokenDot:           80, // . attribute access
	TokenBracketOpen:   80, // [ index
	TokenParenOpen:     80, // ( call
}

// Binding power of prefix operators.
const (
	notPrecedence    = 28 // looser than comparisons, tighter than and
	uminusPrecedence = 70 // tighter than ** operands
)

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	return precedence[tt]
}

// advance moves to the next token. allowRegex is true directly after the
// regex-match operators, where a / starts a regex literal instead of a
// division.
func (p *Parser) advance(allowRegex bool) {
	p.current = p.lexer.Next(allowRegex)
}

// expect checks that the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.errorf(types.ErrExpectedToken, "expected %s but got %s", tt.String(), p.describeCurrent())
	}
	p.advance(false)
	return nil
}

func (p *Parser) describeCurrent() string {
	if p.current.Type == TokenEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", p.current.Value)
}

// errorf creates a parse error at the current token.
func (p *Parser) errorf(code types.ErrorCode, format string, args ...any) error {
	return types.NewParseError(code, fmt.Sprintf(format, args...),
		p.current.Value, p.current.Position, p.current.Line, p.current.Column)
}

// staticError converts a kind rule violation into a positioned T-class error.
func (p *Parser) staticError(err error, node *types.ASTNode) error {
	var engineErr *types.Error
	if e, ok := err.(*types.Error); ok {
		engineErr = e
	} else {
		engineErr = types.NewError(types.ErrSyntax, err.Error())
	}
	engineErr.Position = node.Position
	engineErr.Line = node.Line
	engineErr.Column = node.Column
	return engineErr
}

// node allocates an AST node at the current token's location.
func (p *Parser) node(nodeType types.NodeType) *types.ASTNode {
	return types.NewASTNode(nodeType, p.current.Position, p.current.Line, p.current.Column)
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return nil, p.errorf(types.ErrSyntax, "expression nests too deeply")
	}

	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression (null denotation).
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	switch p.current.Type {
	case TokenFloat:
		return p.parseFloat()
	case TokenString:
		return p.parseString()
	case TokenBytes:
		return p.parseBytes()
	case TokenDatetime:
		return p.parseDatetime()
	case TokenTimedelta:
		return p.parseTimedelta()
	case TokenBoolean:
		return p.parseBoolean()
	case TokenNull:
		return p.parseNull()
	case TokenRegex:
		return p.parseRegex()
	case TokenSymbol:
		return p.parseSymbol()
	case TokenBuiltin:
		return p.parseBuiltin()
	case TokenMinus:
		return p.parseUnary("-", uminusPrecedence)
	case TokenNot:
		return p.parseUnary("not", notPrecedence)
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenBracketOpen:
		return p.parseArrayOrComprehension()
	case TokenBraceOpen:
		return p.parseBraceConstruct()
	case TokenEOF:
		return nil, p.errorf(types.ErrUnexpectedEnd, "missing operand at end of expression")
	case TokenError:
		return nil, p.lexer.Error()
	default:
		return nil, p.errorf(types.ErrSyntax, "unexpected token %q", p.current.Value)
	}
}

// parseInfix parses an infix expression (left denotation).
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	switch p.current.Type {
	case TokenDot:
		return p.parseAttribute(left)
	case TokenBracketOpen:
		return p.parseIndex(left)
	case TokenParenOpen:
		return p.parseCall(left)
	case TokenCondition:
		return p.parseTernary(left)
	case TokenPlus, TokenMinus, TokenMult, TokenDiv, TokenMod, TokenPow:
		return p.parseArithmetic(left)
	case TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual:
		return p.parseComparison(left)
	case TokenAnd, TokenOr:
		return p.parseLogical(left)
	case TokenIn:
		return p.parseMembership(left)
	case TokenRegexMatch, TokenRegexNotMatch:
		return p.parseRegexMatch(left)
	case TokenCoalesce:
		return p.parseCoalesce(left)
	default:
		return nil, p.errorf(types.ErrSyntax, "unexpected infix token %q", p.current.Value)
	}
}

// Literals

func (p *Parser) parseFloat() (*types.ASTNode, error) {
	node := p.node(types.NodeFloat)
	d, _, err := apd.NewFromString(p.current.Value)
	if err != nil {
		return nil, p.errorf(types.ErrInvalidNumber, "invalid number %q", p.current.Value)
	}
	node.Value = d
	node.ResultKind = types.Float
	p.advance(false)
	return node, nil
}

func (p *Parser) parseString() (*types.ASTNode, error) {
	node := p.node(types.NodeString)
	unescaped, err := unescapeString(p.current.Value)
	if err != nil {
		return nil, p.errorf(types.ErrInvalidEscape, "invalid string literal: %v", err)
	}
	node.Value = unescaped
	node.ResultKind = types.String
	p.advance(false)
	return node, nil
}

func (p *Parser) parseBytes() (*types.ASTNode, error) {
	node := p.node(types.NodeBytes)
	unescaped, err := unescapeString(p.current.Value)
	if err != nil {
		return nil, p.errorf(types.ErrInvalidEscape, "invalid bytes literal: %v", err)
	}
	node.Value = []byte(unescaped)
	node.ResultKind = types.Bytes
	p.advance(false)
	return node, nil
}

// datetimeFormats are tried in order for d"..." literals. Formats without
// an offset are interpreted in the configured timezone.
var datetimeFormats = []struct {
	layout    string
	hasOffset bool
}{
	{time.RFC3339Nano, true},
	{time.RFC3339, true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", false},
}

func (p *Parser) parseDatetime() (*types.ASTNode, error) {
	node := p.node(types.NodeDatetime)
	var parsed time.Time
	var err error
	for _, f := range datetimeFormats {
		if f.hasOffset {
			parsed, err = time.Parse(f.layout, p.current.Value)
		} else {
			parsed, err = time.ParseInLocation(f.layout, p.current.Value, p.opts.Timezone)
		}
		if err == nil {
			node.Value = parsed
			node.ResultKind = types.Datetime
			p.advance(false)
			return node, nil
		}
	}
	return nil, p.errorf(types.ErrInvalidDatetime, "invalid datetime literal %q", p.current.Value)
}

func (p *Parser) parseTimedelta() (*types.ASTNode, error) {
	node := p.node(types.NodeTimedelta)
	d, err := time.ParseDuration(p.current.Value)
	if err != nil {
		return nil, p.errorf(types.ErrInvalidTimedelta, "invalid timedelta literal %q", p.current.Value)
	}
	node.Value = d
	node.ResultKind = types.Timedelta
	p.advance(false)
	return node, nil
}

func (p *Parser) parseBoolean() (*types.ASTNode, error) {
	node := p.node(types.NodeBoolean)
	node.Value = p.current.Value == "true"
	node.ResultKind = types.Boolean
	p.advance(false)
	return node, nil
}

func (p *Parser) parseNull() (*types.ASTNode, error) {
	node := p.node(types.NodeNull)
	node.ResultKind = types.Null
	p.advance(false)
	return node, nil
}

func (p *Parser) parseRegex() (*types.ASTNode, error) {
	node := p.node(types.NodeRegex)
	re, err := regexp.Compile(p.current.Value)
	if err != nil {
		return nil, p.errorf(types.ErrInvalidRegex, "invalid regex literal: %v", err)
	}
	node.Value = re
	// A regex literal occupies pattern position, so it checks as a string.
	node.ResultKind = types.String
	p.advance(false)
	return node, nil
}

// References

func (p *Parser) parseSymbol() (*types.ASTNode, error) {
	node := p.node(types.NodeSymbol)
	node.Name = p.current.Value
	node.ResultKind = types.Unknown
	if p.opts.TypeHint != nil {
		if kind, ok := p.opts.TypeHint(node.Name); ok {
			node.ResultKind = kind
		}
	}
	p.advance(false)
	return node, nil
}

func (p *Parser) parseBuiltin() (*types.ASTNode, error) {
	node := p.node(types.NodeBuiltin)
	node.Name = p.current.Value
	node.ResultKind = types.Unknown
	p.advance(false)
	return node, nil
}

// Operators

func (p *Parser) parseUnary(op string, rbp int) (*types.ASTNode, error) {
	node := p.node(types.NodeUnary)
	node.Op = op
	p.advance(false)

	operand, err := p.parseExpression(rbp)
	if err != nil {
		return nil, err
	}
	node.RHS = operand

	kind, err := types.UnaryKind(op, operand.ResultKind)
	if err != nil {
		return nil, p.staticError(err, node)
	}
	node.ResultKind = kind
	return node, nil
}

func (p *Parser) parseArithmetic(left *types.ASTNode) (*types.ASTNode, error) {
	node := p.node(types.NodeArithmetic)
	node.Op = p.current.Type.String()
	prec := p.getPrecedence(p.current.Type)
	if p.current.Type == TokenPow {
		prec-- // right-associative
	}
	p.advance(false)

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	node.LHS = left
	node.RHS = right

	kind, err := types.ArithmeticKind(node.Op, left.ResultKind, right.ResultKind)
	if err != nil {
		return nil, p.staticError(err, node)
	}
	node.ResultKind = kind
	return node, nil
}

func (p *Parser) parseComparison(left *types.ASTNode) (*types.ASTNode, error) {
	node := p.node(types.NodeComparison)
	node.Op = p.current.Type.String()
	prec := p.getPrecedence(p.current.Type)
	p.advance(false)

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	node.LHS = left
	node.RHS = right

	kind, err := types.ComparisonKind(node.Op, left.ResultKind, right.ResultKind)
	if err != nil {
		return nil, p.staticError(err, node)
	}
	node.ResultKind = kind
	return node, nil
}

func (p *Parser) parseLogical(left *types.ASTNode) (*types.ASTNode, error) {
	node := p.node(types.NodeLogical)
	node.Op = p.current.Type.String()
	prec := p.getPrecedence(p.current.Type)
	p.advance(false)

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	node.LHS = left
	node.RHS = right
	node.ResultKind = types.LogicalKind(left.ResultKind, right.ResultKind)
	return node, nil
}

func (p *Parser) parseMembership(left *types.ASTNode) (*types.ASTNode, error) {
	node := p.node(types.NodeMembership)
	node.Op = "in"
	prec := p.getPrecedence(TokenIn)
	p.advance(false)

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	node.LHS = left
	node.RHS = right

	kind, err := types.MembershipKind(left.ResultKind, right.ResultKind)
	if err != nil {
		return nil, p.staticError(err, node)
	}
	node.ResultKind = kind
	return node, nil
}

func (p *Parser) parseRegexMatch(left *types.ASTNode) (*types.ASTNode, error) {
	node := p.node(types.NodeRegexMatch)
	node.Op = p.current.Type.String()
	prec := p.getPrecedence(p.current.Type)
	// A / directly after =~ or !~ starts a regex literal.
	p.advance(true)

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	node.LHS = left
	node.RHS = right

	kind, err := types.RegexMatchKind(left.ResultKind, right.ResultKind)
	if err != nil {
		return nil, p.staticError(err, node)
	}
	node.ResultKind = kind
	return node, nil
}

func (p *Parser) parseCoalesce(left *types.ASTNode) (*types.ASTNode, error) {
	node := p.node(types.NodeCoalesce)
	node.Op = "??"
	prec := p.getPrecedence(TokenCoalesce)
	p.advance(false)

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	node.LHS = left
	node.RHS = right
	node.ResultKind = types.CoalesceKind(left.ResultKind, right.ResultKind)
	return node, nil
}

func (p *Parser) parseTernary(cond *types.ASTNode) (*types.ASTNode, error) {
	node := p.node(types.NodeTernary)
	p.advance(false) // skip '?'

	thenExpr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	// Right-associative: a ? b : c ? d : e groups as a ? b : (c ? d : e).
	elseExpr, err := p.parseExpression(precedence[TokenCondition] - 1)
	if err != nil {
		return nil, err
	}

	node.LHS = cond
	node.RHS = thenExpr
	node.Expressions = []*types.ASTNode{elseExpr}
	node.ResultKind = types.TernaryKind(thenExpr.ResultKind, elseExpr.ResultKind)
	return node, nil
}

// Access

func (p *Parser) parseAttribute(left *types.ASTNode) (*types.ASTNode, error) {
	node := p.node(types.NodeAttribute)
	p.advance(false) // skip '.'

	if p.current.Type != TokenSymbol {
		return nil, p.errorf(types.ErrExpectedToken, "expected attribute name but got %s", p.describeCurrent())
	}
	node.LHS = left
	node.Name = p.current.Value
	p.advance(false)

	// When the base kind is statically known, the capability table gives
	// the attribute's kind; a miss is not an error since the Context
	// resolver may still know the name at runtime.
	if kind, ok := types.AttributeKind(left.ResultKind, node.Name); ok {
		node.ResultKind = kind
	} else {
		node.ResultKind = types.Unknown
	}
	return node, nil
}

func (p *Parser) parseIndex(left *types.ASTNode) (*types.ASTNode, error) {
	node := p.node(types.NodeIndex)
	p.advance(false) // skip '['

	index, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}

	node.LHS = left
	node.RHS = index
	if k := left.ResultKind; k.Tag == types.KindArray && k.Elem != nil {
		node.ResultKind = *k.Elem
	} else if k.Tag == types.KindMapping && k.Elem != nil {
		node.ResultKind = *k.Elem
	} else if k.Tag == types.KindString {
		node.ResultKind = types.String
	} else {
		node.ResultKind = types.Unknown
	}
	return node, nil
}

// Invocation and quantifier comprehensions

func (p *Parser) parseCall(left *types.ASTNode) (*types.ASTNode, error) {
	openTok := p.current
	p.advance(false) // skip '('

	quantifier := left.Type == types.NodeSymbol && (left.Name == types.CompAny || left.Name == types.CompAll)

	node := types.NewASTNode(types.NodeCall, openTok.Position, openTok.Line, openTok.Column)
	node.LHS = left
	node.Arguments = []*types.ASTNode{}

	if p.current.Type != TokenParenClose {
		for {
			arg, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}

			// any(cond for sym in iterable) / all(...) parse as quantifier
			// comprehensions, not calls.
			if quantifier && len(node.Arguments) == 0 && p.current.Type == TokenFor {
				comp, err := p.parseComprehensionTail(left.Name, arg, nil, openTok)
				if err != nil {
					return nil, err
				}
				if err := p.expect(TokenParenClose); err != nil {
					return nil, err
				}
				comp.ResultKind = types.Boolean
				return comp, nil
			}

			node.Arguments = append(node.Arguments, arg)

			if p.current.Type == TokenParenClose {
				break
			}
			if err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}

	if k := left.ResultKind; k.Tag == types.KindFunction && k.Ret != nil {
		node.ResultKind = *k.Ret
	} else {
		node.ResultKind = types.Unknown
	}
	return node, nil
}

// Constructors and comprehensions

func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	p.advance(false) // skip '('
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseArrayOrComprehension() (*types.ASTNode, error) {
	openTok := p.current
	p.advance(false) // skip '['

	node := types.NewASTNode(types.NodeArray, openTok.Position, openTok.Line, openTok.Column)
	node.Expressions = []*types.ASTNode{}

	if p.current.Type == TokenBracketClose {
		p.advance(false)
		node.ResultKind = types.ArrayOf(types.Unknown)
		return node, nil
	}

	first, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	// [expr for sym in iterable if cond]
	if p.current.Type == TokenFor {
		comp, err := p.parseComprehensionTail(types.CompArray, first, nil, openTok)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenBracketClose); err != nil {
			return nil, err
		}
		comp.ResultKind = types.ArrayOf(first.ResultKind)
		return comp, nil
	}

	node.Expressions = append(node.Expressions, first)
	for p.current.Type == TokenComma {
		p.advance(false)
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Expressions = append(node.Expressions, expr)
	}
	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}

	elems := make([]types.Kind, len(node.Expressions))
	for i, e := range node.Expressions {
		elems[i] = e.ResultKind
	}
	kind, err := types.ArrayLiteralKind(elems)
	if err != nil {
		return nil, p.staticError(err, node)
	}
	node.ResultKind = kind
	return node, nil
}

// parseBraceConstruct parses set literals, mapping literals and their
// comprehension forms, which all open with a brace.
func (p *Parser) parseBraceConstruct() (*types.ASTNode, error) {
	openTok := p.current
	p.advance(false) // skip '{'

	// {} is the empty mapping
	if p.current.Type == TokenBraceClose {
		p.advance(false)
		node := types.NewASTNode(types.NodeMapping, openTok.Position, openTok.Line, openTok.Column)
		node.Expressions = []*types.ASTNode{}
		node.ResultKind = types.MappingOf(types.Unknown, types.Unknown)
		return node, nil
	}

	first, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type == TokenColon {
		return p.parseMappingConstruct(first, openTok)
	}
	return p.parseSetConstruct(first, openTok)
}

func (p *Parser) parseSetConstruct(first *types.ASTNode, openTok Token) (*types.ASTNode, error) {
	// {expr for sym in iterable if cond}
	if p.current.Type == TokenFor {
		comp, err := p.parseComprehensionTail(types.CompSet, first, nil, openTok)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenBraceClose); err != nil {
			return nil, err
		}
		comp.ResultKind = types.SetOf(first.ResultKind)
		return comp, nil
	}

	node := types.NewASTNode(types.NodeSet, openTok.Position, openTok.Line, openTok.Column)
	node.Expressions = []*types.ASTNode{first}
	for p.current.Type == TokenComma {
		p.advance(false)
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Expressions = append(node.Expressions, expr)
	}
	if err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}

	elems := make([]types.Kind, len(node.Expressions))
	for i, e := range node.Expressions {
		elems[i] = e.ResultKind
	}
	kind, err := types.SetLiteralKind(elems)
	if err != nil {
		return nil, p.staticError(err, node)
	}
	node.ResultKind = kind
	return node, nil
}

func (p *Parser) parseMappingConstruct(firstKey *types.ASTNode, openTok Token) (*types.ASTNode, error) {
	p.advance(false) // skip ':'

	firstValue, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	// {key: value for sym in iterable if cond}
	if p.current.Type == TokenFor {
		comp, err := p.parseComprehensionTail(types.CompMapping, firstKey, firstValue, openTok)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenBraceClose); err != nil {
			return nil, err
		}
		comp.ResultKind = types.MappingOf(firstKey.ResultKind, firstValue.ResultKind)
		return comp, nil
	}

	node := types.NewASTNode(types.NodeMapping, openTok.Position, openTok.Line, openTok.Column)
	node.Expressions = []*types.ASTNode{firstKey, firstValue}
	for p.current.Type == TokenComma {
		p.advance(false)
		key, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Expressions = append(node.Expressions, key, value)
	}
	if err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}

	var keys, values []types.Kind
	for i := 0; i < len(node.Expressions); i += 2 {
		keys = append(keys, node.Expressions[i].ResultKind)
		values = append(values, node.Expressions[i+1].ResultKind)
	}
	kind, err := types.MappingLiteralKind(keys, values)
	if err != nil {
		return nil, p.staticError(err, node)
	}
	node.ResultKind = kind
	return node, nil
}

// parseComprehensionTail parses "for sym in iterable [if cond]" and builds
// a comprehension node of the given form. elem is the element (or key)
// expression already parsed; value is the mapping value expression or nil.
// The caller consumes the closing delimiter and sets the result kind.
func (p *Parser) parseComprehensionTail(form string, elem, value *types.ASTNode, openTok Token) (*types.ASTNode, error) {
	p.advance(false) // skip 'for'

	if p.current.Type != TokenSymbol {
		return nil, p.errorf(types.ErrExpectedToken, "expected a symbol to bind but got %s", p.describeCurrent())
	}
	symbol := p.current.Value
	p.advance(false)

	if err := p.expect(TokenIn); err != nil {
		return nil, err
	}

	iterable, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	node := types.NewASTNode(types.NodeComprehension, openTok.Position, openTok.Line, openTok.Column)
	node.StrValue = form
	node.Name = symbol
	node.LHS = elem
	node.RHS = iterable
	if value != nil {
		node.Expressions = []*types.ASTNode{value}
	}

	if p.current.Type == TokenIf {
		p.advance(false)
		cond, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Cond = cond
	}

	return node, nil
}

// unescapeString processes escape sequences in a string literal.
// Handles the standard escapes and \uXXXX Unicode escapes.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil // Fast path: no escapes
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			result.WriteByte(s[i])
			continue
		}

		i++ // Skip backslash
		if i >= len(s) {
			return "", fmt.Errorf("dangling escape at end of string")
		}

		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case 'b':
			result.WriteByte('\b')
		case 'f':
			result.WriteByte('\f')
		case '\\':
			result.WriteByte('\\')
		case '"':
			result.WriteByte('"')
		case '\'':
			result.WriteByte('\'')
		case '/':
			result.WriteByte('/')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("truncated \\u escape")
			}
			hex := s[i+1 : i+5]
			codePoint, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid \\u escape: %s", hex)
			}
			result.WriteRune(rune(codePoint))
			i += 4
		default:
			// Unknown escapes pass through verbatim so regex patterns
			// written as strings keep their backslashes.
			result.WriteByte('\\')
			result.WriteByte(s[i])
		}
	}

	return result.String(), nil
}
