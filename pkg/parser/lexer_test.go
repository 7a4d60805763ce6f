package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	l := NewLexer(input)
	var tokens []Token
	allowRegex := false
	for {
		tok := l.Next(allowRegex)
		if tok.Type == TokenError {
			t.Fatalf("lex error on %q: %v", input, l.Error())
		}
		if tok.Type == TokenEOF {
			return tokens
		}
		allowRegex = tok.Type == TokenRegexMatch || tok.Type == TokenRegexNotMatch
		tokens = append(tokens, tok)
	}
}

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestLexerBasics(t *testing.T) {
	tests := []struct {
		input string
		want  []TokenType
	}{
		{`age >= 21`, []TokenType{TokenSymbol, TokenGreaterEqual, TokenFloat}},
		{`a == b != c`, []TokenType{TokenSymbol, TokenEqual, TokenSymbol, TokenNotEqual, TokenSymbol}},
		{`x ** 2 % 3`, []TokenType{TokenSymbol, TokenPow, TokenFloat, TokenMod, TokenFloat}},
		{`a and not b or c`, []TokenType{TokenSymbol, TokenAnd, TokenNot, TokenSymbol, TokenOr, TokenSymbol}},
		{`x in [1, 2]`, []TokenType{TokenSymbol, TokenIn, TokenBracketOpen, TokenFloat, TokenComma, TokenFloat, TokenBracketClose}},
		{`a ?? b ? c : d`, []TokenType{TokenSymbol, TokenCoalesce, TokenSymbol, TokenCondition, TokenSymbol, TokenColon, TokenSymbol}},
		{`true false null`, []TokenType{TokenBoolean, TokenBoolean, TokenNull}},
		{`$re_groups`, []TokenType{TokenBuiltin}},
		{`items.length`, []TokenType{TokenSymbol, TokenDot, TokenSymbol}},
		{`a / b`, []TokenType{TokenSymbol, TokenDiv, TokenSymbol}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenTypes(lexAll(t, tt.input)))
		})
	}
}

func TestLexerLiteralValues(t *testing.T) {
	tokens := lexAll(t, `"hello" 'world' 3.14 1e3`)
	require.Len(t, tokens, 4)
	assert.Equal(t, "hello", tokens[0].Value)
	assert.Equal(t, "world", tokens[1].Value)
	assert.Equal(t, "3.14", tokens[2].Value)
	assert.Equal(t, "1e3", tokens[3].Value)
}

func TestLexerPrefixedLiterals(t *testing.T) {
	tokens := lexAll(t, `d"2024-01-01" t"1h30m" b"raw"`)
	require.Len(t, tokens, 3)
	assert.Equal(t, TokenDatetime, tokens[0].Type)
	assert.Equal(t, "2024-01-01", tokens[0].Value)
	assert.Equal(t, TokenTimedelta, tokens[1].Type)
	assert.Equal(t, "1h30m", tokens[1].Value)
	assert.Equal(t, TokenBytes, tokens[2].Type)
	assert.Equal(t, "raw", tokens[2].Value)

	// A d/t/b not followed by a quote is an ordinary symbol.
	tokens = lexAll(t, `delta + total`)
	assert.Equal(t, []TokenType{TokenSymbol, TokenPlus, TokenSymbol}, tokenTypes(tokens))
}

func TestLexerRegexLiteral(t *testing.T) {
	tokens := lexAll(t, `name =~ /^a.+z$/`)
	require.Len(t, tokens, 3)
	assert.Equal(t, TokenRegex, tokens[2].Type)
	assert.Equal(t, `^a.+z$`, tokens[2].Value)

	// Flags convert to Go's inline syntax.
	tokens = lexAll(t, `name !~ /abc/i`)
	require.Len(t, tokens, 3)
	assert.Equal(t, `(?i)abc`, tokens[2].Value)
}

func TestLexerLineColumn(t *testing.T) {
	tokens := lexAll(t, "age >\n  21")
	require.Len(t, tokens, 3)
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 1, tokens[0].Column)
	assert.Equal(t, 1, tokens[1].Line)
	assert.Equal(t, 5, tokens[1].Column)
	assert.Equal(t, 2, tokens[2].Line)
	assert.Equal(t, 3, tokens[2].Column)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		code  types.ErrorCode
	}{
		{`"unterminated`, types.ErrStringNotClosed},
		{`1e`, types.ErrInvalidNumber},
		{`a = b`, types.ErrSyntax},
		{`@`, types.ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := NewLexer(tt.input)
			for {
				tok := l.Next(false)
				if tok.Type == TokenError {
					break
				}
				require.NotEqual(t, TokenEOF, tok.Type, "expected a lex error")
			}
			var engineErr *types.Error
			require.True(t, errors.As(l.Error(), &engineErr))
			assert.Equal(t, tt.code, engineErr.Code)
		})
	}
}

func TestLexerUnterminatedRegex(t *testing.T) {
	l := NewLexer(`name =~ /abc`)
	l.Next(false) // name
	l.Next(false) // =~
	tok := l.Next(true)
	require.Equal(t, TokenError, tok.Type)
	var engineErr *types.Error
	require.True(t, errors.As(l.Error(), &engineErr))
	assert.Equal(t, types.ErrRegexNotClosed, engineErr.Code)
}
