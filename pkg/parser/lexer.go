package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

const eof = -1

// Lexer converts rule text into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls.
//
// The allowRegex parameter determines how forward slashes are interpreted:
// the start of a regex literal (when true, i.e. directly after =~ or !~) or
// the division operator (when false).
func (l *Lexer) Next(allowRegex bool) Token {
	l.skipWhitespace()

	ch := l.nextRune()
	if ch == eof {
		return l.eofToken()
	}

	// Regex literal vs division operator
	if allowRegex && ch == '/' {
		l.ignore()
		return l.scanRegex(ch)
	}

	// Check for two-character symbols first (e.g. ==, !=, =~, **)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	// Characters that only start two-character symbols (=, !) are invalid
	// on their own.
	if ch == '=' || ch == '!' || ch == '~' {
		return l.error(types.ErrSyntax, "unexpected character "+string(ch))
	}

	// String literals (single or double quoted)
	if ch == '"' || ch == '\'' {
		l.ignore()
		return l.scanString(ch)
	}

	// Number literals
	if ch >= '0' && ch <= '9' {
		l.backup()
		return l.scanNumber()
	}

	// Prefixed literals: d"..." datetime, t"..." timedelta, b"..." bytes
	if ch == 'd' || ch == 't' || ch == 'b' {
		if quote := l.peekRune(); quote == '"' || quote == '\'' {
			tt := TokenDatetime
			switch ch {
			case 't':
				tt = TokenTimedelta
			case 'b':
				tt = TokenBytes
			}
			l.nextRune() // consume quote
			l.ignore()
			t := l.scanString(quote)
			if t.Type != TokenError {
				t.Type = tt
			}
			return t
		}
		l.backup()
		return l.scanName()
	}

	// Builtin references ($name)
	if ch == '$' {
		return l.scanBuiltin()
	}

	// Symbols and keywords
	l.backup()
	return l.scanName()
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanRegex reads a regular expression literal from the current position.
// The opening delimiter has already been consumed.
// Format: /pattern/flags where flags can be i, m, s
func (l *Lexer) scanRegex(delim rune) Token {
Loop:
	for {
		switch l.nextRune() {
		case delim:
			break Loop
		case '\\':
			// Consume escaped character
			if r := l.nextRune(); r != eof && r != '\n' {
				break
			}
			fallthrough
		case eof, '\n':
			return l.error(types.ErrRegexNotClosed, "unterminated regex")
		}
	}

	l.backup()
	t := l.newToken(TokenRegex)
	l.acceptRune(delim)
	l.ignore()

	// Convert trailing flags to Go inline-flag format: /ab+/i becomes (?i)ab+
	if l.acceptAll(isRegexFlag) {
		flags := l.newToken(TokenType(0))
		t.Value = "(?" + flags.Value + ")" + t.Value
	}

	return t
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed.
func (l *Lexer) scanString(quote rune) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			// Consume escaped character
			if r := l.nextRune(); r != eof {
				break
			}
			fallthrough
		case eof:
			return l.error(types.ErrStringNotClosed, "unterminated string literal")
		}
	}

	l.backup()
	t := l.newToken(TokenString)
	l.acceptRune(quote)
	l.ignore()
	return t
}

// scanNumber reads a number literal from the current position.
// Format: [0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	// Decimal part
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			// No digits after the decimal point: leave the dot for the
			// parser (it is the attribute operator).
			l.backup()
			return l.newToken(TokenFloat)
		}
	}

	// Exponent part
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrInvalidNumber, "malformed exponent")
		}
	}

	return l.newToken(TokenFloat)
}

// scanBuiltin reads a $-prefixed builtin reference. The $ has been consumed.
func (l *Lexer) scanBuiltin() Token {
	l.ignore()
	if !l.acceptAll(isNameRune) {
		return l.error(types.ErrSyntax, "expected a name after $")
	}
	return l.newToken(TokenBuiltin)
}

// scanName reads a symbol or keyword from the current position.
// Names start with a letter or underscore and continue with letters,
// digits and underscores.
func (l *Lexer) scanName() Token {
	if !l.accept(isNameStartRune) {
		r := l.nextRune()
		return l.error(types.ErrSyntax, "unexpected character "+string(r))
	}
	l.acceptAll(isNameRune)

	t := l.newToken(TokenSymbol)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eofToken() Token {
	line, col := l.locate(l.current)
	return Token{
		Type:     TokenEOF,
		Position: l.current,
		Line:     line,
		Column:   col,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Line:     t.Line,
		Column:   t.Column,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	line, col := l.locate(l.start)
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
		Line:     line,
		Column:   col,
	}
	l.width = 0
	l.start = l.current
	return t
}

// locate computes the 1-based line and column of a byte offset.
// Rule texts are short, so the rescan is cheap.
func (l *Lexer) locate(pos int) (line, col int) {
	prefix := l.input[:pos]
	line = 1 + strings.Count(prefix, "\n")
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		return line, utf8.RuneCountInString(prefix[i+1:]) + 1
	}
	return line, utf8.RuneCountInString(prefix) + 1
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peekRune() rune {
	if l.err != nil || l.current >= l.length {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.current:])
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	l.acceptAll(isWhitespace)
	l.ignore()
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v':
		return true
	default:
		return false
	}
}

func isRegexFlag(r rune) bool {
	switch r {
	case 'i', 'm', 's':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStartRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
