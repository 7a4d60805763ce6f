package evaluator

import (
	"github.com/google/uuid"
)

// evalState holds all mutable state of a single evaluation run. A fresh
// one is created per entry-point call and threaded through every node
// evaluation, so concurrent evaluations sharing a Context never observe
// each other's captures or bindings.
type evalState struct {
	id uuid.UUID

	// regexGroups holds the capture groups of the most recent successful
	// =~ or !~ match in this evaluation, exposed as $re_groups.
	regexGroups []any

	// scopes is the stack of comprehension symbol bindings. Inner scopes
	// shadow outer ones and the resolver.
	scopes []map[string]any
}

func newEvalState() *evalState {
	return &evalState{id: uuid.New()}
}

func (s *evalState) pushScope(symbol string, value any) {
	s.scopes = append(s.scopes, map[string]any{symbol: value})
}

func (s *evalState) popScope() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// lookup finds a comprehension-bound symbol, innermost scope first.
func (s *evalState) lookup(name string) (any, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// boundSymbols lists all comprehension-bound symbols currently in scope,
// used for suggestion generation.
func (s *evalState) boundSymbols() []string {
	var names []string
	for _, scope := range s.scopes {
		for name := range scope {
			names = append(names, name)
		}
	}
	return names
}
