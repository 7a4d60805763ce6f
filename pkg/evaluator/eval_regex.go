package evaluator

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

// regexCache memoizes patterns compiled from string operands. Keyed by
// flags + pattern, so Contexts with different flags never collide.
var regexCache sync.Map

func compilePattern(pattern, flags string) (*regexp.Regexp, error) {
	key := flags + "\x00" + pattern
	if cached, ok := regexCache.Load(key); ok {
		return cached.(*regexp.Regexp), nil
	}
	expr := pattern
	if flags != "" {
		expr = "(?" + flags + ")" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	actual, _ := regexCache.LoadOrStore(key, re)
	return actual.(*regexp.Regexp), nil
}

// evalRegexMatch applies =~ or !~. A successful search stores the
// pattern's capture groups into this evaluation's state, where later
// nodes can read them through the $re_groups builtin.
func (e *evaluation) evalRegexMatch(node *types.ASTNode) (any, error) {
	subject, err := e.evalNode(node.LHS)
	if err != nil {
		return nil, err
	}
	pattern, err := e.evalNode(node.RHS)
	if err != nil {
		return nil, err
	}

	subjectStr, ok := subject.(string)
	if !ok {
		return nil, positioned(types.NewError(types.ErrRegexRuntime,
			fmt.Sprintf("regex match requires a string subject, got %s", types.KindOf(subject))), node)
	}

	var re *regexp.Regexp
	switch p := pattern.(type) {
	case *regexp.Regexp:
		re = p
		// Literals compile when parsed, before any context is known.
		// Context flags apply here as defaults; flags written inline in
		// the literal still win where they conflict.
		if e.ec.regexFlags != "" {
			re, err = compilePattern(p.String(), e.ec.regexFlags)
			if err != nil {
				return nil, positioned(types.NewError(types.ErrRegexRuntime,
					fmt.Sprintf("invalid regex pattern %q", p.String())).WithCause(err), node)
			}
		}
	case string:
		re, err = compilePattern(p, e.ec.regexFlags)
		if err != nil {
			return nil, positioned(types.NewError(types.ErrRegexRuntime,
				fmt.Sprintf("invalid regex pattern %q", p)).WithCause(err), node)
		}
	default:
		return nil, positioned(types.NewError(types.ErrRegexRuntime,
			fmt.Sprintf("regex match requires a string pattern, got %s", types.KindOf(pattern))), node)
	}

	matches := re.FindStringSubmatch(subjectStr)
	if matches != nil {
		groups := make([]any, 0, len(matches)-1)
		for _, g := range matches[1:] {
			groups = append(groups, g)
		}
		e.state.regexGroups = groups
	}

	matched := matches != nil
	if node.Op == "!~" {
		return !matched, nil
	}
	return matched, nil
}
