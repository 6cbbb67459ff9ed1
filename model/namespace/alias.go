package namespace

import (
	"fmt"
	"regexp"
	"sync"
)

// Rule rewrites an abbreviated identifier into a more canonical one. The
// matcher is a regular expression; the replacement may reference captured
// groups ($1, ${name}).
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// NewRule compiles a rule from its textual form.
func NewRule(pattern, replacement string) (*Rule, error) {
	expr, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("alias rule %q: %w", pattern, err)
	}
	return &Rule{Pattern: expr, Replacement: replacement}, nil
}

// Aliases is an ordered rule table. Rules are applied in reverse insertion
// order, the output of each rule feeding the next, so the most recently
// added rule always runs first.
type Aliases struct {
	mu    sync.RWMutex
	rules []*Rule
}

// NewAliases creates a rule table seeded with the default rule that appends
// the default action segment to a bare single-segment identifier
// (e.g. "foo" resolves to "foo:app").
func NewAliases(rules ...*Rule) *Aliases {
	defaultRule, _ := NewRule(`^([^:]+)$`, "${1}:app")
	return &Aliases{rules: append([]*Rule{defaultRule}, rules...)}
}

// Add compiles and appends a rule. The new rule takes precedence over all
// previously registered ones.
func (a *Aliases) Add(pattern, replacement string) error {
	rule, err := NewRule(pattern, replacement)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.rules = append(a.rules, rule)
	a.mu.Unlock()
	return nil
}

// Resolve rewrites identifier through the rule table, each rule's output
// feeding the next. Resolution is idempotent: resolving an already canonical
// identifier returns it unchanged.
func (a *Aliases) Resolve(identifier string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i := len(a.rules) - 1; i >= 0; i-- {
		rule := a.rules[i]
		if rule.Pattern.MatchString(identifier) {
			identifier = rule.Pattern.ReplaceAllString(identifier, rule.Replacement)
		}
	}
	return identifier
}
