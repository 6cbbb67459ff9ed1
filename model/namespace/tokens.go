package namespace

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	segmentCode
	colonCode
	atCode
	slashCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	segmentToken    = parsly.NewToken(segmentCode, "Segment", newSegmentMatcher())
	colonToken      = parsly.NewToken(colonCode, ":", matcher.NewByte(':'))
	atToken         = parsly.NewToken(atCode, "@", matcher.NewByte('@'))
	slashToken      = parsly.NewToken(slashCode, "/", matcher.NewByte('/'))
)

func newSegmentMatcher() parsly.Matcher {
	return &segmentMatcher{}
}

// segmentMatcher matches a single namespace segment: letters, digits,
// underscore, dash and plus, starting with a letter, digit or underscore.
type segmentMatcher struct{}

func (m *segmentMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}
	if !isLetter(input[pos]) && !isDigit(input[pos]) && input[pos] != '_' {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		c := input[i]
		if isLetter(c) || isDigit(c) || c == '_' || c == '-' || c == '+' {
			matched++
			continue
		}
		break
	}
	return matched
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
