package namespace

import (
	"fmt"

	"github.com/viant/parsly"
)

// Parse parses a canonical identifier in the format: [@scope/]name(:segment)*
func Parse(input string) (*Namespace, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidNamespace)
	}
	cursor := parsly.NewCursor("", []byte(input), 0)
	result := &Namespace{}

	// Optional @scope/ prefix
	matched := cursor.MatchAfterOptional(whitespaceToken, atToken)
	if matched.Code == atToken.Code {
		matched = cursor.MatchOne(segmentToken)
		if matched.Code != segmentToken.Code {
			return nil, fmt.Errorf("%w: %q expected scope name after '@'", ErrInvalidNamespace, input)
		}
		result.Scope = matched.Text(cursor)
		matched = cursor.MatchOne(slashToken)
		if matched.Code != slashToken.Code {
			return nil, fmt.Errorf("%w: %q expected '/' after scope", ErrInvalidNamespace, input)
		}
	}

	// First segment (package name)
	matched = cursor.MatchOne(segmentToken)
	if matched.Code != segmentToken.Code {
		return nil, fmt.Errorf("%w: %q expected segment at position %d", ErrInvalidNamespace, input, cursor.Pos)
	}
	result.Segments = append(result.Segments, matched.Text(cursor))

	// Remaining :segment chain
	for cursor.Pos < cursor.InputSize {
		matched = cursor.MatchOne(colonToken)
		if matched.Code != colonToken.Code {
			return nil, fmt.Errorf("%w: %q unexpected character at position %d", ErrInvalidNamespace, input, cursor.Pos)
		}
		matched = cursor.MatchOne(segmentToken)
		if matched.Code != segmentToken.Code {
			return nil, fmt.Errorf("%w: %q expected segment at position %d", ErrInvalidNamespace, input, cursor.Pos)
		}
		result.Segments = append(result.Segments, matched.Text(cursor))
	}
	return result, nil
}
