package filter

import (
	"fmt"
	"regexp"
)

// Chain is an ordered set of filters ANDed together over one subject.
// The order only affects how early the chain short-circuits; the boolean
// result is order-independent. The zero value accepts everything.
type Chain struct {
	filters []Filter
}

func NewChain(filters ...Filter) Chain {
	return Chain{filters: filters}
}

// Process runs the subject through every filter. It returns ErrRejected
// as soon as one filter rejects, nil when all accept. An empty chain is
// the accept-everything identity.
func (c Chain) Process(subject string) error {
	for _, f := range c.filters {
		if f.Rejects(subject) {
			return ErrRejected
		}
	}
	return nil
}

// Len reports the number of filters in the chain.
func (c Chain) Len() int { return len(c.filters) }

// FieldExclusions drops fields by key before formatting. Unlike Chain it
// has no polarity: a key matching ANY pattern is excluded.
type FieldExclusions struct {
	patterns []*regexp.Regexp
}

func NewFieldExclusions(patterns ...string) (FieldExclusions, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return FieldExclusions{}, fmt.Errorf("invalid field exclusion pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return FieldExclusions{patterns: compiled}, nil
}

// Excludes reports whether the field key should be dropped.
func (fe FieldExclusions) Excludes(key string) bool {
	for _, re := range fe.patterns {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

func (fe FieldExclusions) Len() int { return len(fe.patterns) }
