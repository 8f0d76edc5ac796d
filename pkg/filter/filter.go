// Package filter implements regex predicates used to decide which log
// events are forwarded to Slack and which fields survive formatting.
package filter

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrRejected signals that a subject failed a filter chain. It is a
// control-flow sentinel: callers drop the event and move on, they never
// log or surface it.
var ErrRejected = errors.New("rejected by filter")

// Polarity selects which match outcome rejects the subject.
type Polarity int

const (
	// Additive rejects a subject that MATCHES the pattern.
	Additive Polarity = iota
	// Subtractive rejects a subject that does NOT match the pattern.
	Subtractive
)

func (p Polarity) String() string {
	switch p {
	case Additive:
		return "additive"
	case Subtractive:
		return "subtractive"
	default:
		return fmt.Sprintf("polarity(%d)", int(p))
	}
}

// ParsePolarity converts a config string into a Polarity.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "additive":
		return Additive, nil
	case "subtractive":
		return Subtractive, nil
	default:
		return 0, fmt.Errorf("unknown filter polarity %q (want \"additive\" or \"subtractive\")", s)
	}
}

// Filter is a single predicate: a compiled regex plus a polarity.
// Immutable after construction.
type Filter struct {
	pattern  *regexp.Regexp
	polarity Polarity
}

func New(pattern string, polarity Polarity) (Filter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Filter{}, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
	}
	return Filter{pattern: re, polarity: polarity}, nil
}

// Add builds an Additive filter: reject subjects matching pattern.
func Add(pattern string) (Filter, error) { return New(pattern, Additive) }

// Subtract builds a Subtractive filter: reject subjects NOT matching pattern.
func Subtract(pattern string) (Filter, error) { return New(pattern, Subtractive) }

// Rejects reports whether subject fails this filter.
func (f Filter) Rejects(subject string) bool {
	if f.pattern == nil {
		return false
	}
	matched := f.pattern.MatchString(subject)
	if f.polarity == Additive {
		return matched
	}
	return !matched
}

func (f Filter) Pattern() string    { return f.pattern.String() }
func (f Filter) Polarity() Polarity { return f.polarity }
