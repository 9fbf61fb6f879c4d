// Copyright (c) 2026, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"fmt"
	"strings"
)

// ErrorKind is the rule that a pattern broke.
type ErrorKind int

const (
	// InvalidCharacter means that the pattern contains a space.
	InvalidCharacter ErrorKind = iota + 1

	// MalformedBraces means that the pattern contains a nested brace group,
	// two closing braces in a row, or an opening brace which is never closed.
	MalformedBraces
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCharacter:
		return "invalid character"
	case MalformedBraces:
		return "malformed braces"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// PatternError is returned when a pattern cannot be expanded.
type PatternError struct {
	Pattern string
	Offset  int // in bytes, of the offending character
	Kind    ErrorKind
	Text    string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%q:%d: %s", e.Pattern, e.Offset, e.Text)
}

// Validate reports whether pattern can be expanded, returning a *PatternError
// if it cannot.
//
// A pattern must not contain any spaces, and its braces must alternate between
// opening and closing ones, with the last one being a closing brace. This
// rejects nested groups like "a.{b,{c,d}}" as well as unbalanced ones like
// "a.{b" or "a.b}}". A closing brace with no opening brace before it, as in
// "a}b", is kept as a literal character.
func Validate(pattern string) error {
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		return &PatternError{
			Pattern: pattern,
			Offset:  i,
			Kind:    InvalidCharacter,
			Text:    `brace expanded properties cannot contain spaces, e.g. "user.{firstName, lastName}" should be "user.{firstName,lastName}"`,
		}
	}
	last, lastOffset := byte(0), -1
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '{' && c != '}' {
			continue
		}
		if c == last {
			return &PatternError{
				Pattern: pattern,
				Offset:  i,
				Kind:    MalformedBraces,
				Text:    "brace expanded properties have to be balanced and cannot be nested",
			}
		}
		last, lastOffset = c, i
	}
	if last == '{' {
		return &PatternError{
			Pattern: pattern,
			Offset:  lastOffset,
			Kind:    MalformedBraces,
			Text:    "{ was not matched with a closing }",
		}
	}
	return nil
}
