// Copyright (c) 2026, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package expand implements brace expansion of dotted property paths, such as
// the dependent keys of a computed property.
//
// A pattern like "foo.{bar,baz}.[]" expands to "foo.bar.[]" and "foo.baz.[]".
// Brace groups cannot be nested, and patterns cannot contain spaces. Each
// expansion ending in ".@each" is rewritten to end in ".[]" instead.
package expand

import (
	"iter"
	"math"
	"strings"
)

const (
	eachSuffix  = ".@each"
	arraySuffix = ".[]"
)

// Properties expands pattern, calling fn once per expansion in order.
//
// Brace groups are resolved from left to right, and everything to the right
// of a group is fully expanded before moving on to the group's next
// alternative. For example, "{foo,bar}.{spam,eggs}" results in "foo.spam",
// "foo.eggs", "bar.spam", and "bar.eggs".
//
// If the pattern is invalid, a *PatternError is returned and fn is never
// called. See [Validate].
func Properties(pattern string, fn func(string)) error {
	if err := Validate(pattern); err != nil {
		return err
	}
	walk(pattern, func(s string) bool {
		fn(s)
		return true
	})
	return nil
}

// Seq is like [Properties], but returns the expansions as a sequence.
//
// The sequence may be stopped early, and iterating over it again starts the
// expansion from scratch.
func Seq(pattern string) (iter.Seq[string], error) {
	if err := Validate(pattern); err != nil {
		return nil, err
	}
	return func(yield func(string) bool) {
		walk(pattern, yield)
	}, nil
}

// Fields is like [Properties], but returns all expansions as a slice.
func Fields(pattern string) ([]string, error) {
	if err := Validate(pattern); err != nil {
		return nil, err
	}
	fields := make([]string, 0, min(count(pattern), 1024))
	walk(pattern, func(s string) bool {
		fields = append(fields, s)
		return true
	})
	return fields, nil
}

// Count returns the number of expansions that pattern would result in, without
// producing them. Duplicate alternatives are counted as many times as they
// appear. Counts which do not fit in an int are capped at [math.MaxInt].
func Count(pattern string) (int, error) {
	if err := Validate(pattern); err != nil {
		return 0, err
	}
	return count(pattern), nil
}

// NormalizeEach replaces a trailing ".@each" with ".[]".
// Any other string is returned unchanged.
func NormalizeEach(s string) string {
	if strings.HasSuffix(s, eachSuffix) {
		return s[:len(s)-len(eachSuffix)] + arraySuffix
	}
	return s
}

func count(pattern string) int {
	n := 1
	inGroup := false
	alts := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			inGroup = true
			alts = 1
		case ',':
			if inGroup {
				alts++
			}
		case '}':
			if !inGroup {
				continue
			}
			inGroup = false
			if n > math.MaxInt/alts {
				return math.MaxInt
			}
			n *= alts
		}
	}
	return n
}

// frame is a pending branch of the expansion: prefix is already resolved,
// and rest is what remains of the pattern.
type frame struct {
	prefix, rest string
}

// walk expands a pattern which has already been validated, stopping as soon as
// yield returns false. Alternatives are pushed onto the stack in reverse, so
// that they are popped in the order they were written.
func walk(pattern string, yield func(string) bool) {
	if strings.IndexByte(pattern, '{') < 0 {
		yield(NormalizeEach(pattern))
		return
	}
	stack := []frame{{rest: pattern}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		start := strings.IndexByte(fr.rest, '{')
		if start < 0 {
			if !yield(NormalizeEach(fr.prefix + fr.rest)) {
				return
			}
			continue
		}
		// Validate guarantees a closing brace after every opening one.
		end := start + 1 + strings.IndexByte(fr.rest[start+1:], '}')
		prefix := fr.prefix + fr.rest[:start]
		after := fr.rest[end+1:]

		alts := strings.Split(fr.rest[start+1:end], ",")
		for i := len(alts) - 1; i >= 0; i-- {
			stack = append(stack, frame{prefix: prefix + alts[i], rest: after})
		}
	}
}
