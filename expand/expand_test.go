// Copyright (c) 2026, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
)

var propertiesTests = []struct {
	in   string
	want []string
}{
	{"", []string{""}},
	{"foo", []string{"foo"}},
	{"foo.bar", []string{"foo.bar"}},
	{"foo.@each", []string{"foo.[]"}},
	{"foo.@each.bar", []string{"foo.@each.bar"}},
	{"foo.[]", []string{"foo.[]"}},
	{"@each", []string{"@each"}},
	{"{foo,bar}", []string{"foo", "bar"}},
	{"foo.{bar,baz}", []string{"foo.bar", "foo.baz"}},
	{"{foo,bar}.baz", []string{"foo.baz", "bar.baz"}},
	{"foo.{bar,baz}.[]", []string{"foo.bar.[]", "foo.baz.[]"}},
	{"{foo,bar}.@each", []string{"foo.[]", "bar.[]"}},
	{"foo.{bar,@each}", []string{"foo.bar", "foo.[]"}},
	{"{foo,bar}.{spam,eggs}", []string{
		"foo.spam", "foo.eggs", "bar.spam", "bar.eggs",
	}},
	{"{foo}.bar.{baz}", []string{"foo.bar.baz"}},
	{"a.{b,c,d}.{e,f}.{g,h}", []string{
		"a.b.e.g", "a.b.e.h", "a.b.f.g", "a.b.f.h",
		"a.c.e.g", "a.c.e.h", "a.c.f.g", "a.c.f.h",
		"a.d.e.g", "a.d.e.h", "a.d.f.g", "a.d.f.h",
	}},
	{"{a,a}", []string{"a", "a"}},
	{"a{}b", []string{"ab"}},
	{"a{,}b", []string{"ab", "ab"}},
	{"a.{,b}", []string{"a.", "a.b"}},
	{"{a,b}{c,d}", []string{"ac", "ad", "bc", "bd"}},
	{"a{à,世界}", []string{"aà", "a世界"}},
	{"a}b", []string{"a}b"}},
	{"a}b.{c,d}", []string{"a}b.c", "a}b.d"}},
	{"a.{b,c}.@each.d", []string{"a.b.@each.d", "a.c.@each.d"}},
}

func TestProperties(t *testing.T) {
	t.Parallel()
	for i, tc := range propertiesTests {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			var got []string
			err := Properties(tc.in, func(s string) {
				got = append(got, s)
			})
			if err != nil {
				t.Fatalf("Properties(%q) errored: %v", tc.in, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Properties(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestSeqMatchesProperties(t *testing.T) {
	t.Parallel()
	for i, tc := range propertiesTests {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			c := qt.New(t)
			seq, err := Seq(tc.in)
			c.Assert(err, qt.IsNil)

			var got []string
			for s := range seq {
				got = append(got, s)
			}
			c.Assert(got, qt.DeepEquals, tc.want)

			// A second iteration starts from scratch.
			got = got[:0]
			for s := range seq {
				got = append(got, s)
			}
			c.Assert(got, qt.DeepEquals, tc.want)
		})
	}
}

func TestFieldsAndCount(t *testing.T) {
	t.Parallel()
	for i, tc := range propertiesTests {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			c := qt.New(t)
			got, err := Fields(tc.in)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.DeepEquals, tc.want)

			n, err := Count(tc.in)
			c.Assert(err, qt.IsNil)
			c.Assert(n, qt.Equals, len(tc.want))
		})
	}
}

func TestSeqStopEarly(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	seq, err := Seq("{a,b,c}.{d,e}")
	c.Assert(err, qt.IsNil)

	var got []string
	for s := range seq {
		got = append(got, s)
		if len(got) == 3 {
			break
		}
	}
	c.Assert(got, qt.DeepEquals, []string{"a.d", "a.e", "b.d"})
}

func TestCountOverflow(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	pattern := strings.Repeat("{a,b,c,d,e,f,g,h}", 30)
	n, err := Count(pattern)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, math.MaxInt)
}

var errorTests = []struct {
	in         string
	wantKind   ErrorKind
	wantOffset int
}{
	{"user.{firstName, lastName}", InvalidCharacter, 16},
	{" ", InvalidCharacter, 0},
	{"foo.bar ", InvalidCharacter, 7},
	{"a.{b,{c,d}}", MalformedBraces, 5},
	{"{a{b", MalformedBraces, 2},
	{"a.{b,c}}", MalformedBraces, 7},
	{"a}b}", MalformedBraces, 3},
	{"a.{b", MalformedBraces, 2},
	{"{", MalformedBraces, 0},
	{"{a,b}.{c", MalformedBraces, 6},
	{"a.b{", MalformedBraces, 3},
	// spaces are reported before braces
	{"{{ }", InvalidCharacter, 2},
}

func TestErrors(t *testing.T) {
	t.Parallel()
	for i, tc := range errorTests {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			c := qt.New(t)
			called := false
			err := Properties(tc.in, func(string) { called = true })
			c.Assert(called, qt.IsFalse, qt.Commentf("consumer called for %q", tc.in))

			var perr *PatternError
			c.Assert(errors.As(err, &perr), qt.IsTrue, qt.Commentf("got %v", err))
			c.Assert(perr.Pattern, qt.Equals, tc.in)
			c.Assert(perr.Kind, qt.Equals, tc.wantKind)
			c.Assert(perr.Offset, qt.Equals, tc.wantOffset)
			c.Assert(Validate(tc.in), qt.DeepEquals, err)

			seq, err := Seq(tc.in)
			c.Assert(seq, qt.IsNil)
			c.Assert(err, qt.DeepEquals, perr)

			fields, err := Fields(tc.in)
			c.Assert(fields, qt.IsNil)
			c.Assert(err, qt.DeepEquals, perr)

			n, err := Count(tc.in)
			c.Assert(n, qt.Equals, 0)
			c.Assert(err, qt.DeepEquals, perr)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	c.Assert(Validate("user.{firstName, lastName}"), qt.ErrorMatches,
		`"user.{firstName, lastName}":16: brace expanded properties cannot contain spaces, .*`)
	c.Assert(Validate("a.{b,{c,d}}"), qt.ErrorMatches,
		`"a.{b,{c,d}}":5: brace expanded properties have to be balanced and cannot be nested`)
	c.Assert(Validate("a.{b"), qt.ErrorMatches,
		`"a.{b":2: { was not matched with a closing }`)
	c.Assert(InvalidCharacter.String(), qt.Equals, "invalid character")
	c.Assert(MalformedBraces.String(), qt.Equals, "malformed braces")
	c.Assert(ErrorKind(9).String(), qt.Equals, "ErrorKind(9)")
}

func TestNormalizeEach(t *testing.T) {
	t.Parallel()
	tests := [...]struct {
		in, want string
	}{
		{"", ""},
		{"foo", "foo"},
		{"foo.@each", "foo.[]"},
		{".@each", ".[]"},
		{"@each", "@each"},
		{"foo@each", "foo@each"},
		{"foo.@each.@each", "foo.@each.[]"},
		{"foo.@eachx", "foo.@eachx"},
		{"foo.[]", "foo.[]"},
	}
	for _, test := range tests {
		c := qt.New(t)
		got := NormalizeEach(test.in)
		c.Assert(got, qt.Equals, test.want)
		c.Assert(NormalizeEach(got), qt.Equals, got)
	}
}

func TestDeterministic(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	const pattern = "{a,b,c}.{d,e}.{f,g,h}.@each"
	first, err := Fields(pattern)
	c.Assert(err, qt.IsNil)
	for range 10 {
		again, err := Fields(pattern)
		c.Assert(err, qt.IsNil)
		c.Assert(again, qt.DeepEquals, first)
	}
}

func BenchmarkProperties(b *testing.B) {
	const pattern = "model.{a,b,c,d}.{e,f,g,h}.{i,j,k,l}.@each"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		n := 0
		if err := Properties(pattern, func(string) { n++ }); err != nil {
			b.Fatal(err)
		}
		if n != 64 {
			b.Fatalf("got %d expansions, want 64", n)
		}
	}
}
