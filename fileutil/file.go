// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package fileutil allows inspecting files to tell whether they hold
// property patterns.
package fileutil

import (
	"io/fs"
	"regexp"
	"strings"
)

var (
	headerRe = regexp.MustCompile(`^#[ \t]?propexp([ \t]|\r?\n)`)
	extRe    = regexp.MustCompile(`\.(props|propexp)$`)
)

// HeaderLen is the number of bytes that need to be read to tell whether a file
// begins with a header line, as checked by [HasHeader].
const HeaderLen = 32

// HasHeader reports whether bs begins with a "# propexp" header line.
func HasHeader(bs []byte) bool {
	return headerRe.Match(bs)
}

// Confidence is how sure we are that a file holds property patterns.
type Confidence int

const (
	// ConfNotPatterns describes files which must not be treated as patterns,
	// such as directories, hidden files, or files with other extensions.
	ConfNotPatterns Confidence = iota

	// ConfIfHeader describes files which hold patterns only if their
	// contents begin with a header line.
	ConfIfHeader

	// ConfIsPatterns describes files with a pattern file extension.
	ConfIsPatterns
)

// CouldBePatterns reports how likely a directory entry is to be a pattern
// file, using only its name and metadata.
func CouldBePatterns(info fs.FileInfo) Confidence {
	name := info.Name()
	switch {
	case info.IsDir(), name[0] == '.', !info.Mode().IsRegular():
		return ConfNotPatterns
	case extRe.MatchString(name):
		return ConfIsPatterns
	case strings.Contains(name, "."):
		return ConfNotPatterns // different extension
	case info.Size() < int64(len("#propexp\n")):
		return ConfNotPatterns // cannot possibly hold a header
	default:
		return ConfIfHeader
	}
}
