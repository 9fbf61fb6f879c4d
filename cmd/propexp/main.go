// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// propexp expands brace patterns of dotted property paths.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/google/renameio/v2/maybe"
	"github.com/pkg/diff"
	diffwrite "github.com/pkg/diff/write"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"mvdan.cc/editorconfig"

	"mvdan.cc/propexp/expand"
	"mvdan.cc/propexp/fileutil"
)

var (
	showVersion = flag.Bool("version", false, "")

	list    = flag.Bool("l", false, "")
	write   = flag.Bool("w", false, "")
	diffOut = flag.Bool("d", false, "")
	find    = flag.Bool("f", false, "")

	count    = flag.Bool("c", false, "")
	toJSON   = flag.Bool("tojson", false, "")
	filename = flag.String("filename", "", "")

	patterns stringList

	// useEditorConfig will be false if PROPEXP_NO_EDITORCONFIG is set.
	useEditorConfig = true

	in    io.Reader = os.Stdin
	out   io.Writer = os.Stdout
	color bool

	version = "(devel)" // to match the default from runtime/debug
)

func init() { flag.Var(&patterns, "e", "") }

// stringList is a flag which may be given multiple times.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func main() {
	os.Exit(main1())
}

func main1() int {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: propexp [flags] [path ...]

Each line of the input is a property pattern such as "foo.{bar,baz}.@each",
and is replaced by all of its expansions, one per line. Empty lines and lines
starting with '#' are kept as they are. Lines end like the input's first line
does, unless end_of_line is set in an EditorConfig file.

If the only argument is a dash ('-') or no arguments are given, standard input
will be used. If a given path is a directory, it will be recursively searched
for pattern files - both by filename extension and by a "# propexp" header.

  -version  show version and exit

  -e str    expand a pattern given as an argument; may be repeated
  -l        list files whose expansion differs from their contents
  -w        write result to file instead of stdout
  -d        error with a diff when the expansion differs
  -filename str  provide a name for the standard input file

Output options:

  -c        print the number of expansions of each pattern
  -tojson   print each pattern and its expansions as a JSON object

Utilities:

  -f        recursively find all pattern files and print the paths
`)
	}
	flag.Parse()

	if *showVersion {
		// don't overwrite the version if it was set by -ldflags=-X
		if info, ok := debug.ReadBuildInfo(); ok && version == "(devel)" {
			mod := &info.Main
			if mod.Replace != nil {
				mod = mod.Replace
			}
			version = mod.Version
		}
		fmt.Fprintln(out, version)
		return 0
	}
	fileMode := *list || *write || *diffOut
	if *count && *toJSON {
		fmt.Fprintln(os.Stderr, "-c and -tojson cannot coexist")
		return 1
	}
	if fileMode && (*count || *toJSON) {
		fmt.Fprintln(os.Stderr, "-c and -tojson cannot be used with -l, -w or -d")
		return 1
	}
	if os.Getenv("PROPEXP_NO_EDITORCONFIG") == "true" {
		useEditorConfig = false
	}
	color = wantColor(out)

	if len(patterns) > 0 {
		if flag.NArg() > 0 {
			fmt.Fprintln(os.Stderr, "-e cannot be used with path arguments")
			return 1
		}
		if fileMode {
			fmt.Fprintln(os.Stderr, "-l, -w and -d cannot be used with -e")
			return 1
		}
		status := 0
		for _, pattern := range patterns {
			if err := expandLine(out, pattern, "\n", outputFlags()); err != nil {
				fmt.Fprintln(os.Stderr, err)
				status = 1
			}
		}
		return status
	}
	if flag.NArg() == 0 || (flag.NArg() == 1 && flag.Arg(0) == "-") {
		name := "<standard input>"
		if *filename != "" {
			name = *filename
		}
		if err := expandStdin(name); err != nil {
			if err != errChangedWithDiff {
				fmt.Fprintln(os.Stderr, err)
			}
			return 1
		}
		return 0
	}
	if *filename != "" {
		fmt.Fprintln(os.Stderr, "-filename can only be used with stdin")
		return 1
	}
	return expandPaths(flag.Args())
}

// wantColor reports whether diffs written to w should be colored.
func wantColor(w io.Writer) bool {
	if os.Getenv("FORCE_COLOR") == "true" {
		// Undocumented way to force color; used in the tests.
		return true
	}
	if os.Getenv("TERM") == "dumb" {
		// Equivalent to forcing color to be turned off.
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var errChangedWithDiff = fmt.Errorf("")

func expandStdin(name string) error {
	if *write {
		return fmt.Errorf("-w cannot be used on standard input")
	}
	src, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return expandBytes(out, src, name)
}

// job is a file to be expanded. If checkHeader is set, the file is skipped
// unless it starts with a header line.
type job struct {
	path        string
	checkHeader bool
}

var vcsDir = regexp.MustCompile(`^\.(git|svn|hg)$`)

func collectJobs(paths []string) ([]job, error) {
	var jobs []job
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() && !*find {
			// When given paths to files directly, always expand
			// them, no matter their extension or header.
			jobs = append(jobs, job{path: path})
			continue
		}
		err := filepath.WalkDir(path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && vcsDir.MatchString(d.Name()) {
				return filepath.SkipDir
			}
			if useEditorConfig {
				props, err := ecFind(path)
				if err != nil {
					return err
				}
				if props.Get("ignore") == "true" {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
			}
			info, err := d.Info()
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			} else if err != nil {
				return err
			}
			switch fileutil.CouldBePatterns(info) {
			case fileutil.ConfIsPatterns:
				jobs = append(jobs, job{path: path})
			case fileutil.ConfIfHeader:
				jobs = append(jobs, job{path: path, checkHeader: true})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

// expandPaths expands the given files and directories concurrently, and
// writes each file's output in the order the files were found.
func expandPaths(paths []string) int {
	jobs, err := collectJobs(paths)
	if err != nil {
		// Something went wrong walking the filesystem; stop.
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	type result struct {
		buf bytes.Buffer
		err error
	}
	results := make([]result, len(jobs))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, j := range jobs {
		g.Go(func() error {
			results[i].err = expandPath(&results[i].buf, j)
			return nil
		})
	}
	g.Wait() // errors are kept per file

	status := 0
	for _, res := range results {
		if _, err := out.Write(res.buf.Bytes()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		switch res.err {
		case nil:
		case errChangedWithDiff:
			status = 1
		default:
			fmt.Fprintln(os.Stderr, res.err)
			status = 1
		}
	}
	return status
}

func expandPath(w io.Writer, j job) error {
	src, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}
	if j.checkHeader && !fileutil.HasHeader(src[:min(len(src), fileutil.HeaderLen)]) {
		return nil
	}
	if *find {
		_, err := fmt.Fprintln(w, j.path)
		return err
	}
	return expandBytes(w, src, j.path)
}

func expandBytes(w io.Writer, src []byte, path string) error {
	style, err := styleFor(path)
	if err != nil {
		return err
	}
	res, err := expandSource(src, path, style, outputFlags())
	if err != nil {
		return err
	}
	if !*list && !*write && !*diffOut {
		_, err := w.Write(res)
		return err
	}
	if bytes.Equal(src, res) {
		return nil
	}
	if *list {
		if _, err := fmt.Fprintln(w, path); err != nil {
			return err
		}
	}
	if *write {
		info, err := os.Lstat(path)
		if err != nil {
			return err
		}
		if err := maybe.WriteFile(path, res, info.Mode().Perm()); err != nil {
			return err
		}
	}
	if *diffOut {
		opts := []diffwrite.Option{}
		if color {
			opts = append(opts, diffwrite.TerminalColor())
		}
		if err := diff.Text(path+".orig", path, src, res, w, opts...); err != nil {
			return fmt.Errorf("computing diff: %s", err)
		}
		return errChangedWithDiff
	}
	return nil
}

// lineStyle controls how expanded lines are written.
type lineStyle struct {
	eol          string // if empty, the source's line endings are kept
	finalNewline bool
}

// outputMode is what gets written for each pattern.
type outputMode int

const (
	outExpand outputMode = iota
	outCount
	outJSON
)

func outputFlags() outputMode {
	switch {
	case *count:
		return outCount
	case *toJSON:
		return outJSON
	}
	return outExpand
}

var (
	ecMu    sync.Mutex
	ecQuery = editorconfig.Query{
		FileCache:   make(map[string]*editorconfig.File),
		RegexpCache: make(map[string]*regexp.Regexp),
	}
)

// ecFind is safe for concurrent use, unlike the query's caches.
func ecFind(path string) (editorconfig.Section, error) {
	ecMu.Lock()
	defer ecMu.Unlock()
	return ecQuery.Find(path)
}

func styleFor(path string) (lineStyle, error) {
	var style lineStyle
	if !useEditorConfig || path == "<standard input>" {
		return style, nil
	}
	props, err := ecFind(path)
	if err != nil {
		return style, err
	}
	switch props.Get("end_of_line") {
	case "lf":
		style.eol = "\n"
	case "crlf":
		style.eol = "\r\n"
	}
	style.finalNewline = props.Get("insert_final_newline") == "true"
	return style, nil
}

// expandSource expands each pattern line in src.
func expandSource(src []byte, path string, style lineStyle, mode outputMode) ([]byte, error) {
	text := string(src)
	if text == "" {
		return nil, nil
	}
	if style.eol == "" {
		style.eol = "\n"
		if i := strings.IndexByte(text, '\n'); i > 0 && text[i-1] == '\r' {
			style.eol = "\r\n"
		}
	}
	// Reports are always whole lines.
	finalNewline := strings.HasSuffix(text, "\n") || style.finalNewline || mode != outExpand
	text = strings.TrimSuffix(text, "\n")

	var buf bytes.Buffer
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || line[0] == '#' {
			if mode == outExpand {
				buf.WriteString(line)
				buf.WriteString(style.eol)
			}
			continue
		}
		if err := expandLine(&buf, line, style.eol, mode); err != nil {
			var perr *expand.PatternError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("%s:%d:%d: %s", path, i+1, perr.Offset+1, perr.Text)
			}
			return nil, err
		}
	}
	res := buf.Bytes()
	if !finalNewline {
		res = bytes.TrimSuffix(res, []byte(style.eol))
	}
	return res, nil
}

// jsonExpansion is what -tojson prints for each pattern.
type jsonExpansion struct {
	Pattern    string
	Expansions []string
}

// expandLine writes the result of expanding a single pattern to w.
func expandLine(w io.Writer, pattern, eol string, mode outputMode) error {
	switch mode {
	case outCount:
		n, err := expand.Count(pattern)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s %d%s", pattern, n, eol)
		return err
	case outJSON:
		fields, err := expand.Fields(pattern)
		if err != nil {
			return err
		}
		data, err := json.Marshal(jsonExpansion{pattern, fields})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s%s", data, eol)
		return err
	}
	var werr error
	err := expand.Properties(pattern, func(s string) {
		if werr == nil {
			_, werr = io.WriteString(w, s+eol)
		}
	})
	if err != nil {
		return err
	}
	return werr
}
