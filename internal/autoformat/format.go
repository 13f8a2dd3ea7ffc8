// Package autoformat rewrites Go sources under a root directory with gofmt
// formatting, once or continuously as files change.
package autoformat

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// SourcePattern selects the files a Formatter rewrites.
const SourcePattern = "**/*.go"

// DefaultIgnore skips vendored, hidden, underscore-prefixed and testdata trees.
var DefaultIgnore = []string{
	"**/vendor/**",
	"**/testdata/**",
	"**/_*/**",
	"**/.*/**",
}

// Report lists what a FormatAll pass did. Paths are relative to the root.
type Report struct {
	Checked int
	Changed []string
	Failed  map[string]error
}

// Formatter applies go/format to the sources under a root directory.
type Formatter struct {
	root    string
	ignore  []string
	workers int
	logger  *slog.Logger
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithIgnore replaces DefaultIgnore.
func WithIgnore(patterns ...string) Option {
	return func(f *Formatter) {
		f.ignore = patterns
	}
}

// WithWorkers bounds the number of files formatted concurrently.
func WithWorkers(n int) Option {
	return func(f *Formatter) {
		if n > 0 {
			f.workers = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Formatter) {
		f.logger = logger
	}
}

// New creates a Formatter rooted at root.
func New(root string, opts ...Option) (*Formatter, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	f := &Formatter{
		root:    abs,
		ignore:  DefaultIgnore,
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Root returns the absolute root directory.
func (f *Formatter) Root() string {
	return f.root
}

// Matches reports whether rel, a slash-separated path relative to the root,
// is a source file the formatter owns.
func (f *Formatter) Matches(rel string) bool {
	if ok, _ := doublestar.Match(SourcePattern, rel); !ok {
		return false
	}
	return !f.ignored(rel)
}

func (f *Formatter) ignored(rel string) bool {
	for _, pattern := range f.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// FormatFile formats a single file in place. It reports whether the file
// content changed. Relative paths resolve against the root.
func (f *Formatter) FormatFile(path string) (bool, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.root, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	out, err := format.Source(src)
	if err != nil {
		return false, fmt.Errorf("format %s: %w", path, err)
	}
	if bytes.Equal(src, out) {
		return false, nil
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, err
	}
	f.logger.Debug("formatted file", "path", path)
	return true, nil
}

// FormatAll formats every matching source under the root. Per-file failures
// are collected in the report; the returned error is reserved for walk
// failures and cancellation.
func (f *Formatter) FormatAll(ctx context.Context) (Report, error) {
	var files []string
	err := doublestar.GlobWalk(os.DirFS(f.root), SourcePattern, func(path string, d fs.DirEntry) error {
		if !d.IsDir() && !f.ignored(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("walk %s: %w", f.root, err)
	}

	var (
		mu     sync.Mutex
		report = Report{Checked: len(files), Failed: map[string]error{}}
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for _, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			changed, err := f.FormatFile(filepath.FromSlash(rel))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed[rel] = err
			case changed:
				report.Changed = append(report.Changed, rel)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	slices.Sort(report.Changed)
	f.logger.InfoContext(ctx, "format pass complete",
		"checked", report.Checked, "changed", len(report.Changed), "failed", len(report.Failed))
	return report, nil
}
