package autoformat

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	messy = "package demo\nfunc  Add(a,b int)int{return a+b}\n"
	tidy  = "package demo\n\nfunc Add(a, b int) int { return a + b }\n"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

type FormatterSuite struct {
	suite.Suite
	root string
	f    *Formatter
}

func TestFormatterSuite(t *testing.T) {
	suite.Run(t, new(FormatterSuite))
}

func (s *FormatterSuite) SetupTest() {
	s.root = s.T().TempDir()
	var err error
	s.f, err = New(s.root, WithWorkers(2))
	s.Require().NoError(err)
}

func (s *FormatterSuite) TestNewRejectsFile() {
	path := write(s.T(), s.root, "main.go", tidy)
	_, err := New(path)
	s.Error(err)
}

func (s *FormatterSuite) TestMatches() {
	tests := []struct {
		rel  string
		want bool
	}{
		{"main.go", true},
		{"pkg/ddd/equal.go", true},
		{"README.md", false},
		{"vendor/x/y.go", false},
		{"pkg/vendor/y.go", false},
		{"_examples/repo/main.go", false},
		{"pkg/kit/testdata/bad.go", false},
		{".git/hooks/x.go", false},
	}
	for _, tt := range tests {
		s.Run(tt.rel, func() {
			s.Equal(tt.want, s.f.Matches(tt.rel))
		})
	}
}

func (s *FormatterSuite) TestFormatFile() {
	path := write(s.T(), s.root, "demo.go", messy)

	changed, err := s.f.FormatFile("demo.go")
	s.Require().NoError(err)
	s.True(changed)
	s.Equal(tidy, read(s.T(), path))

	changed, err = s.f.FormatFile(path)
	s.Require().NoError(err)
	s.False(changed)
}

func (s *FormatterSuite) TestFormatFileSyntaxError() {
	path := write(s.T(), s.root, "broken.go", "package demo\nfunc {\n")
	_, err := s.f.FormatFile(path)
	s.Error(err)
	s.Equal("package demo\nfunc {\n", read(s.T(), path))
}

func (s *FormatterSuite) TestFormatAll() {
	write(s.T(), s.root, "a.go", messy)
	write(s.T(), s.root, "pkg/b.go", tidy)
	write(s.T(), s.root, "pkg/deep/c.go", messy)
	write(s.T(), s.root, "pkg/broken.go", "package demo\nfunc {\n")
	skipped := write(s.T(), s.root, "_examples/d.go", messy)
	write(s.T(), s.root, "notes.txt", "func  x")

	report, err := s.f.FormatAll(context.Background())
	s.Require().NoError(err)
	s.Equal(4, report.Checked)
	s.Equal([]string{"a.go", "pkg/deep/c.go"}, report.Changed)
	s.Require().Len(report.Failed, 1)
	s.Contains(report.Failed, "pkg/broken.go")
	s.Equal(messy, read(s.T(), skipped))
}

func (s *FormatterSuite) TestFormatAllCancelled() {
	write(s.T(), s.root, "a.go", messy)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.f.FormatAll(ctx)
	s.ErrorIs(err, context.Canceled)
}

func TestWatcherFormatsWrites(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	f, err := New(root)
	require.NoError(t, err)

	w, err := f.NewWatcher()
	require.NoError(t, err)
	var rewrites atomic.Int32
	w.OnChange(func(string) { rewrites.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	path := write(t, root, "pkg/live.go", messy)
	assert.Eventually(t, func() bool {
		b, err := os.ReadFile(path)
		return err == nil && string(b) == tidy
	}, 5*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, rewrites.Load(), int32(1))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
