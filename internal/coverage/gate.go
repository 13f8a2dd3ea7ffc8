// Package coverage runs the Go test suite with a cover profile and fails when
// total statement coverage falls below a threshold.
package coverage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrBelowThreshold is returned when total coverage is under the gate.
	ErrBelowThreshold = errors.New("coverage below threshold")
	// ErrNoTotal is returned when cover output carries no total line.
	ErrNoTotal = errors.New("no total line in cover output")
	// ErrNoModule is returned when the root directory has no go.mod.
	ErrNoModule = errors.New("go.mod not found")
)

const profileName = "coverage.out"

// Result is the outcome of one gate run.
type Result struct {
	Rate      float64
	Threshold float64
}

// Passed reports whether Rate meets Threshold.
func (r Result) Passed() bool {
	return r.Rate >= r.Threshold
}

func (r Result) String() string {
	return fmt.Sprintf("coverage %.1f%% (threshold %.1f%%)", r.Rate, r.Threshold)
}

// Gate runs go test with coverage for a module rooted at Root.
type Gate struct {
	root   string
	runner Runner
	logger *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(g *Gate) {
		g.runner = r
	}
}

// WithLogger sets the logger used to report progress.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// New creates a Gate for the module at root. root must contain a go.mod.
func New(root string, opts ...Option) (*Gate, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if _, err := os.Stat(filepath.Join(abs, "go.mod")); err != nil {
		return nil, fmt.Errorf("%w in %s", ErrNoModule, abs)
	}

	g := &Gate{
		root:   abs,
		runner: OSRunner{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Run measures coverage for packages and compares it against threshold. The
// returned error wraps ErrBelowThreshold when the gate fails; Result is still
// populated in that case.
func (g *Gate) Run(ctx context.Context, packages string, threshold float64) (Result, error) {
	res := Result{Threshold: threshold}
	profile := filepath.Join(g.root, profileName)
	defer os.Remove(profile)

	g.logger.InfoContext(ctx, "running tests with coverage", "packages", packages)
	if out, err := g.runner.RunInDir(ctx, g.root, "go", "test", "-coverprofile="+profile, packages); err != nil {
		return res, fmt.Errorf("go test: %w\n%s", err, out)
	}

	out, err := g.runner.RunInDir(ctx, g.root, "go", "tool", "cover", "-func="+profile)
	if err != nil {
		return res, fmt.Errorf("go tool cover: %w\n%s", err, out)
	}

	res.Rate, err = ParseTotal(string(out))
	if err != nil {
		return res, err
	}
	g.logger.InfoContext(ctx, "coverage measured", "rate", res.Rate, "threshold", threshold)
	return res, Check(res.Rate, threshold)
}

// ParseTotal extracts the percentage from the total line printed by
// go tool cover -func.
func ParseTotal(output string) (float64, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "total:" {
			continue
		}
		pct := strings.TrimSuffix(fields[len(fields)-1], "%")
		rate, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return 0, fmt.Errorf("parse total %q: %w", fields[len(fields)-1], err)
		}
		return rate, nil
	}
	return 0, ErrNoTotal
}

// Check fails when rate is strictly below threshold.
func Check(rate, threshold float64) error {
	if rate < threshold {
		return fmt.Errorf("%w: %.1f%% < %.1f%%", ErrBelowThreshold, rate, threshold)
	}
	return nil
}
