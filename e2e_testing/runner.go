// Package e2e runs the end-to-end suites of the contracts app: a small
// runner collecting results, the suites themselves written against the page
// objects, and the browser driver setup.
package e2e

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/pages"
)

var (
	succColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	skipColor = color.New(color.FgYellow)
	grayColor = color.New(color.Faint)
)

const (
	succMark = "✓"
	failMark = "✗"
	skipMark = "↷"
)

// ErrSkipped is returned by a test that does not apply to the app under test.
// The test counts as passed.
var ErrSkipped = errors.New("skipped")

// Skip returns an ErrSkipped carrying reason.
func Skip(reason string) error {
	return fmt.Errorf("%w: %s", ErrSkipped, reason)
}

// TestResult is the outcome of one test and its subtests.
type TestResult struct {
	Name     string
	Passed   bool
	Skipped  bool
	Error    string
	Duration time.Duration
	SubTests []TestResult
}

// Runner runs tests one after the other on a single browser session and
// keeps their results.
type Runner struct {
	ctx        context.Context
	session    *pages.Session
	log        logrus.FieldLogger
	results    []TestResult
	current    *TestResult
	subtestErr error
}

// NewRunner returns a runner whose tests work on session. Tests stop when
// ctx is done.
func NewRunner(ctx context.Context, session *pages.Session, log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{ctx: ctx, session: session, log: log}
}

// Context returns the context tests run under.
func (r *Runner) Context() context.Context { return r.ctx }

// Session returns the browser session tests work on.
func (r *Runner) Session() *pages.Session { return r.session }

// Run runs a top level test. The test fails if fn or any of its subtests
// fails.
func (r *Runner) Run(name string, fn func(*Runner) error) {
	log := r.log.WithField("test", name)
	log.Info("running test")

	result := TestResult{Name: name}
	r.current = &result
	r.subtestErr = nil
	start := time.Now()

	err := fn(r)
	result.Duration = time.Since(start)
	switch {
	case errors.Is(err, ErrSkipped):
		result.Passed, result.Skipped = true, true
		log.WithField("reason", err.Error()).Info("test skipped")
	case err != nil:
		result.Error = err.Error()
		log.WithError(err).Error("test failed")
	case r.subtestErr != nil:
		result.Error = fmt.Sprintf("subtests failed: %v", r.subtestErr)
		log.WithError(r.subtestErr).Error("test failed")
	default:
		result.Passed = true
		log.WithField("duration", result.Duration.Round(time.Millisecond)).Info("test passed")
	}

	r.current = nil
	r.results = append(r.results, result)
}

// RunSubtest runs a subtest of the running test parentName. The first
// failing subtest fails the parent.
func (r *Runner) RunSubtest(parentName, name string, fn func(*Runner) error) {
	fullName := parentName + "/" + name
	log := r.log.WithField("test", fullName)
	log.Info("running subtest")

	sub := TestResult{Name: name}
	start := time.Now()
	err := fn(r)
	sub.Duration = time.Since(start)

	switch {
	case errors.Is(err, ErrSkipped):
		sub.Passed, sub.Skipped = true, true
		log.WithField("reason", err.Error()).Info("subtest skipped")
	case err != nil:
		sub.Error = err.Error()
		if r.subtestErr == nil {
			r.subtestErr = fmt.Errorf("%s: %w", fullName, err)
		}
		log.WithError(err).Error("subtest failed")
	default:
		sub.Passed = true
		log.Info("subtest passed")
	}

	if r.current != nil {
		r.current.SubTests = append(r.current.SubTests, sub)
	}
}

// Results returns the results of every finished top level test.
func (r *Runner) Results() []TestResult {
	return r.results
}

// AllPassed reports whether every top level test passed.
func (r *Runner) AllPassed() bool {
	for _, result := range r.results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// PrintSummary writes one line per test and subtest followed by the totals.
func (r *Runner) PrintSummary(w io.Writer) {
	passed := 0
	_, _ = fmt.Fprintln(w)
	for _, result := range r.results {
		if result.Passed {
			passed++
		}
		printResult(w, "", result)
		for _, sub := range result.SubTests {
			printResult(w, "    ", sub)
		}
	}
	summary := succColor
	if passed != len(r.results) {
		summary = failColor
	}
	_, _ = fmt.Fprintln(w)
	_, _ = summary.Fprintf(w, "%d/%d tests passed\n", passed, len(r.results))
}

func printResult(w io.Writer, indent string, result TestResult) {
	duration := grayColor.Sprintf("(%s)", result.Duration.Round(time.Millisecond))
	switch {
	case result.Skipped:
		_, _ = skipColor.Fprintf(w, "%s%s %s", indent, skipMark, result.Name)
		_, _ = fmt.Fprintf(w, " %s\n", grayColor.Sprint("skipped"))
	case result.Passed:
		_, _ = succColor.Fprintf(w, "%s%s %s", indent, succMark, result.Name)
		_, _ = fmt.Fprintf(w, " %s\n", duration)
	default:
		_, _ = failColor.Fprintf(w, "%s%s %s", indent, failMark, result.Name)
		_, _ = fmt.Fprintf(w, " %s\n", duration)
		_, _ = failColor.Fprintf(w, "%s  ↳ %s\n", indent, result.Error)
	}
}
