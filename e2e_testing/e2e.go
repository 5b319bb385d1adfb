package e2e

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/config"
	"github.com/preslavrachev/e2eharness/harness"
	"github.com/preslavrachev/e2eharness/pages"
)

// ErrFailed is returned by Run when at least one test failed.
var ErrFailed = errors.New("some tests failed")

// NewSession returns a page object session on the driver page with the suite's
// credentials and wait policies.
func NewSession(d *Driver, cfg *config.Config, log logrus.FieldLogger) *pages.Session {
	return pages.NewSession(d.Page,
		pages.Credentials{User: cfg.Auth.User, Password: cfg.Auth.Password},
		log,
		harness.WithWaitPolicy(harness.WaitPolicy{Interval: cfg.Suite.WaitInterval, Timeout: cfg.Suite.WaitTimeout}),
		harness.WithLocatePolicy(harness.WaitPolicy{Interval: cfg.Suite.WaitInterval, Timeout: cfg.Suite.LocateTimeout}),
	)
}

// Run opens the configured driver on cfg.Suite.BaseURL, runs suites and
// writes the summary to w. It returns ErrFailed when a test failed.
func Run(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, w io.Writer, suites ...Suite) (*Runner, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"base_url": cfg.Suite.BaseURL,
		"driver":   cfg.Suite.Driver,
		"headless": cfg.Suite.Headless,
		"timeout":  cfg.Suite.WaitTimeout,
	}).Info("starting e2e tests")

	d, err := NewDriver(cfg.Suite, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.WithError(err).Warn("closing driver")
		}
	}()

	runner := NewRunner(ctx, NewSession(d, cfg, log), log)
	for _, s := range suites {
		if ctx.Err() != nil {
			break
		}
		runner.RunSuite(s)
	}
	runner.PrintSummary(w)

	if err := ctx.Err(); err != nil {
		return runner, err
	}
	if !runner.AllPassed() {
		return runner, ErrFailed
	}
	return runner, nil
}
