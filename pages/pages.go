// Package pages holds the page objects of the contracts app: one type per
// screen, exposing user-level actions and assertions built on the harness.
//
// Page objects hold no element handles. Every method looks up its harness
// again, so they stay valid across navigations.
package pages

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/driver"
	"github.com/preslavrachev/e2eharness/harness"
)

// Hosts of the app's screens.
const (
	hostLogin     = "app-login"
	hostHome      = "app-home"
	hostContracts = "app-contracts"
	hostContract  = "app-contract"
)

// Credentials are the account the suite logs in with.
type Credentials struct {
	User     string
	Password string
}

// Session is a browser tab on the app plus the settings every page object
// needs.
type Session struct {
	Page        driver.Page
	Credentials Credentials
	// Options are passed to every harness, typically wait policies.
	Options []harness.Option
	Log     logrus.FieldLogger
}

// NewSession returns a session on page.
func NewSession(page driver.Page, creds Credentials, log logrus.FieldLogger, opts ...harness.Option) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts = append([]harness.Option{harness.WithLogger(log)}, opts...)
	return &Session{Page: page, Credentials: creds, Options: opts, Log: log}
}

func (s *Session) waitFor(ctx context.Context, host string) (*harness.Harness, error) {
	return harness.WaitForHarness(ctx, s.Page, host, s.Options...)
}

func (s *Session) waitForPageLeft(ctx context.Context, host string) error {
	return harness.WaitForPageLeft(ctx, s.Page, host, s.Options...)
}

// Login returns the login page.
func (s *Session) Login() *Login { return &Login{s: s} }

// AppShell returns the frame around every page.
func (s *Session) AppShell() *AppShell { return &AppShell{s: s} }

// Home returns the landing page.
func (s *Session) Home() *Home { return &Home{s: s} }

// Contracts returns the contract list and form.
func (s *Session) Contracts() *Contracts { return &Contracts{s: s} }

// FeatureActive reports whether the app on page has the feature flag name
// turned on.
func (s *Session) FeatureActive(ctx context.Context, name string) (bool, error) {
	return FeatureActive(ctx, s.Page, name)
}
