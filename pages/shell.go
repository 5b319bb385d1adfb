package pages

import (
	"context"
	"fmt"

	"github.com/preslavrachev/e2eharness/harness"
)

// Login is the sign-in page.
type Login struct {
	s *Session
}

// Login opens the app and signs in with the session credentials.
func (p *Login) Login(ctx context.Context) error {
	if err := p.s.Page.Navigate(ctx, "/"); err != nil {
		return err
	}
	h, err := p.s.waitFor(ctx, hostLogin)
	if err != nil {
		return err
	}
	if err := h.Enter(ctx, "loginInput", p.s.Credentials.User); err != nil {
		return err
	}
	if err := h.Enter(ctx, "passwordInput", p.s.Credentials.Password); err != nil {
		return err
	}
	if err := h.Click(ctx, "loginButton"); err != nil {
		return err
	}
	if err := p.s.waitForPageLeft(ctx, hostLogin); err != nil {
		return fmt.Errorf("login as %s: %w", p.s.Credentials.User, err)
	}
	p.s.Log.WithField("user", p.s.Credentials.User).Debug("logged in")
	return nil
}

// AppShell is the frame with the header every page renders into.
type AppShell struct {
	s *Session
}

// Logout clicks the header's logout button and waits for the header to go.
func (p *AppShell) Logout(ctx context.Context) error {
	h, err := p.s.waitFor(ctx, harness.RootHost)
	if err != nil {
		return err
	}
	if err := h.Click(ctx, "logoutButton"); err != nil {
		return err
	}
	return h.ExpectElementVisible(ctx, "appHeader", false)
}

// ShouldBeLogged waits for the header shown to signed-in users.
func (p *AppShell) ShouldBeLogged(ctx context.Context) error {
	h, err := p.s.waitFor(ctx, harness.RootHost)
	if err != nil {
		return err
	}
	return h.ExpectElementVisible(ctx, "appHeader", true)
}

// Home is the landing page after login.
type Home struct {
	s *Session
}

// OpenContracts follows the contracts card.
func (p *Home) OpenContracts(ctx context.Context) error {
	h, err := p.s.waitFor(ctx, hostHome)
	if err != nil {
		return err
	}
	if err := h.Click(ctx, "navToContractsLink"); err != nil {
		return err
	}
	return p.s.waitForPageLeft(ctx, hostHome)
}
