package harness

import (
	"context"
	"fmt"

	"github.com/preslavrachev/e2eharness/driver"
)

// RootHost is the host of the application shell every page renders into.
const RootHost = "app-root"

// Locate returns a harness for host if the host is on the page right now.
func Locate(ctx context.Context, page driver.Page, host string, opts ...Option) (*Harness, error) {
	h := New(page, host, append([]Option{WithRootPage(page)}, opts...)...)
	if _, err := h.hostElement(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// WaitForHarness polls the page for host with the locate policy and returns
// a harness bound to it. The page doubles as the harness root page.
func WaitForHarness(ctx context.Context, page driver.Page, host string, opts ...Option) (*Harness, error) {
	h := New(page, host, append([]Option{WithRootPage(page)}, opts...)...)
	w := Waiter{Policy: h.locatePolicy, Clock: h.clock, Log: h.log}
	err := Until(ctx, w, func(ctx context.Context) (bool, error) {
		_, err := h.hostElement(ctx)
		return err == nil, err
	}, fmt.Sprintf("Failed to retrieve harness %s: harness not found", host))
	if err != nil {
		return nil, err
	}
	return h, nil
}

// ExpectPageLeft waits until no host named page is rendered inside h.
func (h *Harness) ExpectPageLeft(ctx context.Context, page string) error {
	return Until(ctx, h.waiter(), func(ctx context.Context) (bool, error) {
		host, err := h.hostElement(ctx)
		if err != nil {
			return false, err
		}
		found, err := host.FindAll(ctx, HostSelector(page))
		return len(found) == 0, err
	}, "Waiting for page leaving failed: timeout exceeded, but page is still not left.")
}

// WaitForPageLeft waits until host is gone from the application shell.
func WaitForPageLeft(ctx context.Context, page driver.Page, host string, opts ...Option) error {
	root, err := WaitForHarness(ctx, page, RootHost, opts...)
	if err != nil {
		return err
	}
	return root.ExpectPageLeft(ctx, host)
}
