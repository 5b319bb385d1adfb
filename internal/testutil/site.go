// Package testutil holds helpers shared by package tests: a fake clock for
// the waiter and a mutable HTML site served over httptest.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/preslavrachev/e2eharness/driver/static"
)

// Site serves fixed HTML documents by path. Documents can be replaced while
// the server runs.
type Site struct {
	mu    sync.RWMutex
	pages map[string]string
	srv   *httptest.Server
}

// NewSite starts a server that is shut down with the test.
func NewSite(t *testing.T) *Site {
	t.Helper()
	s := &Site{pages: map[string]string{}}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	body, ok := s.pages[r.URL.Path]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, body)
}

// Set replaces the document at path. The body is wrapped in a minimal page.
func (s *Site) Set(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = "<!DOCTYPE html><html><body>" + body + "</body></html>"
}

// URL returns the server root.
func (s *Site) URL() string { return s.srv.URL }

// Open returns a static page with path loaded.
func (s *Site) Open(t *testing.T, path string) *static.Page {
	t.Helper()
	page, err := static.New(s.srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { page.Close() })
	require.NoError(t, page.Navigate(context.Background(), path))
	return page
}

// Reload fetches the current document of page again.
func Reload(t *testing.T, page *static.Page) {
	t.Helper()
	require.NoError(t, page.Navigate(context.Background(), page.URL()))
}
