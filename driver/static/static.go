// Package static is a driver.Page over server-rendered HTML, without a
// browser. Documents are fetched with net/http and queried with goquery.
//
// It emulates just enough of a browser for server-rendered applications:
// links and data-href elements navigate, buttons submit their form, inputs
// hold values until submitted, and an input event on an element carrying
// hx-get and a matching hx-trigger issues that GET with the element's value.
// Styles are read from inline style attributes and the hidden attribute only.
package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/driver"
)

var (
	// ErrNoDocument is returned by queries before the first navigation.
	ErrNoDocument = errors.New("no document loaded")

	// ErrStale is returned when acting on an element of a document that has
	// since been replaced by a navigation.
	ErrStale = errors.New("element belongs to a document that is no longer loaded")

	// ErrDisabled is returned when clicking a disabled control.
	ErrDisabled = errors.New("element is disabled")
)

// Page is a static browser tab.
type Page struct {
	mu      sync.Mutex
	client  *http.Client
	base    *url.URL
	current *url.URL
	doc     *goquery.Document
	log     logrus.FieldLogger
}

var _ driver.Page = (*Page)(nil)

// Option configures a Page.
type Option func(*Page)

// WithHTTPClient replaces the default client. The client should carry a
// cookie jar for session cookies to survive navigations.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Page) { p.client = c }
}

// WithLogger sets the navigation logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Page) { p.log = l }
}

// New returns a page that resolves navigation paths against baseURL.
func New(baseURL string, opts ...Option) (*Page, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	p := &Page{
		client: &http.Client{Jar: jar},
		base:   base,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Navigate issues a GET for path.
func (p *Page) Navigate(ctx context.Context, path string) error {
	target, err := p.resolve(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}
	return p.load(req)
}

// URL returns the current document address.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ""
	}
	return p.current.String()
}

// Close is a no-op; there is nothing to release.
func (p *Page) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Find returns the first match of selector in the current document.
func (p *Page) Find(ctx context.Context, selector string) (driver.Element, error) {
	doc, err := p.document()
	if err != nil {
		return nil, err
	}
	return p.first(doc, doc.Selection, selector)
}

// FindAll returns every match of selector in the current document.
func (p *Page) FindAll(ctx context.Context, selector string) ([]driver.Element, error) {
	doc, err := p.document()
	if err != nil {
		return nil, err
	}
	return p.all(doc, doc.Selection, selector)
}

func (p *Page) document() (*goquery.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc == nil {
		return nil, ErrNoDocument
	}
	return p.doc, nil
}

func (p *Page) resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	from := p.base
	if p.current != nil {
		from = p.current
	}
	return from.ResolveReference(u), nil
}

// load executes req, following redirects, and replaces the document.
func (p *Page) load(req *http.Request) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", resp.Request.URL, err)
	}

	p.log.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    resp.Request.URL.String(),
		"status": resp.StatusCode,
	}).Debug("document loaded")

	p.mu.Lock()
	p.doc = doc
	p.current = resp.Request.URL
	p.mu.Unlock()
	return nil
}

// loaded reports whether doc is still the current document.
func (p *Page) loaded(doc *goquery.Document) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc == doc
}

func compile(selector string) (cascadia.Selector, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return m, nil
}

func (p *Page) first(doc *goquery.Document, from *goquery.Selection, selector string) (driver.Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	found := from.FindMatcher(m)
	if found.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", driver.ErrNoElement, selector)
	}
	return &Element{page: p, doc: doc, sel: found.First()}, nil
}

func (p *Page) all(doc *goquery.Document, from *goquery.Selection, selector string) ([]driver.Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	found := from.FindMatcher(m)
	elements := make([]driver.Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &Element{page: p, doc: doc, sel: s})
	})
	return elements, nil
}
