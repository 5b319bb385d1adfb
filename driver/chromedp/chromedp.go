// Package chromedp implements driver.Page over the Chrome DevTools Protocol
// with chromedp. It needs a local Chrome or Chromium but no Node.js runtime.
package chromedp

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/driver"
)

// Options configure the browser started by Launch.
type Options struct {
	BaseURL  string
	Headless bool
	// ExecPath overrides Chrome discovery.
	ExecPath string
	Log      logrus.FieldLogger
}

// Browser is a running Chrome instance.
type Browser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	opts          Options
}

// Launch starts Chrome.
func Launch(opts Options) (*Browser, error) {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	// the first Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("could not launch chrome: %w", err)
	}
	opts.Log.WithField("headless", opts.Headless).Info("chrome launched")
	return &Browser{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		opts:          opts,
	}, nil
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
	)
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Headless)
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	return allocOpts
}

// NewPage opens a new tab.
func (b *Browser) NewPage() (*Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("could not open tab: %w", err)
	}
	return &Page{tab: tabCtx, cancel: cancel, base: strings.TrimSuffix(b.opts.BaseURL, "/"), log: b.opts.Log}, nil
}

// Close stops Chrome.
func (b *Browser) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}

// Page is one Chrome tab.
type Page struct {
	tab    context.Context
	cancel context.CancelFunc
	base   string
	log    logrus.FieldLogger
}

var _ driver.Page = (*Page)(nil)

// run executes actions on the tab, aborting when ctx is done. Canceling the
// derived context stops the actions but leaves the tab open.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// resolve prefixes absolute paths with the base URL; full URLs pass through.
func (p *Page) resolve(path string) string {
	if strings.HasPrefix(path, "/") {
		return p.base + path
	}
	return path
}

func (p *Page) Navigate(ctx context.Context, path string) error {
	target := p.resolve(path)
	if err := p.run(ctx, chromedp.Navigate(target)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", target, err)
	}
	p.log.WithField("url", target).Debug("page loaded")
	return nil
}

func (p *Page) URL() string {
	var location string
	if err := chromedp.Run(p.tab, chromedp.Location(&location)); err != nil {
		return ""
	}
	return location
}

func (p *Page) Close() error {
	p.cancel()
	return nil
}

func (p *Page) Find(ctx context.Context, selector string) (driver.Element, error) {
	return p.first(ctx, selector)
}

func (p *Page) FindAll(ctx context.Context, selector string) ([]driver.Element, error) {
	return p.all(ctx, selector)
}

func (p *Page) query(ctx context.Context, selector string, opts ...chromedp.QueryOption) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	opts = append([]chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}, opts...)
	if err := p.run(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (p *Page) first(ctx context.Context, selector string, opts ...chromedp.QueryOption) (driver.Element, error) {
	nodes, err := p.query(ctx, selector, opts...)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", driver.ErrNoElement, selector)
	}
	return &Element{page: p, node: nodes[0]}, nil
}

func (p *Page) all(ctx context.Context, selector string, opts ...chromedp.QueryOption) ([]driver.Element, error) {
	nodes, err := p.query(ctx, selector, opts...)
	if err != nil {
		return nil, err
	}
	elements := make([]driver.Element, len(nodes))
	for i, n := range nodes {
		elements[i] = &Element{page: p, node: n}
	}
	return elements, nil
}

// Element is a DOM node of the tab's current document.
type Element struct {
	page *Page
	node *cdp.Node
}

var _ driver.Element = (*Element)(nil)

func (e *Element) Find(ctx context.Context, selector string) (driver.Element, error) {
	return e.page.first(ctx, selector, chromedp.FromNode(e.node))
}

func (e *Element) FindAll(ctx context.Context, selector string) ([]driver.Element, error) {
	return e.page.all(ctx, selector, chromedp.FromNode(e.node))
}

// call runs a JavaScript function with the node bound to this.
func (e *Element) call(ctx context.Context, function string, res any, args ...any) error {
	return e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(e.node.BackendNodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolving node %s: %w", e.node.FullXPath(), err)
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()
		return chromedp.CallFunctionOn(function, res, onObject(obj.ObjectID), args...).Do(ctx)
	}))
}

// onObject binds this of a called function to the remote object id.
func onObject(id runtime.RemoteObjectID) chromedp.CallOption {
	return func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
		return p.WithObjectID(id)
	}
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	var v string
	err := e.call(ctx, `function(n) { return this.getAttribute(n) || ""; }`, &v, name)
	return v, err
}

func (e *Element) CSSValue(ctx context.Context, property string) (string, error) {
	var v string
	err := e.call(ctx, `function(p) { return getComputedStyle(this).getPropertyValue(p); }`, &v, property)
	return v, err
}

func (e *Element) Property(ctx context.Context, name string) (string, error) {
	var v string
	err := e.call(ctx, `function(n) { return String(this[n]); }`, &v, name)
	return v, err
}

func (e *Element) HasClass(ctx context.Context, class string) (bool, error) {
	var v bool
	err := e.call(ctx, `function(c) { return this.classList.contains(c); }`, &v, class)
	return v, err
}

func (e *Element) Text(ctx context.Context) (string, error) {
	var v string
	err := e.call(ctx, `function() { return this.innerText || this.textContent || ""; }`, &v)
	return strings.TrimSpace(v), err
}

func (e *Element) Click(ctx context.Context) error {
	return e.page.run(ctx, chromedp.MouseClickNode(e.node))
}

func (e *Element) SetValue(ctx context.Context, value string) error {
	return e.call(ctx, `function(v) { this.focus(); this.value = v; }`, nil, value)
}

func (e *Element) Clear(ctx context.Context) error {
	return e.SetValue(ctx, "")
}

func (e *Element) DispatchEvent(ctx context.Context, event string) error {
	return e.call(ctx, `function(t) { this.dispatchEvent(new Event(t, {bubbles: true})); }`, nil, event)
}

func (e *Element) Blur(ctx context.Context) error {
	return e.call(ctx, `function() { this.blur(); }`, nil)
}
