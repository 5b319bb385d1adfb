// Package playwright implements driver.Page on top of playwright-go.
//
// Playwright locators auto-wait on their own. The harness does its own
// polling, so pages are created with a short default timeout and every query
// reports "not found" immediately instead of waiting.
package playwright

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/driver"
)

// Options configure the browser launched by Launch.
type Options struct {
	BaseURL  string
	Headless bool
	SlowMo   time.Duration
	// ActionTimeout bounds a single click or fill.
	ActionTimeout time.Duration
	Log           logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = time.Second
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	return o
}

func (o Options) launchOptions() playwright.BrowserTypeLaunchOptions {
	return playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(o.Headless),
		SlowMo:   playwright.Float(float64(o.SlowMo.Milliseconds())),
	}
}

// Browser owns the playwright process and one Chromium instance.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
}

// Launch starts playwright and a Chromium browser.
func Launch(opts Options) (*Browser, error) {
	opts = opts.withDefaults()

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(opts.launchOptions())
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	opts.Log.WithFields(logrus.Fields{"headless": opts.Headless, "slow_mo": opts.SlowMo}).Info("browser launched")
	return &Browser{pw: pw, browser: browser, opts: opts}, nil
}

// NewPage opens a tab in a fresh browser context.
func (b *Browser) NewPage() (*Page, error) {
	bc, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		BaseURL: playwright.String(b.opts.BaseURL),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	page, err := bc.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	page.SetDefaultTimeout(float64(b.opts.ActionTimeout.Milliseconds()))
	return &Page{page: page, context: bc, log: b.opts.Log}, nil
}

// Close shuts the browser and the playwright driver down.
func (b *Browser) Close() error {
	if err := b.browser.Close(); err != nil {
		return err
	}
	return b.pw.Stop()
}

// Page wraps a playwright page.
type Page struct {
	page    playwright.Page
	context playwright.BrowserContext
	log     logrus.FieldLogger
}

var _ driver.Page = (*Page)(nil)

func (p *Page) Navigate(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(path); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", path, err)
	}
	p.log.WithField("url", p.page.URL()).Debug("page loaded")
	return nil
}

func (p *Page) URL() string { return p.page.URL() }

func (p *Page) Close() error {
	return p.context.Close()
}

func (p *Page) Find(ctx context.Context, selector string) (driver.Element, error) {
	return first(ctx, p.page.Locator(selector), selector)
}

func (p *Page) FindAll(ctx context.Context, selector string) ([]driver.Element, error) {
	return all(ctx, p.page.Locator(selector))
}

func first(ctx context.Context, loc playwright.Locator, selector string) (driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := loc.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", driver.ErrNoElement, selector)
	}
	return &Element{loc: loc.First()}, nil
}

func all(ctx context.Context, loc playwright.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	locators, err := loc.All()
	if err != nil {
		return nil, err
	}
	elements := make([]driver.Element, len(locators))
	for i, l := range locators {
		elements[i] = &Element{loc: l}
	}
	return elements, nil
}

// Element is a locator pinned to one match.
type Element struct {
	loc playwright.Locator
}

var _ driver.Element = (*Element)(nil)

func (e *Element) Find(ctx context.Context, selector string) (driver.Element, error) {
	return first(ctx, e.loc.Locator(selector), selector)
}

func (e *Element) FindAll(ctx context.Context, selector string) ([]driver.Element, error) {
	return all(ctx, e.loc.Locator(selector))
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.loc.GetAttribute(name)
}

func (e *Element) CSSValue(ctx context.Context, property string) (string, error) {
	v, err := e.eval(ctx, "(el, p) => getComputedStyle(el).getPropertyValue(p)", property)
	return fmt.Sprint(v), err
}

func (e *Element) Property(ctx context.Context, name string) (string, error) {
	v, err := e.eval(ctx, "(el, n) => String(el[n])", name)
	return fmt.Sprint(v), err
}

func (e *Element) HasClass(ctx context.Context, class string) (bool, error) {
	v, err := e.eval(ctx, "(el, c) => el.classList.contains(c)", class)
	if err != nil {
		return false, err
	}
	has, _ := v.(bool)
	return has, nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.loc.InnerText()
	return strings.TrimSpace(text), err
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.loc.Click()
}

func (e *Element) SetValue(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.loc.Fill(value)
}

func (e *Element) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.loc.Clear()
}

func (e *Element) DispatchEvent(ctx context.Context, event string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.loc.DispatchEvent(event, nil)
}

func (e *Element) Blur(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.loc.Blur()
}

func (e *Element) eval(ctx context.Context, expression string, arg any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.loc.Evaluate(expression, arg)
}
