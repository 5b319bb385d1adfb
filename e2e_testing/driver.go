package e2e

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/config"
	"github.com/preslavrachev/e2eharness/driver"
	"github.com/preslavrachev/e2eharness/driver/chromedp"
	"github.com/preslavrachev/e2eharness/driver/playwright"
	"github.com/preslavrachev/e2eharness/driver/static"
)

// Driver is an open page plus whatever has to be shut down with it.
type Driver struct {
	Page    driver.Page
	closers []func() error
}

// Close closes the page, then the browser.
func (d *Driver) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewDriver opens a page on cfg.BaseURL with the configured driver.
func NewDriver(cfg config.SuiteConfig, log logrus.FieldLogger) (*Driver, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("driver", cfg.Driver)

	switch cfg.Driver {
	case config.DriverStatic:
		page, err := static.New(cfg.BaseURL, static.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return &Driver{Page: page, closers: []func() error{page.Close}}, nil

	case config.DriverPlaywright:
		browser, err := playwright.Launch(playwright.Options{
			BaseURL:       cfg.BaseURL,
			Headless:      cfg.Headless,
			SlowMo:        cfg.SlowMo,
			ActionTimeout: cfg.ActionTimeout,
			Log:           log,
		})
		if err != nil {
			return nil, err
		}
		page, err := browser.NewPage()
		if err != nil {
			browser.Close()
			return nil, err
		}
		return &Driver{Page: page, closers: []func() error{browser.Close, page.Close}}, nil

	case config.DriverChromedp:
		browser, err := chromedp.Launch(chromedp.Options{
			BaseURL:  cfg.BaseURL,
			Headless: cfg.Headless,
			Log:      log,
		})
		if err != nil {
			return nil, err
		}
		page, err := browser.NewPage()
		if err != nil {
			browser.Close()
			return nil, err
		}
		return &Driver{Page: page, closers: []func() error{browser.Close, page.Close}}, nil
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}
