// Package driver defines the UI query surface the harness works against.
//
// A Page is one browser tab (or an in-process document) that can be navigated
// and queried with CSS selectors. Elements returned from a query are live
// handles for real browsers and snapshots for the static driver; callers must
// not hold on to them across operations.
package driver

import (
	"context"
	"errors"
)

// ErrNoElement is returned by Find when the selector matches nothing.
var ErrNoElement = errors.New("no element matches selector")

// Finder runs CSS selector queries.
type Finder interface {
	// Find returns the first element matching selector, or ErrNoElement.
	Find(ctx context.Context, selector string) (Element, error)

	// FindAll returns every element matching selector; an empty result is not
	// an error.
	FindAll(ctx context.Context, selector string) ([]Element, error)
}

// Page is a navigable document.
type Page interface {
	Finder

	// Navigate loads path, resolved against the page's base URL.
	Navigate(ctx context.Context, path string) error

	// URL returns the address of the currently loaded document.
	URL() string

	Close() error
}

// Element is a single node of the document. Queries through its Finder are
// scoped to the element's subtree.
type Element interface {
	Finder

	// Attribute returns the attribute value, or "" when absent.
	Attribute(ctx context.Context, name string) (string, error)

	// CSSValue returns the computed value of a CSS property.
	CSSValue(ctx context.Context, property string) (string, error)

	// Property returns a DOM property rendered as a string ("true"/"false" for
	// booleans such as "disabled").
	Property(ctx context.Context, name string) (string, error)

	HasClass(ctx context.Context, class string) (bool, error)

	// Text returns the trimmed text content.
	Text(ctx context.Context) (string, error)

	Click(ctx context.Context) error
	SetValue(ctx context.Context, value string) error
	Clear(ctx context.Context) error
	DispatchEvent(ctx context.Context, event string) error
	Blur(ctx context.Context) error
}
