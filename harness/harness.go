// Package harness implements identifier-based lookups and actions over a
// region of rendered UI, with polling waits for applications whose state
// changes asynchronously.
//
// A Harness is bound to a host container on a driver.Page. Every operation
// re-queries the host, resolves the current scope and builds its selector from
// scratch, so nothing is cached between operations. Scoped variants
// (InElement, InTableRow, WithTimeout) are copies; the receiver is never
// modified.
package harness

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/driver"
)

// ColumnAttribute names the column of a table cell.
const ColumnAttribute = "data-column"

// Harness is a handle over a host container.
type Harness struct {
	name         string
	hostSelector string
	page         driver.Page
	root         driver.Page
	scope        scope
	policy       WaitPolicy
	locatePolicy WaitPolicy
	clock        Clock
	log          logrus.FieldLogger
}

// scope holds at most one ancestor constraint: a static ancestor selector or
// a table row filter resolved on every use.
type scope struct {
	ancestor string
	table    string
	filter   map[string]string
}

// Option configures a new Harness.
type Option func(*Harness)

// WithRootPage sets the page used for lookups outside the host, such as
// dialogs and menus rendered in an overlay.
func WithRootPage(root driver.Page) Option {
	return func(h *Harness) { h.root = root }
}

// WithWaitPolicy sets the policy for waiting operations.
func WithWaitPolicy(p WaitPolicy) Option {
	return func(h *Harness) { h.policy = p }
}

// WithLocatePolicy sets the policy WaitForHarness uses to find the host.
func WithLocatePolicy(p WaitPolicy) Option {
	return func(h *Harness) { h.locatePolicy = p }
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(h *Harness) { h.clock = c }
}

// WithLogger sets the logger swallowed lookup errors are reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Harness) { h.log = l }
}

// New binds a harness to the host container on page. It does not check that
// the host is present; see WaitForHarness for that.
func New(page driver.Page, host string, opts ...Option) *Harness {
	h := &Harness{
		name:         host,
		hostSelector: HostSelector(host),
		page:         page,
		policy:       DefaultWaitPolicy,
		locatePolicy: DefaultLocatePolicy,
		clock:        SystemClock,
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithField("host", host)
	return h
}

// Host returns the host name the harness is bound to.
func (h *Harness) Host() string { return h.name }

// Page returns the page the harness queries.
func (h *Harness) Page() driver.Page { return h.page }

// Policy returns the wait policy of waiting operations.
func (h *Harness) Policy() WaitPolicy { return h.policy }

func (h *Harness) copy() *Harness {
	c := *h
	c.scope.filter = maps.Clone(h.scope.filter)
	return &c
}

// InElement returns a copy whose lookups are limited to the div identified by
// id.
func (h *Harness) InElement(id string) *Harness {
	c := h.copy()
	c.scope = scope{ancestor: "div" + IDSelector(id) + " "}
	return c
}

// InTableRow returns a copy whose lookups are limited to the single row of
// table tableID whose cells match every column/value pair of filter. The row
// is looked up again on every operation.
func (h *Harness) InTableRow(tableID string, filter map[string]string) *Harness {
	c := h.copy()
	c.scope = scope{table: tableID, filter: maps.Clone(filter)}
	return c
}

// WithTimeout returns a copy with a different wait timeout. A non-positive
// timeout returns the receiver itself.
func (h *Harness) WithTimeout(timeout time.Duration) *Harness {
	if timeout <= 0 {
		return h
	}
	c := h.copy()
	c.policy = h.policy.WithTimeout(timeout)
	return c
}

// WithPolicy returns a copy with a different wait policy.
func (h *Harness) WithPolicy(p WaitPolicy) *Harness {
	c := h.copy()
	c.policy = p
	return c
}

// WithRoot returns a copy that uses root for overlay lookups.
func (h *Harness) WithRoot(root driver.Page) *Harness {
	c := h.copy()
	c.root = root
	return c
}

func (h *Harness) waiter() Waiter {
	return Waiter{Policy: h.policy, Clock: h.clock, Log: h.log}
}

func (h *Harness) rootPage() (driver.Page, error) {
	if h.root == nil {
		return nil, ErrNotInitialized
	}
	return h.root, nil
}

// hostElement finds the host container on the current document.
func (h *Harness) hostElement(ctx context.Context) (driver.Element, error) {
	el, err := h.page.Find(ctx, h.hostSelector)
	if errors.Is(err, driver.ErrNoElement) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotFound, h.name)
	}
	return el, err
}

// ancestor returns the ancestor selector prefix for the current scope,
// resolving a row filter against the live table.
func (h *Harness) ancestor(ctx context.Context, host driver.Element) (string, error) {
	if h.scope.table == "" {
		return h.scope.ancestor, nil
	}
	if err := ValidateID(h.scope.table); err != nil {
		return "", err
	}

	rows, err := host.FindAll(ctx, tableRowsSelector(h.scope.table, ""))
	if err != nil {
		return "", err
	}
	var matched []driver.Element
	for _, row := range rows {
		values, err := rowValues(ctx, row)
		if err != nil {
			return "", err
		}
		if matchesFilter(values, h.scope.filter) {
			matched = append(matched, row)
		}
	}

	switch len(matched) {
	case 0:
		return "", fmt.Errorf("%w: table %s, filter %s", ErrScopeNotFound, h.scope.table, formatFilter(h.scope.filter))
	case 1:
	default:
		return "", fmt.Errorf("%w: table %s, filter %s, %d rows", ErrAmbiguousScope, h.scope.table, formatFilter(h.scope.filter), len(matched))
	}

	rowID, err := matched[0].Attribute(ctx, IDAttribute)
	if err != nil {
		return "", err
	}
	if rowID == "" {
		return "", Permanent(fmt.Errorf("row matched by %s in table %s has no %s attribute", formatFilter(h.scope.filter), h.scope.table, IDAttribute))
	}
	if err := ValidateID(rowID); err != nil {
		return "", err
	}
	return "tr" + IDSelector(rowID) + " ", nil
}

// rowValues maps the column name of every cell of row to its text.
func rowValues(ctx context.Context, row driver.Element) (map[string]string, error) {
	cells, err := row.FindAll(ctx, "td["+ColumnAttribute+"]")
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(cells))
	for _, cell := range cells {
		column, err := cell.Attribute(ctx, ColumnAttribute)
		if err != nil {
			return nil, err
		}
		text, err := cell.Text(ctx)
		if err != nil {
			return nil, err
		}
		values[column] = text
	}
	return values, nil
}

func matchesFilter(values, filter map[string]string) bool {
	for key, want := range filter {
		got, ok := values[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func formatFilter(filter map[string]string) string {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, filter[k]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// locateAll is locate for every matching element.
func (h *Harness) locateAll(ctx context.Context, build func(ancestor string) (string, error)) ([]driver.Element, error) {
	host, err := h.hostElement(ctx)
	if err != nil {
		return nil, err
	}
	ancestor, err := h.ancestor(ctx, host)
	if err != nil {
		return nil, err
	}
	selector, err := build(ancestor)
	if err != nil {
		return nil, err
	}
	return host.FindAll(ctx, selector)
}

// locate resolves the host and the scope, then finds the first element
// matching the selector built by build.
func (h *Harness) locate(ctx context.Context, build func(ancestor string) (string, error)) (driver.Element, error) {
	host, err := h.hostElement(ctx)
	if err != nil {
		return nil, err
	}
	ancestor, err := h.ancestor(ctx, host)
	if err != nil {
		return nil, err
	}
	selector, err := build(ancestor)
	if err != nil {
		return nil, err
	}
	return host.Find(ctx, selector)
}

// locateOptional is locate with "not found" mapped to a nil element. A
// missing host or a row filter matching nothing also counts as not found; an
// ambiguous row filter stays an error.
func (h *Harness) locateOptional(ctx context.Context, build func(ancestor string) (string, error)) (driver.Element, error) {
	el, err := h.locate(ctx, build)
	switch {
	case errors.Is(err, driver.ErrNoElement),
		errors.Is(err, ErrHostNotFound),
		errors.Is(err, ErrScopeNotFound):
		return nil, nil
	}
	return el, err
}

func tagged(id string, tags []string, suffix string) func(string) (string, error) {
	return func(ancestor string) (string, error) {
		return BuildSelector(id, tags, ancestor, suffix)
	}
}
