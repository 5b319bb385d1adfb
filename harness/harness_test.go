package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preslavrachev/e2eharness/driver"
	"github.com/preslavrachev/e2eharness/driver/static"
	"github.com/preslavrachev/e2eharness/internal/testutil"
)

const contractsPage = `
<div data-host="contracts">
  <h1 data-id="title">Contracts</h1>
  <div data-id="toolbar">
    <button data-id="saveButton" class="primary" disabled><mat-icon>save</mat-icon> Save</button>
    <a data-id="add" href="/next">Add</a>
  </div>
  <input data-id="search" name="q" value="">
  <div data-id="hiddenPanel" style="display: none">hidden</div>
  <div data-id="busyPanel" data-busy="true"></div>
  <div data-id="list"><p>a</p><p>b</p><span>c</span></div>
  <table data-id="contractsTable">
    <thead><tr><th>Number</th></tr></thead>
    <tbody>
      <tr data-id="c1"><td data-column="number">APXE2E 123</td><td data-column="client">ACME</td><td><button data-id="edit">Edit</button></td></tr>
      <tr data-id="c2"><td data-column="number">APXE2E 456</td><td data-column="client">ACME</td><td><button data-id="edit" disabled>Edit</button></td></tr>
      <tr><td data-column="number">NOID</td><td data-column="client">Other</td></tr>
    </tbody>
  </table>
</div>
<div role="menu"><a role="menuitem" href="/next">Delete</a></div>
<div role="dialog" id="confirmMessageBox">
  <p data-dialog-content>Really delete?</p>
  <button data-id="confirmButton">OK</button>
  <button data-id="cancelButton">Cancel</button>
</div>`

type fixture struct {
	site  *testutil.Site
	page  *static.Page
	clock *testutil.FakeClock
	h     *Harness
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	site := testutil.NewSite(t)
	site.Set("/contracts", contractsPage)
	site.Set("/next", `<div data-host="next"><h1 data-id="title">Next</h1></div>`)
	page := site.Open(t, "/contracts")
	clock := testutil.NewFakeClock()
	h := New(page, "contracts",
		WithRootPage(page),
		WithClock(clock),
		WithWaitPolicy(WaitPolicy{Interval: 500 * time.Millisecond, Timeout: 2 * time.Second}))
	return &fixture{site: site, page: page, clock: clock, h: h}
}

func TestClick_DisabledButtonTimesOut(t *testing.T) {
	f := newFixture(t)

	err := f.h.Click(context.Background(), "saveButton")

	require.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "saveButton")
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 5, timeout.Attempts)
	assert.GreaterOrEqual(t, f.clock.Elapsed(), 2*time.Second)
}

func TestClick_FollowsLink(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.h.Click(context.Background(), "add"))
	assert.Contains(t, f.page.URL(), "/next")
	_, err := f.h.ElementText(context.Background(), "title")
	assert.ErrorIs(t, err, ErrHostNotFound)
}

func TestInTableRow_ResolvesUniqueRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	row := f.h.InTableRow("contractsTable", map[string]string{"number": "APXE2E 123"})
	enabled, err := row.ButtonEnabled(ctx, "edit")
	require.NoError(t, err)
	assert.True(t, enabled)

	row = f.h.InTableRow("contractsTable", map[string]string{"client": "ACME", "number": "APXE2E 456"})
	enabled, err = row.ButtonEnabled(ctx, "edit")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestInTableRow_NoMatchTimesOut(t *testing.T) {
	f := newFixture(t)

	row := f.h.InTableRow("contractsTable", map[string]string{"number": "APXE2E 999"})
	err := row.Click(context.Background(), "edit")

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.ErrorIs(t, timeout.Last, ErrScopeNotFound)
	assert.Equal(t, 5, timeout.Attempts)
}

func TestInTableRow_AmbiguousTimesOut(t *testing.T) {
	f := newFixture(t)

	row := f.h.InTableRow("contractsTable", map[string]string{"client": "ACME"})
	err := row.Click(context.Background(), "edit")

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.ErrorIs(t, timeout.Last, ErrAmbiguousScope)
}

func TestInTableRow_RowWithoutIDIsPermanent(t *testing.T) {
	f := newFixture(t)

	row := f.h.InTableRow("contractsTable", map[string]string{"number": "NOID"})
	err := row.Click(context.Background(), "edit")

	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Empty(t, f.clock.Sleeps())
}

func TestInTableRow_ResolvedOnEveryOperation(t *testing.T) {
	f := newFixture(t)
	f.site.Set("/contracts", `<div data-host="contracts"><table data-id="contractsTable"><tbody></tbody></table></div>`)
	testutil.Reload(t, f.page)

	f.clock.OnSleep = func(n int, d time.Duration) {
		if n == 2 {
			f.site.Set("/contracts", contractsPage)
			testutil.Reload(t, f.page)
		}
	}
	row := f.h.InTableRow("contractsTable", map[string]string{"number": "APXE2E 123"})

	require.NoError(t, row.Click(context.Background(), "edit"))
	assert.Len(t, f.clock.Sleeps(), 2)
}

func TestElementVisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for id, want := range map[string]bool{
		"title":       true,
		"hiddenPanel": false,
		"missing":     false,
	} {
		got, err := f.h.ElementVisible(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, want, got, id)
	}
	require.NoError(t, f.h.ExpectElementVisible(ctx, "hiddenPanel", false))
	assert.ErrorIs(t, f.h.ExpectElementVisible(ctx, "hiddenPanel", true), ErrTimeout)
}

func TestElementVisible_GoneScopeIsHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gone := f.h.InTableRow("contractsTable", map[string]string{"number": "APXE2E 999"})
	visible, err := gone.ElementVisible(ctx, "edit")
	require.NoError(t, err)
	assert.False(t, visible)
	require.NoError(t, gone.ExpectElementVisible(ctx, "edit", false))
	require.NoError(t, gone.ExpectElementPresent(ctx, "edit", false))
	assert.Empty(t, f.clock.Sleeps())

	ambiguous := f.h.InTableRow("contractsTable", map[string]string{"client": "ACME"})
	err = ambiguous.ExpectElementVisible(ctx, "edit", false)
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.ErrorIs(t, timeout.Last, ErrAmbiguousScope)
}

func TestElementVisible_LeftPageIsHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.page.Navigate(ctx, "/next"))

	visible, err := f.h.ElementVisible(ctx, "title")
	require.NoError(t, err)
	assert.False(t, visible)
	require.NoError(t, f.h.ExpectElementVisible(ctx, "title", false))
	require.NoError(t, f.h.ExpectElementPresent(ctx, "busyPanel", false))
	assert.Empty(t, f.clock.Sleeps())
}

func TestInElement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	toolbar := f.h.InElement("toolbar")

	text, err := toolbar.ButtonText(ctx, "saveButton")
	require.NoError(t, err)
	assert.Equal(t, "Save", text)

	_, err = toolbar.ElementText(ctx, "title")
	assert.ErrorIs(t, err, driver.ErrNoElement)

	has, err := toolbar.ElementHasClass(ctx, "saveButton", "primary")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestScopedCopies(t *testing.T) {
	f := newFixture(t)

	filter := map[string]string{"number": "APXE2E 123"}
	row := f.h.InTableRow("contractsTable", filter)
	filter["number"] = "changed"
	enabled, err := row.ButtonEnabled(context.Background(), "edit")
	require.NoError(t, err)
	assert.True(t, enabled)

	assert.Equal(t, scope{}, f.h.scope, "receiver is never modified")
	assert.Equal(t, f.h.InElement("toolbar"), f.h.InElement("toolbar").InElement("toolbar"))
	assert.Equal(t, row.Host(), f.h.Host())

	assert.Same(t, f.h, f.h.WithTimeout(0))
	longer := f.h.WithTimeout(time.Minute)
	assert.Equal(t, time.Minute, longer.Policy().Timeout)
	assert.Equal(t, 2*time.Second, f.h.Policy().Timeout)
}

func TestCountsAndValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kids, err := f.h.ElementChildCount(ctx, "list")
	require.NoError(t, err)
	assert.Equal(t, 3, kids)

	_, err = f.h.ElementChildCount(ctx, "nope")
	assert.ErrorIs(t, err, driver.ErrNoElement)

	rows, err := f.h.TableRowCount(ctx, "contractsTable")
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	require.NoError(t, f.h.ExpectTableRowCount(ctx, "contractsTable", 3))

	require.NoError(t, f.h.EnterValue(ctx, "search", "APXE2E", true))
	value, err := f.h.InputValue(ctx, "search")
	require.NoError(t, err)
	assert.Equal(t, "APXE2E", value)

	require.NoError(t, f.h.Enter(ctx, "search", ""))
	value, err = f.h.InputValue(ctx, "search")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, f.h.ExpectElementText(ctx, "title", "Contracts"))
}

func TestBusyAndPresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.h.ExpectElementFree(ctx, "busyPanel"), ErrTimeout)
	require.NoError(t, f.h.ExpectElementFree(ctx, "list"))
	require.NoError(t, f.h.ExpectElementPresent(ctx, "busyPanel", true))
	require.NoError(t, f.h.ExpectElementPresent(ctx, "nothing", false))
}

func TestRootPageRequired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := New(f.page, "contracts", WithClock(f.clock))

	_, err := h.MessageBoxPresent(ctx, MessageTypeConfirm, "")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, h.ExpectMessageBox(ctx, MessageTypeConfirm, ""), ErrNotInitialized)
	assert.ErrorIs(t, h.SelectMenuItem(ctx, "Delete"), ErrNotInitialized)
	_, err = h.InDialog(ctx, "confirmMessageBox")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Empty(t, f.clock.Sleeps())

	withRoot := h.WithRoot(f.page)
	present, err := withRoot.DialogPresent(ctx, "confirmMessageBox")
	require.NoError(t, err)
	assert.True(t, present)
}

func TestMessageBox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	present, err := f.h.MessageBoxPresent(ctx, MessageTypeConfirm, "Really delete?")
	require.NoError(t, err)
	assert.True(t, present)

	present, err = f.h.MessageBoxPresent(ctx, MessageTypeConfirm, "Something else")
	require.NoError(t, err)
	assert.False(t, present)

	present, err = f.h.MessageBoxPresent(ctx, MessageTypeError, "")
	require.NoError(t, err)
	assert.False(t, present)

	require.NoError(t, f.h.ExpectMessageBox(ctx, MessageTypeConfirm, "Really delete?"))
	require.NoError(t, f.h.MessageBoxClick(ctx, MessageCancel))
}

func TestInDialog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dialog, err := f.h.InDialog(ctx, "confirmMessageBox")
	require.NoError(t, err)
	assert.Equal(t, "confirmMessageBox", dialog.Host())

	text, err := dialog.ButtonText(ctx, "confirmButton")
	require.NoError(t, err)
	assert.Equal(t, "OK", text)

	_, err = f.h.InDialog(ctx, "errorMessageBox")
	assert.ErrorIs(t, err, driver.ErrNoElement)
}

func TestSelectMenuItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.h.SelectMenuItem(ctx, "Archive"), driver.ErrNoElement)
	require.NoError(t, f.h.SelectMenuItem(ctx, "Delete"))
	assert.Contains(t, f.page.URL(), "/next")
}

func TestWaitForHarness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h, err := WaitForHarness(ctx, f.page, "contracts", WithClock(f.clock))
	require.NoError(t, err)
	assert.Equal(t, "contracts", h.Host())
	assert.Empty(t, f.clock.Sleeps())

	_, err = WaitForHarness(ctx, f.page, "missing", WithClock(f.clock))
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "Failed to retrieve harness missing: harness not found", timeout.Message)
	assert.Equal(t, 13, timeout.Attempts)

	_, err = Locate(ctx, f.page, "missing")
	assert.ErrorIs(t, err, ErrHostNotFound)
}

func TestExpectPageLeft(t *testing.T) {
	site := testutil.NewSite(t)
	site.Set("/", `<div data-host="app-root"><div data-host="home">home</div></div>`)
	page := site.Open(t, "/")
	clock := testutil.NewFakeClock()
	clock.OnSleep = func(n int, d time.Duration) {
		site.Set("/", `<div data-host="app-root"><div data-host="contracts">list</div></div>`)
		testutil.Reload(t, page)
	}

	require.NoError(t, WaitForPageLeft(context.Background(), page, "home", WithClock(clock)))
	assert.Len(t, clock.Sleeps(), 1)
}

func TestHarnessUntil_UsesWaitPolicy(t *testing.T) {
	f := newFixture(t)
	calls := 0
	err := f.h.WithTimeout(time.Second).Until(context.Background(), func(context.Context) (bool, error) {
		calls++
		return false, nil
	}, "never")

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "never", timeout.Message)
	assert.Equal(t, 3, calls)
	assert.Equal(t, time.Second, f.clock.Elapsed())
}
