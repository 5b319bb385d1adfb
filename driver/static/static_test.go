package static

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preslavrachev/e2eharness/driver"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<a data-id="next" href="/next">Next</a>
<div data-id="card" data-href="/next">Card</div>
<div data-id="shown" style="color: red; display: flex">shown</div>
<div data-id="hiddenAttr" hidden><p data-id="inner">inner</p></div>
<div style="visibility: hidden"><span data-id="invisible">x</span></div>
<span data-id="spaced">  a
   b  </span>
<form method="post" action="/submit">
  <input data-id="name" name="name" value="initial">
  <textarea data-id="notes" name="notes">old</textarea>
  <input type="checkbox" name="flag" value="yes">
  <input name="skipped" value="x" disabled>
  <button data-id="save" name="op" value="save">Save</button>
  <button data-id="off" disabled>Off</button>
</form>
<input data-id="search" name="q" hx-get="/search" hx-trigger="input changed delay:300ms, search">
</body></html>`)
	})
	mux.HandleFunc("GET /next", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<h1 data-id="title">Next page</h1>`)
	})
	mux.HandleFunc("POST /submit", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		http.SetCookie(w, &http.Cookie{Name: "seen", Value: r.PostForm.Get("name")})
		http.Redirect(w, r, "/result?"+r.PostForm.Encode(), http.StatusSeeOther)
	})
	mux.HandleFunc("GET /result", func(w http.ResponseWriter, r *http.Request) {
		cookie, _ := r.Cookie("seen")
		query := strings.ReplaceAll(r.URL.RawQuery, "&", " ")
		fmt.Fprintf(w, `<p data-id="query">%s</p><p data-id="cookie">%s</p>`, query, cookie.Value)
	})
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<p data-id="term">%s</p>`, r.URL.Query().Get("q"))
	})
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openPage(t *testing.T) (*Page, context.Context) {
	t.Helper()
	srv := newTestServer(t)
	page, err := New(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { page.Close() })
	ctx := context.Background()
	require.NoError(t, page.Navigate(ctx, "/"))
	return page, ctx
}

func text(t *testing.T, ctx context.Context, f driver.Finder, selector string) string {
	t.Helper()
	el, err := f.Find(ctx, selector)
	require.NoError(t, err)
	got, err := el.Text(ctx)
	require.NoError(t, err)
	return got
}

func TestQueriesBeforeNavigation(t *testing.T) {
	page, err := New("http://localhost")
	require.NoError(t, err)

	_, err = page.Find(context.Background(), "p")
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.Empty(t, page.URL())
}

func TestFind(t *testing.T) {
	page, ctx := openPage(t)

	_, err := page.Find(ctx, `[data-id="missing"]`)
	assert.ErrorIs(t, err, driver.ErrNoElement)

	all, err := page.FindAll(ctx, `[data-id="missing"]`)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = page.Find(ctx, `div[data-id=`)
	require.Error(t, err)
	assert.False(t, errors.Is(err, driver.ErrNoElement))

	form, err := page.Find(ctx, "form")
	require.NoError(t, err)
	buttons, err := form.FindAll(ctx, "button")
	require.NoError(t, err)
	assert.Len(t, buttons, 2)

	assert.Equal(t, "a b", text(t, ctx, page, `[data-id="spaced"]`))
}

func TestClickNavigates(t *testing.T) {
	for _, id := range []string{"next", "card"} {
		t.Run(id, func(t *testing.T) {
			page, ctx := openPage(t)
			el, err := page.Find(ctx, fmt.Sprintf(`[data-id="%s"]`, id))
			require.NoError(t, err)

			require.NoError(t, el.Click(ctx))
			assert.Contains(t, page.URL(), "/next")
			assert.Equal(t, "Next page", text(t, ctx, page, `[data-id="title"]`))

			assert.ErrorIs(t, el.Click(ctx), ErrStale)
		})
	}
}

func TestFormSubmission(t *testing.T) {
	page, ctx := openPage(t)

	name, err := page.Find(ctx, `[data-id="name"]`)
	require.NoError(t, err)
	require.NoError(t, name.SetValue(ctx, "Ada"))
	value, err := name.Property(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "Ada", value)

	notes, err := page.Find(ctx, `[data-id="notes"]`)
	require.NoError(t, err)
	require.NoError(t, notes.Clear(ctx))

	save, err := page.Find(ctx, `[data-id="save"]`)
	require.NoError(t, err)
	require.NoError(t, save.Click(ctx))

	assert.Equal(t, "name=Ada notes= op=save", text(t, ctx, page, `[data-id="query"]`))
	assert.Equal(t, "Ada", text(t, ctx, page, `[data-id="cookie"]`))
}

func TestDisabledButton(t *testing.T) {
	page, ctx := openPage(t)

	off, err := page.Find(ctx, `[data-id="off"]`)
	require.NoError(t, err)
	disabled, err := off.Property(ctx, "disabled")
	require.NoError(t, err)
	assert.Equal(t, "true", disabled)
	assert.ErrorIs(t, off.Click(ctx), ErrDisabled)
}

func TestLiveSearch(t *testing.T) {
	page, ctx := openPage(t)

	search, err := page.Find(ctx, `[data-id="search"]`)
	require.NoError(t, err)
	require.NoError(t, search.SetValue(ctx, "APX 1"))

	require.NoError(t, search.DispatchEvent(ctx, "change"))
	_, err = page.Find(ctx, `[data-id="term"]`)
	assert.ErrorIs(t, err, driver.ErrNoElement)

	require.NoError(t, search.DispatchEvent(ctx, "input"))
	assert.Equal(t, "APX 1", text(t, ctx, page, `[data-id="term"]`))
	assert.NoError(t, search.Blur(ctx), "blurring a replaced input is a no-op")
	assert.ErrorIs(t, search.SetValue(ctx, "x"), ErrStale)
}

func TestCSSValue(t *testing.T) {
	page, ctx := openPage(t)

	tests := []struct {
		id, property, want string
	}{
		{"shown", "display", "flex"},
		{"shown", "color", "red"},
		{"shown", "visibility", "visible"},
		{"hiddenAttr", "display", "none"},
		{"inner", "display", "none"},
		{"invisible", "visibility", "hidden"},
		{"invisible", "display", "inline"},
		{"card", "display", "block"},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.property, func(t *testing.T) {
			el, err := page.Find(ctx, fmt.Sprintf(`[data-id="%s"]`, tt.id))
			require.NoError(t, err)
			got, err := el.CSSValue(ctx, tt.property)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServerError(t *testing.T) {
	page, ctx := openPage(t)

	err := page.Navigate(ctx, "/broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	// the previous document stays loaded
	assert.Equal(t, "Next", text(t, ctx, page, `[data-id="next"]`))
}

func TestTriggers(t *testing.T) {
	assert.True(t, triggers("input changed delay:300ms, search", "input"))
	assert.True(t, triggers("input changed delay:300ms, search", "search"))
	assert.False(t, triggers("keyup", "input"))
	assert.False(t, triggers("", "input"))
}
