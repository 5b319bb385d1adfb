package ui

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqladapter "github.com/preslavrachev/e2eharness/adapters/sql"
	"github.com/preslavrachev/e2eharness/core"
	"github.com/preslavrachev/e2eharness/middleware/auth"
)

type testApp struct {
	app    *core.App
	srv    *httptest.Server
	client *http.Client
}

func setupHandlerTest(t *testing.T, authConfig auth.AuthConfig, opts ...core.Option) *testApp {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	store, err := sqladapter.Open(context.Background(), ":memory:", log, false)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	app := core.New(store, authConfig, append([]core.Option{core.WithLogger(log)}, opts...)...)
	srv := httptest.NewServer(Handler(app))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testApp{app: app, srv: srv, client: &http.Client{Jar: jar}}
}

func withLogin(t *testing.T) auth.AuthConfig {
	t.Helper()
	users := map[string]auth.BasicAuthUser{
		"admin": auth.NewBasicAuthUser("admin", "admin123", "admin001", "admin@test.com", nil),
	}
	return auth.WithBasicAuth(users, auth.NewMemorySessionStore(time.Hour, nil), nil)
}

// get fetches path and parses the response body.
func (ta *testApp) get(t *testing.T, path string) (*http.Response, *goquery.Document) {
	t.Helper()
	resp, err := ta.client.Get(ta.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return resp, doc
}

func (ta *testApp) post(t *testing.T, path string, form url.Values) (*http.Response, *goquery.Document) {
	t.Helper()
	resp, err := ta.client.PostForm(ta.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return resp, doc
}

func hosts(doc *goquery.Document) []string {
	var out []string
	doc.Find("[data-host]").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.AttrOr("data-host", ""))
	})
	return out
}

func TestLoginFlow(t *testing.T) {
	ta := setupHandlerTest(t, withLogin(t))

	resp, doc := ta.get(t, "/")
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Equal(t, []string{HostRoot, HostLogin}, hosts(doc))
	assert.Zero(t, doc.Find(`[data-id="appHeader"]`).Length(), "header is hidden before login")

	resp, doc = ta.post(t, "/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid username or password", doc.Find(`[data-id="loginError"]`).Text())

	resp, doc = ta.post(t, "/login", url.Values{"username": {"admin"}, "password": {"admin123"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/home", resp.Request.URL.Path)
	assert.Equal(t, []string{HostRoot, HostHome}, hosts(doc))
	assert.Equal(t, "admin", doc.Find(`[data-id="currentUser"]`).Text())
	assert.Equal(t, "/contracts", doc.Find(`[data-id="navToContractsLink"]`).AttrOr("data-href", ""))

	resp, doc = ta.post(t, "/logout", nil)
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, hosts(doc), HostLogin)

	resp, _ = ta.get(t, "/contracts")
	assert.Equal(t, "/login", resp.Request.URL.Path, "session must be gone after logout")
}

func TestLoginReturnsToRequestedPage(t *testing.T) {
	ta := setupHandlerTest(t, withLogin(t))

	resp, doc := ta.get(t, "/contracts?q=APXE2E")
	assert.Equal(t, "/login", resp.Request.URL.Path)
	returnURL := doc.Find(`input[name="return"]`).AttrOr("value", "")
	assert.Equal(t, "/contracts?q=APXE2E", returnURL)

	resp, doc = ta.post(t, "/login", url.Values{"username": {"admin"}, "password": {"admin123"}, "return": {returnURL}})
	assert.Equal(t, "/contracts", resp.Request.URL.Path)
	assert.Equal(t, "APXE2E", doc.Find(`[data-id="contractSearchInput"]`).AttrOr("value", ""))

	resp, _ = ta.post(t, "/login", url.Values{"username": {"admin"}, "password": {"admin123"}, "return": {"https://evil.test/"}})
	assert.Equal(t, "/home", resp.Request.URL.Path)
}

func TestContractLifecycle(t *testing.T) {
	ta := setupHandlerTest(t, auth.WithNoAuth())

	_, doc := ta.get(t, "/contracts")
	assert.Equal(t, 0, doc.Find(`table[data-id="contractList"] tbody tr`).Length())
	assert.Equal(t, 1, doc.Find(`[data-id="noContracts"]`).Length())
	assert.Equal(t, "/contracts/new", doc.Find(`[data-id="addContractButton"]`).AttrOr("href", ""))

	_, doc = ta.get(t, "/contracts/new")
	assert.Equal(t, "New contract", doc.Find(`[data-id="formTitle"]`).Text())
	assert.Equal(t, "/contracts", doc.Find("form").Last().AttrOr("action", ""))

	resp, doc := ta.post(t, "/contracts", url.Values{"number": {"APXE2E 1700000000000"}, "conditions": {"net 30"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Contract saved", doc.Find(`[data-id="notice"]`).Text())

	row := doc.Find(`table[data-id="contractList"] tbody tr`)
	require.Equal(t, 1, row.Length())
	id := row.AttrOr("data-id", "")
	assert.Len(t, id, 36)
	assert.Equal(t, "APXE2E 1700000000000", row.Find(`td[data-column="number"]`).Text())
	assert.Equal(t, "net 30", row.Find(`td[data-id="contractConditions"]`).Text())
	assert.Equal(t, EditContractPath(id), row.Find(`[data-id="editContract"]`).AttrOr("href", ""))

	_, doc = ta.get(t, EditContractPath(id))
	assert.Equal(t, "APXE2E 1700000000000", doc.Find(`[data-id="numberInput"]`).AttrOr("value", ""))
	assert.Equal(t, "net 30", doc.Find(`[data-id="conditionsInput"]`).Text())
	assert.Equal(t, ContractPath(id), doc.Find("form").Last().AttrOr("action", ""))

	_, doc = ta.post(t, ContractPath(id), url.Values{"number": {"APXE2E 1700000000000"}, "conditions": {"prepaid"}})
	assert.Equal(t, "prepaid", doc.Find(`td[data-column="conditions"]`).Text())

	_, doc = ta.get(t, DeleteContractPath(id))
	dialog := doc.Find(`[role="dialog"]#confirmMessageBox`)
	require.Equal(t, 1, dialog.Length())
	assert.Equal(t, "Delete contract APXE2E 1700000000000?", dialog.Find("[data-dialog-content]").Text())
	assert.Equal(t, DeleteContractPath(id), dialog.Find("form").AttrOr("action", ""))
	assert.Equal(t, 1, doc.Find(`[data-host="app-contracts"]`).Length(), "the list stays behind the dialog")

	_, doc = ta.post(t, DeleteContractPath(id), nil)
	assert.Equal(t, "Contract deleted", doc.Find(`[data-id="notice"]`).Text())
	assert.Equal(t, 0, doc.Find(`table[data-id="contractList"] tbody tr`).Length())

	resp, doc = ta.get(t, EditContractPath(id))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Contract not found", doc.Find(`[data-id="errorMessage"]`).Text())
}

func TestCreateContract_FormErrors(t *testing.T) {
	ta := setupHandlerTest(t, auth.WithNoAuth())
	_, err := ta.app.CreateContract(context.Background(), core.ContractInput{Number: "APXE2E 1"})
	require.NoError(t, err)

	resp, doc := ta.post(t, "/contracts", url.Values{"number": {"APXE2E 1"}, "conditions": {"dup"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "A contract with this number already exists", doc.Find(`[data-id="formError"]`).Text())
	assert.Equal(t, "dup", doc.Find(`[data-id="conditionsInput"]`).Text(), "input is kept")

	resp, doc = ta.post(t, "/contracts", url.Values{"number": {"  "}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Number: is required", doc.Find(`[data-id="formError"]`).Text())
}

func TestContractSearchAndSort(t *testing.T) {
	ta := setupHandlerTest(t, auth.WithNoAuth())
	for _, n := range []string{"APXE2E 2", "OTHER 1", "APXE2E 1"} {
		_, err := ta.app.CreateContract(context.Background(), core.ContractInput{Number: n})
		require.NoError(t, err)
	}

	numbersOf := func(doc *goquery.Document) []string {
		var out []string
		doc.Find(`td[data-column="number"]`).Each(func(_ int, s *goquery.Selection) {
			out = append(out, s.Text())
		})
		return out
	}

	_, doc := ta.get(t, "/contracts?q=apxe2e&sort=Number&direction=asc")
	assert.Equal(t, []string{"APXE2E 1", "APXE2E 2"}, numbersOf(doc))
	assert.Equal(t, "2 of 2 contracts", doc.Find(`[data-id="contractCount"]`).Text())

	search := doc.Find(`[data-id="contractSearchInput"]`)
	assert.Equal(t, "/contracts", search.AttrOr("hx-get", ""))
	assert.True(t, strings.HasPrefix(search.AttrOr("hx-trigger", ""), "input"))

	header := doc.Find(`thead a`).First()
	assert.Equal(t, "/contracts?direction=desc&q=apxe2e&sort=Number", header.AttrOr("href", ""))

	_, doc = ta.get(t, "/contracts?number=OTHER+1")
	assert.Equal(t, []string{"OTHER 1"}, numbersOf(doc))
}

func TestDeleteKeepsSearch(t *testing.T) {
	ta := setupHandlerTest(t, auth.WithNoAuth())
	var target *core.Contract
	for _, n := range []string{"APXE2E 1", "APXE2E 2", "OTHER 1"} {
		c, err := ta.app.CreateContract(context.Background(), core.ContractInput{Number: n})
		require.NoError(t, err)
		if n == "APXE2E 1" {
			target = c
		}
	}

	_, doc := ta.get(t, "/contracts?q=APXE2E+1")
	link := doc.Find(`[data-id="deleteContract"]`)
	require.Equal(t, 1, link.Length())
	assert.Equal(t, DeleteContractPath(target.ID)+"?q=APXE2E+1", link.AttrOr("href", ""))

	_, doc = ta.get(t, link.AttrOr("href", ""))
	assert.Equal(t, "APXE2E 1", doc.Find(`#confirmMessageBox input[name="q"]`).AttrOr("value", ""))

	resp, doc := ta.post(t, DeleteContractPath(target.ID), url.Values{"q": {"APXE2E 1"}})
	assert.Equal(t, "APXE2E 1", resp.Request.URL.Query().Get("q"))
	assert.Equal(t, "Contract deleted", doc.Find(`[data-id="notice"]`).Text())
	assert.Equal(t, 0, doc.Find(`table[data-id="contractList"] tbody tr`).Length())

	_, doc = ta.get(t, "/contracts")
	assert.Equal(t, 2, doc.Find(`table[data-id="contractList"] tbody tr`).Length())
}

func TestFeatureFlags(t *testing.T) {
	ta := setupHandlerTest(t, auth.WithNoAuth(), core.WithFeatures("FT_Reports"))

	_, doc := ta.get(t, "/home")
	assert.Equal(t, "FT_Reports", doc.Find(`meta[name="feature-flags"]`).AttrOr("content", ""))
	assert.Zero(t, doc.Find(`[data-id="navToContractsLink"]`).Length())

	resp, _ := ta.get(t, "/contracts")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNoAuthShowsHeader(t *testing.T) {
	ta := setupHandlerTest(t, auth.WithNoAuth(), core.WithTitle("Acme <Contracts>"))

	resp, doc := ta.get(t, "/")
	assert.Equal(t, "/home", resp.Request.URL.Path)
	assert.Equal(t, "Acme <Contracts>", doc.Find(`[data-id="appTitle"]`).Text())
	assert.Equal(t, "Acme <Contracts>", doc.Find("title").Text())

	resp, _ = ta.post(t, "/login", url.Values{"username": {"anyone"}})
	assert.Equal(t, "/home", resp.Request.URL.Path)
}

func TestHealthz(t *testing.T) {
	ta := setupHandlerTest(t, withLogin(t))

	resp, err := ta.client.Get(ta.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestParseQueryFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/contracts?q=+APXE2E+&sort=Number&direction=desc&limit=5&offset=10&conditions=x&unknown=y", nil)
	query := parseQueryFromRequest(req)

	assert.Equal(t, "APXE2E", query.Search)
	assert.Equal(t, map[string]any{"Conditions": "x"}, query.Filters)
	assert.Equal(t, core.SortField{Field: "Number", Direction: core.SortDesc}, *query.GetPrimarySort())
	assert.Equal(t, core.Pagination{Limit: 5, Offset: 10}, query.Pagination)

	query = parseQueryFromRequest(httptest.NewRequest(http.MethodGet, "/contracts", nil))
	assert.False(t, query.HasSearch())
	assert.False(t, query.HasSort())
	assert.Equal(t, core.DefaultPageSize, query.Pagination.Limit)
}
