package ui

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/core"
	"github.com/preslavrachev/e2eharness/middleware/auth"
)

const searchParam = "q"

// Handler returns the HTTP handler of the contracts app
func Handler(app *core.App) http.Handler {
	h := &AppHandler{app: app, log: app.Logger().WithField("component", "ui")}
	authConfig := app.GetAuth()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
	})
	mux.HandleFunc("GET "+authConfig.LoginPath, h.loginHandler)
	mux.HandleFunc("POST "+authConfig.LoginPath, h.loginHandler)
	mux.HandleFunc("POST "+authConfig.LogoutPath, h.logoutHandler)
	mux.HandleFunc("GET /home", h.homeHandler)

	contracts := http.NewServeMux()
	contracts.HandleFunc("GET /contracts", h.listHandler)
	contracts.HandleFunc("POST /contracts", h.createHandler)
	contracts.HandleFunc("GET /contracts/new", h.newHandler)
	contracts.HandleFunc("GET /contracts/{id}/edit", h.editHandler)
	contracts.HandleFunc("POST /contracts/{id}", h.updateHandler)
	contracts.HandleFunc("GET /contracts/{id}/delete", h.confirmDeleteHandler)
	contracts.HandleFunc("POST /contracts/{id}/delete", h.deleteHandler)
	mux.Handle("/contracts", h.requireFeature(core.FeatureContracts, contracts))
	mux.Handle("/contracts/", h.requireFeature(core.FeatureContracts, contracts))

	var finalHandler http.Handler = mux
	for _, mw := range app.GetConfig().Middleware {
		finalHandler = mw(finalHandler)
	}
	return auth.CreateAuthMiddleware(authConfig)(finalHandler)
}

// AppHandler serves the pages of the contracts app
type AppHandler struct {
	app *core.App
	log logrus.FieldLogger
}

// requireFeature answers 404 while feature is off.
func (h *AppHandler) requireFeature(feature string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.app.FeatureActive(feature) {
			h.renderError(w, r, "Page not found", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// render writes the page inside the layout. The page is rendered into a
// buffer first so a template error never leaves a half written response.
func (h *AppHandler) render(w http.ResponseWriter, r *http.Request, status int, body templ.Component, extra ...templ.Component) {
	user, _ := auth.GetAuthUser(r.Context())
	cfg := h.app.GetConfig()
	layout := Layout(LayoutData{
		Title:      cfg.Title,
		Features:   cfg.Features,
		User:       user,
		ShowHeader: user != nil || !cfg.Auth.Enabled,
	}, body, extra...)

	var buf bytes.Buffer
	if err := layout.Render(r.Context(), &buf); err != nil {
		h.log.WithError(err).WithField("path", r.URL.Path).Error("template rendering failed")
		http.Error(w, "Template rendering error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *AppHandler) renderError(w http.ResponseWriter, r *http.Request, message string, status int) {
	h.render(w, r, status, ErrorPage(message))
}

// fail maps app errors onto responses.
func (h *AppHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		h.renderError(w, r, "Contract not found", http.StatusNotFound)
		return
	}
	h.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	h.renderError(w, r, "Something went wrong", http.StatusInternalServerError)
}

func (h *AppHandler) homeHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.GetAuthUser(r.Context())
	h.render(w, r, http.StatusOK, HomePage(user, h.app.FeatureActive(core.FeatureContracts)))
}

func (h *AppHandler) listHandler(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, nil)
}

// renderList renders the contract list for the request's query, with an
// optional dialog on top.
func (h *AppHandler) renderList(w http.ResponseWriter, r *http.Request, status int, dialog templ.Component) {
	query := parseQueryFromRequest(r)
	result, err := h.app.ListContracts(r.Context(), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view := ContractsView{
		Search:  query.Search,
		Columns: core.Columns(core.Contract{}),
		Result:  result,
		Sort:    query.GetPrimarySort(),
	}
	switch {
	case r.URL.Query().Has("saved"):
		view.Notice = "Contract saved"
	case r.URL.Query().Has("deleted"):
		view.Notice = "Contract deleted"
	}
	if dialog != nil {
		h.render(w, r, status, ContractsPage(view), dialog)
		return
	}
	h.render(w, r, status, ContractsPage(view))
}

func (h *AppHandler) newHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, ContractForm(FormView{}))
}

func (h *AppHandler) createHandler(w http.ResponseWriter, r *http.Request) {
	in, err := parseContractForm(r)
	if err != nil {
		h.renderError(w, r, "Invalid form data", http.StatusBadRequest)
		return
	}
	if _, err := h.app.CreateContract(r.Context(), in); err != nil {
		h.formError(w, r, FormView{Input: in}, err)
		return
	}
	http.Redirect(w, r, NewContractsURL().WithParam("saved", "1").String(), http.StatusSeeOther)
}

func (h *AppHandler) editHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.GetContract(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, ContractForm(FormView{
		ID:    c.ID,
		Input: core.ContractInput{Number: c.Number, Conditions: c.Conditions},
	}))
}

func (h *AppHandler) updateHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, err := parseContractForm(r)
	if err != nil {
		h.renderError(w, r, "Invalid form data", http.StatusBadRequest)
		return
	}
	if _, err := h.app.UpdateContract(r.Context(), id, in); err != nil {
		h.formError(w, r, FormView{ID: id, Input: in}, err)
		return
	}
	http.Redirect(w, r, NewContractsURL().WithParam("saved", "1").String(), http.StatusSeeOther)
}

// formError re-renders the form for input errors and fails otherwise.
func (h *AppHandler) formError(w http.ResponseWriter, r *http.Request, view FormView, err error) {
	switch {
	case core.IsValidation(err):
		view.Error = err.Error()
	case errors.Is(err, core.ErrDuplicateNumber):
		view.Error = "A contract with this number already exists"
	default:
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, ContractForm(view))
}

func (h *AppHandler) confirmDeleteHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.GetContract(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderList(w, r, http.StatusOK, ConfirmDelete(c, r.URL.Query().Get(searchParam)))
}

func (h *AppHandler) deleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteContract(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	next := NewContractsURL().WithSearch(r.FormValue(searchParam)).WithParam("deleted", "1")
	http.Redirect(w, r, next.String(), http.StatusSeeOther)
}

// loginHandler shows the login form and processes submissions
func (h *AppHandler) loginHandler(w http.ResponseWriter, r *http.Request) {
	authConfig := h.app.GetAuth()
	title := h.app.GetConfig().Title

	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, LoginPage(title, r.URL.Query().Get("return"), ""))
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, "Invalid form data", http.StatusBadRequest)
		return
	}
	returnURL := r.FormValue("return")
	redirectURL := auth.SafeReturnPath(returnURL, authConfig.LoginRedirect)

	if !authConfig.Enabled {
		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
		return
	}

	username := r.FormValue("username")
	user, err := authConfig.Authenticator(r.Context(), username, r.FormValue("password"))
	if err != nil {
		h.render(w, r, http.StatusUnauthorized, LoginPage(title, returnURL, "Invalid username or password"))
		return
	}

	sessionID, err := authConfig.SessionStore.CreateSession(r.Context(), user)
	if err != nil {
		h.log.WithError(err).Error("failed to create session")
		h.renderError(w, r, "Failed to create session", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, auth.CreateSessionCookie(sessionID))
	h.log.WithField("user", user.Username).Info("user logged in")
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// logoutHandler ends the session
func (h *AppHandler) logoutHandler(w http.ResponseWriter, r *http.Request) {
	authConfig := h.app.GetAuth()
	if authConfig.Enabled {
		if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
			authConfig.SessionStore.DeleteSession(r.Context(), cookie.Value)
		}
		http.SetCookie(w, auth.DeleteSessionCookie())
	}
	http.Redirect(w, r, authConfig.LogoutRedirect, http.StatusSeeOther)
}

func parseContractForm(r *http.Request) (core.ContractInput, error) {
	if err := r.ParseForm(); err != nil {
		return core.ContractInput{}, err
	}
	return core.ContractInput{
		Number:     r.PostFormValue("number"),
		Conditions: r.PostFormValue("conditions"),
	}, nil
}

// parseQueryFromRequest parses list parameters into a Query. Parameters
// named after a listed column (see core.Columns) filter on that column.
func parseQueryFromRequest(r *http.Request) *core.Query {
	params := r.URL.Query()
	query := core.NewQuery().WithSearch(strings.TrimSpace(params.Get(searchParam)))

	filters := make(map[string]any)
	for _, col := range core.Columns(core.Contract{}) {
		if params.Has(col.Key) {
			filters[col.Field] = params.Get(col.Key)
		}
	}
	query.WithFilters(filters)

	if sortBy := params.Get("sort"); sortBy != "" {
		direction := core.SortAsc
		if params.Get("direction") == "desc" {
			direction = core.SortDesc
		}
		query.WithSort(sortBy, direction)
	}

	limit, _ := strconv.Atoi(params.Get("limit"))
	offset, _ := strconv.Atoi(params.Get("offset"))
	query.WithPagination(limit, offset)

	return query
}
