package static

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/preslavrachev/e2eharness/driver"
)

// Element is a node of a loaded document. Reads work on the snapshot it was
// found in; actions other than Blur fail with ErrStale once the page has
// navigated away.
type Element struct {
	page *Page
	doc  *goquery.Document
	sel  *goquery.Selection
}

var _ driver.Element = (*Element)(nil)

// inlineTags render with display:inline when no style says otherwise.
var inlineTags = map[string]bool{
	"a": true, "span": true, "mat-icon": true, "label": true, "strong": true, "em": true,
	"input": true, "button": true, "textarea": true, "select": true, "img": true,
}

func (e *Element) Find(ctx context.Context, selector string) (driver.Element, error) {
	return e.page.first(e.doc, e.sel, selector)
}

func (e *Element) FindAll(ctx context.Context, selector string) ([]driver.Element, error) {
	return e.page.all(e.doc, e.sel, selector)
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	return e.sel.AttrOr(name, ""), nil
}

// CSSValue supports display and visibility. An element inside a hidden or
// display:none subtree reports "none" as its display.
func (e *Element) CSSValue(ctx context.Context, property string) (string, error) {
	switch property {
	case "display":
		for s := e.sel; s.Length() > 0; s = s.Parent() {
			if _, hidden := s.Attr("hidden"); hidden {
				return "none", nil
			}
			if v, ok := inlineStyle(s, "display"); ok && v == "none" {
				return "none", nil
			}
		}
		if v, ok := inlineStyle(e.sel, "display"); ok {
			return v, nil
		}
		if inlineTags[goquery.NodeName(e.sel)] {
			return "inline", nil
		}
		return "block", nil
	case "visibility":
		// visibility inherits, the nearest declaration wins
		for s := e.sel; s.Length() > 0; s = s.Parent() {
			if v, ok := inlineStyle(s, "visibility"); ok {
				return v, nil
			}
		}
		return "visible", nil
	default:
		v, _ := inlineStyle(e.sel, property)
		return v, nil
	}
}

// inlineStyle reads property from the style attribute of s.
func inlineStyle(s *goquery.Selection, property string) (string, bool) {
	style, ok := s.Attr("style")
	if !ok {
		return "", false
	}
	for _, decl := range strings.Split(style, ";") {
		name, value, found := strings.Cut(decl, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(name), property) {
			continue
		}
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		return value, true
	}
	return "", false
}

func (e *Element) Property(ctx context.Context, name string) (string, error) {
	switch name {
	case "disabled", "checked", "hidden", "required", "readonly":
		_, ok := e.sel.Attr(name)
		return fmt.Sprint(ok), nil
	case "value":
		return fieldValue(e.sel), nil
	default:
		return e.sel.AttrOr(name, ""), nil
	}
}

func (e *Element) HasClass(ctx context.Context, class string) (bool, error) {
	return e.sel.HasClass(class), nil
}

// Text returns the text content with whitespace runs collapsed.
func (e *Element) Text(ctx context.Context) (string, error) {
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.live(); err != nil {
		return err
	}
	if _, disabled := e.sel.Attr("disabled"); disabled {
		return ErrDisabled
	}

	switch tag := goquery.NodeName(e.sel); {
	case tag == "a" && e.sel.AttrOr("href", "") != "":
		return e.page.Navigate(ctx, e.sel.AttrOr("href", ""))
	case e.sel.AttrOr("data-href", "") != "":
		return e.page.Navigate(ctx, e.sel.AttrOr("data-href", ""))
	case isSubmitter(e.sel):
		form := e.form()
		if form == nil {
			return nil
		}
		return e.page.submit(ctx, form, e.sel)
	}
	return nil
}

func isSubmitter(s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "button":
		t := strings.ToLower(s.AttrOr("type", "submit"))
		return t == "submit"
	case "input":
		t := strings.ToLower(s.AttrOr("type", ""))
		return t == "submit" || t == "image"
	}
	return false
}

// form returns the form owning e: the one named by its form attribute, or
// the closest enclosing one.
func (e *Element) form() *goquery.Selection {
	if id := e.sel.AttrOr("form", ""); id != "" {
		if f := e.doc.Find("form#" + id); f.Length() > 0 {
			return f.First()
		}
		return nil
	}
	if f := e.sel.Closest("form"); f.Length() > 0 {
		return f
	}
	return nil
}

func (e *Element) SetValue(ctx context.Context, value string) error {
	if err := e.live(); err != nil {
		return err
	}
	if goquery.NodeName(e.sel) == "textarea" {
		e.sel.SetText(value)
		return nil
	}
	e.sel.SetAttr("value", value)
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	return e.SetValue(ctx, "")
}

// DispatchEvent fires hx-get for elements whose hx-trigger lists event.
// Other events have no effect.
func (e *Element) DispatchEvent(ctx context.Context, event string) error {
	if err := e.live(); err != nil {
		return err
	}
	target := e.sel.AttrOr("hx-get", "")
	if target == "" || !triggers(e.sel.AttrOr("hx-trigger", ""), event) {
		return nil
	}
	u, err := e.page.resolve(target)
	if err != nil {
		return err
	}
	if name := e.sel.AttrOr("name", ""); name != "" {
		q := u.Query()
		q.Set(name, fieldValue(e.sel))
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	return e.page.load(req)
}

// triggers reports whether an hx-trigger value such as
// "input changed delay:300ms, search" includes event.
func triggers(value, event string) bool {
	for _, part := range strings.Split(value, ",") {
		fields := strings.Fields(part)
		if len(fields) > 0 && fields[0] == event {
			return true
		}
	}
	return false
}

// Blur is a no-op: focus is not modeled, and an input event may already have
// replaced the document.
func (e *Element) Blur(ctx context.Context) error {
	return nil
}

func (e *Element) live() error {
	if !e.page.loaded(e.doc) {
		return ErrStale
	}
	return nil
}

func fieldValue(s *goquery.Selection) string {
	switch goquery.NodeName(s) {
	case "textarea":
		return s.Text()
	case "select":
		opt := s.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = s.Find("option").First()
		}
		return opt.AttrOr("value", strings.TrimSpace(opt.Text()))
	default:
		return s.AttrOr("value", "")
	}
}

// submit sends the fields of form, plus the submitter's own name and value,
// the way a browser does for application/x-www-form-urlencoded forms.
func (p *Page) submit(ctx context.Context, form, submitter *goquery.Selection) error {
	values := url.Values{}
	form.Find("input[name], textarea[name], select[name]").Each(func(_ int, f *goquery.Selection) {
		if _, disabled := f.Attr("disabled"); disabled {
			return
		}
		name := f.AttrOr("name", "")
		switch strings.ToLower(f.AttrOr("type", "")) {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := f.Attr("checked"); !checked {
				return
			}
			values.Add(name, f.AttrOr("value", "on"))
			return
		}
		values.Add(name, fieldValue(f))
	})
	if name := submitter.AttrOr("name", ""); name != "" {
		values.Add(name, submitter.AttrOr("value", ""))
	}

	action := submitter.AttrOr("formaction", form.AttrOr("action", ""))
	target, err := p.resolve(action)
	if err != nil {
		return err
	}
	method := strings.ToUpper(submitter.AttrOr("formmethod", form.AttrOr("method", http.MethodGet)))

	var req *http.Request
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(values.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		target.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return err
		}
	}
	return p.load(req)
}
