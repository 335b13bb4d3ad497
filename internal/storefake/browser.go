package storefake

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/themizzi/storecheck/internal/driver"
)

const blankPage = `<html><head></head><body></body></html>`

// ErrNotEditable is returned when typing into something that is not a text
// input, or selecting on something that is not a select.
var ErrNotEditable = errors.New("element is not editable")

// Browser is one isolated browser context against the Store.
type Browser struct {
	store *Store

	mu      sync.Mutex
	closed  bool
	url     *url.URL
	cookies map[string]driver.Cookie
	storage map[string]string

	// page state, reset on every load
	values        map[string]string
	focus         string
	loginError    string
	checkoutError string
	menuOpen      bool
	sort          string
	pending       int

	doc       *goquery.Document
	renderErr error
}

var _ driver.Driver = (*Browser)(nil)

func (b *Browser) begin(ctx context.Context) error {
	if b.closed {
		return driver.ErrClosed
	}
	return ctx.Err()
}

// Navigate loads path relative to the store's base URL.
func (b *Browser) Navigate(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return err
	}
	u, err := b.store.base.Parse(path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	b.load(u)
	return nil
}

// load replaces the page, redirecting protected paths to the login page
// when there is no session cookie.
func (b *Browser) load(u *url.URL) {
	b.values = map[string]string{}
	b.focus = ""
	b.loginError = ""
	b.checkoutError = ""
	b.menuOpen = false
	b.sort = "az"

	if protected(u.Path) {
		if _, ok := b.cookies[SessionCookie]; !ok {
			b.loginError = loginRequired(u.Path)
			u = b.store.base.ResolveReference(&url.URL{Path: PathLogin})
		}
	}
	b.url = u
	b.invalidate()
}

func (b *Browser) loadPath(path string) {
	u, _ := b.store.base.Parse(path)
	b.load(u)
}

// CurrentURL returns a copy of the page URL, about:blank before any load.
func (b *Browser) CurrentURL(ctx context.Context) (*url.URL, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return nil, err
	}
	if b.url == nil {
		return &url.URL{Scheme: "about", Opaque: "blank"}, nil
	}
	u := *b.url
	return &u, nil
}

func (b *Browser) document() (*goquery.Document, error) {
	if b.url == nil || b.pending > 0 {
		if b.pending > 0 {
			b.pending--
		}
		return goquery.NewDocumentFromReader(strings.NewReader(blankPage))
	}
	if b.renderErr != nil {
		return nil, b.renderErr
	}
	return b.doc, nil
}

// invalidate re-renders the page from current state. Pages are rendered when
// something the app controls changes, so storage written from outside only
// shows up after the next load.
func (b *Browser) invalidate() {
	b.doc, b.renderErr = nil, nil
	if b.url == nil {
		return
	}
	html, err := b.render()
	if err != nil {
		b.renderErr = err
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		b.renderErr = fmt.Errorf("failed to parse page: %w", err)
		return
	}
	b.doc = doc
}

func (b *Browser) resolve(loc driver.Locator) (*goquery.Selection, error) {
	doc, err := b.document()
	if err != nil {
		return nil, err
	}
	sel := doc.Selection
	for _, step := range loc.Steps() {
		sel = sel.Find(step.Selector)
		if step.Index != driver.All {
			sel = sel.Eq(step.Index)
		}
	}
	return sel, nil
}

func (b *Browser) one(loc driver.Locator) (*goquery.Selection, error) {
	sel, err := b.resolve(loc)
	if err != nil {
		return nil, err
	}
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", loc, driver.ErrNotFound)
	}
	return sel.First(), nil
}

// Count returns the number of elements loc matches.
func (b *Browser) Count(ctx context.Context, loc driver.Locator) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return 0, err
	}
	sel, err := b.resolve(loc)
	if err != nil {
		return 0, err
	}
	return sel.Length(), nil
}

// Click focuses the first match of loc and triggers its action.
func (b *Browser) Click(ctx context.Context, loc driver.Locator) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return err
	}
	el, err := b.one(loc)
	if err != nil {
		return err
	}
	if id, ok := el.Attr("id"); ok && focusable(el) {
		b.focus = id
	}
	return b.activate(el)
}

// Type appends text to the value of a text input.
func (b *Browser) Type(ctx context.Context, loc driver.Locator, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return err
	}
	el, err := b.one(loc)
	if err != nil {
		return err
	}
	id, hasID := el.Attr("id")
	if !editable(el) || !hasID {
		return driver.Permanent(fmt.Errorf("type into %s: %w", loc, ErrNotEditable))
	}
	b.values[id] += text
	b.focus = id
	b.invalidate()
	return nil
}

// TypeFocused appends text to the focused text input. Keystrokes with
// nothing editable focused are an error rather than silently lost.
func (b *Browser) TypeFocused(ctx context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return err
	}
	if b.focus == "" {
		return fmt.Errorf("type into focused element: nothing focused: %w", ErrNotEditable)
	}
	doc, err := b.document()
	if err != nil {
		return err
	}
	el := doc.Find("#" + b.focus).First()
	if el.Length() == 0 || !editable(el) {
		return fmt.Errorf("type into #%s: %w", b.focus, ErrNotEditable)
	}
	b.values[b.focus] += text
	b.invalidate()
	return nil
}

// Select picks an option of a select element by value.
func (b *Browser) Select(ctx context.Context, loc driver.Locator, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return err
	}
	el, err := b.one(loc)
	if err != nil {
		return err
	}
	if goquery.NodeName(el) != "select" {
		return driver.Permanent(fmt.Errorf("select in %s: %w", loc, ErrNotEditable))
	}
	if !isSortValue(value) {
		return driver.Permanent(fmt.Errorf("select in %s: no option with value %q", loc, value))
	}
	b.sort = value
	if id, ok := el.Attr("id"); ok {
		b.focus = id
	}
	b.invalidate()
	return nil
}

// Press handles Tab, Shift+Tab and Enter; other keys are ignored.
func (b *Browser) Press(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return err
	}
	switch key {
	case "Tab":
		return b.moveFocus(1)
	case "Shift+Tab":
		return b.moveFocus(-1)
	case "Enter":
		if b.focus == "" {
			return nil
		}
		doc, err := b.document()
		if err != nil {
			return err
		}
		el := doc.Find("#" + b.focus).First()
		if el.Length() == 0 {
			return nil
		}
		if editable(el) {
			return b.submitForm(el)
		}
		return b.activate(el)
	}
	return nil
}

func (b *Browser) moveFocus(step int) error {
	doc, err := b.document()
	if err != nil {
		return err
	}
	var ids []string
	doc.Find("input, button, select, a[href], textarea").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok && focusable(s) {
			ids = append(ids, id)
		}
	})
	if len(ids) == 0 {
		b.focus = ""
		return nil
	}
	i := slices.Index(ids, b.focus)
	switch {
	case i < 0 && step > 0:
		b.focus = ids[0]
	case i < 0:
		b.focus = ids[len(ids)-1]
	case i+step < 0 || i+step >= len(ids):
		b.focus = ""
	default:
		b.focus = ids[i+step]
	}
	return nil
}

// Text returns the whitespace-normalized text of the first match.
func (b *Browser) Text(ctx context.Context, loc driver.Locator) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return "", err
	}
	el, err := b.one(loc)
	if err != nil {
		return "", err
	}
	return trimText(el.Text()), nil
}

// Attribute returns an attribute of the first match.
func (b *Browser) Attribute(ctx context.Context, loc driver.Locator, name string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return "", false, err
	}
	el, err := b.one(loc)
	if err != nil {
		return "", false, err
	}
	v, ok := el.Attr(name)
	return v, ok, nil
}

// Value returns the live value of an input or select.
func (b *Browser) Value(ctx context.Context, loc driver.Locator) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return "", err
	}
	el, err := b.one(loc)
	if err != nil {
		return "", err
	}
	switch goquery.NodeName(el) {
	case "select":
		opt := el.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = el.Find("option").First()
		}
		return opt.AttrOr("value", ""), nil
	case "input", "textarea":
		if editable(el) {
			return b.values[el.AttrOr("id", "")], nil
		}
		return el.AttrOr("value", ""), nil
	}
	return "", driver.Permanent(fmt.Errorf("value of %s: %w", loc, ErrNotEditable))
}

// FocusedID returns the id of the focused element.
func (b *Browser) FocusedID(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return "", err
	}
	return b.focus, nil
}

// Content serializes the current page.
func (b *Browser) Content(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return "", err
	}
	doc, err := b.document()
	if err != nil {
		return "", err
	}
	return doc.Html()
}

// ReadStorage reads a localStorage key.
func (b *Browser) ReadStorage(ctx context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return "", false, err
	}
	v, ok := b.storage[key]
	return v, ok, nil
}

// WriteStorage sets a localStorage key. Like a real page, the rendered DOM
// only reflects it after the next load.
func (b *Browser) WriteStorage(ctx context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return err
	}
	b.storage[key] = value
	return nil
}

// RemoveStorage deletes a localStorage key.
func (b *Browser) RemoveStorage(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return err
	}
	delete(b.storage, key)
	return nil
}

// StorageKeys lists localStorage keys in sorted order.
func (b *Browser) StorageKeys(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(b.storage))
	for k := range b.storage {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Cookies returns the context's cookies sorted by name.
func (b *Browser) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return nil, err
	}
	out := make([]driver.Cookie, 0, len(b.cookies))
	for _, c := range b.cookies {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, c driver.Cookie) int { return strings.Compare(a.Name, c.Name) })
	return out, nil
}

// SetCookies adds or replaces cookies.
func (b *Browser) SetCookies(ctx context.Context, cookies []driver.Cookie) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return err
	}
	for _, c := range cookies {
		if c.Domain == "" {
			c.Domain = b.store.base.Hostname()
		}
		if c.Path == "" {
			c.Path = "/"
		}
		b.cookies[c.Name] = c
	}
	return nil
}

// ClearState drops cookies and localStorage.
func (b *Browser) ClearState(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin(ctx); err != nil {
		return err
	}
	b.cookies = map[string]driver.Cookie{}
	b.storage = map[string]string{}
	return nil
}

// Close releases the browser. Later calls return driver.ErrClosed.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.store.open.Add(-1)
	return nil
}

func editable(el *goquery.Selection) bool {
	switch goquery.NodeName(el) {
	case "textarea":
		return true
	case "input":
		switch el.AttrOr("type", "text") {
		case "text", "password", "email", "search", "tel", "number":
			return true
		}
	}
	return false
}

func focusable(el *goquery.Selection) bool {
	switch goquery.NodeName(el) {
	case "input":
		return el.AttrOr("type", "text") != "hidden"
	case "button", "select", "textarea":
		return true
	case "a":
		_, ok := el.Attr("href")
		return ok
	}
	return false
}
