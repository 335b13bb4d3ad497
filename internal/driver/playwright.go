package driver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// LaunchConfig describes the browser the Playwright launcher starts.
type LaunchConfig struct {
	BaseURL        string
	Browser        string // chromium, firefox or webkit
	Headless       bool
	SlowMo         time.Duration
	ActionTimeout  time.Duration
	Install        bool
	ViewportWidth  int
	ViewportHeight int
}

// Launcher owns one Playwright process and browser and hands out an isolated
// browser context per scenario.
type Launcher struct {
	cfg     LaunchConfig
	pw      *playwright.Playwright
	browser playwright.Browser
	mu      sync.Mutex
	closed  bool
}

// Launch starts Playwright and the configured browser.
func Launch(cfg LaunchConfig) (*Launcher, error) {
	if cfg.Install {
		if err := playwright.Install(); err != nil {
			return nil, fmt.Errorf("could not install playwright browsers: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch strings.ToLower(cfg.Browser) {
	case "", "chromium", "chrome":
		bt = pw.Chromium
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		pw.Stop()
		return nil, fmt.Errorf("unsupported browser %q", cfg.Browser)
	}

	browser, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		SlowMo:   playwright.Float(float64(cfg.SlowMo.Milliseconds())),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	return &Launcher{cfg: cfg, pw: pw, browser: browser}, nil
}

// NewDriver opens a fresh browser context and page.
func (l *Launcher) NewDriver(ctx context.Context) (Driver, error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	opts := playwright.BrowserNewContextOptions{
		BaseURL: playwright.String(l.cfg.BaseURL),
	}
	if l.cfg.ViewportWidth > 0 && l.cfg.ViewportHeight > 0 {
		opts.Viewport = &playwright.Size{Width: l.cfg.ViewportWidth, Height: l.cfg.ViewportHeight}
	}
	bctx, err := l.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	timeout := l.cfg.ActionTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	page.SetDefaultTimeout(float64(timeout.Milliseconds()))

	return &playwrightDriver{baseURL: l.cfg.BaseURL, bctx: bctx, page: page}, nil
}

// Close shuts the browser and the Playwright process down.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.browser.Close(); err != nil {
		l.pw.Stop()
		return fmt.Errorf("could not close browser: %w", err)
	}
	return l.pw.Stop()
}

type playwrightDriver struct {
	baseURL string
	bctx    playwright.BrowserContext
	page    playwright.Page
}

func (d *playwrightDriver) Navigate(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.Goto(path)
	return err
}

func (d *playwrightDriver) CurrentURL(ctx context.Context) (*url.URL, error) {
	return url.Parse(d.page.URL())
}

func (d *playwrightDriver) resolve(loc Locator) (playwright.Locator, error) {
	steps := loc.Steps()
	if len(steps) == 0 {
		return nil, fmt.Errorf("empty locator: %w", ErrNotFound)
	}
	l := d.page.Locator(steps[0].Selector)
	if steps[0].Index != All {
		l = l.Nth(steps[0].Index)
	}
	for _, s := range steps[1:] {
		l = l.Locator(s.Selector)
		if s.Index != All {
			l = l.Nth(s.Index)
		}
	}
	return l, nil
}

// one resolves loc to a single element, failing with ErrNotFound when
// nothing matches right now.
func (d *playwrightDriver) one(ctx context.Context, loc Locator) (playwright.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l, err := d.resolve(loc)
	if err != nil {
		return nil, err
	}
	n, err := l.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", loc, ErrNotFound)
	}
	return l.First(), nil
}

func (d *playwrightDriver) Count(ctx context.Context, loc Locator) (int, error) {
	l, err := d.resolve(loc)
	if err != nil {
		return 0, err
	}
	return l.Count()
}

func (d *playwrightDriver) Click(ctx context.Context, loc Locator) error {
	l, err := d.one(ctx, loc)
	if err != nil {
		return err
	}
	return l.Click()
}

func (d *playwrightDriver) Type(ctx context.Context, loc Locator, text string) error {
	l, err := d.one(ctx, loc)
	if err != nil {
		return err
	}
	return l.PressSequentially(text)
}

func (d *playwrightDriver) Select(ctx context.Context, loc Locator, value string) error {
	l, err := d.one(ctx, loc)
	if err != nil {
		return err
	}
	_, err = l.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
	return err
}

func (d *playwrightDriver) TypeFocused(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.page.Keyboard().Type(text)
}

func (d *playwrightDriver) Press(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.page.Keyboard().Press(key)
}

func (d *playwrightDriver) Text(ctx context.Context, loc Locator) (string, error) {
	l, err := d.one(ctx, loc)
	if err != nil {
		return "", err
	}
	text, err := l.TextContent()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (d *playwrightDriver) Attribute(ctx context.Context, loc Locator, name string) (string, bool, error) {
	l, err := d.one(ctx, loc)
	if err != nil {
		return "", false, err
	}
	v, err := l.Evaluate("(el, name) => el.getAttribute(name)", name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("unexpected attribute type %T", v)
	}
	return s, true, nil
}

func (d *playwrightDriver) Value(ctx context.Context, loc Locator) (string, error) {
	l, err := d.one(ctx, loc)
	if err != nil {
		return "", err
	}
	return l.InputValue()
}

func (d *playwrightDriver) FocusedID(ctx context.Context) (string, error) {
	v, err := d.page.Evaluate(`() => document.activeElement ? document.activeElement.id : ""`)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

func (d *playwrightDriver) Content(ctx context.Context) (string, error) {
	return d.page.Content()
}

// onOrigin makes sure localStorage belongs to the application origin rather
// than about:blank, which rejects storage access.
func (d *playwrightDriver) onOrigin() error {
	if strings.HasPrefix(d.page.URL(), "http") {
		return nil
	}
	_, err := d.page.Goto("/")
	return err
}

func (d *playwrightDriver) ReadStorage(ctx context.Context, key string) (string, bool, error) {
	if err := d.onOrigin(); err != nil {
		return "", false, err
	}
	v, err := d.page.Evaluate("key => window.localStorage.getItem(key)", key)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("unexpected storage value type %T", v)
	}
	return s, true, nil
}

func (d *playwrightDriver) WriteStorage(ctx context.Context, key, value string) error {
	if err := d.onOrigin(); err != nil {
		return err
	}
	_, err := d.page.Evaluate("([key, value]) => window.localStorage.setItem(key, value)", []interface{}{key, value})
	return err
}

func (d *playwrightDriver) RemoveStorage(ctx context.Context, key string) error {
	if err := d.onOrigin(); err != nil {
		return err
	}
	_, err := d.page.Evaluate("key => window.localStorage.removeItem(key)", key)
	return err
}

func (d *playwrightDriver) StorageKeys(ctx context.Context) ([]string, error) {
	if err := d.onOrigin(); err != nil {
		return nil, err
	}
	v, err := d.page.Evaluate("() => Object.keys(window.localStorage)")
	if err != nil {
		return nil, err
	}
	raw, _ := v.([]interface{})
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if s, ok := k.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys, nil
}

func (d *playwrightDriver) Cookies(ctx context.Context) ([]Cookie, error) {
	cookies, err := d.bctx.Cookies()
	if err != nil {
		return nil, err
	}
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		})
	}
	return out, nil
}

func (d *playwrightDriver) SetCookies(ctx context.Context, cookies []Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	in := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		oc := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		if c.Domain != "" {
			oc.Domain = playwright.String(c.Domain)
			oc.Path = playwright.String(defaultString(c.Path, "/"))
		} else {
			oc.URL = playwright.String(d.baseURL)
		}
		if c.Expires > 0 {
			oc.Expires = playwright.Float(c.Expires)
		}
		in = append(in, oc)
	}
	return d.bctx.AddCookies(in)
}

func (d *playwrightDriver) ClearState(ctx context.Context) error {
	if err := d.bctx.ClearCookies(); err != nil {
		return err
	}
	if err := d.onOrigin(); err != nil {
		return err
	}
	_, err := d.page.Evaluate("() => window.localStorage.clear()")
	return err
}

func (d *playwrightDriver) Close() error {
	return d.bctx.Close()
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
