package pages

import (
	"context"
	"fmt"

	"github.com/themizzi/storecheck/internal/driver"
)

// Field names an input on the login form.
type Field string

// Login form fields
const (
	FieldUsername Field = "username"
	FieldPassword Field = "password"
)

func (f Field) locator() driver.Locator {
	return q(fmt.Sprintf(`[data-test=%q]`, string(f)))
}

// LoginPage is the form at "/".
type LoginPage struct {
	base
}

// Open loads the login page.
func (p LoginPage) Open(ctx context.Context) error {
	return p.open(ctx, PathLogin, SelectorUsername)
}

// Login fills the form and submits it. Empty values are left untyped so the
// form's own validation runs. It does not wait for the outcome.
func (p LoginPage) Login(ctx context.Context, username, password string) error {
	if username != "" {
		if err := p.r.Type(ctx, q(SelectorUsername), username); err != nil {
			return err
		}
	}
	if password != "" {
		if err := p.r.Type(ctx, q(SelectorPassword), password); err != nil {
			return err
		}
	}
	return p.r.Click(ctx, q(SelectorLoginButton))
}

// ErrorMessage waits for the error banner and returns its text.
func (p LoginPage) ErrorMessage(ctx context.Context) (string, error) {
	return p.r.Text(ctx, q(SelectorError))
}

// HasError reports whether the error banner is shown right now.
func (p LoginPage) HasError(ctx context.Context) (bool, error) {
	n, err := p.r.Count(ctx, q(SelectorError))
	return n > 0, err
}

// DismissError closes the banner and waits for it to go.
func (p LoginPage) DismissError(ctx context.Context) error {
	if err := p.r.Click(ctx, q(SelectorErrorClose)); err != nil {
		return err
	}
	return p.r.WaitGone(ctx, q(SelectorError))
}

// NoErrors waits until neither the banner nor any field error marker shows.
func (p LoginPage) NoErrors(ctx context.Context) error {
	if err := p.r.WaitGone(ctx, q(SelectorError)); err != nil {
		return err
	}
	return p.r.Eventually(ctx, "login fields without error class", func(ctx context.Context) (bool, error) {
		for _, f := range []Field{FieldUsername, FieldPassword} {
			bad, err := p.hasClass(ctx, f.locator(), "error")
			if err != nil || bad {
				return false, err
			}
		}
		return true, nil
	})
}

// FieldHasError reports whether the field is marked with the error class.
func (p LoginPage) FieldHasError(ctx context.Context, f Field) (bool, error) {
	return p.hasClass(ctx, f.locator(), "error")
}

// FieldValue returns the current value of the field.
func (p LoginPage) FieldValue(ctx context.Context, f Field) (string, error) {
	return p.r.Value(ctx, f.locator())
}
