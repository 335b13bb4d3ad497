package pages

import (
	"context"
	"fmt"

	"github.com/themizzi/storecheck/internal/check"
)

// Info is the customer information step's form.
type Info struct {
	FirstName  string
	LastName   string
	PostalCode string
}

// Summary holds the overview's parsed totals.
type Summary struct {
	Subtotal check.Cents
	Tax      check.Cents
	Total    check.Cents
}

// CheckoutPage covers the information, overview and complete steps.
type CheckoutPage struct {
	Header
}

// FillInfo types the non-empty fields of info.
func (p CheckoutPage) FillInfo(ctx context.Context, info Info) error {
	fields := []struct{ sel, value string }{
		{SelectorFirstName, info.FirstName},
		{SelectorLastName, info.LastName},
		{SelectorPostalCode, info.PostalCode},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := p.r.Type(ctx, q(f.sel), f.value); err != nil {
			return err
		}
	}
	return nil
}

// Continue submits the information step without waiting for the result.
func (p CheckoutPage) Continue(ctx context.Context) error {
	return p.r.Click(ctx, q(SelectorContinue))
}

// ContinueToOverview submits the information step and waits for the overview.
func (p CheckoutPage) ContinueToOverview(ctx context.Context) error {
	return p.clickTo(ctx, q(SelectorContinue), PathCheckoutOverview)
}

// ErrorMessage waits for the form's error banner.
func (p CheckoutPage) ErrorMessage(ctx context.Context) (string, error) {
	return p.r.Text(ctx, q(SelectorError))
}

// Lines returns the overview rows.
func (p CheckoutPage) Lines(ctx context.Context) ([]CartLine, error) {
	return readLines(ctx, p.base)
}

// Summary reads and parses the overview totals.
func (p CheckoutPage) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	for _, f := range []struct {
		sel string
		dst *check.Cents
	}{
		{SelectorSubtotal, &s.Subtotal},
		{SelectorTax, &s.Tax},
		{SelectorTotal, &s.Total},
	} {
		text, err := p.r.Text(ctx, q(f.sel))
		if err != nil {
			return Summary{}, err
		}
		v, err := check.PriceOf(text)
		if err != nil {
			return Summary{}, fmt.Errorf("%s: %w", f.sel, err)
		}
		*f.dst = v
	}
	return s, nil
}

// Finish places the order and waits for the confirmation page.
func (p CheckoutPage) Finish(ctx context.Context) error {
	return p.clickTo(ctx, q(SelectorFinish), PathCheckoutComplete)
}

// Cancel leaves checkout.
func (p CheckoutPage) Cancel(ctx context.Context) error {
	return p.r.Click(ctx, q(SelectorCancel))
}

// CompleteHeader returns the confirmation heading.
func (p CheckoutPage) CompleteHeader(ctx context.Context) (string, error) {
	return p.r.Text(ctx, q(SelectorCompleteHeader))
}

// CompleteImageAlt returns the alt text of the confirmation image.
func (p CheckoutPage) CompleteImageAlt(ctx context.Context) (string, error) {
	alt, _, err := p.r.Attribute(ctx, q(SelectorCompleteImage), "alt")
	return alt, err
}
