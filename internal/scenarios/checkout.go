package scenarios

import (
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themizzi/storecheck/internal/cartstate"
	"github.com/themizzi/storecheck/internal/check"
	"github.com/themizzi/storecheck/internal/pages"
)

var customer = pages.Info{FirstName: "Michael", LastName: "Jordan", PostalCode: "90210"}

// taxSample is how many random products the tax scenario buys.
const taxSample = 3

type missingInfo struct {
	name string
	info pages.Info
	want string
}

var missingInfos = []missingInfo{
	{name: "first-name", info: pages.Info{LastName: "Jordan", PostalCode: "90210"}, want: "First Name is required"},
	{name: "last-name", info: pages.Info{FirstName: "Michael", PostalCode: "90210"}, want: "Last Name is required"},
	{name: "postal-code", info: pages.Info{FirstName: "Michael", LastName: "Jordan"}, want: "Postal Code is required"},
}

func checkoutScenarios(b *builder) {
	b.add("checkout/complete", func(e *Env) {
		products := e.Products(cartProducts...)
		shop(e, PurposeCheckout)
		seed(e, products)
		cart := e.Pages.Cart
		e.T.Require(cart.Open(e.Ctx))
		lines, err := cart.Lines(e.Ctx)
		e.T.Require(err)
		expectLines(e, lines, products)

		co := e.Pages.Checkout
		e.T.Require(cart.Checkout(e.Ctx))
		e.T.Require(co.FillInfo(e.Ctx, customer))
		e.T.Require(co.ContinueToOverview(e.Ctx))
		lines, err = co.Lines(e.Ctx)
		e.T.Require(err)
		expectLines(e, lines, products)
		e.T.Require(co.Finish(e.Ctx))

		header, err := co.CompleteHeader(e.Ctx)
		e.T.Require(err)
		assert.True(e.T, strings.EqualFold(header, "Thank you for your order!"), "complete header %q", header)
		alt, err := co.CompleteImageAlt(e.Ctx)
		e.T.Require(err)
		assert.Contains(e.T, alt, "Pony Express")
		e.T.Require(cartstate.WaitAbsent(e.Ctx, e.Runner))
	})

	b.add("checkout/tax-within-range", func(e *Env) {
		products := e.Catalog.Sample(e.Rand, taxSample)
		require.Len(e.T, products, taxSample, "catalog too small to sample")
		e.T.Debug("sampled %v", products.Names())
		shop(e, PurposeCheckout)
		seed(e, products)

		co := e.Pages.Checkout
		e.T.Require(e.Runner.Navigate(e.Ctx, pages.PathCheckoutInfo))
		e.T.Require(co.FillInfo(e.Ctx, customer))
		e.T.Require(co.ContinueToOverview(e.Ctx))

		lines, err := co.Lines(e.Ctx)
		e.T.Require(err)
		require.Len(e.T, lines, len(products))
		sum, err := co.Summary(e.Ctx)
		e.T.Require(err)
		assert.Equal(e.T, products.Subtotal(), sum.Subtotal, "subtotal")
		lo, hi := check.TaxBounds(products.Subtotal())
		e.T.Assert(check.WithinRange(sum.Tax, lo, hi))
		assert.Equal(e.T, sum.Subtotal+sum.Tax, sum.Total, "total")
	})

	for _, tc := range missingInfos {
		b.add("checkout/info-required/"+tc.name, func(e *Env) {
			shop(e, PurposeCheckout)
			seed(e, e.Products(cartProducts[0]))
			co := e.Pages.Checkout
			e.T.Require(e.Runner.Navigate(e.Ctx, pages.PathCheckoutInfo))
			e.T.Require(co.FillInfo(e.Ctx, tc.info))

			e.T.Require(co.Continue(e.Ctx))

			msg, err := co.ErrorMessage(e.Ctx)
			e.T.Require(err)
			assert.Contains(e.T, msg, tc.want)
			path, err := e.Runner.Path(e.Ctx)
			e.T.Require(err)
			assert.Equal(e.T, pages.PathCheckoutInfo, path)
		})
	}
}
