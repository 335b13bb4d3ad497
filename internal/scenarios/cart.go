package scenarios

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themizzi/storecheck/internal/cartstate"
	"github.com/themizzi/storecheck/internal/check"
	"github.com/themizzi/storecheck/internal/fixtures"
	"github.com/themizzi/storecheck/internal/pages"
)

// cartProducts are the three products the cart scenarios buy, in the order
// they are added.
var cartProducts = []string{
	"Sauce Labs Bike Light",
	"Sauce Labs Bolt T-Shirt",
	"Sauce Labs Onesie",
}

// shop opens the inventory with an empty cart under the session cached for
// purpose.
func shop(e *Env, purpose string) pages.InventoryPage {
	e.Login(purpose)
	inv := e.Pages.Inventory
	e.T.Require(inv.Open(e.Ctx))
	e.T.Require(inv.WaitLoaded(e.Ctx, len(e.Catalog)))
	e.T.Require(inv.WaitBadge(e.Ctx, 0))
	return inv
}

// seed writes products into the cart slot. Pages show them from the next
// load on.
func seed(e *Env, products fixtures.Catalog) {
	e.T.Require(cartstate.Write(e.Ctx, e.Runner, products.IDs()))
	e.T.Require(cartstate.WaitContents(e.Ctx, e.Runner, products.IDs()))
}

// expectLines checks the cart or overview rows against products, in order,
// one of each.
func expectLines(e *Env, lines []pages.CartLine, products fixtures.Catalog) {
	require.Len(e.T, lines, len(products), "cart lines")
	names := make([]string, len(lines))
	for i, l := range lines {
		names[i] = l.Name
		assert.Equal(e.T, 1, l.Quantity, "quantity of %s", l.Name)
		assert.Equal(e.T, products[i].PriceText(), l.PriceText, "price of %s", l.Name)
	}
	e.T.Assert(check.SetEqual(names, products.Names(), true))
}

func cartScenarios(b *builder) {
	b.add("cart/badge-and-remove", func(e *Env) {
		products := e.Products(cartProducts[:2]...)
		inv := shop(e, PurposeCart)

		for i, p := range products {
			e.T.Require(inv.AddToCart(e.Ctx, p.Name))
			e.T.Require(inv.WaitBadge(e.Ctx, i+1))
		}
		e.T.Require(cartstate.WaitContents(e.Ctx, e.Runner, products.IDs()))

		e.T.Require(inv.RemoveFromCart(e.Ctx, products[0].Name))

		e.T.Require(inv.WaitBadge(e.Ctx, 1))
		e.T.Require(cartstate.WaitContents(e.Ctx, e.Runner, products[1:].IDs()))
		badge, err := inv.CartBadge(e.Ctx)
		e.T.Require(err)
		assert.Equal(e.T, 1, badge)
	})

	b.add("cart/persists-three-products", func(e *Env) {
		products := e.Products(cartProducts...)
		inv := shop(e, PurposeCart)
		for i, p := range products {
			e.T.Require(inv.AddToCart(e.Ctx, p.Name))
			e.T.Require(inv.WaitBadge(e.Ctx, i+1))
		}

		e.T.Require(inv.OpenCart(e.Ctx))

		title, err := e.Pages.Cart.Title(e.Ctx)
		e.T.Require(err)
		assert.Equal(e.T, "Your Cart", title)
		lines, err := e.Pages.Cart.Lines(e.Ctx)
		e.T.Require(err)
		expectLines(e, lines, products)
		ids, ok, err := cartstate.Read(e.Ctx, e.Runner)
		e.T.Require(err)
		require.True(e.T, ok, "%s is missing", cartstate.Key)
		e.T.Assert(check.SetEqual(ids, products.IDs(), true))
	})

	b.add("cart/seeded-from-storage", func(e *Env) {
		products := e.Products(cartProducts...)
		inv := shop(e, PurposeCart)

		seed(e, products)
		e.T.Require(inv.OpenCart(e.Ctx))

		lines, err := e.Pages.Cart.Lines(e.Ctx)
		e.T.Require(err)
		expectLines(e, lines, products)
		e.T.Require(e.Pages.Cart.WaitBadge(e.Ctx, len(products)))
	})

	b.add("cart/remove-from-cart-page", func(e *Env) {
		products := e.Products(cartProducts...)
		shop(e, PurposeCart)
		seed(e, products)
		cart := e.Pages.Cart
		e.T.Require(cart.Open(e.Ctx))

		e.T.Require(cart.Remove(e.Ctx, products[1].Name))

		lines, err := cart.Lines(e.Ctx)
		e.T.Require(err)
		rest := fixtures.Catalog{products[0], products[2]}
		expectLines(e, lines, rest)
		e.T.Require(cartstate.WaitContents(e.Ctx, e.Runner, rest.IDs()))
	})

	b.add("cart/reset-app-state", func(e *Env) {
		products := e.Products(cartProducts...)
		inv := shop(e, PurposeCart)
		seed(e, products)
		e.T.Require(inv.Open(e.Ctx))
		e.T.Require(inv.WaitBadge(e.Ctx, len(products)))

		e.T.Require(e.Pages.Menu.ResetAppState(e.Ctx))

		e.T.Require(cartstate.WaitAbsent(e.Ctx, e.Runner))
	})
}
