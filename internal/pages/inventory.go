package pages

import (
	"context"
	"fmt"
	"regexp"

	"github.com/themizzi/storecheck/internal/check"
	"github.com/themizzi/storecheck/internal/driver"
)

// Sort is a value of the inventory sort dropdown.
type Sort string

// Sort orders
const (
	SortNameAsc   Sort = "az"
	SortNameDesc  Sort = "za"
	SortPriceAsc  Sort = "lohi"
	SortPriceDesc Sort = "hilo"
)

// Sorts lists every sort order.
var Sorts = []Sort{SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc}

// Valid reports whether s is one of the dropdown's values.
func (s Sort) Valid() bool {
	for _, v := range Sorts {
		if s == v {
			return true
		}
	}
	return false
}

// Item is one card of the inventory list as rendered.
type Item struct {
	ID        string
	Name      string
	Desc      string
	PriceText string
}

// InventoryPage is the product list.
type InventoryPage struct {
	Header
}

// Open loads the inventory and waits for the list.
func (p InventoryPage) Open(ctx context.Context) error {
	return p.open(ctx, PathInventory, SelectorInventoryList)
}

// WaitLoaded waits for at least min cards.
func (p InventoryPage) WaitLoaded(ctx context.Context, min int) error {
	return p.r.WaitCountFunc(ctx, q(SelectorInventoryItem), fmt.Sprintf("at least %d items", min), func(n int) bool {
		return n >= min
	})
}

// Items returns every card in display order.
func (p InventoryPage) Items(ctx context.Context) ([]Item, error) {
	ids, err := p.ItemIDs(ctx)
	if err != nil {
		return nil, err
	}
	names, err := p.Names(ctx)
	if err != nil {
		return nil, err
	}
	descs, err := p.Descriptions(ctx)
	if err != nil {
		return nil, err
	}
	prices, err := p.PriceTexts(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) != len(ids) || len(descs) != len(ids) || len(prices) != len(ids) {
		return nil, fmt.Errorf("inventory changed while reading: %d ids, %d names, %d descriptions, %d prices",
			len(ids), len(names), len(descs), len(prices))
	}
	items := make([]Item, len(ids))
	for i := range ids {
		items[i] = Item{ID: ids[i], Name: names[i], Desc: descs[i], PriceText: prices[i]}
	}
	return items, nil
}

// ItemIDs returns the data-itemid of every card.
func (p InventoryPage) ItemIDs(ctx context.Context) ([]string, error) {
	return p.r.Attributes(ctx, q(SelectorInventoryItem), AttrItemID)
}

// Names returns product names in display order.
func (p InventoryPage) Names(ctx context.Context) ([]string, error) {
	return p.r.Texts(ctx, q(SelectorInventoryItem).Find(SelectorItemName))
}

// Descriptions returns product descriptions in display order.
func (p InventoryPage) Descriptions(ctx context.Context) ([]string, error) {
	return p.r.Texts(ctx, q(SelectorInventoryItem).Find(SelectorItemDesc))
}

// PriceTexts returns the raw price strings in display order.
func (p InventoryPage) PriceTexts(ctx context.Context) ([]string, error) {
	return p.r.Texts(ctx, q(SelectorInventoryItem).Find(SelectorItemPrice))
}

// Prices returns parsed prices in display order. A malformed price is a
// *check.ParseError.
func (p InventoryPage) Prices(ctx context.Context) ([]check.Cents, error) {
	texts, err := p.PriceTexts(ctx)
	if err != nil {
		return nil, err
	}
	return check.ParsePrices(texts)
}

// ImageAlts returns the alt text of every product image.
func (p InventoryPage) ImageAlts(ctx context.Context) ([]string, error) {
	return p.r.Attributes(ctx, q(SelectorInventoryList).Find(SelectorItemImage), "alt")
}

// SortBy chooses a sort order and waits for the dropdown to reflect it.
func (p InventoryPage) SortBy(ctx context.Context, s Sort) error {
	if !s.Valid() {
		return fmt.Errorf("unknown sort order %q", s)
	}
	if err := p.r.Select(ctx, q(SelectorSort), string(s)); err != nil {
		return err
	}
	return p.r.Eventually(ctx, "sort "+string(s), func(ctx context.Context) (bool, error) {
		v, err := p.SortValue(ctx)
		return err == nil && v == s, err
	})
}

// SortValue returns the dropdown's current value.
func (p InventoryPage) SortValue(ctx context.Context) (Sort, error) {
	v, err := p.r.Driver().Value(ctx, q(SelectorSort))
	return Sort(v), err
}

// Card returns a locator for the card showing the named product.
func (p InventoryPage) Card(ctx context.Context, name string) (driver.Locator, error) {
	return p.findByText(ctx, SelectorInventoryItem, SelectorItemName, name)
}

// CardID returns the data-itemid of the named product's card.
func (p InventoryPage) CardID(ctx context.Context, name string) (string, error) {
	card, err := p.Card(ctx, name)
	if err != nil {
		return "", err
	}
	id, ok, err := p.r.Attribute(ctx, card, AttrItemID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("card %q: %w", name, driver.ErrNoAttribute)
	}
	return id, nil
}

// TitleLinkID returns the id attribute of the named product's title link.
func (p InventoryPage) TitleLinkID(ctx context.Context, name string) (string, error) {
	card, err := p.Card(ctx, name)
	if err != nil {
		return "", err
	}
	id, _, err := p.r.Attribute(ctx, card.Find(SelectorItemTitleLink), "id")
	return id, err
}

// AddToCart clicks the named product's "Add to cart" button and waits for
// it to turn into "Remove". Calling it for a product already in the cart
// fails with a timeout.
func (p InventoryPage) AddToCart(ctx context.Context, name string) error {
	card, err := p.Card(ctx, name)
	if err != nil {
		return err
	}
	return toggle(ctx, p.base, card, SelectorAddToCart, SelectorRemove)
}

// RemoveFromCart is the inverse of AddToCart.
func (p InventoryPage) RemoveFromCart(ctx context.Context, name string) error {
	card, err := p.Card(ctx, name)
	if err != nil {
		return err
	}
	return toggle(ctx, p.base, card, SelectorRemove, SelectorAddToCart)
}

// toggle clicks from inside scope and waits for it to become to.
func toggle(ctx context.Context, b base, scope driver.Locator, from, to string) error {
	if err := b.r.Click(ctx, scope.Find(from)); err != nil {
		return err
	}
	if err := b.r.WaitGone(ctx, scope.Find(from)); err != nil {
		return err
	}
	return b.r.Exists(ctx, scope.Find(to))
}

// OpenItem follows the named product's title link and returns its id once
// the detail page is showing it.
func (p InventoryPage) OpenItem(ctx context.Context, name string) (string, error) {
	id, err := p.CardID(ctx, name)
	if err != nil {
		return "", err
	}
	card, err := p.Card(ctx, name)
	if err != nil {
		return "", err
	}
	if err := p.r.Click(ctx, card.Find(SelectorItemTitleLink)); err != nil {
		return "", err
	}
	want := regexp.MustCompile(`^` + regexp.QuoteMeta(PathItem+"?id="+id) + `(&|$)`)
	if err := p.r.WaitURL(ctx, want); err != nil {
		return "", err
	}
	return id, nil
}
