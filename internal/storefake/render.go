package storefake

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"slices"
	"strconv"
	"strings"

	"github.com/themizzi/storecheck/internal/cartstate"
	"github.com/themizzi/storecheck/internal/check"
	"github.com/themizzi/storecheck/internal/fixtures"
)

// Storefront paths
const (
	PathLogin            = "/"
	PathInventory        = "/inventory.html"
	PathItem             = "/inventory-item.html"
	PathCart             = "/cart.html"
	PathCheckoutInfo     = "/checkout-step-one.html"
	PathCheckoutOverview = "/checkout-step-two.html"
	PathCheckoutComplete = "/checkout-complete.html"
)

// TaxPercent is the rate the overview page charges.
const TaxPercent = 8

//go:embed pages.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "pages.html"))

var sortOptions = []struct{ Value, Label string }{
	{"az", "Name (A to Z)"},
	{"za", "Name (Z to A)"},
	{"lohi", "Price (low to high)"},
	{"hilo", "Price (high to low)"},
}

type productView struct {
	ID        int
	Name      string
	Desc      string
	Price     string
	Slug      string
	Img       string
	InCart    bool
	Removable bool
}

type sortOption struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Path        string
	Title       string
	Accounts    []string
	Values      map[string]string
	Error       string
	MenuOpen    bool
	Badge       int
	Sorting     bool
	SortLabel   string
	SortOptions []sortOption
	Products    []productView
	Item        *productView
	Lines       []productView
	Subtotal    string
	Tax         string
	Total       string
}

func view(p fixtures.Product, inCart bool) productView {
	s := slug(p.Name)
	return productView{
		ID:     p.ID,
		Name:   p.Name,
		Desc:   p.Desc,
		Price:  p.PriceText(),
		Slug:   s,
		Img:    "/static/media/" + s + ".jpg",
		InCart: inCart,
	}
}

// render produces the HTML of the current page. Callers hold b.mu.
func (b *Browser) render() (string, error) {
	cart := b.cartIDs()
	data := pageData{
		Path:     b.url.Path,
		Values:   b.values,
		MenuOpen: b.menuOpen,
		Badge:    len(cart),
	}

	var name string
	switch b.url.Path {
	case PathLogin:
		name = "login"
		data.Error = b.loginError
		data.Accounts = []string{StandardUser, LockedOutUser, ProblemUser, GlitchUser}
	case PathInventory:
		name = "inventory"
		data.Title = "Products"
		data.Sorting = true
		for _, o := range sortOptions {
			selected := o.Value == b.sort
			if selected {
				data.SortLabel = o.Label
			}
			data.SortOptions = append(data.SortOptions, sortOption{Value: o.Value, Label: o.Label, Selected: selected})
		}
		for _, p := range sortCatalog(b.store.catalog, b.sort) {
			data.Products = append(data.Products, view(p, slices.Contains(cart, p.ID)))
		}
	case PathItem:
		name = "item"
		if id, err := strconv.Atoi(b.url.Query().Get("id")); err == nil {
			if p, ok := b.store.catalog.ByID(id); ok {
				v := view(p, slices.Contains(cart, p.ID))
				data.Item = &v
			}
		}
	case PathCart:
		name = "cart"
		data.Title = "Your Cart"
		data.Lines = b.lines(cart, true)
	case PathCheckoutInfo:
		name = "checkout-one"
		data.Title = "Checkout: Your Information"
		data.Error = b.checkoutError
	case PathCheckoutOverview:
		name = "checkout-two"
		data.Title = "Checkout: Overview"
		data.Lines = b.lines(cart, false)
		var sub check.Cents
		for _, id := range cart {
			if p, ok := b.store.catalog.ByID(id); ok {
				sub += p.Cents()
			}
		}
		tax := Tax(sub)
		data.Subtotal, data.Tax, data.Total = sub.String(), tax.String(), (sub + tax).String()
	case PathCheckoutComplete:
		name = "checkout-complete"
		data.Title = "Checkout: Complete!"
	default:
		name = "not-found"
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", b.url.Path, err)
	}
	return buf.String(), nil
}

// Tax is the overview page's tax on a subtotal, rounded to the nearest cent.
func Tax(subtotal check.Cents) check.Cents {
	return (subtotal*TaxPercent + 50) / 100
}

func (b *Browser) lines(cart []int, removable bool) []productView {
	var out []productView
	for _, id := range cart {
		p, ok := b.store.catalog.ByID(id)
		if !ok {
			continue
		}
		v := view(p, true)
		v.Removable = removable
		out = append(out, v)
	}
	return out
}

// cartIDs decodes the persisted cart; a malformed slot reads as empty.
func (b *Browser) cartIDs() []int {
	raw, ok := b.storage[cartstate.Key]
	if !ok {
		return nil
	}
	ids, err := cartstate.Decode(raw)
	if err != nil {
		return nil
	}
	return ids
}

func sortCatalog(c fixtures.Catalog, order string) fixtures.Catalog {
	switch order {
	case "za":
		return c.SortedByName(true)
	case "lohi":
		return c.SortedByPrice(false)
	case "hilo":
		return c.SortedByPrice(true)
	default:
		return c.SortedByName(false)
	}
}

func isSortValue(v string) bool {
	for _, o := range sortOptions {
		if o.Value == v {
			return true
		}
	}
	return false
}

func protected(path string) bool {
	switch path {
	case PathInventory, PathItem, PathCart, PathCheckoutInfo, PathCheckoutOverview, PathCheckoutComplete:
		return true
	}
	return false
}

func loginRequired(path string) string {
	return fmt.Sprintf("Epic sadface: You can only access '%s' when you are logged in.", path)
}

func trimText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
