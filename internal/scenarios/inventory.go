package scenarios

import (
	"strconv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themizzi/storecheck/internal/check"
	"github.com/themizzi/storecheck/internal/pages"
)

type sortCase struct {
	name string
	sort pages.Sort
	desc bool
}

var (
	priceSorts = []sortCase{
		{name: "ascending", sort: pages.SortPriceAsc},
		{name: "descending", sort: pages.SortPriceDesc, desc: true},
	}
	nameSorts = []sortCase{
		{name: "ascending", sort: pages.SortNameAsc},
		{name: "descending", sort: pages.SortNameDesc, desc: true},
	}
)

func direction(desc bool) check.Direction {
	if desc {
		return check.Descending
	}
	return check.Ascending
}

// browse opens the inventory under the shared read-only session.
func browse(e *Env) pages.InventoryPage {
	e.Login(PurposeBrowse)
	inv := e.Pages.Inventory
	e.T.Require(inv.Open(e.Ctx))
	e.T.Require(inv.WaitLoaded(e.Ctx, len(e.Catalog)))
	return inv
}

func sortBy(e *Env, inv pages.InventoryPage, s pages.Sort) {
	e.T.Require(inv.SortBy(e.Ctx, s))
	got, err := inv.SortValue(e.Ctx)
	e.T.Require(err)
	require.Equal(e.T, s, got, "sort dropdown value")
}

func inventoryScenarios(b *builder) {
	for _, tc := range priceSorts {
		b.add("sorting/price/"+tc.name, func(e *Env) {
			inv := browse(e)

			sortBy(e, inv, tc.sort)

			texts, err := inv.PriceTexts(e.Ctx)
			e.T.Require(err)
			ordered, err := check.OrderedPrices(texts, direction(tc.desc))
			e.T.Require(err)
			e.T.Assert(ordered)
			prices, err := check.ParsePrices(texts)
			e.T.Require(err)
			e.T.Assert(check.SetEqual(prices, e.Catalog.SortedByPrice(tc.desc).Prices(), true))
		})
	}

	for _, tc := range nameSorts {
		b.add("sorting/name/"+tc.name, func(e *Env) {
			inv := browse(e)

			sortBy(e, inv, tc.sort)

			names, err := inv.Names(e.Ctx)
			e.T.Require(err)
			e.T.Assert(check.Ordered(names, direction(tc.desc)))
			e.T.Assert(check.SetEqual(names, e.Catalog.SortedByName(tc.desc).Names(), true))
		})
	}

	b.add("sorting/lowest-price", func(e *Env) {
		cheapest, ok := e.Catalog.Cheapest()
		require.True(e.T, ok, "catalog is empty")
		inv := browse(e)

		sortBy(e, inv, pages.SortPriceAsc)

		items, err := inv.Items(e.Ctx)
		e.T.Require(err)
		require.NotEmpty(e.T, items)
		first, err := check.ParsePrice(items[0].PriceText)
		e.T.Require(err)
		assert.Equal(e.T, cheapest.Cents(), first, "first price after sorting low to high")
		assert.Equal(e.T, cheapest.Name, items[0].Name)
		prices, err := inv.Prices(e.Ctx)
		e.T.Require(err)
		lowest, _ := check.MinOf(prices)
		assert.Equal(e.T, cheapest.Cents(), lowest, "lowest rendered price")
	})

	b.add("inventory/unique-ids", func(e *Env) {
		inv := browse(e)

		ids, err := inv.ItemIDs(e.Ctx)
		e.T.Require(err)

		e.T.Assert(check.Count(ids, len(e.Catalog)))
		e.T.Assert(check.Unique(ids))
		for _, id := range ids {
			_, err := strconv.Atoi(id)
			assert.NoError(e.T, err, "data-itemid %q", id)
		}
	})

	b.add("inventory/unique-descriptions", func(e *Env) {
		inv := browse(e)

		descs, err := inv.Descriptions(e.Ctx)
		e.T.Require(err)

		e.T.Assert(check.Count(descs, len(e.Catalog)))
		e.T.Assert(check.Unique(descs))
	})

	b.add("inventory/fixture-details", func(e *Env) {
		inv := browse(e)

		items, err := inv.Items(e.Ctx)
		e.T.Require(err)

		byName := make(map[string]pages.Item, len(items))
		ids := make([]string, 0, len(items))
		for _, it := range items {
			byName[it.Name] = it
			ids = append(ids, it.ID)
		}
		want := make([]string, 0, len(e.Catalog))
		for _, p := range e.Catalog {
			want = append(want, strconv.Itoa(p.ID))
			it, ok := byName[p.Name]
			if !assert.True(e.T, ok, "%s is not listed", p.Name) {
				continue
			}
			assert.Equal(e.T, p.Desc, it.Desc, "%s description", p.Name)
			assert.Equal(e.T, p.PriceText(), it.PriceText, "%s price", p.Name)
			assert.Equal(e.T, strconv.Itoa(p.ID), it.ID, "%s id", p.Name)
		}
		e.T.Assert(check.SetEqual(ids, want, false))
	})

	b.add("inventory/image-alts", func(e *Env) {
		inv := browse(e)

		alts, err := inv.ImageAlts(e.Ctx)
		e.T.Require(err)

		e.T.Assert(check.SetEqual(alts, e.Catalog.Names(), false))
	})

	for _, p := range b.deps.Catalog.Names() {
		b.add("inventory/item-detail/"+slug(p), func(e *Env) {
			product := e.Product(p)
			inv := browse(e)
			id, err := inv.CardID(e.Ctx, product.Name)
			e.T.Require(err)
			link, err := inv.TitleLinkID(e.Ctx, product.Name)
			e.T.Require(err)
			assert.Equal(e.T, "item_"+id+"_title_link", link)

			opened, err := inv.OpenItem(e.Ctx, product.Name)
			e.T.Require(err)

			item := e.Pages.Item
			e.T.Require(item.WaitOpen(e.Ctx))
			assert.Equal(e.T, id, opened)
			qid, err := item.ID(e.Ctx)
			e.T.Require(err)
			assert.Equal(e.T, strconv.Itoa(product.ID), qid, "id query parameter")
			name, err := item.Name(e.Ctx)
			e.T.Require(err)
			assert.Equal(e.T, product.Name, name)
			price, err := item.PriceText(e.Ctx)
			e.T.Require(err)
			assert.Equal(e.T, product.PriceText(), price)
			desc, err := item.Desc(e.Ctx)
			e.T.Require(err)
			assert.Equal(e.T, product.Desc, desc)
			e.T.Require(item.HasImage(e.Ctx))

			e.T.Require(item.Back(e.Ctx))
		})
	}
}
