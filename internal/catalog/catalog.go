package catalog

import (
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// Product is a catalog entry.
type Product struct {
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

// Catalog maps skus to display names. The same sku may be listed more than
// once (upstream re-listings), in which case the last listed name wins and the
// sku keeps the position of its first listing.
type Catalog struct {
	products []Product
	index    map[string]int
}

func New(entries []Product) Catalog {
	c := Catalog{index: map[string]int{}}
	for _, e := range entries {
		if i, ok := c.index[e.SKU]; ok {
			c.products[i].Name = e.Name
			continue
		}
		c.index[e.SKU] = len(c.products)
		c.products = append(c.products, e)
	}
	return c
}

// Products returns every distinct sku in listing order.
func (c Catalog) Products() []Product {
	return slices.Clone(c.products)
}

func (c Catalog) Len() int {
	return len(c.products)
}

// Name returns the display name of a sku, unknown skus are displayed as themselves.
func (c Catalog) Name(sku string) string {
	i, ok := c.index[sku]
	if !ok {
		return sku
	}
	return c.products[i].Name
}

// Lookup returns the product of a sku.
func (c Catalog) Lookup(sku string) (Product, bool) {
	i, ok := c.index[sku]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Match is a product ranked by similarity to a search query.
type Match struct {
	Product
	Similarity float64
}

// Search ranks products by Jaro-Winkler similarity between the query and
// their display name, an exact sku match always ranks first.
func (c Catalog) Search(query string) []Match {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	matches := make([]Match, 0, len(c.products))
	for _, p := range c.products {
		similarity := matchr.JaroWinkler(needle, strings.ToLower(p.Name), false)
		if p.SKU == needle {
			similarity = 2
		}
		if similarity <= 0 {
			continue
		}
		matches = append(matches, Match{Product: p, Similarity: similarity})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return 0
	})
	return matches
}
