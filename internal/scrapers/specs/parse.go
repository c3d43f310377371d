package specs

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"invtracker/internal/inventory"
	"invtracker/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// UnknownStore is the name given to a store listing without a name.
const UnknownStore = "Unknown"

var qtyRegex = regexp.MustCompile(`Qty in Stock: (\d+)`)

// ParseAvailability extracts the stores of an availability html fragment. A
// store without a quantity is reported as 0.
func ParseAvailability(ctx context.Context, fragment string) ([]inventory.Observation, error) {
	ctx, span := tracer.Start(ctx, "ParseAvailability")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	var out []inventory.Observation
	doc.Find(".single-store").Each(func(_ int, store *goquery.Selection) {
		name := htmlutil.Text(ctx, store.Find(".store-name"))
		if name == "" {
			name = UnknownStore
		}

		qty := 0
		match := qtyRegex.FindStringSubmatch(htmlutil.OuterHTML(store))
		if len(match) == 2 {
			parsed, err := strconv.Atoi(match[1])
			if err == nil {
				qty = parsed
			}
		}

		out = append(out, inventory.Observation{Store: name, Quantity: qty})
	})
	return out, nil
}
