package receipt

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/snapsplit/snapsplit/constants"
	"github.com/snapsplit/snapsplit/internal/money"
)

// rawItem is a coerced-but-not-yet-canonical row: price is the row total,
// quantity > 1 only when the receipt printed an explicit multiplier.
type rawItem struct {
	name     string
	price    float64
	quantity int // 0 or 1 = single unit
	explicit bool
	category constants.Category
}

// dedupKey identifies rows that plausibly describe the same physical item:
// same normalized name at the same unit price.
func dedupKey(name string, unitPrice float64) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" +
		strconv.FormatFloat(unitPrice, 'f', -1, 64)
}

func unitPrice(it rawItem) float64 {
	if it.quantity > 1 {
		return money.Round2(it.price / float64(it.quantity))
	}
	return money.Round2(it.price)
}

// dedupe merges rows the extraction service split in two: the same item name
// at the same unit price, where neither row printed an explicit quantity.
// Rows that both carry explicit multipliers stay distinct; two "2x" rows more
// plausibly mean two genuinely separate multi-unit orders than a duplicate
// scan artifact. Order of first occurrence is preserved.
func dedupe(items []rawItem) []rawItem {
	out := make([]rawItem, 0, len(items))
	index := make(map[string]int, len(items))

	for _, it := range items {
		key := dedupKey(it.name, unitPrice(it))
		if i, ok := index[key]; ok && !out[i].explicit && !it.explicit {
			merged := &out[i]
			if merged.quantity < 2 {
				merged.quantity = 2
			} else {
				merged.quantity++
			}
			merged.price = money.Round2(merged.price + it.price)
			continue
		}
		if _, ok := index[key]; !ok {
			index[key] = len(out)
		}
		out = append(out, it)
	}
	return out
}

// expand turns each deduplicated row into individually assignable units:
// a row of quantity q becomes q line items at Round2(price/q) each, every one
// with a fresh ID and an empty allocation set.
func expand(items []rawItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		q := it.quantity
		if q < 2 {
			out = append(out, LineItem{
				ID:          uuid.New().String(),
				Name:        it.name,
				Price:       money.Round2(it.price),
				AllocatedTo: []string{},
				Category:    it.category,
			})
			continue
		}
		per := money.Round2(it.price / float64(q))
		for range q {
			out = append(out, LineItem{
				ID:          uuid.New().String(),
				Name:        it.name,
				Price:       per,
				AllocatedTo: []string{},
				Category:    it.category,
			})
		}
	}
	return out
}
