package split

import (
	"sort"

	"github.com/snapsplit/snapsplit/internal/money"
	"github.com/snapsplit/snapsplit/internal/receipt"
)

// ItemShare is one line of a person's breakdown: their share of one item and
// how many ways it was split.
type ItemShare struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	SplitCount int     `json:"splitCount"`
}

// SettlementEntry is one person's final bill. Ephemeral: regenerated from the
// receipt and assignments on every change, never mutated in place.
type SettlementEntry struct {
	Person         Person      `json:"person"`
	Subtotal       float64     `json:"subtotal"`
	SurchargeShare float64     `json:"surchargeShare"`
	TotalOwed      float64     `json:"totalOwed"`
	IsPayer        bool        `json:"isPayer"`
	Items          []ItemShare `json:"items"`
}

// Settle computes each person's final amount. The surcharge is distributed
// in proportion to each person's share of the assigned total, each share
// rounded independently; the shares therefore sum only approximately to the
// surcharge, which is accepted rather than papered over with a remainder
// correction. People who owe nothing are dropped; results come back
// payer-first, then alphabetically.
func Settle(items []receipt.LineItem, people []Person, surcharge float64, payerID string) []SettlementEntry {
	entries := make([]SettlementEntry, len(people))
	index := make(map[string]int, len(people))
	for i, p := range people {
		entries[i] = SettlementEntry{Person: p, IsPayer: p.ID == payerID}
		index[p.ID] = i
	}

	assignedTotal := 0.0
	for _, it := range items {
		n := len(it.AllocatedTo)
		if n == 0 {
			continue
		}
		share := money.Round2(it.Price / float64(n))
		for _, id := range it.AllocatedTo {
			i, ok := index[id]
			if !ok {
				continue
			}
			e := &entries[i]
			e.Subtotal = money.Round2(e.Subtotal + share)
			e.Items = append(e.Items, ItemShare{Name: it.Name, Price: share, SplitCount: n})
		}
		assignedTotal = money.Round2(assignedTotal + it.Price)
	}

	out := make([]SettlementEntry, 0, len(entries))
	for _, e := range entries {
		if surcharge > 0 && assignedTotal > 0 {
			e.SurchargeShare = money.Round2(e.Subtotal / assignedTotal * surcharge)
		}
		e.TotalOwed = money.Round2(e.Subtotal + e.SurchargeShare)
		if e.TotalOwed == 0 {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPayer != out[j].IsPayer {
			return out[i].IsPayer
		}
		return out[i].Person.Name < out[j].Person.Name
	})
	return out
}
