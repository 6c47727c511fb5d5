// Package split computes who owes what: per-person allocation summaries,
// surcharge-aware settlement, and the shareable plain-text summary.
package split

import (
	"github.com/snapsplit/snapsplit/internal/money"
	"github.com/snapsplit/snapsplit/internal/receipt"
)

// Person is an allocation target. The core does not own people; it only
// needs identity, a display name, and optional payment details for the
// share text.
type Person struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	PaymentPrefs *PaymentPrefs `json:"paymentPrefs,omitempty"`
}

// PaymentPrefs is how the payer likes to be paid back, e.g. {"PayID",
// "alice@upbank.com"}.
type PaymentPrefs struct {
	Method string `json:"method"`
	Handle string `json:"handle"`
}

// AllocationSummary is ephemeral: recomputed from scratch on every
// allocation change, never persisted on its own.
type AllocationSummary struct {
	OwedByPerson    map[string]float64 `json:"owedByPerson"`
	UnassignedTotal float64            `json:"unassignedTotal"`
	Subtotal        float64            `json:"subtotal"`
}

// Summarize divides each assigned item's price evenly among its allocation
// set and accumulates the rest into the unassigned bucket. Every person in
// the input appears in the mapping, at zero if nothing is assigned to them.
func Summarize(items []receipt.LineItem, people []Person) AllocationSummary {
	owed := make(map[string]float64, len(people))
	for _, p := range people {
		owed[p.ID] = 0
	}

	var unassigned, subtotal float64
	for _, it := range items {
		subtotal = money.Round2(subtotal + it.Price)
		if len(it.AllocatedTo) == 0 {
			unassigned = money.Round2(unassigned + it.Price)
			continue
		}
		share := money.Round2(it.Price / float64(len(it.AllocatedTo)))
		for _, id := range it.AllocatedTo {
			owed[id] = money.Round2(owed[id] + share)
		}
	}

	return AllocationSummary{
		OwedByPerson:    owed,
		UnassignedTotal: unassigned,
		Subtotal:        subtotal,
	}
}
