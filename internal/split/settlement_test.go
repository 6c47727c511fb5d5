package split

import (
	"math"
	"testing"

	"github.com/snapsplit/snapsplit/internal/receipt"
)

func TestSettleProportionalSurcharge(t *testing.T) {
	people := []Person{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}}
	ls := items(
		receipt.LineItem{ID: "1", Name: "Burger", Price: 18.50, AllocatedTo: []string{"a"}},
		receipt.LineItem{ID: "2", Name: "Fries", Price: 7.00, AllocatedTo: []string{"b"}},
	)

	out := Settle(ls, people, 2.55, "a")
	if len(out) != 2 {
		t.Fatalf("got %d entries, want 2", len(out))
	}

	alice, bob := out[0], out[1]
	if !alice.IsPayer || alice.Person.ID != "a" {
		t.Fatalf("first entry = %+v, want payer Alice", alice.Person)
	}
	if alice.Subtotal != 18.50 || alice.SurchargeShare != 1.85 || alice.TotalOwed != 20.35 {
		t.Errorf("alice = subtotal %v surcharge %v total %v, want 18.50/1.85/20.35",
			alice.Subtotal, alice.SurchargeShare, alice.TotalOwed)
	}
	if bob.Subtotal != 7.00 || bob.SurchargeShare != 0.70 || bob.TotalOwed != 7.70 {
		t.Errorf("bob = subtotal %v surcharge %v total %v, want 7.00/0.70/7.70",
			bob.Subtotal, bob.SurchargeShare, bob.TotalOwed)
	}
}

func TestSettleOrderingPayerFirstThenAlphabetical(t *testing.T) {
	people := []Person{
		{ID: "c", Name: "Cara"},
		{ID: "b", Name: "Bob"},
		{ID: "a", Name: "Alice"},
	}
	ls := items(
		receipt.LineItem{ID: "1", Name: "Platter", Price: 30.00, AllocatedTo: []string{"a", "b", "c"}},
	)

	out := Settle(ls, people, 0, "c")
	if len(out) != 3 {
		t.Fatalf("got %d entries, want 3", len(out))
	}
	got := []string{out[0].Person.Name, out[1].Person.Name, out[2].Person.Name}
	want := []string{"Cara", "Alice", "Bob"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if !out[0].IsPayer {
		t.Error("first entry should be the payer")
	}
}

func TestSettleExcludesZeroOwed(t *testing.T) {
	people := []Person{{ID: "a", Name: "Alice"}, {ID: "d", Name: "Dana"}}
	ls := items(
		receipt.LineItem{ID: "1", Name: "Burger", Price: 18.50, AllocatedTo: []string{"a"}},
	)

	out := Settle(ls, people, 0, "a")
	if len(out) != 1 {
		t.Fatalf("got %d entries, want 1", len(out))
	}
	if out[0].Person.ID != "a" {
		t.Errorf("entry = %v, want Alice only", out[0].Person)
	}
}

func TestSettleConservation(t *testing.T) {
	people := []Person{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}, {ID: "c", Name: "Cara"}}
	ls := items(
		receipt.LineItem{ID: "1", Name: "Share Plate", Price: 10.00, AllocatedTo: []string{"a", "b", "c"}},
		receipt.LineItem{ID: "2", Name: "Wine", Price: 13.35, AllocatedTo: []string{"b", "c"}},
		receipt.LineItem{ID: "3", Name: "Water", Price: 4.20, AllocatedTo: nil},
	)

	out := Settle(ls, people, 3.00, "a")

	assignedTotal := 10.00 + 13.35
	subtotals, surcharges := 0.0, 0.0
	for _, e := range out {
		subtotals += e.Subtotal
		surcharges += e.SurchargeShare
	}
	if math.Abs(subtotals-assignedTotal) > 0.01 {
		t.Errorf("sum of subtotals = %v, want within 0.01 of %v", subtotals, assignedTotal)
	}
	// Per-person rounding makes this approximate only.
	if math.Abs(surcharges-3.00) > 0.05 {
		t.Errorf("sum of surcharge shares = %v, want approximately 3.00", surcharges)
	}
}

func TestSettleItemBreakdown(t *testing.T) {
	people := []Person{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}}
	ls := items(
		receipt.LineItem{ID: "1", Name: "Burger", Price: 18.50, AllocatedTo: []string{"a", "b"}},
		receipt.LineItem{ID: "2", Name: "Coffee", Price: 4.00, AllocatedTo: []string{"a"}},
	)

	out := Settle(ls, people, 0, "a")
	alice := out[0]
	if len(alice.Items) != 2 {
		t.Fatalf("alice has %d breakdown rows, want 2", len(alice.Items))
	}
	if alice.Items[0].Name != "Burger" || alice.Items[0].Price != 9.25 || alice.Items[0].SplitCount != 2 {
		t.Errorf("breakdown[0] = %+v, want Burger 9.25 split 2", alice.Items[0])
	}
	if alice.Items[1].Name != "Coffee" || alice.Items[1].Price != 4.00 || alice.Items[1].SplitCount != 1 {
		t.Errorf("breakdown[1] = %+v, want Coffee 4.00 split 1", alice.Items[1])
	}
}
