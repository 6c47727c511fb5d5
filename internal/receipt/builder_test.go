package receipt

import (
	"strings"
	"testing"

	"github.com/snapsplit/snapsplit/constants"
	"github.com/snapsplit/snapsplit/internal/vision"
)

func hasWarning(r *Receipt, substr string) bool {
	for _, w := range r.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestBuildRejectsEmptyPayloads(t *testing.T) {
	if Build(nil) != nil {
		t.Error("Build(nil) should return nil")
	}
	if Build(&vision.Payload{}) != nil {
		t.Error("Build of payload with no items should return nil")
	}

	p := &vision.Payload{
		LineItems: []vision.RawLineItem{
			{Name: "Free refill", Price: 0.0},
			{Name: "", Price: 4.50},
			{Name: "Mystery", Price: "not a number"},
		},
	}
	if Build(p) != nil {
		t.Error("Build should return nil when no line item survives validation")
	}
}

func TestBuildHappyPath(t *testing.T) {
	p := &vision.Payload{
		Merchant: "  Cafe Nero  ",
		Date:     "2026-08-22",
		Time:     "9:05",
		Total:    12.50,
		LineItems: []vision.RawLineItem{
			{Name: "Flat White", Price: 4.50, Category: "coffee"},
			{Name: "Croissant", Price: 8.00, Category: "food"},
		},
	}

	r := Build(p)
	if r == nil {
		t.Fatal("Build returned nil for a valid payload")
	}
	if r.Merchant != "Cafe Nero" {
		t.Errorf("Merchant = %q, want %q", r.Merchant, "Cafe Nero")
	}
	if r.Time != "09:05" {
		t.Errorf("Time = %q, want %q", r.Time, "09:05")
	}
	if r.Subtotal != 12.50 || r.Total != 12.50 || r.PrintedTotal != 12.50 {
		t.Errorf("totals = subtotal %v total %v printed %v, want all 12.50",
			r.Subtotal, r.Total, r.PrintedTotal)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}
	if r.LineItems[0].Category != constants.Coffee {
		t.Errorf("Category = %q, want %q", r.LineItems[0].Category, constants.Coffee)
	}
}

func TestBuildCoercesStringAmounts(t *testing.T) {
	p := &vision.Payload{
		Merchant: "Deli",
		Total:    "$1,234.56",
		LineItems: []vision.RawLineItem{
			{Name: "Platter", Price: "$1,234.56"},
		},
	}

	r := Build(p)
	if r == nil {
		t.Fatal("Build returned nil")
	}
	if r.LineItems[0].Price != 1234.56 {
		t.Errorf("Price = %v, want 1234.56", r.LineItems[0].Price)
	}
	if r.PrintedTotal != 1234.56 {
		t.Errorf("PrintedTotal = %v, want 1234.56", r.PrintedTotal)
	}
}

func TestBuildExpandsExplicitQuantity(t *testing.T) {
	p := &vision.Payload{
		Merchant: "Dumpling House",
		Total:    24.00,
		LineItems: []vision.RawLineItem{
			{Name: "Pork Dumplings", Price: 24.00, Quantity: 2},
		},
	}

	r := Build(p)
	if r == nil {
		t.Fatal("Build returned nil")
	}
	if len(r.LineItems) != 2 {
		t.Fatalf("got %d line items, want 2", len(r.LineItems))
	}
	for _, it := range r.LineItems {
		if it.Price != 12.00 {
			t.Errorf("unit price = %v, want 12.00", it.Price)
		}
	}
	if r.Total != 24.00 {
		t.Errorf("Total = %v, want 24.00", r.Total)
	}
}

func TestBuildAddsSurchargeToTotal(t *testing.T) {
	p := &vision.Payload{
		Merchant:  "Brunch Spot",
		Subtotal:  20.00,
		Surcharge: 2.00,
		Total:     22.00,
		LineItems: []vision.RawLineItem{
			{Name: "Eggs Benedict", Price: 20.00},
		},
	}

	r := Build(p)
	if r == nil {
		t.Fatal("Build returned nil")
	}
	if r.Subtotal != 20.00 {
		t.Errorf("Subtotal = %v, want 20.00", r.Subtotal)
	}
	if r.Surcharge != 2.00 {
		t.Errorf("Surcharge = %v, want 2.00", r.Surcharge)
	}
	if r.Total != 22.00 {
		t.Errorf("Total = %v, want 22.00", r.Total)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}
}

func TestWarningSeverityIsMutuallyExclusive(t *testing.T) {
	// Item sum 3.00 against a printed subtotal of 10.00: ratio 0.3 is in the
	// severe band, so only the stronger warning fires.
	p := &vision.Payload{
		Merchant: "Corner Store",
		Date:     "2026-08-22",
		Subtotal: 10.00,
		Total:    10.00,
		LineItems: []vision.RawLineItem{
			{Name: "Chewing Gum", Price: 3.00},
		},
	}

	r := Build(p)
	if r == nil {
		t.Fatal("Build returned nil")
	}
	if !hasWarning(r, "differs significantly") {
		t.Errorf("expected significant-difference warning, got %v", r.Warnings)
	}
	if hasWarning(r, "minor discrepancy") {
		t.Errorf("minor warning must not fire alongside severe one: %v", r.Warnings)
	}
}

func TestWarningMinorDiscrepancy(t *testing.T) {
	// Ratio 0.6: outside [0.75, 1.25] but inside [0.4, 2.5].
	p := &vision.Payload{
		Merchant: "Corner Store",
		Date:     "2026-08-22",
		Subtotal: 10.00,
		Total:    10.00,
		LineItems: []vision.RawLineItem{
			{Name: "Chocolate Bar", Price: 6.00},
		},
	}

	r := Build(p)
	if r == nil {
		t.Fatal("Build returned nil")
	}
	if !hasWarning(r, "minor discrepancy") {
		t.Errorf("expected minor-discrepancy warning, got %v", r.Warnings)
	}
	if hasWarning(r, "differs significantly") {
		t.Errorf("severe warning must not fire in minor band: %v", r.Warnings)
	}
}

func TestWarningOversizedItem(t *testing.T) {
	p := &vision.Payload{
		Merchant: "Diner",
		Date:     "2026-08-22",
		Total:    10.00,
		LineItems: []vision.RawLineItem{
			{Name: "Steak", Price: 45.00},
			{Name: "Coffee", Price: 4.00},
		},
	}

	r := Build(p)
	if r == nil {
		t.Fatal("Build returned nil")
	}
	if !hasWarning(r, "1 item(s) priced larger than the bill total") {
		t.Errorf("expected oversized-item warning, got %v", r.Warnings)
	}
}

func TestWarningMerchantCountsRunes(t *testing.T) {
	// A single multi-byte character is still a one-character name.
	p := &vision.Payload{
		Merchant: "é",
		Date:     "2026-08-22",
		LineItems: []vision.RawLineItem{
			{Name: "Juice", Price: 5.00},
		},
	}

	r := Build(p)
	if r == nil {
		t.Fatal("Build returned nil")
	}
	if !hasWarning(r, "merchant name unclear") {
		t.Errorf("expected merchant warning for %q, got %v", p.Merchant, r.Warnings)
	}
}

func TestWarningMerchantAndDate(t *testing.T) {
	p := &vision.Payload{
		Merchant: "X",
		LineItems: []vision.RawLineItem{
			{Name: "Juice", Price: 5.00},
		},
	}

	r := Build(p)
	if r == nil {
		t.Fatal("Build returned nil")
	}
	if !hasWarning(r, "merchant name unclear") {
		t.Errorf("expected merchant warning, got %v", r.Warnings)
	}
	if !hasWarning(r, "date not detected") {
		t.Errorf("expected missing-date warning, got %v", r.Warnings)
	}

	p.Date = "22/08/2026"
	r = Build(p)
	if !hasWarning(r, "date format may be incorrect") {
		t.Errorf("expected date-format warning, got %v", r.Warnings)
	}
	if hasWarning(r, "date not detected") {
		t.Errorf("missing-date warning must not fire when a date is present: %v", r.Warnings)
	}
}

func TestWarningUnusuallyHighTotal(t *testing.T) {
	p := &vision.Payload{
		Merchant: "Jeweller",
		Date:     "2026-08-22",
		Total:    15000.00,
		LineItems: []vision.RawLineItem{
			{Name: "Watch", Price: 15000.00},
		},
	}

	r := Build(p)
	if r == nil {
		t.Fatal("Build returned nil")
	}
	if !hasWarning(r, "unusually high total") {
		t.Errorf("expected high-total warning, got %v", r.Warnings)
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Flat   White  ", "Flat White"},
		{"Flat White.......", "Flat White"},
		{"Latte ····", "Latte"},
		{"Plain", "Plain"},
	}
	for _, tt := range tests {
		if got := cleanName(tt.in); got != tt.want {
			t.Errorf("cleanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCoerceQuantityRejectsFractions(t *testing.T) {
	if q := coerceQuantity(2.5); q != 0 {
		t.Errorf("coerceQuantity(2.5) = %d, want 0", q)
	}
	if q := coerceQuantity(3.0); q != 3 {
		t.Errorf("coerceQuantity(3.0) = %d, want 3", q)
	}
	if q := coerceQuantity("4"); q != 4 {
		t.Errorf("coerceQuantity(\"4\") = %d, want 4", q)
	}
}
