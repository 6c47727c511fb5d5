package receipt

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/snapsplit/snapsplit/constants"
	"github.com/snapsplit/snapsplit/internal/money"
	"github.com/snapsplit/snapsplit/internal/vision"
)

const (
	// Quantity bounds for an explicit printed multiplier. A printed "1x" is
	// not a multi-unit; anything above 99 is almost certainly a misread.
	minQuantity = 2
	maxQuantity = 99

	// totalSanityCeiling flags implausibly large receipts.
	totalSanityCeiling = 10000
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reDotLeader  = regexp.MustCompile(`[.\x{00b7}]{2,}\s*$`)
	reISODate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reClockTime  = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// Build validates an untrusted extraction payload into a canonical Receipt.
// It returns nil when no line item survives validation, which signals the
// caller to fall back. Method and Confidence are the caller's to set.
func Build(p *vision.Payload) *Receipt {
	if p == nil {
		return nil
	}

	// Coerce, clean, and drop hopeless rows.
	raws := make([]rawItem, 0, len(p.LineItems))
	for _, row := range p.LineItems {
		price, ok := coerceAmount(row.Price)
		if !ok || price <= 0 {
			continue
		}
		name := cleanName(row.Name)
		if name == "" {
			continue
		}
		it := rawItem{name: name, price: money.Round2(price)}
		if q := coerceQuantity(row.Quantity); q >= minQuantity && q <= maxQuantity {
			it.quantity = q
			it.explicit = true
		}
		if cat, ok := constants.Canonicalize(row.Category); ok {
			it.category = cat
		}
		raws = append(raws, it)
	}
	if len(raws) == 0 {
		return nil
	}

	items := expand(dedupe(raws))

	// Total reconciliation. Computed total is the incremental sum of the
	// surviving unit prices; the printed total is kept for comparison.
	computed := 0.0
	for _, it := range items {
		computed = money.Round2(computed + it.Price)
	}
	printed := 0.0
	if v, ok := coerceAmount(p.Total); ok && v > 0 {
		printed = money.Round2(v)
	}
	reported := printed
	if reported == 0 {
		reported = computed
	}
	surcharge := 0.0
	if v, ok := coerceAmount(p.Surcharge); ok && v > 0 {
		surcharge = money.Round2(v)
	}

	// Expected subtotal: explicit when provided, else derived from the
	// reported total.
	expected := 0.0
	if v, ok := coerceAmount(p.Subtotal); ok && v > 0 {
		expected = money.Round2(v)
	} else if surcharge > 0 {
		expected = money.Round2(reported - surcharge)
	} else {
		expected = reported
	}

	merchant := strings.TrimSpace(p.Merchant)

	r := &Receipt{
		Merchant:     merchant,
		Date:         strings.TrimSpace(p.Date),
		Time:         normalizeTime(p.Time),
		Subtotal:     computed,
		Surcharge:    surcharge,
		Total:        money.Round2(computed + surcharge),
		PrintedTotal: printed,
		LineItems:    items,
	}
	r.Warnings = collectWarnings(r, computed, expected, reported)
	return r
}

// collectWarnings appends the non-fatal consistency checks in a fixed
// precedence. The two ratio checks are mutually exclusive: only the more
// severe one fires.
func collectWarnings(r *Receipt, computed, expected, reported float64) []string {
	var warnings []string

	if expected > 0 {
		ratio := computed / expected
		if ratio < 0.4 || ratio > 2.5 {
			warnings = append(warnings, "item total differs significantly from the receipt total; items may be missing or mispriced")
		} else if ratio < 0.75 || ratio > 1.25 {
			warnings = append(warnings, "minor discrepancy between item total and receipt total; worth double-checking")
		}
	}

	if reported > 0 {
		oversized := 0
		for _, it := range r.LineItems {
			if it.Price > reported*1.05 {
				oversized++
			}
		}
		if oversized > 0 {
			warnings = append(warnings, fmt.Sprintf("%d item(s) priced larger than the bill total", oversized))
		}
	}

	if utf8.RuneCountInString(r.Merchant) < 2 {
		warnings = append(warnings, "merchant name unclear")
	}

	if r.Date == "" {
		warnings = append(warnings, "date not detected")
	} else if !reISODate.MatchString(r.Date) {
		warnings = append(warnings, "date format may be incorrect")
	}

	if reported > totalSanityCeiling {
		warnings = append(warnings, "unusually high total")
	}
	return warnings
}

// cleanName trims, collapses repeated whitespace, and strips trailing
// dot-leaders ("Flat White....." style printing).
func cleanName(s string) string {
	s = reWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
	s = reDotLeader.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// coerceAmount accepts string-or-number money values from the wire.
func coerceAmount(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimLeft(s, "$£€")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// coerceQuantity accepts only values that are exactly integral.
func coerceQuantity(v any) int {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0
		}
		return int(t)
	case int:
		return t
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// normalizeTime accepts H:MM or HH:MM wall-clock times and zero-pads them.
func normalizeTime(s string) string {
	m := reClockTime.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
