// Package fallback is the heuristic text parser used when the vision path is
// unavailable or returns nothing usable. It works line-by-line over raw OCR
// text and emits the same untrusted payload shape as the vision service, so
// the receipt builder stays the single canonicalization path.
package fallback

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/snapsplit/snapsplit/internal/money"
	"github.com/snapsplit/snapsplit/internal/vision"
)

var (
	// A bare price line: optional $, optional thousands separators, required
	// 2-decimal fraction, optional trailing tax-code letter or asterisk.
	reBarePrice = regexp.MustCompile(`^\$?\s*\d{1,3}(?:,\d{3})*\.\d{2}\s*[A-Za-z*]?$`)
	// The same pattern anchored to the end of a longer line.
	rePriceTail = regexp.MustCompile(`\$?\s*(\d{1,3}(?:,\d{3})*\.\d{2})\s*[A-Za-z*]?\s*$`)

	reQtyPrefix     = regexp.MustCompile(`^(\d{1,2})\s*[x×]\s+`)
	reBarcodePrefix = regexp.MustCompile(`^\d{4,13}\s+`)
	reDotLeader     = regexp.MustCompile(`[.\x{00b7}]{2,}\s*$`)

	reISODate = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	reAUDate  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2}(?:\d{2})?)\b`)
	reTime    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::\d{2})?\s*([ap]m|[AP]M)?\b`)

	reLetters3    = regexp.MustCompile(`[A-Za-z]{3}`)
	reDigitsOnly  = regexp.MustCompile(`^[\d\s\-#/]+$`)
	reStreetShape = regexp.MustCompile(`^\d+[\s,]+\w`)
	reAlnum       = regexp.MustCompile(`[A-Za-z0-9]`)
)

// Lines containing any of these are payment, loyalty, contact, or network
// noise and are discarded outright.
var skipSubstrings = []string{
	"visa", "mastercard", "amex", "eftpos", "debit", "credit card",
	"card ending", "****", "xxxx", "auth", "approved", "cash out", "change due",
	"loyalty", "rewards", "points", "member",
	"abn", "phone", "tel:", "fax", "www", "http", "@",
	"wifi", "wi-fi", "password", "network",
}

// Metadata header lines that should never be taken as a merchant name.
var metadataKeywords = []string{
	"tax invoice", "invoice", "receipt", "gst", "welcome", "order",
}

var (
	subtotalKeywords  = []string{"subtotal", "sub-total", "sub total"}
	surchargeKeywords = []string{"surcharge", "service charge", "public holiday", "weekend"}
	totalKeywords     = []string{"total", "amount due", "balance due"}
)

// Parse extracts a best-effort payload from raw receipt text. It never
// fails: an unreadable text produces a payload with zero line items, which
// the builder then rejects.
func Parse(text string) *vision.Payload {
	lines := splitLines(text)
	lines = joinNamePriceLines(lines)

	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if !containsAny(strings.ToLower(l), skipSubstrings) {
			kept = append(kept, l)
		}
	}

	p := &vision.Payload{
		Merchant: detectMerchant(kept),
		Date:     detectDate(kept),
		Time:     detectTime(kept),
		RawText:  text,
	}

	var items []vision.RawLineItem
	var itemSum, total, subtotal, surcharge float64

	for _, line := range kept {
		price, rest, ok := trailingPrice(line)
		if !ok {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		// Subtotal before total: every subtotal keyword also contains "total".
		case containsAny(lower, subtotalKeywords):
			if price > subtotal {
				subtotal = price
			}
		case containsAny(lower, surchargeKeywords):
			surcharge = money.Round2(surcharge + price)
		case containsAny(lower, totalKeywords):
			// Several candidates appear on real receipts (total, cash,
			// balance); the largest is the bill total.
			if price > total {
				total = price
			}
		default:
			item, ok := extractItem(rest, price)
			if !ok {
				continue
			}
			items = append(items, item)
			itemSum = money.Round2(itemSum + price)
		}
	}
	p.LineItems = items

	final := total
	if final == 0 {
		final = subtotal
	}
	if final == 0 {
		final = itemSum
	}
	if final > 0 {
		p.Total = final
	}
	if subtotal > 0 {
		p.Subtotal = subtotal
	}
	if surcharge > 0 {
		p.Surcharge = surcharge
	}
	return p
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// joinNamePriceLines glues an item name to a bare price printed on the next
// line, a common thermal-printer layout.
func joinNamePriceLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if i+1 < len(lines) &&
			reAlnum.MatchString(line) &&
			!reBarePrice.MatchString(line) &&
			reBarePrice.MatchString(lines[i+1]) {
			out = append(out, line+" "+lines[i+1])
			i++
			continue
		}
		out = append(out, line)
	}
	return out
}

// detectMerchant picks the first line that looks like a store name: long
// enough, not purely numeric, not a street address, not boilerplate, and
// containing at least three consecutive letters.
func detectMerchant(lines []string) string {
	for _, l := range lines {
		if len(l) < 3 || reDigitsOnly.MatchString(l) || reStreetShape.MatchString(l) {
			continue
		}
		if containsAny(strings.ToLower(l), metadataKeywords) {
			continue
		}
		if !reLetters3.MatchString(l) {
			continue
		}
		return l
	}
	return "Receipt"
}

func detectDate(lines []string) string {
	for _, l := range lines {
		if m := reISODate.FindStringSubmatch(l); m != nil {
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			if validDate(year, month, day) {
				return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
			}
		}
		if m := reAUDate.FindStringSubmatch(l); m != nil {
			day, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			ys := m[3]
			if len(ys) == 2 {
				ys = "20" + ys
			}
			year, _ := strconv.Atoi(ys)
			if validDate(year, month, day) {
				return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
			}
		}
	}
	return ""
}

func validDate(year, month, day int) bool {
	return year >= 2000 && year <= 2100 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}

func detectTime(lines []string) string {
	for _, l := range lines {
		m := reTime.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if minute > 59 {
			continue
		}
		switch strings.ToLower(m[3]) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour > 23 {
			continue
		}
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}
	return ""
}

// trailingPrice returns the price at the end of the line and the line with
// the price stripped.
func trailingPrice(line string) (float64, string, bool) {
	loc := rePriceTail.FindStringSubmatchIndex(line)
	if loc == nil {
		return 0, "", false
	}
	numeric := strings.ReplaceAll(line[loc[2]:loc[3]], ",", "")
	price, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, "", false
	}
	return price, strings.TrimSpace(line[:loc[0]]), true
}

// extractItem turns a price-stripped line into a raw row: optional leading
// "N x" multiplier, optional numeric barcode prefix, trailing dot-leaders.
func extractItem(rest string, price float64) (vision.RawLineItem, bool) {
	quantity := 0
	if m := reQtyPrefix.FindStringSubmatch(rest); m != nil {
		if q, err := strconv.Atoi(m[1]); err == nil && q >= 2 && q <= 99 {
			quantity = q
			rest = rest[len(m[0]):]
		}
	}
	rest = reBarcodePrefix.ReplaceAllString(rest, "")
	rest = strings.TrimSpace(reDotLeader.ReplaceAllString(rest, ""))
	if len(rest) < 2 {
		return vision.RawLineItem{}, false
	}
	item := vision.RawLineItem{Name: rest, Price: price}
	if quantity > 0 {
		item.Quantity = quantity
	}
	return item, true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
