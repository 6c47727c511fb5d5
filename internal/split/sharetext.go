package split

import (
	"fmt"
	"strings"

	"github.com/snapsplit/snapsplit/internal/money"
)

// ShareOptions carries the receipt-level context for the share text.
// Currency is an ISO 4217 code; empty falls back to plain "$X.XX" amounts.
type ShareOptions struct {
	Group    string
	Merchant string
	Date     string
	Time     string
	Total    float64
	Currency string
}

// FormatShareText renders the settlement as line-oriented plain text fit for
// a group chat. The layout is stable and covered by golden tests:
//
//	Dinner Crew · The Burger Joint
//	2026-08-22 19:30
//	Total: $39.50
//
//	Pay to: Alice
//	PayID: alice@upbank.com
//
//	Alice: $19.75
//	  - Burger ($9.25, split 2 ways)
//
//	Others owe:
//	Bob: $19.75
//	  - Burger ($9.25, split 2 ways)
func FormatShareText(payer Person, entries []SettlementEntry, opts ShareOptions) string {
	var b strings.Builder

	b.WriteString(opts.Group)
	b.WriteString(" · ")
	b.WriteString(opts.Merchant)
	b.WriteString("\n")

	if opts.Date != "" || opts.Time != "" {
		b.WriteString(strings.TrimSpace(opts.Date + " " + opts.Time))
		b.WriteString("\n")
	}
	if opts.Total > 0 {
		fmt.Fprintf(&b, "Total: %s\n", money.Format(opts.Total, opts.Currency))
	}

	b.WriteString("\nPay to: ")
	b.WriteString(payer.Name)
	b.WriteString("\n")
	if p := payer.PaymentPrefs; p != nil && p.Handle != "" {
		fmt.Fprintf(&b, "%s: %s\n", p.Method, p.Handle)
	}

	for _, e := range entries {
		if !e.IsPayer {
			continue
		}
		b.WriteString("\n")
		writeBreakdown(&b, e, opts.Currency)
	}

	b.WriteString("\nOthers owe:\n")
	for _, e := range entries {
		if e.IsPayer {
			continue
		}
		writeBreakdown(&b, e, opts.Currency)
	}

	return b.String()
}

func writeBreakdown(b *strings.Builder, e SettlementEntry, currency string) {
	fmt.Fprintf(b, "%s: %s\n", e.Person.Name, money.Format(e.TotalOwed, currency))
	for _, it := range e.Items {
		if it.SplitCount > 1 {
			fmt.Fprintf(b, "  - %s (%s, split %d ways)\n", it.Name, money.Format(it.Price, currency), it.SplitCount)
		} else {
			fmt.Fprintf(b, "  - %s (%s)\n", it.Name, money.Format(it.Price, currency))
		}
	}
}
