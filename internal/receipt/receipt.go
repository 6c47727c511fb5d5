// Package receipt turns untrusted extraction payloads into canonical,
// validated receipt records.
package receipt

import (
	"github.com/snapsplit/snapsplit/constants"
)

// LineItem is one individually assignable unit on a canonical receipt.
// Multi-quantity rows are expanded before they get here, so Price is always
// the per-unit price.
type LineItem struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Price       float64            `json:"price"`
	AllocatedTo []string           `json:"allocatedTo"`
	Category    constants.Category `json:"category,omitempty"`
}

// Receipt is the canonical record produced by one scan. It is immutable in
// the core; user edits downstream replace whole fields.
type Receipt struct {
	Merchant string `json:"merchant"`
	Date     string `json:"date"`           // YYYY-MM-DD, empty when not detected
	Time     string `json:"time,omitempty"` // 24-hour HH:MM

	// Subtotal is the incremental sum of line-item prices.
	Subtotal float64 `json:"subtotal,omitempty"`
	// Surcharge is a receipt-level extra charge, present only when > 0.
	Surcharge float64 `json:"surcharge,omitempty"`
	// Total is Subtotal plus Surcharge. It is what the app settles against.
	Total float64 `json:"total"`
	// PrintedTotal preserves the merchant-printed total for comparison; it
	// may disagree with Total when extraction missed or misread items.
	PrintedTotal float64 `json:"printedTotal,omitempty"`

	LineItems []LineItem `json:"lineItems"`

	Confidence float64          `json:"confidence,omitempty"` // [0,1]
	Method     constants.Method `json:"method"`
	Warnings   []string         `json:"validationWarnings,omitempty"`
}

// Sentinel is the terminal "nothing usable extracted" receipt: zero items,
// zero confidence, one warning telling the user to retake the photo. The scan
// contract is to return it rather than an error once an attempt has started.
func Sentinel() *Receipt {
	return &Receipt{
		Merchant:   "Receipt",
		LineItems:  []LineItem{},
		Confidence: 0,
		Method:     constants.MethodNone,
		Warnings:   []string{"could not read the receipt; retake the photo with better lighting and focus"},
	}
}
