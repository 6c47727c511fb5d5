package vision

import "context"

// ExtractRequest carries one receipt image to the extraction service.
// Exactly one of ImageBase64 or ImageURL should be set.
type ExtractRequest struct {
	ImageBase64 string // raw base64, no data-URL prefix
	ImageURL    string
	MIMEType    string
	Hint        string // optional free-text context, e.g. "cafe receipt, AUD"
}

// RawLineItem is one extracted row before validation. Price and Quantity are
// untyped on purpose: the model returns strings, numbers, or null
// interchangeably and the receipt builder coerces them.
type RawLineItem struct {
	Name     string `json:"name"`
	Price    any    `json:"price"`
	Quantity any    `json:"quantity,omitempty"`
	Category string `json:"category,omitempty"`
}

// Payload is the declared response shape of the extraction service. Nothing
// in it is trusted; every field is validated by the receipt builder.
type Payload struct {
	Merchant  string        `json:"merchant"`
	Date      string        `json:"date"`
	Time      string        `json:"time,omitempty"`
	Subtotal  any           `json:"subtotal,omitempty"`
	Surcharge any           `json:"surcharge,omitempty"`
	Total     any           `json:"total,omitempty"`
	LineItems []RawLineItem `json:"lineItems"`
	RawText   string        `json:"rawOcrText,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Extractor is the interface the scan orchestrator depends on.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (*Payload, []byte /*rawJSON*/, error)
}
