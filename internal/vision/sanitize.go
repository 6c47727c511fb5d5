package vision

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (store -> merchant, items -> lineItems, ...)
// - Drops null/empty optional strings
// - Removes unknown keys (strict additionalProperties = false friendliness)
// - Normalizes line-item rows the same way (description -> name, amount -> price)
//
// Money fields are left as-is: string, number, and null are all legal at this
// boundary and the receipt builder coerces them.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	rename := func(from, to string) {
		if v, ok := m[from]; ok {
			// don't overwrite an existing value if already present
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) rename synonyms to our schema
	rename("store", "merchant")
	rename("vendor", "merchant")
	rename("merchant_name", "merchant")
	rename("items", "lineItems")
	rename("line_items", "lineItems")
	rename("tip", "surcharge")
	rename("service_charge", "surcharge")
	rename("service", "surcharge")
	rename("sub_total", "subtotal")
	rename("grand_total", "total")
	rename("raw_text", "rawOcrText")
	rename("ocr_text", "rawOcrText")

	// 2) trim obvious strings; drop null / "" optionals
	trimKeys := []string{"merchant", "date", "time", "rawOcrText", "error"}
	for _, k := range trimKeys {
		switch v := m[k].(type) {
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		case nil:
			if _, present := m[k]; present {
				delete(m, k)
				dropped = append(dropped, k+"(null)")
			}
		}
	}

	// 3) normalize line-item rows
	if rows, ok := m["lineItems"].([]any); ok {
		for i, r := range rows {
			row, ok := r.(map[string]any)
			if !ok {
				continue
			}
			renameRow := func(from, to string) {
				if v, ok := row[from]; ok {
					if _, exists := row[to]; !exists {
						row[to] = v
					}
					delete(row, from)
					dropped = append(dropped, fmt.Sprintf("lineItems[%d].%s->%s", i, from, to))
				}
			}
			renameRow("description", "name")
			renameRow("item", "name")
			renameRow("amount", "price")
			renameRow("qty", "quantity")
			for k := range maps.Clone(row) {
				switch k {
				case "name", "price", "quantity", "category":
				default:
					delete(row, k)
					dropped = append(dropped, fmt.Sprintf("lineItems[%d].%s(unknown)", i, k))
				}
			}
		}
	}

	// 4) remove unknown top-level keys
	allowed := map[string]struct{}{
		"merchant": {}, "date": {}, "time": {}, "subtotal": {},
		"surcharge": {}, "total": {}, "lineItems": {}, "rawOcrText": {},
		"error": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("vision.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}
