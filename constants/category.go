package constants

import (
	"strings"
)

// Category is a coarse tag attached to a line item. The set is closed:
// anything the extraction service invents outside it is dropped and left to
// default categorization downstream.
type Category string

const (
	Coffee  Category = "coffee"
	Alcohol Category = "alcohol"
	Drink   Category = "drink"
	Food    Category = "food"
	Dessert Category = "dessert"
	Grocery Category = "grocery"
	Fuel    Category = "fuel"
	Other   Category = "other"
)

var allCategories = []Category{
	Coffee,
	Alcohol,
	Drink,
	Food,
	Dessert,
	Grocery,
	Fuel,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize matches a raw label against the closed tag set. Matching is
// case-insensitive on the trimmed label. There is no synonym mapping: an
// unknown label is rejected, not guessed.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}
	return "", false
}
