// Package fields holds the schema of product attributes the extractor
// understands. Names not present in the registry are treated as custom
// fields and extracted with generic rules.
package fields

import (
	"strings"

	"github.com/bazaarlens/bazaarlens/constants"
)

// Definition describes one predefined extractable field.
type Definition struct {
	Name        string
	Description string
	Type        constants.FieldType
	Rules       []string
	Example     string
}

// aliases maps common surface variations to canonical field names.
var aliases = map[string]string{
	"m.r.p.":               "mrp",
	"mrp":                  "mrp",
	"maximum retail price": "mrp",
	"list price":           "mrp",
	"original price":       "mrp",
}

var registry = map[string]Definition{
	"rating": {
		Name:        "rating",
		Description: "Product rating (0.0 to 5.0)",
		Type:        constants.Decimal,
		Example:     "4.3",
		Rules: []string{
			"Find rating number (4, 4.3, 4.4, 3.5, 4.2) that appears:",
			"- BEFORE or AFTER star symbols (★, ⭐, ☆, *) - can be '4★' or '★4' or '4.3★'",
			"- Near 'out of 5 stars' or 'stars' text",
			"- Can be single digit with star: '4★', '4 ★', '★4'",
			"- Can be decimal: '4.3', '4 3', '4-3' (OCR may split decimal)",
			"- CRITICAL: Read rating EXACTLY - if you see '4' stars, extract exactly '4.0' or '4', not '40' or '0.4'",
			"- If you see '4.0' or '4', both are valid - read exactly as shown",
			"- OCR may split: '4 0' should be read as '4.0' (if decimal context) or '4' (if whole number)",
			"- Rating range: 0.0 to 5.0 - read exactly, no mistakes",
			"- Look for numbers 0-5 near star symbols or ratings section",
			"- Read each digit carefully: '4.3' not '43' or '4.30' (unless shown)",
		},
	},
	"ratings_count": {
		Name:        "ratings_count",
		Description: "Total number of ratings",
		Type:        constants.Integer,
		Example:     "7624",
		Rules: []string{
			"Find number before 'Ratings' or 'ratings' text:",
			"- Pattern: 'NUMBER Ratings' (e.g., '7,624 ratings', '7624 ratings', '7 624 ratings')",
			"- CRITICAL: Read numerical values EXACTLY - NO mistakes",
			"- OCR may split numbers: '7624' might appear as '7 624' or '76 24' - read as '7624'",
			"- OCR may have spaces in numbers: '26 Ratings' → exactly '26', not '2 6' or '260'",
			"- Remove commas and spaces: '7,624' → exactly 7624 (not 762 or 76240)",
			"- Read each digit carefully before 'ratings' text",
			"- Look for large numbers (hundreds or thousands) near 'ratings'",
			"- Handle Indian number format: '3,34,015' → exactly 334015",
		},
	},
	"reviews_count": {
		Name:        "reviews_count",
		Description: "Total number of reviews",
		Type:        constants.Integer,
		Example:     "140",
		Rules: []string{
			"Find number before 'Reviews' or 'reviews' text:",
			"- Pattern: 'NUMBER Reviews' (e.g., '140 reviews', '205 reviews')",
			"- Can also be part of 'NUMBER ratings and NUMBER reviews'",
			"- Handle Indian number format: '17,504' → 17504",
		},
	},
	"review": {
		Name:        "review",
		Description: "Customer review text",
		Type:        constants.String,
		Example:     "Great quality product, arrived on time.",
		Rules: []string{
			"Find customer review text:",
			"- Look after 'reviews', 'customer review', 'verified purchase', customer names",
			"- Extract FIRST meaningful review sentence/paragraph",
			"- Clean OCR errors but preserve meaning",
			"- If no review text, use null",
		},
	},
	"price": {
		Name:        "price",
		Description: "Extract the current (non-crossed-out) selling price of the product.",
		Type:        constants.String,
		Example:     "₹592",
		Rules: []string{
			"1. Look for currency values with symbols like ₹, Rs, Rs., $, etc.",
			"2. If a price is struck-through (crossed out), IGNORE it — it is MRP or old price.",
			"3. The non-crossed-out price shown near 'Special price', 'Offer price', or discount text is the CURRENT price.",
			"4. CRITICAL: Read digits EXACTLY as shown - if you see '₹592', extract EXACTLY '₹592' (3 digits: 5-9-2), NOT '₹202' or any other value.",
			"5. CRITICAL: Count digits carefully - '₹592' has 3 digits (5, 9, 2). If you extract '₹202', that is WRONG (digits are 2, 0, 2 which don't match 5, 9, 2).",
			"6. OCR may split numbers: '592' might appear as '5 92', '59 2', or '5 9 2' - ALL should be read as EXACTLY '592'.",
			"7. OCR may MISREAD digits: '592' might be incorrectly read as '202' (5→2, 9→0) or '442' (5→4, 9→4) - VERIFY each digit carefully!",
			"8. Read each digit ONE BY ONE: If text shows '₹592', count: first digit is '5', second is '9', third is '2' = exactly '₹592'.",
			"9. Extract the value exactly as displayed, including the currency symbol (e.g., '₹592').",
			"10. If multiple prices exist, pick the one that is highlighted, largest, or next to 'Special price'.",
			"11. Do not change digits or symbols — keep commas and currency symbol as shown.",
			"12. VERIFICATION: Before returning, verify digits match what you see - '₹592' = digits 5-9-2, NOT 2-0-2 or 4-4-2.",
			"13. Return only one value — the current price.",
		},
	},
	"mrp": {
		Name:        "mrp",
		Description: "Extract the MRP or original price that is crossed out (struck-through).",
		Type:        constants.String,
		Example:     "₹1,302",
		Rules: []string{
			"1. CRITICAL: MRP is the STRUCK-THROUGH (crossed-out) price that appears NEAR the current price - NOT from ratings/reviews section.",
			"2. CRITICAL: DO NOT extract numbers from 'ratings' or 'reviews' text - those are NOT MRP. Example: '2,82,519 ratings' is NOT MRP, ignore it.",
			"3. CRITICAL: MRP appears in the PRICING SECTION, usually right above or next to the current price, NOT in the ratings area.",
			"4. Look for prices with currency symbols like ₹, Rs, Rs., $, etc. that appear NEAR the current price.",
			"5. Identify the price that is struck-through (crossed out) - this is the MRP. It appears near 'Special price' or discount text.",
			"6. CRITICAL: Read digits EXACTLY as shown - if you see '₹1,302' or '₹1302' NEAR the current price, extract EXACTLY '₹1,302' (4 digits: 1-3-0-2), NOT '2,825' or any other number.",
			"7. CRITICAL: If you see '2,82,519' or '2,825' near 'ratings' or 'reviews' text, that is NOT MRP - ignore it completely!",
			"8. CRITICAL: MRP should be close to the price value - if current price is ₹592, MRP should be nearby (like ₹1,302), NOT far away in ratings section.",
			"9. OCR may split numbers: '1302' might appear as '1 302', '13 02', '1 3 0 2' - ALL should be read as EXACTLY '1302' or '1,302'.",
			"10. OCR may MISREAD digits: '1,302' might be incorrectly read as '442' - VERIFY each digit carefully!",
			"11. Extract that value exactly as shown, including the currency symbol (e.g., '₹1,302').",
			"12. If multiple crossed-out prices exist, choose the one appearing NEAREST to the current price or discount percentage.",
			"13. Do not extract any price that is not crossed-out.",
			"14. DO NOT extract numbers from these sections: ratings, reviews, offers (unless it's clearly a price), delivery charges.",
			"15. Preserve commas and currency symbols as displayed.",
			"16. VERIFICATION: Before returning, verify: (a) digits match what you see, (b) it's NOT from ratings/reviews section, (c) it appears near the current price.",
		},
	},
	"product_name": {
		Name:        "product_name",
		Description: "Product name or title",
		Type:        constants.String,
		Example:     "Men's Cotton T-Shirt",
		Rules: []string{
			"Find product name/title:",
			"- Usually appears at the top of the page",
			"- May be in headings (h1, h2) or prominent text",
			"- Extract the main product title, clean OCR errors",
			"- Skip generic text like 'Home', 'Shop', etc.",
		},
	},
	"discount": {
		Name:        "discount",
		Description: "Discount percentage or amount",
		Type:        constants.String,
		Example:     "20% off",
		Rules: []string{
			"Find discount information:",
			"- Look for '% off', 'discount', 'save', 'off'",
			"- Patterns: '20% off', 'Save 20%', '₹100 off', '20% discount'",
			"- Extract percentage or amount",
			"- Return as string or number",
		},
	},
	"availability": {
		Name:        "availability",
		Description: "Product availability status",
		Type:        constants.String,
		Example:     "In Stock",
		Rules: []string{
			"Find availability status:",
			"- Look for: 'In Stock', 'Out of Stock', 'Available', 'Unavailable'",
			"- May appear near price or add to cart button",
			"- Extract status text",
		},
	},
}

// lowercase name -> canonical name, built once for case-insensitive lookup.
var lowerToCanonical = func() map[string]string {
	m := make(map[string]string, len(registry))
	for name := range registry {
		m[strings.ToLower(name)] = name
	}
	return m
}()

// Lookup returns the definition for a canonical field name.
func Lookup(name string) (Definition, bool) {
	def, ok := registry[name]
	return def, ok
}

// IsPredefined reports whether name is a registry field (exact match).
func IsPredefined(name string) bool {
	_, ok := registry[name]
	return ok
}

// Normalize maps a requested field name to its canonical form. Aliases and
// case-insensitive registry matches resolve to registry names; anything else
// is returned unchanged and treated as a custom field.
func Normalize(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[lower]; ok {
		return canonical
	}
	if canonical, ok := lowerToCanonical[lower]; ok {
		return canonical
	}
	return name
}

// NormalizeAll normalizes every requested name, substituting the default
// field set when the request names none. Aliases of the same field collapse
// to one entry, first position wins.
func NormalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		canonical := Normalize(n)
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	if len(out) == 0 {
		out = append(out, constants.DefaultFields...)
	}
	return out
}

// TypeOf returns the coercion type for a field; custom fields are strings.
func TypeOf(name string) constants.FieldType {
	if def, ok := registry[name]; ok {
		return def.Type
	}
	return constants.String
}

// All returns every registry definition in a stable order.
func All() []Definition {
	order := []string{
		"rating", "ratings_count", "reviews_count", "review",
		"price", "mrp", "product_name", "discount", "availability",
	}
	defs := make([]Definition, 0, len(order))
	for _, name := range order {
		defs = append(defs, registry[name])
	}
	return defs
}
