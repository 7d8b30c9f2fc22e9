package prompt

import "strings"

// snippet is one worked example that is appended to the prompt when its
// predicate matches the requested field set. Keeping examples data-driven
// lets new steering cases ship without touching the compiler.
type snippet struct {
	name    string
	applies func(fieldSet map[string]bool, names []string) bool
	text    string
}

var snippets = []snippet{
	{
		name: "size-selector",
		applies: func(_ map[string]bool, names []string) bool {
			for _, n := range names {
				switch strings.ToLower(n) {
				case "select size", "selectsize", "size":
					return true
				}
			}
			return false
		},
		text: `Input: "SELECT SIZE\nS M L XL XXL\nADD TO BAG"
Output: {"SELECT SIZE": "S M L XL XXL", "source": "ocr"}

Input: "SELECTSIZE S S S M L XL XXL\nWISHLIST"
Output: {"SELECT SIZE": "S S S M L XL XXL", "source": "ocr"}

`,
	},
	{
		// Counteracts the currency glyph being misread as a leading digit
		// and MRP being pulled from the ratings count.
		name: "price-and-mrp",
		applies: func(set map[string]bool, _ []string) bool {
			return set["price"] && set["mrp"]
		},
		text: `Input: "Product Name\nSpecial price: ₹592\n₹1,302 (crossed out)\n54% off\n4.2★\n2,82,519 ratings"
Output: {"price": "₹592", "mrp": "₹1,302", "source": "ocr"}
NOTE: MRP is ₹1,302 (the crossed-out price), NOT 2,82,519 (that's ratings count - ignore it!)

Input: "Product Name\nPrice: ₹299\nRating: 4.3"
Output: {"price": "₹299", "mrp": null, "rating": 4.3, "source": "ocr"}

`,
	},
	{
		name: "price-only",
		applies: func(set map[string]bool, _ []string) bool {
			return set["price"] && !set["mrp"]
		},
		text: `Input: "Product Name\nPrice: ₹299\nRating: 4.3"
Output: {"price": "₹299", "rating": 4.3, "source": "ocr"}

`,
	},
	{
		name: "rating-without-price",
		applies: func(set map[string]bool, _ []string) bool {
			return set["rating"] && !set["price"]
		},
		text: `Input: "Panasonic\n4.3 out of 5 stars\n7,624 ratings"
Output: {"rating": 4.3, "ratings_count": 7624, "source": "ocr"}

`,
	},
}

// examplesFor renders the worked examples matching the field set.
func examplesFor(names []string) string {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}

	var b strings.Builder
	b.WriteString("\nExamples:\n")
	for _, s := range snippets {
		if s.applies(set, names) {
			b.WriteString(s.text)
		}
	}
	return b.String()
}
