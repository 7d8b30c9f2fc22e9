package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePredefinedRulesVerbatim(t *testing.T) {
	p := Compile([]string{"rating", "ratings_count"})

	assert.Contains(t, p.Template, "1. rating (0.0 to 5.0) (rating):")
	assert.Contains(t, p.Template, "2. Total number of ratings (ratings_count):")
	assert.Contains(t, p.Template, "Handle Indian number format: '3,34,015'")
	assert.Contains(t, p.Template, InputPlaceholder)
}

func TestCompileOutputSchemaTypes(t *testing.T) {
	p := Compile([]string{"rating", "ratings_count", "price", "Operating System"})

	assert.Contains(t, p.Template, `"rating": <decimal_or_null>`)
	assert.Contains(t, p.Template, `"ratings_count": <integer_or_null>`)
	assert.Contains(t, p.Template, `"price": "<text_or_null>"`)
	assert.Contains(t, p.Template, `"Operating System": "<value_or_null>"`)
	assert.Contains(t, p.Template, `"source": "ocr"`)
}

func TestCompileCustomFieldVariants(t *testing.T) {
	p := Compile([]string{"Operating System"})

	assert.Contains(t, p.Template, "'Operating System' (with space)")
	assert.Contains(t, p.Template, "'OperatingSystem'")
	assert.Contains(t, p.Template, "'Operating-System'")
	assert.Contains(t, p.Template, "until the next section/title appears")
}

func TestCompileNoFieldLimit(t *testing.T) {
	names := make([]string, 40)
	for i := range names {
		names[i] = "custom_field_" + string(rune('a'+i%26)) + strings.Repeat("x", i/26)
	}
	p := Compile(names)
	for _, n := range names {
		assert.Contains(t, p.Template, `"`+n+`"`)
	}
}

func TestCompileDefaultsWhenEmpty(t *testing.T) {
	p := Compile(nil)
	assert.Equal(t, []string{"rating", "review"}, p.Fields)
	assert.Contains(t, p.Template, `"rating": <decimal_or_null>`)
}

func TestExamplesKeyedByFieldSet(t *testing.T) {
	withBoth := Compile([]string{"price", "mrp"})
	assert.Contains(t, withBoth.Template, `"price": "₹592", "mrp": "₹1,302"`)
	assert.Contains(t, withBoth.Template, "2,82,519")

	priceOnly := Compile([]string{"price"})
	assert.NotContains(t, priceOnly.Template, "₹1,302")
	assert.Contains(t, priceOnly.Template, `"price": "₹299"`)

	ratingOnly := Compile([]string{"rating"})
	assert.Contains(t, ratingOnly.Template, "7,624 ratings")

	size := Compile([]string{"SELECT SIZE"})
	assert.Contains(t, size.Template, `"SELECT SIZE": "S M L XL XXL"`)
}

func TestFillSubstitutesWholeText(t *testing.T) {
	p := Compile([]string{"rating"})
	text := strings.Repeat("very long product page line\n", 500)
	filled := p.Fill(text)

	require.NotContains(t, filled, InputPlaceholder)
	assert.Contains(t, filled, text)
	// Template body must survive intact around the substitution.
	assert.Contains(t, filled, "EXTRACTION RULES")
}
