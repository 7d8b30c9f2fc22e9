package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarlens/bazaarlens/constants"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"alias dotted", "M.R.P.", "mrp"},
		{"alias long form", "Maximum Retail Price", "mrp"},
		{"alias list price", "list price", "mrp"},
		{"alias original price", "Original Price", "mrp"},
		{"case insensitive registry match", "RATING", "rating"},
		{"whitespace trimmed", "  price  ", "price"},
		{"custom keeps original case", "Operating System", "Operating System"},
		{"custom single word", "Brand", "Brand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeAllDefaults(t *testing.T) {
	assert.Equal(t, []string{"rating", "review"}, NormalizeAll(nil))
	assert.Equal(t, []string{"rating", "review"}, NormalizeAll([]string{"", "  "}))
}

func TestNormalizeAllMixed(t *testing.T) {
	got := NormalizeAll([]string{"Price", "m.r.p.", "SELECT SIZE"})
	assert.Equal(t, []string{"price", "mrp", "SELECT SIZE"}, got)
}

func TestNormalizeAllCollapsesAliasDuplicates(t *testing.T) {
	got := NormalizeAll([]string{"M.R.P.", "Maximum Retail Price", "rating", "RATING"})
	assert.Equal(t, []string{"mrp", "rating"}, got)
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, constants.Decimal, TypeOf("rating"))
	assert.Equal(t, constants.Integer, TypeOf("ratings_count"))
	assert.Equal(t, constants.Integer, TypeOf("reviews_count"))
	assert.Equal(t, constants.String, TypeOf("price"))
	assert.Equal(t, constants.String, TypeOf("Operating System"))
}

func TestAllStableOrder(t *testing.T) {
	defs := All()
	require.Len(t, defs, 9)
	assert.Equal(t, "rating", defs[0].Name)
	assert.Equal(t, "availability", defs[8].Name)
	for _, def := range defs {
		assert.NotEmpty(t, def.Description)
		assert.NotEmpty(t, def.Rules)
	}
}

func TestBuildResultSchemaValidation(t *testing.T) {
	schema := BuildResultSchema([]string{"rating", "ratings_count", "price"})

	ok := map[string]any{
		"rating":        4.2,
		"ratings_count": 282519,
		"price":         "₹592",
		"source":        "ocr",
	}
	assert.NoError(t, ValidateAgainstSchema(ok, schema))

	missing := map[string]any{
		"rating": 4.2,
		"source": "ocr",
	}
	assert.Error(t, ValidateAgainstSchema(missing, schema))
}
