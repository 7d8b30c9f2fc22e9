package recovery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarlens/bazaarlens/constants"
	"github.com/bazaarlens/bazaarlens/internal/fallback"
)

func TestExtractJSONFencedBlock(t *testing.T) {
	out := "Here is the result:\n```json\n{\"rating\": 4.2}\n```\nDone."
	got, ok := ExtractJSON(out)
	require.True(t, ok)
	assert.Equal(t, `{"rating": 4.2}`, got)
}

func TestExtractJSONBraceWalk(t *testing.T) {
	out := `Sure! {"rating": 4.2, "nested": {"a": 1}} trailing prose`
	got, ok := ExtractJSON(out)
	require.True(t, ok)
	assert.Equal(t, `{"rating": 4.2, "nested": {"a": 1}}`, got)
}

func TestExtractJSONTruncatedOutput(t *testing.T) {
	out := `{"rating": 4.2, "review": "Good product, works well and the battery lasts long",`
	got, ok := ExtractJSON(out)
	require.True(t, ok)
	assert.Equal(t, out, got)
}

func TestExtractJSONNothingThere(t *testing.T) {
	_, ok := ExtractJSON("I could not find any product attributes in the text.")
	assert.False(t, ok)
}

func TestRepairValidInputUntouched(t *testing.T) {
	valid := `{"rating": 4.2, "price": "₹592"}`
	assert.Equal(t, valid, Repair(valid))
	assert.Equal(t, valid, Repair(Repair(valid)))
}

func TestRepairLeavesCommasInsideStrings(t *testing.T) {
	cases := []string{
		`{"review": "good, but pricey,]"}`,
		`{"review": "escaped \" quote, }"}`,
		`{"price": "₹1,302"}`,
	}
	for _, in := range cases {
		assert.Equal(t, in, Repair(in))
	}
}

func TestRepairTruncation(t *testing.T) {
	cases := map[string]string{
		`{"rating": 4.2,`:                   `{"rating": 4.2}`,
		`{"a": {"b": 1}`:                    `{"a": {"b": 1}}`,
		`{"rating": 4.2, "price": "₹592",}`: `{"rating": 4.2, "price": "₹592"}`,
		`{"items": [1, 2,]}`:                `{"items": [1, 2]}`,
	}
	for in, want := range cases {
		got := Repair(in)
		assert.Equal(t, want, got)
		assert.True(t, json.Valid([]byte(got)), "repair output must be valid JSON: %s", got)
	}
}

func TestBuildResultCoercions(t *testing.T) {
	out := `{
		"rating": "4.3★",
		"ratings_count": "3,34,015",
		"reviews_count": "7 624",
		"review": ["Great phone", "Fast delivery"],
		"price": "₹592",
		"product_name": 42,
		"source": "ocr"
	}`
	requested := []string{"rating", "ratings_count", "reviews_count", "review", "price", "product_name"}

	r := BuildResult(out, Options{Fields: requested, Source: constants.SourceOCR})

	assert.Equal(t, 4.3, r.Fields["rating"])
	assert.Equal(t, 334015, r.Fields["ratings_count"])
	assert.Equal(t, 7624, r.Fields["reviews_count"])
	assert.Equal(t, "Great phone Fast delivery", r.Fields["review"])
	assert.Equal(t, "₹592", r.Fields["price"])
	assert.Equal(t, "42", r.Fields["product_name"])
	assert.Empty(t, r.Error)
}

func TestBuildResultRejectsOutOfRangeRating(t *testing.T) {
	r := BuildResult(`{"rating": 7}`, Options{Fields: []string{"rating"}, Source: constants.SourceOCR})
	assert.Nil(t, r.Fields["rating"])
}

func TestBuildResultKeyCompleteness(t *testing.T) {
	requested := []string{"rating", "price", "mrp", "availability"}
	r := BuildResult(`{"rating": 4.1}`, Options{Fields: requested, Source: constants.SourceDOM})

	for _, name := range requested {
		_, present := r.Fields[name]
		assert.True(t, present, "missing key %s", name)
	}
	assert.Equal(t, 4.1, r.Fields["rating"])
	assert.Nil(t, r.Fields["price"])
}

func TestBuildResultFallbackSubstitution(t *testing.T) {
	rating := 4.2
	count := 282519
	r := BuildResult(`{"rating": null, "ratings_count": null, "price": "₹592"}`, Options{
		Fields:    []string{"rating", "ratings_count", "price"},
		Source:    constants.SourceOCR,
		Fallbacks: fallback.Candidates{Rating: &rating, RatingsCount: &count},
	})

	assert.Equal(t, 4.2, r.Fields["rating"])
	assert.Equal(t, 282519, r.Fields["ratings_count"])
	assert.Equal(t, "₹592", r.Fields["price"])
	assert.Empty(t, r.Note)
}

func TestBuildResultUnparsableWithFallbacks(t *testing.T) {
	rating := 4.0
	r := BuildResult("no json here at all", Options{
		Fields:    []string{"rating", "price"},
		Source:    constants.SourceOCR,
		Fallbacks: fallback.Candidates{Rating: &rating},
	})

	assert.Equal(t, 4.0, r.Fields["rating"])
	assert.Nil(t, r.Fields["price"])
	assert.Equal(t, fallbackNote, r.Note)
	assert.Empty(t, r.Error)
}

func TestBuildResultUnparsableWithoutFallbacks(t *testing.T) {
	r := BuildResult("no json here at all", Options{
		Fields: []string{"rating", "price"},
		Source: constants.SourceOCR,
	})

	assert.Nil(t, r.Fields["rating"])
	assert.Nil(t, r.Fields["price"])
	assert.Equal(t, ErrCouldNotParse, r.Error)
}

func TestBuildResultRepairsTruncatedModelOutput(t *testing.T) {
	out := `{"rating": 4.5, "price": "₹1,299",`
	r := BuildResult(out, Options{Fields: []string{"rating", "price"}, Source: constants.SourceOCR})

	assert.Equal(t, 4.5, r.Fields["rating"])
	assert.Equal(t, "₹1,299", r.Fields["price"])
	assert.Empty(t, r.Error)
}

func TestResultMarshalFlattens(t *testing.T) {
	r := Result{
		Fields: map[string]any{"rating": 4.2, "price": nil},
		Source: constants.SourceOCR,
		URL:    "https://example.com/p/1",
		Note:   "a note",
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 4.2, got["rating"])
	assert.Contains(t, got, "price")
	assert.Nil(t, got["price"])
	assert.Equal(t, "ocr", got["source"])
	assert.Equal(t, "https://example.com/p/1", got["url"])
	assert.Equal(t, "a note", got["note"])
	assert.NotContains(t, got, "error")
}
