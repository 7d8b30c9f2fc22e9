package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRatingStarGlyph(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"decimal before star", "Panasonic\n4.3★\nsome text", 4.3},
		{"digit with spaced star", "4 ★", 4},
		{"out of five", "4.3 out of 5 stars", 4.3},
		{"ocr split phrase", "4.1 ou or 5", 4.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			require.NotNil(t, got.Rating)
			assert.Equal(t, tt.want, *got.Rating)
		})
	}
}

func TestExtractRatingNearRatingsLine(t *testing.T) {
	text := "Some Product Title\n4.2★\n2,82,519 ratings\nmore text"
	got := Extract(text)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.2, *got.Rating)
}

func TestExtractRatingRejectsOutOfRange(t *testing.T) {
	got := Extract("8 stars is not a thing here")
	assert.Nil(t, got.Rating)
}

func TestExtractRatingIgnoresCountBeforeRatings(t *testing.T) {
	// The 26 before "Ratings" is the count; no rating present.
	got := Extract("26 Ratings")
	assert.Nil(t, got.Rating)
	require.NotNil(t, got.RatingsCount)
	assert.Equal(t, 26, *got.RatingsCount)
}

func TestExtractRatingNoSignal(t *testing.T) {
	got := Extract("plain product description with no numbers of interest 9000")
	assert.Nil(t, got.Rating)
}

func TestExtractRatingsCountIndianGrouping(t *testing.T) {
	got := Extract("2,82,519 ratings")
	require.NotNil(t, got.RatingsCount)
	assert.Equal(t, 282519, *got.RatingsCount)
}

func TestExtractRatingsCountWesternGrouping(t *testing.T) {
	got := Extract("7,624 ratings and 140 reviews")
	require.NotNil(t, got.RatingsCount)
	assert.Equal(t, 7624, *got.RatingsCount)
	require.NotNil(t, got.ReviewsCount)
	assert.Equal(t, 140, *got.ReviewsCount)
}

func TestExtractRatingsCountFuzzyWord(t *testing.T) {
	// OCR often garbles "ratings" into "ratirgs".
	got := Extract("3,34,015 Ratirgs")
	require.NotNil(t, got.RatingsCount)
	assert.Equal(t, 334015, *got.RatingsCount)
}

func TestExtractRatingsCountMinTwoDigits(t *testing.T) {
	got := Extract("4 ratings")
	assert.Nil(t, got.RatingsCount)
}

func TestExtractReviewsCountSingleDigit(t *testing.T) {
	got := Extract("5 reviews")
	require.NotNil(t, got.ReviewsCount)
	assert.Equal(t, 5, *got.ReviewsCount)
}

func TestExtractFullListingBlock(t *testing.T) {
	// Typical merged OCR output with prices above the rating line.
	text := "Special price: ₹592\n₹1,302\n54% off\n4.2★\n2,82,519 ratings"
	got := Extract(text)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.2, *got.Rating)
	require.NotNil(t, got.RatingsCount)
	assert.Equal(t, 282519, *got.RatingsCount)
}

func TestExtractNothing(t *testing.T) {
	got := Extract("")
	assert.Nil(t, got.Rating)
	assert.Nil(t, got.RatingsCount)
	assert.Nil(t, got.ReviewsCount)
}
