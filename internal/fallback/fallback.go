// Package fallback pulls rating and count candidates out of page text with
// regular expressions. The candidates backstop model extraction: they fill
// nulls when the model misses a value and carry the whole result when the
// model output cannot be parsed at all.
package fallback

import (
	"regexp"
	"strconv"
	"strings"
)

// Candidates are values recovered without the model. Nil means not found.
type Candidates struct {
	Rating       *float64
	RatingsCount *int
	ReviewsCount *int
}

// Rating patterns in priority order. Star glyphs and "out of 5" anchor the
// high-confidence cases; the trailing patterns lean on a ratings count for
// context when no glyph survived OCR.
var ratingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:out\s+of\s+5|stars?|★|⭐|☆)`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:★|⭐|☆)`),
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:ou\s+or|out\s+of)\s*5`),
	regexp.MustCompile(`(?i)(\d+)\s*\.\s*(\d+)\s*(?:stars?|★|⭐)`),
	regexp.MustCompile(`(?i)\b([0-5])\s*(?:★|⭐|☆)`),
	regexp.MustCompile(`(?i)\b([0-5](?:\.\d)?)\s*\n?\s*\d{2,}\s*Ratings`),
	regexp.MustCompile(`(?i)\b([0-5])\s+\d{3,}\s*Ratings`),
}

var (
	ratingOnRatingsLine = regexp.MustCompile(`(?i)\b([0-5](?:\.\d)?)\s*.*?(\d{3,})\s*Ratings`)
	ratingAfterParen    = regexp.MustCompile(`(?i)\)\s*([0-5](?:\.\d)?)\s*\n\s*(\d{3,})\s*Ratings`)
	numberToken         = regexp.MustCompile(`\d+(?:\.\d+)?`)
	ratingsSuffixForNum = regexp.MustCompile(`(?i)^\s*ratings?`)
)

// Count patterns: Indian digit grouping first ("3,34,015"), then Western,
// then plain runs. "rat(?:in|ir)?g?s?" tolerates the common OCR misreads
// of the word ratings.
var ratingsCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d{1,2}(?:[,.]\d{2})*(?:[,.]\d{3})*)\s*rat(?:in|ir)?g?s?\b`),
	regexp.MustCompile(`(?i)(\d{1,3}(?:[,.]\d{3})*)\s*rat(?:in|ir)?g?s?\b`),
	regexp.MustCompile(`(?i)(\d{2,})\s*rat(?:in|ir)?g?s?\b`),
}

var reviewsCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d{1,2}(?:[,.]\d{2})*(?:[,.]\d{3})*)\s*reviews?\b`),
	regexp.MustCompile(`(?i)(\d{1,3}(?:[,.]\d{3})*)\s*reviews?\b`),
	regexp.MustCompile(`(?i)(\d+)\s*reviews?\b`),
}

// Extract scans text for rating, ratings count, and reviews count.
func Extract(text string) Candidates {
	return Candidates{
		Rating:       extractRating(text),
		RatingsCount: extractCount(text, ratingsCountPatterns, 2),
		ReviewsCount: extractCount(text, reviewsCountPatterns, 1),
	}
}

func extractRating(text string) *float64 {
	if v := ratingBeforeCount(text); v != nil {
		return v
	}
	if m := ratingAfterParen.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 5 {
			return &v
		}
	}
	for i, re := range ratingPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var v float64
		if i == 3 { // split decimal: whole and fractional captured separately
			whole, err1 := strconv.Atoi(m[1])
			frac, err2 := strconv.Atoi(m[2])
			if err1 == nil && err2 == nil && whole <= 5 && frac <= 9 {
				v, _ = strconv.ParseFloat(m[1]+"."+m[2], 64)
			} else {
				v, _ = strconv.ParseFloat(m[1], 64)
			}
		} else {
			v, _ = strconv.ParseFloat(m[1], 64)
		}
		// Zero is more likely an OCR artifact than a real rating.
		if v > 0 && v <= 5 {
			return &v
		}
	}

	return ratingNearRatingsLines(text)
}

// ratingBeforeCount handles a rating and its count sharing one visual line,
// e.g. "4.2 3,34,015 Ratings". The lone digit must be separated from the
// count by at least one non-numeric character so the count's own leading
// digit is never mistaken for the rating.
func ratingBeforeCount(text string) *float64 {
	for _, loc := range ratingOnRatingsLine.FindAllStringSubmatchIndex(text, -1) {
		between := text[loc[3]:loc[4]] // end of rating group to start of count group
		if isNumericRun(between) {
			continue
		}
		v, err := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
		if err == nil && v >= 0 && v <= 5 {
			return &v
		}
	}
	return nil
}

// isNumericRun reports whether s contains only digits and grouping marks,
// meaning the two captures came from a single formatted number.
func isNumericRun(s string) bool {
	for i := 0; i < len(s); i++ {
		switch {
		case isDigit(s[i]), s[i] == ',', s[i] == '.':
		default:
			return false
		}
	}
	return true
}

// ratingNearRatingsLines scans a 3-line window above each line mentioning
// ratings for a standalone 0-5 number that is not itself the count.
func ratingNearRatingsLines(text string) *float64 {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), "ratings") {
			continue
		}
		start := i - 3
		if start < 0 {
			start = 0
		}
		for _, check := range lines[start : i+1] {
			if v := standaloneSmallNumber(check); v != nil {
				return v
			}
		}
	}
	return nil
}

// standaloneSmallNumber finds the first number token in the line that is a
// plausible rating: value in [0,5], at most two decimals, not embedded in a
// longer digit run, and not immediately followed by the word ratings.
func standaloneSmallNumber(line string) *float64 {
	for _, loc := range numberToken.FindAllStringIndex(line, -1) {
		tok := line[loc[0]:loc[1]]
		if loc[0] > 0 && isDigit(line[loc[0]-1]) {
			continue
		}
		if loc[1] < len(line) && isDigit(line[loc[1]]) {
			continue
		}
		// Grouping separator ahead means the token is the head of a larger
		// number, "1" in "1,302".
		if loc[1]+1 < len(line) && (line[loc[1]] == ',' || line[loc[1]] == '.') && isDigit(line[loc[1]+1]) {
			continue
		}
		if hasCurrencyPrefix(line[:loc[0]]) {
			continue
		}
		if dot := strings.IndexByte(tok, '.'); dot >= 0 && len(tok)-dot-1 > 2 {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || v < 0 || v > 5 {
			continue
		}
		// A small number directly before "ratings" is the count, not the rating.
		if ratingsSuffixForNum.MatchString(line[loc[1]:]) {
			continue
		}
		return &v
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// hasCurrencyPrefix reports whether the text leading up to a number token
// ends in a currency marker, making the token a price.
func hasCurrencyPrefix(prefix string) bool {
	trimmed := strings.TrimRight(prefix, " \t")
	for _, marker := range []string{"₹", "$", "Rs.", "Rs", "INR"} {
		if strings.HasSuffix(trimmed, marker) {
			return true
		}
	}
	return false
}

func extractCount(text string, patterns []*regexp.Regexp, minDigits int) *int {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cleaned := strings.NewReplacer(",", "", ".", "", " ", "").Replace(m[1])
		if len(cleaned) < minDigits {
			continue
		}
		if n, err := strconv.Atoi(cleaned); err == nil {
			return &n
		}
	}
	return nil
}
