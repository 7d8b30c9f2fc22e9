package capture

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-rod/rod"
)

// Flipkart renders the rating in an obfuscated class; the attribute probes
// cover the structured-data and accessibility fallbacks other sites use.
var flipkartRatingSelectors = []string{
	`[class*="XQDdHH"]`,
	`[class*="Rating"]`,
	`[class*="rating"]`,
	`[itemprop="ratingValue"]`,
	`[aria-label*="rating"]`,
	`[aria-label*="Rating"]`,
}

var genericRatingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:out\s+of\s+5|stars?|★|⭐)`),
	regexp.MustCompile(`(\d+\.?\d*)\s*/\s*5`),
}

var decimalToken = regexp.MustCompile(`(\d+\.?\d*)`)

// RatingFromPage probes the live page for a star rating. Selector probes
// run only on Flipkart URLs; everything else falls back to text patterns.
// Returns the rating as text, or empty when nothing plausible matched.
func RatingFromPage(page *rod.Page) string {
	info, err := page.Info()
	if err != nil {
		return ""
	}

	if strings.Contains(strings.ToLower(info.URL), "flipkart") {
		if r := ratingFromSelectors(page); r != "" {
			return r
		}
	}

	text, err := page.Eval(`() => document.body.innerText`)
	if err != nil {
		return ""
	}
	return RatingFromText(text.Value.Str())
}

func ratingFromSelectors(page *rod.Page) string {
	for _, selector := range flipkartRatingSelectors {
		elements, err := page.Elements(selector)
		if err != nil {
			continue
		}
		for i, elem := range elements {
			if i >= 5 {
				break
			}
			text, err := elem.Text()
			if err != nil || text == "" {
				if label, aerr := elem.Attribute("aria-label"); aerr == nil && label != nil {
					text = *label
				}
			}
			if r := firstRatingToken(text); r != "" {
				return r
			}
		}
	}
	return ""
}

// RatingFromText scans visible page text for a star-rating mention.
func RatingFromText(text string) string {
	for _, re := range genericRatingPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 5 {
				return m[1]
			}
		}
	}
	return ""
}

func firstRatingToken(text string) string {
	m := decimalToken.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 5 {
		return ""
	}
	return m[1]
}
