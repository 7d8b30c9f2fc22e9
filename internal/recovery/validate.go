package recovery

import (
	"encoding/json"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bazaarlens/bazaarlens/constants"
	"github.com/bazaarlens/bazaarlens/internal/fallback"
	"github.com/bazaarlens/bazaarlens/internal/fields"
)

// ErrCouldNotParse is the user-visible error when no JSON survives repair.
const ErrCouldNotParse = "Could not parse model output"

const fallbackNote = "Extracted using regex fallback (API parsing failed)"

// Options carry the context a model response is validated against.
type Options struct {
	Fields    []string
	Source    constants.Source
	FullText  string
	Fallbacks fallback.Candidates
	Logger    *slog.Logger
}

var (
	firstDecimal  = regexp.MustCompile(`(\d+\.?\d*)`)
	firstDigitRun = regexp.MustCompile(`(\d+)`)
	currencyJunk  = regexp.MustCompile(`[₹$]|Rs\.?|[\s,]`)
	nonNumeric    = regexp.MustCompile(`[^\d.]`)
)

// BuildResult converts raw model output into a complete Result. Parse
// failure degrades to fallback-derived values, then to all-null with an
// error; the requested key set is preserved on every path.
func BuildResult(modelOutput string, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	parsed, ok := parseModelJSON(modelOutput)
	if !ok {
		logger.Warn("recovery.parse.failed", "output_chars", len(modelOutput))
		return fallbackResult(opts)
	}

	schema := fields.BuildResultSchema(opts.Fields)
	if err := fields.ValidateAgainstSchema(parsed, schema); err != nil {
		// Advisory only: coercion below straightens out what it can.
		logger.Warn("recovery.schema.mismatch", "error", err)
	}

	result := Result{
		Fields: make(map[string]any, len(opts.Fields)),
		Source: opts.Source,
	}
	for _, name := range opts.Fields {
		raw, present := parsed[name]
		if !present {
			result.Fields[name] = nil
			continue
		}
		result.Fields[name] = coerce(name, raw, logger)
	}

	crossCheckPrices(result.Fields, opts.FullText, logger)
	substituteFallbacks(result.Fields, opts)
	return result
}

// parseModelJSON runs extraction and repair, then decodes.
func parseModelJSON(modelOutput string) (map[string]any, bool) {
	candidate, ok := ExtractJSON(modelOutput)
	if !ok {
		return nil, false
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(Repair(candidate)), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// coerce converts one raw model value to the field's declared type.
func coerce(name string, raw any, logger *slog.Logger) any {
	if raw == nil {
		return nil
	}

	switch fields.TypeOf(name) {
	case constants.Decimal:
		return coerceDecimal(raw)
	case constants.Integer:
		return coerceInteger(raw)
	default:
		return coerceString(name, raw, logger)
	}
}

// coerceDecimal extracts the first decimal substring and rejects values
// outside [0,5]. Out-of-range ratings are dropped, never rescaled.
func coerceDecimal(raw any) any {
	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case string:
		m := firstDecimal.FindStringSubmatch(t)
		if m == nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		v = parsed
	default:
		return nil
	}
	if v < 0 || v > 5 {
		return nil
	}
	return v
}

func coerceInteger(raw any) any {
	switch t := raw.(type) {
	case float64:
		return int(t)
	case string:
		cleaned := strings.NewReplacer(",", "", " ", "", ".", "").Replace(t)
		m := firstDigitRun.FindStringSubmatch(cleaned)
		if m == nil {
			return nil
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		return n
	default:
		return nil
	}
}

// coerceString flattens arrays to a space-joined string and stringifies
// scalars. Long values stay whole; only a truncation heuristic is logged.
func coerceString(name string, raw any, logger *slog.Logger) any {
	switch t := raw.(type) {
	case string:
		if t == "" {
			return nil
		}
		if len(t) > 100 && !endsLikeSentence(t) {
			logger.Warn("recovery.value.maybe_truncated", "field", name, "tail", tail(t, 50))
		}
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			parts = append(parts, stringify(item))
		}
		if len(parts) == 0 {
			return nil
		}
		return strings.Join(parts, " ")
	case float64:
		return stringify(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return nil
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func endsLikeSentence(s string) bool {
	trimmed := strings.TrimRight(s, " \t")
	for _, suffix := range []string{".", "!", "?", ";", "T&C"} {
		if strings.HasSuffix(trimmed, suffix) {
			return true
		}
	}
	return false
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// crossCheckPrices runs the advisory MRP/price sanity checks. Suspect
// values are logged and returned anyway; a best guess with a warning beats
// refusing to answer.
func crossCheckPrices(values map[string]any, fullText string, logger *slog.Logger) {
	price, priceOK := numericValue(values["price"])
	mrp, mrpOK := numericValue(values["mrp"])

	if priceOK && mrpOK && mrp < price {
		logger.Warn("recovery.crosscheck.mrp_below_price", "price", price, "mrp", mrp)
	}
	if !mrpOK {
		return
	}
	if mrp > 10000 {
		logger.Warn("recovery.crosscheck.mrp_unusually_high", "mrp", mrp)
	}
	if c := fallback.Extract(fullText).RatingsCount; c != nil {
		if math.Abs(mrp-float64(*c)) < 1000 {
			logger.Warn("recovery.crosscheck.mrp_near_ratings_count", "mrp", mrp, "ratings_count", *c)
		}
	}
}

// numericValue strips currency symbols and grouping from a price-like value.
func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		cleaned := nonNumeric.ReplaceAllString(currencyJunk.ReplaceAllString(t, ""), "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// substituteFallbacks fills null rating/count fields from regex candidates.
func substituteFallbacks(values map[string]any, opts Options) {
	fill := func(name string, candidate any, present bool) {
		if _, requested := values[name]; requested && values[name] == nil && present {
			values[name] = candidate
		}
	}
	if opts.Fallbacks.Rating != nil {
		fill("rating", *opts.Fallbacks.Rating, true)
	}
	if opts.Fallbacks.RatingsCount != nil {
		fill("ratings_count", *opts.Fallbacks.RatingsCount, true)
	}
	if opts.Fallbacks.ReviewsCount != nil {
		fill("reviews_count", *opts.Fallbacks.ReviewsCount, true)
	}
}

// fallbackResult is the path when no JSON could be recovered: regex
// candidates when any exist, otherwise all nulls with a parse error.
func fallbackResult(opts Options) Result {
	result := NullResult(opts.Fields, opts.Source, "")
	substituteFallbacks(result.Fields, opts)

	for _, v := range result.Fields {
		if v != nil {
			result.Note = fallbackNote
			return result
		}
	}
	result.Error = ErrCouldNotParse
	return result
}
