// Package prompt compiles extraction instructions for the model from a
// requested field set. The compiled template carries an input placeholder
// that is substituted last so the page text is never embedded twice or
// truncated.
package prompt

import (
	"fmt"
	"strings"

	"github.com/bazaarlens/bazaarlens/constants"
	"github.com/bazaarlens/bazaarlens/internal/fields"
)

// InputPlaceholder marks where the page text goes in a compiled template.
const InputPlaceholder = "{input_text}"

// Prompt is a compiled instruction template for one field set.
type Prompt struct {
	Fields   []string
	Template string
}

// Fill substitutes the extracted page text into the template. The text is
// inserted whole; callers must not truncate it.
func (p Prompt) Fill(inputText string) string {
	return strings.Replace(p.Template, InputPlaceholder, inputText, 1)
}

// Compile builds the instruction template for the given canonical field
// names. Predefined fields contribute their registry rules verbatim; custom
// fields get generic locate-and-read-until-next-section rules. There is no
// limit on the number of fields.
func Compile(names []string) Prompt {
	if len(names) == 0 {
		names = append([]string{}, constants.DefaultFields...)
	}

	var rules strings.Builder
	for i, name := range names {
		if def, ok := fields.Lookup(name); ok {
			fmt.Fprintf(&rules, "\n%d. %s (%s):\n", i+1, strings.Replace(def.Description, "Product ", "", 1), name)
			for _, rule := range def.Rules {
				fmt.Fprintf(&rules, "   %s\n", rule)
			}
		} else {
			writeCustomFieldRules(&rules, i+1, name)
		}
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\nEXTRACTION RULES (read LINE BY LINE, handle OCR errors):")
	b.WriteString(rules.String())
	b.WriteString("\nOUTPUT JSON:\n")
	b.WriteString(outputSchema(names))
	b.WriteString("\n")
	b.WriteString(outputRequirements)
	b.WriteString(specialHandling)
	b.WriteString(examplesFor(names))
	b.WriteString("\nNow extract from this FULL text (read LINE BY LINE exactly as shown, may have OCR errors):\n")
	b.WriteString(InputPlaceholder)
	b.WriteString("\n")

	return Prompt{Fields: names, Template: b.String()}
}

// outputSchema renders the JSON object shape the model must emit, with a
// typed placeholder per field and a fixed source key.
func outputSchema(names []string) string {
	parts := make([]string, 0, len(names)+1)
	for _, name := range names {
		if fields.IsPredefined(name) {
			switch fields.TypeOf(name) {
			case constants.Decimal:
				parts = append(parts, fmt.Sprintf("%q: <decimal_or_null>", name))
			case constants.Integer:
				parts = append(parts, fmt.Sprintf("%q: <integer_or_null>", name))
			default:
				parts = append(parts, fmt.Sprintf("%q: \"<text_or_null>\"", name))
			}
		} else {
			parts = append(parts, fmt.Sprintf("%q: \"<value_or_null>\"", name))
		}
	}
	return "{" + strings.Join(parts, ", ") + `, "source": "ocr"}`
}

// writeCustomFieldRules emits the generic extraction block for a field that
// is not in the registry: surface-form variants to search for, and the
// read-until-next-section stop condition.
func writeCustomFieldRules(b *strings.Builder, index int, name string) {
	display := strings.TrimSpace(strings.NewReplacer("_", " ", ".", " ").Replace(name))
	noSpaces := strings.ReplaceAll(display, " ", "")
	dashed := strings.ReplaceAll(display, " ", "-")
	underscored := strings.ReplaceAll(name, "-", "_")
	parts := strings.Fields(display)

	fmt.Fprintf(b, "\n%d. Extract %s (%s):\n", index, display, name)
	fmt.Fprintf(b, "   - Search the ENTIRE text thoroughly for '%s' (with space) or '%s' (without space)\n", display, name)
	fmt.Fprintf(b, "   - Also search for variations: '%s', '%s', '%s'\n", dashed, noSpaces, underscored)
	fmt.Fprintf(b, "   - IMPORTANT: OCR may join words together - search for '%s' (no space) too\n", noSpaces)
	if len(parts) > 1 {
		fmt.Fprintf(b, "   - For '%s', also search for each word separately: %s appearing near each other\n",
			display, quoteJoin(parts, " and "))
	}
	fmt.Fprintf(b, "   - CRITICAL: Read the text LINE BY LINE - if you see '%s' (or variations) on line N:\n", display)
	b.WriteString("     * Start extracting from line N (same line) OR the next lines (N+1, N+2, N+3)\n")
	fmt.Fprintf(b, "     * Extract ALL content/data related to '%s' by reading line by line\n", display)
	b.WriteString("     * KEEP READING and extracting until you see a DIFFERENT field/title/section header\n")
	b.WriteString("       (like 'Delivery Option', 'Brand', 'Price', 'ADD TO BAG', etc.)\n")
	fmt.Fprintf(b, "     * Extract EVERYTHING under '%s' until the next section/title appears\n", display)
	b.WriteString("   - Look for patterns like:\n")
	fmt.Fprintf(b, "     * '%s: VALUE' (e.g., 'Operating System: Android 15')\n", display)
	fmt.Fprintf(b, "     * '%s VALUE' or '%s - VALUE'\n", display, display)
	fmt.Fprintf(b, "     * '%s' on one line, then multiple lines of values/content\n", display)
	fmt.Fprintf(b, "     * '%s' (no space) followed by values on same or next line\n", noSpaces)
	b.WriteString("   - For UI elements like buttons/dropdowns (e.g., 'SELECT SIZE'):\n")
	b.WriteString("     * Size options appear as single letters 'S', 'M', 'L' or combinations 'XL', 'XXL', 'XXXL'\n")
	fmt.Fprintf(b, "     * Sizes might be on the SAME line as '%s' OR on the NEXT 1-5 lines\n", display)
	b.WriteString("     * Extract COMPLETE data - don't stop at first item, extract ALL items until next section\n")
	b.WriteString("   - Handle OCR errors where spaces might be missing or added\n")
	b.WriteString("   - Look in: product specifications, details section, 'About this item', description, features, UI buttons, dropdowns, anywhere\n")
	fmt.Fprintf(b, "   - MOST IMPORTANT: Extract ALL content under '%s' until you hit another field/title\n", display)
	b.WriteString("   - Extract FULL value even if it's long (like offers, descriptions) - don't truncate\n")
	b.WriteString("   - NO LIMIT on value length - extract complete information - do NOT stop in middle\n")
	b.WriteString("   - Return this field in JSON output - do NOT skip any custom fields\n")
	fmt.Fprintf(b, "   - If you find '%s' but the next line immediately has another field/title, return null\n", display)
}

func quoteJoin(parts []string, sep string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "'" + p + "'"
	}
	return strings.Join(quoted, sep)
}

const header = `Extract the following information from the FULL extracted text (may contain OCR errors).

CRITICAL INSTRUCTIONS - READ LINE BY LINE:
1. The text below is extracted LINE BY LINE from a screenshot - read it EXACTLY as it appears
2. Read each line sequentially from top to bottom, DO NOT skip any lines
3. IMPORTANT: There is NO LIMIT on the number of fields to extract - extract ALL requested fields
4. For EACH field (including all custom fields), scan through ALL lines one by one
5. CRITICAL: When you find a field name (e.g., "SELECT SIZE"), extract ALL content/data under that field
6. Keep reading line by line after finding the field name and extract EVERYTHING until you see:
   - A DIFFERENT field/title/section header (like "Delivery Option", "Brand", "Price", etc.)
   - A new major section that is clearly NOT part of the current field
7. Examples:
   - "SELECT SIZE" on line 50, then "S S S M L XL XXL" on line 51, then "Delivery Option" on line 52
     -> Extract "S S S M L XL XXL" (all sizes, stop at "Delivery Option" which is next section)
   - "Available offers:" on line 50, then multiple lines of offers, then "Brand:" on line 60
     -> Extract ALL offers from line 50 to line 59, stop at "Brand:" which is next section
8. Look for patterns like:
   - Line N: "Operating System: Android 15"  -> Extract "Android 15"
   - Line N: "SELECT SIZE" followed by Line N+1: "S S S M L XL XXL" -> Extract "S S S M L XL XXL"
   - Line N: "Brand Nothing"  -> Extract "Nothing"
9. Read line by line - if a field name appears on line 50, extract from line 50 onwards until next section
10. Extract the COMPLETE value/content - extract ALL items/options until next section/title appears
11. Check specifications sections, "About this item", product details, offers section - READ LINE BY LINE
12. Extract ALL custom fields - there is NO limit on how many custom attributes you can extract
`

const outputRequirements = `
CRITICAL OUTPUT REQUIREMENTS:
- You MUST return ALL requested fields in the JSON output - NO fields should be missing
- There is ABSOLUTELY NO LIMIT on the number of custom fields - extract ALL of them
- If 10 custom fields are requested, return all 10. If 100 are requested, return all 100.
- Each custom field must have its entry in the JSON: "field_name": "value" or "field_name": null
- MOST CRITICAL: For each field, extract ALL content/data until you see another field/title/section
- Do NOT stop extracting in the middle - extract EVERYTHING under the field until the next section starts
- If field value spans multiple lines, read ALL lines and extract everything until next section/title
- Do NOT stop at first period, semicolon, or first item - keep reading until you hit another section/title
`

const specialHandling = `
SPECIAL HANDLING - LINE BY LINE READING:
- Read the text EXACTLY as it appears line by line from the screenshot
- CRITICAL: Read ALL numerical values EXACTLY as they appear - NO MISTAKES in numbers
- MOST IMPORTANT FOR PRICE/MRP: Count digits carefully - if you see "₹592", it has EXACTLY 3 digits (5, 9, 2). Do NOT read it as "₹202" or "₹442".
- CRITICAL FOR MRP: MRP is the STRUCK-THROUGH price NEAR the current price - NOT from ratings section. If you see "2,82,519 ratings", that number is NOT MRP - ignore it!
- OCR text may have errors: numbers may be split by spaces
  * "5 9 2" should be read as "592" (remove spaces between digits)
  * "1 3 0 2" should be read as "1302" or "1,302" (remove spaces, keep comma if present)
  * "4 3" should be read as "4.3" (if decimal context) or "43" (if rating like 4 stars)
  * "7624" might appear as "7 624" or "76 24" - read it as EXACTLY "7624"
- OCR may MISREAD digits: verify each digit ONE BY ONE before returning
- Handle commas in numbers: "1,302" = keep as "1,302" or "1302" (both valid)
- For decimal numbers: "4.0" or "4.3" - read exactly as shown, not "40" or "43"
- For price and MRP: If a price is struck-through (crossed out), it is MRP, NOT the current price
- Current price is the one that is NOT struck-through. Struck-through price = MRP.
- DOUBLE CHECK: After extracting price/MRP, verify the digits match what you see in the text
- Field values appear on the SAME LINE as the field name OR on the NEXT LINES until another section/title appears
- For multi-word fields: "Operating System" might appear as "OperatingSystem" or "Operating  System"
- Common patterns (read line by line):
  * Line: "Brand: Nothing" -> Extract "Nothing"
  * Line: "Brand" followed by next line: "Nothing" -> Extract "Nothing"
  * Price: If "₹592" (normal) and "₹1,302" (struck-through) -> price="₹592", mrp="₹1,302"
  * Numbers: "26 Ratings" -> exactly "26" (for ratings_count), "4 stars" -> exactly "4" or "4.0" (for rating)
- Read through ALL lines systematically - don't jump around
- If a field name appears but the next line immediately has another field/title, return null
- DOUBLE CHECK all numbers before returning - one digit mistake is not acceptable!
`
