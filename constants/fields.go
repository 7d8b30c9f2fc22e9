package constants

// FieldType describes how an extracted field value is coerced.
type FieldType string

const (
	Decimal FieldType = "decimal"
	Integer FieldType = "integer"
	String  FieldType = "string"
)

// Source identifies where the text fed into extraction came from.
type Source string

const (
	SourceDOM     Source = "dom"
	SourceOCR     Source = "ocr"
	SourceUpload  Source = "upload"
	SourceUnknown Source = "unknown"
)

// Default fields when a request does not name any.
var DefaultFields = []string{"rating", "review"}
