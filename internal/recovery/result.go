package recovery

import (
	"encoding/json"

	"github.com/bazaarlens/bazaarlens/constants"
)

// Result is the extraction outcome for one request. Every requested field
// appears in Fields, null or not; that key-completeness is a hard invariant
// regardless of how the model behaved.
type Result struct {
	Fields map[string]any
	Source constants.Source
	URL    string
	Error  string
	Note   string
}

// MarshalJSON flattens the result into a single object: one key per field
// plus source and the optional url/error/note keys.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+4)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["source"] = string(r.Source)
	if r.URL != "" {
		out["url"] = r.URL
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.Note != "" {
		out["note"] = r.Note
	}
	return json.Marshal(out)
}

// NullResult returns a result with every requested field null.
func NullResult(requested []string, source constants.Source, errMsg string) Result {
	fields := make(map[string]any, len(requested))
	for _, f := range requested {
		fields[f] = nil
	}
	return Result{Fields: fields, Source: source, Error: errMsg}
}
