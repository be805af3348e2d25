package document

import "encoding/json"

// Document is a named JSON payload served as-is. The body is kept as raw
// bytes so any JSON value (object, array, scalar, null) passes through untouched.
type Document struct {
	Name string          `json:"name"`
	Body json.RawMessage `json:"body"`
}
