// Package field extracts typed values from untrusted request fields.
//
// Three binders share one validation algorithm and differ only in their
// source: JSON bodies (JSON), multipart forms (Multipart) and query
// parameters (Query). A binder is created once per request; it parses its
// source once and can then be asked for any number of fields:
//
//	body := field.JSON(r)
//	name, err := body.String("name")
//	size, err := body.Int("size", field.OneOf(1, 2, 3))
//	tags, err := body.Array("tags", field.AllowEmpty(true))
//
// Violations are returned as *apierr.Error values from the taxonomy:
// FIELD_MISSING, WRONG_FIELD_TYPE, INVALID_FIELD_VALUE, NOT_ACCEPTABLE and
// TOO_MANY_FIELDS. Misuse of the API itself (asking a query parameter for an
// object, combining Array with OneOf on a form) fails with ErrContract.
package field

import (
	"fmt"
	"mime/multipart"
)

// Kind is the type a field is required to have.
type Kind int

const (
	// Any accepts every JSON value.
	Any Kind = iota
	String
	// Integer is an int64. Larger JSON literals are rejected.
	Integer
	Float
	Boolean
	// Object is a JSON object (map[string]any).
	Object
	// Array is a JSON array ([]any) or a repeated form field ([]string).
	Array
	// Binary is an uploaded file (*multipart.FileHeader).
	Binary
)

var kindNames = [...]string{
	Any:     "any",
	String:  "string",
	Integer: "integer",
	Float:   "float",
	Boolean: "boolean",
	Object:  "object",
	Array:   "array",
	Binary:  "binary",
}

// String returns the canonical name used in error details.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// holds reports whether v is a value of kind k.
func (k Kind) holds(v any) bool {
	switch k {
	case Any:
		return true
	case String:
		_, ok := v.(string)
		return ok
	case Integer:
		_, ok := v.(int64)
		return ok
	case Float:
		_, ok := v.(float64)
		return ok
	case Boolean:
		_, ok := v.(bool)
		return ok
	case Object:
		_, ok := v.(map[string]any)
		return ok
	case Array:
		switch v.(type) {
		case []any, []string:
			return true
		}
		return false
	case Binary:
		_, ok := v.(*multipart.FileHeader)
		return ok
	}
	return false
}

// isEmpty reports whether v counts as missing for kind k: nil always does;
// "", [] and {} do when they are values of k. Zero and false never do.
func isEmpty(v any, k Kind) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == "" && k.holds(x)
	case []any:
		return len(x) == 0 && k.holds(x)
	case []string:
		return len(x) == 0 && k.holds(x)
	case map[string]any:
		return len(x) == 0 && k.holds(x)
	}
	return false
}
