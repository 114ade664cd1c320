package field

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/blackwell-systems/apierr"
)

// Body extracts fields from a JSON object request body.
type Body struct {
	accessor
	fields map[string]any
	// wide holds top-level integer literals outside the int64 range.
	wide map[string]bool
	err  error
}

// JSON binds r's body. The body is read and decoded once; a malformed body
// is reported by every subsequent Value call as NOT_ACCEPTABLE. The body is
// left readable for later consumers.
func JSON(r *http.Request) *Body {
	if c := cacheFrom(r); c != nil && c.body != nil {
		return c.body
	}
	b := &Body{}
	b.accessor = accessor{b: b}
	b.fields, b.wide, b.err = decodeJSON(r)
	if c := cacheFrom(r); c != nil {
		c.body = b
	}
	return b
}

// Err returns the source error, if the body could not be decoded.
func (b *Body) Err() error { return b.err }

// Fields returns the decoded object.
func (b *Body) Fields() map[string]any { return b.fields }

// Value extracts name. AllowEmpty defaults to false. Binary is not a JSON kind.
// An Integer literal that does not fit in int64 is INVALID_FIELD_VALUE.
func (b *Body) Value(name string, kind Kind, opts ...Option) (any, error) {
	if kind == Binary {
		return nil, contractErr("%s is not supported in JSON bodies", kind)
	}
	if b.err != nil {
		return nil, b.err
	}
	if kind == Integer && b.wide[name] {
		return nil, apierr.InvalidFieldValue.Errorf("Field %q is outside the 64-bit integer range", name)
	}
	return check(name, b.fields[name], newContract(kind, false, opts))
}

func decodeJSON(r *http.Request) (fields map[string]any, wide map[string]bool, err error) {
	if contentType(r) != "application/json" {
		return nil, nil, apierr.NotAcceptable.WithDetail("Content-Type must be application/json")
	}
	var raw []byte
	if r.Body != nil {
		raw, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, nil, apierr.NotAcceptable.WithDetail("Cannot read request body").WithCause(err)
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
	}
	if len(raw) == 0 {
		return map[string]any{}, nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, nil, apierr.NotAcceptable.WithDetail("Invalid json object").WithCause(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, apierr.NotAcceptable.WithDetail("Invalid json object")
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, nil, apierr.NotAcceptable.WithDetail("Request body must be a valid json object")
	}
	for k, v := range obj {
		if n, ok := v.(json.Number); ok && isIntLiteral(n) {
			if _, err := n.Int64(); err != nil {
				if wide == nil {
					wide = make(map[string]bool)
				}
				wide[k] = true
			}
		}
	}
	return normalizeNumbers(obj).(map[string]any), wide, nil
}

// normalizeNumbers replaces json.Number with int64 for integer literals and
// float64 for literals with a fraction or exponent or outside the int64 range.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if isIntLiteral(x) {
			if i, err := x.Int64(); err == nil {
				return i
			}
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNumbers(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalizeNumbers(e)
		}
		return x
	}
	return v
}

func isIntLiteral(n json.Number) bool {
	return !strings.ContainsAny(n.String(), ".eE")
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mt
}
