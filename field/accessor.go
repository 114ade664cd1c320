package field

import (
	"mime/multipart"
	"net/http"

	"github.com/blackwell-systems/apierr"
)

// Binder is implemented by JSON, Multipart and Query binders.
type Binder interface {
	// Value extracts name under the given kind and options. A nil value with
	// a nil error means the field was empty, allowed, and had no default.
	Value(name string, kind Kind, opts ...Option) (any, error)
}

// accessor provides typed helpers over a Binder. Each helper returns the
// zero value together with any error.
type accessor struct {
	b Binder
}

// String extracts a string field.
func (a accessor) String(name string, opts ...Option) (string, error) {
	v, err := a.b.Value(name, String, opts...)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// Int extracts an integer field.
func (a accessor) Int(name string, opts ...Option) (int64, error) {
	v, err := a.b.Value(name, Integer, opts...)
	if err != nil {
		return 0, err
	}
	i, _ := normalize(v).(int64)
	return i, nil
}

// Float extracts a float field. Integers are widened.
func (a accessor) Float(name string, opts ...Option) (float64, error) {
	v, err := a.b.Value(name, Float, opts...)
	if err != nil {
		return 0, err
	}
	f, _ := asFloat(normalize(v))
	return f, nil
}

// Bool extracts a boolean field.
func (a accessor) Bool(name string, opts ...Option) (bool, error) {
	v, err := a.b.Value(name, Boolean, opts...)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

// Object extracts a JSON object field.
func (a accessor) Object(name string, opts ...Option) (map[string]any, error) {
	v, err := a.b.Value(name, Object, opts...)
	if err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	return m, nil
}

// Array extracts a JSON array field.
func (a accessor) Array(name string, opts ...Option) ([]any, error) {
	v, err := a.b.Value(name, Array, opts...)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case []any:
		return x, nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	}
	return nil, nil
}

// Strings extracts a repeated form field.
func (a accessor) Strings(name string, opts ...Option) ([]string, error) {
	v, err := a.b.Value(name, Array, opts...)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case []string:
		return x, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, apierr.WrongFieldType.Errorf("Field %q should be an array of strings", name)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, nil
}

// File extracts an uploaded file.
func (a accessor) File(name string, opts ...Option) (*multipart.FileHeader, error) {
	v, err := a.b.Value(name, Binary, opts...)
	if err != nil {
		return nil, err
	}
	fh, _ := v.(*multipart.FileHeader)
	return fh, nil
}

// contentType returns the media type of r without parameters.
func contentType(r *http.Request) string {
	return mediaType(r.Header.Get("Content-Type"))
}
