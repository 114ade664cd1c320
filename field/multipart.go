package field

import (
	"errors"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"

	"github.com/blackwell-systems/apierr"
)

const (
	// DefaultMaxMemory is the part of a multipart body kept in memory; the
	// rest of the file parts go to temporary files.
	DefaultMaxMemory = 32 << 20
	// DefaultMaxFields caps the number of values and files in one form.
	DefaultMaxFields = 1000
)

// FormOption configures Multipart.
type FormOption func(*formConfig)

type formConfig struct {
	maxMemory int64
	maxFields int
}

// MaxMemory sets the in-memory budget passed to ParseMultipartForm.
func MaxMemory(n int64) FormOption {
	return func(c *formConfig) { c.maxMemory = n }
}

// MaxFields sets the number of values and files above which the form is
// rejected with TOO_MANY_FIELDS.
func MaxFields(n int) FormOption {
	return func(c *formConfig) { c.maxFields = n }
}

// Form extracts fields from a multipart/form-data body.
type Form struct {
	accessor
	form *multipart.Form
	err  error
}

// Multipart binds r's multipart body. A form already parsed on r is reused.
// When the binder cache is attached, the first call parses the body with its
// options and later calls return that Form; their options are ignored.
func Multipart(r *http.Request, opts ...FormOption) *Form {
	if c := cacheFrom(r); c != nil && c.form != nil {
		return c.form
	}
	cfg := formConfig{maxMemory: DefaultMaxMemory, maxFields: DefaultMaxFields}
	for _, opt := range opts {
		opt(&cfg)
	}
	f := &Form{}
	f.accessor = accessor{b: f}
	f.form, f.err = parseMultipart(r, cfg)
	if c := cacheFrom(r); c != nil {
		c.form = f
	}
	return f
}

// Err returns the source error, if the body could not be parsed.
func (f *Form) Err() error { return f.err }

// Value extracts name. AllowEmpty defaults to false and Any means Binary.
//
// Supported kinds are Integer, String, Array (all values of a repeated
// field, as []string), Float and Binary (*multipart.FileHeader). Array and
// Binary values skip conversion and allowed-value checks; combining Array
// with OneOf is a contract error.
func (f *Form) Value(name string, kind Kind, opts ...Option) (any, error) {
	if kind == Any {
		kind = Binary
	}
	c := newContract(kind, false, opts)
	switch kind {
	case Integer, String, Array, Float, Binary:
	default:
		return nil, contractErr("%s is not supported in multipart forms", kind)
	}
	if kind == Array && len(c.Allowed) > 0 {
		return nil, contractErr("cannot restrict values of %s field %q", kind, name)
	}
	if f.err != nil {
		return nil, f.err
	}

	var v any
	switch kind {
	case Binary:
		if files := f.form.File[name]; len(files) > 0 {
			v = files[0]
		}
	case Array:
		if vals := f.form.Value[name]; len(vals) > 0 {
			v = slices.Clone(vals)
		}
	default:
		if raw := lastValue(f.form.Value[name]); raw != "" {
			v = raw
		}
	}

	if v == nil {
		if c.AllowEmpty {
			return c.Default, nil
		}
		return nil, apierr.FieldMissing.Errorf("Field %q is missing", name)
	}
	if kind == Binary || kind == Array {
		return v, nil
	}

	raw := v.(string)
	switch kind {
	case Integer:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, wrongType(name, kind)
		}
		v = i
	case Float:
		fl, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, wrongType(name, kind)
		}
		v = fl
	}
	if len(c.Allowed) > 0 && !contains(c.Allowed, v) {
		return nil, apierr.InvalidFieldValue.Errorf("Value of field %q should be one of [%s]", name, joinValues(c.Allowed))
	}
	return v, nil
}

func parseMultipart(r *http.Request, cfg formConfig) (*multipart.Form, error) {
	if contentType(r) != "multipart/form-data" {
		return nil, apierr.NotAcceptable.WithDetail("Content-Type must be multipart/form-data")
	}
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(cfg.maxMemory); err != nil {
			if errors.Is(err, multipart.ErrMessageTooLarge) {
				return nil, apierr.TooManyFields.WithDetail("Request body has too many parts").WithCause(err)
			}
			return nil, apierr.NotAcceptable.WithDetail("Invalid multipart body").WithCause(err)
		}
	}

	n := 0
	for _, vs := range r.MultipartForm.Value {
		n += len(vs)
	}
	for _, fs := range r.MultipartForm.File {
		n += len(fs)
	}
	if cfg.maxFields > 0 && n > cfg.maxFields {
		return nil, apierr.TooManyFields.Errorf("%d fields sent, at most %d allowed", n, cfg.maxFields)
	}
	return r.MultipartForm, nil
}
