package field

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/blackwell-systems/apierr"
)

// QueryParams extracts fields from URL query parameters.
type QueryParams struct {
	accessor
	values url.Values
}

// Query binds r's query string, parsed once.
func Query(r *http.Request) *QueryParams {
	if c := cacheFrom(r); c != nil && c.query != nil {
		return c.query
	}
	q := &QueryParams{values: r.URL.Query()}
	q.accessor = accessor{b: q}
	if c := cacheFrom(r); c != nil {
		c.query = q
	}
	return q
}

// Value extracts name. AllowEmpty defaults to true for query parameters.
//
// Only String (the raw value), Integer, Float and Boolean are supported. A
// boolean is true exactly when the raw value is "true"; every other string,
// including "True" and "1", is false.
func (q *QueryParams) Value(name string, kind Kind, opts ...Option) (any, error) {
	if kind == Any {
		kind = String
	}
	switch kind {
	case String, Integer, Float, Boolean:
	default:
		return nil, contractErr("%s is not supported in query parameters", kind)
	}
	c := newContract(kind, true, opts)
	if c.Default != nil && !defaultFits(c.Default, kind) {
		return nil, contractErr("default %v for %q is not a %s", c.Default, name, kind)
	}

	var v any
	if raw := lastValue(q.values[name]); raw != "" {
		switch kind {
		case Boolean:
			v = raw == "true"
		case Integer:
			i, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, apierr.WrongFieldType.Errorf("Field %q must be %s", name, kind)
			}
			v = i
		case Float:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, apierr.WrongFieldType.Errorf("Field %q must be %s", name, kind)
			}
			v = f
		default:
			v = raw
		}
	}

	if v == nil {
		if c.AllowEmpty {
			return c.Default, nil
		}
		return nil, missing(name)
	}
	if len(c.Allowed) > 0 && !contains(c.Allowed, v) {
		return nil, apierr.InvalidFieldValue.Errorf("Value of field %s can only be one of [%s], but %v was given",
			name, joinValues(c.Allowed), v)
	}
	return v, nil
}

func defaultFits(v any, kind Kind) bool {
	switch kind {
	case Integer:
		_, ok := normalize(v).(int64)
		return ok
	case Float:
		_, ok := asFloat(normalize(v))
		return ok
	case Boolean:
		_, ok := v.(bool)
		return ok
	default:
		_, ok := v.(string)
		return ok
	}
}

func lastValue(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}
