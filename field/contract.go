package field

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/blackwell-systems/apierr"
)

// ErrContract reports a call that no request could satisfy, such as an
// unsupported kind for the binder. It is a programming error and is not part
// of the taxonomy, so it surfaces as UNKNOWN_ERROR.
var ErrContract = errors.New("field: contract violation")

// Contract is the set of rules applied to one field.
type Contract struct {
	Kind       Kind
	AllowEmpty bool
	Default    any
	Allowed    []any
}

// Option configures a Contract.
type Option func(*Contract)

// AllowEmpty controls whether a missing or empty field is accepted. When it
// is, the Default is returned and no other check runs.
func AllowEmpty(allow bool) Option {
	return func(c *Contract) { c.AllowEmpty = allow }
}

// Default sets the value returned for an accepted empty field.
func Default(v any) Option {
	return func(c *Contract) { c.Default = v }
}

// OneOf restricts the field to the given values. An empty list means no
// restriction.
func OneOf(values ...any) Option {
	return func(c *Contract) { c.Allowed = values }
}

func newContract(kind Kind, allowEmpty bool, opts []Option) Contract {
	c := Contract{Kind: kind, AllowEmpty: allowEmpty}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func contractErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContract, fmt.Sprintf(format, args...))
}

// check runs the shared algorithm on a located value: emptiness, the
// integer-to-float widening, the type check and the allowed-value check.
func check(name string, v any, c Contract) (any, error) {
	if isEmpty(v, c.Kind) {
		if !c.AllowEmpty {
			return nil, missing(name)
		}
		return c.Default, nil
	}
	if c.Kind == Float {
		if i, ok := v.(int64); ok {
			v = float64(i)
		}
	}
	if !c.Kind.holds(v) {
		return nil, wrongType(name, c.Kind)
	}
	if len(c.Allowed) > 0 && !contains(c.Allowed, v) {
		return nil, apierr.InvalidFieldValue.Errorf("Value of field %q should be one of [%s]", name, joinValues(c.Allowed))
	}
	return v, nil
}

func missing(name string) *apierr.Error {
	return apierr.FieldMissing.Errorf("Field %q is either missing or empty", name)
}

func wrongType(name string, k Kind) *apierr.Error {
	return apierr.WrongFieldType.Errorf("Field %q should be %s", name, k)
}

// contains compares numbers by value regardless of their Go type, so OneOf(1, 2)
// matches a decoded int64(1) as well as float64(1).
func contains(allowed []any, v any) bool {
	nv := normalize(v)
	for _, a := range allowed {
		na := normalize(a)
		if fa, ok := asFloat(na); ok {
			if fv, ok := asFloat(nv); ok && fa == fv {
				return true
			}
			continue
		}
		if reflect.TypeOf(na) != reflect.TypeOf(nv) {
			continue
		}
		if reflect.DeepEqual(na, nv) {
			return true
		}
	}
	return false
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
