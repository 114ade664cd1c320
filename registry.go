package apierr

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicateCode is returned when a descriptor's code is already registered.
	ErrDuplicateCode = errors.New("apierr: duplicate error code")

	// ErrUnknownCode is returned by Lookup when no descriptor has the code.
	ErrUnknownCode = errors.New("apierr: unknown error code")
)

// Descriptor is the immutable template of one error kind.
type Descriptor struct {
	Code    Code   `json:"code"`
	Name    string `json:"name"`
	Message string `json:"msg"`
	// Status is the HTTP status used when the error terminates a request.
	// Zero means DefaultStatus.
	Status int `json:"status"`
}

// DuplicateCodeError reports both descriptors sharing a code.
type DuplicateCodeError struct {
	Existing Descriptor
	Incoming Descriptor
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("apierr: both %s and %s have error code %d",
		e.Existing.Name, e.Incoming.Name, e.Incoming.Code)
}

func (e *DuplicateCodeError) Unwrap() error { return ErrDuplicateCode }

// Registry maps codes to descriptors.
//
// Registration happens during program initialization, before any request is
// served. After that the registry is read-only, so Lookup takes no locks.
// Calling Register concurrently with Lookup is a programming error.
type Registry struct {
	byCode map[Code]Descriptor
}

// Default is the process-wide registry holding the built-in taxonomy.
var Default = &Registry{byCode: make(map[Code]Descriptor)}

// NewRegistry builds a registry from descs in a single uniqueness pass.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byCode: make(map[Code]Descriptor, len(descs))}
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds d. It fails with ErrDuplicateCode if the code is taken.
func (r *Registry) Register(d Descriptor) error {
	if d.Status == 0 {
		d.Status = DefaultStatus
	}
	if prev, ok := r.byCode[d.Code]; ok {
		return &DuplicateCodeError{Existing: prev, Incoming: d}
	}
	r.byCode[d.Code] = d
	return nil
}

// MustRegister is like Register but panics on a duplicate code. It returns
// the stored descriptor so it can be used in package-level var blocks:
//
//	var OutOfStock = apierr.MustRegister(apierr.Descriptor{Code: 1001, Name: "OUT_OF_STOCK", Message: "Out of stock"})
func (r *Registry) MustRegister(d Descriptor) Descriptor {
	if err := r.Register(d); err != nil {
		panic(err)
	}
	return r.byCode[d.Code]
}

// Lookup returns the descriptor registered under code.
func (r *Registry) Lookup(code Code) (Descriptor, error) {
	d, ok := r.byCode[code]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %d", ErrUnknownCode, code)
	}
	return d, nil
}

// Descriptors returns all registered descriptors ordered by code.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.byCode))
	for _, d := range r.byCode {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Register adds d to the Default registry.
func Register(d Descriptor) error { return Default.Register(d) }

// MustRegister adds d to the Default registry and panics on a duplicate code.
func MustRegister(d Descriptor) Descriptor { return Default.MustRegister(d) }

// Lookup finds code in the Default registry.
func Lookup(code Code) (Descriptor, error) { return Default.Lookup(code) }
