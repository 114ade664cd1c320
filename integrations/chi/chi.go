// Package chi provides adapters for using apierr with the chi router.
//
// Chi uses standard net/http handlers, so apierr works with it directly.
// This package bundles the middleware stack and makes the router's own 404
// and 405 responses envelopes too.
package chi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/blackwell-systems/apierr"
	"github.com/blackwell-systems/apierr/field"
)

// Middleware assigns a request ID, attaches the field binder cache and turns
// panics into envelopes.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(apierrchi.Middleware)
func Middleware(next http.Handler) http.Handler {
	return apierr.RequestIDMiddleware(field.Middleware(apierr.Recover(next)))
}

// NewRouter returns a chi router using Middleware whose not-found and
// method-not-allowed responses are NOT_FOUND and METHOD_NOT_ALLOWED
// envelopes.
func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)
	return r
}

// NotFound writes a NOT_FOUND envelope naming the path.
func NotFound(w http.ResponseWriter, r *http.Request) {
	apierr.Write(w, r, apierr.NotFound.Errorf("no route for %s", r.URL.Path))
}

// MethodNotAllowed writes a METHOD_NOT_ALLOWED envelope naming the method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apierr.Write(w, r, apierr.MethodNotAllowed.Errorf("method %s is not allowed", r.Method))
}

// Handler adapts a handler that returns its payload.
//
// Example:
//
//	r.Get("/users/{id}", apierrchi.Handler(func(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
//	    id, err := apierrchi.IntParam(r, "id")
//	    ...
//	}))
func Handler(h apierr.HandlerFunc) http.HandlerFunc {
	return h.ServeHTTP
}

// IntParam returns the URL parameter name as an integer. A value that is not
// an integer is WRONG_FIELD_TYPE; an empty one is FIELD_MISSING.
func IntParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, apierr.FieldMissing.Errorf("Field %q is either missing or empty", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apierr.WrongFieldType.Errorf("Field %q should be integer", name)
	}
	return v, nil
}
