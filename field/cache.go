package field

import (
	"context"
	"net/http"
)

type cacheKey struct{}

// cache holds the binders of one request. It is owned by that request's
// handling goroutine.
type cache struct {
	body  *Body
	form  *Form
	query *QueryParams
}

// Middleware attaches a per-request binder cache, so that JSON, Multipart
// and Query return the same binder for every call on the request and its
// derived requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithCache(r.Context())))
	})
}

// WithCache returns ctx with an empty binder cache.
func WithCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheKey{}, &cache{})
}

func cacheFrom(r *http.Request) *cache {
	if r == nil {
		return nil
	}
	c, _ := r.Context().Value(cacheKey{}).(*cache)
	return c
}
