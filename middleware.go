package apierr

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const requestIDKey ctxKey = "apierr.request_id"

// RequestIDFromRequest extracts the request ID from the header or context.
func RequestIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	// Prefer header
	if id := r.Header.Get(HeaderRequestID); id != "" {
		return id
	}
	return RequestIDFromContext(r.Context())
}

// RequestIDFromContext returns the request ID stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDMiddleware propagates X-Request-Id or generates a UUID for it,
// and stores a request-scoped zerolog logger carrying the ID in the context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		lg := log.Logger.With().Str("request_id", id).Logger()
		ctx := lg.WithContext(WithRequestID(r.Context(), id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggerFrom returns the request-scoped logger, or the global logger.
func LoggerFrom(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &log.Logger
	}
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

// Recover converts panics into envelopes through DefaultTranslator.
func Recover(next http.Handler) http.Handler {
	return DefaultTranslator.Recover(next)
}

// Recover converts panics raised by next into envelopes. Panics carrying an
// *Error are written as that error; anything else is treated as an
// unexpected failure and, in debug mode, re-panicked.
func (t *Translator) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			t.Write(w, r, nil, err)
		}()
		next.ServeHTTP(w, r)
	})
}

// HandlerFunc is a handler that returns its payload or an error instead of
// writing the response itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) (map[string]any, error)

// ServeHTTP writes the outcome of h through DefaultTranslator.
func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, err := h(w, r)
	DefaultTranslator.Write(w, r, data, err)
}

// Handle adapts h to http.Handler using t.
func (t *Translator) Handle(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := h(w, r)
		t.Write(w, r, data, err)
	})
}

// RequireMethods rejects requests whose method is not listed with
// METHOD_NOT_ALLOWED.
func RequireMethods(methods ...string) func(http.Handler) http.Handler {
	allowed := make([]string, len(methods))
	for i, m := range methods {
		allowed[i] = strings.ToUpper(m)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(allowed, r.Method) {
				w.Header().Set("Allow", strings.Join(allowed, ", "))
				Write(w, r, MethodNotAllowed.Errorf("method %s is not allowed", r.Method))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var (
	RequireGET    = RequireMethods(http.MethodGet)
	RequirePOST   = RequireMethods(http.MethodPost)
	RequirePUT    = RequireMethods(http.MethodPut)
	RequirePATCH  = RequireMethods(http.MethodPatch)
	RequireDELETE = RequireMethods(http.MethodDelete)
)
