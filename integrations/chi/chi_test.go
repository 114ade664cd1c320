package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/blackwell-systems/apierr"
	"github.com/blackwell-systems/apierr/field"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) apierr.Envelope {
	t.Helper()
	var env apierr.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func TestMiddlewareRequestID(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)

	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		if apierr.RequestIDFromContext(r.Context()) == "" {
			t.Error("expected request ID to be set")
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Header().Get(apierr.HeaderRequestID) == "" {
		t.Error("expected X-Request-Id response header")
	}
}

func TestMiddlewareExistingHeader(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)

	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		if id := apierr.RequestIDFromContext(r.Context()); id != "existing-id-123" {
			t.Errorf("expected existing-id-123, got %s", id)
		}
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-Id", "existing-id-123")
	r.ServeHTTP(httptest.NewRecorder(), req)
}

func TestMiddlewareCachesBinders(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)

	var same bool
	r.Post("/test", func(w http.ResponseWriter, r *http.Request) {
		same = field.JSON(r) == field.JSON(r)
	})

	req := httptest.NewRequest("POST", "/test", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if !same {
		t.Error("expected one binder per request")
	}
}

func TestMiddlewareRecovers(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic(apierr.PermissionDenied.New())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/panic", nil))

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestNewRouterEnvelopes(t *testing.T) {
	r := NewRouter()
	r.Get("/users", func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteData(w, r, nil)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if env := decode(t, rec); env.Code != apierr.NotFound.Code || env.ErrorDetail != "no route for /nope" {
		t.Errorf("unexpected envelope %+v", env)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("DELETE", "/users", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
	if env := decode(t, rec); env.Code != apierr.MethodNotAllowed.Code {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestHandlerAndIntParam(t *testing.T) {
	r := NewRouter()
	r.Get("/users/{id}", Handler(func(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
		id, err := IntParam(r, "id")
		if err != nil {
			return nil, err
		}
		if id != 7 {
			return nil, apierr.NotFound.Errorf("user %d", id)
		}
		return map[string]any{"id": id}, nil
	}))

	tests := []struct {
		path   string
		status int
		code   apierr.Code
	}{
		{"/users/7", http.StatusOK, apierr.CodeSuccess},
		{"/users/8", http.StatusNotFound, apierr.NotFound.Code},
		{"/users/abc", http.StatusUnprocessableEntity, apierr.WrongFieldType.Code},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

		if rec.Code != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.status, rec.Code)
		}
		if env := decode(t, rec); env.Code != tt.code {
			t.Errorf("%s: expected code %d, got %d", tt.path, tt.code, env.Code)
		}
	}
}
