package echo

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

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

func newEcho() *echo.Echo {
	e := echo.New()
	Install(e)
	return e
}

func TestMiddleware(t *testing.T) {
	e := newEcho()

	e.GET("/test", func(c echo.Context) error {
		if apierr.RequestIDFromContext(c.Request().Context()) == "" {
			t.Error("expected request ID to be set")
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Header().Get(apierr.HeaderRequestID) == "" {
		t.Error("expected X-Request-Id response header")
	}
}

func TestMiddlewareExistingHeader(t *testing.T) {
	e := newEcho()

	existingID := "existing-id-123"

	e.GET("/test", func(c echo.Context) error {
		if id := apierr.RequestIDFromRequest(c.Request()); id != existingID {
			t.Errorf("expected request ID %s, got %s", existingID, id)
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-Id", existingID)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestWrite(t *testing.T) {
	e := newEcho()

	e.GET("/error", func(c echo.Context) error {
		return Write(c, apierr.NotFound.WithDetail("user 7"))
	})

	req := httptest.NewRequest("GET", "/error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	env := decode(t, rec)
	if env.Code != apierr.NotFound.Code || env.ErrorDetail != "user 7" {
		t.Errorf("unexpected envelope %+v", env)
	}
	if rec.Header().Get(apierr.HeaderRequestID) == "" {
		t.Error("expected request ID to be echoed")
	}
}

func TestReturnedErrorsReachHandler(t *testing.T) {
	e := newEcho()

	e.POST("/items", func(c echo.Context) error {
		size, err := field.JSON(c.Request()).Int("size")
		if err != nil {
			return err
		}
		return WriteData(c, map[string]any{"size": size})
	})

	tests := []struct {
		body   string
		status int
		code   apierr.Code
	}{
		{`{"size": 2}`, http.StatusOK, apierr.CodeSuccess},
		{`{}`, http.StatusUnprocessableEntity, apierr.FieldMissing.Code},
		{`{"size": true}`, http.StatusUnprocessableEntity, apierr.WrongFieldType.Code},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/items", strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.body, tt.status, rec.Code)
		}
		if env := decode(t, rec); env.Code != tt.code {
			t.Errorf("%s: expected code %d, got %d", tt.body, tt.code, env.Code)
		}
	}
}

func TestHTTPErrorMapping(t *testing.T) {
	e := newEcho()
	e.GET("/users", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	tests := []struct {
		method, path string
		status       int
		code         apierr.Code
	}{
		{"GET", "/nope", http.StatusNotFound, apierr.NotFound.Code},
		{"DELETE", "/users", http.StatusMethodNotAllowed, apierr.MethodNotAllowed.Code},
		{"GET", "/teapot", http.StatusTeapot, apierr.BadRequest.Code},
		{"GET", "/boom", http.StatusInternalServerError, apierr.UnknownError.Code},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

		if rec.Code != tt.status {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.status, rec.Code)
		}
		if env := decode(t, rec); env.Code != tt.code {
			t.Errorf("%s %s: expected code %d, got %d", tt.method, tt.path, tt.code, env.Code)
		}
	}
}

func TestHandle(t *testing.T) {
	e := newEcho()
	e.GET("/search", Handle(func(c echo.Context) (map[string]any, error) {
		page, err := field.Query(c.Request()).Int("page", field.Default(1))
		if err != nil {
			return nil, err
		}
		return map[string]any{"page": page}, nil
	}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("GET", "/search?page=4", nil))
	if env := decode(t, rec); env.Data["page"] != 4.0 {
		t.Errorf("expected page 4, got %+v", env)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("GET", "/search?page=x", nil))
	if env := decode(t, rec); env.Code != apierr.WrongFieldType.Code {
		t.Errorf("expected WRONG_FIELD_TYPE, got %+v", env)
	}
}

func TestWriteReturnsNil(t *testing.T) {
	e := newEcho()

	e.GET("/error", func(c echo.Context) error {
		err := Write(c, apierr.NotFound.New())
		if err != nil {
			t.Errorf("Write should return nil, got %v", err)
		}
		return err
	})

	req := httptest.NewRequest("GET", "/error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
}

func TestUnmappedClientErrorKeepsStatus(t *testing.T) {
	e := newEcho()
	e.GET("/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("GET", "/teapot", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
	env := decode(t, rec)
	if env.Code != apierr.BadRequest.Code || env.ErrorDetail != "short and stout" {
		t.Errorf("unexpected envelope %+v", env)
	}
}
