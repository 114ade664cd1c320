// Package echo provides adapters for using apierr with the Echo framework.
package echo

import (
	"errors"
	"fmt"
	"net/http"

	echofw "github.com/labstack/echo/v4"

	"github.com/blackwell-systems/apierr"
	"github.com/blackwell-systems/apierr/field"
)

// Install registers Middleware and HTTPErrorHandler on e.
//
// Example:
//
//	e := echo.New()
//	apierrecho.Install(e)
//	e.POST("/users", func(c echo.Context) error {
//	    name, err := field.JSON(c.Request()).String("name")
//	    if err != nil {
//	        return err
//	    }
//	    return apierrecho.WriteData(c, map[string]any{"name": name})
//	})
func Install(e *echofw.Echo) {
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(Middleware)
}

// Middleware adapts the request ID and field binder cache middleware to
// Echo's middleware interface. Errors returned by next are passed on to the
// error handler.
func Middleware(next echofw.HandlerFunc) echofw.HandlerFunc {
	return func(c echofw.Context) error {
		var err error
		handler := apierr.RequestIDMiddleware(field.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Update context with the decorated request
			c.SetRequest(r)
			err = next(c)
		})))

		handler.ServeHTTP(c.Response(), c.Request())
		return err
	}
}

// HTTPErrorHandler writes every error reaching Echo as an envelope. Echo's
// own HTTP errors (unknown route, wrong method, ...) are mapped onto the
// taxonomy.
func HTTPErrorHandler(err error, c echofw.Context) {
	if c.Response().Committed {
		return
	}
	Write(c, fromHTTPError(err))
}

func fromHTTPError(err error) error {
	var he *echofw.HTTPError
	if apierr.From(err) != nil || !errors.As(err, &he) {
		return err
	}
	detail := fmt.Sprint(he.Message)
	switch {
	case he.Code == http.StatusNotFound:
		return apierr.NotFound.WithDetail(detail)
	case he.Code == http.StatusMethodNotAllowed:
		return apierr.MethodNotAllowed.WithDetail(detail)
	case he.Code == http.StatusForbidden:
		return apierr.PermissionDenied.WithDetail(detail)
	case he.Code == http.StatusUnprocessableEntity:
		return apierr.Unprocessable.WithDetail(detail)
	case he.Code >= http.StatusInternalServerError:
		return err
	}
	return apierr.BadRequest.New().WithStatus(he.Code).WithDetail(detail)
}

// Write sends err as an envelope. It always returns nil so it can end a
// handler.
func Write(c echofw.Context, err error) error {
	apierr.Write(c.Response(), c.Request(), err)
	return nil
}

// WriteData sends a success envelope carrying data.
func WriteData(c echofw.Context, data map[string]any) error {
	apierr.WriteData(c.Response(), c.Request(), data)
	return nil
}

// Respond writes data on success and err otherwise.
func Respond(c echofw.Context, data map[string]any, err error) error {
	apierr.Respond(c.Response(), c.Request(), data, err)
	return nil
}

// Handle adapts a handler that returns its payload.
func Handle(h func(c echofw.Context) (map[string]any, error)) echofw.HandlerFunc {
	return func(c echofw.Context) error {
		data, err := h(c)
		return Respond(c, data, err)
	}
}
