// Package gin provides adapters for using apierr with the Gin framework.
package gin

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blackwell-systems/apierr"
	"github.com/blackwell-systems/apierr/field"
)

// Middleware wires request IDs, the request-scoped logger and the field
// binder cache into Gin's middleware chain.
//
// Example:
//
//	r := gin.New()
//	r.Use(apierrgin.Middleware(), apierrgin.Recovery())
//	r.POST("/users", func(c *gin.Context) {
//	    name, err := apierrgin.JSON(c).String("name")
//	    ...
//	})
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Wrap remaining chain with the net/http middleware stack
		handler := apierr.RequestIDMiddleware(field.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Update context with the decorated request
			c.Request = r
			c.Next()
		})))

		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// Recovery turns panics into envelopes, like apierr.Recover.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
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
			c.Abort()
			Write(c, err)
		}()
		c.Next()
	}
}

// Errors writes the last error attached with c.Error, unless a response has
// already been written.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Written() {
			return
		}
		if last := c.Errors.Last(); last != nil {
			Write(c, last.Err)
		}
	}
}

// Write sends err as an envelope. A nil err writes an empty success envelope.
func Write(c *gin.Context, err error) {
	apierr.Write(c.Writer, c.Request, err)
}

// Respond writes data on success and err otherwise.
func Respond(c *gin.Context, data map[string]any, err error) {
	apierr.Respond(c.Writer, c.Request, data, err)
}

// Handle adapts a handler that returns its payload.
func Handle(h func(c *gin.Context) (map[string]any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := h(c)
		Respond(c, data, err)
	}
}

// JSON returns the JSON body binder of the request.
func JSON(c *gin.Context) *field.Body { return field.JSON(c.Request) }

// Query returns the query parameter binder of the request.
func Query(c *gin.Context) *field.QueryParams { return field.Query(c.Request) }

// Multipart returns the multipart form binder of the request.
func Multipart(c *gin.Context, opts ...field.FormOption) *field.Form {
	return field.Multipart(c.Request, opts...)
}
