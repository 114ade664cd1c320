// Package apierrtest provides helpers for testing code that returns or writes
// apierr errors.
package apierrtest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/apierr"
)

// AssertError fails t unless err is an *apierr.Error with d's code whose
// rendered text contains every string in contains. It returns the error for
// further checks.
func AssertError(t testing.TB, err error, d apierr.Descriptor, contains ...string) *apierr.Error {
	t.Helper()
	e := requireCode(t, err, d)
	for _, s := range contains {
		assert.Contains(t, e.Error(), s)
	}
	return e
}

// AssertErrorMatch is AssertError with a regular expression matched against
// the rendered error text.
func AssertErrorMatch(t testing.TB, err error, d apierr.Descriptor, pattern string) *apierr.Error {
	t.Helper()
	e := requireCode(t, err, d)
	assert.Regexp(t, regexp.MustCompile(pattern), e.Error())
	return e
}

func requireCode(t testing.TB, err error, d apierr.Descriptor) *apierr.Error {
	t.Helper()
	require.Error(t, err, "expected %s, no error returned", d.Name)
	e := apierr.From(err)
	require.NotNil(t, e, "expected %s, got %T: %v", d.Name, err, err)
	require.Equal(t, d.Code, e.Code, "expected %s, got %s: %v", d.Name, e.Name, err)
	return e
}

// DecodeEnvelope decodes an envelope from body, failing t if it is not one.
func DecodeEnvelope(t testing.TB, body []byte) apierr.Envelope {
	t.Helper()
	var env apierr.Envelope
	require.NoError(t, json.Unmarshal(body, &env), "response is not a JSON envelope: %q", body)
	return env
}

// AssertEnvelope checks that rec holds an envelope with d's code and status.
func AssertEnvelope(t testing.TB, rec *httptest.ResponseRecorder, d apierr.Descriptor) apierr.Envelope {
	t.Helper()
	env := DecodeEnvelope(t, rec.Body.Bytes())
	assert.Equal(t, d.Code, env.Code, "envelope: %s", rec.Body.String())
	status := d.Status
	if status == 0 {
		status = apierr.DefaultStatus
	}
	assert.Equal(t, status, rec.Code)
	return env
}

// Client sends requests straight to a handler and decodes the envelope it
// writes.
type Client struct {
	Handler http.Handler
	// Header is added to every request.
	Header http.Header
}

// NewClient returns a client for h.
func NewClient(h http.Handler) *Client {
	return &Client{Handler: h, Header: http.Header{}}
}

// Response is a recorded response together with its decoded envelope.
type Response struct {
	apierr.Envelope
	Status int
	Header http.Header
	Body   []byte
}

// Do sends a request with body encoded as JSON. A nil body sends none.
func (c *Client) Do(t testing.TB, method, path string, body any) *Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.serve(t, req)
}

// Get sends a GET request with the given query parameters.
func (c *Client) Get(t testing.TB, path string, query url.Values) *Response {
	t.Helper()
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.Do(t, http.MethodGet, path, nil)
}

// Post sends body as JSON.
func (c *Client) Post(t testing.TB, path string, body any) *Response {
	t.Helper()
	return c.Do(t, http.MethodPost, path, body)
}

// Patch sends body as JSON.
func (c *Client) Patch(t testing.TB, path string, body any) *Response {
	t.Helper()
	return c.Do(t, http.MethodPatch, path, body)
}

// Delete sends a DELETE request.
func (c *Client) Delete(t testing.TB, path string) *Response {
	t.Helper()
	return c.Do(t, http.MethodDelete, path, nil)
}

// PostForm sends a multipart/form-data body with the given values and files.
func (c *Client) PostForm(t testing.TB, path string, values url.Values, files map[string][]byte) *Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, vs := range values {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(name, v))
		}
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile(name, name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.serve(t, req)
}

func (c *Client) serve(t testing.TB, req *http.Request) *Response {
	t.Helper()
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, req)
	return &Response{
		Envelope: DecodeEnvelope(t, rec.Body.Bytes()),
		Status:   rec.Code,
		Header:   rec.Header(),
		Body:     rec.Body.Bytes(),
	}
}

// EnvelopeServer starts a server that answers every request with env and
// status. It is closed when the test ends.
func EnvelopeServer(t testing.TB, status int, env apierr.Envelope) *httptest.Server {
	t.Helper()
	return Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteEnvelope(w, r, status, env)
	}))
}

// RawServer starts a server that answers every request with body as is.
func RawServer(t testing.TB, status int, contentType, body string) *httptest.Server {
	t.Helper()
	return Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
}

// Server starts h and closes it when the test ends.
func Server(t testing.TB, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}
