// Package remote calls other services that speak the apierr envelope and
// turns their failures back into local *apierr.Error values.
//
// A failure envelope with a code known to the local registry is raised as
// that code, so an INVALID_FIELD_VALUE returned by a peer is indistinguishable
// from one produced locally. Unknown codes, transport errors and responses
// that are not envelopes become REMOTE_SERVER_ERROR.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/apierr"
)

// Mode selects how responses are interpreted.
type Mode int

const (
	// ModeEnvelope parses envelopes and returns failure codes as errors.
	ModeEnvelope Mode = iota
	// ModePassthrough parses envelopes but never fails on the code; the
	// rebuilt error is available from Response.Err.
	ModePassthrough
	// ModeJSON is for peers that do not use the envelope. Any JSON body is
	// accepted and returned in Response.JSON.
	ModeJSON
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls remote JSON APIs. It applies no timeout and no retries of its
// own; the Doer and the request context govern both.
type Client struct {
	http     Doer
	registry *apierr.Registry
	mode     Mode
	logger   *zerolog.Logger
	header   http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the Doer used to send requests.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithRegistry sets the registry used to resolve remote codes.
func WithRegistry(r *apierr.Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithMode sets the response mode.
func WithMode(m Mode) Option {
	return func(c *Client) { c.mode = m }
}

// WithLogger sets the logger for call traces. By default the logger stored in
// the request context is used.
func WithLogger(l *zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Add(key, value) }
}

// New returns a Client. Without options it uses http.DefaultClient, the
// default registry and ModeEnvelope.
func New(opts ...Option) *Client {
	c := &Client{
		http:     http.DefaultClient,
		registry: apierr.Default,
		mode:     ModeEnvelope,
		header:   http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is the outcome of a successful call.
type Response struct {
	// Envelope is the decoded envelope. It is zero in ModeJSON.
	apierr.Envelope
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// JSON is the whole decoded body.
	JSON any
	// Raw is the undecoded body.
	Raw []byte

	err *apierr.Error
}

// Err returns the error carried by a failure envelope received in
// ModePassthrough, or nil.
func (r *Response) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// Do sends a request with payload encoded as JSON. A nil payload sends no
// body.
func (c *Client) Do(ctx context.Context, method, rawURL string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("remote: encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	for k, vs := range c.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := apierr.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(apierr.HeaderRequestID, id)
	}
	return c.send(ctx, req)
}

// Get sends a GET request with params appended to the URL's query.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + params.Encode()
	}
	return c.Do(ctx, http.MethodGet, rawURL, nil)
}

// Post sends payload as JSON.
func (c *Client) Post(ctx context.Context, rawURL string, payload any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, rawURL, payload)
}

// Put sends payload as JSON.
func (c *Client) Put(ctx context.Context, rawURL string, payload any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, rawURL, payload)
}

// Patch sends payload as JSON.
func (c *Client) Patch(ctx context.Context, rawURL string, payload any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, rawURL, payload)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, rawURL, nil)
}

func (c *Client) send(ctx context.Context, req *http.Request) (*Response, error) {
	lg := c.log(ctx).With().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Logger()

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		lg.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("remote call failed")
		return nil, apierr.RemoteServerError.WithDetail(err.Error()).WithCause(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		lg.Warn().Err(err).Int("status", resp.StatusCode).Msg("remote body unreadable")
		return nil, apierr.RemoteServerError.WithDetail(err.Error()).WithCause(err)
	}
	lg.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("remote call")

	out := &Response{StatusCode: resp.StatusCode, Raw: raw}
	if err := json.Unmarshal(raw, &out.JSON); err != nil {
		return nil, notJSON(err, raw)
	}
	if c.mode == ModeJSON {
		return out, nil
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, notJSON(err, raw)
	}
	out.Envelope = env
	if e, failed := c.registry.Err(env); failed {
		if c.mode == ModeEnvelope {
			return nil, e
		}
		out.err = e
	}
	return out, nil
}

func (c *Client) log(ctx context.Context) *zerolog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return apierr.LoggerFrom(ctx)
}

// wireEnvelope distinguishes a missing code from code 0.
type wireEnvelope struct {
	Code        *apierr.Code   `json:"code"`
	Msg         string         `json:"msg"`
	Data        map[string]any `json:"data"`
	ErrorDetail string         `json:"error_detail"`
}

func decodeEnvelope(raw []byte) (apierr.Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return apierr.Envelope{}, err
	}
	if w.Code == nil {
		return apierr.Envelope{}, fmt.Errorf("response has no %q field", "code")
	}
	return apierr.Envelope{
		Code:        *w.Code,
		Msg:         w.Msg,
		Data:        w.Data,
		ErrorDetail: w.ErrorDetail,
	}, nil
}

func notJSON(err error, raw []byte) *apierr.Error {
	return apierr.RemoteServerError.New().
		WithPrivateDetail(fmt.Sprintf("%v (server response was: %s)", err, raw)).
		WithCause(err)
}
