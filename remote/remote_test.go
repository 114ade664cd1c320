package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/apierr"
	"github.com/blackwell-systems/apierr/apierrtest"
)

func TestSuccess(t *testing.T) {
	srv := apierrtest.EnvelopeServer(t, http.StatusOK, apierr.SuccessEnvelope(map[string]any{"id": "u1"}))

	res, err := New().Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "u1", res.Data["id"])
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NoError(t, res.Err())
}

func TestKnownCodeRoundTrip(t *testing.T) {
	srv := apierrtest.EnvelopeServer(t, http.StatusUnprocessableEntity,
		apierr.InvalidFieldValue.WithDetail("abc").WithData(map[string]any{"field": "a"}).Envelope())

	_, err := New().Post(context.Background(), srv.URL, map[string]any{"a": 1})
	e := apierrtest.AssertError(t, err, apierr.InvalidFieldValue)
	assert.Equal(t, "abc", e.Detail)
	assert.Equal(t, "a", e.Data["field"])
	assert.True(t, errors.Is(err, apierr.InvalidFieldValue.New()))

	local := apierr.InvalidFieldValue.WithDetail("abc")
	assert.Equal(t, local.Envelope().Code, e.Envelope().Code)
	assert.Equal(t, local.Envelope().ErrorDetail, e.Envelope().ErrorDetail)
}

func TestUnknownCode(t *testing.T) {
	srv := apierrtest.EnvelopeServer(t, http.StatusTeapot, apierr.Envelope{
		Code:        9999,
		Msg:         "Quota exhausted",
		ErrorDetail: "plan limit",
	})

	_, err := New().Get(context.Background(), srv.URL, nil)
	e := apierrtest.AssertError(t, err, apierr.RemoteServerError, "Quota exhausted", "plan limit")
	assert.Equal(t, "Quota exhausted (plan limit)", e.Detail)
}

func TestCustomRegistry(t *testing.T) {
	quota := apierr.Descriptor{Code: 9999, Name: "QUOTA_EXHAUSTED", Message: "Quota exhausted", Status: http.StatusTooManyRequests}
	reg, err := apierr.NewRegistry(quota)
	require.NoError(t, err)

	srv := apierrtest.EnvelopeServer(t, http.StatusTooManyRequests, quota.WithDetail("plan limit").Envelope())

	_, err = New(WithRegistry(reg)).Get(context.Background(), srv.URL, nil)
	e := apierrtest.AssertError(t, err, quota)
	assert.Equal(t, http.StatusTooManyRequests, e.Status)
}

func TestNotAnEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "html", body: "<html>bad gateway</html>"},
		{name: "json without code", body: `{"status": "ok"}`},
		{name: "json array", body: `[1, 2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apierrtest.RawServer(t, http.StatusBadGateway, "text/html", tt.body)

			_, err := New().Get(context.Background(), srv.URL, nil)
			e := apierrtest.AssertError(t, err, apierr.RemoteServerError)
			assert.Empty(t, e.Detail)
			assert.Contains(t, e.PrivateDetail(), "(server response was: "+tt.body+")")
			assert.Empty(t, e.Envelope().ErrorDetail)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := apierrtest.EnvelopeServer(t, http.StatusOK, apierr.SuccessEnvelope(nil))
	addr := srv.URL
	srv.Close()

	_, err := New().Get(context.Background(), addr, nil)
	e := apierrtest.AssertError(t, err, apierr.RemoteServerError)
	assert.NotEmpty(t, e.Detail)
}

func TestCanceledContext(t *testing.T) {
	srv := apierrtest.EnvelopeServer(t, http.StatusOK, apierr.SuccessEnvelope(nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Get(ctx, srv.URL, nil)
	apierrtest.AssertError(t, err, apierr.RemoteServerError)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPassthrough(t *testing.T) {
	srv := apierrtest.EnvelopeServer(t, http.StatusNotFound, apierr.NotFound.WithDetail("user 7").Envelope())

	res, err := New(WithMode(ModePassthrough)).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, apierr.NotFound.Code, res.Code)
	assert.Equal(t, "user 7", res.ErrorDetail)
	apierrtest.AssertError(t, res.Err(), apierr.NotFound, "user 7")
}

func TestJSONMode(t *testing.T) {
	srv := apierrtest.RawServer(t, http.StatusOK, "application/json", `{"items": [1, 2]}`)

	res, err := New(WithMode(ModeJSON)).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"items": []any{1.0, 2.0}}, res.JSON)
	assert.Equal(t, apierr.Envelope{}, res.Envelope)

	srv = apierrtest.RawServer(t, http.StatusOK, "text/plain", "pong")
	_, err = New(WithMode(ModeJSON)).Get(context.Background(), srv.URL, nil)
	apierrtest.AssertError(t, err, apierr.RemoteServerError)
}

func TestRequestShape(t *testing.T) {
	var (
		gotMethod, gotQuery, gotType, gotID, gotToken string
		gotBody                                       map[string]any
	)
	srv := apierrtest.Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		gotID = r.Header.Get(apierr.HeaderRequestID)
		gotToken = r.Header.Get("X-Service-Token")
		raw, _ := io.ReadAll(r.Body)
		gotBody = nil
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &gotBody)
		}
		apierr.WriteData(w, r, nil)
	}))

	c := New(WithHeader("X-Service-Token", "s3cret"))
	ctx := apierr.WithRequestID(context.Background(), "req-42")

	_, err := c.Get(ctx, srv.URL+"/items?x=1", url.Values{"page": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "x=1&page=2", gotQuery)
	assert.Equal(t, "req-42", gotID)
	assert.Equal(t, "s3cret", gotToken)
	assert.Nil(t, gotBody)

	_, err = c.Patch(ctx, srv.URL, map[string]any{"name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, map[string]any{"name": "ada"}, gotBody)

	_, err = c.Put(ctx, srv.URL, map[string]any{"name": "bob"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)

	_, err = c.Delete(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func TestCustomDoerAndLogger(t *testing.T) {
	var buf bytes.Buffer
	lg := zerolog.New(&buf).Level(zerolog.DebugLevel)

	doer := doerFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(`{"code": 0, "msg": "Success", "data": {}}`)),
		}, nil
	})

	res, err := New(WithHTTPClient(doer), WithLogger(&lg)).Get(context.Background(), "http://peer.invalid/ping", nil)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Contains(t, buf.String(), `"message":"remote call"`)
	assert.Contains(t, buf.String(), `"url":"http://peer.invalid/ping"`)
}

func TestUnencodablePayload(t *testing.T) {
	_, err := New().Post(context.Background(), "http://peer.invalid", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Nil(t, apierr.From(err))
}
