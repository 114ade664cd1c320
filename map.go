package apierr

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/blackwell-systems/apierr/env"
)

// DebugEnvVar names the environment switch read by DebugFromEnv. When it is
// true, unexpected errors are propagated instead of being demoted to
// UNKNOWN_ERROR.
const DebugEnvVar = "APIERR_RERAISE_UNKNOWN"

// DebugFromEnv reports the current value of DebugEnvVar. It reads the
// environment on every call.
func DebugFromEnv() bool {
	v, err := env.Bool(DebugEnvVar, false)
	return err == nil && v
}

// Translator converts handler outcomes into envelopes. It is the single place
// where errors outside the taxonomy are caught.
type Translator struct {
	// Logger receives one entry per failure. Nil means the logger stored in
	// the request context, falling back to the global zerolog logger.
	Logger *zerolog.Logger
	// Debug is consulted once per unexpected error. Nil means DebugFromEnv.
	Debug func() bool
	// Metrics, when set, counts every translated response.
	Metrics *Metrics
}

// DefaultTranslator is used by Write, WriteData and Respond.
var DefaultTranslator = &Translator{}

// Translate returns the envelope and HTTP status for an outcome.
//
// A nil err, including a nil *Error, yields a success envelope carrying data. An *Error anywhere in
// err's chain yields its own envelope and status. Any other error is logged
// with a stack trace and demoted to UNKNOWN_ERROR, unless debug mode is on:
// then the original error is returned as propagate and the caller must let
// it escape instead of writing a response.
func (t *Translator) Translate(ctx context.Context, data map[string]any, err error) (resp Envelope, status int, propagate error) {
	if isNil(err) {
		resp = SuccessEnvelope(data)
		t.observe(resp, Success.Status)
		return resp, Success.Status, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	lg := t.logger(ctx)
	if e := From(err); e != nil {
		ev := lg.Info().
			Int("code", int(e.Code)).
			Str("name", e.Name).
			Int("status", e.Status)
		if e.Detail != "" {
			ev = ev.Str("detail", e.Detail)
		}
		if e.private != "" {
			ev = ev.Str("private_detail", e.private)
		}
		if e.cause != nil {
			ev = ev.AnErr("cause", e.cause)
		}
		ev.Msg(e.Message)

		resp = e.Envelope()
		t.observe(resp, e.Status)
		return resp, e.Status, nil
	}

	lg.Error().
		Err(err).
		Bytes("stack", debug.Stack()).
		Msg("unhandled error")

	if t.debug() {
		return Envelope{}, 0, err
	}
	resp = UnknownError.New().Envelope()
	t.observe(resp, UnknownError.Status)
	return resp, UnknownError.Status, nil
}

func (t *Translator) debug() bool {
	if t.Debug != nil {
		return t.Debug()
	}
	return DebugFromEnv()
}

func (t *Translator) logger(ctx context.Context) *zerolog.Logger {
	l := t.Logger
	if l == nil {
		l = LoggerFrom(ctx)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		withTrace := l.With().Str("trace_id", sc.TraceID().String()).Logger()
		return &withTrace
	}
	return l
}

func (t *Translator) observe(resp Envelope, status int) {
	if t.Metrics != nil {
		t.Metrics.observe(resp, status)
	}
}

// From returns the *Error in err's chain, or nil if err is outside the
// taxonomy. A zero status is normalized to DefaultStatus.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) || e == nil {
		return nil
	}
	if e.Status == 0 {
		e = e.WithStatus(DefaultStatus)
	}
	if e.Message == "" {
		if d, lerr := Lookup(e.Code); lerr == nil {
			e = e.clone()
			e.Message = d.Message
		}
	}
	return e
}

// StatusOf returns the HTTP status an error would be written with.
func StatusOf(err error) int {
	if isNil(err) {
		return http.StatusOK
	}
	if e := From(err); e != nil {
		return e.Status
	}
	return UnknownError.Status
}

// isNil reports whether err is nil or a nil *Error stored in the interface.
func isNil(err error) bool {
	e, ok := err.(*Error)
	return err == nil || ok && e == nil
}
