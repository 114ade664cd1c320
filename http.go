package apierr

import (
	"encoding/json"
	"net/http"
)

const (
	// HeaderRequestID is the header used to propagate request IDs.
	HeaderRequestID = "X-Request-Id"

	contentTypeJSON = "application/json; charset=utf-8"
)

// Write writes err as an envelope. A nil err writes an empty success
// envelope. In debug mode an error outside the taxonomy is re-panicked
// instead of being written.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	DefaultTranslator.Write(w, r, nil, err)
}

// WriteData writes a success envelope carrying data.
func WriteData(w http.ResponseWriter, r *http.Request, data map[string]any) {
	DefaultTranslator.Write(w, r, data, nil)
}

// Respond writes data on success and err otherwise.
func Respond(w http.ResponseWriter, r *http.Request, data map[string]any, err error) {
	DefaultTranslator.Write(w, r, data, err)
}

// Write translates the outcome and writes it to w.
func (t *Translator) Write(w http.ResponseWriter, r *http.Request, data map[string]any, err error) {
	resp, status, propagate := t.Translate(r.Context(), data, err)
	if propagate != nil {
		panic(propagate)
	}
	WriteEnvelope(w, r, status, resp)
}

// WriteEnvelope writes env with the given status, echoing the request ID.
func WriteEnvelope(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	if id := RequestIDFromRequest(r); id != "" {
		w.Header().Set(HeaderRequestID, id)
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if env.Data == nil {
		env.Data = map[string]any{}
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(env)
}
