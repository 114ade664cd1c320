package apierr

// Envelope is the wire format exchanged between services.
//
//	{"code": 0, "msg": "Success", "data": {...}}
//	{"code": 5, "msg": "Invalid field value", "data": {}, "error_detail": "..."}
type Envelope struct {
	Code        Code           `json:"code"`
	Msg         string         `json:"msg"`
	Data        map[string]any `json:"data"`
	ErrorDetail string         `json:"error_detail,omitempty"`
}

// OK reports whether the envelope carries a success code.
func (env Envelope) OK() bool { return env.Code == CodeSuccess }

// SuccessEnvelope wraps data in a success envelope. Nil data becomes {}.
func SuccessEnvelope(data map[string]any) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{Code: Success.Code, Msg: Success.Message, Data: data}
}

// Envelope converts e into its wire form. The private detail is dropped.
func (e *Error) Envelope() Envelope {
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{
		Code:        e.Code,
		Msg:         e.Message,
		Data:        data,
		ErrorDetail: e.Detail,
	}
}

// Err rebuilds an *Error from a failure envelope using r. ok is false when
// env is a success envelope. Unknown codes become REMOTE_SERVER_ERROR with
// the remote message (and detail) preserved as public detail.
func (r *Registry) Err(env Envelope) (err *Error, ok bool) {
	if env.OK() {
		return nil, false
	}
	d, lerr := r.Lookup(env.Code)
	if lerr != nil {
		detail := env.Msg
		if env.ErrorDetail != "" {
			if detail != "" {
				detail += " (" + env.ErrorDetail + ")"
			} else {
				detail = env.ErrorDetail
			}
		}
		return RemoteServerError.WithDetail(detail).WithData(env.Data), true
	}
	return d.WithDetail(env.ErrorDetail).WithData(env.Data), true
}
