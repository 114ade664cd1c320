package apierr

import "net/http"

// Code is a stable, numeric error identifier. It is the identity of an error
// across service boundaries: a peer that receives an envelope with a known
// code reconstructs the same error locally.
type Code int

// CodeSuccess is reserved for successful responses.
const CodeSuccess Code = 0

// DefaultStatus is the HTTP status used by descriptors that do not set one.
const DefaultStatus = http.StatusUnprocessableEntity

// Built-in taxonomy. Applications add their own descriptors with
// MustRegister during package initialization.
var (
	// Generic
	Success          = Default.MustRegister(Descriptor{Code: CodeSuccess, Name: "SUCCESS", Message: "Success", Status: http.StatusOK})
	UnknownError     = Default.MustRegister(Descriptor{Code: 500, Name: "UNKNOWN_ERROR", Message: "Unknown error", Status: http.StatusInternalServerError})
	BadRequest       = Default.MustRegister(Descriptor{Code: 400, Name: "BAD_REQUEST", Message: "Bad request", Status: http.StatusBadRequest})
	PermissionDenied = Default.MustRegister(Descriptor{Code: 403, Name: "PERMISSION_DENIED", Message: "Permission denied", Status: http.StatusForbidden})
	NotFound         = Default.MustRegister(Descriptor{Code: 404, Name: "NOT_FOUND", Message: "Resource not found", Status: http.StatusNotFound})
	MethodNotAllowed = Default.MustRegister(Descriptor{Code: 405, Name: "METHOD_NOT_ALLOWED", Message: "Method not allowed", Status: http.StatusMethodNotAllowed})
	Unprocessable    = Default.MustRegister(Descriptor{Code: 422, Name: "UNPROCESSABLE", Message: "Unprocessable entity", Status: http.StatusUnprocessableEntity})

	// Request fields
	FieldMissing      = Default.MustRegister(Descriptor{Code: 2, Name: "FIELD_MISSING", Message: "Field missing"})
	WrongFieldType    = Default.MustRegister(Descriptor{Code: 3, Name: "WRONG_FIELD_TYPE", Message: "Invalid field type"})
	NotAcceptable     = Default.MustRegister(Descriptor{Code: 4, Name: "NOT_ACCEPTABLE", Message: "Invalid content-type"})
	InvalidFieldValue = Default.MustRegister(Descriptor{Code: 5, Name: "INVALID_FIELD_VALUE", Message: "Invalid field value"})
	TooManyFields     = Default.MustRegister(Descriptor{Code: 9, Name: "TOO_MANY_FIELDS", Message: "Too many fields sent"})

	// Downstream
	RemoteServerError = Default.MustRegister(Descriptor{Code: 6, Name: "REMOTE_SERVER_ERROR", Message: "Remote server error", Status: http.StatusServiceUnavailable})

	// Persistence
	AlreadyExists   = Default.MustRegister(Descriptor{Code: 7, Name: "ALREADY_EXISTS", Message: "Resource already exists"})
	MultipleRecords = Default.MustRegister(Descriptor{Code: 8, Name: "MULTIPLE_RECORDS", Message: "Multiple records matched"})
)

// MalformedSource is the descriptor raised when a request body cannot be
// parsed as its declared content type.
var MalformedSource = NotAcceptable
