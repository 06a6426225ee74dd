package apperror

import "errors"

// Kind describes a stable error category that can be mapped to HTTP status codes.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
)

// FieldError points at one rejected input field.
type FieldError struct {
	Field    string      `json:"field"`
	Message  string      `json:"message"`
	Rejected interface{} `json:"rejectedValue"`
}

// Error is a typed error with a stable Kind and a human-readable message.
// Msg should be safe to return to clients for Validation/NotFound/Conflict.
// Fields carries every violated field when the error aggregates several of them.
type Error struct {
	Kind   Kind
	Msg    string
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func NotFound(msg string, err error) error   { return New(KindNotFound, msg, err) }
func Validation(msg string, err error) error { return New(KindValidation, msg, err) }
func Conflict(msg string, err error) error   { return New(KindConflict, msg, err) }

// ForField builds an error of the given kind attached to a single field.
func ForField(kind Kind, field, msg string, rejected interface{}) error {
	return &Error{
		Kind:   kind,
		Msg:    msg,
		Fields: []FieldError{{Field: field, Message: msg, Rejected: rejected}},
	}
}

// Invalid aggregates field violations into one validation error.
// Returns nil when fields is empty.
func Invalid(msg string, fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Fields returns the field violations carried by err, if any.
func Fields(err error) []FieldError {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	return e.Fields
}
