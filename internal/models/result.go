package models

// FailureKind classifies why an operation did not succeed.
type FailureKind string

const (
	KindNone       FailureKind = ""
	KindValidation FailureKind = "validation"
	KindNotFound   FailureKind = "not_found"
	KindConflict   FailureKind = "conflict"
	KindStore      FailureKind = "store"
	KindInternal   FailureKind = "internal"
)

// Result is the uniform envelope returned by every service operation.
// Data is set only on success; Errors is set only on failure.
type Result[T any] struct {
	IsSuccess bool        `json:"isSuccess"`
	Message   string      `json:"message,omitempty"`
	Data      *T          `json:"data,omitempty"`
	Errors    []string    `json:"errors,omitempty"`
	Kind      FailureKind `json:"-"`
}

// Success wraps data in a successful envelope.
func Success[T any](data T, message string) Result[T] {
	return Result[T]{IsSuccess: true, Message: message, Data: &data}
}

// Failure builds a failed envelope. When no error details are given the
// message itself becomes the single error entry.
func Failure[T any](kind FailureKind, message string, errs ...string) Result[T] {
	if len(errs) == 0 {
		errs = []string{message}
	}
	return Result[T]{IsSuccess: false, Message: message, Errors: errs, Kind: kind}
}
