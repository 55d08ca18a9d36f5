// Package errors gives every failure in the bridge a stable code that logs
// and callers can match on, while keeping the standard wrapping chain.
package errors

// ErrorCode names a failure kind, e.g. "source_unavailable".
type ErrorCode string

// Error is a coded error. WithMessage and WithData return copies.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	// Data is the value attached with WithData, or nil.
	Data() any
	Unwrap() error
}

// Factory builds coded errors. Each package declares its own codes and
// creates errors through errors.New().
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
