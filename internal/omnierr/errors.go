// Package omnierr defines the negative-integer error taxonomy shared by every
// domain package and surfaced verbatim in dispatcher responses.
package omnierr

import "fmt"

// Code is a taxonomy error code. Zero is success; everything else is negative.
type Code int

const (
	Success             Code = 0
	NotFound            Code = -1
	PermissionDenied    Code = -2
	IOError             Code = -3
	InvalidPath         Code = -4
	FileExists          Code = -5
	NoSpace             Code = -6
	InvalidConfig       Code = -7
	NotImplemented      Code = -8
	InvalidSession      Code = -9
	DirectoryNotEmpty   Code = -10
	InvalidOperation    Code = -11
	Internal            Code = -500
)

// String returns a short human label for the code.
func (c Code) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case NotFound:
		return "NOT_FOUND"
	case PermissionDenied:
		return "PERMISSION_DENIED"
	case IOError:
		return "IO_ERROR"
	case InvalidPath:
		return "INVALID_PATH"
	case FileExists:
		return "FILE_EXISTS"
	case NoSpace:
		return "NO_SPACE"
	case InvalidConfig:
		return "INVALID_CONFIG"
	case NotImplemented:
		return "NOT_IMPLEMENTED"
	case InvalidSession:
		return "INVALID_SESSION"
	case DirectoryNotEmpty:
		return "DIRECTORY_NOT_EMPTY"
	case InvalidOperation:
		return "INVALID_OPERATION"
	case Internal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Error is the domain error type returned by every package below the
// dispatcher. The dispatcher maps it to a response object verbatim.
type Error struct {
	Code    Code
	Message string
	Path    string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithPath builds an Error carrying the offending path.
func WithPath(code Code, message, path string) *Error {
	return &Error{Code: code, Message: message, Path: path}
}

func NewNotFound(message, path string) *Error {
	return WithPath(NotFound, message, path)
}

func NewPermissionDenied(message string) *Error {
	return New(PermissionDenied, message)
}

func NewIOError(message string) *Error {
	return New(IOError, message)
}

func NewInvalidPath(message, path string) *Error {
	return WithPath(InvalidPath, message, path)
}

func NewFileExists(message, path string) *Error {
	return WithPath(FileExists, message, path)
}

func NewNoSpace(message string) *Error {
	return New(NoSpace, message)
}

func NewInvalidConfig(message string) *Error {
	return New(InvalidConfig, message)
}

func NewInvalidSession(message string) *Error {
	return New(InvalidSession, message)
}

func NewDirectoryNotEmpty(message, path string) *Error {
	return WithPath(DirectoryNotEmpty, message, path)
}

func NewInvalidOperation(message string) *Error {
	return New(InvalidOperation, message)
}

// As extracts an *Error from a generic error, if present.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
