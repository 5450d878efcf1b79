package internal

import (
	"errors"
	"fmt"
)

// StorageError represents errors accessing the local store
type StorageError struct {
	Path string
	Op   string // "open", "get", "set", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing locally persisted data
type ParseError struct {
	Source string // "ledger", "results"
	Key    string // storage key or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies a failure surfaced to the user.
type ErrorKind int

const (
	// KindTransport means the request never completed.
	KindTransport ErrorKind = iota + 1
	// KindServerDetail is a non-2xx response carrying a server message.
	KindServerDetail
	// KindServerStatus is a non-2xx response with nothing but a status code.
	KindServerStatus
	// KindValidation is a client-side validation failure; nothing was sent.
	KindValidation
	// KindAuthRequired means the operation needs a signed-in user.
	KindAuthRequired
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServerDetail:
		return "server_detail"
	case KindServerStatus:
		return "server_status"
	case KindValidation:
		return "validation"
	case KindAuthRequired:
		return "auth_required"
	default:
		return "unknown"
	}
}

// Error is the single failure type produced at the API boundary and by
// client-side validation. Error() returns the user-facing message.
type Error struct {
	Kind   ErrorKind
	Op     string // e.g. "POST /api/desambiguar"
	Status int    // HTTP status, 0 when no response was received
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServerStatus:
		return fmt.Sprintf("server error (%d)", e.Status)
	case KindTransport:
		if e.Detail != "" {
			return e.Detail
		}
		return "cannot connect to the server"
	default:
		return e.Detail
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AuthError is a failed login or registration. Message is what the user
// sees; the underlying *Error stays reachable through Unwrap.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

var (
	// ErrAuthRequired is returned when a task is submitted without a session.
	ErrAuthRequired = &Error{Kind: KindAuthRequired, Detail: "please sign in to analyze tasks"}

	// ErrAnalysisInFlight is returned when a second analysis is submitted
	// while one is still running.
	ErrAnalysisInFlight = errors.New("an analysis is already in progress")

	// ErrNoResult is returned when there is no saved result to work with.
	ErrNoResult = errors.New("no saved result")
)

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsAuthRequired reports whether err asks the user to sign in.
func IsAuthRequired(err error) bool {
	return KindOf(err) == KindAuthRequired
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Detail: msg}
}
