package imgur

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against an *Error's kind.
var (
	ErrTransport    = errors.New("imgur: transport failure")
	ErrDecode       = errors.New("imgur: decode failure")
	ErrAPI          = errors.New("imgur: api error")
	ErrConstruction = errors.New("imgur: client construction failed")

	// ErrMissingClientID is wrapped by New when no credential is supplied.
	ErrMissingClientID = errors.New("client id is required")
)

// Kind identifies where a failure originated.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindTransport: network, TLS, or body read failure.
	KindTransport
	// KindDecode: the body was not a valid envelope.
	KindDecode
	// KindAPI: the server answered and reported failure.
	KindAPI
	// KindConstruction: the client could not be built.
	KindConstruction
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindAPI:
		return "api"
	case KindConstruction:
		return "construction"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindDecode:
		return ErrDecode
	case KindAPI:
		return ErrAPI
	case KindConstruction:
		return ErrConstruction
	default:
		return nil
	}
}

// Error is the single error type returned by this package.
type Error struct {
	Kind Kind
	// Op names the client operation, e.g. "album_images".
	Op  string
	URL string
	// StatusCode is the HTTP status when a response was received.
	StatusCode int
	// Err is the underlying cause for transport, decode and construction failures.
	Err error
	// API is set for KindAPI.
	API *APIError
}

func (e *Error) Error() string {
	if e.Kind == KindAPI && e.API != nil {
		return e.API.Error()
	}

	prefix := "imgur"
	if e.Op != "" {
		prefix += " " + e.Op
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", prefix, e.Kind)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", prefix, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", prefix, e.Kind, e.Err)
}

// Unwrap returns the APIError for KindAPI, otherwise the underlying cause.
func (e *Error) Unwrap() error {
	if e.API != nil {
		return e.API
	}
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind Kind, op, url string, err error) *Error {
	return &Error{Kind: kind, Op: op, URL: url, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return errors.Is(err, ErrTransport) }

// IsDecode reports whether err is a decode failure.
func IsDecode(err error) bool { return errors.Is(err, ErrDecode) }

// IsAPI reports whether err is an API-reported failure.
func IsAPI(err error) bool { return errors.Is(err, ErrAPI) }

// AsAPIError extracts the API error from err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
