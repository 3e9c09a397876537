package wallet

import (
	"errors"
	"fmt"
)

// Kind classifies wallet session failures.
type Kind int

const (
	// KindProviderUnavailable means no wallet provider is attached.
	KindProviderUnavailable Kind = iota + 1
	// KindProviderRequestFailed covers rejected or errored provider calls, including user rejection.
	KindProviderRequestFailed
	// KindMalformedResponse means the provider answered with an unexpected shape.
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindProviderUnavailable:
		return "provider unavailable"
	case KindProviderRequestFailed:
		return "provider request failed"
	case KindMalformedResponse:
		return "malformed response"
	default:
		return "unknown"
	}
}

// InstallPrompt is shown to users when no wallet provider can be found.
const InstallPrompt = "Please install MetaMask or another Web3 wallet!"

var (
	ErrProviderUnavailable   = &Error{Kind: KindProviderUnavailable}
	ErrProviderRequestFailed = &Error{Kind: KindProviderRequestFailed}
	ErrMalformedResponse     = &Error{Kind: KindMalformedResponse}

	// ErrConnectInFlight is returned when Connect is called while another connect is pending.
	ErrConnectInFlight = errors.New("wallet connect already in progress")
)

// Error is a classified session failure. errors.Is matches on Kind.
type Error struct {
	Kind   Kind
	Method string
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindProviderUnavailable {
		return InstallPrompt
	}
	msg := e.Kind.String()
	if e.Method != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Method)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func requestFailed(method string, err error) error {
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: KindProviderRequestFailed, Method: method, Err: err}
}

func malformed(method string, format string, args ...any) error {
	return &Error{Kind: KindMalformedResponse, Method: method, Err: fmt.Errorf(format, args...)}
}
