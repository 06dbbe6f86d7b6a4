package bleproto

import (
	"errors"
	"fmt"
)

// Kind distinguishes the error taxonomy the outer interface needs to
// react differently to: a dropped link is not the same UX as a timed
// out command, which is not the same as a rejected handshake.
type Kind int

const (
	KindLink Kind = iota
	KindProtocol
	KindTimeout
	KindAuthRejected
	KindNotAuthenticated
	KindUnknownAction
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "LinkError"
	case KindProtocol:
		return "ProtocolError"
	case KindTimeout:
		return "Timeout"
	case KindAuthRejected:
		return "AuthRejected"
	case KindNotAuthenticated:
		return "NotAuthenticated"
	case KindUnknownAction:
		return "UnknownAction"
	case KindBadRequest:
		return "BadRequest"
	default:
		return "Unknown"
	}
}

// Error is the tagged error sum propagated from the codec and session
// layers up to the dispatch facade.
type Error struct {
	Kind    Kind
	Code    byte // meaningful only for KindAuthRejected
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindAuthRejected {
		if e.Message != "" {
			return fmt.Sprintf("%s (code=0x%02X): %s", e.Kind, e.Code, e.Message)
		}
		return fmt.Sprintf("%s (code=0x%02X)", e.Kind, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewLinkError(msg string, err error) *Error {
	return &Error{Kind: KindLink, Message: msg, Err: err}
}

func NewProtocolError(msg string) *Error {
	return &Error{Kind: KindProtocol, Message: msg}
}

func NewTimeoutError(msg string) *Error {
	return &Error{Kind: KindTimeout, Message: msg}
}

func NewAuthRejected(code byte, msg string) *Error {
	return &Error{Kind: KindAuthRejected, Code: code, Message: msg}
}

func NewNotAuthenticated() *Error {
	return &Error{Kind: KindNotAuthenticated, Message: "command attempted before VERIFY succeeded"}
}

func NewUnknownAction(action string) *Error {
	return &Error{Kind: KindUnknownAction, Message: fmt.Sprintf("unknown action: %s", action)}
}

func NewBadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
