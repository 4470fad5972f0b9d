package token

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindMalformed Kind = iota + 1
	KindBadSignature
	KindExpired
	KindWrongType
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindBadSignature:
		return "bad_signature"
	case KindExpired:
		return "expired"
	case KindWrongType:
		return "wrong_type"
	default:
		return "unknown"
	}
}

// Error is a verification failure. errors.Is matches it against the Err*
// sentinels by kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "token: " + e.Kind.String()
	}
	return fmt.Sprintf("token: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrMalformed    = &Error{Kind: KindMalformed}
	ErrBadSignature = &Error{Kind: KindBadSignature}
	ErrExpired      = &Error{Kind: KindExpired}
	ErrWrongType    = &Error{Kind: KindWrongType}

	ErrInvalidRefreshToken = errors.New("token: invalid refresh token")
)

// KindOf returns the failure kind carried by err, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
