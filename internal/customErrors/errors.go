package customerrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"google.golang.org/grpc/codes"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"detail"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("code = %d desc = %s", e.Code, e.Message)
}

var (
	ErrInvalidCredentials = &Error{Code: http.StatusUnauthorized, Message: "No active account found with the given credentials"}
	ErrUnauthorized       = &Error{Code: http.StatusUnauthorized, Message: "Given token not valid for any token type"}
	ErrNotAuthenticated   = &Error{Code: http.StatusUnauthorized, Message: "Authentication credentials were not provided."}
	ErrBadRequest         = &Error{Code: http.StatusBadRequest, Message: "bad request"}
	ErrNotFound           = &Error{Code: http.StatusNotFound, Message: "not found"}
	ErrInternalServer     = &Error{Code: http.StatusInternalServerError, Message: "internal server error"}
	ErrDbUnreachable      = &Error{Code: http.StatusServiceUnavailable, Message: "database unreachable"}
)

// ValidationError carries per-field messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string][]string
	Err    error
}

func NewValidationError(field string, messages ...string) *ValidationError {
	v := &ValidationError{Fields: map[string][]string{}}
	v.Add(field, messages...)
	return v
}

func (v *ValidationError) Add(field string, messages ...string) {
	if v.Fields == nil {
		v.Fields = map[string][]string{}
	}
	v.Fields[field] = append(v.Fields[field], messages...)
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() error {
	return v.Err
}

func GetStatus(err error) int {
	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Code
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

func GetMessage(err error) string {
	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Message
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return "validation failed"
	}

	return ErrInternalServer.Message
}

func GetFields(err error) map[string][]string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	return nil
}

func GRPCCode(err error) codes.Code {
	switch GetStatus(err) {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
