package domain

import (
	"errors"
	"sort"
	"strings"
)

// Kind classifies an Error so transports can map it without knowing every code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDomain
	KindNotFound
	KindUnauthenticated
	KindForbidden
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDomain:
		return "domain"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindFatal:
		return "fatal"
	default:
		return "internal"
	}
}

// Error is the error type returned by the identity core.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Fields holds per-field messages for validation errors.
	Fields map[string][]string
	Cause  error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(e.Message)
	b.WriteString(": ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields[k], ", "))
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates an error of the given kind.
func NewError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause to a copy of base.
func Wrap(base *Error, cause error) *Error {
	cp := *base
	cp.Cause = cause
	return &cp
}

// KindOf reports the kind of err, KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrUserNotFound            = NewError(KindNotFound, "user_not_found", "user not found")
	ErrInvalidCredentials      = NewError(KindUnauthenticated, "invalid_credentials", "invalid credentials")
	ErrCurrentPasswordMismatch = NewError(KindDomain, "current_password_incorrect", "current password is incorrect")
	ErrPasswordTooShort        = NewError(KindDomain, "password_too_short", "new password must be at least 8 characters")
	ErrPasswordNoDigit         = NewError(KindDomain, "password_no_digit", "new password must contain a digit")
	ErrPasswordNoUpper         = NewError(KindDomain, "password_no_upper", "new password must contain an uppercase letter")
	ErrPasswordNoLower         = NewError(KindDomain, "password_no_lower", "new password must contain a lowercase letter")
	ErrPasswordNoSymbol        = NewError(KindDomain, "password_no_symbol", "new password must contain a symbol")
	ErrPasswordUnchanged       = NewError(KindDomain, "password_unchanged", "new password must differ from the current one")
	ErrMailRequired            = NewError(KindDomain, "mail_required", "mail is required")
	ErrCIExists                = NewError(KindDomain, "ci_exists", "CI already exists")
	ErrMailExists              = NewError(KindDomain, "mail_exists", "mail already exists")
	ErrUsernameTaken           = NewError(KindDomain, "username_taken", "username already exists")
	ErrForbidden               = NewError(KindForbidden, "forbidden", "action not allowed")
	ErrInvalidToken            = NewError(KindUnauthenticated, "invalid_token", "invalid token")
	ErrMissingSigningKey       = NewError(KindFatal, "missing_signing_key", "token signing key is not configured")
	ErrRandomSource            = NewError(KindFatal, "random_source", "secure random source failed")
)

// NewValidationError builds a validation error from field messages.
func NewValidationError(fields map[string][]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    "validation_failed",
		Message: "validation failed",
		Fields:  fields,
	}
}
