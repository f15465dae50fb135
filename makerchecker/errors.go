package makerchecker

import "fmt"

type Kind string

const (
	// Admission.
	KindRequestTypeAlreadySet Kind = "request_type_already_set"
	KindActorNotPermitted     Kind = "actor_not_permitted"
	KindDuplicateRequest      Kind = "duplicate_request"
	KindRequestNotInitiated   Kind = "request_not_initiated"
	KindInvalidHook           Kind = "invalid_hook"

	// Check gate.
	KindCheckerNotPermitted Kind = "checker_not_permitted"
	KindRequestNotCheckable Kind = "request_not_checkable"

	// Processing.
	KindRequestProcessingFailed Kind = "request_processing_failed"

	// Configuration.
	KindInvalidRequestModel     Kind = "invalid_request_model"
	KindUnresolvableAction      Kind = "unresolvable_action"
	KindExpirationNotConfigured Kind = "expiration_not_configured"
)

// Error is returned by every engine operation. errors.Is matches on Kind,
// so callers compare against the Err* values below.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrRequestTypeAlreadySet   = &Error{Kind: KindRequestTypeAlreadySet}
	ErrActorNotPermitted       = &Error{Kind: KindActorNotPermitted}
	ErrDuplicateRequest        = &Error{Kind: KindDuplicateRequest}
	ErrRequestNotInitiated     = &Error{Kind: KindRequestNotInitiated}
	ErrInvalidHook             = &Error{Kind: KindInvalidHook}
	ErrCheckerNotPermitted     = &Error{Kind: KindCheckerNotPermitted}
	ErrRequestNotCheckable     = &Error{Kind: KindRequestNotCheckable}
	ErrRequestProcessingFailed = &Error{Kind: KindRequestProcessingFailed}
	ErrInvalidRequestModel     = &Error{Kind: KindInvalidRequestModel}
	ErrUnresolvableAction      = &Error{Kind: KindUnresolvableAction}
	ErrExpirationNotConfigured = &Error{Kind: KindExpirationNotConfigured}
)

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func notCheckable(reason string) *Error {
	return newError(KindRequestNotCheckable, nil, "request cannot be checked: %s", reason)
}
