// Package fault defines the typed errors returned by the incident workflow and
// their mapping to HTTP status codes.
package fault

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind groups errors by how the caller should react to them.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindPrecondition
	KindNotFound
	KindReconciliation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindNotFound:
		return "not_found"
	case KindReconciliation:
		return "reconciliation"
	default:
		return "unknown"
	}
}

// Error is a workflow error. Two errors match under errors.Is when their codes
// are equal, so the package-level sentinels can be compared against errors
// built with Wrap.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Records names the record ids written before a multi-step operation
	// failed. Only set on reconciliation errors.
	Records map[string]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(strings.ReplaceAll(e.Code, "_", " "))
	}
	if len(e.Records) > 0 {
		keys := make([]string, 0, len(e.Records))
		for k := range e.Records {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Records[k])
		}
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a fault error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func sentinel(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

// Validation errors.
var (
	ErrInvalidTaxonomy = sentinel(KindValidation, "invalid_taxonomy")
	ErrMissingField    = sentinel(KindValidation, "missing_field")
	ErrInvalidValue    = sentinel(KindValidation, "invalid_value")
	ErrNotResponder    = sentinel(KindValidation, "not_responder")
)

// Precondition errors.
var (
	ErrInvalidTransition    = sentinel(KindPrecondition, "invalid_transition")
	ErrVerificationInFlight = sentinel(KindPrecondition, "verification_in_flight")
	ErrNoCaptainConfigured  = sentinel(KindPrecondition, "no_captain_configured")
	ErrAlreadyResolved      = sentinel(KindPrecondition, "already_resolved")
	ErrMessageNotVerified   = sentinel(KindPrecondition, "message_not_verified")
	ErrDuplicateCaptain     = sentinel(KindPrecondition, "duplicate_captain")
)

// Not-found errors.
var (
	ErrRecordNotFound  = sentinel(KindNotFound, "record_not_found")
	ErrRequestNotFound = sentinel(KindNotFound, "request_not_found")
	ErrContactNotFound = sentinel(KindNotFound, "contact_not_found")
)

// ErrReconciliation marks a multi-step write that stopped part way.
var ErrReconciliation = sentinel(KindReconciliation, "reconciliation_required")

// New returns a copy of the sentinel with a formatted message.
func New(base *Error, format string, args ...any) *Error {
	return &Error{
		Kind:    base.Kind,
		Code:    base.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap is New with an underlying cause.
func Wrap(base *Error, cause error, format string, args ...any) *Error {
	e := New(base, format, args...)
	e.Err = cause
	return e
}

// Reconcile builds a reconciliation error naming the records already written.
func Reconcile(cause error, records map[string]string, format string, args ...any) *Error {
	e := Wrap(ErrReconciliation, cause, format, args...)
	e.Records = records
	return e
}

// KindOf returns the kind of the first fault error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error to the status code the REST layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindPrecondition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// As returns the first fault error in err's chain, or nil.
func As(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}
