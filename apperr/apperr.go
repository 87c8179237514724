package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies an expected business failure so handlers can map it to an
// HTTP status and the client can render a specific message.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindEligibility       Kind = "eligibility"
	KindGeofence          Kind = "geofence"
	KindInsufficientStock Kind = "insufficient_stock"
	KindUnavailable       Kind = "unavailable"
	KindUnexpected        Kind = "unexpected"
)

// Error is the common shape of all business errors in this package.
type Error struct {
	Kind    Kind
	Message string
	// Detail carries machine-readable context (offending items, distances)
	// and is rendered into the JSON error body as-is.
	Detail map[string]any
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// HTTPStatus maps the error kind to a status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindEligibility, KindGeofence:
		return http.StatusForbidden
	case KindInvalidState, KindInsufficientStock, KindUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func InsufficientStock(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

func Unavailable(format string, args ...any) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...)}
}

func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: err.Error()}
}

// OverdueItem names one piece of equipment blocking a new request.
type OverdueItem struct {
	Name       string    `json:"name"`
	BorrowedAt time.Time `json:"borrowedAt"`
}

// Eligibility builds the overdue-lockout rejection carrying the full list of
// offending items so the caller can show them to the requester.
func Eligibility(items []OverdueItem) *Error {
	return &Error{
		Kind:    KindEligibility,
		Message: "requester holds overdue equipment",
		Detail:  map[string]any{"overdueItems": items},
	}
}

// Geofence builds the distance rejection carrying both the computed distance
// and the configured limit.
func Geofence(distanceKM, limitKM float64) *Error {
	return &Error{
		Kind:    KindGeofence,
		Message: fmt.Sprintf("requester is %.1f km from the cabinet, limit is %.1f km", distanceKM, limitKM),
		Detail:  map[string]any{"distanceKm": distanceKM, "limitKm": limitKM},
	}
}

// As unwraps err into *Error when possible.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
