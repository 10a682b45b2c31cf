package metabridge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeConflict    ErrorType = "conflict"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeRemote      ErrorType = "remote"
	ErrorTypeUnsupported ErrorType = "unsupported"
	ErrorTypeInternal    ErrorType = "internal"
)

// Error codes.
const (
	ErrCodeTypeNotSupported     = "TYPE_NOT_SUPPORTED"
	ErrCodeFunctionNotSupported = "FUNCTION_NOT_SUPPORTED"
	ErrCodeHomeConflict         = "HOME_COLLECTION_CONFLICT"
	ErrCodeInvalidInstance      = "INVALID_INSTANCE"
	ErrCodePropertyNotKnown     = "PROPERTY_NOT_KNOWN"
	ErrCodeRemoteFailure        = "REMOTE_FAILURE"
	ErrCodeEntityNotFound       = "ENTITY_NOT_FOUND"
	ErrCodeRelationshipNotFound = "RELATIONSHIP_NOT_FOUND"
	ErrCodeMalformedEnds        = "MALFORMED_RELATIONSHIP_ENDS"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// BridgeError is the unified error type for the adapter. Type-level failures
// carry the canonical type name and the adapter identity so operators can
// locate the mapping that needs attention.
type BridgeError struct {
	Type      ErrorType      `json:"type"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	TypeName  string         `json:"typeName,omitempty"`
	AdapterID string         `json:"adapterId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
}

func (e *BridgeError) Error() string {
	if e.TypeName != "" {
		return fmt.Sprintf("[%s:%s] type %q: %s", e.Type, e.Code, e.TypeName, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail to the error.
func (e *BridgeError) WithDetail(key string, value any) *BridgeError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches an underlying cause.
func (e *BridgeError) WithCause(cause error) *BridgeError {
	e.Cause = cause
	return e
}

// NewBridgeError creates a new BridgeError.
func NewBridgeError(errorType ErrorType, code, message string) *BridgeError {
	return &BridgeError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewTypeNotSupportedError reports a canonical type that cannot be fully
// represented in the vendor type system.
func NewTypeNotSupportedError(typeName, adapterID string, reasons []string) *BridgeError {
	msg := "type cannot be represented in the vendor type system"
	if len(reasons) > 0 {
		msg = msg + ": " + strings.Join(reasons, "; ")
	}
	return &BridgeError{
		Type:      ErrorTypeUnsupported,
		Code:      ErrCodeTypeNotSupported,
		Message:   msg,
		TypeName:  typeName,
		AdapterID: adapterID,
	}
}

// NewFunctionNotSupportedError reports an operation the vendor cannot serve
// at all, such as historical (as-of-time) queries.
func NewFunctionNotSupportedError(function, adapterID string) *BridgeError {
	return &BridgeError{
		Type:      ErrorTypeUnsupported,
		Code:      ErrCodeFunctionNotSupported,
		Message:   fmt.Sprintf("operation %q is not supported by this repository", function),
		AdapterID: adapterID,
	}
}

// NewHomeConflictError reports a reference-copy write whose target identifier
// is already owned by a different home collection.
func NewHomeConflictError(guid, existingHome, incomingHome string) *BridgeError {
	e := &BridgeError{
		Type:    ErrorTypeConflict,
		Code:    ErrCodeHomeConflict,
		Message: fmt.Sprintf("instance %q is homed in collection %q, not %q", guid, existingHome, incomingHome),
	}
	return e.WithDetail("guid", guid).
		WithDetail("existingHome", existingHome).
		WithDetail("incomingHome", incomingHome)
}

// NewInvalidInstanceError reports mandatory header fields missing from an
// instance being written. All missing fields are reported together.
func NewInvalidInstanceError(guid string, missing []string) *BridgeError {
	e := &BridgeError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeInvalidInstance,
		Message: fmt.Sprintf("instance is missing mandatory fields: %s", strings.Join(missing, ", ")),
	}
	return e.WithDetail("guid", guid).WithDetail("missingFields", missing)
}

// NewPropertyNotKnownError reports a canonical property supplied on a write
// that has no vendor-side mapping. The write path rejects rather than drops.
func NewPropertyNotKnownError(property, typeName string) *BridgeError {
	e := &BridgeError{
		Type:     ErrorTypeValidation,
		Code:     ErrCodePropertyNotKnown,
		Message:  fmt.Sprintf("property %q has no vendor mapping", property),
		TypeName: typeName,
	}
	return e.WithDetail("property", property)
}

// NewRemoteFailureError wraps a vendor service failure.
func NewRemoteFailureError(operation string, cause error) *BridgeError {
	e := &BridgeError{
		Type:    ErrorTypeRemote,
		Code:    ErrCodeRemoteFailure,
		Message: fmt.Sprintf("vendor request %q failed", operation),
		Cause:   cause,
	}
	return e.WithDetail("operation", operation)
}

// NewEntityNotFoundError reports an unknown entity identifier.
func NewEntityNotFoundError(guid string) *BridgeError {
	e := &BridgeError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeEntityNotFound,
		Message: fmt.Sprintf("entity %q is not known to the repository", guid),
	}
	return e.WithDetail("guid", guid)
}

// NewRelationshipNotFoundError reports an unknown relationship identifier.
func NewRelationshipNotFoundError(guid string) *BridgeError {
	e := &BridgeError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeRelationshipNotFound,
		Message: fmt.Sprintf("relationship %q is not known to the repository", guid),
	}
	return e.WithDetail("guid", guid)
}

// NewMalformedEndsError reports a relationship whose endpoint configuration
// cannot be oriented. This is a hard failure: guessing the orientation would
// corrupt relationship direction semantics.
func NewMalformedEndsError(vendorRelationship, attribute string) *BridgeError {
	e := &BridgeError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeMalformedEnds,
		Message: fmt.Sprintf("relationship type %q has no endpoint mapping matching attribute %q", vendorRelationship, attribute),
	}
	return e.WithDetail("vendorRelationship", vendorRelationship).WithDetail("attribute", attribute)
}

// HasErrorCode reports whether err is (or wraps) a BridgeError with the given
// code.
func HasErrorCode(err error, code string) bool {
	var be *BridgeError
	return errors.As(err, &be) && be.Code == code
}

// IsTypeNotSupported reports whether err is a type-level NotSupported error.
func IsTypeNotSupported(err error) bool { return HasErrorCode(err, ErrCodeTypeNotSupported) }

// IsConflict reports whether err is a home-collection conflict.
func IsConflict(err error) bool { return HasErrorCode(err, ErrCodeHomeConflict) }

// IsNotFound reports whether err is an entity or relationship not-found.
func IsNotFound(err error) bool {
	return HasErrorCode(err, ErrCodeEntityNotFound) || HasErrorCode(err, ErrCodeRelationshipNotFound)
}

// IsFunctionNotSupported reports whether err marks an unsupported operation.
func IsFunctionNotSupported(err error) bool { return HasErrorCode(err, ErrCodeFunctionNotSupported) }
