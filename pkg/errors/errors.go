package errors

import (
	"errors"
	"fmt"
)

// Code identifies a failure category surfaced to the operator. The asset
// codes mirror the inline error conditions of the activation workflow; the
// remaining codes cover the ambient client concerns.
type Code string

const (
	CodeMissingImage Code = "MISSING_IMAGE"
	CodeMissingVideo Code = "MISSING_VIDEO"
	CodeVideoTooBig  Code = "VIDEO_TOO_BIG"
	CodeUpload       Code = "UPLOAD_ERROR"
	CodeDecode       Code = "DECODE_ERROR"
	CodeEncode       Code = "ENCODE_ERROR"
	CodeValidation   Code = "VALIDATION"
	CodeAuth         Code = "AUTHENTICATION"
	CodeExternal     Code = "EXTERNAL"
)

// AppError is a structured application error carrying a failure code.
type AppError struct {
	Code     Code
	Message  string
	Internal error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// CodeOf extracts the failure code from err, or "" if err carries none.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// NewMissingImageError reports a submit attempt without a triggering image.
func NewMissingImageError() *AppError {
	return &AppError{Code: CodeMissingImage, Message: "activation has no triggering image"}
}

// NewMissingVideoError reports a submit attempt without a video resource.
func NewMissingVideoError() *AppError {
	return &AppError{Code: CodeMissingVideo, Message: "activation has no video resource"}
}

// NewVideoTooBigError reports a video file at or above the upload ceiling.
func NewVideoTooBigError(size, limit int64) *AppError {
	return &AppError{
		Code:    CodeVideoTooBig,
		Message: fmt.Sprintf("video is %d bytes, limit is %d", size, limit),
	}
}

// NewUploadError wraps a failed asset upload for one slot.
func NewUploadError(slot string, internal error) *AppError {
	return &AppError{
		Code:     CodeUpload,
		Message:  fmt.Sprintf("upload failed for %s", slot),
		Internal: internal,
	}
}

// NewDecodeError wraps a source image that could not be decoded.
func NewDecodeError(internal error) *AppError {
	return &AppError{Code: CodeDecode, Message: "cannot decode source image", Internal: internal}
}

// NewEncodeError wraps a derivative that could not be re-encoded.
func NewEncodeError(format string, internal error) *AppError {
	return &AppError{
		Code:     CodeEncode,
		Message:  fmt.Sprintf("cannot encode %s derivative", format),
		Internal: internal,
	}
}

// NewValidationError creates a new field validation error
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{Code: CodeAuth, Message: message}
}

// NewExternalError creates a new remote API error
func NewExternalError(message string, internal error) *AppError {
	return &AppError{Code: CodeExternal, Message: message, Internal: internal}
}
