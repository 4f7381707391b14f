package errors

import (
	"errors"
	"fmt"
)

// Error types for imagefy operations
var (
	// ErrPathNotFound is returned when an input path does not exist
	ErrPathNotFound = &ImagefyError{Code: "PATH_NOT_FOUND", Message: "path not found"}

	// ErrPathTypeMismatch is returned when a file was expected and a directory was given, or the reverse
	ErrPathTypeMismatch = &ImagefyError{Code: "PATH_TYPE_MISMATCH", Message: "unexpected path type"}

	// ErrOutputCollision is returned when an output directory would overwrite an existing one
	ErrOutputCollision = &ImagefyError{Code: "OUTPUT_COLLISION", Message: "output path already exists"}

	// ErrImageAlreadyExists is returned when the encoder would overwrite an image
	ErrImageAlreadyExists = &ImagefyError{Code: "IMAGE_ALREADY_EXISTS", Message: "image already exists"}

	// ErrOutputAlreadyExists is returned when the decoder would overwrite a file
	ErrOutputAlreadyExists = &ImagefyError{Code: "OUTPUT_ALREADY_EXISTS", Message: "output file already exists"}

	// ErrHeaderTooLarge is returned when the container header does not fit in one image
	ErrHeaderTooLarge = &ImagefyError{Code: "HEADER_TOO_LARGE", Message: "container header does not fit in one image"}

	// ErrInvalidHeader is returned when the first image does not carry a valid container header
	ErrInvalidHeader = &ImagefyError{Code: "INVALID_HEADER", Message: "invalid container header"}

	// ErrImageCodec is returned when PNG encoding or decoding fails
	ErrImageCodec = &ImagefyError{Code: "IMAGE_CODEC_ERROR", Message: "image codec failure"}

	// ErrIO is returned on read, write or metadata failures
	ErrIO = &ImagefyError{Code: "IO_ERROR", Message: "i/o failure"}

	// ErrInvalidDimensions is returned when width or height cannot describe an image
	ErrInvalidDimensions = &ImagefyError{Code: "INVALID_DIMENSIONS", Message: "invalid image dimensions"}

	// ErrNoInput is returned when no input path was supplied
	ErrNoInput = &ImagefyError{Code: "NO_INPUT", Message: "no input detected"}

	// ErrCancelled is returned when the context is cancelled between images
	ErrCancelled = &ImagefyError{Code: "CANCELLED", Message: "operation cancelled"}

	// ErrConfirmationDeclined is returned when the user answers no to a prompt
	ErrConfirmationDeclined = &ImagefyError{Code: "CONFIRMATION_DECLINED", Message: "confirmation failed"}
)

// ImagefyError represents a structured error in imagefy operations
type ImagefyError struct {
	Code    string                 // Error code for programmatic handling
	Message string                 // Human-readable error message
	Cause   error                  // Underlying error, if any
	Details map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *ImagefyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if len(e.Details) > 0 {
		return fmt.Sprintf("[%s] %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ImagefyError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same error code, so derived errors
// still match their sentinel with errors.Is.
func (e *ImagefyError) Is(target error) bool {
	t, ok := target.(*ImagefyError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause adds a cause to the error
func (e *ImagefyError) WithCause(cause error) *ImagefyError {
	return &ImagefyError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
		Details: e.Details,
	}
}

// WithDetail adds a detail key-value pair to the error
func (e *ImagefyError) WithDetail(key string, value interface{}) *ImagefyError {
	details := make(map[string]interface{})
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &ImagefyError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: details,
	}
}

// WithMessage overrides the error message
func (e *ImagefyError) WithMessage(message string) *ImagefyError {
	return &ImagefyError{
		Code:    e.Code,
		Message: message,
		Cause:   e.Cause,
		Details: e.Details,
	}
}

// IsImagefyError checks if an error is, or wraps, an ImagefyError
func IsImagefyError(err error) bool {
	var imagefyErr *ImagefyError
	return errors.As(err, &imagefyErr)
}

// GetErrorCode extracts the error code from an ImagefyError
func GetErrorCode(err error) string {
	var imagefyErr *ImagefyError
	if errors.As(err, &imagefyErr) {
		return imagefyErr.Code
	}
	return ""
}
