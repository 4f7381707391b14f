package imagefy

import (
	"os"

	imagefyerrors "github.com/flaneur2020/imagefy/imagefy/errors"
)

// NewPathNotFoundError creates a path not found error
func NewPathNotFoundError(path string) error {
	return imagefyerrors.ErrPathNotFound.WithDetail("path", path)
}

// NewPathTypeError creates an error for a path that is a directory when a
// file was expected, or the reverse
func NewPathTypeError(path string, wantDir bool) error {
	msg := "path is not a file"
	if wantDir {
		msg = "path is not a directory"
	}
	return imagefyerrors.ErrPathTypeMismatch.
		WithMessage(msg).
		WithDetail("path", path)
}

// NewIOError creates an i/o error for an operation on path
func NewIOError(op string, path string, cause error) error {
	return imagefyerrors.ErrIO.
		WithDetail("op", op).
		WithDetail("path", path).
		WithCause(cause)
}

// NewImageCodecError creates an image codec error
func NewImageCodecError(path string, cause error) error {
	return imagefyerrors.ErrImageCodec.
		WithDetail("path", path).
		WithCause(cause)
}

// NewCancelledError wraps a context error; it still matches
// context.Canceled or context.DeadlineExceeded through errors.Is.
func NewCancelledError(op string, path string, cause error) error {
	return imagefyerrors.ErrCancelled.
		WithDetail("op", op).
		WithDetail("path", path).
		WithCause(cause)
}

// statError classifies a failed stat or open of path.
func statError(op string, path string, err error) error {
	if os.IsNotExist(err) {
		return NewPathNotFoundError(path)
	}
	return NewIOError(op, path, err)
}
