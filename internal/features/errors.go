package features

import (
	"errors"
	"fmt"
)

// ErrInvalidImage matches every *InvalidImageError.
var ErrInvalidImage = errors.New("invalid image")

// Kinds of invalid image, carried by InvalidImageError.Kind.
var (
	ErrUnsupportedFormat = errors.New("unsupported file extension")
	ErrUnreadable        = errors.New("cannot read file")
	ErrUndecodable       = errors.New("cannot decode image")
	ErrMalformedImage    = errors.New("malformed image")
)

// Feature matrix errors.
var (
	ErrRowLength   = errors.New("feature vector length mismatch")
	ErrDuplicateID = errors.New("duplicate image identifier")
)

// InvalidImageError reports why a file cannot be used as a repository image.
type InvalidImageError struct {
	Path string
	Kind error
	Err  error
}

func (e *InvalidImageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid image %s: %v: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("invalid image %s: %v", e.Path, e.Kind)
}

// Unwrap exposes ErrInvalidImage, the kind and the underlying cause to errors.Is.
func (e *InvalidImageError) Unwrap() []error {
	out := []error{ErrInvalidImage}
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func invalid(path string, kind, err error) error {
	return &InvalidImageError{Path: path, Kind: kind, Err: err}
}
