package cluster

import "errors"

// ErrEmptyRepository indicates clustering was requested over zero images.
var ErrEmptyRepository = errors.New("cannot cluster an empty repository")

// ErrVectorLengthMismatch indicates a vector does not match the centroid dimension.
var ErrVectorLengthMismatch = errors.New("vector length mismatch")
