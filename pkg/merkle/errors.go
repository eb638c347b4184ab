// Copyright 2025 Shadow Atlas Contributors

package merkle

import "errors"

var (
	ErrEmptyTree       = errors.New("cannot build tree from empty leaves")
	ErrInvalidProof    = errors.New("invalid merkle proof")
	ErrLeafNotFound    = errors.New("leaf not found in tree")
	ErrInvalidGeometry = errors.New("geometry must be non-empty to hash")
	errInvalidHex      = errors.New("invalid hex field element")
)
