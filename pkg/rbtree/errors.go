package rbtree

import "errors"

// Sentinel errors returned by tree operations.
var (
	// ErrDuplicateKey is returned by Insert when the key is already stored.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrKeyNotFound is returned by Remove when the key is not stored.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvariantViolation is returned by Validate when the tree is malformed.
	ErrInvariantViolation = errors.New("red-black invariant violated")
)
