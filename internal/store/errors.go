package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrReadOnly is returned when a write method is called inside View.
var ErrReadOnly = errors.New("write attempted in read-only transaction")
