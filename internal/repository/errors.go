// Package repository defines the persistence contracts used by the
// services and their MySQL implementation.  Sentinel values let higher
// layers distinguish failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint,
// such as a second hall with the same name.
var ErrConflict = errors.New("conflict")

// ErrReadOnly is returned when a write is attempted inside a read-only
// unit of work.
var ErrReadOnly = errors.New("write in read-only transaction")
