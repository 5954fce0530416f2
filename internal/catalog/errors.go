package catalog

import (
	"errors"
	"fmt"
)

// Error variables for catalog operations.
var (
	ErrNotFound            = errors.New("not found")
	ErrCorruptStore        = errors.New("corrupt store")
	ErrIdentifierCollision = errors.New("identifier collision")
	ErrInvalidProjection   = errors.New("invalid projection")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrUnknownField        = errors.New("unknown metadata field")
	ErrInvalidField        = errors.New("invalid metadata field")
	ErrSourceRequired      = errors.New("source is required")
	ErrUsageUnavailable    = errors.New("usage feed unavailable")

	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrBaseDirEmpty       = errors.New("base_dir cannot be empty")
)

// StoreError reports a backing store blob that exists but cannot be decoded.
// It matches [ErrCorruptStore].
type StoreError struct {
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCorruptStore, e.Path, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrCorruptStore, e.Err}
}

// CollisionError describes a document whose source was already taken during
// a rebuild. The document is kept under Placeholder.
type CollisionError struct {
	Source      string
	Placeholder string
	Path        string
	FirstPath   string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%s: %q at %s (first seen at %s), stored as %q",
		ErrIdentifierCollision, e.Source, e.Path, e.FirstPath, e.Placeholder)
}

func (e *CollisionError) Unwrap() error {
	return ErrIdentifierCollision
}
