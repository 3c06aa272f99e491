// Package apperr defines the error taxonomy shared by services and handlers.
// Every failure surfaced by the core is one of these types so the HTTP layer
// can map it to a status without string matching.
package apperr

import "fmt"

// Validation reasons for image uploads.
const (
	ReasonUnsupportedMedia = "unsupported_media"
	ReasonTooSmall         = "too_small"
	ReasonTooLarge         = "too_large"
	ReasonMalformed        = "malformed"
)

// ValidationError is a 400-class failure: malformed input, out-of-range
// dimensions or an undecodable upload. Never partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s (%s)", e.Field, e.Reason)
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError is a 409-class failure: a near-duplicate image hash or a
// unique-field collision. ExistingID names the entity already holding the
// contested value.
type ConflictError struct {
	Field      string
	ExistingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s with existing entity %s", e.Field, e.ExistingID)
}

func Conflict(field, existingID string) error {
	return &ConflictError{Field: field, ExistingID: existingID}
}

// NotFoundError is a 404-class failure for a missing or invisible entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// UnauthorizedError is a 401/403-class failure. Forbidden distinguishes a
// failed role check from a missing identity.
type UnauthorizedError struct {
	Reason    string
	Forbidden bool
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized: " + e.Reason
}

func Unauthorized(reason string) error {
	return &UnauthorizedError{Reason: reason}
}

func Forbidden(reason string) error {
	return &UnauthorizedError{Reason: reason, Forbidden: true}
}

// StorageError wraps an object-store failure. During ingestion it is raised
// only after the compensating rollback has run.
type StorageError struct {
	Op  string // "upload" or "delete"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("object storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func Storage(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}
