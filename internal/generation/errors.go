package generation

import (
	"errors"
	"fmt"
)

// Category classifies a pipeline failure for task results and polling
// clients. Every error that can surface from the creation pipeline maps to
// exactly one category.
type Category string

// Possible failure categories
const (
	CategoryTransport         Category = "transport_error"
	CategoryUpstream          Category = "upstream_error"
	CategoryMalformedResponse Category = "malformed_response"
	CategoryMissingMedia      Category = "missing_media"
	CategoryStorageWrite      Category = "storage_write_error"
	CategoryPersistence       Category = "persistence_error"
	CategoryUnexpected        Category = "unexpected_error"
)

// ErrMissingMedia is returned when the generation response carries no inline
// binary payload in any of the places the active shape allows.
var ErrMissingMedia = errors.New("no inline media found in generation response")

// TransportError indicates the generation request never produced a usable
// HTTP response: connection failures, DNS errors, or the call timing out.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("generation request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError indicates the generation service answered with a non-2xx
// status. The response body is preserved for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("generation service returned status %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError indicates the generation service answered 2xx but
// the body could not be interpreted: invalid JSON, or inline data that does
// not decode. The raw body is preserved because silently swallowing it hides
// root cause.
type MalformedResponseError struct {
	RawBody string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed generation response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// StorageWriteError indicates generated media could not be written to disk.
// A completed task must always reference real, persisted media, so this is a
// task failure rather than something to skip past.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("failed to write generated media to %s: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// PersistenceError indicates the creation metadata could not be committed to
// the relational store after media was already persisted.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist creation metadata: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CategoryOf maps an error from any pipeline stage to its failure category.
// Errors that match none of the taxonomy types are CategoryUnexpected.
func CategoryOf(err error) Category {
	var (
		transport *TransportError
		upstream  *UpstreamError
		malformed *MalformedResponseError
		storage   *StorageWriteError
		persist   *PersistenceError
	)

	switch {
	case errors.As(err, &transport):
		return CategoryTransport
	case errors.As(err, &upstream):
		return CategoryUpstream
	case errors.As(err, &malformed):
		return CategoryMalformedResponse
	case errors.Is(err, ErrMissingMedia):
		return CategoryMissingMedia
	case errors.As(err, &storage):
		return CategoryStorageWrite
	case errors.As(err, &persist):
		return CategoryPersistence
	default:
		return CategoryUnexpected
	}
}
