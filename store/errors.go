package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	// ErrInvalidClone is returned when a clone is requested for a record ID
	// that is original to the target subdomain.
	ErrInvalidClone = errors.New("sammy: record id is original to this subdomain")

	// ErrInvalidSubdomain is returned for an empty subdomain or one containing ":".
	ErrInvalidSubdomain = errors.New("sammy: invalid subdomain")

	// ErrMalformedKey is returned when a storage key has no ":" separator.
	ErrMalformedKey = errors.New("sammy: malformed storage key")

	// ErrKeyMismatch is returned when a record's subdomain field disagrees with
	// the subdomain prefix of its storage key.
	ErrKeyMismatch = errors.New("sammy: subdomain does not match storage key")

	// ErrNotFound is returned when expiring a record that doesn't exist.
	// Get reports a miss without an error.
	ErrNotFound = errors.New("sammy: record not found")

	// ErrAlreadyExists is returned by PutNew when the key is already taken.
	ErrAlreadyExists = errors.New("sammy: record already exists")

	// ErrDuplicateKey is returned when one commit writes the same key twice.
	ErrDuplicateKey = errors.New("sammy: duplicate key in commit")

	// ErrTooManyItems is returned when a commit exceeds the transaction limit.
	ErrTooManyItems = errors.New("sammy: too many records in one commit")

	// ErrMissingField is returned by record validation for an unset required field.
	ErrMissingField = errors.New("sammy: required field missing")

	// ErrIDCollision is returned when a freshly allocated unique ID already has
	// a marker. It indicates a corrupted counter and is never retried.
	ErrIDCollision = errors.New("sammy: unique id already allocated")

	// ErrInvalidRequest is returned when DynamoDB rejects a request as invalid,
	// e.g. an oversized key or item. Retrying cannot succeed.
	ErrInvalidRequest = errors.New("sammy: request rejected by storage")

	// ErrStorageUnavailable matches every *StorageError.
	ErrStorageUnavailable = errors.New("sammy: storage unavailable")
)

// StorageError reports a failed call to the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("sammy: %s: storage unavailable: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStorageUnavailable.
func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

// storageErr classifies a failed backend call. Cancellation and rejected
// requests keep their identity; everything else becomes a *StorageError.
func storageErr(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("sammy: %s: %w", op, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidRequest, op, err)
	}
	return &StorageError{Op: op, Err: err}
}
