package repository

import (
	"github.com/Ridwan414/shobdotori/internal/datastore"
	"github.com/Ridwan414/shobdotori/internal/errors"
)

// Sentinel errors for repository operations.
var (
	// ErrSentenceNotFound indicates the requested sentence does not exist.
	ErrSentenceNotFound = errors.NewStd("sentence not found")

	// ErrDialectNotFound indicates the requested dialect does not exist.
	ErrDialectNotFound = errors.NewStd("dialect not found")

	// ErrRecordingNotFound indicates the requested recording does not exist.
	ErrRecordingNotFound = errors.NewStd("recording not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")
)

// translate maps driver duplicate-key errors to ErrDuplicateKey
func translate(err error) error {
	if datastore.IsDuplicateKey(err) {
		return ErrDuplicateKey
	}
	return err
}
