package tracker

import (
	"fmt"

	"github.com/Ridwan414/shobdotori/internal/errors"
)

// Sentinel errors. Returned errors wrap one of these, so callers test
// with errors.Is; the enhanced wrapper carries component and category.
var (
	// ErrNotFound indicates the dialect does not exist.
	ErrNotFound = errors.NewStd("not found")

	// ErrInvalidInput indicates a malformed code, a sentence outside the
	// dialect's set, an empty storage reference or an empty catalog.
	ErrInvalidInput = errors.NewStd("invalid input")

	// ErrAlreadyRecorded indicates the (dialect, sentence) pair already has a ledger entry.
	ErrAlreadyRecorded = errors.NewStd("already recorded")
)

func dialectNotFound(code string) error {
	return errors.New(fmt.Errorf("dialect %q: %w", code, ErrNotFound)).
		Component("tracker").
		Category(errors.CategoryNotFound).
		Context("dialect", code).
		Build()
}

func invalidInput(format string, args ...any) error {
	return errors.New(fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)).
		Component("tracker").
		Category(errors.CategoryValidation).
		Build()
}

func alreadyRecorded(code string, sentenceID int) error {
	return errors.New(fmt.Errorf("sentence %d of dialect %q: %w", sentenceID, code, ErrAlreadyRecorded)).
		Component("tracker").
		Category(errors.CategoryConflict).
		Context("dialect", code).
		Context("sentence_id", sentenceID).
		Build()
}

func databaseError(operation string, err error) error {
	return errors.New(fmt.Errorf("%s: %w", operation, err)).
		Component("tracker").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}

// isTracked reports whether err is already one of the taxonomy errors.
func isTracked(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrAlreadyRecorded)
}

// passOrWrap returns taxonomy errors unchanged and wraps everything else as a database failure.
func passOrWrap(operation string, err error) error {
	if err == nil || isTracked(err) {
		return err
	}
	return databaseError(operation, err)
}
