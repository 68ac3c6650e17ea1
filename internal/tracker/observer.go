package tracker

import "github.com/Ridwan414/shobdotori/internal/errors"

// Commit results reported to the Observer.
const (
	ResultCommitted       = "committed"
	ResultAlreadyRecorded = "already_recorded"
	ResultInvalid         = "invalid"
	ResultNotFound        = "not_found"
	ResultError           = "error"
)

// Observer receives tracker activity, typically a metrics collector.
type Observer interface {
	CommitFinished(result string)
	SentenceSelected(policy string, found bool)
	ProgressUpdated(dialect string, recorded, total int)
}

type noopObserver struct{}

func (noopObserver) CommitFinished(string)            {}
func (noopObserver) SentenceSelected(string, bool)    {}
func (noopObserver) ProgressUpdated(string, int, int) {}

func commitResult(err error) string {
	switch {
	case err == nil:
		return ResultCommitted
	case errors.Is(err, ErrAlreadyRecorded):
		return ResultAlreadyRecorded
	case errors.Is(err, ErrInvalidInput):
		return ResultInvalid
	case errors.Is(err, ErrNotFound):
		return ResultNotFound
	default:
		return ResultError
	}
}
