// Package recorder runs the recording upload pipeline and the
// administrative wipe. It sits between the HTTP layer and the tracker:
// every upload is validated, transcoded, stored and only then committed,
// and a failed commit removes the stored object again.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/events"
	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/transcode"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

const (
	defaultUploadTimeout = 60 * time.Second
	cleanupTimeout       = 30 * time.Second
	deleteConcurrency    = 4
)

// GetLogger returns the recorder module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("recorder")
}

// Transcoder converts uploaded audio to the stored format.
type Transcoder interface {
	Convert(ctx context.Context, data []byte, ext string) (*transcode.Result, error)
}

// StageObserver receives pipeline timings.
type StageObserver interface {
	ObserveStage(stage string, d time.Duration)
	ObserveUploadSize(size int)
}

type noopStageObserver struct{}

func (noopStageObserver) ObserveStage(string, time.Duration) {}
func (noopStageObserver) ObserveUploadSize(int)              {}

func invalid(format string, args ...any) error {
	return errors.New(fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), tracker.ErrInvalidInput)).
		Component("recorder").
		Category(errors.CategoryValidation).
		Build()
}

func alreadyRecorded(code string, sentenceID int) error {
	return errors.New(fmt.Errorf("sentence %d of dialect %q: %w", sentenceID, code, tracker.ErrAlreadyRecorded)).
		Component("recorder").
		Category(errors.CategoryConflict).
		Context("dialect", code).
		Context("sentence_id", sentenceID).
		Build()
}

// publish sends event when a publisher is configured; a full queue drops it.
func publish(p events.Publisher, event events.ProgressEvent) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	p.TryPublish(event)
}
