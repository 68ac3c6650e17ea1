package recorder

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"lukechampine.com/blake3"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/datastore/entities"
	"github.com/Ridwan414/shobdotori/internal/events"
	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/observability/metrics"
	"github.com/Ridwan414/shobdotori/internal/storage"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

// UploadRequest is one submitted recording. Fields arrive as raw form values.
type UploadRequest struct {
	Dialect    string
	SentenceID string
	Gender     string
	Index      string // client's idea of the next index, optional
	Filename   string // original client filename, used for its extension
	Data       []byte
}

// UploadResult describes a committed recording.
type UploadResult struct {
	Dialect          string            `json:"dialect"`
	Folder           string            `json:"folder"`
	SentenceID       int               `json:"sentenceId"`
	SentenceText     string            `json:"sentenceText"`
	SequenceIndex    int               `json:"index"`
	ProvisionalIndex int               `json:"provisionalIndex"`
	Filename         string            `json:"filename"`
	Object           *storage.Object   `json:"file"`
	Checksum         string            `json:"checksum"`
	Renamed          bool              `json:"renamed"`
	Passthrough      bool              `json:"passthrough"`
	Progress         *tracker.Progress `json:"-"`
	Completed        bool              `json:"completed"`
	Duration         time.Duration     `json:"-"`
}

// Pipeline validates, transcodes, stores and commits recordings.
type Pipeline struct {
	tracker   *tracker.Tracker
	store     storage.Store
	tc        Transcoder
	folders   *storage.FolderMapper
	settings  conf.UploadSettings
	maxSize   int64
	publisher events.Publisher
	observer  StageObserver
	log       logger.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPublisher sends progress events to p.
func WithPublisher(p events.Publisher) PipelineOption {
	return func(pl *Pipeline) { pl.publisher = p }
}

// WithStageObserver records stage timings.
func WithStageObserver(o StageObserver) PipelineOption {
	return func(pl *Pipeline) {
		if o != nil {
			pl.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) PipelineOption {
	return func(pl *Pipeline) { pl.log = l }
}

// NewPipeline creates an upload pipeline.
func NewPipeline(t *tracker.Tracker, store storage.Store, tc Transcoder, folders *storage.FolderMapper, settings conf.UploadSettings, opts ...PipelineOption) (*Pipeline, error) {
	maxSize, err := settings.MaxFileSizeBytes()
	if err != nil {
		return nil, invalid("upload settings: %v", err)
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultUploadTimeout
	}

	p := &Pipeline{
		tracker:  t,
		store:    store,
		tc:       tc,
		folders:  folders,
		settings: settings,
		maxSize:  maxSize,
		observer: noopStageObserver{},
		log:      GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// MaxSize returns the largest accepted upload in bytes.
func (p *Pipeline) MaxSize() int64 {
	return p.maxSize
}

// Folder returns the storage folder of a dialect.
func (p *Pipeline) Folder(code string) string {
	return p.folders.Folder(code)
}

type validated struct {
	code       string
	sentenceID int
	gender     string
	index      int // 0 when the client sent none
	ext        string
}

func (p *Pipeline) validate(req *UploadRequest) (*validated, error) {
	if len(req.Data) == 0 {
		return nil, invalid("no audio file provided")
	}
	if int64(len(req.Data)) > p.maxSize {
		return nil, invalid("file too large: %d bytes, maximum is %s", len(req.Data), p.settings.MaxFileSize)
	}

	code := tracker.NormalizeCode(req.Dialect)
	if code == "" {
		return nil, invalid("dialect is required")
	}

	rawID := strings.TrimSpace(req.SentenceID)
	if rawID == "" {
		return nil, invalid("sentence_id is required")
	}
	sentenceID, err := strconv.Atoi(rawID)
	if err != nil || sentenceID <= 0 {
		return nil, invalid("sentence_id must be a positive integer, got %q", rawID)
	}

	gender := strings.ToLower(strings.TrimSpace(req.Gender))
	if !slices.Contains(p.settings.Genders, gender) {
		return nil, invalid("gender must be one of %s", strings.Join(p.settings.Genders, ", "))
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !slices.Contains(p.settings.AllowedExtensions, ext) {
		return nil, invalid("unsupported file type %q, allowed: %s", ext, strings.Join(p.settings.AllowedExtensions, ", "))
	}

	v := &validated{code: code, sentenceID: sentenceID, gender: gender, ext: ext}
	if raw := strings.TrimSpace(req.Index); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil || index <= 0 {
			return nil, invalid("index must be a positive integer, got %q", raw)
		}
		v.index = index
	}
	return v, nil
}

// Upload runs a recording through the pipeline. The recording is committed
// only after the storage upload is confirmed; when the commit fails the
// stored object is deleted and the commit error returned.
func (p *Pipeline) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	start := time.Now()
	stage := start
	mark := func(name string) {
		now := time.Now()
		p.observer.ObserveStage(name, now.Sub(stage))
		stage = now
	}

	v, err := p.validate(req)
	if err != nil {
		return nil, err
	}
	p.observer.ObserveUploadSize(len(req.Data))

	progress, err := p.tracker.GetDialect(ctx, v.code)
	if err != nil {
		return nil, err
	}
	if slices.Contains(progress.RecordedIDs, v.sentenceID) {
		return nil, alreadyRecorded(v.code, v.sentenceID)
	}
	if !slices.Contains(progress.UnrecordedIDs, v.sentenceID) {
		return nil, invalid("sentence %d does not belong to dialect %q", v.sentenceID, v.code)
	}
	sentence, err := p.tracker.Sentence(ctx, v.sentenceID)
	if err != nil {
		return nil, err
	}

	log := p.log.With(logger.String("dialect", v.code), logger.Int("sentence_id", v.sentenceID))

	provisional := progress.Recorded() + 1
	if v.index != 0 && v.index != provisional {
		if p.settings.RejectIndexMismatch {
			return nil, invalid("index %d does not match the next index %d", v.index, provisional)
		}
		log.Warn("client index differs from server index",
			logger.Int("client_index", v.index),
			logger.Int("server_index", provisional))
	}
	mark(metrics.StageValidate)

	converted, err := p.tc.Convert(ctx, req.Data, v.ext)
	if err != nil {
		return nil, err
	}
	mark(metrics.StageTranscode)

	// Concurrent uploads share the provisional index, so each stores under
	// its own staging name and only takes the canonical name once committed.
	folder := p.folders.Folder(v.code)
	filename := storage.StagingFilename(v.gender, v.code, provisional)
	sum := blake3.Sum256(converted.Data)
	checksum := hex.EncodeToString(sum[:])

	uploadCtx, cancel := context.WithTimeout(ctx, p.settings.Timeout)
	obj, err := p.store.Upload(uploadCtx, folder, filename, converted.Data)
	cancel()
	if err != nil {
		log.Error("storage upload failed", logger.String("folder", folder), logger.Error(err))
		return nil, err
	}
	mark(metrics.StageUpload)

	ref := tracker.StorageRef{
		Backend:  p.store.Name(),
		ID:       obj.ID,
		Link:     obj.Link,
		Filename: obj.Name,
		Size:     obj.Size,
		Checksum: checksum,
	}
	canonical := func(seq int) string { return storage.Filename(v.gender, v.code, seq) }

	committed, err := p.tracker.CommitRecording(ctx, v.code, v.sentenceID, ref,
		tracker.WithGender(v.gender),
		tracker.WithCanonicalName(canonical))
	if err != nil {
		p.compensate(ctx, obj, log)
		return nil, err
	}
	mark(metrics.StageCommit)

	entry := committed.Committed
	result := &UploadResult{
		Dialect:          committed.Code,
		Folder:           folder,
		SentenceID:       v.sentenceID,
		SentenceText:     sentence.Text,
		SequenceIndex:    entry.SequenceIndex,
		ProvisionalIndex: provisional,
		Filename:         entry.Filename,
		Object:           obj,
		Checksum:         checksum,
		Passthrough:      converted.Passthrough,
		Progress:         committed,
		Completed:        committed.Status == entities.DialectStatusCompleted,
	}

	p.renameToCanonical(ctx, result, entry, ref, log)
	mark(metrics.StageRename)

	result.Duration = time.Since(start)
	p.observer.ObserveStage(metrics.StageTotal, result.Duration)

	p.announce(result)
	return result, nil
}

// compensate deletes an object whose commit failed. obj is always the
// staging object of this request, never a committed recording. It runs
// detached from the request so a cancelled client still gets its orphan
// removed.
func (p *Pipeline) compensate(ctx context.Context, obj *storage.Object, log logger.Logger) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := p.store.Delete(cleanupCtx, obj.ID); err != nil {
		log.Error("failed to delete uploaded object after rejected commit",
			logger.String("object_id", obj.ID),
			logger.Error(err))
		return
	}
	log.Info("deleted uploaded object after rejected commit", logger.String("object_id", obj.ID))
}

// renameToCanonical moves the staging object to the ledger's filename.
// Failures are logged only: the ledger then keeps pointing at the staging
// object, which still holds this recording.
func (p *Pipeline) renameToCanonical(ctx context.Context, result *UploadResult, entry *tracker.LedgerEntry, ref tracker.StorageRef, log logger.Logger) {
	log = log.With(
		logger.Int("provisional_index", result.ProvisionalIndex),
		logger.Int("sequence_index", entry.SequenceIndex))

	renameCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.settings.Timeout)
	defer cancel()

	renamed, err := p.store.Rename(renameCtx, result.Object.ID, entry.Filename)
	if err != nil {
		log.Warn("failed to rename stored object to canonical name",
			logger.String("object_id", result.Object.ID),
			logger.String("filename", entry.Filename),
			logger.Error(err))
		return
	}

	ref.ID = renamed.ID
	ref.Link = renamed.Link
	ref.Filename = renamed.Name
	if err := p.tracker.UpdateStorageRef(renameCtx, entry.ID, ref); err != nil {
		log.Warn("failed to update storage reference after rename", logger.Error(err))
		// put the object back where the ledger points
		if _, err := p.store.Rename(renameCtx, renamed.ID, result.Object.Name); err != nil {
			log.Error("failed to restore staging name, ledger points at a missing object",
				logger.String("object_id", result.Object.ID),
				logger.Error(err))
		}
		return
	}

	result.Object = renamed
	result.Renamed = true
	log.Debug("renamed stored object to canonical name", logger.String("filename", entry.Filename))
}

func (p *Pipeline) announce(result *UploadResult) {
	progress := result.Progress
	event := events.ProgressEvent{
		Type:          events.RecordingCommitted,
		Dialect:       progress.Code,
		SentenceID:    result.SentenceID,
		SequenceIndex: result.SequenceIndex,
		Filename:      result.Filename,
		Recorded:      progress.Recorded(),
		Total:         progress.Total,
		Status:        string(progress.Status),
	}
	publish(p.publisher, event)

	if result.Completed {
		event.Type = events.DialectCompleted
		publish(p.publisher, event)
	}
}
