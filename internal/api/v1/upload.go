package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/recorder"
)

// uploadFormFile is the multipart field carrying the audio.
const uploadFormFile = "file"

// UploadResponse is the body of a successful POST /api/upload.
type UploadResponse struct {
	Success   bool                   `json:"success"`
	Message   string                 `json:"message"`
	Recording *recorder.UploadResult `json:"recording"`
	Progress  ProgressInfo           `json:"progress"`
}

// UploadRecording handles POST /api/upload. The multipart form carries the
// audio in "file" plus dialect, sentence_id, gender and an optional index.
func (c *Controller) UploadRecording(ctx echo.Context) error {
	fh, err := ctx.FormFile(uploadFormFile)
	if err != nil {
		return c.BadRequest(ctx, "No audio file provided")
	}

	f, err := fh.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read uploaded file")
	}
	defer func() { _ = f.Close() }()

	// Pipeline enforces the size limit; read one byte past it so it can tell
	data, err := io.ReadAll(io.LimitReader(f, c.Pipeline.MaxSize()+1))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read uploaded file")
	}

	result, err := c.Pipeline.Upload(ctx.Request().Context(), &recorder.UploadRequest{
		Dialect:    ctx.FormValue("dialect"),
		SentenceID: ctx.FormValue("sentence_id"),
		Gender:     ctx.FormValue("gender"),
		Index:      ctx.FormValue("index"),
		Filename:   fh.Filename,
		Data:       data,
	})
	if err != nil {
		return c.HandleError(ctx, err, "Upload failed")
	}
	c.InvalidateDialects()

	p := result.Progress
	c.logger.Info("recording saved",
		logger.String("dialect", result.Dialect),
		logger.Int("sentence_id", result.SentenceID),
		logger.String("filename", result.Filename),
		logger.String("progress", fmt.Sprintf("%d/%d", p.Recorded(), p.Total)))

	return ctx.JSON(http.StatusOK, UploadResponse{
		Success:   true,
		Message:   "Recording uploaded and saved successfully",
		Recording: result,
		Progress: ProgressInfo{
			Recorded:   p.Recorded(),
			Total:      p.Total,
			Percentage: p.Percentage(),
			Remaining:  p.Remaining(),
			Status:     string(p.Status),
		},
	})
}
