// Package transcode converts uploaded recordings to the stored WAV format
// (16 kHz, mono, 16-bit PCM by default) with ffmpeg.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
)

// ErrFFmpegUnavailable is returned when input needs conversion but no ffmpeg binary was found.
var ErrFFmpegUnavailable = errors.NewStd("ffmpeg is not available")

// ErrInvalidAudio is returned for data that is not a usable WAV file.
var ErrInvalidAudio = errors.NewStd("invalid audio")

const (
	wavFormatPCM = 1
	tempExt      = ".temp"
	// maxStderr bounds the ffmpeg output kept in errors
	maxStderr = 512
)

// Format is a PCM WAV layout.
type Format struct {
	SampleRate int `json:"sampleRate"`
	Channels   int `json:"channels"`
	BitDepth   int `json:"bitDepth"`
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz/%d ch/%d bit", f.SampleRate, f.Channels, f.BitDepth)
}

// Info describes a WAV file.
type Info struct {
	Format
	PCM      bool          `json:"pcm"`
	Duration time.Duration `json:"duration"`
	DataSize int64         `json:"dataSize"`
}

// Result is a converted recording.
type Result struct {
	Data        []byte
	Info        *Info
	Passthrough bool // input was already in the target format
}

// Probe reads the header of WAV data.
func Probe(data []byte) (*Info, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, audioError("probe", ErrInvalidAudio)
	}

	duration, err := dec.Duration()
	if err != nil {
		return nil, audioError("probe", fmt.Errorf("%w: %w", ErrInvalidAudio, err))
	}

	return &Info{
		Format: Format{
			SampleRate: int(dec.SampleRate),
			Channels:   int(dec.NumChans),
			BitDepth:   int(dec.BitDepth),
		},
		PCM:      dec.WavAudioFormat == wavFormatPCM,
		Duration: duration,
		DataSize: dec.PCMLen(),
	}, nil
}

// Transcoder runs ffmpeg to produce the target format.
type Transcoder struct {
	ffmpegPath string
	tempDir    string
	target     Format
	log        logger.Logger
}

// New creates a transcoder for settings. A missing ffmpeg is not an error:
// canonical WAV input still passes through, everything else fails with
// ErrFFmpegUnavailable.
func New(settings *conf.AudioSettings, tempDir string) *Transcoder {
	log := logger.Global().Module("transcode")

	path, err := conf.ValidateToolPath(settings.FfmpegPath, conf.GetFfmpegBinaryName())
	if err != nil {
		log.Warn("ffmpeg not found, only canonical WAV uploads are accepted", logger.Error(err))
		path = ""
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &Transcoder{
		ffmpegPath: path,
		tempDir:    tempDir,
		target: Format{
			SampleRate: settings.SampleRate,
			Channels:   settings.Channels,
			BitDepth:   settings.BitDepth,
		},
		log: log,
	}
}

// Target returns the output format.
func (t *Transcoder) Target() Format { return t.target }

// Available reports whether ffmpeg was found.
func (t *Transcoder) Available() bool { return t.ffmpegPath != "" }

// Convert returns data in the target format. ext is the upload extension
// (".webm", ".wav", ...) and only guides ffmpeg's demuxer selection.
func (t *Transcoder) Convert(ctx context.Context, data []byte, ext string) (*Result, error) {
	if len(data) == 0 {
		return nil, audioError("convert", fmt.Errorf("%w: empty file", ErrInvalidAudio))
	}

	if info, err := Probe(data); err == nil && info.PCM && info.Format == t.target {
		return &Result{Data: data, Info: info, Passthrough: true}, nil
	}

	if !t.Available() {
		return nil, audioError("convert", ErrFFmpegUnavailable)
	}

	out, err := t.run(ctx, data, ext)
	if err != nil {
		return nil, err
	}

	info, err := Probe(out)
	if err != nil {
		return nil, err
	}
	if !info.PCM || info.Format != t.target {
		return nil, audioError("convert", fmt.Errorf("%w: ffmpeg produced %s, want %s", ErrInvalidAudio, info.Format, t.target))
	}

	t.log.Debug("transcoded recording",
		logger.String("input_ext", ext),
		logger.Int("input_bytes", len(data)),
		logger.Int("output_bytes", len(out)),
		logger.Duration("duration", info.Duration))

	return &Result{Data: out, Info: info}, nil
}

// Args returns the ffmpeg arguments converting input to output.
func (t *Transcoder) Args(input, output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", input,
		"-ar", strconv.Itoa(t.target.SampleRate),
		"-ac", strconv.Itoa(t.target.Channels),
		"-c:a", pcmCodec(t.target.BitDepth),
		"-f", "wav",
		output,
	}
}

func pcmCodec(bitDepth int) string {
	switch bitDepth {
	case 24:
		return "pcm_s24le"
	case 32:
		return "pcm_s32le"
	default:
		return "pcm_s16le"
	}
}

// run converts data through temp files named with a fresh uuid.
func (t *Transcoder) run(ctx context.Context, data []byte, ext string) ([]byte, error) {
	ext = strings.ToLower(ext)
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = ".bin"
	}

	id := uuid.NewString()
	input := filepath.Join(t.tempDir, "upload-"+id+ext)
	output := filepath.Join(t.tempDir, "upload-"+id+".wav")
	tempOutput := output + tempExt

	defer func() {
		for _, p := range []string{input, tempOutput, output} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				t.log.Warn("failed to remove temp file", logger.String("path", p), logger.Error(err))
			}
		}
	}()

	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fileError("write input", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.ffmpegPath, t.Args(input, tempOutput)...) //nolint:gosec // path comes from configuration or PATH lookup
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.New(fmt.Errorf("ffmpeg interrupted: %w", ctxErr)).
				Component("transcode").
				Category(errors.CategoryTimeout).
				Build()
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[:maxStderr]
		}
		return nil, audioError("ffmpeg", fmt.Errorf("%w: %s", err, msg))
	}

	if err := os.Rename(tempOutput, output); err != nil {
		return nil, fileError("finalize output", err)
	}

	out, err := os.ReadFile(output)
	if err != nil {
		return nil, fileError("read output", err)
	}
	return out, nil
}

func audioError(operation string, err error) error {
	return errors.New(err).
		Component("transcode").
		Category(errors.CategoryAudio).
		Context("operation", operation).
		Build()
}

func fileError(operation string, err error) error {
	return errors.New(err).
		Component("transcode").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Build()
}
