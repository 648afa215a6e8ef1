// Package narration synthesizes the spoken track for each slide and
// measures the resulting clip.
package narration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ivlev/placement2video/internal/faults"
	"github.com/ivlev/placement2video/internal/logging"
	"github.com/ivlev/placement2video/internal/media/ffprobe"
	"github.com/ivlev/placement2video/internal/slide"
)

// Clip is the narration for one slide. Duration is measured from the
// produced file, never estimated from the text.
type Clip struct {
	Path       string
	Duration   float64
	SampleRate int
	Silent     bool
}

// Silent returns a clip with no backing file; the encoder generates
// silence of the given length for it.
func Silent(duration float64, sampleRate int) *Clip {
	return &Clip{Duration: duration, SampleRate: sampleRate, Silent: true}
}

var textCleaner = strings.NewReplacer("[SLIDE", "", "]", "", ":", ".")

// CleanText strips script markup that would otherwise be read aloud.
func CleanText(text string) string {
	return strings.Join(strings.Fields(textCleaner.Replace(text)), " ")
}

// Options configures a Service.
type Options struct {
	Rate        Rate
	SampleRate  int
	FFmpegPath  string
	FFprobePath string
	Logger      *slog.Logger
}

// Service produces narration clips through a Backend and normalizes them
// with ffmpeg.
type Service struct {
	backend    Backend
	rate       Rate
	sampleRate int
	ffmpeg     string
	ffprobe    string
	logger     *slog.Logger

	run   func(ctx context.Context, name string, args ...string) error
	probe func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

func New(backend Backend, opts Options) *Service {
	if opts.Rate == "" {
		opts.Rate = RateNormal
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Service{
		backend:    backend,
		rate:       opts.Rate,
		sampleRate: opts.SampleRate,
		ffmpeg:     opts.FFmpegPath,
		ffprobe:    opts.FFprobePath,
		logger:     opts.Logger,
		run:        runCommand,
		probe:      ffprobe.Inspect,
	}
}

// Synthesize renders spec's text to a WAV file in dir. Every failure,
// including a context deadline, is reported as a synthesis error.
func (s *Service) Synthesize(ctx context.Context, spec slide.Spec, dir string) (*Clip, error) {
	text := CleanText(spec.Text)
	if text == "" {
		return nil, faults.Synthesis(spec.Index, "empty narration text", nil)
	}
	if s.backend == nil {
		return nil, faults.Synthesis(spec.Index, "no speech backend configured", nil)
	}

	audio, err := s.backend.Synthesize(ctx, text)
	if err != nil {
		return nil, faults.Synthesis(spec.Index, "speech backend", contextCause(ctx, err))
	}

	base := filepath.Join(dir, fmt.Sprintf("narration-%03d", spec.Index))
	rawPath := base + ".src"
	if err := os.WriteFile(rawPath, audio, 0o644); err != nil {
		return nil, faults.Synthesis(spec.Index, "write speech audio", err)
	}
	defer os.Remove(rawPath)

	outPath := base + ".wav"
	if err := s.run(ctx, s.ffmpeg, s.normalizeArgs(rawPath, outPath)...); err != nil {
		return nil, faults.Synthesis(spec.Index, "normalize speech audio", contextCause(ctx, err))
	}

	result, err := s.probe(ctx, s.ffprobe, outPath)
	if err != nil {
		return nil, faults.Synthesis(spec.Index, "measure speech audio", contextCause(ctx, err))
	}
	duration := result.DurationSeconds()
	if duration <= 0 {
		return nil, faults.Synthesis(spec.Index, "speech audio has no measurable duration", nil)
	}
	sampleRate := result.SampleRate()
	if sampleRate <= 0 {
		sampleRate = s.sampleRate
	}

	s.logger.Debug("narration synthesized",
		slog.Int("slide", spec.Index),
		slog.String("rate", string(s.rate)),
		slog.Float64("duration_s", duration),
	)
	return &Clip{Path: outPath, Duration: duration, SampleRate: sampleRate}, nil
}

func (s *Service) normalizeArgs(in, out string) []string {
	filters := make([]string, 0, 2)
	if m := s.rate.Multiplier(); m != 1.0 {
		filters = append(filters, "atempo="+strconv.FormatFloat(m, 'f', 2, 64))
	}
	filters = append(filters, "aresample="+strconv.Itoa(s.sampleRate))

	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", in,
		"-af", strings.Join(filters, ","),
		"-ac", "2",
		"-c:a", "pcm_s16le",
		out,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", filepath.Base(name), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// contextCause prefers the context error so deadlines and cancellation stay
// visible to errors.Is.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}
