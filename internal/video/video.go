// Package video encodes a sealed timeline into a single MP4 with ffmpeg.
package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ivlev/placement2video/internal/config"
	"github.com/ivlev/placement2video/internal/effects"
	"github.com/ivlev/placement2video/internal/faults"
	"github.com/ivlev/placement2video/internal/logging"
	"github.com/ivlev/placement2video/internal/system"
	"github.com/ivlev/placement2video/internal/timeline"
)

// Encoder turns a sealed timeline into a video file at outPath. workDir
// holds intermediates and is owned by the caller.
type Encoder interface {
	Encode(ctx context.Context, tl *timeline.Timeline, workDir, outPath string) error
}

// Options configures an FFmpegEncoder.
type Options struct {
	Video      config.VideoConfig
	Codec      string // resolved ffmpeg encoder; empty means Video.VideoCodec
	Transition string
	Easing     effects.Easing
	FFmpegPath string
	Logger     *slog.Logger
}

type runner func(ctx context.Context, stdin io.Reader, name string, args ...string) error

// FFmpegEncoder encodes each segment separately, then joins them with
// cross-fades in one filter graph.
type FFmpegEncoder struct {
	opts Options
	run  runner
}

func NewFFmpegEncoder(opts Options) *FFmpegEncoder {
	if opts.Codec == "" {
		opts.Codec = opts.Video.VideoCodec
	}
	if opts.Transition == "" {
		opts.Transition = "fade"
	}
	if opts.Easing == nil {
		opts.Easing = effects.EaseInOutCubic
	}
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &FFmpegEncoder{opts: opts, run: runFFmpeg}
}

func (e *FFmpegEncoder) Encode(ctx context.Context, tl *timeline.Timeline, workDir, outPath string) error {
	if tl == nil || !tl.Sealed() {
		return faults.Encoding("timeline is not sealed", nil)
	}
	segments := tl.Segments()
	if len(segments) == 0 {
		return faults.Encoding("timeline is empty", nil)
	}

	paths := make([]string, 0, len(segments))
	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return faults.Encoding("cancelled", err)
		}
		path := filepath.Join(workDir, fmt.Sprintf("segment-%03d.mp4", seg.Index))
		start := time.Now()
		if err := e.encodeSegment(ctx, seg, path); err != nil {
			return faults.Wrap(faults.ErrEncoding, "encode", seg.Index, "encode segment", err)
		}
		e.opts.Logger.Debug("segment encoded",
			slog.Int(logging.FieldSlide, seg.Index),
			slog.Float64(logging.FieldDuration, seg.Duration),
			slog.Duration("elapsed", time.Since(start)),
		)
		paths = append(paths, path)
	}

	if err := ctx.Err(); err != nil {
		return faults.Encoding("cancelled", err)
	}
	if err := e.run(ctx, nil, e.opts.FFmpegPath, e.joinArgs(paths, tl.Transitions(), outPath)...); err != nil {
		return faults.Encoding("join segments", err)
	}
	return nil
}

func (e *FFmpegEncoder) encodeSegment(ctx context.Context, seg timeline.Segment, path string) error {
	frame := seg.Visual.Frame
	if frame == nil {
		return fmt.Errorf("slide %d has no frame", seg.Index)
	}
	var raw bytes.Buffer
	if err := writeRawRGBA(&raw, frame); err != nil {
		return fmt.Errorf("write raw frame: %w", err)
	}
	return e.run(ctx, &raw, e.opts.FFmpegPath, e.segmentArgs(seg, path)...)
}

func (e *FFmpegEncoder) segmentArgs(seg timeline.Segment, path string) []string {
	v := e.opts.Video
	b := seg.Visual.Frame.Bounds()
	duration := formatSeconds(seg.Duration)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"-framerate", strconv.Itoa(v.FPS),
		"-i", "-",
	}
	if seg.Audio.Silent || seg.Audio.Path == "" {
		args = append(args,
			"-f", "lavfi",
			"-i", fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", v.SampleRate),
		)
	} else {
		args = append(args, "-i", seg.Audio.Path, "-af", "apad")
	}

	args = append(args,
		"-vf", effects.SegmentFilter(seg.Visual, v.FPS, v.Width, v.Height, e.opts.Easing),
		"-map", "0:v", "-map", "1:a",
		"-t", duration,
		"-r", strconv.Itoa(v.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", e.opts.Codec,
	)
	args = append(args, QualityArgs(e.opts.Codec, v)...)
	args = append(args, e.audioArgs()...)
	return append(args, path)
}

func (e *FFmpegEncoder) joinArgs(paths []string, plan effects.TransitionPlan, outPath string) []string {
	v := e.opts.Video
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, p := range paths {
		args = append(args, "-i", p)
	}

	if len(paths) == 1 {
		return append(args, "-c", "copy", "-movflags", "+faststart", outPath)
	}

	var graph strings.Builder
	videoOut, audioOut := "[vout]", "[aout]"
	if plan.Fade <= 0 || e.opts.Transition == "none" {
		for i := range paths {
			fmt.Fprintf(&graph, "[%d:v][%d:a]", i, i)
		}
		fmt.Fprintf(&graph, "concat=n=%d:v=1:a=1%s%s", len(paths), videoOut, audioOut)
	} else {
		lastV, lastA := "[0:v]", "[0:a]"
		for i := 1; i < len(paths); i++ {
			outV, outA := fmt.Sprintf("[v%d]", i), fmt.Sprintf("[a%d]", i)
			if i == len(paths)-1 {
				outV, outA = videoOut, audioOut
			}
			fmt.Fprintf(&graph, "%s[%d:v]xfade=transition=%s:duration=%s:offset=%s%s;",
				lastV, i, e.opts.Transition, formatSeconds(plan.Fade), formatSeconds(plan.Offsets[i-1]), outV)
			fmt.Fprintf(&graph, "%s[%d:a]acrossfade=d=%s%s;",
				lastA, i, formatSeconds(plan.Fade), outA)
			lastV, lastA = outV, outA
		}
	}

	args = append(args,
		"-filter_complex", strings.TrimSuffix(graph.String(), ";"),
		"-map", videoOut, "-map", audioOut,
		"-r", strconv.Itoa(v.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", e.opts.Codec,
	)
	args = append(args, QualityArgs(e.opts.Codec, v)...)
	args = append(args, e.audioArgs()...)
	return append(args, "-movflags", "+faststart", outPath)
}

func (e *FFmpegEncoder) audioArgs() []string {
	v := e.opts.Video
	args := []string{"-c:a", v.AudioCodec, "-ar", strconv.Itoa(v.SampleRate), "-ac", "2"}
	if v.AudioBitrate != "" {
		args = append(args, "-b:a", v.AudioBitrate)
	}
	return args
}

// QualityArgs returns rate-control flags for the given encoder.
func QualityArgs(encoder string, v config.VideoConfig) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox ignores CRF; map quality to a bitrate.
		return []string{"-b:v", fmt.Sprintf("%dk", v.Quality*100)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(v.Quality)}
	default: // libx264
		args := []string{"-crf", strconv.Itoa(v.Quality), "-preset", v.Preset}
		if bps, err := system.ParseBitrate(v.Bitrate); err == nil && bps > 0 {
			args = append(args, "-maxrate", v.Bitrate, "-bufsize", strconv.FormatUint(2*bps, 10))
		}
		return args
	}
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 6, 64)
}

func runFFmpeg(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: ffmpeg: %w", ctxErr, err)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
