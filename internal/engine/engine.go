// Package engine runs the per-slide stages of a render in parallel and
// turns their results into one finished video.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/placement2video/internal/artifact"
	"github.com/ivlev/placement2video/internal/config"
	"github.com/ivlev/placement2video/internal/faults"
	"github.com/ivlev/placement2video/internal/logging"
	"github.com/ivlev/placement2video/internal/narration"
	"github.com/ivlev/placement2video/internal/renderer"
	"github.com/ivlev/placement2video/internal/slide"
	"github.com/ivlev/placement2video/internal/system"
	"github.com/ivlev/placement2video/internal/timeline"
	"github.com/ivlev/placement2video/internal/video"
)

// Synthesizer produces the narration clip for one slide inside dir.
type Synthesizer interface {
	Synthesize(ctx context.Context, spec slide.Spec, dir string) (*narration.Clip, error)
}

// Renderer draws the still frame for one slide.
type Renderer interface {
	Render(ctx context.Context, spec slide.Spec, total int, minDuration float64) (*renderer.Clip, error)
}

// Effects attaches motion to a rendered clip.
type Effects interface {
	Apply(clip *renderer.Clip, spec slide.Spec) (*renderer.Clip, error)
}

// VerifyFunc checks an encoded file before it is published.
type VerifyFunc func(ctx context.Context, path string, expected float64) error

// Pipeline wires the stages of one render. Config is read-only for the
// lifetime of a run; a Pipeline may run several times sequentially.
type Pipeline struct {
	Config    config.Config
	Synth     Synthesizer
	Render    Renderer
	Effects   Effects
	Assembler timeline.Assembler
	Encoder   video.Encoder
	Verify    VerifyFunc
	Logger    *slog.Logger
}

// SegmentReport describes one slide as it appears in the output.
type SegmentReport struct {
	Index    int
	Kind     slide.Kind
	Title    string
	Start    float64
	Duration float64
	Silent   bool
}

// Result summarizes a successful run.
type Result struct {
	RunID      string
	Artifact   string
	Duration   float64
	Transition string
	Segments   []SegmentReport
	Skipped    []timeline.Skip
	Silenced   []int
}

// NewPipeline builds the assembler from cfg. The stage implementations are
// supplied by the caller.
func NewPipeline(cfg config.Config, synth Synthesizer, render Renderer, fx Effects, enc video.Encoder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	fade := cfg.Effects.FadeDuration
	if cfg.Effects.Transition == "none" {
		fade = 0
	}
	return &Pipeline{
		Config:  cfg,
		Synth:   synth,
		Render:  render,
		Effects: fx,
		Assembler: timeline.Assembler{
			MinVisual:  cfg.Pipeline.MinVisualDuration,
			Fade:       fade,
			FPS:        cfg.Video.FPS,
			BestEffort: cfg.BestEffort(),
		},
		Encoder: enc,
		Logger:  logger,
	}
}

// slideOutcome is written by exactly one synthesis task and one render
// task, each touching only its own fields.
type slideOutcome struct {
	audio     *narration.Clip
	visual    *renderer.Clip
	synthErr  error
	renderErr error
	silenced  bool
}

// Run renders specs into a single video at dest. On any failure dest is
// left untouched and no partial output remains.
func (p *Pipeline) Run(ctx context.Context, specs []slide.Spec, dest string) (Result, error) {
	runID := uuid.NewString()
	logger := p.Logger.With(logging.FieldRunID, runID)
	res := Result{RunID: runID}
	started := time.Now()

	if len(specs) == 0 {
		return res, faults.Sequencing("no slides to render", nil)
	}
	if err := slide.CheckSequence(specs); err != nil {
		return res, faults.Sequencing("slide indexes", err)
	}
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return res, faults.Sequencing(fmt.Sprintf("slide %d", s.Index), err)
		}
	}
	if err := ctx.Err(); err != nil {
		return res, faults.Cancelled("start", err)
	}

	workDir, err := os.MkdirTemp(p.Config.Pipeline.TempDir, "placement2video-")
	if err != nil {
		return res, faults.Encoding("create work directory", err)
	}
	defer os.RemoveAll(workDir)

	logger.Info("run started", "slides", len(specs), "parallelism", p.parallelism(), "policy", p.Config.Pipeline.OnFailure)

	outcomes, err := p.runSlides(ctx, logger, specs, workDir)
	if err != nil {
		return res, err
	}

	results := make([]timeline.Result, len(specs))
	for _, s := range specs {
		o := outcomes[s.Index]
		results[s.Index] = timeline.Result{
			Index:  s.Index,
			Visual: o.visual,
			Audio:  o.audio,
			Err:    errors.Join(o.synthErr, o.renderErr),
		}
		if o.silenced && o.renderErr == nil {
			res.Silenced = append(res.Silenced, s.Index)
		}
	}

	tl, skipped, err := p.Assembler.Assemble(specs, results)
	res.Skipped = skipped
	for _, sk := range skipped {
		logger.Warn("slide skipped", logging.FieldSlide, sk.Index, logging.FieldStage, sk.Stage, "error", sk.Err)
	}
	if err != nil {
		return res, err
	}

	if err := ctx.Err(); err != nil {
		return res, faults.Cancelled("encode", err)
	}
	path, err := p.encode(ctx, logger, tl, workDir, dest)
	if err != nil {
		return res, err
	}

	res.Artifact = path
	res.Duration = tl.Duration()
	res.Transition = p.transitionName(tl)
	res.Segments = reports(tl)
	logger.Info("run finished",
		"artifact", path,
		"video_s", res.Duration,
		"skipped", len(res.Skipped),
		"silenced", len(res.Silenced),
		logging.FieldDuration, time.Since(started).Seconds(),
	)
	return res, nil
}

// runSlides synthesizes and renders every slide on a bounded group. It
// returns only after every task has finished. Under the abort policy the
// first stage failure cancels the rest and is returned.
func (p *Pipeline) runSlides(ctx context.Context, logger *slog.Logger, specs []slide.Spec, workDir string) ([]slideOutcome, error) {
	outcomes := make([]slideOutcome, len(specs))
	bestEffort := p.Config.BestEffort()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism())

	for _, spec := range specs {
		out := &outcomes[spec.Index]
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out.audio, out.silenced, out.synthErr = p.synthesize(gctx, logger, spec, workDir)
			if out.synthErr != nil && !bestEffort {
				return out.synthErr
			}
			return nil
		})
		g.Go(func() error {
			out.visual, out.renderErr = p.render(gctx, logger, spec, len(specs))
			if out.renderErr != nil && !bestEffort {
				return out.renderErr
			}
			return nil
		})
	}

	err := g.Wait()
	if cerr := ctx.Err(); cerr != nil {
		return nil, faults.Cancelled("slides", errors.Join(cerr, err))
	}
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (p *Pipeline) synthesize(ctx context.Context, logger *slog.Logger, spec slide.Spec, workDir string) (*narration.Clip, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, faults.Synthesis(spec.Index, "cancelled", err)
	}
	sctx, cancel := p.stageContext(ctx)
	defer cancel()

	started := time.Now()
	clip, err := p.Synth.Synthesize(sctx, spec, workDir)
	if err == nil {
		logger.Debug("narration ready",
			logging.FieldSlide, spec.Index,
			logging.FieldStage, "narration",
			"audio_s", clip.Duration,
			logging.FieldDuration, time.Since(started).Seconds(),
		)
		return clip, false, nil
	}
	if !errors.Is(err, faults.ErrSynthesis) {
		err = faults.Synthesis(spec.Index, "synthesize", err)
	}
	if p.Config.Narration.AllowSilent && ctx.Err() == nil {
		logger.Warn("narration failed, using silence",
			logging.FieldSlide, spec.Index,
			logging.FieldStage, "narration",
			"error", err,
		)
		return narration.Silent(p.Config.Pipeline.MinVisualDuration, p.Config.Video.SampleRate), true, nil
	}
	logger.Error("narration failed", logging.FieldSlide, spec.Index, logging.FieldStage, "narration", "error", err)
	return nil, false, err
}

func (p *Pipeline) render(ctx context.Context, logger *slog.Logger, spec slide.Spec, total int) (*renderer.Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, faults.Render(spec.Index, "cancelled", err)
	}
	rctx, cancel := p.stageContext(ctx)
	defer cancel()

	started := time.Now()
	clip, err := p.Render.Render(rctx, spec, total, p.Config.Pipeline.MinVisualDuration)
	if err == nil && rctx.Err() != nil {
		err = rctx.Err()
	}
	if err != nil {
		if !errors.Is(err, faults.ErrRender) {
			err = faults.Render(spec.Index, "render", err)
		}
		logger.Error("render failed", logging.FieldSlide, spec.Index, logging.FieldStage, "render", "error", err)
		return nil, err
	}

	if p.Effects != nil {
		clip, err = p.Effects.Apply(clip, spec)
		if err != nil {
			err = faults.Wrap(faults.ErrRender, "effects", spec.Index, "apply motion", err)
			logger.Error("effects failed", logging.FieldSlide, spec.Index, logging.FieldStage, "effects", "error", err)
			return nil, err
		}
	}
	logger.Debug("frame ready",
		logging.FieldSlide, spec.Index,
		logging.FieldStage, "render",
		"keyframes", len(clip.Motion),
		logging.FieldDuration, time.Since(started).Seconds(),
	)
	return clip, nil
}

// encode writes the timeline to a locked temp file beside dest and
// publishes it only after it verifies.
func (p *Pipeline) encode(ctx context.Context, logger *slog.Logger, tl *timeline.Timeline, workDir, dest string) (string, error) {
	f, err := artifact.Begin(dest)
	if err != nil {
		return "", faults.Encoding("prepare destination", err)
	}
	committed := false
	defer func() {
		if !committed {
			if err := f.Abort(); err != nil {
				logger.Warn("partial output not removed", "path", f.Path(), "error", err)
			}
		}
	}()

	v := p.Config.Video
	need, err := system.EstimateOutputBytes(tl.Duration(), v.Bitrate, v.AudioBitrate)
	if err != nil {
		return "", faults.Encoding("estimate output size", err)
	}
	if err := system.CheckFreeSpace(filepath.Dir(f.Dest()), need); err != nil {
		return "", faults.Encoding("disk preflight", err)
	}

	started := time.Now()
	if err := p.Encoder.Encode(ctx, tl, workDir, f.Path()); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return "", faults.Cancelled("encode", errors.Join(cerr, err))
		}
		if !errors.Is(err, faults.ErrEncoding) {
			err = faults.Encoding("encode", err)
		}
		return "", err
	}
	logger.Info("encoded", logging.FieldStage, "encode", "segments", tl.Len(), logging.FieldDuration, time.Since(started).Seconds())

	if p.Verify != nil {
		if err := p.Verify(ctx, f.Path(), tl.Duration()); err != nil {
			return "", faults.Encoding("verify output", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", faults.Cancelled("publish", err)
	}
	if err := f.Commit(); err != nil {
		return "", faults.Encoding("publish artifact", err)
	}
	committed = true
	return f.Dest(), nil
}

func (p *Pipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := p.Config.SlideTimeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func (p *Pipeline) parallelism() int {
	if n := p.Config.Pipeline.Parallelism; n > 0 {
		return n
	}
	return system.DefaultParallelism()
}

func (p *Pipeline) transitionName(tl *timeline.Timeline) string {
	if tl.Transitions().Fade <= 0 {
		return "none"
	}
	return p.Config.Effects.Transition
}

func reports(tl *timeline.Timeline) []SegmentReport {
	plan := tl.Transitions()
	segs := tl.Segments()
	out := make([]SegmentReport, len(segs))
	for i, seg := range segs {
		start := 0.0
		if i > 0 {
			start = plan.Offsets[i-1]
		}
		out[i] = SegmentReport{
			Index:    seg.Index,
			Kind:     seg.Kind,
			Title:    seg.Title,
			Start:    start,
			Duration: seg.Duration,
			Silent:   seg.Audio != nil && seg.Audio.Silent,
		}
	}
	return out
}
