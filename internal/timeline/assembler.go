package timeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/placement2video/internal/effects"
	"github.com/ivlev/placement2video/internal/faults"
	"github.com/ivlev/placement2video/internal/narration"
	"github.com/ivlev/placement2video/internal/renderer"
	"github.com/ivlev/placement2video/internal/slide"
)

// Result is everything the per-slide stages produced for one slide.
type Result struct {
	Index  int
	Visual *renderer.Clip
	Audio  *narration.Clip
	Err    error
}

// Skip records a slide left out of the timeline.
type Skip struct {
	Index  int
	Stage  string
	Reason string
	Err    error
}

// Assembler builds timelines from per-slide results.
type Assembler struct {
	MinVisual  float64
	Fade       float64
	FPS        int
	BestEffort bool
}

// Assemble orders results by spec index and pairs each slide's clips into
// a sealed timeline. With BestEffort unset the first failed slide aborts
// assembly and its error is returned unchanged.
func (a Assembler) Assemble(specs []slide.Spec, results []Result) (*Timeline, []Skip, error) {
	if a.MinVisual <= 0 {
		return nil, nil, faults.Sequencing(fmt.Sprintf("minimum visual duration %.3f is not positive", a.MinVisual), nil)
	}
	if a.FPS <= 0 {
		return nil, nil, faults.Sequencing(fmt.Sprintf("frame rate %d is not positive", a.FPS), nil)
	}
	if err := slide.CheckSequence(specs); err != nil {
		return nil, nil, faults.Sequencing("slide indexes", err)
	}

	byIndex := make(map[int]Result, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(specs) {
			return nil, nil, faults.Sequencing(fmt.Sprintf("result for unknown slide %d", r.Index), nil)
		}
		if _, dup := byIndex[r.Index]; dup {
			return nil, nil, faults.Sequencing(fmt.Sprintf("duplicate result for slide %d", r.Index), nil)
		}
		byIndex[r.Index] = r
	}

	ordered := make([]slide.Spec, len(specs))
	for _, s := range specs {
		ordered[s.Index] = s
	}

	tl := New(a.Fade)
	var skipped []Skip
	for _, spec := range ordered {
		r, ok := byIndex[spec.Index]
		seg, err := a.segment(spec, r, ok)
		if err != nil {
			if !a.BestEffort {
				return nil, nil, err
			}
			skipped = append(skipped, skipFor(spec.Index, err))
			continue
		}
		if err := tl.Append(seg); err != nil {
			return nil, nil, faults.Sequencing("append segment", err)
		}
	}

	if tl.Len() == 0 {
		return nil, skipped, faults.Sequencing("every slide failed, nothing to encode", nil)
	}
	if err := tl.Seal(); err != nil {
		return nil, skipped, faults.Sequencing("seal timeline", err)
	}
	return tl, skipped, nil
}

func (a Assembler) segment(spec slide.Spec, r Result, ok bool) (Segment, error) {
	if !ok {
		return Segment{}, faults.Sequencing(fmt.Sprintf("slide %d has no result", spec.Index), nil)
	}
	if r.Err != nil {
		return Segment{}, r.Err
	}
	if r.Visual == nil {
		return Segment{}, faults.Render(spec.Index, "no visual clip", nil)
	}
	if r.Audio == nil {
		return Segment{}, faults.Synthesis(spec.Index, "no narration clip", nil)
	}
	if r.Audio.Duration <= 0 {
		return Segment{}, faults.Synthesis(spec.Index, fmt.Sprintf("narration duration %.3f", r.Audio.Duration), nil)
	}

	target := math.Max(r.Audio.Duration, a.MinVisual)
	visual := r.Visual
	if target != visual.Duration {
		visual = effects.Retime(visual, target)
	}
	duration := a.alignUp(target)
	visual = effects.Hold(visual, duration)

	return Segment{
		Index:    spec.Index,
		Kind:     spec.Kind,
		Title:    spec.Title,
		Visual:   visual,
		Audio:    r.Audio,
		Duration: duration,
	}, nil
}

// alignUp rounds d up to a whole number of frames.
func (a Assembler) alignUp(d float64) float64 {
	frames := math.Ceil(d*float64(a.FPS) - 1e-9)
	return frames / float64(a.FPS)
}

func skipFor(index int, err error) Skip {
	stage := "unknown"
	var fe *faults.Error
	if errors.As(err, &fe) && fe.Stage != "" {
		stage = fe.Stage
	}
	return Skip{Index: index, Stage: stage, Reason: err.Error(), Err: err}
}
