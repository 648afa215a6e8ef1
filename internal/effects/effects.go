// Package effects attaches camera motion to rendered clips and turns it
// into ffmpeg filters.
package effects

import (
	"fmt"

	"github.com/ivlev/placement2video/internal/director"
	"github.com/ivlev/placement2video/internal/renderer"
	"github.com/ivlev/placement2video/internal/slide"
)

// Effect decorates a visual clip with motion. Apply never mutates clip.
type Effect interface {
	Apply(clip *renderer.Clip, spec slide.Spec) (*renderer.Clip, error)
}

// Table dispatches to the effect registered for each slide kind.
type Table map[slide.Kind]Effect

// NewTable registers the director-driven motion effect for every kind.
func NewTable(d *director.Director) Table {
	t := make(Table, len(slide.Kinds))
	for _, kind := range slide.Kinds {
		t[kind] = &MotionEffect{Kind: kind, Director: d}
	}
	return t
}

// Apply runs the effect registered for spec.Kind.
func (t Table) Apply(clip *renderer.Clip, spec slide.Spec) (*renderer.Clip, error) {
	e, ok := t[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("effects: no effect for kind %q", spec.Kind)
	}
	return e.Apply(clip, spec)
}

// MotionEffect moves the camera along the director's template for Kind.
type MotionEffect struct {
	Kind     slide.Kind
	Director *director.Director
}

func (e *MotionEffect) Apply(clip *renderer.Clip, spec slide.Spec) (*renderer.Clip, error) {
	if clip == nil || clip.Frame == nil {
		return nil, fmt.Errorf("effects: slide %d has no frame", spec.Index)
	}
	if clip.Duration <= 0 {
		return nil, fmt.Errorf("effects: slide %d has non-positive duration %.3f", spec.Index, clip.Duration)
	}
	keyframes, err := e.Director.Direct(e.Kind, clip.Frame, clip.Duration)
	if err != nil {
		return nil, fmt.Errorf("effects: slide %d: %w", spec.Index, err)
	}
	return &renderer.Clip{Frame: clip.Frame, Duration: clip.Duration, Motion: keyframes}, nil
}

// Still shows the whole frame without motion.
type Still struct{}

func (Still) Apply(clip *renderer.Clip, spec slide.Spec) (*renderer.Clip, error) {
	if clip == nil || clip.Frame == nil {
		return nil, fmt.Errorf("effects: slide %d has no frame", spec.Index)
	}
	b := clip.Frame.Bounds()
	return &renderer.Clip{
		Frame:    clip.Frame,
		Duration: clip.Duration,
		Motion: []director.Keyframe{
			director.FullFrame(0, b.Dx(), b.Dy()),
			director.FullFrame(clip.Duration, b.Dx(), b.Dy()),
		},
	}, nil
}
