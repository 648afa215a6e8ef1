// Package timeline pairs each slide's visual and narration into segments
// and orders them for encoding.
package timeline

import (
	"errors"
	"fmt"

	"github.com/ivlev/placement2video/internal/effects"
	"github.com/ivlev/placement2video/internal/narration"
	"github.com/ivlev/placement2video/internal/renderer"
	"github.com/ivlev/placement2video/internal/slide"
)

// Segment is one slide on the timeline. Visual and Audio are owned by the
// segment once appended.
type Segment struct {
	Index    int
	Kind     slide.Kind
	Title    string
	Visual   *renderer.Clip
	Audio    *narration.Clip
	Duration float64
}

// Timeline is the ordered list of segments. It is append-only and must be
// sealed before it is encoded.
type Timeline struct {
	segments []Segment
	fade     float64
	plan     effects.TransitionPlan
	sealed   bool
}

// New returns an empty timeline that cross-fades segments for fade seconds.
func New(fade float64) *Timeline {
	return &Timeline{fade: fade}
}

// Append adds seg after the current last segment. Indexes must increase.
func (t *Timeline) Append(seg Segment) error {
	if t.sealed {
		return errors.New("timeline: append after seal")
	}
	if seg.Duration <= 0 {
		return fmt.Errorf("timeline: slide %d has non-positive duration %.3f", seg.Index, seg.Duration)
	}
	if seg.Visual == nil || seg.Audio == nil {
		return fmt.Errorf("timeline: slide %d is missing a clip", seg.Index)
	}
	if n := len(t.segments); n > 0 && seg.Index <= t.segments[n-1].Index {
		return fmt.Errorf("timeline: slide %d appended after slide %d", seg.Index, t.segments[n-1].Index)
	}
	t.segments = append(t.segments, seg)
	return nil
}

// Seal freezes the timeline and plans its transitions.
func (t *Timeline) Seal() error {
	if t.sealed {
		return nil
	}
	plan, err := effects.PlanTransitions(t.durations(), t.fade)
	if err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	t.plan = plan
	t.sealed = true
	return nil
}

func (t *Timeline) Sealed() bool { return t.sealed }

func (t *Timeline) Len() int { return len(t.segments) }

// Segments returns the segments in playback order.
func (t *Timeline) Segments() []Segment {
	return append([]Segment(nil), t.segments...)
}

// Transitions returns the planned cross-fades. Only valid after Seal.
func (t *Timeline) Transitions() effects.TransitionPlan {
	return t.plan
}

// Duration is the playback length: the sum of segment durations minus one
// fade per boundary.
func (t *Timeline) Duration() float64 {
	if t.sealed {
		return t.plan.Total
	}
	if len(t.segments) == 0 {
		return 0
	}
	plan, err := effects.PlanTransitions(t.durations(), t.fade)
	if err != nil {
		return 0
	}
	return plan.Total
}

func (t *Timeline) durations() []float64 {
	out := make([]float64, len(t.segments))
	for i, s := range t.segments {
		out[i] = s.Duration
	}
	return out
}
