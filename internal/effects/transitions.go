package effects

import (
	"errors"
	"fmt"
)

// TransitionPlan places the cross-fades between consecutive segments.
// Offsets[i] is when the fade from segment i into segment i+1 starts, on
// the output timeline.
type TransitionPlan struct {
	Fade    float64
	Offsets []float64
	Total   float64
}

// PlanTransitions lays segments end to end with each fade carved out of
// both neighbours. The fade is clamped to half the shortest segment so no
// segment is consumed by its transitions. A single segment has none.
func PlanTransitions(durations []float64, fade float64) (TransitionPlan, error) {
	if len(durations) == 0 {
		return TransitionPlan{}, errors.New("effects: no segments to join")
	}
	shortest := durations[0]
	sum := 0.0
	for i, d := range durations {
		if d <= 0 {
			return TransitionPlan{}, fmt.Errorf("effects: segment %d has non-positive duration %.3f", i, d)
		}
		shortest = min(shortest, d)
		sum += d
	}
	if len(durations) == 1 {
		return TransitionPlan{Total: sum}, nil
	}

	fade = max(0, min(fade, shortest/2))
	plan := TransitionPlan{
		Fade:    fade,
		Offsets: make([]float64, 0, len(durations)-1),
		Total:   sum - float64(len(durations)-1)*fade,
	}
	offset := 0.0
	for i := 1; i < len(durations); i++ {
		offset += durations[i-1] - fade
		plan.Offsets = append(plan.Offsets, offset)
	}
	return plan, nil
}
