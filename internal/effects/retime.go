package effects

import (
	"github.com/ivlev/placement2video/internal/director"
	"github.com/ivlev/placement2video/internal/renderer"
)

// Retime stretches the clip's motion so it spans duration seconds.
// Keyframe times scale by duration/clip.Duration.
func Retime(clip *renderer.Clip, duration float64) *renderer.Clip {
	out := &renderer.Clip{Frame: clip.Frame, Duration: duration}
	timeScale := 1.0
	if clip.Duration > 0 {
		timeScale = duration / clip.Duration
	}
	out.Motion = make([]director.Keyframe, len(clip.Motion))
	for i, kf := range clip.Motion {
		out.Motion[i] = kf
		out.Motion[i].Time *= timeScale
	}
	return out
}

// Hold extends the clip to duration seconds by freezing its final camera
// pose. Clips already at least that long are returned as copies.
func Hold(clip *renderer.Clip, duration float64) *renderer.Clip {
	out := &renderer.Clip{
		Frame:    clip.Frame,
		Duration: max(duration, clip.Duration),
		Motion:   append([]director.Keyframe(nil), clip.Motion...),
	}
	if duration <= clip.Duration || len(out.Motion) == 0 {
		return out
	}
	last := out.Motion[len(out.Motion)-1]
	if last.Time < duration {
		last.Time = duration
		last.Focus = "hold"
		out.Motion = append(out.Motion, last)
	}
	return out
}
