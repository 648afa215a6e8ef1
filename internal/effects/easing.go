package effects

import (
	"fmt"
	"math"

	"github.com/ivlev/placement2video/internal/director"
)

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

// ParseEasing resolves a configured easing name.
func ParseEasing(name string) (Easing, error) {
	switch name {
	case "linear":
		return Linear, nil
	case "ease-in-out", "":
		return EaseInOutCubic, nil
	case "ease-out":
		return EaseOutCubic, nil
	default:
		return nil, fmt.Errorf("effects: unknown easing %q", name)
	}
}

func Linear(t float64) float64 { return t }

// EaseInOutCubic applies smooth easing function
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// CameraState represents the camera position and zoom at a specific moment
type CameraState struct {
	X    float64 // Center X in frame pixels
	Y    float64 // Center Y in frame pixels
	Zoom float64 // Zoom level (1.0 = no zoom)
	Rect director.Rectangle
}

// Sample calculates camera state at time t by easing between the
// surrounding keyframes. Keyframes must be sorted by time.
func Sample(keyframes []director.Keyframe, t float64, ease Easing) CameraState {
	if len(keyframes) == 0 {
		return CameraState{Zoom: 1.0}
	}
	if ease == nil {
		ease = Linear
	}

	first, last := keyframes[0], keyframes[len(keyframes)-1]
	if t <= first.Time {
		return stateOf(first)
	}
	if t >= last.Time {
		return stateOf(last)
	}

	i := 0
	for i < len(keyframes)-2 && t >= keyframes[i+1].Time {
		i++
	}
	prev, next := keyframes[i], keyframes[i+1]

	span := next.Time - prev.Time
	if span <= 0 {
		return stateOf(next)
	}
	p := ease((t - prev.Time) / span)

	rect := director.Rectangle{
		X: int(math.Round(lerp(float64(prev.Rect.X), float64(next.Rect.X), p))),
		Y: int(math.Round(lerp(float64(prev.Rect.Y), float64(next.Rect.Y), p))),
		W: int(math.Round(lerp(float64(prev.Rect.W), float64(next.Rect.W), p))),
		H: int(math.Round(lerp(float64(prev.Rect.H), float64(next.Rect.H), p))),
	}
	px, py := prev.Rect.Center()
	nx, ny := next.Rect.Center()
	return CameraState{
		X:    lerp(px, nx, p),
		Y:    lerp(py, ny, p),
		Zoom: lerp(prev.Zoom, next.Zoom, p),
		Rect: rect,
	}
}

// Densify samples eased motion perSecond times per second and returns the
// samples as keyframes, so linear interpolation between them follows the
// eased curve. The first and last keyframe times are preserved.
func Densify(keyframes []director.Keyframe, perSecond float64, ease Easing) []director.Keyframe {
	if len(keyframes) < 2 || perSecond <= 0 {
		return append([]director.Keyframe(nil), keyframes...)
	}
	start, end := keyframes[0].Time, keyframes[len(keyframes)-1].Time
	n := max(int(math.Ceil((end-start)*perSecond)), 1)

	out := make([]director.Keyframe, 0, n+1)
	for i := 0; i <= n; i++ {
		t := start + (end-start)*float64(i)/float64(n)
		s := Sample(keyframes, t, ease)
		out = append(out, director.Keyframe{Time: t, Focus: "sample", Rect: s.Rect, Zoom: s.Zoom})
	}
	return out
}

func stateOf(kf director.Keyframe) CameraState {
	x, y := kf.Rect.Center()
	return CameraState{X: x, Y: y, Zoom: kf.Zoom, Rect: kf.Rect}
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
