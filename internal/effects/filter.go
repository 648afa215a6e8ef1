package effects

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ivlev/placement2video/internal/director"
	"github.com/ivlev/placement2video/internal/renderer"
)

// samplesPerSecond is how finely eased motion is approximated by the
// piecewise-linear zoompan expressions.
const samplesPerSecond = 4

// AspectFilter upscales the input 2x inside a padded canvas so zoompan has
// sub-pixel headroom.
func AspectFilter(width, height int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		width*2, height*2, width*2, height*2,
	)
}

// ZoomPanFilter creates an ffmpeg zoompan filter that follows keyframes
// linearly for duration seconds. Keyframe rectangles are in output frame
// pixels; the filter input is expected at twice that size.
func ZoomPanFilter(keyframes []director.Keyframe, duration float64, fps int, width, height int) string {
	if len(keyframes) == 0 {
		return ""
	}
	total := max(int(math.Round(duration*float64(fps))), 1)

	frames := make([]int, len(keyframes))
	zooms := make([]float64, len(keyframes))
	xs := make([]float64, len(keyframes))
	ys := make([]float64, len(keyframes))
	for i, kf := range keyframes {
		frames[i] = int(math.Round(kf.Time * float64(fps)))
		zooms[i] = math.Max(kf.Zoom, 1)
		cx, cy := kf.Rect.Center()
		xs[i], ys[i] = 2*cx, 2*cy
	}

	return fmt.Sprintf("zoompan=z='%s':x='%s-iw/zoom/2':y='%s-ih/zoom/2':d=%d:s=%dx%d:fps=%d",
		piecewise(frames, zooms), piecewise(frames, xs), piecewise(frames, ys),
		total, width, height, fps)
}

// SegmentFilter is the complete -vf chain for one clip: aspect, eased
// motion, and a final scale to the output size.
func SegmentFilter(clip *renderer.Clip, fps, width, height int, ease Easing) string {
	aspect := AspectFilter(width, height)
	motion := Densify(clip.Motion, samplesPerSecond, ease)
	zoom := ZoomPanFilter(motion, clip.Duration, fps, width, height)
	if zoom == "" {
		return fmt.Sprintf("%s,loop=loop=-1:size=1,scale=%d:%d,fps=%d", aspect, width, height, fps)
	}
	return fmt.Sprintf("%s,%s,scale=%d:%d", aspect, zoom, width, height)
}

// piecewise builds a nested if() expression over the output frame number
// that interpolates values linearly between frames and holds the last
// value afterwards.
func piecewise(frames []int, values []float64) string {
	var b strings.Builder
	open := 0
	for i := 0; i+1 < len(frames); i++ {
		f0, f1 := frames[i], frames[i+1]
		if f1 <= f0 {
			continue
		}
		v0, v1 := values[i], values[i+1]
		if v0 == v1 {
			fmt.Fprintf(&b, "if(lte(on,%d),%s,", f1, num(v0))
		} else {
			fmt.Fprintf(&b, "if(lte(on,%d),%s+(%s)*(on-%d)/%d,", f1, num(v0), num(v1-v0), f0, f1-f0)
		}
		open++
	}
	b.WriteString(num(values[len(values)-1]))
	b.WriteString(strings.Repeat(")", open))
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
