// Package director plans camera motion over a rendered slide frame.
package director

import (
	"fmt"
	"image"
	"math"

	"github.com/ivlev/placement2video/internal/analyzer"
	"github.com/ivlev/placement2video/internal/slide"
)

// Director generates camera keyframes from the motion table and the
// content detected on a frame.
type Director struct {
	ViewportWidth  int
	ViewportHeight int
	Table          MotionTable
	Detector       analyzer.Detector
}

// NewDirector creates a new Director. A nil detector disables content
// focus; moves aimed at content then fall back to their frame position.
func NewDirector(viewportWidth, viewportHeight int, table MotionTable, detector analyzer.Detector) *Director {
	return &Director{
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
		Table:          table,
		Detector:       detector,
	}
}

// Direct returns keyframes spanning [0, duration] for a slide of the given
// kind. frame is only analyzed when the kind's template aims at content.
func (d *Director) Direct(kind slide.Kind, frame image.Image, duration float64) ([]Keyframe, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("director: non-positive duration %.3f", duration)
	}
	motion, ok := d.Table.Kinds[kind]
	if !ok || len(motion.Moves) == 0 {
		return nil, fmt.Errorf("director: no motion for kind %q", kind)
	}

	var content image.Rectangle
	if d.Detector != nil && frame != nil && aimsAtContent(motion) {
		blocks, err := d.Detector.Detect(frame)
		if err != nil {
			return nil, fmt.Errorf("director: detect content: %w", err)
		}
		if b, ok := analyzer.Dominant(blocks); ok {
			content = b.Rect.Sub(frame.Bounds().Min)
		}
	}

	keyframes := make([]Keyframe, 0, len(motion.Moves)+2)
	for i, m := range motion.Moves {
		keyframes = append(keyframes, d.keyframe(m, i, duration, content))
	}

	// Templates need not start at 0 or end at 1; hold the edge poses.
	if first := keyframes[0]; first.Time > 0 {
		first.Time = 0
		keyframes = append([]Keyframe{first}, keyframes...)
	}
	if last := keyframes[len(keyframes)-1]; last.Time < duration {
		last.Time = duration
		keyframes = append(keyframes, last)
	}
	return keyframes, nil
}

func (d *Director) keyframe(m Move, i int, duration float64, content image.Rectangle) Keyframe {
	cx := m.X * float64(d.ViewportWidth)
	cy := m.Y * float64(d.ViewportHeight)
	zoom := m.Zoom
	focus := fmt.Sprintf("move_%d", i+1)

	if m.Focus == FocusContent && !content.Empty() {
		center := d.calculateCenter(content)
		cx, cy = float64(center.X), float64(center.Y)
		zoom = math.Min(zoom, d.calculateZoom(content))
		focus = "content"
	}

	return Keyframe{
		Time:  m.At * duration,
		Focus: focus,
		Rect:  d.viewport(cx, cy, zoom),
		Zoom:  zoom,
	}
}

// viewport returns the visible rectangle at zoom centered as close to
// (cx, cy) as the frame edges allow.
func (d *Director) viewport(cx, cy, zoom float64) Rectangle {
	w := int(math.Round(float64(d.ViewportWidth) / zoom))
	h := int(math.Round(float64(d.ViewportHeight) / zoom))
	x := int(math.Round(cx - float64(w)/2))
	y := int(math.Round(cy - float64(h)/2))
	x = max(0, min(x, d.ViewportWidth-w))
	y = max(0, min(y, d.ViewportHeight-h))
	return Rectangle{X: x, Y: y, W: w, H: h}
}

// calculateZoom determines zoom level to fit block in viewport
func (d *Director) calculateZoom(block image.Rectangle) float64 {
	padding := 0.9 // Use 90% of viewport

	viewportW := float64(d.ViewportWidth) * padding
	viewportH := float64(d.ViewportHeight) * padding

	blockW := float64(block.Dx())
	blockH := float64(block.Dy())

	if blockW == 0 || blockH == 0 {
		return 1.0
	}

	// Use the smaller scale to ensure block fits
	zoom := math.Min(viewportW/blockW, viewportH/blockH)
	return math.Max(1.0, math.Min(zoom, maxZoom))
}

// calculateCenter finds the center point of a rectangle
func (d *Director) calculateCenter(rect image.Rectangle) image.Point {
	return image.Point{
		X: rect.Min.X + rect.Dx()/2,
		Y: rect.Min.Y + rect.Dy()/2,
	}
}

func aimsAtContent(m Motion) bool {
	for _, move := range m.Moves {
		if move.Focus == FocusContent {
			return true
		}
	}
	return false
}
