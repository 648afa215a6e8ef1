package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// roundedRect is an alpha mask for a rectangle with rounded corners.
type roundedRect struct {
	r      image.Rectangle
	radius int
}

func (m roundedRect) ColorModel() color.Model { return color.AlphaModel }

func (m roundedRect) Bounds() image.Rectangle { return m.r }

func (m roundedRect) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(m.r) {
		return color.Transparent
	}
	cx, cy := x, y
	switch {
	case x < m.r.Min.X+m.radius:
		cx = m.r.Min.X + m.radius
	case x >= m.r.Max.X-m.radius:
		cx = m.r.Max.X - m.radius - 1
	}
	switch {
	case y < m.r.Min.Y+m.radius:
		cy = m.r.Min.Y + m.radius
	case y >= m.r.Max.Y-m.radius:
		cy = m.r.Max.Y - m.radius - 1
	}
	dx, dy := x-cx, y-cy
	if dx*dx+dy*dy > m.radius*m.radius {
		return color.Transparent
	}
	return color.Opaque
}

// disc is an alpha mask for a filled circle inscribed in r.
type disc struct {
	r image.Rectangle
}

func (m disc) ColorModel() color.Model { return color.AlphaModel }

func (m disc) Bounds() image.Rectangle { return m.r }

func (m disc) At(x, y int) color.Color {
	d := m.r.Dx()
	// Compare doubled coordinates so the center can sit between pixels.
	dx := 2*(x-m.r.Min.X) + 1 - d
	dy := 2*(y-m.r.Min.Y) + 1 - d
	if dx*dx+dy*dy > d*d {
		return color.Transparent
	}
	return color.Opaque
}

func fillMasked(dst draw.Image, mask image.Image, c color.Color) {
	r := mask.Bounds()
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, r.Min, draw.Over)
}

func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// FitRect scales src uniformly to the largest size that fits in box and
// centers it there. Integer arithmetic keeps the result reproducible.
func FitRect(src, box image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	bw, bh := box.Dx(), box.Dy()
	if sw <= 0 || sh <= 0 || bw <= 0 || bh <= 0 {
		return image.Rectangle{}
	}
	w, h := bw, sh*bw/sw
	if h > bh {
		w, h = sw*bh/sh, bh
	}
	w, h = max(w, 1), max(h, 1)
	x := box.Min.X + (bw-w)/2
	y := box.Min.Y + (bh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// drawFitted composites src into box with the given interpolator and
// returns the rectangle actually covered.
func drawFitted(dst draw.Image, box image.Rectangle, src image.Image, interp draw.Interpolator) image.Rectangle {
	target := FitRect(src.Bounds(), box)
	if target.Empty() {
		return target
	}
	interp.Scale(dst, target, src, src.Bounds(), draw.Over, nil)
	return target
}
