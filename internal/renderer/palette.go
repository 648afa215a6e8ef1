package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ivlev/placement2video/internal/slide"
)

type palette struct {
	background color.RGBA
	primary    color.RGBA
	secondary  color.RGBA
	accent     color.RGBA
	card       color.NRGBA
}

var palettes = map[slide.Style]palette{
	slide.StyleTechForward: {
		background: color.RGBA{0x12, 0x12, 0x12, 0xff},
		primary:    color.RGBA{0xff, 0xff, 0xff, 0xff},
		secondary:  color.RGBA{0xaa, 0xaa, 0xaa, 0xff},
		accent:     color.RGBA{0x00, 0xf2, 0x60, 0xff},
		card:       color.NRGBA{34, 34, 34, 255},
	},
	slide.StyleProfessional: {
		background: color.RGBA{0x2c, 0x3e, 0x50, 0xff},
		primary:    color.RGBA{0xff, 0xff, 0xff, 0xff},
		secondary:  color.RGBA{0xec, 0xf0, 0xf1, 0xff},
		accent:     color.RGBA{0x34, 0x98, 0xdb, 0xff},
		card:       color.NRGBA{255, 255, 255, 25},
	},
	slide.StyleModern: {
		background: color.RGBA{0x1a, 0x1a, 0x2e, 0xff},
		primary:    color.RGBA{0x00, 0xd4, 0xaa, 0xff},
		secondary:  color.RGBA{0xff, 0xff, 0xff, 0xff},
		accent:     color.RGBA{0xff, 0x6b, 0x6b, 0xff},
		card:       color.NRGBA{0, 212, 170, 25},
	},
	slide.StyleColorful: {
		background: color.RGBA{0x66, 0x7e, 0xea, 0xff},
		primary:    color.RGBA{0xff, 0xff, 0xff, 0xff},
		secondary:  color.RGBA{0xff, 0xff, 0xff, 0xff},
		accent:     color.RGBA{0xf5, 0xd7, 0x6e, 0xff},
		card:       color.NRGBA{255, 255, 255, 38},
	},
	slide.StyleCorporate: {
		background: color.RGBA{25, 50, 100, 0xff},
		primary:    color.RGBA{0xff, 0xff, 0xff, 0xff},
		secondary:  color.RGBA{0xdf, 0xe6, 0xee, 0xff},
		accent:     color.RGBA{0xf2, 0xc9, 0x4c, 0xff},
		card:       color.NRGBA{255, 255, 255, 30},
	},
}

func paletteFor(style slide.Style) palette {
	if p, ok := palettes[style]; ok {
		return p
	}
	return palettes[slide.StyleTechForward]
}

// paintBackground fills the whole frame for the given style.
func paintBackground(dst *image.RGBA, style slide.Style, pal palette) {
	b := dst.Bounds()
	switch style {
	case slide.StyleCorporate:
		// Vertical blue gradient, dark at the top.
		h := b.Dy()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			f := float64(y-b.Min.Y) / float64(h)
			c := color.RGBA{
				R: uint8(25 + 70*f),
				G: uint8(50 + 120*f),
				B: uint8(100 + 155*f),
				A: 0xff,
			}
			draw.Draw(dst, image.Rect(b.Min.X, y, b.Max.X, y+1), image.NewUniform(c), image.Point{}, draw.Src)
		}
	default:
		draw.Draw(dst, b, image.NewUniform(pal.background), image.Point{}, draw.Src)
	}

	if style == slide.StyleModern {
		paintAccentLines(dst)
	}
}

// paintAccentLines draws the thin diagonal strokes of the modern style.
func paintAccentLines(dst *image.RGBA) {
	b := dst.Bounds()
	line := color.NRGBA{255, 255, 255, 24}
	spacing := max(b.Dx()/7, 8)
	drift := spacing * 2 / 3
	for start := b.Min.X; start < b.Max.X; start += spacing {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			x := start + drift*(y-b.Min.Y)/b.Dy()
			blendPixel(dst, x, y, line)
			blendPixel(dst, x+1, y, line)
		}
	}
}

func blendPixel(dst *image.RGBA, x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}).In(dst.Rect) {
		return
	}
	i := dst.PixOffset(x, y)
	a := uint32(c.A)
	for k, v := range [3]uint8{c.R, c.G, c.B} {
		dst.Pix[i+k] = uint8((uint32(v)*a + uint32(dst.Pix[i+k])*(255-a)) / 255)
	}
}
