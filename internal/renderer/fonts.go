package renderer

import (
	"fmt"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// fontSet holds the parsed Go fonts. Parsed fonts are immutable and may be
// shared; faces built from them are not, so every render builds its own.
type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
}

func loadFonts() (*fontSet, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &fontSet{regular: regular, bold: bold}, nil
}

type typeface struct {
	face       font.Face
	lineHeight int
}

type faces struct {
	title typeface
	body  typeface
	small typeface
}

func (fs *fontSet) faces(titleSize, bodySize, spacing float64) (*faces, error) {
	title, err := newTypeface(fs.bold, titleSize, spacing)
	if err != nil {
		return nil, err
	}
	body, err := newTypeface(fs.regular, bodySize, spacing)
	if err != nil {
		title.face.Close()
		return nil, err
	}
	small, err := newTypeface(fs.regular, bodySize*0.75, spacing)
	if err != nil {
		title.face.Close()
		body.face.Close()
		return nil, err
	}
	return &faces{title: title, body: body, small: small}, nil
}

func (f *faces) close() {
	f.title.face.Close()
	f.body.face.Close()
	f.small.face.Close()
}

func newTypeface(f *opentype.Font, size, spacing float64) (typeface, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return typeface{}, fmt.Errorf("build %.0fpx face: %w", size, err)
	}
	m := face.Metrics()
	lh := int(math.Round(size * spacing))
	if glyphs := (m.Ascent + m.Descent).Ceil(); lh < glyphs {
		lh = glyphs
	}
	return typeface{face: face, lineHeight: lh}, nil
}

// measure returns the pixel width covered by s, including any glyph ink
// that extends past the advance.
func measure(face font.Face, s string) int {
	b, adv := font.BoundString(face, s)
	w := adv
	if b.Max.X > w {
		w = b.Max.X
	}
	if b.Min.X < 0 {
		w -= b.Min.X
	}
	return w.Ceil()
}

// dotFor returns the drawing origin that puts the ink of s at (x, top).
func dotFor(face font.Face, s string, x, top int) fixed.Point26_6 {
	b, _ := font.BoundString(face, s)
	dx := fixed.I(x)
	if b.Min.X < 0 {
		dx -= b.Min.X
	}
	return fixed.Point26_6{X: dx, Y: fixed.I(top) + face.Metrics().Ascent}
}
