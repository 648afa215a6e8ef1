// Package renderer rasterizes slides into fixed-size frames.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/ivlev/placement2video/internal/config"
	"github.com/ivlev/placement2video/internal/director"
	"github.com/ivlev/placement2video/internal/faults"
	"github.com/ivlev/placement2video/internal/slide"
)

// Clip is the rendered visual of one slide: a single still frame shown for
// Duration seconds while the camera follows Motion.
type Clip struct {
	Frame    *image.RGBA
	Duration float64
	Motion   []director.Keyframe
}

// Options carries run inputs that are not layout configuration.
type Options struct {
	ShareLink string
	QRCode    bool
}

// Renderer draws slide frames. It is safe for concurrent use.
type Renderer struct {
	video  config.VideoConfig
	layout config.Layout
	opts   Options
	fonts  *fontSet
}

func New(video config.VideoConfig, layout config.Layout, opts Options) (*Renderer, error) {
	if video.Width <= 0 || video.Height <= 0 {
		return nil, fmt.Errorf("renderer: invalid frame size %s", video.Size())
	}
	if layout.MaxLines < 1 {
		return nil, errors.New("renderer: max_lines must be at least 1")
	}
	if layout.LineSpacing < 1 {
		layout.LineSpacing = 1
	}
	// Cards need room for the icon column plus a few glyphs of text.
	if minText := video.Width - 2*layout.Margin - int(3*layout.BodySize*layout.LineSpacing); minText < int(2*layout.BodySize) {
		return nil, fmt.Errorf("renderer: margin %d leaves no room for %.0fpx text", layout.Margin, layout.BodySize)
	}
	fonts, err := loadFonts()
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	return &Renderer{video: video, layout: layout, opts: opts, fonts: fonts}, nil
}

// Render draws spec as slide spec.Index+1 of total. The frame is exactly
// Width x Height and depends only on spec and configuration.
func (r *Renderer) Render(ctx context.Context, spec slide.Spec, total int, minDuration float64) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, faults.Render(spec.Index, "cancelled", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, faults.Render(spec.Index, "invalid slide", err)
	}
	if total <= spec.Index {
		return nil, faults.Render(spec.Index, fmt.Sprintf("index outside deck of %d", total), nil)
	}
	if minDuration <= 0 {
		return nil, faults.Render(spec.Index, fmt.Sprintf("non-positive duration %.3f", minDuration), nil)
	}

	kl, ok := kindLayouts[spec.Kind]
	if !ok {
		return nil, faults.Render(spec.Index, fmt.Sprintf("no layout for kind %q", spec.Kind), nil)
	}
	fc, err := r.fonts.faces(r.layout.TitleSize*kl.titleScale, r.layout.BodySize, r.layout.LineSpacing)
	if err != nil {
		return nil, faults.Render(spec.Index, "load fonts", err)
	}
	defer fc.close()

	p, err := r.plan(spec, total, fc, kl)
	if err != nil {
		return nil, faults.Render(spec.Index, "layout", err)
	}

	frame, err := r.paint(ctx, spec, p, fc)
	if err != nil {
		return nil, faults.Render(spec.Index, "compose frame", err)
	}
	return &Clip{Frame: frame, Duration: minDuration}, nil
}

func (r *Renderer) paint(ctx context.Context, spec slide.Spec, p plan, fc *faces) (*image.RGBA, error) {
	pal := paletteFor(spec.Style)
	frame := image.NewRGBA(image.Rect(0, 0, r.video.Width, r.video.Height))
	paintBackground(frame, spec.Style, pal)

	if spec.Image != nil {
		if spec.Image.Bounds().Empty() {
			return nil, fmt.Errorf("image %q has no pixels", spec.ImageName)
		}
		drawFitted(frame, p.ImageBox, spec.Image, draw.CatmullRom)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, c := range p.Cards {
		radius := min(20, c.Rect.Dy()/4)
		if c.Emphasis {
			fillMasked(frame, roundedRect{r: c.Rect, radius: radius}, pal.accent)
			inner := c.Rect.Inset(4)
			fillMasked(frame, roundedRect{r: inner, radius: max(radius-4, 0)}, opaqueOver(pal.background, pal.card))
			continue
		}
		fillMasked(frame, roundedRect{r: c.Rect, radius: radius}, pal.card)
		if !c.Icon.Empty() {
			fillMasked(frame, disc{r: c.Icon}, pal.accent)
		}
	}

	drawBlock(frame, fc.title.face, p.Title, pal.accent)
	for _, b := range p.Body {
		drawBlock(frame, fc.body.face, b, pal.primary)
	}

	if !p.QR.Empty() {
		code, err := qrcode.New(r.opts.ShareLink, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("encode share link: %w", err)
		}
		drawFitted(frame, p.QR, code.Image(p.QR.Dx()), draw.NearestNeighbor)
	}

	if !p.Progress.Empty() {
		fillRect(frame, p.Progress, pal.secondary)
		fillRect(frame, p.ProgressFill, pal.accent)
		drawBlock(frame, fc.small.face, p.Footer, pal.secondary)
	}
	return frame, nil
}

func drawBlock(dst draw.Image, face font.Face, b block, c color.Color) {
	src := image.NewUniform(c)
	for i, line := range b.Lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		x := b.Rect.Min.X
		if b.Align == alignCenter {
			x += (b.Rect.Dx() - measure(face, line)) / 2
		}
		d := font.Drawer{
			Dst:  dst,
			Src:  src,
			Face: face,
			Dot:  dotFor(face, line, x, b.Rect.Min.Y+i*b.LineHeight),
		}
		d.DrawString(line)
	}
}

// opaqueOver flattens a translucent card color onto the background so the
// emphasis panel hides the accent border underneath it.
func opaqueOver(bg color.RGBA, c color.NRGBA) color.RGBA {
	a := uint32(c.A)
	mix := func(fg, bg uint8) uint8 {
		return uint8((uint32(fg)*a + uint32(bg)*(255-a)) / 255)
	}
	return color.RGBA{R: mix(c.R, bg.R), G: mix(c.G, bg.G), B: mix(c.B, bg.B), A: 0xff}
}
