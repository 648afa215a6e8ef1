package source

import (
	"hash/fnv"
	"image"
	"image/color"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var initialsPalette = []color.RGBA{
	{0x00, 0xf2, 0x60, 0xff},
	{0x05, 0x75, 0xe6, 0xff},
	{0xf2, 0xc9, 0x4c, 0xff},
	{0xf2, 0x70, 0x9c, 0xff},
	{0x4f, 0xac, 0xfe, 0xff},
	{0x6a, 0x82, 0xfb, 0xff},
	{0xfc, 0x46, 0x6b, 0xff},
	{0x38, 0xf9, 0xd7, 0xff},
}

var companySuffixes = map[string]bool{"ltd": true, "pvt": true, "inc": true, "llc": true}

// Initials returns up to two upper-case initials of company, ignoring legal
// suffixes. It falls back to "CO".
func Initials(company string) string {
	var b strings.Builder
	for _, word := range strings.Fields(company) {
		if companySuffixes[strings.ToLower(strings.Trim(word, ".,"))] {
			continue
		}
		r, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "CO"
	}
	return b.String()
}

// InitialsLogo draws company's initials on a colored disc with a white
// ring. The color is a stable function of the name.
func InitialsLogo(company string, size int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	h := fnv.New32a()
	h.Write([]byte(company))
	fill := initialsPalette[h.Sum32()%uint32(len(initialsPalette))]

	ring := size / 40
	drawDisc(img, img.Bounds().Inset(ring/2), color.White)
	drawDisc(img, img.Bounds().Inset(ring*2), fill)

	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(size) * 0.4, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	defer face.Close()

	text := Initials(company)
	bounds, _ := font.BoundString(face, text)
	w := (bounds.Max.X - bounds.Min.X).Ceil()
	th := (bounds.Max.Y - bounds.Min.Y).Ceil()
	x := (size-w)/2 - bounds.Min.X.Floor()
	y := (size-th)/2 - bounds.Min.Y.Floor()

	shadow := font.Drawer{Dst: img, Src: image.NewUniform(color.NRGBA{A: 76}), Face: face, Dot: fixed.P(x+size/100, y+size/100)}
	shadow.DrawString(text)
	d := font.Drawer{Dst: img, Src: image.White, Face: face, Dot: fixed.P(x, y)}
	d.DrawString(text)
	return img, nil
}

func drawDisc(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, discMask(r), r.Min, draw.Over)
}

type discMask image.Rectangle

func (m discMask) ColorModel() color.Model { return color.AlphaModel }

func (m discMask) Bounds() image.Rectangle { return image.Rectangle(m) }

func (m discMask) At(x, y int) color.Color {
	r := image.Rectangle(m)
	d := r.Dx()
	dx := 2*(x-r.Min.X) + 1 - d
	dy := 2*(y-r.Min.Y) + 1 - d
	if dx*dx+dy*dy > d*d {
		return color.Transparent
	}
	return color.Opaque
}
