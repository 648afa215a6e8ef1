package renderer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ivlev/placement2video/internal/slide"
)

// Ellipsis marks text cut short to fit the frame.
const Ellipsis = "…"

const (
	titleMaxLines = 2
	headerGap     = 40
	titleGap      = 60
	cardGap       = 30
	barThickness  = 8
	footerGap     = 60
	qrRatio       = 0.3
)

type bodyMode int

const (
	bodyParagraph bodyMode = iota // centered free text
	bodyCards                     // one card per sentence
	bodyPanel                     // single accent-framed card
)

// kindLayout is the per-kind layout rule set.
type kindLayout struct {
	titleScale float64
	body       bodyMode
	qr         bool
}

var kindLayouts = map[slide.Kind]kindLayout{
	slide.KindTitle:     {titleScale: 1.15, body: bodyParagraph},
	slide.KindInfo:      {titleScale: 1.0, body: bodyCards},
	slide.KindHighlight: {titleScale: 1.0, body: bodyPanel},
	slide.KindOutro:     {titleScale: 1.0, body: bodyParagraph, qr: true},
}

type align int

const (
	alignLeft align = iota
	alignCenter
)

// block is a run of lines laid out inside Rect.
type block struct {
	Lines      []string
	Rect       image.Rectangle
	LineHeight int
	Align      align
}

type card struct {
	Rect     image.Rectangle
	Icon     image.Rectangle
	Emphasis bool
}

// plan is the complete geometry of one frame, computed before any pixel
// is touched.
type plan struct {
	ImageBox     image.Rectangle
	Title        block
	Body         []block
	Cards        []card
	QR           image.Rectangle
	Progress     image.Rectangle
	ProgressFill image.Rectangle
	Footer       block
	Truncated    bool
}

func (r *Renderer) plan(spec slide.Spec, total int, fc *faces, kl kindLayout) (plan, error) {
	w, h, m := r.video.Width, r.video.Height, r.layout.Margin
	textW := w - 2*m
	var p plan

	top := m
	if spec.Image != nil {
		side := int(math.Round(r.layout.ImageBoxRatio * float64(w)))
		x := (w - side) / 2
		p.ImageBox = image.Rect(x, top, x+side, top+side)
		top += side
	}
	top += headerGap

	bottom := h - m
	if r.layout.ShowProgress {
		lh := fc.small.lineHeight
		labelTop := h - m/2 - lh
		barY := labelTop - 20 - barThickness
		p.Progress = image.Rect(m, barY, w-m, barY+barThickness)
		p.ProgressFill = image.Rect(m, barY, m+textW*(spec.Index+1)/total, barY+barThickness)
		p.Footer = block{
			Lines:      []string{fmt.Sprintf("%d / %d", spec.Index+1, total)},
			Rect:       image.Rect(m, labelTop, w-m, labelTop+lh),
			LineHeight: lh,
		}
		bottom = barY - footerGap
	}

	if title := cases.Upper(language.English).String(strings.TrimSpace(spec.Title)); title != "" {
		lh := fc.title.lineHeight
		lines, cut := fitLines(fc.title.face, title, textW, titleMaxLines)
		p.Truncated = cut
		p.Title = block{
			Lines:      lines,
			Rect:       image.Rect(m, top, w-m, top+len(lines)*lh),
			LineHeight: lh,
			Align:      alignCenter,
		}
		top = p.Title.Rect.Max.Y + titleGap
	}

	if kl.qr && r.opts.QRCode && r.opts.ShareLink != "" {
		side := min(int(qrRatio*float64(w)), (bottom-top)/2)
		if side > 0 {
			x := (w - side) / 2
			p.QR = image.Rect(x, bottom-side, x+side, bottom)
			bottom = p.QR.Min.Y - headerGap
		}
	}

	if bottom-top < fc.body.lineHeight {
		return p, errors.New("layout leaves no room for body text")
	}
	area := image.Rect(m, top, w-m, bottom)

	var truncated bool
	switch kl.body {
	case bodyCards:
		truncated = r.planCards(&p, splitPoints(spec.Text), area, fc.body, false)
	case bodyPanel:
		truncated = r.planCards(&p, []string{strings.Join(strings.Fields(spec.Text), " ")}, area, fc.body, true)
	default:
		truncated = r.planParagraph(&p, spec.Text, area, fc.body)
	}
	if len(p.Body) == 0 {
		return p, errors.New("layout leaves no room for body text")
	}
	p.Truncated = p.Truncated || truncated
	return p, nil
}

func (r *Renderer) planParagraph(p *plan, text string, area image.Rectangle, tf typeface) bool {
	n := min(r.layout.MaxLines, area.Dy()/tf.lineHeight)
	if n <= 0 {
		return true
	}
	lines, cut := fitLines(tf.face, text, area.Dx(), n)
	p.Body = append(p.Body, block{
		Lines:      lines,
		Rect:       image.Rect(area.Min.X, area.Min.Y, area.Max.X, area.Min.Y+len(lines)*tf.lineHeight),
		LineHeight: tf.lineHeight,
		Align:      alignCenter,
	})
	return cut
}

// planCards stacks one card per point until the line budget or the
// vertical space runs out. The last visible line carries the ellipsis
// when anything was dropped.
func (r *Renderer) planCards(p *plan, points []string, area image.Rectangle, tf typeface, emphasis bool) bool {
	lh := tf.lineHeight
	pad := lh / 2
	icon := lh / 2
	insetL := pad + icon + pad
	if emphasis {
		insetL = pad
	}
	textW := area.Dx() - insetL - pad

	remaining := r.layout.MaxLines
	y := area.Min.Y
	truncated := false
	for _, point := range points {
		n := min(remaining, (area.Max.Y-y-2*pad)/lh)
		if n <= 0 {
			truncated = true
			break
		}
		lines, cut := fitLines(tf.face, point, textW, n)
		rect := image.Rect(area.Min.X, y, area.Max.X, y+2*pad+len(lines)*lh)
		c := card{Rect: rect, Emphasis: emphasis}
		if !emphasis {
			iy := rect.Min.Y + pad + (lh-icon)/2
			c.Icon = image.Rect(rect.Min.X+pad, iy, rect.Min.X+pad+icon, iy+icon)
		}
		p.Cards = append(p.Cards, c)
		p.Body = append(p.Body, block{
			Lines:      lines,
			Rect:       image.Rect(rect.Min.X+insetL, rect.Min.Y+pad, rect.Max.X-pad, rect.Max.Y-pad),
			LineHeight: lh,
		})
		remaining -= len(lines)
		y = rect.Max.Y + cardGap
		if cut {
			truncated = true
			break
		}
	}

	if truncated && len(p.Body) > 0 {
		last := &p.Body[len(p.Body)-1]
		i := len(last.Lines) - 1
		if !strings.HasSuffix(last.Lines[i], Ellipsis) {
			last.Lines[i] = ellipsize(tf.face, last.Lines[i], last.Rect.Dx())
		}
	}
	return truncated
}

// splitPoints breaks text into sentences, keeping their punctuation.
func splitPoints(text string) []string {
	var (
		points  []string
		current []string
	)
	for _, word := range strings.Fields(text) {
		current = append(current, word)
		if strings.ContainsAny(word[len(word)-1:], ".!?") {
			points = append(points, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		points = append(points, strings.Join(current, " "))
	}
	return points
}

// fitLines wraps text to maxWidth and keeps at most maxLines, ellipsizing
// the last kept line when text was dropped.
func fitLines(face font.Face, text string, maxWidth, maxLines int) ([]string, bool) {
	lines := wrap(face, text, maxWidth)
	if len(lines) <= maxLines {
		return lines, false
	}
	lines = lines[:maxLines]
	lines[maxLines-1] = ellipsize(face, lines[maxLines-1], maxWidth)
	return lines, true
}

// wrap breaks text on spaces so every line fits maxWidth. Words wider than
// the line are split between runes.
func wrap(face font.Face, text string, maxWidth int) []string {
	var (
		lines   []string
		current string
	)
	for _, word := range strings.Fields(text) {
		for measure(face, word) > maxWidth {
			head, tail := splitToFit(face, word, maxWidth)
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			lines = append(lines, head)
			word = tail
		}
		if word == "" {
			continue
		}
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if measure(face, candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func splitToFit(face font.Face, word string, maxWidth int) (string, string) {
	runes := []rune(word)
	k := 1
	for k < len(runes) && measure(face, string(runes[:k+1])) <= maxWidth {
		k++
	}
	return string(runes[:k]), string(runes[k:])
}

// ellipsize appends the ellipsis to line, dropping trailing runes until the
// result fits maxWidth.
func ellipsize(face font.Face, line string, maxWidth int) string {
	runes := []rune(strings.TrimRight(line, " "))
	for len(runes) > 0 {
		candidate := strings.TrimRight(string(runes), " ") + Ellipsis
		if measure(face, candidate) <= maxWidth {
			return candidate
		}
		runes = runes[:len(runes)-1]
	}
	return Ellipsis
}
