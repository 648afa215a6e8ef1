package slide

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// Entry is one parsed script block before roles are assigned.
type Entry struct {
	Title string
	Text  string
	Kind  Kind // empty when the script did not tag the block
}

// BuildOptions carries the per-run inputs that are not part of the script.
type BuildOptions struct {
	Style     Style
	Logo      image.Image
	LogoName  string
	LogoOnAll bool
	MaxSlides int
}

// Build assigns indexes and kinds to script entries. Tagged entries keep
// their kind; untagged ones become TITLE (first), OUTRO (last, when there
// is more than one slide) or INFO.
func Build(entries []Entry, opts BuildOptions) ([]Spec, error) {
	if len(entries) == 0 {
		return nil, errors.New("script has no slides")
	}
	if opts.MaxSlides > 0 && len(entries) > opts.MaxSlides {
		return nil, fmt.Errorf("script has %d slides, limit is %d", len(entries), opts.MaxSlides)
	}
	style := opts.Style
	if style == "" {
		style = StyleTechForward
	}

	specs := make([]Spec, 0, len(entries))
	last := len(entries) - 1
	for i, e := range entries {
		kind := e.Kind
		if kind == "" {
			switch {
			case i == 0:
				kind = KindTitle
			case i == last:
				kind = KindOutro
			default:
				kind = KindInfo
			}
		}

		s := Spec{
			Index: i,
			Kind:  kind,
			Title: strings.TrimSpace(e.Title),
			Text:  strings.TrimSpace(e.Text),
			Style: style,
		}
		if opts.Logo != nil && (opts.LogoOnAll || kind == KindTitle) {
			s.Image = opts.Logo
			s.ImageName = opts.LogoName
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}
