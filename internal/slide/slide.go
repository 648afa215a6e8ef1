// Package slide holds the canonical representation of one slide of the
// narration script.
package slide

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// Kind is the role a slide plays in the video. Layout and motion are
// dispatched on it through explicit per-kind tables.
type Kind string

const (
	KindTitle     Kind = "title"
	KindInfo      Kind = "info"
	KindHighlight Kind = "highlight"
	KindOutro     Kind = "outro"
)

// Kinds lists every slide kind in display order.
var Kinds = []Kind{KindTitle, KindInfo, KindHighlight, KindOutro}

// ParseKind accepts the lower- or upper-case kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown slide kind %q", s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	switch k {
	case KindTitle, KindInfo, KindHighlight, KindOutro:
		return true
	}
	return false
}

// Style selects the background and color treatment.
type Style string

const (
	StyleTechForward  Style = "tech-forward"
	StyleProfessional Style = "professional"
	StyleModern       Style = "modern"
	StyleColorful     Style = "colorful"
	StyleCorporate    Style = "corporate"
)

func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return StyleTechForward, nil
	}
	if !st.Valid() {
		return "", fmt.Errorf("unknown slide style %q", s)
	}
	return st, nil
}

func (s Style) Valid() bool {
	switch s {
	case StyleTechForward, StyleProfessional, StyleModern, StyleColorful, StyleCorporate:
		return true
	}
	return false
}

// Spec is one entry of the narration script. Specs are values; nothing in
// the pipeline mutates one after Build returns it.
type Spec struct {
	Index     int
	Kind      Kind
	Title     string
	Text      string
	Image     image.Image
	ImageName string
	Style     Style
}

// Validate checks the invariants a single spec must hold.
func (s Spec) Validate() error {
	var errs []error
	if s.Index < 0 {
		errs = append(errs, fmt.Errorf("negative index %d", s.Index))
	}
	if !s.Kind.Valid() {
		errs = append(errs, fmt.Errorf("unknown kind %q", s.Kind))
	}
	if !s.Style.Valid() {
		errs = append(errs, fmt.Errorf("unknown style %q", s.Style))
	}
	if strings.TrimSpace(s.Text) == "" {
		errs = append(errs, errors.New("empty text"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("slide %d: %w", s.Index, err)
	}
	return nil
}

// HasImage reports whether an image handle is attached.
func (s Spec) HasImage() bool {
	return s.Image != nil
}

// CheckSequence verifies that specs carry the indexes 0..N-1 exactly once.
// Order in the slice does not matter.
func CheckSequence(specs []Spec) error {
	seen := make([]bool, len(specs))
	for _, s := range specs {
		if s.Index < 0 || s.Index >= len(specs) {
			return fmt.Errorf("index %d outside 0..%d", s.Index, len(specs)-1)
		}
		if seen[s.Index] {
			return fmt.Errorf("duplicate index %d", s.Index)
		}
		seen[s.Index] = true
	}
	return nil
}
