package director

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/placement2video/internal/slide"
)

// Focus targets for a Move.
const (
	FocusFrame   = "frame"
	FocusContent = "content"
)

// Move is one point of a camera template. At is a fraction of the clip
// duration; X and Y place the focus center as fractions of the frame.
type Move struct {
	At    float64 `yaml:"at"`
	Zoom  float64 `yaml:"zoom"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Focus string  `yaml:"focus,omitempty"`
}

// Motion is the camera template of one slide kind.
type Motion struct {
	Moves []Move `yaml:"moves"`
}

// MotionTable maps every slide kind to its camera template.
type MotionTable struct {
	Version string                `yaml:"version"`
	Kinds   map[slide.Kind]Motion `yaml:"kinds"`
}

const (
	tableVersion = "1.0"
	maxZoom      = 3.0
)

// DefaultMotionTable returns the built-in templates: slow push-in for
// titles, a gentle drift for info slides, a pan onto the content panel for
// highlights and a pull-back for the outro.
func DefaultMotionTable() MotionTable {
	return MotionTable{
		Version: tableVersion,
		Kinds: map[slide.Kind]Motion{
			slide.KindTitle: {Moves: []Move{
				{At: 0, Zoom: 1.0, X: 0.5, Y: 0.5},
				{At: 1, Zoom: 1.12, X: 0.5, Y: 0.45},
			}},
			slide.KindInfo: {Moves: []Move{
				{At: 0, Zoom: 1.0, X: 0.5, Y: 0.48},
				{At: 1, Zoom: 1.06, X: 0.5, Y: 0.52},
			}},
			slide.KindHighlight: {Moves: []Move{
				{At: 0, Zoom: 1.0, X: 0.5, Y: 0.5},
				{At: 0.35, Zoom: 1.3, X: 0.5, Y: 0.5, Focus: FocusContent},
				{At: 1, Zoom: 1.3, X: 0.5, Y: 0.5, Focus: FocusContent},
			}},
			slide.KindOutro: {Moves: []Move{
				{At: 0, Zoom: 1.12, X: 0.5, Y: 0.5},
				{At: 1, Zoom: 1.0, X: 0.5, Y: 0.5},
			}},
		},
	}
}

// Validate checks that every kind has a usable, time-ordered template.
func (t MotionTable) Validate() error {
	var errs []error
	for _, kind := range slide.Kinds {
		motion, ok := t.Kinds[kind]
		if !ok || len(motion.Moves) == 0 {
			errs = append(errs, fmt.Errorf("kind %s: no moves", kind))
			continue
		}
		prev := -1.0
		for i, m := range motion.Moves {
			switch {
			case m.At < 0 || m.At > 1:
				errs = append(errs, fmt.Errorf("kind %s move %d: at %.2f outside [0,1]", kind, i, m.At))
			case m.At <= prev:
				errs = append(errs, fmt.Errorf("kind %s move %d: at %.2f not after %.2f", kind, i, m.At, prev))
			}
			if m.Zoom < 1 || m.Zoom > maxZoom {
				errs = append(errs, fmt.Errorf("kind %s move %d: zoom %.2f outside [1,%.0f]", kind, i, m.Zoom, maxZoom))
			}
			if m.X < 0 || m.X > 1 || m.Y < 0 || m.Y > 1 {
				errs = append(errs, fmt.Errorf("kind %s move %d: focus (%.2f,%.2f) outside the frame", kind, i, m.X, m.Y))
			}
			if m.Focus != "" && m.Focus != FocusFrame && m.Focus != FocusContent {
				errs = append(errs, fmt.Errorf("kind %s move %d: unknown focus %q", kind, i, m.Focus))
			}
			prev = m.At
		}
	}
	for kind := range t.Kinds {
		if !kind.Valid() {
			errs = append(errs, fmt.Errorf("unknown kind %q", kind))
		}
	}
	return errors.Join(errs...)
}

// LoadTable loads a table from YAML. Kinds the file leaves out keep
// their default template.
func LoadTable(path string) (MotionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MotionTable{}, fmt.Errorf("read motion table: %w", err)
	}

	var file MotionTable
	if err := yaml.Unmarshal(data, &file); err != nil {
		return MotionTable{}, fmt.Errorf("parse motion table %s: %w", path, err)
	}

	table := DefaultMotionTable()
	if file.Version != "" {
		table.Version = file.Version
	}
	for kind, motion := range file.Kinds {
		table.Kinds[kind] = motion
	}
	if err := table.Validate(); err != nil {
		return MotionTable{}, fmt.Errorf("motion table %s: %w", path, err)
	}
	return table, nil
}

// WriteTable writes a table to a YAML file
func WriteTable(table MotionTable, path string) error {
	data, err := yaml.Marshal(table)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
