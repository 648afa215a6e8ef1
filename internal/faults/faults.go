// Package faults defines the error kinds a pipeline run can fail with.
//
// Every stage failure is wrapped in an *Error that carries one of the
// exported kind markers, so callers classify failures with errors.Is
// while the original cause stays reachable through the same chain.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSynthesis  = errors.New("synthesis error")
	ErrRender     = errors.New("render error")
	ErrSequencing = errors.New("sequencing error")
	ErrEncoding   = errors.New("encoding error")
	ErrCancelled  = errors.New("run cancelled")
)

// NoIndex marks errors that do not belong to a single slide.
const NoIndex = -1

// Error is a classified pipeline failure.
type Error struct {
	Kind    error
	Stage   string
	Index   int
	Message string
	Err     error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 4)
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if stage := strings.TrimSpace(e.Stage); stage != "" {
		parts = append(parts, stage)
	}
	if e.Index >= 0 {
		parts = append(parts, fmt.Sprintf("slide %d", e.Index))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	text := strings.Join(parts, ": ")
	if e.Err != nil {
		return text + ": " + e.Err.Error()
	}
	return text
}

// Unwrap exposes both the kind marker and the cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Wrap tags err with the given kind. A nil kind is treated as an encoding
// failure since that is the only stage without a per-slide owner.
func Wrap(kind error, stage string, index int, message string, err error) error {
	if kind == nil {
		kind = ErrEncoding
	}
	return &Error{Kind: kind, Stage: stage, Index: index, Message: message, Err: err}
}

func Synthesis(index int, message string, err error) error {
	return Wrap(ErrSynthesis, "narration", index, message, err)
}

func Render(index int, message string, err error) error {
	return Wrap(ErrRender, "render", index, message, err)
}

func Sequencing(message string, err error) error {
	return Wrap(ErrSequencing, "assemble", NoIndex, message, err)
}

func Encoding(message string, err error) error {
	return Wrap(ErrEncoding, "encode", NoIndex, message, err)
}

// Cancelled reports a run stopped by its context during stage. The
// context error stays in the chain.
func Cancelled(stage string, err error) error {
	return Wrap(ErrCancelled, stage, NoIndex, "", err)
}

// KindName returns a stable label for err's kind, or "unknown".
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return "Cancelled"
	case errors.Is(err, ErrSynthesis):
		return "SynthesisError"
	case errors.Is(err, ErrRender):
		return "RenderError"
	case errors.Is(err, ErrSequencing):
		return "SequencingError"
	case errors.Is(err, ErrEncoding):
		return "EncodingError"
	default:
		return "unknown"
	}
}

// SlideIndex returns the slide index recorded on err, if any.
func SlideIndex(err error) (int, bool) {
	var fe *Error
	if errors.As(err, &fe) && fe.Index >= 0 {
		return fe.Index, true
	}
	return 0, false
}
