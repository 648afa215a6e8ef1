package faults

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWrapKeepsKindAndCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := Synthesis(3, "backend call", cause)

	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis in chain: %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cause in chain: %v", err)
	}
	if errors.Is(err, ErrRender) {
		t.Fatalf("unexpected ErrRender in chain")
	}
	if idx, ok := SlideIndex(err); !ok || idx != 3 {
		t.Fatalf("SlideIndex = %d, %v; want 3, true", idx, ok)
	}
	if !strings.Contains(err.Error(), "slide 3") {
		t.Fatalf("message should name the slide: %q", err.Error())
	}
}

func TestKindName(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Synthesis(0, "x", nil), "SynthesisError"},
		{Render(1, "x", nil), "RenderError"},
		{Sequencing("gap", nil), "SequencingError"},
		{Encoding("mux", errors.New("boom")), "EncodingError"},
		{Cancelled("encode", Encoding("ffmpeg", context.Canceled)), "Cancelled"},
		{errors.New("plain"), "unknown"},
	}
	for _, tt := range tests {
		if got := KindName(tt.err); got != tt.want {
			t.Errorf("KindName(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSequencingHasNoIndex(t *testing.T) {
	err := Sequencing("duplicate index 2", nil)
	if _, ok := SlideIndex(err); ok {
		t.Fatal("sequencing errors are run-level")
	}
	if got := err.Error(); got != "sequencing error: assemble: duplicate index 2" {
		t.Fatalf("unexpected message %q", got)
	}
}
