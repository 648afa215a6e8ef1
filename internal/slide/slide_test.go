package slide

import (
	"image"
	"strings"
	"testing"
)

func TestBuildAssignsKindsByPosition(t *testing.T) {
	entries := []Entry{
		{Title: "The Drop", Text: "Stop scrolling."},
		{Title: "The Lowdown", Text: "Quick facts."},
		{Title: "Tech Stack", Text: "Go and Kubernetes.", Kind: KindHighlight},
		{Title: "Deadline", Text: "Apply today."},
	}
	logo := image.NewRGBA(image.Rect(0, 0, 10, 10))

	specs, err := Build(entries, BuildOptions{Logo: logo, LogoName: "acme"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []Kind{KindTitle, KindInfo, KindHighlight, KindOutro}
	for i, s := range specs {
		if s.Index != i {
			t.Errorf("spec %d has index %d", i, s.Index)
		}
		if s.Kind != want[i] {
			t.Errorf("spec %d kind = %s, want %s", i, s.Kind, want[i])
		}
		if s.Style != StyleTechForward {
			t.Errorf("spec %d style = %s", i, s.Style)
		}
	}
	if !specs[0].HasImage() {
		t.Error("logo should be attached to the title slide")
	}
	for _, s := range specs[1:] {
		if s.HasImage() {
			t.Errorf("slide %d should not carry the logo", s.Index)
		}
	}
}

func TestBuildSingleSlideIsTitle(t *testing.T) {
	specs, err := Build([]Entry{{Text: "only one"}}, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(specs) != 1 || specs[0].Kind != KindTitle {
		t.Fatalf("unexpected specs %+v", specs)
	}
}

func TestBuildRejects(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		opts    BuildOptions
		want    string
	}{
		{"empty script", nil, BuildOptions{}, "no slides"},
		{"empty text", []Entry{{Title: "x", Text: "  "}}, BuildOptions{}, "empty text"},
		{"too many", []Entry{{Text: "a"}, {Text: "b"}, {Text: "c"}}, BuildOptions{MaxSlides: 2}, "limit is 2"},
		{"bad style", []Entry{{Text: "a"}}, BuildOptions{Style: "neon"}, "unknown style"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.entries, tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestCheckSequence(t *testing.T) {
	tests := []struct {
		name    string
		indexes []int
		wantErr string
	}{
		{"ordered", []int{0, 1, 2}, ""},
		{"shuffled", []int{2, 0, 1}, ""},
		{"gap", []int{0, 2, 3}, "outside"},
		{"duplicate", []int{0, 1, 1}, "duplicate index 1"},
		{"negative", []int{-1, 0}, "outside"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := make([]Spec, len(tt.indexes))
			for i, idx := range tt.indexes {
				specs[i] = Spec{Index: idx}
			}
			err := CheckSequence(specs)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseKindAndStyle(t *testing.T) {
	if k, err := ParseKind("HIGHLIGHT"); err != nil || k != KindHighlight {
		t.Fatalf("ParseKind = %v, %v", k, err)
	}
	if _, err := ParseKind("intro"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if s, err := ParseStyle(""); err != nil || s != StyleTechForward {
		t.Fatalf("ParseStyle(\"\") = %v, %v", s, err)
	}
}
