package timeline

import (
	"errors"
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/ivlev/placement2video/internal/director"
	"github.com/ivlev/placement2video/internal/faults"
	"github.com/ivlev/placement2video/internal/narration"
	"github.com/ivlev/placement2video/internal/renderer"
	"github.com/ivlev/placement2video/internal/slide"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func specs(n int) []slide.Spec {
	out := make([]slide.Spec, n)
	for i := range out {
		out[i] = slide.Spec{Index: i, Kind: slide.KindInfo, Title: "Slide", Text: "Body", Style: slide.StyleTechForward}
	}
	return out
}

func visual(d float64) *renderer.Clip {
	return &renderer.Clip{
		Frame:    image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Duration: d,
		Motion: []director.Keyframe{
			director.FullFrame(0, 4, 4),
			{Time: d, Rect: director.Rectangle{W: 2, H: 2, X: 1, Y: 1}, Zoom: 2},
		},
	}
}

func ok(i int, audio float64) Result {
	return Result{Index: i, Visual: visual(3), Audio: &narration.Clip{Path: "a.wav", Duration: audio}}
}

func TestAssembleDurations(t *testing.T) {
	a := Assembler{MinVisual: 3, Fade: 0.5, FPS: 30}
	results := []Result{ok(0, 2.0), ok(1, 4.99), ok(2, 6.0)}

	tl, skipped, err := a.Assemble(specs(3), results)
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Fatalf("unexpected skips: %v", skipped)
	}
	segs := tl.Segments()
	want := []float64{3, 5, 6}
	for i, s := range segs {
		if !near(s.Duration, want[i]) {
			t.Errorf("segment %d duration %.4f, want %.4f", i, s.Duration, want[i])
		}
		if !near(s.Visual.Duration, s.Duration) {
			t.Errorf("segment %d visual %.4f does not match segment %.4f", i, s.Visual.Duration, s.Duration)
		}
		last := s.Visual.Motion[len(s.Visual.Motion)-1]
		if !near(last.Time, s.Duration) {
			t.Errorf("segment %d motion ends at %.4f", i, last.Time)
		}
	}

	// Short audio holds the visual: the motion still finishes at 3s.
	if m := segs[0].Visual.Motion; !near(m[1].Time, 3) {
		t.Errorf("held visual was rescaled: %+v", m)
	}
	// Long audio rescales the motion to the audio length.
	if m := segs[2].Visual.Motion; !near(m[1].Time, 6) {
		t.Errorf("visual not rescaled to narration: %+v", m)
	}

	if !tl.Sealed() {
		t.Error("timeline not sealed")
	}
	if got, want := tl.Duration(), 3+5+6-2*0.5; !near(got, want) {
		t.Errorf("duration %.4f, want %.4f", got, want)
	}
	if offs := tl.Transitions().Offsets; len(offs) != 2 || !near(offs[0], 2.5) || !near(offs[1], 7) {
		t.Errorf("offsets %v", offs)
	}
}

func TestAssembleFrameGrid(t *testing.T) {
	a := Assembler{MinVisual: 1, FPS: 30}
	tl, _, err := a.Assemble(specs(1), []Result{ok(0, 3.01)})
	if err != nil {
		t.Fatal(err)
	}
	d := tl.Segments()[0].Duration
	if frames := d * 30; !near(frames, math.Round(frames)) || d < 3.01 {
		t.Errorf("duration %.5f not aligned up to the frame grid", d)
	}
}

func TestAssembleOrderIndependentOfCompletion(t *testing.T) {
	a := Assembler{MinVisual: 3, Fade: 0.3, FPS: 30}
	base := []Result{ok(0, 3), ok(1, 4), ok(2, 5), ok(3, 6), ok(4, 7)}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]Result(nil), base...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		tl, _, err := a.Assemble(specs(5), shuffled)
		if err != nil {
			t.Fatal(err)
		}
		for i, s := range tl.Segments() {
			if s.Index != i {
				t.Fatalf("trial %d: position %d holds slide %d", trial, i, s.Index)
			}
		}
	}
}

func TestAssembleSingleSlideHasNoTransition(t *testing.T) {
	a := Assembler{MinVisual: 3, Fade: 0.5, FPS: 30}
	tl, _, err := a.Assemble(specs(1), []Result{ok(0, 4)})
	if err != nil {
		t.Fatal(err)
	}
	plan := tl.Transitions()
	if len(plan.Offsets) != 0 || plan.Fade != 0 {
		t.Errorf("single slide got transitions: %+v", plan)
	}
	if !near(tl.Duration(), 4) {
		t.Errorf("duration %.3f, want 4", tl.Duration())
	}
}

func TestAssembleFailurePolicy(t *testing.T) {
	synthErr := faults.Synthesis(1, "backend unavailable", errors.New("503"))
	results := []Result{ok(0, 3), {Index: 1, Err: synthErr}, ok(2, 3)}

	t.Run("abort", func(t *testing.T) {
		a := Assembler{MinVisual: 3, Fade: 0.5, FPS: 30}
		_, _, err := a.Assemble(specs(3), results)
		if !errors.Is(err, faults.ErrSynthesis) {
			t.Fatalf("expected synthesis error, got %v", err)
		}
		if idx, ok := faults.SlideIndex(err); !ok || idx != 1 {
			t.Errorf("error slide index = %d, %v", idx, ok)
		}
	})

	t.Run("best-effort", func(t *testing.T) {
		a := Assembler{MinVisual: 3, Fade: 0.5, FPS: 30, BestEffort: true}
		tl, skipped, err := a.Assemble(specs(3), results)
		if err != nil {
			t.Fatal(err)
		}
		if len(skipped) != 1 || skipped[0].Index != 1 || skipped[0].Stage != "narration" {
			t.Fatalf("skipped = %+v", skipped)
		}
		if !errors.Is(skipped[0].Err, faults.ErrSynthesis) {
			t.Errorf("skip lost its error kind: %v", skipped[0].Err)
		}
		segs := tl.Segments()
		if len(segs) != 2 || segs[0].Index != 0 || segs[1].Index != 2 {
			t.Errorf("segments = %+v", segs)
		}
		if !near(tl.Duration(), 5.5) {
			t.Errorf("duration %.3f, want 5.5", tl.Duration())
		}
	})

	t.Run("best-effort with nothing left", func(t *testing.T) {
		a := Assembler{MinVisual: 3, FPS: 30, BestEffort: true}
		_, skipped, err := a.Assemble(specs(1), []Result{{Index: 0, Err: faults.Render(0, "boom", nil)}})
		if !errors.Is(err, faults.ErrSequencing) {
			t.Fatalf("expected sequencing error, got %v", err)
		}
		if len(skipped) != 1 {
			t.Errorf("skipped = %+v", skipped)
		}
	})
}

func TestAssembleSequencingErrors(t *testing.T) {
	a := Assembler{MinVisual: 3, FPS: 30}
	gap := specs(3)
	gap[2].Index = 5

	tests := []struct {
		name    string
		specs   []slide.Spec
		results []Result
	}{
		{"gap in spec indexes", gap, []Result{ok(0, 3), ok(1, 3), ok(2, 3)}},
		{"duplicate result", specs(2), []Result{ok(0, 3), ok(0, 3), ok(1, 3)}},
		{"unknown result", specs(1), []Result{ok(0, 3), ok(4, 3)}},
		{"missing result", specs(2), []Result{ok(0, 3)}},
		{"no slides", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := a.Assemble(tt.specs, tt.results)
			if !errors.Is(err, faults.ErrSequencing) {
				t.Errorf("expected sequencing error, got %v", err)
			}
		})
	}
}

func TestAssembleSilentAudio(t *testing.T) {
	a := Assembler{MinVisual: 3, FPS: 30}
	r := Result{Index: 0, Visual: visual(3), Audio: narration.Silent(3, 44100)}
	tl, _, err := a.Assemble(specs(1), []Result{r})
	if err != nil {
		t.Fatal(err)
	}
	if !tl.Segments()[0].Audio.Silent {
		t.Error("silent clip not carried into the segment")
	}
}

func TestAssembleRejectsEmptySilence(t *testing.T) {
	a := Assembler{MinVisual: 3, FPS: 30}
	r := Result{Index: 0, Visual: visual(3), Audio: narration.Silent(0, 44100)}
	if _, _, err := a.Assemble(specs(1), []Result{r}); !errors.Is(err, faults.ErrSynthesis) {
		t.Fatalf("expected synthesis error for zero-length silence, got %v", err)
	}
}

func TestTimelineAppendRules(t *testing.T) {
	tl := New(0.5)
	seg := Segment{Index: 1, Visual: visual(3), Audio: &narration.Clip{Duration: 3}, Duration: 3}

	if err := tl.Append(seg); err != nil {
		t.Fatal(err)
	}
	if err := tl.Append(seg); err == nil {
		t.Error("expected error appending out of order")
	}
	bad := seg
	bad.Index, bad.Duration = 2, 0
	if err := tl.Append(bad); err == nil {
		t.Error("expected error for zero duration")
	}
	if err := tl.Seal(); err != nil {
		t.Fatal(err)
	}
	next := seg
	next.Index = 3
	if err := tl.Append(next); err == nil {
		t.Error("expected error appending after seal")
	}
	if tl.Len() != 1 {
		t.Errorf("len %d, want 1", tl.Len())
	}
}

func TestEmptyTimelineCannotSeal(t *testing.T) {
	if err := New(0.5).Seal(); err == nil {
		t.Error("expected error sealing an empty timeline")
	}
}
