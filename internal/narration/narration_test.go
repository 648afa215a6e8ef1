package narration

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ivlev/placement2video/internal/faults"
	"github.com/ivlev/placement2video/internal/media/ffprobe"
	"github.com/ivlev/placement2video/internal/slide"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Stop scrolling!", "Stop scrolling!"},
		{"[SLIDE 1: THE DROP] Acme is hiring", "1. THE DROP Acme is hiring"},
		{"Deadline: Friday\n\nApply   now", "Deadline. Friday Apply now"},
		{"  [SLIDE ]  ", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRateMultiplier(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"slow", 0.85},
		{"", 1.0},
		{"FAST", 1.3},
	}
	for _, tt := range tests {
		r, err := ParseRate(tt.in)
		if err != nil {
			t.Fatalf("ParseRate(%q): %v", tt.in, err)
		}
		if r.Multiplier() != tt.want {
			t.Errorf("%q multiplier = %v, want %v", tt.in, r.Multiplier(), tt.want)
		}
	}
	if _, err := ParseRate("ludicrous"); err == nil {
		t.Fatal("expected error for unknown rate")
	}
}

func newTestService(t *testing.T, backend Backend, rate Rate, duration string) (*Service, *[]string) {
	t.Helper()
	svc := New(backend, Options{Rate: rate, SampleRate: 48000})
	var args []string
	svc.run = func(_ context.Context, _ string, a ...string) error {
		args = a
		return os.WriteFile(a[len(a)-1], []byte("RIFF"), 0o644)
	}
	svc.probe = func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "audio", SampleRate: "48000"}},
			Format:  ffprobe.Format{Duration: duration},
		}, nil
	}
	return svc, &args
}

func TestSynthesizeMeasuresClip(t *testing.T) {
	var spoken string
	backend := BackendFunc(func(_ context.Context, text string) ([]byte, error) {
		spoken = text
		return []byte("mp3"), nil
	})
	svc, args := newTestService(t, backend, RateFast, "2.75")

	dir := t.TempDir()
	clip, err := svc.Synthesize(context.Background(), slide.Spec{Index: 3, Text: "Deadline: Friday"}, dir)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if spoken != "Deadline. Friday" {
		t.Fatalf("backend received %q", spoken)
	}
	if clip.Duration != 2.75 || clip.SampleRate != 48000 || clip.Silent {
		t.Fatalf("unexpected clip %+v", clip)
	}
	if !strings.HasSuffix(clip.Path, "narration-003.wav") {
		t.Fatalf("unexpected path %s", clip.Path)
	}
	joined := strings.Join(*args, " ")
	if !strings.Contains(joined, "atempo=1.30,aresample=48000") {
		t.Fatalf("rate not applied: %s", joined)
	}
	if _, err := os.Stat(strings.TrimSuffix(clip.Path, ".wav") + ".src"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("raw speech file should be removed, stat err = %v", err)
	}
}

func TestSynthesizeFailures(t *testing.T) {
	ok := BackendFunc(func(context.Context, string) ([]byte, error) { return []byte("mp3"), nil })
	failing := BackendFunc(func(context.Context, string) ([]byte, error) { return nil, errors.New("quota exceeded") })

	tests := []struct {
		name     string
		backend  Backend
		text     string
		duration string
		want     string
	}{
		{"empty after cleaning", ok, "[SLIDE]", "1", "empty narration text"},
		{"backend error", failing, "hello", "1", "quota exceeded"},
		{"zero duration", ok, "hello", "0", "no measurable duration"},
		{"nil backend", nil, "hello", "1", "no speech backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.backend, RateNormal, tt.duration)
			_, err := svc.Synthesize(context.Background(), slide.Spec{Index: 1, Text: tt.text}, t.TempDir())
			if !errors.Is(err, faults.ErrSynthesis) {
				t.Fatalf("expected synthesis error, got %v", err)
			}
			if idx, ok := faults.SlideIndex(err); !ok || idx != 1 {
				t.Fatalf("expected slide index 1, got %d %v", idx, ok)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q missing %q", err, tt.want)
			}
		})
	}
}

func TestSynthesizeTimeoutIsSynthesisError(t *testing.T) {
	backend := BackendFunc(func(ctx context.Context, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, errors.New("request aborted")
	})
	svc, _ := newTestService(t, backend, RateNormal, "1")

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	_, err := svc.Synthesize(ctx, slide.Spec{Index: 0, Text: "hello"}, t.TempDir())
	if !errors.Is(err, faults.ErrSynthesis) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected synthesis deadline error, got %v", err)
	}
}

func TestHTTPBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("model") != "aura-test" {
			http.Error(w, "bad model", http.StatusBadRequest)
			return
		}
		var body map[string]string
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &body); err != nil || body["text"] != "hello" {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		w.Write([]byte("audio-bytes"))
	}))
	defer server.Close()

	backend := NewHTTPBackend(server.URL+"/v1/speak", "aura-test", "secret")
	audio, err := backend.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "audio-bytes" {
		t.Fatalf("unexpected audio %q", audio)
	}

	backend.APIKey = "wrong"
	if _, err := backend.Synthesize(context.Background(), "hello"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}

	backend.APIKey = ""
	if _, err := backend.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestSilentClip(t *testing.T) {
	clip := Silent(3, 44100)
	if !clip.Silent || clip.Path != "" || clip.Duration != 3 {
		t.Fatalf("unexpected silent clip %+v", clip)
	}
}
