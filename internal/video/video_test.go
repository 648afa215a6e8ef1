package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/placement2video/internal/config"
	"github.com/ivlev/placement2video/internal/director"
	"github.com/ivlev/placement2video/internal/faults"
	"github.com/ivlev/placement2video/internal/media/ffprobe"
	"github.com/ivlev/placement2video/internal/narration"
	"github.com/ivlev/placement2video/internal/renderer"
	"github.com/ivlev/placement2video/internal/timeline"
)

type call struct {
	args  []string
	stdin int
}

func testVideo() config.VideoConfig {
	v := config.Default().Video
	v.Width, v.Height = 8, 16
	return v
}

func sealed(t *testing.T, fade float64, audio ...*narration.Clip) *timeline.Timeline {
	t.Helper()
	tl := timeline.New(fade)
	for i, a := range audio {
		frame := image.NewRGBA(image.Rect(0, 0, 8, 16))
		frame.Set(0, 0, color.White)
		seg := timeline.Segment{
			Index: i,
			Visual: &renderer.Clip{Frame: frame, Duration: 3, Motion: []director.Keyframe{
				director.FullFrame(0, 8, 16),
				director.FullFrame(3, 8, 16),
			}},
			Audio:    a,
			Duration: 3,
		}
		if err := tl.Append(seg); err != nil {
			t.Fatal(err)
		}
	}
	if err := tl.Seal(); err != nil {
		t.Fatal(err)
	}
	return tl
}

func recordingEncoder(calls *[]call) *FFmpegEncoder {
	enc := NewFFmpegEncoder(Options{Video: testVideo(), Transition: "fade"})
	enc.run = func(_ context.Context, stdin io.Reader, _ string, args ...string) error {
		c := call{args: args}
		if stdin != nil {
			data, _ := io.ReadAll(stdin)
			c.stdin = len(data)
		}
		*calls = append(*calls, c)
		return os.WriteFile(args[len(args)-1], []byte("mp4"), 0o644)
	}
	return enc
}

func TestEncodeCrossfades(t *testing.T) {
	var calls []call
	enc := recordingEncoder(&calls)
	voice := &narration.Clip{Path: "/tmp/voice.wav", Duration: 2}
	tl := sealed(t, 0.5, voice, narration.Silent(3, 44100), voice)

	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	if err := enc.Encode(context.Background(), tl, dir, out); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 4 {
		t.Fatalf("expected 3 segment encodes and a join, got %d calls", len(calls))
	}

	for i, c := range calls[:3] {
		joined := strings.Join(c.args, " ")
		if c.stdin != 8*16*4 {
			t.Errorf("segment %d: wrote %d bytes of frame, want %d", i, c.stdin, 8*16*4)
		}
		for _, want := range []string{"-f rawvideo", "-pixel_format rgba", "-video_size 8x16", "-t 3.000000", "-c:v libx264", "-crf 23", "zoompan="} {
			if !strings.Contains(joined, want) {
				t.Errorf("segment %d args missing %q: %s", i, want, joined)
			}
		}
	}
	if joined := strings.Join(calls[1].args, " "); !strings.Contains(joined, "anullsrc=channel_layout=stereo:sample_rate=44100") {
		t.Errorf("silent segment does not use generated silence: %s", joined)
	}
	if joined := strings.Join(calls[0].args, " "); !strings.Contains(joined, "-i /tmp/voice.wav -af apad") {
		t.Errorf("narration not padded: %s", joined)
	}

	join := strings.Join(calls[3].args, " ")
	for _, want := range []string{
		"[0:v][1:v]xfade=transition=fade:duration=0.500000:offset=2.500000[v1]",
		"[v1][2:v]xfade=transition=fade:duration=0.500000:offset=5.000000[vout]",
		"[0:a][1:a]acrossfade=d=0.500000[a1]",
		"[a1][2:a]acrossfade=d=0.500000[aout]",
		"-movflags +faststart",
	} {
		if !strings.Contains(join, want) {
			t.Errorf("join args missing %q: %s", want, join)
		}
	}
	if calls[3].args[len(calls[3].args)-1] != out {
		t.Errorf("join does not write %s", out)
	}
}

func TestEncodeSingleSegmentCopies(t *testing.T) {
	var calls []call
	enc := recordingEncoder(&calls)
	tl := sealed(t, 0.5, &narration.Clip{Path: "v.wav", Duration: 3})

	dir := t.TempDir()
	if err := enc.Encode(context.Background(), tl, dir, filepath.Join(dir, "out.mp4")); err != nil {
		t.Fatal(err)
	}
	join := strings.Join(calls[len(calls)-1].args, " ")
	if !strings.Contains(join, "-c copy") || strings.Contains(join, "xfade") {
		t.Errorf("single segment should be stream-copied: %s", join)
	}
}

func TestEncodeWithoutFadeConcats(t *testing.T) {
	var calls []call
	enc := recordingEncoder(&calls)
	clip := &narration.Clip{Path: "v.wav", Duration: 3}
	tl := sealed(t, 0, clip, clip)

	dir := t.TempDir()
	if err := enc.Encode(context.Background(), tl, dir, filepath.Join(dir, "out.mp4")); err != nil {
		t.Fatal(err)
	}
	join := strings.Join(calls[len(calls)-1].args, " ")
	if !strings.Contains(join, "[0:v][0:a][1:v][1:a]concat=n=2:v=1:a=1[vout][aout]") {
		t.Errorf("expected concat filter: %s", join)
	}
}

func TestEncodeErrors(t *testing.T) {
	clip := &narration.Clip{Path: "v.wav", Duration: 3}

	t.Run("unsealed", func(t *testing.T) {
		enc := NewFFmpegEncoder(Options{Video: testVideo()})
		err := enc.Encode(context.Background(), timeline.New(0), t.TempDir(), "out.mp4")
		if !errors.Is(err, faults.ErrEncoding) {
			t.Fatalf("expected encoding error, got %v", err)
		}
	})

	t.Run("ffmpeg failure", func(t *testing.T) {
		enc := NewFFmpegEncoder(Options{Video: testVideo()})
		enc.run = func(context.Context, io.Reader, string, ...string) error { return errors.New("exit status 1") }
		err := enc.Encode(context.Background(), sealed(t, 0.5, clip, clip), t.TempDir(), "out.mp4")
		if !errors.Is(err, faults.ErrEncoding) {
			t.Fatalf("expected encoding error, got %v", err)
		}
		if idx, ok := faults.SlideIndex(err); !ok || idx != 0 {
			t.Errorf("segment failure should name slide 0, got %d %v", idx, ok)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		var calls []call
		enc := recordingEncoder(&calls)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := enc.Encode(ctx, sealed(t, 0.5, clip, clip), t.TempDir(), "out.mp4")
		if !errors.Is(err, context.Canceled) || !errors.Is(err, faults.ErrEncoding) {
			t.Fatalf("expected cancelled encoding error, got %v", err)
		}
		if len(calls) != 0 {
			t.Errorf("ffmpeg ran %d times after cancel", len(calls))
		}
	})
}

func TestQualityArgs(t *testing.T) {
	v := config.Default().Video
	v.Quality = 70
	tests := []struct {
		encoder string
		want    string
	}{
		{"h264_videotoolbox", "-b:v 7000k"},
		{"h264_nvenc", "-cq 70"},
		{"libx264", "-crf 70 -preset medium -maxrate 4M -bufsize 8000000"},
	}
	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			if got := strings.Join(QualityArgs(tt.encoder, v), " "); got != tt.want {
				t.Errorf("QualityArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteRawRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(2, 2, 4, 4))
	src.Set(2, 2, color.NRGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := writeRawRGBA(&buf, src); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 2*2*4 {
		t.Fatalf("wrote %d bytes, want 16", buf.Len())
	}
	if got := buf.Bytes()[:4]; !bytes.Equal(got, []byte{255, 0, 0, 255}) {
		t.Errorf("first pixel = %v", got)
	}
}

func TestCheck(t *testing.T) {
	good := ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "audio"}},
		Format:  ffprobe.Format{Duration: "8.000"},
	}
	if err := Check(good, 8.02, 0.1); err != nil {
		t.Errorf("Check(good) = %v", err)
	}

	tests := []struct {
		name   string
		result ffprobe.Result
	}{
		{"no audio", ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}, Format: good.Format}},
		{"two videos", ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "video"}, {CodecType: "audio"}}, Format: good.Format}},
		{"too short", ffprobe.Result{Streams: good.Streams, Format: ffprobe.Format{Duration: "5"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Check(tt.result, 8, 0.1); !errors.Is(err, faults.ErrEncoding) {
				t.Errorf("expected encoding error, got %v", err)
			}
		})
	}
}
