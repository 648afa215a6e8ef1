package config

import (
	"fmt"
	"time"
)

// VideoConfig is the output encoding profile. It is passed by value and
// never mutated once a run starts; Width/Height fix the aspect ratio every
// slide is rendered at.
type VideoConfig struct {
	Width        int    `yaml:"width" toml:"width"`
	Height       int    `yaml:"height" toml:"height"`
	FPS          int    `yaml:"fps" toml:"fps"`
	VideoCodec   string `yaml:"video_codec" toml:"video_codec"`
	AudioCodec   string `yaml:"audio_codec" toml:"audio_codec"`
	Bitrate      string `yaml:"bitrate" toml:"bitrate"`
	AudioBitrate string `yaml:"audio_bitrate" toml:"audio_bitrate"`
	Quality      int    `yaml:"quality" toml:"quality"`
	Preset       string `yaml:"preset" toml:"preset"`
	SampleRate   int    `yaml:"sample_rate" toml:"sample_rate"`
}

// FrameDuration is the length of one output frame in seconds.
func (v VideoConfig) FrameDuration() float64 {
	if v.FPS <= 0 {
		return 0
	}
	return 1.0 / float64(v.FPS)
}

// Size returns the frame dimensions as "WxH".
func (v VideoConfig) Size() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// Narration configures the speech backend and the speaking rate.
type Narration struct {
	Rate        string `yaml:"rate" toml:"rate"`
	Endpoint    string `yaml:"endpoint" toml:"endpoint"`
	Model       string `yaml:"model" toml:"model"`
	APIKey      string `yaml:"api_key" toml:"api_key"`
	AllowSilent bool   `yaml:"allow_silent" toml:"allow_silent"`
	FFmpegPath  string `yaml:"ffmpeg_path" toml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path" toml:"ffprobe_path"`
}

// Layout controls slide rasterization.
type Layout struct {
	Margin        int     `yaml:"margin" toml:"margin"`
	TitleSize     float64 `yaml:"title_size" toml:"title_size"`
	BodySize      float64 `yaml:"body_size" toml:"body_size"`
	LineSpacing   float64 `yaml:"line_spacing" toml:"line_spacing"`
	MaxLines      int     `yaml:"max_lines" toml:"max_lines"`
	ImageBoxRatio float64 `yaml:"image_box_ratio" toml:"image_box_ratio"`
	Style         string  `yaml:"style" toml:"style"`
	LogoOnAll     bool    `yaml:"logo_on_all" toml:"logo_on_all"`
	ShowProgress  bool    `yaml:"show_progress" toml:"show_progress"`
}

// Effects configures per-slide motion and cross-slide transitions.
type Effects struct {
	FadeDuration float64 `yaml:"fade_duration" toml:"fade_duration"`
	Transition   string  `yaml:"transition" toml:"transition"`
	Easing       string  `yaml:"easing" toml:"easing"`
	TablePath    string  `yaml:"table_path" toml:"table_path"`
	Detector     string  `yaml:"detector" toml:"detector"`
}

// Pipeline configures scheduling and failure handling.
type Pipeline struct {
	MinVisualDuration   float64 `yaml:"min_visual_duration" toml:"min_visual_duration"`
	Parallelism         int     `yaml:"parallelism" toml:"parallelism"`
	SlideTimeoutSeconds int     `yaml:"slide_timeout_seconds" toml:"slide_timeout_seconds"`
	OnFailure           string  `yaml:"on_failure" toml:"on_failure"`
	MaxSlides           int     `yaml:"max_slides" toml:"max_slides"`
	TempDir             string  `yaml:"temp_dir" toml:"temp_dir"`
	Verify              bool    `yaml:"verify" toml:"verify"`
}

// Share configures the link rendered as a QR code on the outro slide.
type Share struct {
	Phone   string `yaml:"phone" toml:"phone"`
	Message string `yaml:"message" toml:"message"`
	QRCode  bool   `yaml:"qr_code" toml:"qr_code"`
}

// Logging configures log output.
type Logging struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Config is the complete run configuration. One value is built at startup
// and handed to each component at construction.
type Config struct {
	Video     VideoConfig `yaml:"video" toml:"video"`
	Narration Narration   `yaml:"narration" toml:"narration"`
	Layout    Layout      `yaml:"layout" toml:"layout"`
	Effects   Effects     `yaml:"effects" toml:"effects"`
	Pipeline  Pipeline    `yaml:"pipeline" toml:"pipeline"`
	Share     Share       `yaml:"share" toml:"share"`
	Logging   Logging     `yaml:"logging" toml:"logging"`
}

// Failure policies.
const (
	PolicyAbort      = "abort"
	PolicyBestEffort = "best-effort"
)

// BestEffort reports whether failed slides are skipped instead of aborting.
func (c Config) BestEffort() bool {
	return c.Pipeline.OnFailure == PolicyBestEffort
}

// SlideTimeout returns the per-slide stage timeout.
func (c Config) SlideTimeout() time.Duration {
	return time.Duration(c.Pipeline.SlideTimeoutSeconds) * time.Second
}
