package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	validRates    = []string{"slow", "normal", "fast"}
	validPolicies = []string{PolicyAbort, PolicyBestEffort}
	validEasings  = []string{"linear", "ease-in-out", "ease-out"}
	validStyles   = []string{"tech-forward", "professional", "modern", "colorful", "corporate"}
	validDetector = []string{"contrast", "none"}
)

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	v := c.Video
	if v.Width <= 0 || v.Height <= 0 {
		errs = append(errs, fmt.Errorf("video: dimensions must be positive, got %s", v.Size()))
	} else if v.Width%2 != 0 || v.Height%2 != 0 {
		errs = append(errs, fmt.Errorf("video: yuv420p needs even dimensions, got %s", v.Size()))
	}
	if v.FPS <= 0 || v.FPS > 120 {
		errs = append(errs, fmt.Errorf("video: fps must be in 1..120, got %d", v.FPS))
	}
	if strings.TrimSpace(v.VideoCodec) == "" {
		errs = append(errs, errors.New("video: video_codec is required"))
	}
	if strings.TrimSpace(v.AudioCodec) == "" {
		errs = append(errs, errors.New("video: audio_codec is required"))
	}
	if v.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("video: sample_rate must be positive, got %d", v.SampleRate))
	}

	if !oneOf(c.Narration.Rate, validRates) {
		errs = append(errs, fmt.Errorf("narration: rate %q not in %v", c.Narration.Rate, validRates))
	}

	l := c.Layout
	if l.Margin < 0 || (v.Width > 0 && 2*l.Margin >= v.Width) {
		errs = append(errs, fmt.Errorf("layout: margin %d leaves no room for text", l.Margin))
	}
	if l.TitleSize <= 0 || l.BodySize <= 0 {
		errs = append(errs, errors.New("layout: font sizes must be positive"))
	}
	if l.LineSpacing < 1 {
		errs = append(errs, fmt.Errorf("layout: line_spacing must be >= 1, got %.2f", l.LineSpacing))
	}
	if l.MaxLines < 1 {
		errs = append(errs, fmt.Errorf("layout: max_lines must be >= 1, got %d", l.MaxLines))
	}
	if l.ImageBoxRatio <= 0 || l.ImageBoxRatio >= 0.5 {
		errs = append(errs, fmt.Errorf("layout: image_box_ratio must be in (0, 0.5), got %.2f", l.ImageBoxRatio))
	}
	if !oneOf(l.Style, validStyles) {
		errs = append(errs, fmt.Errorf("layout: style %q not in %v", l.Style, validStyles))
	}

	p := c.Pipeline
	if p.MinVisualDuration <= 0 {
		errs = append(errs, fmt.Errorf("pipeline: min_visual_duration must be positive, got %.2f", p.MinVisualDuration))
	}
	if p.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("pipeline: parallelism must be >= 0, got %d", p.Parallelism))
	}
	if p.SlideTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("pipeline: slide_timeout_seconds must be positive, got %d", p.SlideTimeoutSeconds))
	}
	if !oneOf(p.OnFailure, validPolicies) {
		errs = append(errs, fmt.Errorf("pipeline: on_failure %q not in %v", p.OnFailure, validPolicies))
	}
	if p.MaxSlides < 1 {
		errs = append(errs, fmt.Errorf("pipeline: max_slides must be >= 1, got %d", p.MaxSlides))
	}

	e := c.Effects
	if e.FadeDuration < 0 {
		errs = append(errs, fmt.Errorf("effects: fade_duration must be >= 0, got %.2f", e.FadeDuration))
	} else if p.MinVisualDuration > 0 && e.FadeDuration >= p.MinVisualDuration {
		errs = append(errs, fmt.Errorf("effects: fade_duration %.2f must be shorter than min_visual_duration %.2f", e.FadeDuration, p.MinVisualDuration))
	}
	if strings.TrimSpace(e.Transition) == "" {
		errs = append(errs, errors.New("effects: transition is required"))
	}
	if !oneOf(e.Easing, validEasings) {
		errs = append(errs, fmt.Errorf("effects: easing %q not in %v", e.Easing, validEasings))
	}
	if !oneOf(e.Detector, validDetector) {
		errs = append(errs, fmt.Errorf("effects: detector %q not in %v", e.Detector, validDetector))
	}

	return errors.Join(errs...)
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
