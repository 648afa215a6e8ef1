package config

// Default returns the baseline configuration: a 9:16 H.264/AAC profile for
// mobile short-form video.
func Default() Config {
	return Config{
		Video: VideoConfig{
			Width:        1080,
			Height:       1920,
			FPS:          30,
			VideoCodec:   "libx264",
			AudioCodec:   "aac",
			Bitrate:      "4M",
			AudioBitrate: "192k",
			Quality:      23,
			Preset:       "medium",
			SampleRate:   44100,
		},
		Narration: Narration{
			Rate:        "normal",
			Endpoint:    "https://api.deepgram.com/v1/speak",
			Model:       "aura-stella-en",
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
		Layout: Layout{
			Margin:        80,
			TitleSize:     80,
			BodySize:      52,
			LineSpacing:   1.35,
			MaxLines:      8,
			ImageBoxRatio: 0.14,
			Style:         "tech-forward",
			ShowProgress:  true,
		},
		Effects: Effects{
			FadeDuration: 0.4,
			Transition:   "fade",
			Easing:       "ease-in-out",
			Detector:     "contrast",
		},
		Pipeline: Pipeline{
			MinVisualDuration:   3.0,
			SlideTimeoutSeconds: 60,
			OnFailure:           PolicyAbort,
			MaxSlides:           8,
			Verify:              true,
		},
		Share: Share{
			QRCode: true,
		},
		Logging: Logging{
			Level:  "info",
			Format: "auto",
		},
	}
}
