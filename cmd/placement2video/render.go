package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/placement2video/internal/analyzer"
	"github.com/ivlev/placement2video/internal/config"
	"github.com/ivlev/placement2video/internal/director"
	"github.com/ivlev/placement2video/internal/effects"
	"github.com/ivlev/placement2video/internal/engine"
	"github.com/ivlev/placement2video/internal/logging"
	"github.com/ivlev/placement2video/internal/narration"
	"github.com/ivlev/placement2video/internal/renderer"
	"github.com/ivlev/placement2video/internal/share"
	"github.com/ivlev/placement2video/internal/slide"
	"github.com/ivlev/placement2video/internal/source"
	"github.com/ivlev/placement2video/internal/system"
	"github.com/ivlev/placement2video/internal/video"
)

const openFileLimit = 4096

type renderOptions struct {
	script     string
	logo       string
	company    string
	out        string
	bestEffort bool
	rate       string
	style      string
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a narration script into an MP4",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(&cfg); err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := runRender(runCtx, cfg, opts, logger)
			if err != nil {
				return err
			}
			printRenderReport(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.script, "script", "", "Narration script file")
	cmd.Flags().StringVar(&opts.logo, "logo", "", "Logo image, PDF or URL")
	cmd.Flags().StringVar(&opts.company, "company", "", "Company name used for logo lookup and file naming")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output video path (default output/<name>_<timestamp>.mp4)")
	cmd.Flags().BoolVar(&opts.bestEffort, "best-effort", false, "Skip failed slides instead of aborting")
	cmd.Flags().StringVar(&opts.rate, "rate", "", "Narration rate: slow, normal or fast")
	cmd.Flags().StringVar(&opts.style, "style", "", "Slide style: tech-forward, professional, modern, colorful, corporate")
	_ = cmd.MarkFlagRequired("script")

	return cmd
}

// apply folds command-line overrides into cfg and revalidates it.
func (o renderOptions) apply(cfg *config.Config) error {
	if o.bestEffort {
		cfg.Pipeline.OnFailure = config.PolicyBestEffort
	}
	if o.rate != "" {
		cfg.Narration.Rate = o.rate
	}
	if o.style != "" {
		cfg.Layout.Style = o.style
	}
	return cfg.Validate()
}

func runRender(ctx context.Context, cfg config.Config, opts renderOptions, logger *slog.Logger) (engine.Result, error) {
	system.RaiseOpenFileLimit(logger, openFileLimit)

	specs, err := loadSlides(ctx, cfg, opts, logger)
	if err != nil {
		return engine.Result{}, err
	}

	dest := opts.out
	if dest == "" {
		dest = defaultOutputPath(opts.company, specs, time.Now())
	}

	p, err := buildPipeline(ctx, cfg, shareMessage(cfg, specs), logger)
	if err != nil {
		return engine.Result{}, err
	}
	return p.Run(ctx, specs, dest)
}

func loadSlides(ctx context.Context, cfg config.Config, opts renderOptions, logger *slog.Logger) ([]slide.Spec, error) {
	entries, err := readScript(opts.script)
	if err != nil {
		return nil, err
	}
	style, err := slide.ParseStyle(cfg.Layout.Style)
	if err != nil {
		return nil, err
	}

	logo, err := source.NewLogoResolver(logger).Resolve(ctx, opts.logo, opts.company)
	if err != nil {
		return nil, err
	}
	logoName := opts.company
	if logoName == "" && opts.logo != "" {
		logoName = filepath.Base(opts.logo)
	}

	return slide.Build(entries, slide.BuildOptions{
		Style:     style,
		Logo:      logo,
		LogoName:  logoName,
		LogoOnAll: cfg.Layout.LogoOnAll,
		MaxSlides: cfg.Pipeline.MaxSlides,
	})
}

// buildPipeline wires the production stage implementations for cfg.
func buildPipeline(ctx context.Context, cfg config.Config, message string, logger *slog.Logger) (*engine.Pipeline, error) {
	if cfg.Narration.APIKey == "" && !cfg.Narration.AllowSilent {
		return nil, fmt.Errorf("narration api key missing: set %s or narration.allow_silent", config.EnvAPIKey)
	}
	rate, err := narration.ParseRate(cfg.Narration.Rate)
	if err != nil {
		return nil, err
	}
	synth := narration.New(
		narration.NewHTTPBackend(cfg.Narration.Endpoint, cfg.Narration.Model, cfg.Narration.APIKey),
		narration.Options{
			Rate:        rate,
			SampleRate:  cfg.Video.SampleRate,
			FFmpegPath:  cfg.Narration.FFmpegPath,
			FFprobePath: cfg.Narration.FFprobePath,
			Logger:      logging.WithComponent(logger, "narration"),
		},
	)

	var shareLink string
	if cfg.Share.QRCode {
		shareLink = share.WhatsAppLink(message, cfg.Share.Phone)
	}
	render, err := renderer.New(cfg.Video, cfg.Layout, renderer.Options{ShareLink: shareLink, QRCode: cfg.Share.QRCode})
	if err != nil {
		return nil, err
	}

	table := director.DefaultMotionTable()
	if cfg.Effects.TablePath != "" {
		if table, err = director.LoadTable(cfg.Effects.TablePath); err != nil {
			return nil, err
		}
	}
	detector, err := analyzer.NewDetector(cfg.Effects.Detector)
	if err != nil {
		return nil, err
	}
	fx := effects.NewTable(director.NewDirector(cfg.Video.Width, cfg.Video.Height, table, detector))

	easing, err := effects.ParseEasing(cfg.Effects.Easing)
	if err != nil {
		return nil, err
	}
	ffmpeg := cfg.Narration.FFmpegPath
	if cfg.Effects.Transition != "none" && !system.CheckFilterSupport(ctx, ffmpeg, "xfade") {
		logger.Warn("ffmpeg lacks xfade, joining with hard cuts")
		cfg.Effects.Transition = "none"
	}
	codec := system.ResolveVideoCodec(ctx, ffmpeg, cfg.Video.VideoCodec)
	logger.Info("video encoder selected", "codec", codec)
	enc := video.NewFFmpegEncoder(video.Options{
		Video:      cfg.Video,
		Codec:      codec,
		Transition: cfg.Effects.Transition,
		Easing:     easing,
		FFmpegPath: ffmpeg,
		Logger:     logging.WithComponent(logger, "video"),
	})

	p := engine.NewPipeline(cfg, synth, render, fx, enc, logger)
	if cfg.Pipeline.Verify {
		tolerance := 0.1 + 2*cfg.Video.FrameDuration()
		p.Verify = func(ctx context.Context, path string, expected float64) error {
			_, err := video.Verify(ctx, cfg.Narration.FFprobePath, path, expected, tolerance)
			return err
		}
	}
	return p, nil
}

// shareMessage is the configured share text, or the opening slide when
// none is set.
func shareMessage(cfg config.Config, specs []slide.Spec) string {
	if msg := strings.TrimSpace(cfg.Share.Message); msg != "" {
		return msg
	}
	for _, s := range specs {
		if s.Index == 0 {
			if s.Title == "" {
				return s.Text
			}
			return s.Title + "\n" + s.Text
		}
	}
	return ""
}

func defaultOutputPath(company string, specs []slide.Spec, now time.Time) string {
	name := strings.TrimSpace(company)
	if name == "" {
		for _, s := range specs {
			if s.Index == 0 {
				name = s.Title
			}
		}
	}
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		name = "placement"
	}
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", name, now.Format("2006-01-02_15-04-05")))
}

func printRenderReport(w io.Writer, res engine.Result) {
	rows := make([][]string, 0, len(res.Segments))
	for _, seg := range res.Segments {
		audio := "narrated"
		if seg.Silent {
			audio = "silent"
		}
		rows = append(rows, []string{
			strconv.Itoa(seg.Index + 1),
			string(seg.Kind),
			seg.Title,
			fmt.Sprintf("%.2fs", seg.Start),
			fmt.Sprintf("%.2fs", seg.Duration),
			audio,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "Kind", "Title", "Start", "Duration", "Audio"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))

	if len(res.Skipped) > 0 {
		skipped := make([][]string, 0, len(res.Skipped))
		for _, sk := range res.Skipped {
			skipped = append(skipped, []string{strconv.Itoa(sk.Index + 1), sk.Stage, sk.Reason})
		}
		fmt.Fprintln(w, "Skipped slides:")
		fmt.Fprintln(w, renderTable([]string{"#", "Stage", "Reason"}, skipped, []columnAlignment{alignRight}))
	}

	fmt.Fprintf(w, "Video: %s (%.2fs, transition %s, run %s)\n", res.Artifact, res.Duration, res.Transition, res.RunID)
}
