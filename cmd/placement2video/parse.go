package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ivlev/placement2video/internal/script"
	"github.com/ivlev/placement2video/internal/slide"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Show how a script splits into slides",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := readScript(scriptPath)
			if err != nil {
				return err
			}
			specs, err := slide.Build(entries, slide.BuildOptions{MaxSlides: cfg.Pipeline.MaxSlides})
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(specs))
			for _, s := range specs {
				rows = append(rows, []string{strconv.Itoa(s.Index + 1), string(s.Kind), s.Title, s.Text})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Kind", "Title", "Narration"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVar(&scriptPath, "script", "", "Narration script file")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func readScript(path string) ([]slide.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return script.Parse(f)
}
