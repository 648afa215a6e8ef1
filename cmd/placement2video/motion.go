package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/placement2video/internal/director"
)

func newMotionTableCommand(ctx *commandContext) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "motion-table",
		Short: "Write the effective camera motion table as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			table := director.DefaultMotionTable()
			if cfg.Effects.TablePath != "" {
				if table, err = director.LoadTable(cfg.Effects.TablePath); err != nil {
					return err
				}
			}
			if err := director.WriteTable(table, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Motion table written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "motion.yaml", "Destination file")
	return cmd
}
