package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/placement2video/internal/share"
)

func newShareLinkCommand(ctx *commandContext) *cobra.Command {
	var message string
	var phone string

	cmd := &cobra.Command{
		Use:   "share-link",
		Short: "Print a WhatsApp link that shares a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("phone") {
				phone = cfg.Share.Phone
			}
			fmt.Fprintln(cmd.OutOrStdout(), share.WhatsAppLink(message, phone))
			return nil
		},
	}

	cmd.Flags().StringVar(&message, "message", "", "Message text")
	cmd.Flags().StringVar(&phone, "phone", "", "Recipient phone number with country code (default share.phone)")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
