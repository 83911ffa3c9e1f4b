package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("query daemon status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:  %s\n", status.Status)
			fmt.Fprintf(out, "Address: %s\n", status.Address)
			fmt.Fprintf(out, "Uptime:  %s\n", (time.Duration(status.UptimeSeconds) * time.Second).String())
			return nil
		},
	}
}
