package main

import (
	"context"
	"strings"

	perr "lasrouter/internal/platform/errors"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <text>",
		Short: "Print the resolution and gate decision for text without running anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return perr.Validationf("text must not be blank")
			}
			a, err := wire(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			return printJSON(cmd.OutOrStdout(), a.orch.Check(ctx, text))
		},
	}
}
