package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLastRunCommand(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "last-run",
		Short: "Show the most recent harvest run recorded in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}

			repo, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			run, err := repo.LastRun(ctx)
			if err != nil {
				return err
			}
			count, err := repo.Count(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if run == nil {
				fmt.Fprintf(out, "no harvest recorded yet (%d rows stored)\n", count)
				return nil
			}
			fmt.Fprintln(out, renderRun(run))
			fmt.Fprintf(out, "%d rows stored\n", count)
			return nil
		},
	}
}
