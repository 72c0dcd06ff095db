//go:build !standalone

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adrianmcphee/crossbase/full"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Maintain the full backend's Redis session index",
	}
	cmd.PersistentFlags().String("redis-addr", "", "redis address (env REDIS_ADDR or CROSSBASE_REDIS_ADDR)")
	_ = a.v.BindPFlag(cfgKeyRedisAddr, cmd.PersistentFlags().Lookup("redis-addr"))

	cmd.AddCommand(&cobra.Command{
		Use:   "repair",
		Short: "Re-add missing index entries and drop stale ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := full.RepairIndex(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "validated %d messages: %d added, %d removed, %d errors\n",
				report.Validated, report.Repaired, report.Removed, len(report.Errors))
			for _, e := range report.Errors {
				fmt.Fprintln(out, "  error:", e)
			}
			return nil
		},
	})
	return cmd
}
