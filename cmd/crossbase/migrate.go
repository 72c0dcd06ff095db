package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/migration"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Seal or open the sensitive values in folder auth settings",
	}
	cmd.PersistentFlags().String("database-url", "", "postgres:// URL or sqlite file path (env CROSSBASE_DATABASE_URL)")
	_ = a.v.BindPFlag(cfgKeyDatabaseURL, cmd.PersistentFlags().Lookup("database-url"))

	for _, dir := range []migration.Direction{migration.Up, migration.Down} {
		cmd.AddCommand(newMigrateDirCmd(a, dir))
	}
	return cmd
}

func newMigrateDirCmd(a *app, dir migration.Direction) *cobra.Command {
	short := "Encrypt sensitive auth settings"
	if dir == migration.Down {
		short = "Decrypt sensitive auth settings"
	}
	return &cobra.Command{
		Use:   string(dir),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DatabaseURL == "" {
				return fmt.Errorf("%w: --database-url is required", crossbase.ErrInvalidConfig)
			}
			st, err := migration.OpenSQLFolderStore(cmd.Context(), a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := migration.New(st).Run(cmd.Context(), dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "migrate %s skipped: %s\n", dir, res.Reason)
				return nil
			}
			fmt.Fprintf(out, "migrate %s: %d scanned, %d updated, %d failed (%s)\n",
				dir, res.Scanned, res.Updated, res.Failed, res.Duration.Round(1e6))
			return nil
		},
	}
}
