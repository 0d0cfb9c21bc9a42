package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.store.Ping(cmd.Context()); err != nil {
				return err
			}
			rt.log.Info("Database is up to date", "path", rt.cfg.Database.Path)
			return nil
		},
	}
}
