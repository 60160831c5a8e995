package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/spanq/source/sqlsource"
)

func newInitCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the trace tables in a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := sqlsource.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqlsource.InitSchema(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", dbPath)

			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
