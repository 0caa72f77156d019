package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inimage_backend/internal/feature/scan/adapters/filestore"
	scanhandler "inimage_backend/internal/feature/scan/transport/handler"
)

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List record IDs in the results directory, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := filestore.New(c.cfg.Scan.ResultsDir)
			if err != nil {
				return err
			}
			ids, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := filestore.New(c.cfg.Scan.ResultsDir)
			if err != nil {
				return err
			}
			rec, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), scanhandler.RecordResponse(rec))
		},
	}
}
