package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"inimage_backend/internal/app/di"
	"inimage_backend/internal/feature/scan/adapters/filestore"
)

func newReindexCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Index every record of the results directory into the catalog database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := di.NewCatalogDB(c.cfg.Database)
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("database.driver is not configured")
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			store, err := filestore.New(c.cfg.Scan.ResultsDir)
			if err != nil {
				return err
			}

			res, err := di.Reindex(cmd.Context(), store, di.NewCatalog(db))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d records, skipped %d\n", res.Indexed, res.Skipped)
			return nil
		},
	}
}
