package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"inimage_backend/internal/app/di"
	scanhandler "inimage_backend/internal/feature/scan/transport/handler"
	scanusecase "inimage_backend/internal/feature/scan/usecase"
)

func newScanCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <image>...",
		Short: "Scan image files and persist one record per image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads := make([]scanusecase.Upload, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				uploads = append(uploads, scanusecase.Upload{Filename: filepath.Base(path), Data: data})
			}

			app, err := di.NewApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			outcomes := app.Scan.ScanBatch(cmd.Context(), uploads)
			resp := scanhandler.BatchResponse(outcomes)
			if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if resp.Failed > 0 {
				return fmt.Errorf("%d of %d images were not recorded", resp.Failed, len(outcomes))
			}
			return nil
		},
	}
}
