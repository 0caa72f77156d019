package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"inimage_backend/internal/platform/config"
	"inimage_backend/internal/platform/logger"
)

// cli はサブコマンド間で共有する状態です。
type cli struct {
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "scanctl",
		Short:         "Operate the logo scan results directory and catalog",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configFile)
			if err != nil {
				return err
			}
			logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "path to config file (default: ./config.yaml if present)")

	root.AddCommand(
		newScanCmd(c),
		newListCmd(c),
		newShowCmd(c),
		newReindexCmd(c),
		newTokenCmd(c),
	)
	return root
}

// writeJSON は v をインデント付きJSONで出力します。
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
