package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gsuchecki40/formula-one-scorer/internal/presentation"
)

var logosDryRun bool

var logosCmd = &cobra.Command{
	Use:   "logos",
	Short: "Download team logo assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Presentation.LogoCSV == "" {
			return fmt.Errorf("presentation.logo_csv is not configured")
		}

		d := presentation.NewLogoDownloader(
			cfg.Presentation.AssetsDir,
			cfg.Presentation.RequestsPerSecond,
			appLogger,
		)
		d.DryRun = logosDryRun
		defer d.Close()

		n, err := d.DownloadAll(cmd.Context(), cfg.Presentation.LogoCSV)
		if err != nil {
			return err
		}
		appLogger.WithField("count", n).Info("Logos processed")
		return nil
	},
}

func init() {
	logosCmd.Flags().BoolVar(&logosDryRun, "dry-run", false, "List logos without downloading")
}
