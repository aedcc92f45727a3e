// Package ingest implements the command that builds the SQLite store from
// the raw CSV exports.
package ingest

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/landfiredata/bps-explorer/internal/conf"
	"github.com/landfiredata/bps-explorer/internal/etl"
	"github.com/landfiredata/bps-explorer/internal/logging"
)

// Command creates the ingest command.
func Command(settings *conf.Settings) *cobra.Command {
	var tablesDir string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build the BPS SQLite store from CSV exports",
		Long:  "Load the raw CSV table exports into a fresh SQLite store for the explorer to serve.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(settings.Database.Path); err == nil {
				return fmt.Errorf("store already exists at %s, remove it first", settings.Database.Path)
			}

			logging.Info("building store", "tables", tablesDir, "db", settings.Database.Path)
			ing := etl.NewIngester(tablesDir, settings.Database.Path)
			return ing.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&tablesDir, "tables", viper.GetString("etl.tables"), "Directory holding the CSV table exports")
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}
