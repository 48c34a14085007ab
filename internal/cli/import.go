package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/myelinproj/myelin/internal/config"
	"github.com/myelinproj/myelin/internal/engine"
	"github.com/myelinproj/myelin/internal/ingest"
)

var importStation string

var importCmd = &cobra.Command{
	Use:   "import <file.jsonl>",
	Short: "Import execution history from a JSONL file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadOrDefault()
		station := importStation
		if station == "" {
			station = cfg.Station.ID
		}

		db, err := openConfiguredDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		eng := engine.New(db)
		n, err := ingest.ImportFile(cmd.Context(), eng, station, args[0])
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}

		fmt.Printf("imported %d execution records for station %s\n", n, station)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importStation, "station", "", "station ID for records that do not name one")
}
