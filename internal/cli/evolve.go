package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/myelinproj/myelin/internal/config"
	"github.com/myelinproj/myelin/internal/engine"
)

var evolveStation string

var evolveCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Run one evolution cycle now",
	Long:  "Recomputes fitness scores, myelinates eligible edges, and queues prune proposals for the station's graph. Operates on the database directly; the server does not need to be running.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadOrDefault()
		station := evolveStation
		if station == "" {
			station = cfg.Station.ID
		}

		db, err := openConfiguredDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		eng := engine.New(db)
		summary, err := eng.RunCycle(cmd.Context(), station)
		if err != nil {
			return fmt.Errorf("run cycle: %w", err)
		}

		fmt.Printf("station %s  phase=%s\n", summary.StationID, summary.Phase)
		fmt.Printf("  edges myelinated: %d\n", summary.EdgesUpdated)
		fmt.Printf("  proposals queued: %d\n", summary.PendingEventsCreated)
		return nil
	},
}

func init() {
	evolveCmd.Flags().StringVar(&evolveStation, "station", "", "station ID (defaults to configured station)")
}
