package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/myelinproj/myelin/internal/config"
	"github.com/myelinproj/myelin/internal/engine"
	"github.com/myelinproj/myelin/internal/store"
)

var seedStation string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the core capability nodes for a station",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadOrDefault()
		station := seedStation
		if station == "" {
			station = cfg.Station.ID
		}

		db, err := openConfiguredDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		eng := engine.New(db)
		created, err := eng.SeedGenesis(cmd.Context(), station)
		if err != nil {
			return fmt.Errorf("seed genesis: %w", err)
		}

		if created == 0 {
			fmt.Printf("station %s already seeded\n", station)
			return nil
		}
		fmt.Printf("seeded %d nodes for station %s\n", created, station)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedStation, "station", "", "station ID (defaults to configured station)")
}

// openConfiguredDB opens the database at the configured path, resolving the
// default location when unset.
func openConfiguredDB(cfg config.Config) (*store.DB, error) {
	path := cfg.Database.Path
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
