package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/myelinproj/myelin/internal/client"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show station status from a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient()
		if !c.Healthy() {
			fmt.Fprintln(os.Stderr, "server not reachable (is `myelin serve` running?)")
			os.Exit(1)
		}

		data, err := c.Get("/api/status")
		if err != nil {
			return err
		}

		var status struct {
			StationID      string  `json:"station_id"`
			Phase          string  `json:"phase"`
			ExecutionCount int64   `json:"execution_count"`
			NodeCount      int64   `json:"node_count"`
			EdgeCount      int64   `json:"edge_count"`
			PendingEvents  int     `json:"pending_events"`
		}
		if err := json.Unmarshal(data, &status); err != nil {
			return fmt.Errorf("decode status: %w", err)
		}

		fmt.Printf("station %s  phase=%s\n", status.StationID, status.Phase)
		fmt.Printf("  executions: %d\n", status.ExecutionCount)
		fmt.Printf("  nodes: %d  edges: %d\n", status.NodeCount, status.EdgeCount)
		fmt.Printf("  pending events: %d\n", status.PendingEvents)
		return nil
	},
}
