package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/myelinproj/myelin/internal/client"
)

var routeTaskType string

var routeCmd = &cobra.Command{
	Use:   "route [description]",
	Short: "Ask the server where a task would be routed",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		description := strings.Join(args, " ")
		if routeTaskType == "" && description == "" {
			return fmt.Errorf("give a --type or a task description")
		}

		body, err := json.Marshal(map[string]string{
			"task_type":   routeTaskType,
			"description": description,
		})
		if err != nil {
			return err
		}

		c := client.NewClient()
		data, err := c.Post("/api/route", body)
		if err != nil {
			return err
		}

		var decision struct {
			Route      string  `json:"route"`
			TaskType   string  `json:"task_type"`
			Confidence float64 `json:"confidence"`
			LatencyMs  int64   `json:"latency_ms"`
		}
		if err := json.Unmarshal(data, &decision); err != nil {
			return fmt.Errorf("decode decision: %w", err)
		}

		fmt.Printf("route: %s\n", decision.Route)
		fmt.Printf("  task type: %s  confidence: %.2f  latency: %dms\n",
			decision.TaskType, decision.Confidence, decision.LatencyMs)
		return nil
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeTaskType, "type", "", "declared task type (skips classification)")
}
