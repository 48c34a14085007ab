package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/myelinproj/myelin/internal/client"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Manage pending evolution events",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient()
		data, err := c.Get("/api/events")
		if err != nil {
			return err
		}

		var resp struct {
			Events []struct {
				EventID  string `json:"event_id"`
				Kind     string `json:"kind"`
				TargetID string `json:"target_id"`
			} `json:"events"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return fmt.Errorf("decode events: %w", err)
		}

		if len(resp.Events) == 0 {
			fmt.Println("no pending events")
			return nil
		}
		for _, ev := range resp.Events {
			fmt.Printf("%s  %-12s %s\n", ev.EventID, ev.Kind, ev.TargetID)
		}
		return nil
	},
}

var eventsApproveCmd = &cobra.Command{
	Use:   "approve <event-id>",
	Short: "Approve a pending evolution event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveEvent(args[0], "approve")
	},
}

var eventsRejectCmd = &cobra.Command{
	Use:   "reject <event-id>",
	Short: "Reject a pending evolution event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveEvent(args[0], "reject")
	},
}

func resolveEvent(eventID, action string) error {
	c := client.NewClient()
	data, err := c.Post("/api/events/"+eventID+"/"+action, nil)
	if err != nil {
		return err
	}

	var ev struct {
		EventID string `json:"event_id"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	fmt.Printf("event %s: %s\n", ev.EventID, ev.Status)
	return nil
}

func init() {
	eventsCmd.AddCommand(eventsApproveCmd)
	eventsCmd.AddCommand(eventsRejectCmd)
}
