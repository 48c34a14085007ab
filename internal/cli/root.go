package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "myelin",
	Short: "Capability graph maturation and routing for agent stations",
	Long:  "Myelin grows a weighted capability graph from execution history and routes incoming tasks along its strongest paths. Single Go binary backed by SQLite.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(evolveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(importCmd)
}
