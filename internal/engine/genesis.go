package engine

import (
	"context"
	"fmt"

	"github.com/myelinproj/myelin/internal/store"
)

// genesisNode describes one member of the fixed core capability set every
// station starts with.
type genesisNode struct {
	Name         string
	NodeType     string
	Capabilities []string
}

var genesisNodes = []genesisNode{
	{Name: "chat", NodeType: store.NodeGateway, Capabilities: []string{"conversation", "general"}},
	{Name: "coding", NodeType: store.NodeCapability, Capabilities: []string{"code-generation", "refactoring", "debugging"}},
	{Name: "reasoning", NodeType: store.NodeCapability, Capabilities: []string{"planning", "analysis"}},
	{Name: "scraping", NodeType: store.NodeCapability, Capabilities: []string{"web-scraping", "extraction"}},
	{Name: "training", NodeType: store.NodeCapability, Capabilities: []string{"fine-tuning", "evaluation"}},
	{Name: "memory", NodeType: store.NodeCapability, Capabilities: []string{"recall", "storage"}},
}

// genesisEdgeWeight is the starting strength of station→capability edges.
const genesisEdgeWeight = 0.5

// GenesisNodeID returns the node ID of a core capability for a station.
func GenesisNodeID(stationID, name string) string {
	return stationID + "-" + name
}

// SeedGenesis idempotently ensures the core capability nodes and their
// station edges exist. Re-running on a seeded station creates nothing and
// never resets accumulated counters. Returns the number of nodes created.
func (e *Engine) SeedGenesis(ctx context.Context, stationID string) (int, error) {
	if stationID == "" {
		return 0, fmt.Errorf("seed genesis: empty station id")
	}

	created := 0

	station := &store.GraphNode{
		NodeID:    stationID,
		NodeType:  store.NodeStation,
		StationID: stationID,
	}
	isNew, err := e.DB.UpsertNode(station)
	if err != nil {
		return created, fmt.Errorf("seed station node: %w", err)
	}
	if isNew {
		created++
	}

	for _, g := range genesisNodes {
		node := &store.GraphNode{
			NodeID:       GenesisNodeID(stationID, g.Name),
			NodeType:     g.NodeType,
			StationID:    stationID,
			Capabilities: g.Capabilities,
		}
		isNew, err := e.DB.UpsertNode(node)
		if err != nil {
			return created, fmt.Errorf("seed node %s: %w", node.NodeID, err)
		}
		if isNew {
			created++
		}

		edge := &store.GraphEdge{
			SourceNodeID: stationID,
			TargetNodeID: node.NodeID,
			StationID:    stationID,
			Weight:       genesisEdgeWeight,
		}
		if _, err := e.DB.UpsertEdge(edge); err != nil {
			return created, fmt.Errorf("seed edge %s: %w", edge.EdgeID, err)
		}
	}

	return created, nil
}
