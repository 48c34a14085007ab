package engine

import (
	"math"

	"github.com/myelinproj/myelin/internal/store"
)

// Fitness component weights. They must sum to exactly 100 so a perfect node
// scores 100.
const (
	weightSuccessRate  = 40.0
	weightLatency      = 20.0
	weightUtilization  = 20.0
	weightConnectivity = 20.0
)

// neutralScore is assigned to nodes with no activations: no data means no
// judgment, not a penalty.
const neutralScore = 50.0

// edgeActivationCeiling is the activation count at which the log-scaled edge
// usage term saturates.
const edgeActivationCeiling = 1000.0

// FitnessWeights exposes the component weights for inspection and testing.
func FitnessWeights() (successRate, latency, utilization, connectivity float64) {
	return weightSuccessRate, weightLatency, weightUtilization, weightConnectivity
}

// GlobalStats holds graph-wide statistics computed once per evolution cycle.
type GlobalStats struct {
	AvgLatencyMs   float64
	MaxActivations int64
}

// ComputeGlobalStats derives the per-cycle statistics from all of a
// station's nodes. AvgLatencyMs is the mean per-node average latency over
// nodes with at least one activation.
func ComputeGlobalStats(nodes []store.GraphNode) GlobalStats {
	var stats GlobalStats
	var latencySum float64
	var latencyNodes int

	for _, n := range nodes {
		if n.ActivationCount > stats.MaxActivations {
			stats.MaxActivations = n.ActivationCount
		}
		if n.ActivationCount > 0 {
			latencySum += float64(n.TotalLatencyMs) / float64(n.ActivationCount)
			latencyNodes++
		}
	}
	if latencyNodes > 0 {
		stats.AvgLatencyMs = latencySum / float64(latencyNodes)
	}
	return stats
}

// ScoreNode computes a node's health score in [0,100] from its counters,
// its incident edges, and the cycle's global statistics. Pure: the caller
// persists the result.
func ScoreNode(node *store.GraphNode, incident []store.GraphEdge, stats GlobalStats) float64 {
	if node.ActivationCount == 0 {
		return neutralScore
	}

	// Success rate term.
	rate := 0.5
	if total := node.SuccessCount + node.FailureCount; total > 0 {
		rate = float64(node.SuccessCount) / float64(total)
	}

	// Latency term, inverted so lower latency scores higher.
	latencyTerm := 1.0
	if stats.AvgLatencyMs > 0 {
		nodeAvg := float64(node.TotalLatencyMs) / float64(node.ActivationCount)
		latencyTerm = 1.0 - math.Min(1.0, nodeAvg/stats.AvgLatencyMs)
	}

	// Utilization relative to the busiest node.
	utilization := 0.0
	if stats.MaxActivations > 0 {
		utilization = float64(node.ActivationCount) / float64(stats.MaxActivations)
	}

	// Connectivity: mean incident edge weight, myelinated edges at full
	// strength.
	connectivity := 0.5
	if len(incident) > 0 {
		var sum float64
		for _, e := range incident {
			if e.Myelination == store.Myelinated {
				sum += 1.0
			} else {
				sum += e.Weight
			}
		}
		connectivity = sum / float64(len(incident))
	}

	score := weightSuccessRate*rate +
		weightLatency*latencyTerm +
		weightUtilization*utilization +
		weightConnectivity*connectivity
	return clampScore(score)
}

// ScoreEdge computes an edge's health score in [0,100]. Activation volume
// contributes with diminishing returns, log-scaled against a fixed ceiling;
// myelination adds a flat bonus on top.
func ScoreEdge(edge *store.GraphEdge) float64 {
	score := edge.Weight * 50.0

	usage := math.Min(1.0, math.Log1p(float64(edge.ActivationCount))/math.Log1p(edgeActivationCeiling))
	score += usage * 30.0

	if edge.Myelination == store.Myelinated {
		score += 20.0
	}
	return clampScore(score)
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
