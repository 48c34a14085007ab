package engine

import (
	"github.com/myelinproj/myelin/internal/store"
)

// RiskTier classifies a mutation kind by cost of being wrong.
type RiskTier int

const (
	// RiskAuto mutations are additive and reversible-cost: applied
	// immediately by the cycle, recorded for audit.
	RiskAuto RiskTier = iota
	// RiskGated mutations are destructive or irreversible: always queued
	// for explicit approval.
	RiskGated
)

// mutationRisk is the strategy table for event kinds. New kinds must
// declare a tier here; unknown kinds are treated as gated.
var mutationRisk = map[store.EventKind]RiskTier{
	store.KindMyelinate:  RiskAuto,
	store.KindPruneNode:  RiskGated,
	store.KindCreateNode: RiskGated,
	store.KindReweight:   RiskGated,
}

// RiskOf returns the risk tier for an event kind, defaulting to gated.
func RiskOf(kind store.EventKind) RiskTier {
	tier, ok := mutationRisk[kind]
	if !ok {
		return RiskGated
	}
	return tier
}
