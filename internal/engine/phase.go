package engine

// Phase is a station's maturation stage. It is always derived from the
// cumulative execution count, never stored, so it cannot drift from the
// record count.
type Phase string

const (
	PhaseGenesis         Phase = "genesis"
	PhaseDifferentiation Phase = "differentiation"
	PhaseSynaptogenesis  Phase = "synaptogenesis"
	PhasePruning         Phase = "pruning"
)

// phaseThresholds maps lower-bound execution counts to phases, highest
// first. Counts beyond the last threshold stay in pruning.
var phaseThresholds = []struct {
	min   int64
	phase Phase
}{
	{1000, PhasePruning},
	{500, PhaseSynaptogenesis},
	{100, PhaseDifferentiation},
	{0, PhaseGenesis},
}

// PhaseFor returns the maturation phase for a cumulative execution count.
// Total and monotonic over all non-negative counts.
func PhaseFor(executionCount int64) Phase {
	for _, t := range phaseThresholds {
		if executionCount >= t.min {
			return t.phase
		}
	}
	return PhaseGenesis
}
