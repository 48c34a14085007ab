package engine

import (
	"testing"

	"github.com/myelinproj/myelin/internal/store"
)

func TestRiskTable(t *testing.T) {
	cases := []struct {
		kind store.EventKind
		want RiskTier
	}{
		{store.KindMyelinate, RiskAuto},
		{store.KindPruneNode, RiskGated},
		{store.KindCreateNode, RiskGated},
		{store.KindReweight, RiskGated},
		{store.EventKind("future_kind"), RiskGated}, // unknown kinds default safe
	}
	for _, c := range cases {
		if got := RiskOf(c.kind); got != c.want {
			t.Errorf("RiskOf(%s) = %v, want %v", c.kind, got, c.want)
		}
	}
}
