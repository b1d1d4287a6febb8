package cluster

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/collective-sim/collective-sim/sim"
	"github.com/collective-sim/collective-sim/sim/topology"
)

// BuildSystemTopology returns the system topology as seen from node self.
// Nodes are numbered 0..cfg.Nodes-1.
//
// A ring is a one-dimensional Local tier. A mesh or torus takes cfg.Dims
// when given; otherwise it is a square Horizontal grid when the node count
// is a perfect square and a line otherwise. A hierarchical topology composes
// one homogeneous tier per cfg.Tiers entry, innermost first.
func BuildSystemTopology(cfg sim.TopologyConfig, self int, logger logrus.FieldLogger) (topology.Complex, error) {
	if self < 0 || self >= cfg.Nodes {
		return nil, fmt.Errorf("system topology: node %d outside 0..%d: %w", self, cfg.Nodes-1, topology.ErrNotMember)
	}
	if cfg.Kind == "hierarchical" {
		kinds := make([]topology.Kind, len(cfg.Tiers))
		sizes := make([]int, len(cfg.Tiers))
		for i, tier := range cfg.Tiers {
			k, err := topology.ParseKind(tier.Kind)
			if err != nil {
				return nil, fmt.Errorf("system topology tier %d: %w", i, err)
			}
			kinds[i], sizes[i] = k, tier.Size
		}
		return topology.NewHierarchical(self, kinds, sizes, logger)
	}

	kind, err := topology.ParseKind(cfg.Kind)
	if err != nil {
		return nil, fmt.Errorf("system topology: %w", err)
	}
	tc := topology.Config{Kind: kind, Role: topology.Local}
	if kind != topology.Ring {
		tc.Role = topology.NA
		switch {
		case len(cfg.Dims) > 0:
			tc.Dims = cfg.Dims
		case isPerfectSquare(cfg.Nodes) && cfg.Nodes > 1:
			tc.Role = topology.Horizontal
		}
	}
	return topology.NewHomogeneous(tc, self, cfg.Nodes, self, 1, logger)
}

func isPerfectSquare(n int) bool {
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r*r == n
}
