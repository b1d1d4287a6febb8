package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collective-sim/collective-sim/sim"
)

// testConfig returns a jitter-free configuration over nodes NPUs of kind.
func testConfig(kind string, nodes int) sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Topology = sim.TopologyConfig{Kind: kind, Nodes: nodes}
	cfg.Collective.DataSize = 4096
	cfg.Network = sim.NetworkConfig{
		LinkLatency:       100,
		Bandwidth:         10,
		LocalBusLatency:   5,
		NetworkBusLatency: 20,
	}
	return cfg
}

func mustSimulator(t *testing.T, cfg sim.Config) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, nil)
	require.NoError(t, err)
	return s
}

// runCollective builds a simulator for cfg, starts its collective and runs it.
func runCollective(t *testing.T, cfg sim.Config) (*Simulator, *Report) {
	t.Helper()
	s := mustSimulator(t, cfg)
	require.NoError(t, s.StartCollective(cfg.Collective))
	return s, s.Run()
}
