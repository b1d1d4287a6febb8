package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collective-sim/collective-sim/sim"
	"github.com/collective-sim/collective-sim/sim/collective"
	"github.com/collective-sim/collective-sim/sim/topology"
)

func TestCommunicatorGroup_SortsMembersAndNumbersStreams(t *testing.T) {
	s := mustSimulator(t, testConfig("ring", 8))
	g, err := NewCommunicatorGroup(3, []int{5, 1, 3}, s.Node(3), Implementation{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3, 5}, g.NPUs())
	assert.Equal(t, 3_000_000, g.NextStreamID())
	assert.Equal(t, 3_000_001, g.NextStreamID())
}

func TestCommunicatorGroup_RejectsBadInput(t *testing.T) {
	s := mustSimulator(t, testConfig("ring", 8))
	n := s.Node(0)

	_, err := NewCommunicatorGroup(0, []int{0, 1}, n, Implementation{})
	assert.Error(t, err)
	_, err = NewCommunicatorGroup(1, nil, n, Implementation{})
	assert.Error(t, err)
	_, err = NewCommunicatorGroup(1, []int{0, 1, 1}, n, Implementation{})
	assert.Error(t, err)
	_, err = NewCommunicatorGroup(1, []int{2, 3}, n, Implementation{})
	assert.ErrorIs(t, err, topology.ErrNotMember)
}

func TestCommunicatorGroup_FullGroupUsesSystemTopology(t *testing.T) {
	cfg := testConfig("torus", 9)
	s := mustSimulator(t, cfg)
	all := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	g, err := NewCommunicatorGroup(1, all, s.Node(4), Implementation{Bidirectional: true})
	require.NoError(t, err)

	p, err := g.Plan(collective.AllReduce)
	require.NoError(t, err)

	assert.False(t, p.Subset)
	assert.Same(t, s.Node(4).Topology(), p.Topology)
	require.Len(t, p.Dimensions(), 1)
	assert.Equal(t, []int{3, 3}, p.Dimensions()[0].Dims())

	// cached per collective type
	again, err := g.Plan(collective.AllReduce)
	require.NoError(t, err)
	assert.Same(t, p, again)
	other, err := g.Plan(collective.AllGather)
	require.NoError(t, err)
	assert.NotSame(t, p, other)
}

func TestCommunicatorGroup_SubsetUsesLocalRingOverMembers(t *testing.T) {
	s := mustSimulator(t, testConfig("torus", 9))
	g, err := NewCommunicatorGroup(2, []int{8, 2, 5}, s.Node(5), Implementation{})
	require.NoError(t, err)

	p, err := g.Plan(collective.ReduceScatter)
	require.NoError(t, err)

	assert.True(t, p.Subset)
	dims := p.Dimensions()
	require.Len(t, dims, 1)
	assert.Equal(t, topology.Ring, dims[0].Kind())
	assert.Equal(t, topology.Local, dims[0].Role())
	assert.Equal(t, []int{8}, dims[0].Receivers(5, topology.Clockwise))
	assert.Equal(t, []int{2}, dims[0].Receivers(8, topology.Clockwise))
}

func TestBuildSystemTopology_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		cfg      func() (string, int, []int)
		wantDims []int
		wantRole topology.Dimension
	}{
		{"ring", func() (string, int, []int) { return "ring", 6, nil }, []int{6}, topology.Local},
		{"square mesh", func() (string, int, []int) { return "mesh", 16, nil }, []int{4, 4}, topology.Horizontal},
		{"line mesh", func() (string, int, []int) { return "mesh", 6, nil }, []int{6}, topology.NA},
		{"explicit torus", func() (string, int, []int) { return "torus", 12, []int{3, 4} }, []int{3, 4}, topology.NA},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, nodes, dims := tc.cfg()
			cfg := testConfig(kind, nodes)
			cfg.Topology.Dims = dims
			topo, err := BuildSystemTopology(cfg.Topology, 1, nil)
			require.NoError(t, err)
			require.Equal(t, 1, topo.NumDimensions())
			assert.Equal(t, tc.wantDims, topo.At(0).Dims())
			assert.Equal(t, tc.wantRole, topo.At(0).Role())
		})
	}
}

func TestBuildSystemTopology_Hierarchical(t *testing.T) {
	cfg := testConfig("hierarchical", 8)
	cfg.Topology.Tiers = []sim.TierConfig{{Kind: "ring", Size: 4}, {Kind: "ring", Size: 2}}
	topo, err := BuildSystemTopology(cfg.Topology, 5, nil)
	require.NoError(t, err)

	require.Equal(t, 2, topo.NumDimensions())
	assert.Equal(t, []int{4, 5, 6, 7}, topo.At(0).Members())
	assert.Equal(t, []int{1, 5}, topo.At(1).Members())
}

func TestBuildSystemTopology_RejectsOutOfRangeNode(t *testing.T) {
	cfg := testConfig("ring", 4)
	_, err := BuildSystemTopology(cfg.Topology, 4, nil)
	assert.ErrorIs(t, err, topology.ErrNotMember)
}
