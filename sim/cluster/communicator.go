package cluster

import (
	"fmt"
	"sort"

	"github.com/collective-sim/collective-sim/sim/collective"
	"github.com/collective-sim/collective-sim/sim/topology"
)

// streamsPerGroup spaces stream ids of different groups apart.
const streamsPerGroup = 1_000_000

// Implementation selects the per-dimension algorithm knobs of a plan.
type Implementation struct {
	Injection     collective.InjectionPolicy
	Bidirectional bool
}

// Plan is the topology and implementation a collective runs over on one
// node. Each involved dimension is one phase, innermost first.
type Plan struct {
	ComType  collective.ComType
	Topology topology.Complex
	Impl     Implementation
	// Subset is true when the plan is a ring over a member subset rather
	// than the system topology.
	Subset bool
}

// Dimensions returns the per-phase topologies.
func (p *Plan) Dimensions() []*topology.Basic {
	dims := make([]*topology.Basic, 0, p.Topology.NumDimensions())
	for d := 0; d < p.Topology.NumDimensions(); d++ {
		dims = append(dims, p.Topology.At(d))
	}
	return dims
}

// CommunicatorGroup is the set of nodes one collective invocation spans,
// as held by one member node. Plans are cached per collective type.
type CommunicatorGroup struct {
	id         int
	npus       []int
	node       *Node
	impl       Implementation
	plans      map[collective.ComType]*Plan
	numStreams int
}

// NewCommunicatorGroup creates a group over npus on node. The member list is
// kept sorted; id must be positive and node must be a member.
func NewCommunicatorGroup(id int, npus []int, node *Node, impl Implementation) (*CommunicatorGroup, error) {
	if id <= 0 {
		return nil, fmt.Errorf("communicator group id must be > 0, got %d", id)
	}
	if len(npus) == 0 {
		return nil, fmt.Errorf("communicator group %d: no members", id)
	}
	sorted := append([]int(nil), npus...)
	sort.Ints(sorted)
	member := false
	for i, npu := range sorted {
		if i > 0 && sorted[i-1] == npu {
			return nil, fmt.Errorf("communicator group %d: duplicate member %d", id, npu)
		}
		member = member || npu == node.ID()
	}
	if !member {
		return nil, fmt.Errorf("communicator group %d: node %d: %w", id, node.ID(), topology.ErrNotMember)
	}
	return &CommunicatorGroup{
		id:         id,
		npus:       sorted,
		node:       node,
		impl:       impl,
		plans:      make(map[collective.ComType]*Plan),
		numStreams: id * streamsPerGroup,
	}, nil
}

func (g *CommunicatorGroup) ID() int { return g.id }

// NPUs returns the sorted member list.
func (g *CommunicatorGroup) NPUs() []int { return append([]int(nil), g.npus...) }

// NextStreamID hands out the next stream id of this group. Every member
// issues ids in the same order, so the same logical stream carries the same
// id (and message tag) on every node.
func (g *CommunicatorGroup) NextStreamID() int {
	id := g.numStreams
	g.numStreams++
	return id
}

// Plan returns the cached plan for comType, building it on first use. A
// group spanning every node runs over the system topology; a subset runs
// over a one-dimensional local ring of its members.
func (g *CommunicatorGroup) Plan(comType collective.ComType) (*Plan, error) {
	if p, ok := g.plans[comType]; ok {
		return p, nil
	}
	p := &Plan{ComType: comType, Impl: g.impl}
	if len(g.npus) == g.node.sim.NumNodes() {
		p.Topology = g.node.topo
	} else {
		ring, err := topology.New(topology.Config{Kind: topology.Ring, Role: topology.Local}, g.node.ID(), g.npus, g.node.logger)
		if err != nil {
			return nil, fmt.Errorf("communicator group %d: %w", g.id, err)
		}
		p.Topology = ring
		p.Subset = true
	}
	g.plans[comType] = p
	return p, nil
}
