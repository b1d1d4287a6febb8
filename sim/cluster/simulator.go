package cluster

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/collective-sim/collective-sim/sim"
	"github.com/collective-sim/collective-sim/sim/collective"
	"github.com/collective-sim/collective-sim/sim/topology"
	"github.com/collective-sim/collective-sim/sim/trace"
)

// Simulator owns the clock, the event queue and every node of a run.
type Simulator struct {
	EventQueue *EventHeap
	Clock      int64
	Horizon    int64 // 0 = until the queue drains

	Network sim.NetworkConfig
	RNG     *sim.PartitionedRNG
	Trace   *trace.SimulationTrace // nil when tracing is off
	RunID   string

	nodes       []*Node
	nextEventID uint64 // per-simulator counter for deterministic tie-breaking
	events      int64
	comType     collective.ComType
	dataSize    uint64
	logger      logrus.FieldLogger
}

// NewSimulator validates cfg and builds one node per NPU over the system
// topology. A nil logger discards diagnostics.
func NewSimulator(cfg sim.Config, logger logrus.FieldLogger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = topology.NopLogger()
	}
	s := &Simulator{
		EventQueue: NewEventHeap(),
		Horizon:    cfg.Horizon,
		Network:    cfg.Network,
		RNG:        sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)),
		RunID:      uuid.NewString(),
		logger:     logger,
	}
	if trace.TraceLevel(cfg.Trace.Level) == trace.TraceLevelPackets {
		s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelPackets})
		s.Trace.RunID = s.RunID
	}
	s.nodes = make([]*Node, cfg.Topology.Nodes)
	for id := range s.nodes {
		topo, err := BuildSystemTopology(cfg.Topology, id, logger)
		if err != nil {
			return nil, err
		}
		s.nodes[id] = newNode(id, s, topo)
	}
	logger.WithField("run", s.RunID).Infof("built %d nodes over a %s topology", len(s.nodes), cfg.Topology.Kind)
	return s, nil
}

// NumNodes returns the number of NPUs in the system.
func (c *Simulator) NumNodes() int { return len(c.nodes) }

// Node returns the node with the given id, or nil.
func (c *Simulator) Node(id int) *Node {
	if id < 0 || id >= len(c.nodes) {
		return nil
	}
	return c.nodes[id]
}

// StartCollective creates the communicator group on every member and
// schedules the first phase of its streams at the current clock.
func (c *Simulator) StartCollective(cc sim.CollectiveConfig) error {
	comType, err := collective.ParseComType(cc.Type)
	if err != nil {
		return err
	}
	injection, err := collective.ParseInjectionPolicy(cc.Injection)
	if err != nil {
		return err
	}
	npus := cc.NPUs
	if len(npus) == 0 {
		npus = make([]int, len(c.nodes))
		for i := range npus {
			npus[i] = i
		}
	}
	impl := Implementation{Injection: injection, Bidirectional: cc.Bidirectional}
	members := append([]int(nil), npus...)
	sort.Ints(members)
	for _, id := range npus {
		node := c.Node(id)
		if node == nil {
			return fmt.Errorf("collective member %d is not a node", id)
		}
		if group, ok := node.groups[cc.GroupID]; ok && !slices.Equal(group.NPUs(), members) {
			return fmt.Errorf("communicator group %d on node %d spans %v, not %v", cc.GroupID, id, group.NPUs(), members)
		}
	}
	for _, id := range npus {
		node := c.Node(id)
		group, ok := node.groups[cc.GroupID]
		if !ok {
			group, err = NewCommunicatorGroup(cc.GroupID, npus, node, impl)
			if err != nil {
				return err
			}
			node.groups[cc.GroupID] = group
		}
		if _, err := node.StartCollective(group, comType, cc.DataSize); err != nil {
			return err
		}
	}
	c.comType = comType
	c.dataSize = cc.DataSize
	c.logger.Infof("started %s of %d bytes over %d nodes (group %d, %s injection, bidirectional=%v)",
		comType, cc.DataSize, len(npus), cc.GroupID, injection, cc.Bidirectional)
	return nil
}

// ScheduleEvent adds an event to the event queue
func (c *Simulator) ScheduleEvent(e Event) {
	c.EventQueue.Schedule(e)
}

func (c *Simulator) newEventID() uint64 {
	c.nextEventID++
	return c.nextEventID
}

func (c *Simulator) NewMessageArrivalEvent(timestamp int64, msg message) *MessageArrivalEvent {
	return NewMessageArrivalEvent(timestamp, msg, c.newEventID())
}

func (c *Simulator) NewRecvCompleteEvent(timestamp int64, node *Node, r *pendingRecv) *RecvCompleteEvent {
	return NewRecvCompleteEvent(timestamp, node, r, c.newEventID())
}

func (c *Simulator) NewGeneralEvent(timestamp int64, handler collective.Handler) *GeneralEvent {
	return NewGeneralEvent(timestamp, handler, c.newEventID())
}

func (c *Simulator) NewStreamStartEvent(timestamp int64, run *streamRun) *StreamStartEvent {
	return NewStreamStartEvent(timestamp, run, c.newEventID())
}

// transferTicks is link latency plus serialization time of size bytes.
func (c *Simulator) transferTicks(size uint64) int64 {
	return c.Network.LinkLatency + int64(math.Ceil(float64(size)/c.Network.Bandwidth))
}

// Run executes events until the queue drains or the horizon passes.
func (c *Simulator) Run() *Report {
	for c.EventQueue.Len() > 0 {
		if c.Horizon > 0 && c.EventQueue.Peek().Timestamp() > c.Horizon {
			c.logger.Warnf("horizon %d reached with %d events pending", c.Horizon, c.EventQueue.Len())
			break
		}
		event := c.EventQueue.PopNext()
		if event.Timestamp() < c.Clock {
			panic(fmt.Sprintf("Clock went backwards: %d < %d", event.Timestamp(), c.Clock))
		}
		c.Clock = event.Timestamp()
		event.Execute(c)
		c.events++
	}
	report := c.ComputeReport()
	if len(report.Stalled) > 0 {
		c.logger.Warnf("%d streams did not finish", len(report.Stalled))
	}
	return report
}
