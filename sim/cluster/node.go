package cluster

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/collective-sim/collective-sim/sim/collective"
	"github.com/collective-sim/collective-sim/sim/topology"
	"github.com/collective-sim/collective-sim/sim/trace"
)

// msgKey matches sends to receives: same source, stream tag and phase.
type msgKey struct {
	src, tag, vc int
}

type pendingRecv struct {
	key        msgKey
	size       uint64
	postedAt   int64
	onComplete func()
}

// streamRun is one stream's walk through the dimensions of its plan.
type streamRun struct {
	node       *Node
	stream     *collective.Stream
	plan       *Plan
	dims       []*topology.Basic
	direction  topology.Direction
	phase      int
	dataSize   uint64 // input size of the current phase
	algo       *collective.Algorithm
	startedAt  int64
	finishedAt int64
}

// Node is one NPU. It implements collective.Owner: algorithms on this node
// send, receive and flush bundles through it, and it moves their streams
// from one dimension to the next.
type Node struct {
	id     int
	sim    *Simulator
	topo   topology.Complex
	jitter *rand.Rand
	logger *logrus.Entry

	arrivals map[msgKey][]message
	posted   map[msgKey][]*pendingRecv
	streams  map[int]*streamRun
	order    []int // stream ids in creation order
	groups   map[int]*CommunicatorGroup
	nextReq  uint64

	PacketsSent     int64
	PacketsReceived int64
	BytesSent       uint64
	BytesReceived   uint64
	Bundles         int64
	FinishedAt      int64
}

func newNode(id int, s *Simulator, topo topology.Complex) *Node {
	return &Node{
		id:       id,
		sim:      s,
		topo:     topo,
		jitter:   s.RNG.ForNode(id),
		logger:   s.logger.WithField("node", id),
		arrivals: make(map[msgKey][]message),
		posted:   make(map[msgKey][]*pendingRecv),
		streams:  make(map[int]*streamRun),
		groups:   make(map[int]*CommunicatorGroup),
	}
}

func (n *Node) ID() int { return n.id }

// Topology returns the system topology as seen from this node.
func (n *Node) Topology() topology.Complex { return n.topo }

// Group returns the communicator group with the given id, or nil.
func (n *Node) Group(id int) *CommunicatorGroup { return n.groups[id] }

// Send puts one message on the wire toward dst. It arrives after the link
// latency plus serialization time plus jitter.
func (n *Node) Send(dst int, size uint64, tag, vc int) collective.Request {
	if dst < 0 || dst >= len(n.sim.nodes) {
		panic(fmt.Sprintf("Send: node %d has no destination %d", n.id, dst))
	}
	now := n.sim.Clock
	delay := n.sim.transferTicks(size)
	if j := n.sim.Network.Jitter; j > 0 {
		delay += n.jitter.Int63n(j + 1)
	}
	msg := message{src: n.id, dst: dst, size: size, tag: tag, vc: vc, sentAt: now}
	n.sim.ScheduleEvent(n.sim.NewMessageArrivalEvent(now+delay, msg))

	n.PacketsSent++
	n.BytesSent += size
	if n.sim.Trace != nil {
		n.sim.Trace.RecordSend(trace.SendRecord{
			Clock: now, Src: n.id, Dst: dst, Size: size, Tag: tag, VirtualChannel: vc, ArrivesAt: now + delay,
		})
	}
	n.logger.Tracef("send to %d: %d bytes tag=%d vc=%d arrives=%d", dst, size, tag, vc, now+delay)
	return n.request(collective.RequestSend, n.id, dst, size, tag, vc)
}

// Recv posts a receive from src. It completes, through a scheduled event,
// once a matching message has arrived. A receive from topology.NoNode has
// no peer and completes at the current clock.
func (n *Node) Recv(src int, size uint64, tag, vc int, onComplete func()) collective.Request {
	r := &pendingRecv{
		key:        msgKey{src: src, tag: tag, vc: vc},
		size:       size,
		postedAt:   n.sim.Clock,
		onComplete: onComplete,
	}
	req := n.request(collective.RequestRecv, src, n.id, size, tag, vc)
	if src == topology.NoNode {
		n.scheduleCompletion(r)
		return req
	}
	if q := n.arrivals[r.key]; len(q) > 0 {
		n.popArrival(r.key)
		n.scheduleCompletion(r)
		return req
	}
	n.posted[r.key] = append(n.posted[r.key], r)
	return req
}

func (n *Node) handleArrival(msg message) {
	key := msgKey{src: msg.src, tag: msg.tag, vc: msg.vc}
	if q := n.posted[key]; len(q) > 0 {
		r := q[0]
		if len(q) == 1 {
			delete(n.posted, key)
		} else {
			n.posted[key] = q[1:]
		}
		n.scheduleCompletion(r)
		return
	}
	n.arrivals[key] = append(n.arrivals[key], msg)
}

func (n *Node) popArrival(key msgKey) {
	q := n.arrivals[key]
	if len(q) == 1 {
		delete(n.arrivals, key)
		return
	}
	n.arrivals[key] = q[1:]
}

func (n *Node) scheduleCompletion(r *pendingRecv) {
	n.sim.ScheduleEvent(n.sim.NewRecvCompleteEvent(n.sim.Clock, n, r))
}

func (n *Node) completeRecv(r *pendingRecv) {
	if r.key.src != topology.NoNode {
		n.PacketsReceived++
		n.BytesReceived += r.size
	}
	if n.sim.Trace != nil {
		n.sim.Trace.RecordRecv(trace.RecvRecord{
			Clock: n.sim.Clock, Node: n.id, Src: r.key.src, Size: r.size,
			Tag: r.key.tag, VirtualChannel: r.key.vc, Waited: n.sim.Clock - r.postedAt,
		})
	}
	r.onComplete()
}

// DeliverBundle hands a flushed window to the node-side or network bus and
// returns the freed slot to its algorithm once the bus latency has passed.
func (n *Node) DeliverBundle(b *collective.Bundle) {
	latency := n.sim.Network.NetworkBusLatency
	if b.Route == collective.RouteLocal {
		latency = n.sim.Network.LocalBusLatency
	}
	n.Bundles++
	if n.sim.Trace != nil {
		n.sim.Trace.RecordBundle(trace.BundleRecord{
			Clock: n.sim.Clock, Node: n.id, Stream: b.Stream.ID, Packets: len(b.Packets),
			Route: b.Route.String(), Transmission: b.Transmission.String(),
			Processed: b.Processed, SendBack: b.SendBack,
		})
	}
	n.sim.ScheduleEvent(n.sim.NewGeneralEvent(n.sim.Clock+latency, b.Notifier))
}

// AdvanceStream moves a stream whose current phase completed to its next
// dimension, or retires it when no dimension is left.
func (n *Node) AdvanceStream(s *collective.Stream) {
	run, ok := n.streams[s.ID]
	if !ok {
		panic(fmt.Sprintf("AdvanceStream: node %d does not own stream %d", n.id, s.ID))
	}
	finalSize := run.algo.FinalDataSize()
	run.phase++
	if run.phase < len(run.dims) {
		run.dataSize = finalSize
		s.CurrentQueueID = run.phase
		s.ChangeState(collective.StateReady)
		n.recordStream(run)
		n.sim.ScheduleEvent(n.sim.NewStreamStartEvent(n.sim.Clock, run))
		return
	}
	s.ChangeState(collective.StateDead)
	run.finishedAt = n.sim.Clock
	if run.finishedAt > n.FinishedAt {
		n.FinishedAt = run.finishedAt
	}
	n.recordStream(run)
	n.logger.Debugf("stream %d finished at %d", s.ID, run.finishedAt)
}

// StartCollective begins comType over group on this node at the current
// clock: one stream clockwise, plus one anticlockwise when bidirectional.
func (n *Node) StartCollective(group *CommunicatorGroup, comType collective.ComType, dataSize uint64) ([]*collective.Stream, error) {
	plan, err := group.Plan(comType)
	if err != nil {
		return nil, err
	}
	directions := []topology.Direction{topology.Clockwise}
	if plan.Impl.Bidirectional {
		directions = append(directions, topology.Anticlockwise)
	}
	streams := make([]*collective.Stream, 0, len(directions))
	for _, dir := range directions {
		s := collective.NewStream(group.NextStreamID(), 0, n)
		run := &streamRun{
			node:      n,
			stream:    s,
			plan:      plan,
			dims:      plan.Dimensions(),
			direction: dir,
			dataSize:  dataSize,
			startedAt: n.sim.Clock,
		}
		n.streams[s.ID] = run
		n.order = append(n.order, s.ID)
		n.recordStream(run)
		n.sim.ScheduleEvent(n.sim.NewStreamStartEvent(n.sim.Clock, run))
		streams = append(streams, s)
	}
	return streams, nil
}

func (n *Node) startPhase(run *streamRun) {
	if run.stream.State == collective.StateDead {
		return
	}
	algo, err := collective.New(collective.Config{
		ComType:       run.plan.ComType,
		ID:            n.id,
		DataSize:      run.dataSize,
		Direction:     run.direction,
		Injection:     run.plan.Impl.Injection,
		Bidirectional: run.plan.Impl.Bidirectional,
	}, run.dims[run.phase], n.logger)
	if err != nil {
		panic(fmt.Sprintf("startPhase: node %d stream %d phase %d: %v", n.id, run.stream.ID, run.phase, err))
	}
	run.algo = algo
	algo.Init(run.stream)
}

// LiveStreams returns the streams on this node that have not finished.
func (n *Node) LiveStreams() []*collective.Stream {
	var live []*collective.Stream
	for _, id := range n.order {
		if s := n.streams[id].stream; s.State != collective.StateDead {
			live = append(live, s)
		}
	}
	return live
}

// Phase returns the index of the dimension stream id is in, or -1.
func (n *Node) Phase(id int) int {
	if run, ok := n.streams[id]; ok {
		return run.phase
	}
	return -1
}

func (n *Node) recordStream(run *streamRun) {
	if n.sim.Trace == nil {
		return
	}
	n.sim.Trace.RecordStream(trace.StreamRecord{
		Clock: n.sim.Clock, Node: n.id, Stream: run.stream.ID, Phase: run.phase, State: string(run.stream.State),
	})
}

func (n *Node) request(kind collective.RequestKind, src, dst int, size uint64, tag, vc int) collective.Request {
	n.nextReq++
	return collective.Request{ID: n.nextReq, Kind: kind, Src: src, Dst: dst, Size: size, Tag: tag, VirtualChannel: vc}
}
