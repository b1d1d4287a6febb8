package collective

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/collective-sim/collective-sim/sim/topology"
)

// Config describes one algorithm instance: one node, one dimension, one
// direction of one collective invocation.
type Config struct {
	ComType       ComType
	ID            int // owning node
	DataSize      uint64
	Direction     topology.Direction
	Injection     InjectionPolicy
	Bidirectional bool
}

// Algorithm drives packet injection, window-limited release and
// termination for one communication round. It is single-threaded: every
// method runs inside a scheduler callback.
type Algorithm struct {
	comType       ComType
	id            int
	topo          *topology.Basic
	dataSize      uint64
	direction     topology.Direction
	injection     InjectionPolicy
	bidirectional bool
	transmission  Transmission

	// axis-aligned; topology.NoNode where a boundary drops a neighbor
	currReceivers []int
	currSenders   []int
	nodesInDim    int

	streamCount                int
	maxCount                   int
	remainedPacketsPerMessage  int
	remainedPacketsPerMaxCount int
	parallelReduce             int

	zeroLatencyPackets    int
	nonZeroLatencyPackets int
	toggle                bool

	freePackets          int64
	totalPacketsSent     int64
	totalPacketsReceived int64

	msgSize       uint64
	finalDataSize uint64

	packets       []flight
	lockedPackets []Packet
	nextSeq       int
	outstanding   map[int]int // flight seq -> receives not yet completed

	processed     bool
	sendBack      bool
	localDelivery bool

	stream *Stream
	done   bool
	logger logrus.FieldLogger
}

// New sizes an algorithm instance for topo as seen from cfg.ID. The
// neighbor sets are fetched once here.
func New(cfg Config, topo *topology.Basic, logger logrus.FieldLogger) (*Algorithm, error) {
	if topo == nil {
		return nil, fmt.Errorf("collective %s: nil topology", cfg.ComType)
	}
	k := topo.NodesPerAxis()
	msgSize, finalSize, err := MessageSizes(cfg.ComType, cfg.DataSize, k, cfg.Bidirectional)
	if err != nil {
		return nil, err
	}
	streamCount, maxCount, parallelReduce, err := RoundCounts(cfg.ComType, k, cfg.Injection)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = topology.NopLogger()
	}
	transmission := Usual
	if topo.Role() == topology.Local {
		transmission = Fast
	}
	a := &Algorithm{
		comType:                    cfg.ComType,
		id:                         cfg.ID,
		topo:                       topo,
		dataSize:                   cfg.DataSize,
		direction:                  cfg.Direction,
		injection:                  cfg.Injection,
		bidirectional:              cfg.Bidirectional,
		transmission:               transmission,
		currReceivers:              topo.AxisReceivers(cfg.ID, cfg.Direction),
		currSenders:                topo.AxisSenders(cfg.ID, cfg.Direction),
		nodesInDim:                 k,
		streamCount:                streamCount,
		maxCount:                   maxCount,
		remainedPacketsPerMessage:  1,
		remainedPacketsPerMaxCount: 1,
		parallelReduce:             parallelReduce,
		msgSize:                    msgSize,
		finalDataSize:              finalSize,
		outstanding:                make(map[int]int),
		logger: logger.WithFields(logrus.Fields{
			"node":      cfg.ID,
			"comtype":   cfg.ComType.String(),
			"direction": cfg.Direction.String(),
			"dimension": topo.Role().String(),
		}),
	}
	a.logger.Debugf("algorithm sized: k=%d rounds=%d windows=%d parallel=%d msg=%d final=%d",
		k, streamCount, maxCount, parallelReduce, msgSize, finalSize)
	return a, nil
}

// Init binds the stream and injects the initial packets.
func (a *Algorithm) Init(stream *Stream) {
	if stream == nil || stream.Owner == nil {
		panic("Init: stream and its owner must not be nil")
	}
	a.stream = stream
	a.logger = a.logger.WithField("stream", stream.ID)
	a.Run(StreamInit)
}

// Run handles one scheduler event. Events after completion, or on a Dead
// stream, are no-ops.
func (a *Algorithm) Run(event EventType) {
	if a.done || a.stream == nil || a.stream.State == StateDead {
		return
	}
	switch event {
	case General:
		a.freePackets++
		a.ready()
		a.iteratable()
	case PacketReceived:
		a.totalPacketsReceived++
		a.insertPacket()
	case StreamInit:
		for i := 0; i < a.parallelReduce; i++ {
			a.insertPacket()
		}
	}
}

// insertPacket queues one flight. A new batch starts whenever both latency
// counters are exhausted; the toggle alternates which All-Reduce batches
// reduce on arrival.
func (a *Algorithm) insertPacket() {
	if a.zeroLatencyPackets == 0 && a.nonZeroLatencyPackets == 0 {
		a.zeroLatencyPackets = a.parallelReduce
		a.nonZeroLatencyPackets = (a.nodesInDim - 1) * a.parallelReduce
		a.toggle = !a.toggle
	}
	if a.zeroLatencyPackets > 0 {
		a.processed = false
		a.sendBack = false
		a.localDelivery = true
		a.enqueue()
		a.processMaxCount()
		a.zeroLatencyPackets--
		return
	}
	if a.nonZeroLatencyPackets > 0 {
		a.processed = a.comType == ReduceScatter || (a.comType == AllReduce && a.toggle)
		// the final parallelReduce packets of a batch stay here
		a.sendBack = a.nonZeroLatencyPackets > a.parallelReduce
		a.localDelivery = false
		a.enqueue()
		a.processMaxCount()
		a.nonZeroLatencyPackets--
		return
	}
	panic(fmt.Sprintf("insertPacket: node %d stream %d: should not inject nothing (zero=%d non-zero=%d)",
		a.id, a.stream.ID, a.zeroLatencyPackets, a.nonZeroLatencyPackets))
}

func (a *Algorithm) enqueue() {
	f := flight{seq: a.nextSeq}
	a.nextSeq++
	for axis := range a.currReceivers {
		src, dst := a.currSenders[axis], a.currReceivers[axis]
		if src == topology.NoNode && dst == topology.NoNode {
			continue
		}
		p := Packet{
			StreamID:       a.stream.ID,
			VirtualChannel: a.stream.CurrentQueueID,
			Src:            src,
			Dest:           dst,
			Processed:      a.processed,
			SendBack:       a.sendBack,
			LocalDelivery:  a.localDelivery,
		}
		f.packets = append(f.packets, p)
		a.lockedPackets = append(a.lockedPackets, p)
	}
	a.packets = append(a.packets, f)
}

// ready releases the head flight to the transport when a slot is free.
func (a *Algorithm) ready() bool {
	if a.stream.State == StateCreated || a.stream.State == StateReady {
		a.stream.ChangeState(StateExecuting)
	}
	if len(a.packets) == 0 || a.streamCount == 0 || a.freePackets == 0 {
		return false
	}
	f := a.packets[0]
	owner := a.stream.Owner
	tag, vc := a.stream.ID, a.stream.CurrentQueueID
	seq := f.seq
	for _, p := range f.packets {
		if p.Dest != topology.NoNode {
			owner.Send(p.Dest, a.msgSize, tag, vc)
		}
		owner.Recv(p.Src, a.msgSize, tag, vc, func() { a.recvCompleted(seq) })
	}
	if len(f.packets) > 0 {
		a.outstanding[seq] = len(f.packets)
	}
	a.reduce()
	return true
}

func (a *Algorithm) recvCompleted(seq int) {
	a.outstanding[seq]--
	if a.outstanding[seq] > 0 {
		return
	}
	delete(a.outstanding, seq)
	a.Run(PacketReceived)
}

func (a *Algorithm) reduce() {
	a.processStreamCount()
	a.packets = a.packets[1:]
	a.freePackets--
	a.totalPacketsSent++
}

func (a *Algorithm) processStreamCount() {
	if a.remainedPacketsPerMessage > 0 {
		a.remainedPacketsPerMessage--
	}
	if a.remainedPacketsPerMessage == 0 && a.streamCount > 0 {
		a.streamCount--
		if a.streamCount > 0 {
			a.remainedPacketsPerMessage = 1
		}
	}
	if a.remainedPacketsPerMessage == 0 && a.streamCount == 0 && a.stream.State != StateDead {
		a.stream.ChangeState(StateZombie)
	}
}

func (a *Algorithm) processMaxCount() {
	if a.remainedPacketsPerMaxCount > 0 {
		a.remainedPacketsPerMaxCount--
	}
	if a.remainedPacketsPerMaxCount == 0 {
		if a.maxCount > 0 {
			a.maxCount--
		}
		a.releasePackets()
		a.remainedPacketsPerMaxCount = 1
	}
}

func (a *Algorithm) releasePackets() {
	route := RouteNetwork
	if a.localDelivery {
		route = RouteLocal
	}
	b := &Bundle{
		Stream:       a.stream,
		Packets:      a.lockedPackets,
		Processed:    a.processed,
		SendBack:     a.sendBack,
		MsgSize:      a.msgSize,
		Transmission: a.transmission,
		Route:        route,
		Notifier:     a,
	}
	a.lockedPackets = nil
	a.stream.Owner.DeliverBundle(b)
}

// iteratable reports whether the caller should keep ticking. The round is
// complete once every round was issued and every slot is free again.
func (a *Algorithm) iteratable() bool {
	if a.done {
		return false
	}
	if a.streamCount == 0 && a.freePackets == int64(a.parallelReduce) {
		a.exit()
		return false
	}
	return true
}

func (a *Algorithm) exit() {
	a.packets = nil
	a.lockedPackets = nil
	a.done = true
	// a dimension with no rounds never passes through processStreamCount
	if a.stream.State != StateZombie && a.stream.State != StateDead {
		a.stream.ChangeState(StateZombie)
	}
	a.logger.Debugf("round complete: sent=%d received=%d", a.totalPacketsSent, a.totalPacketsReceived)
	a.stream.Owner.AdvanceStream(a.stream)
}

// Receivers returns the nodes this instance sends to.
func (a *Algorithm) Receivers() []int { return compactIDs(a.currReceivers) }

// Senders returns the nodes this instance receives from.
func (a *Algorithm) Senders() []int { return compactIDs(a.currSenders) }

func (a *Algorithm) ComType() ComType { return a.comType }
func (a *Algorithm) Direction() topology.Direction { return a.direction }
func (a *Algorithm) NodesInDimension() int { return a.nodesInDim }
func (a *Algorithm) MsgSize() uint64 { return a.msgSize }
func (a *Algorithm) FinalDataSize() uint64 { return a.finalDataSize }
func (a *Algorithm) DataSize() uint64 { return a.dataSize }
func (a *Algorithm) StreamCount() int { return a.streamCount }
func (a *Algorithm) MaxCount() int { return a.maxCount }
func (a *Algorithm) ParallelReduce() int { return a.parallelReduce }
func (a *Algorithm) FreePackets() int64 { return a.freePackets }
func (a *Algorithm) TotalPacketsSent() int64 { return a.totalPacketsSent }
func (a *Algorithm) TotalPacketsReceived() int64 { return a.totalPacketsReceived }
func (a *Algorithm) Transmission() Transmission { return a.transmission }
func (a *Algorithm) Stream() *Stream { return a.stream }

// Done reports whether the round completed and the owner was notified.
func (a *Algorithm) Done() bool { return a.done }

// RequiresTicking reports whether the instance still needs General events.
func (a *Algorithm) RequiresTicking() bool { return !a.done }

func compactIDs(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != topology.NoNode {
			out = append(out, id)
		}
	}
	return out
}
