package cluster

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/collective-sim/collective-sim/sim/collective"
)

// FinishTimes summarizes how long streams or nodes took to finish, in
// ticks since their collective started.
type FinishTimes struct {
	Count    int     `json:"count"`
	Earliest int64   `json:"earliest"`
	Median   int64   `json:"median"`
	Latest   int64   `json:"latest"`
	Mean     float64 `json:"mean"`
}

// Skew is how much later the slowest finisher was than the fastest.
func (f FinishTimes) Skew() int64 { return f.Latest - f.Earliest }

// summarizeFinish sorts ticks in place. The median of an even count is
// the lower middle value, so it is always a tick someone finished at.
func summarizeFinish(ticks []int64) FinishTimes {
	if len(ticks) == 0 {
		return FinishTimes{}
	}
	slices.Sort(ticks)
	var sum int64
	for _, v := range ticks {
		sum += v
	}
	return FinishTimes{
		Count:    len(ticks),
		Earliest: ticks[0],
		Median:   ticks[(len(ticks)-1)/2],
		Latest:   ticks[len(ticks)-1],
		Mean:     float64(sum) / float64(len(ticks)),
	}
}

// StalledStream is a stream that had not finished when the run stopped.
type StalledStream struct {
	Node   int    `json:"node"`
	Stream int    `json:"stream"`
	Phase  int    `json:"phase"`
	State  string `json:"state"`
}

// Report summarizes one run.
type Report struct {
	RunID      string `json:"run_id"`
	Collective string `json:"collective"`
	DataSize   uint64 `json:"data_size"`
	Nodes      int    `json:"nodes"`
	Clock      int64  `json:"clock"`
	Events     int64  `json:"events"`

	// Completion times, in ticks since the collective started
	StreamFinish FinishTimes `json:"stream_finish"`
	NodeFinish   FinishTimes `json:"node_finish"`

	StreamsCompleted int             `json:"streams_completed"`
	Stalled          []StalledStream `json:"stalled,omitempty"`
	// Events still queued when the run stopped; only a horizon leaves any
	PendingEvents map[EventType]int `json:"pending_events,omitempty"`

	PacketsSent     int64  `json:"packets_sent"`
	PacketsReceived int64  `json:"packets_received"`
	BytesSent       uint64 `json:"bytes_sent"`
	BytesReceived   uint64 `json:"bytes_received"`
	Bundles         int64  `json:"bundles"`
}

// ComputeReport aggregates node counters and stream completion times.
func (c *Simulator) ComputeReport() *Report {
	r := &Report{
		RunID:      c.RunID,
		Collective: c.comType.String(),
		DataSize:   c.dataSize,
		Nodes:      len(c.nodes),
		Clock:      c.Clock,
		Events:     c.events,
	}
	if c.EventQueue.Len() > 0 {
		r.PendingEvents = c.EventQueue.PendingByType()
	}
	var streamTimes, nodeTimes []int64
	for _, n := range c.nodes {
		r.PacketsSent += n.PacketsSent
		r.PacketsReceived += n.PacketsReceived
		r.BytesSent += n.BytesSent
		r.BytesReceived += n.BytesReceived
		r.Bundles += n.Bundles
		if len(n.order) == 0 {
			continue
		}
		var nodeStart int64 = math.MaxInt64
		nodeDone := true
		for _, id := range n.order {
			run := n.streams[id]
			if run.startedAt < nodeStart {
				nodeStart = run.startedAt
			}
			if run.stream.State != collective.StateDead {
				nodeDone = false
				r.Stalled = append(r.Stalled, StalledStream{
					Node: n.id, Stream: id, Phase: run.phase, State: string(run.stream.State),
				})
				continue
			}
			r.StreamsCompleted++
			streamTimes = append(streamTimes, run.finishedAt-run.startedAt)
		}
		if nodeDone {
			nodeTimes = append(nodeTimes, n.FinishedAt-nodeStart)
		}
	}
	r.StreamFinish = summarizeFinish(streamTimes)
	r.NodeFinish = summarizeFinish(nodeTimes)
	return r
}

// Print writes a human-readable summary.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Collective Simulation Report ===")
	fmt.Fprintf(w, "Run ID              : %s\n", r.RunID)
	fmt.Fprintf(w, "Collective          : %s of %d bytes over %d nodes\n", r.Collective, r.DataSize, r.Nodes)
	fmt.Fprintf(w, "Final clock         : %d ticks (%d events)\n", r.Clock, r.Events)
	fmt.Fprintf(w, "Streams completed   : %d\n", r.StreamsCompleted)
	if r.NodeFinish.Count > 0 {
		fmt.Fprintf(w, "Node finish (ticks) : first %d  median %d  last %d  (skew %d)\n",
			r.NodeFinish.Earliest, r.NodeFinish.Median, r.NodeFinish.Latest, r.NodeFinish.Skew())
	}
	fmt.Fprintf(w, "Packets sent/recv   : %d / %d\n", r.PacketsSent, r.PacketsReceived)
	fmt.Fprintf(w, "Bytes sent/recv     : %d / %d\n", r.BytesSent, r.BytesReceived)
	fmt.Fprintf(w, "Bundles             : %d\n", r.Bundles)
	if len(r.Stalled) > 0 {
		fmt.Fprintf(w, "Stalled streams     : %d\n", len(r.Stalled))
		for _, s := range r.Stalled {
			fmt.Fprintf(w, "  node %d stream %d phase %d (%s)\n", s.Node, s.Stream, s.Phase, s.State)
		}
	}
	for _, t := range []EventType{EventTypeMessageArrival, EventTypeRecvComplete, EventTypeGeneral, EventTypeStreamStart} {
		if n := r.PendingEvents[t]; n > 0 {
			fmt.Fprintf(w, "Pending %-12s: %d\n", t, n)
		}
	}
}

// SaveJSON writes the report as indented JSON to path.
func (r *Report) SaveJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
