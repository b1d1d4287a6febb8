package collective

import (
	"fmt"
	"strings"
)

// ComType is the kind of collective operation.
type ComType int

const (
	AllReduce ComType = iota
	AllGather
	ReduceScatter
	AllToAll
)

func (t ComType) String() string {
	switch t {
	case AllReduce:
		return "all-reduce"
	case AllGather:
		return "all-gather"
	case ReduceScatter:
		return "reduce-scatter"
	case AllToAll:
		return "all-to-all"
	default:
		return fmt.Sprintf("comtype(%d)", int(t))
	}
}

// ParseComType converts a configuration name ("all-reduce", "allgather",
// "reduce_scatter", ...) into a ComType.
func ParseComType(name string) (ComType, error) {
	switch strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(name)) {
	case "allreduce":
		return AllReduce, nil
	case "allgather":
		return AllGather, nil
	case "reducescatter":
		return ReduceScatter, nil
	case "alltoall":
		return AllToAll, nil
	default:
		return 0, fmt.Errorf("unknown collective %q", name)
	}
}

// InjectionPolicy controls how many logical streams are injected
// concurrently per round.
type InjectionPolicy int

const (
	Normal InjectionPolicy = iota
	Aggressive
)

func (p InjectionPolicy) String() string {
	if p == Aggressive {
		return "aggressive"
	}
	return "normal"
}

// ParseInjectionPolicy converts a configuration name into an InjectionPolicy.
// The empty string selects Normal.
func ParseInjectionPolicy(name string) (InjectionPolicy, error) {
	switch strings.ToLower(name) {
	case "", "normal":
		return Normal, nil
	case "aggressive":
		return Aggressive, nil
	default:
		return 0, fmt.Errorf("unknown injection policy %q", name)
	}
}

// EventType is the kind of event the scheduler delivers to an Algorithm.
type EventType int

const (
	// StreamInit injects the initial packets.
	StreamInit EventType = iota
	// General signals that one transport slot became free.
	General
	// PacketReceived signals that an in-flight receive completed.
	PacketReceived
)

func (e EventType) String() string {
	switch e {
	case StreamInit:
		return "stream-init"
	case General:
		return "general"
	case PacketReceived:
		return "packet-received"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Transmission selects the memory-bus speed used for a bundle.
type Transmission int

const (
	Fast Transmission = iota
	Usual
)

func (t Transmission) String() string {
	if t == Fast {
		return "fast"
	}
	return "usual"
}

// Route is the path a released bundle takes inside the owning node.
type Route int

const (
	// RouteLocal hands the bundle to the node-side path (packets already available locally).
	RouteLocal Route = iota
	// RouteNetwork hands the bundle to the node-to-network path.
	RouteNetwork
)

func (r Route) String() string {
	if r == RouteLocal {
		return "local"
	}
	return "network"
}
