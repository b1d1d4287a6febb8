package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full run configuration, loadable from a YAML file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Topology   TopologyConfig   `yaml:"topology"`
	Collective CollectiveConfig `yaml:"collective"`
	Network    NetworkConfig    `yaml:"network"`
	Trace      TraceConfig      `yaml:"trace"`
	Seed       int64            `yaml:"seed"`
	Horizon    int64            `yaml:"horizon"` // ticks; 0 = run until the event queue drains
}

// TopologyConfig selects the system topology every node is built over.
type TopologyConfig struct {
	Kind  string       `yaml:"kind"`  // ring, mesh, torus, hierarchical
	Nodes int          `yaml:"nodes"` // total NPUs, ids 0..nodes-1
	Dims  []int        `yaml:"dims"`  // optional row-major shape for mesh/torus
	Tiers []TierConfig `yaml:"tiers"` // hierarchical only, innermost first
}

// TierConfig is one dimension of a hierarchical topology.
type TierConfig struct {
	Kind string `yaml:"kind"`
	Size int    `yaml:"size"`
}

// CollectiveConfig describes the collective invocation to simulate.
type CollectiveConfig struct {
	Type          string `yaml:"type"`
	DataSize      uint64 `yaml:"data_size"` // bytes per node
	Injection     string `yaml:"injection"`
	Bidirectional bool   `yaml:"bidirectional"`
	GroupID       int    `yaml:"group_id"`
	NPUs          []int  `yaml:"npus"` // communicator members; empty = every node
}

// NetworkConfig holds the transport timing model, in ticks.
type NetworkConfig struct {
	LinkLatency       int64   `yaml:"link_latency"`
	Bandwidth         float64 `yaml:"bandwidth"` // bytes per tick
	LocalBusLatency   int64   `yaml:"local_bus_latency"`
	NetworkBusLatency int64   `yaml:"network_bus_latency"`
	Jitter            int64   `yaml:"jitter"` // max extra ticks per message, drawn uniformly
}

// TraceConfig controls packet trace recording and export.
type TraceConfig struct {
	Level       string `yaml:"level"`
	Path        string `yaml:"path"`
	Format      string `yaml:"format"`
	Compression string `yaml:"compression"`
}

// ValidTopologyKinds is the set of recognized system topology names.
var ValidTopologyKinds = map[string]bool{"ring": true, "mesh": true, "torus": true, "hierarchical": true}

// ValidTierKinds is the set of kinds a hierarchical tier may use.
var ValidTierKinds = map[string]bool{"ring": true, "mesh": true, "torus": true}

// ValidCollectives is the set of recognized collective names.
var ValidCollectives = map[string]bool{"all-reduce": true, "all-gather": true, "reduce-scatter": true, "all-to-all": true}

// ValidInjectionPolicies is the set of recognized injection policy names.
var ValidInjectionPolicies = map[string]bool{"": true, "normal": true, "aggressive": true}

// ValidTraceLevels is the set of recognized trace levels.
var ValidTraceLevels = map[string]bool{"": true, "none": true, "packets": true}

// ValidTraceFormats is the set of recognized trace export formats.
var ValidTraceFormats = map[string]bool{"": true, "json": true, "msgpack": true}

// ValidCompressions is the set of recognized trace compression names.
var ValidCompressions = map[string]bool{"": true, "none": true, "gzip": true, "zstd": true}

// DefaultConfig returns a 16-node ring all-reduce of 1 MiB per node.
func DefaultConfig() Config {
	return Config{
		Topology: TopologyConfig{Kind: "ring", Nodes: 16},
		Collective: CollectiveConfig{
			Type:          "all-reduce",
			DataSize:      1 << 20,
			Injection:     "normal",
			Bidirectional: true,
			GroupID:       1,
		},
		Network: NetworkConfig{
			LinkLatency:       500,
			Bandwidth:         25,
			LocalBusLatency:   10,
			NetworkBusLatency: 50,
		},
		Trace: TraceConfig{Level: "none", Format: "json", Compression: "none"},
		Seed:  42,
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
// Unknown fields are errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks names and ranges across every section.
func (c *Config) Validate() error {
	if !ValidTopologyKinds[c.Topology.Kind] {
		return fmt.Errorf("unknown topology kind %q", c.Topology.Kind)
	}
	if c.Topology.Kind == "hierarchical" {
		if len(c.Topology.Tiers) == 0 {
			return fmt.Errorf("hierarchical topology needs at least one tier")
		}
		total := 1
		for i, tier := range c.Topology.Tiers {
			if !ValidTierKinds[tier.Kind] {
				return fmt.Errorf("tier %d: unknown kind %q", i, tier.Kind)
			}
			if tier.Size < 1 {
				return fmt.Errorf("tier %d: size must be >= 1, got %d", i, tier.Size)
			}
			total *= tier.Size
		}
		if c.Topology.Nodes != 0 && c.Topology.Nodes != total {
			return fmt.Errorf("hierarchical tiers cover %d nodes, topology.nodes is %d", total, c.Topology.Nodes)
		}
		c.Topology.Nodes = total
	} else if len(c.Topology.Tiers) > 0 {
		return fmt.Errorf("tiers are only valid for hierarchical topologies")
	}
	if c.Topology.Nodes < 1 {
		return fmt.Errorf("topology.nodes must be >= 1, got %d", c.Topology.Nodes)
	}
	if len(c.Topology.Dims) > 0 {
		product := 1
		for _, d := range c.Topology.Dims {
			if d < 1 {
				return fmt.Errorf("topology.dims entries must be >= 1, got %v", c.Topology.Dims)
			}
			product *= d
		}
		if product != c.Topology.Nodes {
			return fmt.Errorf("topology.dims %v cover %d nodes, topology.nodes is %d", c.Topology.Dims, product, c.Topology.Nodes)
		}
	}
	if !ValidCollectives[c.Collective.Type] {
		return fmt.Errorf("unknown collective %q", c.Collective.Type)
	}
	if !ValidInjectionPolicies[c.Collective.Injection] {
		return fmt.Errorf("unknown injection policy %q", c.Collective.Injection)
	}
	if c.Collective.GroupID < 1 {
		return fmt.Errorf("collective.group_id must be >= 1, got %d", c.Collective.GroupID)
	}
	seen := make(map[int]bool, len(c.Collective.NPUs))
	for _, id := range c.Collective.NPUs {
		if id < 0 || id >= c.Topology.Nodes {
			return fmt.Errorf("collective.npus: node %d outside 0..%d", id, c.Topology.Nodes-1)
		}
		if seen[id] {
			return fmt.Errorf("collective.npus: duplicate node %d", id)
		}
		seen[id] = true
	}
	if c.Network.LinkLatency < 0 || c.Network.LocalBusLatency < 0 || c.Network.NetworkBusLatency < 0 || c.Network.Jitter < 0 {
		return fmt.Errorf("network latencies must be >= 0")
	}
	if c.Network.Bandwidth <= 0 {
		return fmt.Errorf("network.bandwidth must be > 0, got %v", c.Network.Bandwidth)
	}
	if !ValidTraceLevels[c.Trace.Level] {
		return fmt.Errorf("unknown trace level %q", c.Trace.Level)
	}
	if !ValidTraceFormats[c.Trace.Format] {
		return fmt.Errorf("unknown trace format %q", c.Trace.Format)
	}
	if !ValidCompressions[c.Trace.Compression] {
		return fmt.Errorf("unknown trace compression %q", c.Trace.Compression)
	}
	if c.Horizon < 0 {
		return fmt.Errorf("horizon must be >= 0, got %d", c.Horizon)
	}
	return nil
}
