package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a run. The same key over the same
// configuration reproduces every random draw, and so every event time.
type SimulationKey int64

// NewSimulationKey wraps a seed.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// SubsystemNode names the stream of draws owned by node id. The cluster
// draws per-message link jitter for messages sent by id from it.
func SubsystemNode(id int) string {
	return fmt.Sprintf("node_%d", id)
}

// PartitionedRNG hands out one independent *rand.Rand per named subsystem,
// seeded with key XOR fnv1a64(name). Draws on one node never shift the
// sequence another node sees, so adding traffic on node 3 leaves node 4's
// jitter unchanged.
//
// Not safe for concurrent use; the simulator is single-threaded.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates an empty partition over key.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, streams: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the cached source for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	r, ok := p.streams[name]
	if !ok {
		r = rand.New(rand.NewSource(p.Seed(name)))
		p.streams[name] = r
	}
	return r
}

// ForNode is ForSubsystem(SubsystemNode(id)).
func (p *PartitionedRNG) ForNode(id int) *rand.Rand {
	return p.ForSubsystem(SubsystemNode(id))
}

// Seed returns the seed the source for name starts from.
func (p *PartitionedRNG) Seed(name string) int64 {
	return int64(p.key) ^ fnv1a64(name)
}

// Key returns the master key.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}
