// Package sim provides the shared configuration and deterministic randomness
// for the collective communication simulator.
//
// # Reading Guide
//
// Start with these packages to understand the simulation kernel:
//   - sim/topology: logical topologies (ring, mesh, torus, composite) and the
//     sender/receiver neighbor queries every algorithm is built on
//   - sim/collective: the per-dimension algorithm state machine and the
//     stream lifecycle it drives
//   - sim/cluster: the event loop, nodes that implement the transport
//     boundary, and communicator groups that plan collectives
//
// # Architecture
//
// The core packages (topology, collective) never touch a clock or a global
// logger. They receive a logrus.FieldLogger sink at construction and talk to
// the outside world only through collective.Owner. The cluster package owns
// the clock and every Owner implementation; sim/trace records what the
// cluster observed.
//
// Configuration enters through Config (YAML, strict field checking) and
// randomness through PartitionedRNG, so two runs with the same seed and
// configuration produce identical traces.
package sim
