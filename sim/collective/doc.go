// Package collective drives one dimension of a collective operation: the
// Algorithm state machine decides how many rounds a stream needs, injects
// flights into a bounded window and hands bundles and point-to-point
// requests to its Owner.
//
// On a single-axis ring a flight is one packet. On a multi-axis mesh or
// torus one injection queues a flight holding one packet per axis that has
// a neighbor on either side, and every counter here (rounds, window slots,
// bundles, TotalPacketsSent) counts flights, not per-axis packets. The
// owner therefore sees one Send and one Recv per axis for each flight.
package collective
