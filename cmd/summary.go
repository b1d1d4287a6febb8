package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/collective-sim/collective-sim/sim/trace"
)

// printTraceSummary writes aggregate trace statistics with per-node counts
// in node order.
func printTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Sends / recvs       : %d / %d\n", ts.TotalSends, ts.TotalRecvs)
	fmt.Fprintf(w, "Bytes sent          : %d\n", ts.BytesSent)
	fmt.Fprintf(w, "Bundles local/net   : %d / %d\n", ts.LocalBundles, ts.NetworkBundles)
	fmt.Fprintf(w, "Recv wait (ticks)   : mean %.1f  max %d\n", ts.MeanRecvWait, ts.MaxRecvWait)
	fmt.Fprintf(w, "Streams finished    : %d\n", ts.StreamsDead)

	nodes := make([]int, 0, len(ts.SendsPerNode))
	for id := range ts.SendsPerNode {
		nodes = append(nodes, id)
	}
	sort.Ints(nodes)
	for _, id := range nodes {
		fmt.Fprintf(w, "  node %d: sent %d, received %d\n", id, ts.SendsPerNode[id], ts.RecvsPerNode[id])
	}
}
