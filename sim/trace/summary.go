package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalSends     int
	TotalRecvs     int
	TotalBundles   int
	BytesSent      uint64
	LocalBundles   int
	NetworkBundles int
	MeanRecvWait   float64
	MaxRecvWait    int64
	StreamsDead    int
	SendsPerNode   map[int]int // source node → messages sent
	RecvsPerNode   map[int]int // receiving node → receives completed
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		SendsPerNode: make(map[int]int),
		RecvsPerNode: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalSends = len(st.Sends)
	for _, s := range st.Sends {
		summary.BytesSent += s.Size
		summary.SendsPerNode[s.Src]++
	}

	if len(st.Recvs) > 0 {
		var totalWait int64
		for _, r := range st.Recvs {
			summary.RecvsPerNode[r.Node]++
			totalWait += r.Waited
			if r.Waited > summary.MaxRecvWait {
				summary.MaxRecvWait = r.Waited
			}
		}
		summary.TotalRecvs = len(st.Recvs)
		summary.MeanRecvWait = float64(totalWait) / float64(len(st.Recvs))
	}

	summary.TotalBundles = len(st.Bundles)
	for _, b := range st.Bundles {
		if b.Route == "local" {
			summary.LocalBundles++
		} else {
			summary.NetworkBundles++
		}
	}

	for _, s := range st.Streams {
		if s.State == "dead" {
			summary.StreamsDead++
		}
	}

	return summary
}
