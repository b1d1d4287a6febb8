package collective

import "fmt"

// MessageSizes partitions dataSize over k nodes of a dimension and returns
// the per-packet size and the total size left on each node when the
// dimension completes. Only All-Reduce halves its packets when
// bidirectional, since each direction then carries half the reduction.
func MessageSizes(t ComType, dataSize uint64, k int, bidirectional bool) (msgSize, finalDataSize uint64, err error) {
	if k < 1 {
		return 0, 0, fmt.Errorf("message sizes: node count must be >= 1, got %d", k)
	}
	n := uint64(k)
	switch t {
	case AllReduce:
		if bidirectional {
			return dataSize / n / 2, dataSize, nil
		}
		return dataSize / n, dataSize, nil
	case AllGather:
		return dataSize, dataSize * n, nil
	case ReduceScatter:
		return dataSize / n, dataSize / n, nil
	case AllToAll:
		return dataSize / n, dataSize, nil
	default:
		return 0, 0, fmt.Errorf("message sizes: unsupported collective %s", t)
	}
}

// RoundCounts returns the number of rounds, flush windows and concurrent
// injections for a dimension of k nodes.
//
// All-Gather and Reduce-Scatter share ceil((k*k-1)/2) rounds.
func RoundCounts(t ComType, k int, policy InjectionPolicy) (streamCount, maxCount, parallelReduce int, err error) {
	if k < 1 {
		return 0, 0, 0, fmt.Errorf("round counts: node count must be >= 1, got %d", k)
	}
	parallelReduce = 1
	switch t {
	case AllReduce:
		streamCount = 4 * (k - 1)
	case AllToAll:
		streamCount = (k*k - 1) * k / 2
		if policy == Aggressive && k > 1 {
			parallelReduce = k - 1
		}
	case AllGather, ReduceScatter:
		streamCount = (k*k - 1 + 1) / 2
	default:
		return 0, 0, 0, fmt.Errorf("round counts: unsupported collective %s", t)
	}
	if t != AllToAll && t != AllGather {
		maxCount = k - 1
	}
	return streamCount, maxCount, parallelReduce, nil
}
