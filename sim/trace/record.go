// Package trace provides packet-trace recording for collective runs.
// This package has no dependencies on sim/ or sim/cluster/ — it stores pure data types.
package trace

// SendRecord captures one message handed to the network.
type SendRecord struct {
	Clock          int64  `json:"clock" msgpack:"clock"`
	Src            int    `json:"src" msgpack:"src"`
	Dst            int    `json:"dst" msgpack:"dst"`
	Size           uint64 `json:"size" msgpack:"size"`
	Tag            int    `json:"tag" msgpack:"tag"`
	VirtualChannel int    `json:"vc" msgpack:"vc"`
	ArrivesAt      int64  `json:"arrives_at" msgpack:"arrives_at"`
}

// RecvRecord captures one completed receive.
type RecvRecord struct {
	Clock          int64  `json:"clock" msgpack:"clock"`
	Node           int    `json:"node" msgpack:"node"`
	Src            int    `json:"src" msgpack:"src"` // -1 for a boundary receive with no peer
	Size           uint64 `json:"size" msgpack:"size"`
	Tag            int    `json:"tag" msgpack:"tag"`
	VirtualChannel int    `json:"vc" msgpack:"vc"`
	Waited         int64  `json:"waited" msgpack:"waited"` // ticks between posting and completion
}

// BundleRecord captures one window flushed by an algorithm.
type BundleRecord struct {
	Clock        int64  `json:"clock" msgpack:"clock"`
	Node         int    `json:"node" msgpack:"node"`
	Stream       int    `json:"stream" msgpack:"stream"`
	Packets      int    `json:"packets" msgpack:"packets"`
	Route        string `json:"route" msgpack:"route"`
	Transmission string `json:"transmission" msgpack:"transmission"`
	Processed    bool   `json:"processed" msgpack:"processed"`
	SendBack     bool   `json:"send_back" msgpack:"send_back"`
}

// StreamRecord captures a stream lifecycle change on a node.
type StreamRecord struct {
	Clock  int64  `json:"clock" msgpack:"clock"`
	Node   int    `json:"node" msgpack:"node"`
	Stream int    `json:"stream" msgpack:"stream"`
	Phase  int    `json:"phase" msgpack:"phase"`
	State  string `json:"state" msgpack:"state"`
}
