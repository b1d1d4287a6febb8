package collective

// RequestKind distinguishes send and receive requests.
type RequestKind string

const (
	RequestSend RequestKind = "send"
	RequestRecv RequestKind = "recv"
)

// Request is the handle returned for an issued send or receive.
type Request struct {
	ID             uint64
	Kind           RequestKind
	Src            int
	Dst            int
	Size           uint64
	Tag            int
	VirtualChannel int
}

// Handler receives scheduler events. Algorithm implements it; bundles carry
// one so the transport can signal freed slots.
type Handler interface {
	Run(event EventType)
}

// Owner is the node-side transport boundary an Algorithm drives.
//
// Recv must never invoke onComplete synchronously: completions are delivered
// by the scheduler as their own events. A src of topology.NoNode denotes a
// receive with no remote peer (mesh boundary) that completes locally.
type Owner interface {
	ID() int
	Send(dst int, size uint64, tag, vc int) Request
	Recv(src int, size uint64, tag, vc int, onComplete func()) Request
	DeliverBundle(b *Bundle)
	AdvanceStream(s *Stream)
}
