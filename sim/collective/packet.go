package collective

// Packet is one sender->receiver exchange of a stream along one axis.
// Src or Dest is topology.NoNode where a mesh boundary removes that side.
type Packet struct {
	StreamID       int
	VirtualChannel int
	Src            int
	Dest           int
	Processed      bool // result is reduced on arrival
	SendBack       bool // result is forwarded onward
	LocalDelivery  bool // delivered on the node-side path
}

// flight is the unit queued by one injection: one packet per axis that has
// a neighbor on either side.
type flight struct {
	seq     int
	packets []Packet
}

// Bundle is one window of packets handed to the transport together.
type Bundle struct {
	Stream       *Stream
	Packets      []Packet
	Processed    bool
	SendBack     bool
	MsgSize      uint64
	Transmission Transmission
	Route        Route
	Notifier     Handler // receives General once the bundle is delivered
}
