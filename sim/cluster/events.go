package cluster

import "github.com/collective-sim/collective-sim/sim/collective"

// EventType identifies the kind of a cluster event.
type EventType string

const (
	EventTypeMessageArrival EventType = "MessageArrival"
	EventTypeRecvComplete   EventType = "RecvComplete"
	EventTypeGeneral        EventType = "General"
	EventTypeStreamStart    EventType = "StreamStart"
)

// EventTypePriority defines ordering for simultaneous events.
// Lower values are processed first: arrivals land before the receives they
// satisfy complete, and freed slots are handed out before new phases start.
var EventTypePriority = map[EventType]int{
	EventTypeMessageArrival: 1,
	EventTypeRecvComplete:   2,
	EventTypeGeneral:        3,
	EventTypeStreamStart:    4,
}

// Event is one scheduled action on the simulated clock.
type Event interface {
	Timestamp() int64
	EventID() uint64
	Type() EventType
	Execute(sim *Simulator)
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	timestamp int64
	eventID   uint64
	eventType EventType
}

func newBaseEvent(timestamp int64, eventType EventType, eventID uint64) BaseEvent {
	return BaseEvent{
		timestamp: timestamp,
		eventID:   eventID,
		eventType: eventType,
	}
}

func (e *BaseEvent) Timestamp() int64 {
	return e.timestamp
}

func (e *BaseEvent) EventID() uint64 {
	return e.eventID
}

func (e *BaseEvent) Type() EventType {
	return e.eventType
}

// message is one payload in flight between two nodes.
type message struct {
	src, dst int
	size     uint64
	tag, vc  int
	sentAt   int64
}

// MessageArrivalEvent delivers a message to its destination node.
type MessageArrivalEvent struct {
	BaseEvent
	msg message
}

func NewMessageArrivalEvent(timestamp int64, msg message, eventID uint64) *MessageArrivalEvent {
	return &MessageArrivalEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeMessageArrival, eventID),
		msg:       msg,
	}
}

func (e *MessageArrivalEvent) Execute(sim *Simulator) {
	sim.nodes[e.msg.dst].handleArrival(e.msg)
}

// RecvCompleteEvent fires the completion callback of a matched receive.
type RecvCompleteEvent struct {
	BaseEvent
	node *Node
	recv *pendingRecv
}

func NewRecvCompleteEvent(timestamp int64, node *Node, recv *pendingRecv, eventID uint64) *RecvCompleteEvent {
	return &RecvCompleteEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeRecvComplete, eventID),
		node:      node,
		recv:      recv,
	}
}

func (e *RecvCompleteEvent) Execute(sim *Simulator) {
	e.node.completeRecv(e.recv)
}

// GeneralEvent tells an algorithm that one of its bundles was delivered and
// a transport slot is free again.
type GeneralEvent struct {
	BaseEvent
	handler collective.Handler
}

func NewGeneralEvent(timestamp int64, handler collective.Handler, eventID uint64) *GeneralEvent {
	return &GeneralEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeGeneral, eventID),
		handler:   handler,
	}
}

func (e *GeneralEvent) Execute(sim *Simulator) {
	e.handler.Run(collective.General)
}

// StreamStartEvent starts the current phase of a stream on its node.
type StreamStartEvent struct {
	BaseEvent
	run *streamRun
}

func NewStreamStartEvent(timestamp int64, run *streamRun, eventID uint64) *StreamStartEvent {
	return &StreamStartEvent{
		BaseEvent: newBaseEvent(timestamp, EventTypeStreamStart, eventID),
		run:       run,
	}
}

func (e *StreamStartEvent) Execute(sim *Simulator) {
	e.run.node.startPhase(e.run)
}
