package collective

import "fmt"

// StreamState is the lifecycle state of a stream.
type StreamState string

const (
	StateCreated   StreamState = "created"
	StateReady     StreamState = "ready"
	StateExecuting StreamState = "executing"
	StateZombie    StreamState = "zombie"
	StateDead      StreamState = "dead"
)

// legalTransitions lists where each state may go. Zombie -> Ready re-arms a
// stream for its next dimension. Zombie and Dead may be forced from any live
// state.
var legalTransitions = map[StreamState]map[StreamState]bool{
	StateCreated:   {StateReady: true, StateExecuting: true, StateZombie: true, StateDead: true},
	StateReady:     {StateExecuting: true, StateZombie: true, StateDead: true},
	StateExecuting: {StateZombie: true, StateDead: true},
	StateZombie:    {StateReady: true, StateDead: true},
	StateDead:      {},
}

// Stream is the logical unit of one collective invocation's progress
// through its dimension sequence on one node. The Algorithm reads and
// writes State; the Owner finishes it.
type Stream struct {
	ID             int         // also the message tag
	State          StreamState // created, ready, executing, zombie, dead
	CurrentQueueID int         // virtual channel of the current phase
	Owner          Owner
}

// NewStream creates a stream in the Created state.
func NewStream(id, queueID int, owner Owner) *Stream {
	return &Stream{
		ID:             id,
		State:          StateCreated,
		CurrentQueueID: queueID,
		Owner:          owner,
	}
}

// ChangeState moves the stream to next. Re-entering the current state is a
// no-op. Panics on any transition out of Dead or any other illegal move.
func (s *Stream) ChangeState(next StreamState) {
	if s.State == next {
		return
	}
	if !legalTransitions[s.State][next] {
		panic(fmt.Sprintf("ChangeState: stream %d cannot move from %s to %s", s.ID, s.State, next))
	}
	s.State = next
}

func (s Stream) String() string {
	return fmt.Sprintf("Stream: (ID: %d, State: %s, Queue: %d)", s.ID, s.State, s.CurrentQueueID)
}
