package trace

// TraceLevel controls the verbosity of packet tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelPackets captures every send, receive, bundle and stream change.
	TraceLevelPackets TraceLevel = "packets"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelPackets: true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects packet records during a collective run.
type SimulationTrace struct {
	Config  TraceConfig    `json:"-" msgpack:"-"`
	RunID   string         `json:"run_id" msgpack:"run_id"`
	Sends   []SendRecord   `json:"sends" msgpack:"sends"`
	Recvs   []RecvRecord   `json:"recvs" msgpack:"recvs"`
	Bundles []BundleRecord `json:"bundles" msgpack:"bundles"`
	Streams []StreamRecord `json:"streams" msgpack:"streams"`
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Sends:   make([]SendRecord, 0),
		Recvs:   make([]RecvRecord, 0),
		Bundles: make([]BundleRecord, 0),
		Streams: make([]StreamRecord, 0),
	}
}

// RecordSend appends a send record.
func (st *SimulationTrace) RecordSend(record SendRecord) {
	st.Sends = append(st.Sends, record)
}

// RecordRecv appends a receive record.
func (st *SimulationTrace) RecordRecv(record RecvRecord) {
	st.Recvs = append(st.Recvs, record)
}

// RecordBundle appends a bundle record.
func (st *SimulationTrace) RecordBundle(record BundleRecord) {
	st.Bundles = append(st.Bundles, record)
}

// RecordStream appends a stream lifecycle record.
func (st *SimulationTrace) RecordStream(record StreamRecord) {
	st.Streams = append(st.Streams, record)
}
