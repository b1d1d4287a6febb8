package trace

import (
	"bytes"
	"testing"
)

func TestSimulationTrace_RecordSend_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for packets
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelPackets})

	// WHEN a send record is recorded
	st.RecordSend(SendRecord{Clock: 1000, Src: 0, Dst: 1, Size: 256, Tag: 7, ArrivesAt: 1510})

	// THEN the trace contains one send record with correct data
	if len(st.Sends) != 1 {
		t.Fatalf("expected 1 send, got %d", len(st.Sends))
	}
	if st.Sends[0].Dst != 1 || st.Sends[0].ArrivesAt != 1510 {
		t.Errorf("unexpected record %+v", st.Sends[0])
	}
}

func TestSimulationTrace_RecordsKeepOrder(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelPackets})
	for i := 0; i < 3; i++ {
		st.RecordRecv(RecvRecord{Clock: int64(i * 10), Node: i})
		st.RecordBundle(BundleRecord{Clock: int64(i * 10), Node: i, Route: "network"})
		st.RecordStream(StreamRecord{Clock: int64(i * 10), Node: i, State: "executing"})
	}
	for i := 0; i < 3; i++ {
		if st.Recvs[i].Node != i || st.Bundles[i].Node != i || st.Streams[i].Node != i {
			t.Errorf("record %d out of order", i)
		}
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"", true},
		{"none", true},
		{"packets", true},
		{"decisions", false},
		{"all", false},
	}
	for _, tc := range tests {
		if got := IsValidTraceLevel(tc.level); got != tc.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tc.level, got, tc.valid)
		}
	}
}

func sampleTrace() *SimulationTrace {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelPackets})
	st.RunID = "run-1"
	st.RecordSend(SendRecord{Clock: 5, Src: 0, Dst: 1, Size: 64, Tag: 1000000, VirtualChannel: 0, ArrivesAt: 9})
	st.RecordRecv(RecvRecord{Clock: 9, Node: 1, Src: 0, Size: 64, Tag: 1000000, Waited: 4})
	st.RecordBundle(BundleRecord{Clock: 5, Node: 0, Stream: 1000000, Packets: 1, Route: "local", Transmission: "fast"})
	st.RecordStream(StreamRecord{Clock: 20, Node: 1, Stream: 1000000, Phase: 0, State: "dead"})
	return st
}

func TestExport_RoundTripsEveryFormatAndCompression(t *testing.T) {
	for _, format := range []string{"json", "msgpack"} {
		for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
			// GIVEN a populated trace
			st := sampleTrace()

			// WHEN it is exported and loaded back with the same settings
			var buf bytes.Buffer
			if err := Export(&buf, st, format, c); err != nil {
				t.Fatalf("%s/%s: export: %v", format, c, err)
			}
			got, err := Load(&buf, format, c)
			if err != nil {
				t.Fatalf("%s/%s: load: %v", format, c, err)
			}

			// THEN the records survive
			if got.RunID != "run-1" || len(got.Sends) != 1 || len(got.Recvs) != 1 || len(got.Bundles) != 1 || len(got.Streams) != 1 {
				t.Errorf("%s/%s: lost records: %+v", format, c, got)
			}
			if got.Sends[0] != st.Sends[0] {
				t.Errorf("%s/%s: send = %+v, want %+v", format, c, got.Sends[0], st.Sends[0])
			}
		}
	}
}

func TestExport_CompressedOutputIsNotPlainJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleTrace(), "json", CompressionZstd); err != nil {
		t.Fatal(err)
	}
	if bytes.HasPrefix(buf.Bytes(), []byte("{")) {
		t.Error("zstd output starts with a JSON brace")
	}
}

func TestExport_RejectsUnknownSettings(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleTrace(), "xml", CompressionNone); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := Export(&buf, sampleTrace(), "json", Compression("lz4")); err == nil {
		t.Error("expected error for unknown compression")
	}
}
