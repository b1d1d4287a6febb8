package trace

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes a trace into bytes and back.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
	Name() string
}

// Compression names a compression applied after encoding.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// JSONCodec writes indented JSON.
type JSONCodec struct{}

func (JSONCodec) Encode(v interface{}) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }

func (JSONCodec) Decode(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func (JSONCodec) Name() string { return "json" }

// MsgPackCodec writes MessagePack.
type MsgPackCodec struct{}

func (MsgPackCodec) Encode(v interface{}) ([]byte, error) { return msgpack.Marshal(v) }

func (MsgPackCodec) Decode(data []byte, v interface{}) error { return msgpack.Unmarshal(data, v) }

func (MsgPackCodec) Name() string { return "msgpack" }

// CodecFor returns the codec for a format name; "" selects JSON.
func CodecFor(format string) (Codec, error) {
	switch format {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgPackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown trace format %q", format)
	}
}

// Export encodes st with the named format and compression and writes it to w.
func Export(w io.Writer, st *SimulationTrace, format string, compression Compression) error {
	codec, err := CodecFor(format)
	if err != nil {
		return err
	}
	data, err := codec.Encode(st)
	if err != nil {
		return fmt.Errorf("encoding trace as %s: %w", codec.Name(), err)
	}
	data, err = compress(data, compression)
	if err != nil {
		return fmt.Errorf("compressing trace with %s: %w", compression, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// Load reads a trace previously written by Export with the same settings.
func Load(r io.Reader, format string, compression Compression) (*SimulationTrace, error) {
	codec, err := CodecFor(format)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	data, err = decompress(data, compression)
	if err != nil {
		return nil, fmt.Errorf("decompressing trace with %s: %w", compression, err)
	}
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelPackets})
	if err := codec.Decode(data, st); err != nil {
		return nil, fmt.Errorf("decoding trace as %s: %w", codec.Name(), err)
	}
	return st, nil
}

func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case "", CompressionNone:
		return data, nil
	case CompressionGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}

func decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case "", CompressionNone:
		return data, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}
