// Package topology maps opaque node identifiers onto structured coordinates
// and answers directional neighbor queries for ring, mesh, torus and
// dimension-composed logical topologies.
//
// Every query assumes the topology was built with its full participant set:
// asking about a node that is not a member panics.
package topology

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// NoNode marks an axis on which a node has no neighbor (mesh boundary or an
// axis of extent one).
const NoNode = -1

var (
	// ErrNotMember is returned (or panicked with) when a node id is not part of a topology.
	ErrNotMember = errors.New("node is not a member of the topology")
	// ErrInvalidOffset is returned when a homogeneous topology is built with a non-positive offset.
	ErrInvalidOffset = errors.New("homogeneous topology requires a positive offset")
	// ErrShapeMismatch is returned when the requested axis extents do not cover the node set.
	ErrShapeMismatch = errors.New("topology shape does not match node count")
)

// Direction selects which way along the topology a collective advances.
type Direction int

const (
	Clockwise Direction = iota
	Anticlockwise
)

// Reverse returns the opposing direction.
func (d Direction) Reverse() Direction {
	if d == Clockwise {
		return Anticlockwise
	}
	return Clockwise
}

func (d Direction) String() string {
	if d == Clockwise {
		return "clockwise"
	}
	return "anticlockwise"
}

// Dimension tags the role a topology plays in the system. It is used for
// bookkeeping and transport-speed selection only, never for addressing.
type Dimension int

const (
	Local Dimension = iota
	Vertical
	Horizontal
	NA
)

func (d Dimension) String() string {
	switch d {
	case Local:
		return "local"
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return "na"
	}
}

// Kind is the addressing scheme of a basic topology.
type Kind int

const (
	Ring Kind = iota
	Mesh
	Torus
)

func (k Kind) String() string {
	switch k {
	case Ring:
		return "ring"
	case Mesh:
		return "mesh"
	case Torus:
		return "torus"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a configuration name into a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "ring":
		return Ring, nil
	case "mesh":
		return Mesh, nil
	case "torus":
		return Torus, nil
	default:
		return 0, fmt.Errorf("unknown topology kind %q", name)
	}
}

// Complex is a possibly multi-dimensional logical topology. A Basic topology
// is a Complex with exactly one dimension.
type Complex interface {
	NumDimensions() int
	NodesInDimension(dim int) int
	At(dim int) *Basic
}

// NopLogger returns a logger that discards everything. Constructors fall
// back to it when given a nil sink.
func NopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

func sinkOrNop(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return NopLogger()
	}
	return logger
}
