package topology

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Config selects the addressing scheme and role of a basic topology.
// Dims optionally fixes a row-major shape; when empty, Local and NA roles
// are one-dimensional and Horizontal/Vertical mesh or torus roles are square.
type Config struct {
	Kind Kind
	Role Dimension
	Dims []int
}

// Basic is one addressing dimension: a ring, an N-D mesh or an N-D torus,
// as seen from one node. It is immutable after construction.
type Basic struct {
	kind      Kind
	role      Dimension
	selfID    int
	selfIndex int
	offset    int
	mapping   Mapping
	dims      []int
}

// New builds a basic topology over an explicit, ordered node set. selfID
// must be a member.
func New(cfg Config, selfID int, npus []int, logger logrus.FieldLogger) (*Basic, error) {
	mapping, err := NewMapping(npus)
	if err != nil {
		return nil, fmt.Errorf("%s topology: %w", cfg.Kind, err)
	}
	b, err := newBasic(cfg, selfID, mapping, -1)
	if err != nil {
		return nil, err
	}
	sinkOrNop(logger).WithFields(logrus.Fields{
		"node":      selfID,
		"kind":      cfg.Kind.String(),
		"dimension": cfg.Role.String(),
	}).Debugf("custom %s, total nodes: %d, index: %d, dims: %v", cfg.Kind, mapping.Len(), b.selfIndex, b.dims)
	return b, nil
}

// NewHomogeneous builds a basic topology whose members are spaced offset
// apart in numeric id, knowing only that selfID sits at index.
func NewHomogeneous(cfg Config, selfID, total, index, offset int, logger logrus.FieldLogger) (*Basic, error) {
	mapping, err := HomogeneousMapping(total, selfID, index, offset)
	if err != nil {
		return nil, fmt.Errorf("%s topology at node %d: %w", cfg.Kind, selfID, err)
	}
	b, err := newBasic(cfg, selfID, mapping, offset)
	if err != nil {
		return nil, err
	}
	if selfID == 0 {
		sinkOrNop(logger).WithFields(logrus.Fields{
			"node":      selfID,
			"kind":      cfg.Kind.String(),
			"dimension": cfg.Role.String(),
		}).Debugf("%s of node 0, total nodes: %d, index: %d, offset: %d", cfg.Kind, total, index, offset)
	}
	return b, nil
}

func newBasic(cfg Config, selfID int, mapping Mapping, offset int) (*Basic, error) {
	selfIndex, ok := mapping.IndexOf(selfID)
	if !ok {
		return nil, fmt.Errorf("%s topology: node %d: %w", cfg.Kind, selfID, ErrNotMember)
	}
	dims, err := resolveDims(cfg, mapping.Len())
	if err != nil {
		return nil, err
	}
	return &Basic{
		kind:      cfg.Kind,
		role:      cfg.Role,
		selfID:    selfID,
		selfIndex: selfIndex,
		offset:    offset,
		mapping:   mapping,
		dims:      dims,
	}, nil
}

func resolveDims(cfg Config, n int) ([]int, error) {
	if len(cfg.Dims) > 0 {
		if cfg.Kind == Ring && len(cfg.Dims) != 1 {
			return nil, fmt.Errorf("%w: ring must be one-dimensional, got dims %v", ErrShapeMismatch, cfg.Dims)
		}
		product := 1
		for _, d := range cfg.Dims {
			if d < 1 {
				return nil, fmt.Errorf("%w: non-positive extent in %v", ErrShapeMismatch, cfg.Dims)
			}
			product *= d
		}
		if product != n {
			return nil, fmt.Errorf("%w: dims %v cover %d nodes, have %d", ErrShapeMismatch, cfg.Dims, product, n)
		}
		return append([]int(nil), cfg.Dims...), nil
	}
	if cfg.Kind != Ring && (cfg.Role == Horizontal || cfg.Role == Vertical) {
		side := isqrt(n)
		if side*side != n {
			return nil, fmt.Errorf("%w: %s role needs a square node count, have %d", ErrShapeMismatch, cfg.Role, n)
		}
		return []int{side, side}, nil
	}
	return []int{n}, nil
}

func isqrt(n int) int {
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

func (b *Basic) Kind() Kind { return b.kind }
func (b *Basic) Role() Dimension { return b.role }
func (b *Basic) ID() int { return b.selfID }
func (b *Basic) Index() int { return b.selfIndex }
func (b *Basic) Offset() int { return b.offset }
func (b *Basic) TotalNodes() int { return b.mapping.Len() }
func (b *Basic) NumAxes() int { return len(b.dims) }
func (b *Basic) Members() []int { return b.mapping.IDs() }
func (b *Basic) IDAt(index int) int { return b.mapping.IDAt(index) }
func (b *Basic) NumDimensions() int { return 1 }
func (b *Basic) NodesInDimension(int) int { return b.mapping.Len() }

// At returns b for dimension 0 and nil otherwise.
func (b *Basic) At(dim int) *Basic {
	if dim != 0 {
		return nil
	}
	return b
}

// Dims returns the row-major axis extents.
func (b *Basic) Dims() []int {
	return append([]int(nil), b.dims...)
}

// NodesPerAxis is the largest axis extent. For a one-dimensional topology
// it equals TotalNodes.
func (b *Basic) NodesPerAxis() int {
	m := 0
	for _, d := range b.dims {
		if d > m {
			m = d
		}
	}
	return m
}

// IndexOf returns the linear index of id.
func (b *Basic) IndexOf(id int) (int, bool) {
	return b.mapping.IndexOf(id)
}

// Coordinates returns the row-major coordinates of id. Panics when id is
// not a member.
func (b *Basic) Coordinates(id int) []int {
	return b.coords(b.mustIndex(id, "Coordinates"))
}

// IsEnabled reports whether walking back index steps of offset from this
// node's numeric id lands exactly on node 0. Only meaningful for topologies
// built with NewHomogeneous; panics otherwise.
func (b *Basic) IsEnabled() bool {
	if b.offset <= 0 {
		panic(fmt.Sprintf("IsEnabled: %s topology of node %d has no positive offset", b.kind, b.selfID))
	}
	id := b.selfID
	for i := b.selfIndex; i > 0; i-- {
		id -= b.offset
	}
	return id == 0
}

// Receivers returns the nodes id sends to in direction, one per axis that
// has a neighbor.
func (b *Basic) Receivers(id int, direction Direction) []int {
	return compact(b.AxisReceivers(id, direction))
}

// Senders returns the nodes id receives from in direction, one per axis
// that has a neighbor.
func (b *Basic) Senders(id int, direction Direction) []int {
	return compact(b.AxisSenders(id, direction))
}

// AxisReceivers returns one entry per axis: the neighbor id sends to along
// that axis in direction, or NoNode.
func (b *Basic) AxisReceivers(id int, direction Direction) []int {
	step := 1
	if direction == Anticlockwise {
		step = -1
	}
	return b.axisNeighbors(b.mustIndex(id, "Receivers"), step)
}

// AxisSenders returns one entry per axis: the neighbor id receives from
// along that axis in direction, or NoNode.
func (b *Basic) AxisSenders(id int, direction Direction) []int {
	step := -1
	if direction == Anticlockwise {
		step = 1
	}
	return b.axisNeighbors(b.mustIndex(id, "Senders"), step)
}

func (b *Basic) mustIndex(id int, op string) int {
	idx, ok := b.mapping.IndexOf(id)
	if !ok {
		panic(fmt.Sprintf("%s: node %d: %v (%s topology of node %d)", op, id, ErrNotMember, b.kind, b.selfID))
	}
	return idx
}

func (b *Basic) axisNeighbors(index, step int) []int {
	coords := b.coords(index)
	out := make([]int, len(b.dims))
	for axis := range b.dims {
		out[axis] = NoNode
		extent := b.dims[axis]
		if extent <= 1 {
			continue
		}
		next := coords[axis] + step
		switch b.kind {
		case Mesh:
			if next < 0 || next >= extent {
				continue
			}
		default:
			next = (next + extent) % extent
		}
		shifted := append([]int(nil), coords...)
		shifted[axis] = next
		out[axis] = b.mapping.IDAt(b.linear(shifted))
	}
	return out
}

func (b *Basic) coords(index int) []int {
	c := make([]int, len(b.dims))
	for d := len(b.dims) - 1; d >= 0; d-- {
		c[d] = index % b.dims[d]
		index /= b.dims[d]
	}
	return c
}

func (b *Basic) linear(coords []int) int {
	idx := 0
	for d, c := range coords {
		idx = idx*b.dims[d] + c
	}
	return idx
}

func compact(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != NoNode {
			out = append(out, id)
		}
	}
	return out
}
