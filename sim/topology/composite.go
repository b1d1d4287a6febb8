package topology

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Composite exposes several independent basic topologies, all seen from
// the same node, as one multi-dimensional topology.
type Composite struct {
	dims []*Basic
}

// NewComposite joins per-dimension topologies. All of them must belong to
// the same node.
func NewComposite(dims ...*Basic) (*Composite, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("composite topology: no dimensions")
	}
	for i, d := range dims {
		if d == nil {
			return nil, fmt.Errorf("composite topology: dimension %d is nil", i)
		}
		if d.ID() != dims[0].ID() {
			return nil, fmt.Errorf("composite topology: dimension %d belongs to node %d, dimension 0 to node %d",
				i, d.ID(), dims[0].ID())
		}
	}
	return &Composite{dims: append([]*Basic(nil), dims...)}, nil
}

// NewHierarchical builds the dimension-composed topology of a homogeneous
// system of prod(sizes) nodes numbered so that dimension i has stride
// prod(sizes[:i]). sizes = [local, total/local] is the two-tier local ring
// by global ring arrangement.
func NewHierarchical(selfID int, kinds []Kind, sizes []int, logger logrus.FieldLogger) (*Composite, error) {
	if len(kinds) != len(sizes) {
		return nil, fmt.Errorf("hierarchical topology: %d kinds for %d sizes", len(kinds), len(sizes))
	}
	total := 1
	for _, s := range sizes {
		if s < 1 {
			return nil, fmt.Errorf("%w: non-positive dimension size in %v", ErrShapeMismatch, sizes)
		}
		total *= s
	}
	if selfID < 0 || selfID >= total {
		return nil, fmt.Errorf("hierarchical topology: node %d outside [0,%d): %w", selfID, total, ErrNotMember)
	}
	dims := make([]*Basic, len(sizes))
	stride := 1
	for i, size := range sizes {
		index := (selfID / stride) % size
		cfg := Config{Kind: kinds[i], Role: roleForTier(i), Dims: []int{size}}
		b, err := NewHomogeneous(cfg, selfID, size, index, stride, logger)
		if err != nil {
			return nil, fmt.Errorf("hierarchical topology dimension %d: %w", i, err)
		}
		dims[i] = b
		stride *= size
	}
	return NewComposite(dims...)
}

func roleForTier(i int) Dimension {
	switch i {
	case 0:
		return Local
	case 1:
		return Horizontal
	case 2:
		return Vertical
	default:
		return NA
	}
}

func (c *Composite) NumDimensions() int { return len(c.dims) }

// NodesInDimension returns the node count of dimension dim, or -1 when dim
// is out of range.
func (c *Composite) NodesInDimension(dim int) int {
	b := c.At(dim)
	if b == nil {
		return -1
	}
	return b.TotalNodes()
}

// At returns the basic topology of dimension dim, or nil when out of range.
func (c *Composite) At(dim int) *Basic {
	if dim < 0 || dim >= len(c.dims) {
		return nil
	}
	return c.dims[dim]
}
