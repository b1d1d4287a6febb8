package topology

import "fmt"

// Mapping is a bijection between node ids and the linear indices
// 0..Len()-1 of a topology.
type Mapping struct {
	idToIndex map[int]int
	indexToID []int
}

// NewMapping builds a mapping that assigns index i to npus[i].
// Ids must be non-negative and distinct.
func NewMapping(npus []int) (Mapping, error) {
	if len(npus) == 0 {
		return Mapping{}, fmt.Errorf("mapping: empty node set")
	}
	m := Mapping{
		idToIndex: make(map[int]int, len(npus)),
		indexToID: make([]int, len(npus)),
	}
	for i, id := range npus {
		if id < 0 {
			return Mapping{}, fmt.Errorf("mapping: negative node id %d", id)
		}
		if _, dup := m.idToIndex[id]; dup {
			return Mapping{}, fmt.Errorf("mapping: duplicate node id %d", id)
		}
		m.idToIndex[id] = i
		m.indexToID[i] = id
	}
	return m, nil
}

// HomogeneousMapping computes the bijection of a ring whose members are
// spaced offset apart, given that startID sits at startIndex. It is the
// closed form of walking the clockwise neighbor total-1 times from startID:
// index i holds startID + (i-startIndex)*offset.
func HomogeneousMapping(total, startID, startIndex, offset int) (Mapping, error) {
	if offset <= 0 {
		return Mapping{}, fmt.Errorf("%w: got %d", ErrInvalidOffset, offset)
	}
	if total < 1 {
		return Mapping{}, fmt.Errorf("homogeneous mapping: total nodes must be >= 1, got %d", total)
	}
	if startIndex < 0 || startIndex >= total {
		return Mapping{}, fmt.Errorf("homogeneous mapping: index %d out of range [0,%d)", startIndex, total)
	}
	base := startID - startIndex*offset
	if base < 0 {
		return Mapping{}, fmt.Errorf("homogeneous mapping: node %d at index %d with offset %d wraps to negative id %d",
			startID, startIndex, offset, base)
	}
	ids := make([]int, total)
	for i := range ids {
		ids[i] = base + i*offset
	}
	return NewMapping(ids)
}

// Len returns the number of mapped nodes.
func (m Mapping) Len() int {
	return len(m.indexToID)
}

// IndexOf returns the linear index of id.
func (m Mapping) IndexOf(id int) (int, bool) {
	idx, ok := m.idToIndex[id]
	return idx, ok
}

// IDAt returns the node id at a linear index. Panics when out of range.
func (m Mapping) IDAt(index int) int {
	return m.indexToID[index]
}

// IDs returns the node ids in index order.
func (m Mapping) IDs() []int {
	out := make([]int, len(m.indexToID))
	copy(out, m.indexToID)
	return out
}
