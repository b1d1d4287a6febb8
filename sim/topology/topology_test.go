package topology

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(start, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = start + i
	}
	return ids
}

func mustNew(t *testing.T, cfg Config, self int, npus []int) *Basic {
	t.Helper()
	b, err := New(cfg, self, npus, nil)
	require.NoError(t, err)
	return b
}

func contains(ids []int, id int) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func TestParseKind(t *testing.T) {
	for name, want := range map[string]Kind{"ring": Ring, "Mesh": Mesh, "TORUS": Torus} {
		got, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("hypercube")
	assert.Error(t, err)
}

func TestDirection_Reverse(t *testing.T) {
	assert.Equal(t, Anticlockwise, Clockwise.Reverse())
	assert.Equal(t, Clockwise, Anticlockwise.Reverse())
}

func TestRing_OneNeighborPerCall_AndWraps(t *testing.T) {
	// GIVEN a ring over non-contiguous ids
	npus := []int{7, 3, 11, 5, 2}
	b := mustNew(t, Config{Kind: Ring, Role: Local}, 3, npus)

	for _, id := range npus {
		for _, d := range []Direction{Clockwise, Anticlockwise} {
			assert.Len(t, b.Receivers(id, d), 1, "receivers of %d %s", id, d)
			assert.Len(t, b.Senders(id, d), 1, "senders of %d %s", id, d)
		}
	}

	// THEN following receivers N times returns to the start
	cur := 7
	for i := 0; i < len(npus); i++ {
		cur = b.Receivers(cur, Clockwise)[0]
	}
	assert.Equal(t, 7, cur)

	// AND the last member wraps to the first
	assert.Equal(t, []int{7}, b.Receivers(2, Clockwise))
	assert.Equal(t, []int{2}, b.Receivers(7, Anticlockwise))
}

func TestRing_ClockwiseAndAnticlockwiseAreInverses(t *testing.T) {
	npus := seq(0, 6)
	b := mustNew(t, Config{Kind: Ring, Role: Local}, 0, npus)
	for _, x := range npus {
		y := b.Receivers(x, Clockwise)[0]
		assert.Equal(t, []int{x}, b.Senders(y, Clockwise))
		assert.Equal(t, []int{x}, b.Receivers(y, Anticlockwise))
	}
}

func TestNeighbors_MutualInverseForEveryKind(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		n    int
	}{
		{"ring", Config{Kind: Ring, Role: Local}, 5},
		{"mesh-1d", Config{Kind: Mesh, Role: Local}, 5},
		{"torus-1d", Config{Kind: Torus, Role: Local}, 5},
		{"mesh-3x4", Config{Kind: Mesh, Dims: []int{3, 4}}, 12},
		{"torus-3x4", Config{Kind: Torus, Dims: []int{3, 4}}, 12},
		{"mesh-square", Config{Kind: Mesh, Role: Horizontal}, 16},
		{"torus-square", Config{Kind: Torus, Role: Vertical}, 9},
		{"torus-2x2x3", Config{Kind: Torus, Dims: []int{2, 2, 3}}, 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			npus := seq(100, tc.n)
			b := mustNew(t, tc.cfg, 100, npus)
			for _, d := range []Direction{Clockwise, Anticlockwise} {
				for _, x := range npus {
					for _, y := range npus {
						// y receives from x in d exactly when x sends to y in d.
						assert.Equal(t, contains(b.Receivers(x, d), y), contains(b.Senders(y, d), x),
							"x=%d y=%d d=%s", x, y, d)
					}
					// Receiving in one direction is sending in the other.
					assert.ElementsMatch(t, b.Receivers(x, d), b.Senders(x, d.Reverse()))
				}
			}
		})
	}
}

func TestMesh1D_IsALineWithoutWrap(t *testing.T) {
	b := mustNew(t, Config{Kind: Mesh, Role: Local}, 0, seq(0, 4))
	assert.Equal(t, []int{1}, b.Receivers(0, Clockwise))
	assert.Empty(t, b.Receivers(3, Clockwise))
	assert.Empty(t, b.Receivers(0, Anticlockwise))
	assert.Empty(t, b.Senders(0, Clockwise))
	assert.Equal(t, []int{2}, b.Senders(3, Clockwise))
}

func TestMesh2D_BoundariesDoNotWrap(t *testing.T) {
	// GIVEN a 3x3 mesh, ids equal to row-major indices
	b := mustNew(t, Config{Kind: Mesh, Dims: []int{3, 3}}, 0, seq(0, 9))

	// THEN the corner at (0,0) reaches down and right only
	assert.Equal(t, []int{3, 1}, b.Receivers(0, Clockwise))
	assert.Empty(t, b.Receivers(0, Anticlockwise))
	// AND the opposite corner reaches up and left only
	assert.Empty(t, b.Receivers(8, Clockwise))
	assert.Equal(t, []int{5, 7}, b.Receivers(8, Anticlockwise))
	// AND the per-axis view keeps the gaps
	assert.Equal(t, []int{NoNode, NoNode}, b.AxisSenders(0, Clockwise))
	assert.Equal(t, []int{NoNode, 7}, b.AxisReceivers(6, Clockwise))

	// Every corner has exactly two distinct neighbors.
	for _, corner := range []int{0, 2, 6, 8} {
		all := map[int]bool{}
		for _, d := range []Direction{Clockwise, Anticlockwise} {
			for _, id := range b.Receivers(corner, d) {
				all[id] = true
			}
		}
		assert.Len(t, all, 2, "corner %d", corner)
	}
	// The centre reaches one neighbor per axis in each direction.
	assert.Equal(t, []int{7, 5}, b.Receivers(4, Clockwise))
	assert.Equal(t, []int{1, 3}, b.Receivers(4, Anticlockwise))
}

func TestTorus2D_AlwaysTwoNeighborsPerDirection(t *testing.T) {
	npus := seq(10, 12)
	b := mustNew(t, Config{Kind: Torus, Dims: []int{3, 4}}, 10, npus)
	for _, id := range npus {
		for _, d := range []Direction{Clockwise, Anticlockwise} {
			assert.Len(t, b.Receivers(id, d), 2, "receivers of %d %s", id, d)
			assert.Len(t, b.Senders(id, d), 2, "senders of %d %s", id, d)
		}
	}
	// (2,3) wraps to (0,3) and (2,0)
	assert.Equal(t, []int{13, 18}, b.Receivers(21, Clockwise))
}

func TestSquareRole_DerivesSquareShape(t *testing.T) {
	b := mustNew(t, Config{Kind: Torus, Role: Horizontal}, 0, seq(0, 16))
	assert.Equal(t, []int{4, 4}, b.Dims())
	assert.Equal(t, 4, b.NodesPerAxis())
	assert.Equal(t, 16, b.TotalNodes())
	assert.Equal(t, []int{1, 2}, b.Coordinates(6))

	_, err := New(Config{Kind: Mesh, Role: Vertical}, 0, seq(0, 12), nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestExplicitDims_MustCoverNodeSet(t *testing.T) {
	_, err := New(Config{Kind: Torus, Dims: []int{3, 3}}, 0, seq(0, 8), nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	_, err = New(Config{Kind: Ring, Dims: []int{2, 4}}, 0, seq(0, 8), nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestNew_RejectsBadMembership(t *testing.T) {
	_, err := New(Config{Kind: Ring}, 9, seq(0, 4), nil)
	assert.True(t, errors.Is(err, ErrNotMember))
	_, err = New(Config{Kind: Ring}, 0, []int{0, 1, 1}, nil)
	assert.Error(t, err)
	_, err = New(Config{Kind: Ring}, 0, nil, nil)
	assert.Error(t, err)
}

func TestQuery_NonMemberPanics(t *testing.T) {
	b := mustNew(t, Config{Kind: Ring}, 0, seq(0, 4))
	assert.Panics(t, func() { b.Receivers(42, Clockwise) })
	assert.Panics(t, func() { b.Senders(-1, Anticlockwise) })
}

func TestMapping_IsABijection(t *testing.T) {
	npus := []int{4, 9, 1, 0}
	m, err := NewMapping(npus)
	require.NoError(t, err)
	for i, id := range npus {
		idx, ok := m.IndexOf(id)
		require.True(t, ok)
		assert.Equal(t, i, idx)
		assert.Equal(t, id, m.IDAt(idx))
	}
	assert.Equal(t, npus, m.IDs())
}

// legacyWalk rebuilds the mapping the way the stateful constructor did:
// start from one known node and step to the clockwise neighbor total-1 times.
func legacyWalk(total, id, index, offset int) map[int]int {
	idToIndex := map[int]int{id: index}
	for i := 0; i < total-1; i++ {
		receiver := id + offset
		if index == total-1 {
			receiver -= total * offset
			index = 0
		} else {
			index++
		}
		idToIndex[receiver] = index
		id = receiver
	}
	return idToIndex
}

func TestHomogeneousMapping_MatchesStatefulWalk(t *testing.T) {
	for _, tc := range []struct{ total, id, index, offset int }{
		{4, 0, 0, 1},
		{4, 6, 2, 3},
		{8, 13, 3, 2},
		{2, 5, 1, 4},
		{1, 3, 0, 7},
	} {
		t.Run(fmt.Sprintf("%+v", tc), func(t *testing.T) {
			m, err := HomogeneousMapping(tc.total, tc.id, tc.index, tc.offset)
			require.NoError(t, err)
			want := legacyWalk(tc.total, tc.id, tc.index, tc.offset)
			require.Equal(t, len(want), m.Len())
			for id, idx := range want {
				got, ok := m.IndexOf(id)
				require.True(t, ok, "id %d", id)
				assert.Equal(t, idx, got)
				assert.Equal(t, id, m.IDAt(idx))
			}
		})
	}
}

func TestHomogeneousMapping_RejectsBadInput(t *testing.T) {
	_, err := HomogeneousMapping(4, 0, 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidOffset))
	_, err = HomogeneousMapping(4, 0, 0, -2)
	assert.True(t, errors.Is(err, ErrInvalidOffset))
	_, err = HomogeneousMapping(4, 1, 2, 1)
	assert.Error(t, err, "walk would produce a negative id")
	_, err = HomogeneousMapping(4, 1, 4, 1)
	assert.Error(t, err)
}

func TestNewHomogeneous_AgreesWithExplicitMembership(t *testing.T) {
	// GIVEN node 6 at index 2 of a ring with stride 3
	h, err := NewHomogeneous(Config{Kind: Ring, Role: Local}, 6, 4, 2, 3, nil)
	require.NoError(t, err)
	e := mustNew(t, Config{Kind: Ring, Role: Local}, 6, []int{0, 3, 6, 9})

	assert.Equal(t, e.Members(), h.Members())
	for _, id := range e.Members() {
		for _, d := range []Direction{Clockwise, Anticlockwise} {
			assert.Equal(t, e.Receivers(id, d), h.Receivers(id, d))
			assert.Equal(t, e.Senders(id, d), h.Senders(id, d))
		}
	}
	assert.Equal(t, []int{0}, h.Receivers(9, Clockwise))
}

func TestNewHomogeneous_InvalidOffsetIsAnError(t *testing.T) {
	_, err := NewHomogeneous(Config{Kind: Torus}, 0, 4, 0, 0, nil)
	assert.True(t, errors.Is(err, ErrInvalidOffset))
}

func TestIsEnabled(t *testing.T) {
	on, err := NewHomogeneous(Config{Kind: Ring}, 6, 4, 2, 3, nil)
	require.NoError(t, err)
	assert.True(t, on.IsEnabled())

	off, err := NewHomogeneous(Config{Kind: Ring}, 7, 4, 2, 3, nil)
	require.NoError(t, err)
	assert.False(t, off.IsEnabled())

	explicit := mustNew(t, Config{Kind: Ring}, 0, seq(0, 4))
	assert.Panics(t, func() { explicit.IsEnabled() })
}

func TestHierarchical_LocalByGlobalRing(t *testing.T) {
	// GIVEN 8 nodes arranged as 4 local x 2 global
	c, err := NewHierarchical(5, []Kind{Ring, Ring}, []int{4, 2}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, c.NumDimensions())
	assert.Equal(t, 4, c.NodesInDimension(0))
	assert.Equal(t, 2, c.NodesInDimension(1))
	assert.Equal(t, -1, c.NodesInDimension(2))
	assert.Nil(t, c.At(2))

	local, global := c.At(0), c.At(1)
	assert.Equal(t, Local, local.Role())
	assert.Equal(t, Horizontal, global.Role())
	assert.Equal(t, []int{4, 5, 6, 7}, local.Members())
	assert.Equal(t, []int{1, 5}, global.Members())
	assert.Equal(t, []int{6}, local.Receivers(5, Clockwise))
	assert.Equal(t, []int{4}, local.Receivers(7, Clockwise))
	assert.Equal(t, []int{1}, global.Receivers(5, Clockwise))
}

func TestHierarchical_RejectsBadShape(t *testing.T) {
	_, err := NewHierarchical(0, []Kind{Ring}, []int{4, 2}, nil)
	assert.Error(t, err)
	_, err = NewHierarchical(8, []Kind{Ring, Ring}, []int{4, 2}, nil)
	assert.True(t, errors.Is(err, ErrNotMember))
	_, err = NewHierarchical(0, []Kind{Ring, Ring}, []int{4, 0}, nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestComposite_RejectsMixedOwners(t *testing.T) {
	a := mustNew(t, Config{Kind: Ring}, 0, seq(0, 4))
	b := mustNew(t, Config{Kind: Ring}, 1, seq(0, 4))
	_, err := NewComposite(a, b)
	assert.Error(t, err)
	_, err = NewComposite()
	assert.Error(t, err)
}
