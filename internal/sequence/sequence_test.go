package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agleyzer/sequence/internal/segment"
)

func seg(i int) segment.Segment {
	return segment.MustNew(i)
}

func indexes(s *Sequence) []int {
	out := make([]int, 0, s.Length())
	for _, sg := range s.Segments() {
		out = append(out, sg.Index())
	}
	return out
}

func TestNew_Empty(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Length())
	assert.Empty(t, s.Segments())
}

func TestNew_AdoptsSlice(t *testing.T) {
	backing := []segment.Segment{seg(4), seg(5), seg(6)}
	s := New(backing...)

	assert.Equal(t, []int{4, 5, 6}, indexes(s))

	// The caller's slice is the backing store.
	backing[0] = seg(9)
	assert.Equal(t, []int{9, 5, 6}, indexes(s))
}

func TestSegments_ReturnsCopy(t *testing.T) {
	s := New(seg(0), seg(1))
	out := s.Segments()
	out[0] = seg(7)

	assert.Equal(t, []int{0, 1}, indexes(s))
}

func TestAppend_PreservesCallOrder(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Append(seg(i))
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, indexes(s))
	assert.Equal(t, 5, s.Length())
}

func TestPrepend_ReversesCallOrder(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Prepend(seg(i))
	}

	assert.Equal(t, []int{4, 3, 2, 1, 0}, indexes(s))
}

func TestAppendPrepend_Chaining(t *testing.T) {
	s := New()
	got := s.Append(seg(1)).Prepend(seg(0)).Append(seg(2))

	assert.Same(t, s, got)
	assert.Equal(t, []int{0, 1, 2}, indexes(s))
}

func TestDuplicatesAllowed(t *testing.T) {
	a := seg(3)
	s := New(a, a).Append(a)

	assert.Equal(t, []int{3, 3, 3}, indexes(s))
}

func TestPop(t *testing.T) {
	_, ok := New().Pop()
	assert.False(t, ok, "Pop on empty sequence")

	s := New(seg(0), seg(1))
	got, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, got.Index())
	assert.Equal(t, []int{0}, indexes(s))
}

func TestShift(t *testing.T) {
	_, ok := New().Shift()
	assert.False(t, ok, "Shift on empty sequence")

	s := New(seg(0), seg(1))
	got, ok := s.Shift()
	require.True(t, ok)
	assert.Equal(t, 0, got.Index())
	assert.Equal(t, []int{1}, indexes(s))
}

func TestPopShift_DrainToEmpty(t *testing.T) {
	s := New(seg(0), seg(1), seg(2))

	_, ok := s.Pop()
	require.True(t, ok)
	_, ok = s.Shift()
	require.True(t, ok)
	_, ok = s.Pop()
	require.True(t, ok)

	assert.Equal(t, 0, s.Length())
	_, ok = s.Pop()
	assert.False(t, ok)
	_, ok = s.Shift()
	assert.False(t, ok)

	// Still usable after draining.
	s.Prepend(seg(8))
	assert.Equal(t, []int{8}, indexes(s))
}

func TestGet_Position(t *testing.T) {
	s := New(seg(10), seg(11), seg(12))

	tests := []struct {
		offset int
		want   int
	}{
		{0, 10},
		{1, 11},
		{2, 12},
		{-1, 12},
		{-2, 11},
		{-3, 10},
	}

	for _, tt := range tests {
		got, err := s.Get(Position(tt.offset))
		require.NoError(t, err, "offset %d", tt.offset)
		assert.Equal(t, tt.want, got.Index(), "offset %d", tt.offset)
	}
}

func TestGet_OutOfBounds(t *testing.T) {
	s := New(seg(0), seg(1), seg(2))

	for _, offset := range []int{3, 999, -4, -999} {
		_, err := s.Get(Position(offset))
		assert.ErrorIs(t, err, ErrOutOfBounds, "offset %d", offset)
	}

	for _, offset := range []int{0, -1, 1} {
		_, err := New().Get(Position(offset))
		assert.ErrorIs(t, err, ErrOutOfBounds, "empty sequence, offset %d", offset)
	}
}

func TestGet_Symbolic(t *testing.T) {
	s := New(seg(0), seg(1), seg(2))

	first, err := s.Get(First)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Index())

	last, err := s.Get(Last)
	require.NoError(t, err)
	assert.Equal(t, 2, last.Index())
}

func TestGet_SymbolicOnEmpty(t *testing.T) {
	for _, offset := range []Offset{First, Last, Random} {
		_, err := New().Get(offset)
		assert.ErrorIs(t, err, ErrOutOfBounds, "offset %s", offset)
	}
}

func TestGet_RandomMembership(t *testing.T) {
	s := New(seg(0), seg(1), seg(2))

	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		got, err := s.Get(Random)
		require.NoError(t, err)
		require.Contains(t, []int{0, 1, 2}, got.Index())
		seen[got.Index()] = true
	}
	assert.NotEmpty(t, seen)
}

func TestGet_RandomUsesSource(t *testing.T) {
	s := New(seg(5), seg(6), seg(7))
	var gotN int
	s.intn = func(n int) int {
		gotN = n
		return 1
	}

	got, err := s.Get(Random)
	require.NoError(t, err)
	assert.Equal(t, 3, gotN)
	assert.Equal(t, 6, got.Index())
}

func TestGet_UnknownKind(t *testing.T) {
	_, err := New(seg(0)).Get(Offset{kind: OffsetKind(99)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGet_DoesNotMutate(t *testing.T) {
	s := New(seg(0), seg(1), seg(2))
	for _, o := range []Offset{First, Last, Random, Position(1), Position(-1), Position(99)} {
		_, _ = s.Get(o)
	}
	assert.Equal(t, []int{0, 1, 2}, indexes(s))
}

func TestLookup(t *testing.T) {
	s := New(seg(0), seg(1), seg(2))

	tests := []struct {
		name    string
		offset  any
		want    int
		wantErr error
	}{
		{"int zero", 0, 0, nil},
		{"int negative", -1, 2, nil},
		{"int64", int64(1), 1, nil},
		{"numeric string", "1", 1, nil},
		{"negative numeric string", "-1", 2, nil},
		{"integral float", 2.0, 2, nil},
		{"first", "first", 0, nil},
		{"FIRST", "FIRST", 0, nil},
		{"Last", "Last", 2, nil},
		{"offset value", Last, 2, nil},
		{"too far", 999, 0, ErrOutOfBounds},
		{"too far string", "999", 0, ErrOutOfBounds},
		{"bogus", "bogus", 0, ErrInvalidArgument},
		{"fractional float", 1.5, 0, ErrInvalidArgument},
		{"slice", []int{}, 0, ErrInvalidArgument},
		{"map", map[string]int{}, 0, ErrInvalidArgument},
		{"struct", struct{}{}, 0, ErrInvalidArgument},
		{"nil", nil, 0, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Lookup(tt.offset)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Index())
		})
	}
}

func TestScenario(t *testing.T) {
	s := New()
	s.Append(seg(0))
	s.Append(seg(1))
	s.Prepend(seg(2))

	assert.Equal(t, []int{2, 0, 1}, indexes(s))
	assert.Equal(t, 3, s.Length())

	last, err := s.Get(Position(-1))
	require.NoError(t, err)
	assert.Equal(t, 1, last.Index())

	first, ok := s.Shift()
	require.True(t, ok)
	assert.Equal(t, 2, first.Index())
	assert.Equal(t, 2, s.Length())
}

func TestIndexNotRenumbered(t *testing.T) {
	s := New(seg(7), seg(3))
	s.Prepend(seg(5))

	got, err := s.Get(Position(0))
	require.NoError(t, err)
	assert.Equal(t, 5, got.Index())

	got, err = s.Get(Position(1))
	require.NoError(t, err)
	assert.Equal(t, 7, got.Index())
}
