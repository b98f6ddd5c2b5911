// Package sequence implements an ordered, mutable collection of segments with
// list-like operations and positional or symbolic lookup.
//
// A Sequence is not safe for concurrent use. Callers sharing one across
// goroutines must guard the whole value with a single lock; see the replica
// package for a synchronized, journaled wrapper.
package sequence

import (
	"fmt"
	"math/rand"

	"github.com/agleyzer/sequence/internal/segment"
)

// Sequence is an ordered list of segments. Order is insertion order and
// duplicates are allowed.
type Sequence struct {
	segments []segment.Segment

	// intn returns a value in [0, n). Nil means rand.Intn.
	intn func(n int) int
}

// New creates a sequence holding segments. The slice is adopted as-is, so
// New(s...) keeps s as the backing store.
func New(segments ...segment.Segment) *Sequence {
	return &Sequence{segments: segments}
}

// Segments returns a copy of the sequence's segments in order. Mutating the
// returned slice does not affect the sequence.
func (s *Sequence) Segments() []segment.Segment {
	out := make([]segment.Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Append adds seg to the end of the sequence.
func (s *Sequence) Append(seg segment.Segment) *Sequence {
	s.segments = append(s.segments, seg)
	return s
}

// Prepend adds seg to the beginning of the sequence.
func (s *Sequence) Prepend(seg segment.Segment) *Sequence {
	s.segments = append(s.segments, segment.Segment{})
	copy(s.segments[1:], s.segments)
	s.segments[0] = seg
	return s
}

// Pop removes and returns the last segment. It reports false if the sequence
// is empty.
func (s *Sequence) Pop() (segment.Segment, bool) {
	n := len(s.segments)
	if n == 0 {
		return segment.Segment{}, false
	}

	seg := s.segments[n-1]
	s.segments = s.segments[:n-1]
	return seg, true
}

// Shift removes and returns the first segment. It reports false if the
// sequence is empty.
func (s *Sequence) Shift() (segment.Segment, bool) {
	if len(s.segments) == 0 {
		return segment.Segment{}, false
	}

	seg := s.segments[0]
	s.segments = s.segments[1:]
	return seg, true
}

// Length returns the number of segments.
func (s *Sequence) Length() int {
	return len(s.segments)
}

// Get returns the segment at offset without modifying the sequence.
//
// A Position offset counts from the start when non-negative and from the end
// when negative. First, Last and Random select the corresponding entry. Any
// lookup that does not land on an existing entry, including every lookup on
// an empty sequence, fails with ErrOutOfBounds.
func (s *Sequence) Get(offset Offset) (segment.Segment, error) {
	n := len(s.segments)

	var i int
	switch offset.kind {
	case KindPosition:
		i = offset.pos
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return segment.Segment{}, fmt.Errorf("%w: offset %d resolves to index %d, length is %d", ErrOutOfBounds, offset.pos, i, n)
		}
		return s.segments[i], nil
	case KindFirst:
		i = 0
	case KindLast:
		i = n - 1
	case KindRandom:
		if n > 0 {
			intn := s.intn
			if intn == nil {
				intn = rand.Intn
			}
			i = intn(n)
		}
	default:
		return segment.Segment{}, fmt.Errorf("%w: unknown offset kind %d", ErrInvalidArgument, offset.kind)
	}

	if n == 0 {
		return segment.Segment{}, fmt.Errorf("%w: %s of empty sequence", ErrOutOfBounds, offset)
	}
	return s.segments[i], nil
}

// Lookup parses v with ParseOffset and resolves it with Get.
func (s *Sequence) Lookup(v any) (segment.Segment, error) {
	offset, err := ParseOffset(v)
	if err != nil {
		return segment.Segment{}, err
	}
	return s.Get(offset)
}
