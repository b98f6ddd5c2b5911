// Package segment defines the indexed segment value held by a sequence.
package segment

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a caller supplies a value of the wrong
// shape, such as a negative segment index.
var ErrInvalidArgument = errors.New("invalid argument")

// Segment is an immutable value carrying a non-negative index.
//
// The index is caller-assigned metadata. It does not track the segment's
// position in any sequence and is never renumbered.
type Segment struct {
	index int
}

// New creates a segment with the given index.
func New(index int) (Segment, error) {
	if index < 0 {
		return Segment{}, fmt.Errorf("%w: segment index must be zero or positive, got %d", ErrInvalidArgument, index)
	}

	return Segment{index: index}, nil
}

// MustNew is like New but panics if index is negative.
func MustNew(index int) Segment {
	s, err := New(index)
	if err != nil {
		panic(err)
	}
	return s
}

// Index returns the segment's index.
func (s Segment) Index() int {
	return s.index
}

func (s Segment) String() string {
	return fmt.Sprintf("segment(%d)", s.index)
}
