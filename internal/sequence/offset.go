package sequence

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OffsetKind identifies how an Offset is resolved.
type OffsetKind uint8

const (
	// KindPosition resolves a zero-based position, negative values counting
	// back from the end.
	KindPosition OffsetKind = iota
	// KindFirst resolves the first entry.
	KindFirst
	// KindLast resolves the last entry.
	KindLast
	// KindRandom resolves a uniformly chosen entry.
	KindRandom
)

// Offset is a lookup key for Sequence.Get: either a numeric position or one
// of the symbolic keywords.
type Offset struct {
	kind OffsetKind
	pos  int
}

var (
	// First selects the first entry.
	First = Offset{kind: KindFirst}
	// Last selects the last entry.
	Last = Offset{kind: KindLast}
	// Random selects a uniformly chosen entry.
	Random = Offset{kind: KindRandom}
)

// Position returns an offset for position i. Negative i counts from the end,
// so -1 is the last entry.
func Position(i int) Offset {
	return Offset{kind: KindPosition, pos: i}
}

// Kind reports how the offset resolves.
func (o Offset) Kind() OffsetKind {
	return o.kind
}

// Pos returns the numeric position. It is only meaningful for KindPosition.
func (o Offset) Pos() int {
	return o.pos
}

func (o Offset) String() string {
	switch o.kind {
	case KindFirst:
		return "first"
	case KindLast:
		return "last"
	case KindRandom:
		return "random"
	default:
		return strconv.Itoa(o.pos)
	}
}

// ParseOffset converts a loosely typed value into an Offset.
//
// Accepted values are Go integers, floats holding an integral value, strings
// holding a base-10 integer, and the case-insensitive keywords "first",
// "last", "rand" and "random". Anything else fails with ErrInvalidArgument.
func ParseOffset(v any) (Offset, error) {
	switch x := v.(type) {
	case Offset:
		return x, nil
	case int:
		return Position(x), nil
	case int8:
		return Position(int(x)), nil
	case int16:
		return Position(int(x)), nil
	case int32:
		return Position(int(x)), nil
	case int64:
		if x > math.MaxInt || x < math.MinInt {
			return Offset{}, fmt.Errorf("%w: offset %d overflows int", ErrInvalidArgument, x)
		}
		return Position(int(x)), nil
	case uint:
		if x > math.MaxInt {
			return Offset{}, fmt.Errorf("%w: offset %d overflows int", ErrInvalidArgument, x)
		}
		return Position(int(x)), nil
	case uint8:
		return Position(int(x)), nil
	case uint16:
		return Position(int(x)), nil
	case uint32:
		return Position(int(x)), nil
	case uint64:
		if x > math.MaxInt {
			return Offset{}, fmt.Errorf("%w: offset %d overflows int", ErrInvalidArgument, x)
		}
		return Position(int(x)), nil
	case float32:
		return parseFloat(float64(x))
	case float64:
		return parseFloat(x)
	case string:
		return parseString(x)
	default:
		return Offset{}, fmt.Errorf("%w: offset must be an integer or string, got %T", ErrInvalidArgument, v)
	}
}

func parseFloat(f float64) (Offset, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= math.MaxInt || f < math.MinInt {
		return Offset{}, fmt.Errorf("%w: offset %v is not an integer", ErrInvalidArgument, f)
	}
	return Position(int(f)), nil
}

func parseString(s string) (Offset, error) {
	if i, err := strconv.Atoi(s); err == nil {
		return Position(i), nil
	}

	switch strings.ToLower(s) {
	case "first":
		return First, nil
	case "last":
		return Last, nil
	case "rand", "random":
		return Random, nil
	default:
		return Offset{}, fmt.Errorf("%w: offset %q must be one of 'first', 'last' or 'rand[om]'", ErrInvalidArgument, s)
	}
}
