package sequence

import (
	"errors"

	"github.com/agleyzer/sequence/internal/segment"
)

var (
	// ErrInvalidArgument is returned when an offset is neither an
	// integer-valued number nor a recognized keyword. It is the same value
	// as segment.ErrInvalidArgument.
	ErrInvalidArgument = segment.ErrInvalidArgument

	// ErrOutOfBounds is returned when an offset does not resolve to an
	// existing entry.
	ErrOutOfBounds = errors.New("offset out of bounds")
)
