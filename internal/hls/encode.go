package hls

import (
	"fmt"
	"math"

	"github.com/grafov/m3u8"

	"github.com/agleyzer/sequence/internal/segment"
	"github.com/agleyzer/sequence/internal/sequence"
)

// Options controls how a sequence is rendered.
type Options struct {
	// WindowSize limits output to the last WindowSize segments. Zero renders
	// the whole sequence.
	WindowSize int

	// MediaSequence is written as EXT-X-MEDIA-SEQUENCE
	MediaSequence uint64

	// TargetDuration overrides the computed target duration when positive
	TargetDuration int

	// Closed appends EXT-X-ENDLIST
	Closed bool
}

// Encode renders seq as an HLS media playlist in sequence order.
//
// A segment whose index is lower than the previous segment's index marks a
// loop point and is preceded by EXT-X-DISCONTINUITY.
func Encode(seq *sequence.Sequence, catalog Catalog, opts Options) (string, error) {
	if opts.WindowSize < 0 {
		return "", fmt.Errorf("window size must not be negative")
	}

	window := seq.Segments()
	if opts.WindowSize > 0 && opts.WindowSize < len(window) {
		window = window[len(window)-opts.WindowSize:]
	}

	if len(window) == 0 {
		return "", fmt.Errorf("cannot encode empty sequence")
	}

	mp, err := m3u8.NewMediaPlaylist(0, uint(len(window)))
	if err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}
	mp.SeqNo = opts.MediaSequence

	maxDuration := 0.0
	var prev segment.Segment
	for i, seg := range window {
		entry, ok := catalog[seg.Index()]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownSegment, seg)
		}

		if err := mp.Append(entry.URI, entry.Duration, ""); err != nil {
			return "", fmt.Errorf("failed to append %s: %w", seg, err)
		}

		// Check for discontinuity (loop point)
		if i > 0 && seg.Index() < prev.Index() {
			if err := mp.SetDiscontinuity(); err != nil {
				return "", fmt.Errorf("failed to mark discontinuity at %s: %w", seg, err)
			}
		}

		if entry.Duration > maxDuration {
			maxDuration = entry.Duration
		}
		prev = seg
	}

	if opts.TargetDuration > 0 {
		mp.TargetDuration = float64(opts.TargetDuration)
	} else {
		mp.TargetDuration = math.Ceil(maxDuration)
	}

	if opts.Closed {
		mp.Close()
	}

	return mp.String(), nil
}
