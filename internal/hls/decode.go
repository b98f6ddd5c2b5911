// Package hls converts between HLS media playlists and segment sequences.
//
// Decoding maps each media segment to a segment whose index is its media
// sequence number; the URI and duration are kept in a Catalog so that a
// sequence can later be rendered back into a playlist.
package hls

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/grafov/m3u8"

	"github.com/agleyzer/sequence/internal/segment"
	"github.com/agleyzer/sequence/internal/sequence"
)

// ErrUnknownSegment is returned when a segment being encoded has no
// catalog entry.
var ErrUnknownSegment = errors.New("segment not in catalog")

// Entry describes the media behind a segment index.
type Entry struct {
	// URI is the segment URI as written in the source playlist
	URI string

	// Duration is the segment duration in seconds
	Duration float64
}

// Catalog maps segment indexes to their media entries.
type Catalog map[int]Entry

// Playlist is a decoded media playlist.
type Playlist struct {
	// Sequence holds one segment per media segment, in playlist order
	Sequence *sequence.Sequence

	// Catalog holds the URI and duration for every segment index
	Catalog Catalog

	// MediaSequence is the EXT-X-MEDIA-SEQUENCE of the source playlist
	MediaSequence uint64

	// TargetDuration is the maximum segment duration in seconds
	TargetDuration int
}

// DecodeFile opens path and decodes it as a media playlist.
func DecodeFile(path string) (*Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses an HLS media playlist from r.
func Decode(r io.Reader) (*Playlist, error) {
	playlist, listType, err := m3u8.DecodeFrom(r, true)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playlist: %w", err)
	}

	if listType == m3u8.MASTER {
		return nil, fmt.Errorf("master playlists are not supported")
	}

	mediaPlaylist, ok := playlist.(*m3u8.MediaPlaylist)
	if !ok {
		return nil, fmt.Errorf("unexpected playlist type")
	}

	seq := sequence.New()
	catalog := make(Catalog)
	maxDuration := 0.0

	for i, ms := range mediaPlaylist.Segments {
		if ms == nil {
			break
		}

		seg, err := segment.New(int(mediaPlaylist.SeqNo) + i)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}

		seq.Append(seg)
		catalog[seg.Index()] = Entry{URI: ms.URI, Duration: ms.Duration}

		if ms.Duration > maxDuration {
			maxDuration = ms.Duration
		}
	}

	if seq.Length() == 0 {
		return nil, fmt.Errorf("playlist contains no segments")
	}

	targetDuration := int(mediaPlaylist.TargetDuration)
	if targetDuration == 0 {
		// If target duration is not set, use the max segment duration
		targetDuration = int(maxDuration) + 1
	}

	return &Playlist{
		Sequence:       seq,
		Catalog:        catalog,
		MediaSequence:  mediaPlaylist.SeqNo,
		TargetDuration: targetDuration,
	}, nil
}
