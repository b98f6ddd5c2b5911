// The sequence command builds a segment sequence from flags or an HLS playlist
// and resolves lookups against it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/agleyzer/sequence/internal/hls"
	"github.com/agleyzer/sequence/internal/replica"
	"github.com/agleyzer/sequence/internal/segment"
	"github.com/agleyzer/sequence/internal/sequence"
)

const (
	version = "1.0.0"
)

type options struct {
	playlist        string
	appendIdx       []int
	prependIdx      []int
	pops            int
	shifts          int
	emit            bool
	windowSize      int
	segmentDuration float64
	replicated      bool
	verbose         bool
	offsets         []string
}

func main() {
	// Parse command-line flags
	var (
		playlist        = flag.String("playlist", "", "HLS media playlist file to load as the initial sequence")
		appendList      = flag.String("append", "", "Comma-separated segment indexes to append (e.g., '0,1')")
		prependList     = flag.String("prepend", "", "Comma-separated segment indexes to prepend, in call order")
		pops            = flag.Int("pop", 0, "Number of segments to pop off the end")
		shifts          = flag.Int("shift", 0, "Number of segments to shift off the front")
		emit            = flag.Bool("emit", false, "Print the resulting sequence as an HLS media playlist")
		windowSize      = flag.Int("window-size", 0, "Number of trailing segments to emit (0 for all)")
		segmentDuration = flag.Float64("segment-duration", 6.0, "Duration in seconds for segments not loaded from a playlist")
		replicated      = flag.Bool("replicated", false, "Route mutations through an in-process Raft replica")
		verbose         = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion     = flag.Bool("version", false, "Show version and exit")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Sequence - segment sequence tool v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [offset ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  offset    integer position (negative counts from the end) or first, last, rand[om]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --append 0,1 --prepend 2 first -1\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --playlist vod.m3u8 --shift 1 --emit\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --replicated --append 0,1,2 random\n", os.Args[0])
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("Sequence v%s\n", version)
		os.Exit(0)
	}

	appendIdx, err := parseIndexes(*appendList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: --append: %v\n", err)
		os.Exit(1)
	}
	prependIdx, err := parseIndexes(*prependList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: --prepend: %v\n", err)
		os.Exit(1)
	}

	if *pops < 0 || *shifts < 0 {
		fmt.Fprintf(os.Stderr, "Error: --pop and --shift must not be negative\n")
		os.Exit(1)
	}

	if *windowSize < 0 {
		fmt.Fprintf(os.Stderr, "Error: window size must not be negative\n")
		os.Exit(1)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	opts := options{
		playlist:        *playlist,
		appendIdx:       appendIdx,
		prependIdx:      prependIdx,
		pops:            *pops,
		shifts:          *shifts,
		emit:            *emit,
		windowSize:      *windowSize,
		segmentDuration: *segmentDuration,
		replicated:      *replicated,
		verbose:         *verbose,
		offsets:         flag.Args(),
	}

	if err := run(context.Background(), opts, os.Stdout, logger); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}

// parseIndexes parses a comma-separated list of segment indexes.
func parseIndexes(list string) ([]int, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	parts := strings.Split(list, ",")
	indexes := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", p, err)
		}
		if _, err := segment.New(i); err != nil {
			return nil, err
		}
		indexes = append(indexes, i)
	}
	return indexes, nil
}

// store is the mutation and lookup surface shared by the local sequence and
// the replica node.
type store interface {
	Append(index int) error
	Prepend(index int) error
	Pop() (segment.Segment, bool, error)
	Shift() (segment.Segment, bool, error)
	Get(offset sequence.Offset) (segment.Segment, error)
	Segments() []segment.Segment
}

// localStore adapts a plain sequence to store.
type localStore struct {
	seq *sequence.Sequence
}

func (l *localStore) Append(index int) error {
	seg, err := segment.New(index)
	if err != nil {
		return err
	}
	l.seq.Append(seg)
	return nil
}

func (l *localStore) Prepend(index int) error {
	seg, err := segment.New(index)
	if err != nil {
		return err
	}
	l.seq.Prepend(seg)
	return nil
}

func (l *localStore) Pop() (segment.Segment, bool, error) {
	seg, ok := l.seq.Pop()
	return seg, ok, nil
}

func (l *localStore) Shift() (segment.Segment, bool, error) {
	seg, ok := l.seq.Shift()
	return seg, ok, nil
}

func (l *localStore) Get(offset sequence.Offset) (segment.Segment, error) {
	return l.seq.Get(offset)
}

func (l *localStore) Segments() []segment.Segment {
	return l.seq.Segments()
}

func run(ctx context.Context, opts options, out io.Writer, logger *slog.Logger) error {
	// Parse every lookup up front so bad input fails before any work is done
	offsets := make([]sequence.Offset, 0, len(opts.offsets))
	for _, arg := range opts.offsets {
		offset, err := sequence.ParseOffset(arg)
		if err != nil {
			return fmt.Errorf("offset %q: %w", arg, err)
		}
		offsets = append(offsets, offset)
	}

	var (
		initial        []int
		catalog        = make(hls.Catalog)
		mediaSequence  uint64
		targetDuration int
	)

	if opts.playlist != "" {
		logger.Info("loading playlist", "path", opts.playlist)
		pl, err := hls.DecodeFile(opts.playlist)
		if err != nil {
			return fmt.Errorf("failed to load playlist: %w", err)
		}
		for _, seg := range pl.Sequence.Segments() {
			initial = append(initial, seg.Index())
		}
		catalog = pl.Catalog
		mediaSequence = pl.MediaSequence
		targetDuration = pl.TargetDuration
		logger.Info("loaded playlist", "segments", len(initial), "targetDuration", targetDuration)
	}

	var st store
	if opts.replicated {
		hclogLevel := hclog.Warn
		if opts.verbose {
			hclogLevel = hclog.Debug
		}

		node, err := replica.NewNode(replica.Config{
			NodeID:    "sequence",
			LogOutput: os.Stderr,
			LogLevel:  hclogLevel,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create replica: %w", err)
		}
		defer node.Shutdown()

		startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := node.Start(startCtx); err != nil {
			return fmt.Errorf("failed to start replica: %w", err)
		}
		if err := node.WaitForLeader(startCtx); err != nil {
			return fmt.Errorf("waiting for leader: %w", err)
		}
		if err := node.Reset(initial); err != nil {
			return fmt.Errorf("failed to load initial segments: %w", err)
		}
		st = node
	} else {
		segs := make([]segment.Segment, 0, len(initial))
		for _, i := range initial {
			segs = append(segs, segment.MustNew(i))
		}
		st = &localStore{seq: sequence.New(segs...)}
	}

	for _, i := range opts.appendIdx {
		if err := st.Append(i); err != nil {
			return fmt.Errorf("append %d: %w", i, err)
		}
	}
	for _, i := range opts.prependIdx {
		if err := st.Prepend(i); err != nil {
			return fmt.Errorf("prepend %d: %w", i, err)
		}
	}

	for i := 0; i < opts.pops; i++ {
		seg, ok, err := st.Pop()
		if err != nil {
			return fmt.Errorf("pop: %w", err)
		}
		if !ok {
			logger.Warn("pop on empty sequence")
			break
		}
		logger.Debug("popped", "segment", seg)
	}
	for i := 0; i < opts.shifts; i++ {
		seg, ok, err := st.Shift()
		if err != nil {
			return fmt.Errorf("shift: %w", err)
		}
		if !ok {
			logger.Warn("shift on empty sequence")
			break
		}
		logger.Debug("shifted", "segment", seg)
	}

	for _, offset := range offsets {
		seg, err := st.Get(offset)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", offset, err)
		}
		fmt.Fprintf(out, "%s\t%d\n", offset, seg.Index())
	}

	if opts.emit {
		segs := st.Segments()
		for _, seg := range segs {
			if _, ok := catalog[seg.Index()]; !ok {
				catalog[seg.Index()] = hls.Entry{
					URI:      fmt.Sprintf("segment%d.ts", seg.Index()),
					Duration: opts.segmentDuration,
				}
			}
		}

		content, err := hls.Encode(sequence.New(segs...), catalog, hls.Options{
			WindowSize:     opts.windowSize,
			MediaSequence:  mediaSequence,
			TargetDuration: targetDuration,
		})
		if err != nil {
			return fmt.Errorf("failed to encode playlist: %w", err)
		}
		fmt.Fprint(out, content)
	}

	return nil
}
