// Package replica serializes mutations of a segment sequence through a Raft
// log so that a sequence can be shared between goroutines.
package replica

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/hashicorp/raft"

	"github.com/agleyzer/sequence/internal/segment"
	"github.com/agleyzer/sequence/internal/sequence"
)

func init() {
	// Register types for gob encoding/decoding
	gob.Register(AppendCommand{})
	gob.Register(PrependCommand{})
	gob.Register(ResetCommand{})
}

// CommandType identifies the type of Raft command.
type CommandType uint8

const (
	// CommandAppend appends a segment.
	CommandAppend CommandType = 1
	// CommandPrepend prepends a segment.
	CommandPrepend CommandType = 2
	// CommandPop removes the last segment.
	CommandPop CommandType = 3
	// CommandShift removes the first segment.
	CommandShift CommandType = 4
	// CommandReset replaces the whole sequence.
	CommandReset CommandType = 5
)

func (t CommandType) String() string {
	switch t {
	case CommandAppend:
		return "append"
	case CommandPrepend:
		return "prepend"
	case CommandPop:
		return "pop"
	case CommandShift:
		return "shift"
	case CommandReset:
		return "reset"
	default:
		return fmt.Sprintf("command(%d)", uint8(t))
	}
}

// Command represents a Raft log command.
type Command struct {
	Type CommandType
	Data any
}

// AppendCommand appends the segment with the given index.
type AppendCommand struct {
	Index int
}

// PrependCommand prepends the segment with the given index.
type PrependCommand struct {
	Index int
}

// ResetCommand replaces the sequence with segments for Indexes, in order.
type ResetCommand struct {
	Indexes []int
}

// ApplyResult is returned from Apply for every successfully applied command.
type ApplyResult struct {
	// Segment is the removed segment for pop and shift.
	Segment segment.Segment
	// OK reports whether pop or shift removed a segment.
	OK bool
	// Length is the sequence length after the command.
	Length int
}

// SequenceFSM implements the raft.FSM interface over a sequence. All access
// to the sequence goes through a single lock.
type SequenceFSM struct {
	mu     sync.RWMutex
	seq    *sequence.Sequence
	logger *slog.Logger
}

// NewSequenceFSM creates a new SequenceFSM holding an empty sequence.
func NewSequenceFSM(logger *slog.Logger) *SequenceFSM {
	return &SequenceFSM{
		seq:    sequence.New(),
		logger: logger,
	}
}

// Apply applies a Raft log entry to the FSM.
func (f *SequenceFSM) Apply(log *raft.Log) any {
	var cmd Command
	if err := gob.NewDecoder(bytes.NewReader(log.Data)).Decode(&cmd); err != nil {
		f.logger.Error("failed to decode command", "error", err)
		return fmt.Errorf("decode command: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd.Type {
	case CommandAppend:
		c, ok := cmd.Data.(AppendCommand)
		if !ok {
			return fmt.Errorf("invalid append command data")
		}
		seg, err := segment.New(c.Index)
		if err != nil {
			return err
		}
		f.seq.Append(seg)
	case CommandPrepend:
		c, ok := cmd.Data.(PrependCommand)
		if !ok {
			return fmt.Errorf("invalid prepend command data")
		}
		seg, err := segment.New(c.Index)
		if err != nil {
			return err
		}
		f.seq.Prepend(seg)
	case CommandPop:
		seg, ok := f.seq.Pop()
		return f.result(cmd.Type, seg, ok)
	case CommandShift:
		seg, ok := f.seq.Shift()
		return f.result(cmd.Type, seg, ok)
	case CommandReset:
		c, ok := cmd.Data.(ResetCommand)
		if !ok {
			return fmt.Errorf("invalid reset command data")
		}
		seq, err := buildSequence(c.Indexes)
		if err != nil {
			return err
		}
		f.seq = seq
	default:
		f.logger.Error("unknown command type", "type", cmd.Type)
		return fmt.Errorf("unknown command type: %d", cmd.Type)
	}

	return f.result(cmd.Type, segment.Segment{}, false)
}

// result builds an ApplyResult. Caller must hold the write lock.
func (f *SequenceFSM) result(t CommandType, seg segment.Segment, ok bool) ApplyResult {
	n := f.seq.Length()
	f.logger.Debug("applied command", "command", t, "length", n)
	return ApplyResult{Segment: seg, OK: ok, Length: n}
}

// Snapshot returns an FSMSnapshot for creating a point-in-time snapshot.
func (f *SequenceFSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return &fsmSnapshot{state: snapshotState{Indexes: indexesOf(f.seq)}}, nil
}

// Restore restores the FSM state from a snapshot.
func (f *SequenceFSM) Restore(snapshot io.ReadCloser) error {
	defer snapshot.Close()

	var state snapshotState
	if err := gob.NewDecoder(snapshot).Decode(&state); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	seq, err := buildSequence(state.Indexes)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	f.mu.Lock()
	f.seq = seq
	f.mu.Unlock()

	f.logger.Info("restored FSM state from snapshot", "length", len(state.Indexes))
	return nil
}

// Get resolves offset against the current sequence.
func (f *SequenceFSM) Get(offset sequence.Offset) (segment.Segment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.seq.Get(offset)
}

// Length returns the current sequence length.
func (f *SequenceFSM) Length() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.seq.Length()
}

// Segments returns a copy of the current segments.
func (f *SequenceFSM) Segments() []segment.Segment {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.seq.Segments()
}

// snapshotState is the persisted form of the sequence: segment indexes in
// order.
type snapshotState struct {
	Indexes []int
}

// fsmSnapshot implements raft.FSMSnapshot.
type fsmSnapshot struct {
	state snapshotState
}

// Persist writes the snapshot to the given sink.
func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.state); err != nil {
		sink.Cancel()
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if _, err := sink.Write(buf.Bytes()); err != nil {
		sink.Cancel()
		return fmt.Errorf("write snapshot: %w", err)
	}

	return sink.Close()
}

// Release releases any resources held by the snapshot.
func (s *fsmSnapshot) Release() {}

// EncodeCommand encodes a command for Raft submission.
func EncodeCommand(cmd Command) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cmd); err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return buf.Bytes(), nil
}

func indexesOf(seq *sequence.Sequence) []int {
	segs := seq.Segments()
	out := make([]int, len(segs))
	for i, s := range segs {
		out[i] = s.Index()
	}
	return out
}

func buildSequence(indexes []int) (*sequence.Sequence, error) {
	segs := make([]segment.Segment, 0, len(indexes))
	for _, i := range indexes {
		s, err := segment.New(i)
		if err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	return sequence.New(segs...), nil
}
