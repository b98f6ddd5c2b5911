package replica

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/raft"

	"github.com/agleyzer/sequence/internal/segment"
	"github.com/agleyzer/sequence/internal/sequence"
)

// Node is a single in-process Raft node that owns a sequence. Mutations are
// committed through the Raft log and applied by SequenceFSM one at a time;
// reads go straight to the FSM.
//
// Stores and transport are in memory. Nothing is persisted and nothing
// listens on the network.
type Node struct {
	config    Config
	raft      *raft.Raft
	fsm       *SequenceFSM
	transport *raft.InmemTransport
	logger    *slog.Logger
	mu        sync.RWMutex
	shutdown  bool
}

// NewNode creates a new replica node. The node must be started before it
// accepts mutations.
func NewNode(config Config, logger *slog.Logger) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Node{
		config: config,
		fsm:    NewSequenceFSM(logger),
		logger: logger,
	}, nil
}

// Start creates the Raft instance and bootstraps a single-voter cluster.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.shutdown {
		return fmt.Errorf("node is shut down")
	}
	if n.raft != nil {
		return fmt.Errorf("node already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(n.config.NodeID)
	raftConfig.HeartbeatTimeout = n.config.HeartbeatTimeout
	raftConfig.ElectionTimeout = n.config.ElectionTimeout
	raftConfig.LeaderLeaseTimeout = n.config.HeartbeatTimeout
	raftConfig.SnapshotInterval = n.config.SnapshotInterval
	raftConfig.SnapshotThreshold = n.config.SnapshotThreshold
	raftConfig.Logger = newHCLogger(n.config.LogOutput, n.config.LogLevel)

	// Create in-memory stores
	logStore := raft.NewInmemStore()
	stableStore := raft.NewInmemStore()
	snapshotStore := raft.NewInmemSnapshotStore()

	addr, transport := raft.NewInmemTransport(raft.ServerAddress(n.config.NodeID))
	n.transport = transport

	r, err := raft.NewRaft(raftConfig, n.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		transport.Close()
		return fmt.Errorf("create raft: %w", err)
	}
	n.raft = r

	configuration := raft.Configuration{
		Servers: []raft.Server{{
			ID:       raftConfig.LocalID,
			Address:  addr,
			Suffrage: raft.Voter,
		}},
	}

	future := n.raft.BootstrapCluster(configuration)
	if err := future.Error(); err != nil && err != raft.ErrCantBootstrap {
		return fmt.Errorf("bootstrap: %w", err)
	}

	n.logger.Info("replica started", "node_id", n.config.NodeID, "address", addr)
	return nil
}

// WaitForLeader blocks until a leader is elected or ctx is canceled.
func (n *Node) WaitForLeader(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if n.LeaderAddr() != "" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Append commits an append of the segment with the given index.
func (n *Node) Append(index int) error {
	if _, err := segment.New(index); err != nil {
		return err
	}
	_, err := n.submit(Command{Type: CommandAppend, Data: AppendCommand{Index: index}})
	return err
}

// Prepend commits a prepend of the segment with the given index.
func (n *Node) Prepend(index int) error {
	if _, err := segment.New(index); err != nil {
		return err
	}
	_, err := n.submit(Command{Type: CommandPrepend, Data: PrependCommand{Index: index}})
	return err
}

// Pop commits removal of the last segment. It reports false if the sequence
// was empty.
func (n *Node) Pop() (segment.Segment, bool, error) {
	res, err := n.submit(Command{Type: CommandPop})
	if err != nil {
		return segment.Segment{}, false, err
	}
	return res.Segment, res.OK, nil
}

// Shift commits removal of the first segment. It reports false if the
// sequence was empty.
func (n *Node) Shift() (segment.Segment, bool, error) {
	res, err := n.submit(Command{Type: CommandShift})
	if err != nil {
		return segment.Segment{}, false, err
	}
	return res.Segment, res.OK, nil
}

// Reset commits replacement of the whole sequence with segments for indexes.
func (n *Node) Reset(indexes []int) error {
	for _, i := range indexes {
		if _, err := segment.New(i); err != nil {
			return err
		}
	}
	_, err := n.submit(Command{Type: CommandReset, Data: ResetCommand{Indexes: indexes}})
	return err
}

// Get resolves offset against the applied state.
func (n *Node) Get(offset sequence.Offset) (segment.Segment, error) {
	return n.fsm.Get(offset)
}

// Length returns the applied sequence length.
func (n *Node) Length() int {
	return n.fsm.Length()
}

// Segments returns a copy of the applied segments.
func (n *Node) Segments() []segment.Segment {
	return n.fsm.Segments()
}

// IsLeader returns true if this node is the Raft leader.
func (n *Node) IsLeader() bool {
	r := n.raftInstance()
	if r == nil {
		return false
	}

	return r.State() == raft.Leader
}

// LeaderAddr returns the address of the current Raft leader.
func (n *Node) LeaderAddr() string {
	r := n.raftInstance()
	if r == nil {
		return ""
	}

	leaderAddr, _ := r.LeaderWithID()
	return string(leaderAddr)
}

// State returns the current Raft state.
func (n *Node) State() string {
	r := n.raftInstance()
	if r == nil {
		return "NotStarted"
	}

	return r.State().String()
}

// Shutdown stops the Raft instance and closes the transport.
func (n *Node) Shutdown() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.shutdown {
		return nil
	}

	n.shutdown = true

	if n.raft != nil {
		if err := n.raft.Shutdown().Error(); err != nil {
			n.logger.Error("failed to shutdown raft", "error", err)
			return fmt.Errorf("shutdown raft: %w", err)
		}
	}

	if n.transport != nil {
		if err := n.transport.Close(); err != nil {
			n.logger.Error("failed to close transport", "error", err)
			return fmt.Errorf("close transport: %w", err)
		}
	}

	n.logger.Info("replica shut down")
	return nil
}

func (n *Node) raftInstance() *raft.Raft {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.raft
}

// submit commits cmd and returns the FSM's result.
func (n *Node) submit(cmd Command) (ApplyResult, error) {
	n.mu.RLock()
	if n.shutdown {
		n.mu.RUnlock()
		return ApplyResult{}, fmt.Errorf("node is shut down")
	}
	r := n.raft
	n.mu.RUnlock()

	if r == nil {
		return ApplyResult{}, fmt.Errorf("node not started")
	}

	data, err := EncodeCommand(cmd)
	if err != nil {
		return ApplyResult{}, err
	}

	future := r.Apply(data, n.config.ApplyTimeout)
	if err := future.Error(); err != nil {
		return ApplyResult{}, fmt.Errorf("apply %s: %w", cmd.Type, err)
	}

	switch resp := future.Response().(type) {
	case ApplyResult:
		return resp, nil
	case error:
		return ApplyResult{}, fmt.Errorf("apply %s: %w", cmd.Type, resp)
	default:
		return ApplyResult{}, fmt.Errorf("apply %s: unexpected response %T", cmd.Type, resp)
	}
}
