package replica

import (
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Config holds the configuration for a replica node.
type Config struct {
	// NodeID is the unique identifier for this Raft node.
	NodeID string
	// HeartbeatTimeout is the Raft heartbeat timeout.
	HeartbeatTimeout time.Duration
	// ElectionTimeout is the Raft election timeout.
	ElectionTimeout time.Duration
	// SnapshotInterval is how often to check whether to take a snapshot.
	SnapshotInterval time.Duration
	// SnapshotThreshold is the number of logs before taking a snapshot.
	SnapshotThreshold uint64
	// ApplyTimeout bounds how long a mutation waits to be committed.
	ApplyTimeout time.Duration
	// LogOutput receives Raft's internal log. Nil discards it.
	LogOutput io.Writer
	// LogLevel is the level for Raft's internal log.
	LogLevel hclog.Level
}

// Validate checks if the configuration is valid and fills in defaults.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node-id is required")
	}

	if c.HeartbeatTimeout < 0 || c.ElectionTimeout < 0 || c.ApplyTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	// Set defaults
	if c.HeartbeatTimeout == 0 {
		c.HeartbeatTimeout = 50 * time.Millisecond
	}
	if c.ElectionTimeout == 0 {
		c.ElectionTimeout = 50 * time.Millisecond
	}
	if c.ElectionTimeout < c.HeartbeatTimeout {
		return fmt.Errorf("election timeout %s must not be shorter than heartbeat timeout %s", c.ElectionTimeout, c.HeartbeatTimeout)
	}
	if c.SnapshotInterval == 0 {
		c.SnapshotInterval = 120 * time.Second
	}
	if c.SnapshotThreshold == 0 {
		c.SnapshotThreshold = 8192
	}
	if c.ApplyTimeout == 0 {
		c.ApplyTimeout = 5 * time.Second
	}
	if c.LogLevel == hclog.NoLevel {
		c.LogLevel = hclog.Warn
	}

	return nil
}
