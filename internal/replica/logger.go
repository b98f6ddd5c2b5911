package replica

import (
	"io"

	"github.com/hashicorp/go-hclog"
)

// newHCLogger creates the hclog.Logger handed to Raft. A nil output yields a
// logger that discards everything.
func newHCLogger(output io.Writer, level hclog.Level) hclog.Logger {
	if output == nil {
		return hclog.New(&hclog.LoggerOptions{
			Name:   "raft",
			Level:  hclog.Off,
			Output: io.Discard,
		})
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "raft",
		Level:  level,
		Output: output,
	})
}
