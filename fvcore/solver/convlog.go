package solver

import (
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// ConvLog is the convergence-history file {logfile}.conv (§6): one
// "step rel_residual" record per line. It is opened lazily on the first
// Append call and left closed (LogNRes=false is the default, per the
// Design Notes requirement that this hot-path I/O be off unless asked
// for) so a disabled solve never touches the filesystem.
type ConvLog struct {
	path string
	file *os.File
}

// NewConvLog returns a ConvLog that writes to path+".conv" once Append is
// first called. An empty path disables logging entirely.
func NewConvLog(path string) *ConvLog {
	return &ConvLog{path: path}
}

// Append writes one "step rel_residual" record. It is a no-op if the log
// was constructed with an empty path.
func (c *ConvLog) Append(step int, relResidual float64) error {
	if c.path == "" {
		return nil
	}
	if c.file == nil {
		f, err := os.OpenFile(c.path+".conv", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return chk.Err("solver: cannot open convergence log %q:\n%v", c.path+".conv", err)
		}
		c.file = f
	}
	_, err := c.file.WriteString(io.Sf("%d %.10e\n", step, relResidual))
	if err != nil {
		return chk.Err("solver: cannot write convergence log:\n%v", err)
	}
	return nil
}

// Close closes the underlying file, if open.
func (c *ConvLog) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}
