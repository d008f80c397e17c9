package engine

import (
	"errors"
	"sync/atomic"
)

// ErrCancelled is returned once a tripped cancel handle is observed.
// Partial results are discarded; no output snapshot is produced.
var ErrCancelled = errors.New("scan cancelled")

// Cancel is a shared handle the engine polls at region boundaries and
// every few vector rows. Safe for concurrent use; tripping it more
// than once is harmless.
type Cancel struct {
	flag atomic.Bool
}

// Cancel trips the handle
func (c *Cancel) Cancel() {
	c.flag.Store(true)
}

// Cancelled reports whether the handle has been tripped. A nil handle
// never cancels.
func (c *Cancel) Cancelled() bool {
	return c != nil && c.flag.Load()
}
