package stage

import "sync/atomic"

// Counter is a monotonic count of items, safe for concurrent use.
type Counter struct {
	n atomic.Int64
}

// Inc adds one and returns the new value.
func (c *Counter) Inc() int64 {
	return c.n.Add(1)
}

// Load returns the current value.
func (c *Counter) Load() int64 {
	return c.n.Load()
}
