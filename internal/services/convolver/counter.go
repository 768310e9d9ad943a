package convolver

import "sync"

// counter tallies band outcomes across workers.
type counter struct {
	mu    sync.Mutex
	bands int
	skips int
}

func newCounter() *counter { return &counter{} }

func (c *counter) add(bands, skips int) {
	c.mu.Lock()
	c.bands += bands
	c.skips += skips
	c.mu.Unlock()
}

func (c *counter) totals() (bands, skips int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bands, c.skips
}
