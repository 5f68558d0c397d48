package bench

import "sync"

// Collector gathers latency samples from concurrent workers.
type Collector struct {
	mu      sync.Mutex
	samples []float64
}

func NewCollector(capacity uint64) *Collector {
	return &Collector{samples: make([]float64, 0, capacity)}
}

// Add appends one sample in milliseconds.
func (c *Collector) Add(ms float64) {
	c.mu.Lock()
	c.samples = append(c.samples, ms)
	c.mu.Unlock()
}

// Drain hands over the collected samples and empties the collector.
func (c *Collector) Drain() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.samples
	c.samples = nil
	return out
}

// Len reports how many samples are held.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}
