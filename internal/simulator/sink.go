package simulator

import (
	"sync"

	"github.com/stitts-dev/draft-sim/internal/draft"
	"github.com/stitts-dev/draft-sim/internal/models"
)

// Sink receives finished trials. The runner calls Consume from a single goroutine,
// in ascending trial ID order.
type Sink interface {
	Consume(res *draft.Result) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(res *draft.Result) error

func (f SinkFunc) Consume(res *draft.Result) error {
	return f(res)
}

// MultiSink fans each result out to every sink in order, stopping at the first error
type MultiSink []Sink

func (m MultiSink) Consume(res *draft.Result) error {
	for _, s := range m {
		if err := s.Consume(res); err != nil {
			return err
		}
	}
	return nil
}

// Collector keeps every emitted pick in memory for scoring after the batch
type Collector struct {
	mu     sync.Mutex
	picks  []models.Pick
	trials []int
}

func (c *Collector) Consume(res *draft.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.picks = append(c.picks, res.Picks...)
	c.trials = append(c.trials, res.TrialID)
	return nil
}

// Picks returns the collected pick log
func (c *Collector) Picks() []models.Pick {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Pick(nil), c.picks...)
}

// Trials returns trial IDs in the order they were received
func (c *Collector) Trials() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.trials...)
}
