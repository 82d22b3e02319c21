package core

import (
	"sync"
	"time"
)

// IDGenerator hands out unique, monotonically increasing record ids. Ids are
// derived from the wall clock in milliseconds but bulk creation within the
// same millisecond still yields distinct values.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator seeded from the current time.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Observe raises the generator's floor to id. Callers feed it the ids
// already present in the store so that imported or merged records, whose ids
// may lie in the future of the wall clock, are never reissued.
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

// Next returns the next unique id.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
