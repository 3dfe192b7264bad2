package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator hands out predictable identifiers ("prefix-1", "prefix-2", ...).
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	issued uint64
}

// NewIDGenerator returns a generator for prefix; an empty prefix becomes "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return fmt.Sprintf("%s-%d", g.prefix, g.issued)
}

// NextFunc exposes Next for injection into services.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Issued reports how many identifiers were handed out.
func (g *IDGenerator) Issued() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.issued
}

// Reset restarts the sequence under a new prefix. An empty prefix keeps the
// current one.
func (g *IDGenerator) Reset(prefix string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if prefix != "" {
		g.prefix = prefix
	}
	g.issued = 0
}
