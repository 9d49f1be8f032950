// Package corelib holds the per-compilation Context: a name generator
// and a stage registry scoped to one explicit, resettable value instead
// of package globals, the same way the teacher threads one *Compiler through a
// compilation rather than keeping compiler state in package variables.
package corelib

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sentra/cerr"
	"sentra/internal/stage"
)

// Context holds unique name generation, a by-name stage registry, and a
// correlation ID. No Set, Map or schedule-tree node is built through a
// Context, and the rest of the pipeline (stage, function, lowering,
// graph) does not take one.
type Context struct {
	ID uuid.UUID

	mu       sync.Mutex
	counters map[string]int
	stages   map[string]*stage.Stage
}

// New creates a fresh Context with its own name-counter and stage
// registry state.
func New() *Context {
	return &Context{
		ID:       uuid.New(),
		counters: make(map[string]int),
		stages:   make(map[string]*stage.Stage),
	}
}

// FreshName returns the next unique name in category (e.g. "stage",
// "iter", "buf", "param"), formatted "<category><n>" starting at 0.
func (c *Context) FreshName(category string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.counters[category]
	c.counters[category] = n + 1
	return fmt.Sprintf("%s%d", category, n)
}

// Reset clears every counter and the stage registry, as required
// between independent compilations sharing one Context.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = make(map[string]int)
	c.stages = make(map[string]*stage.Stage)
}

// RegisterStage adds s to this Context's stage registry, rejecting a
// name that is already registered.
func (c *Context) RegisterStage(s *stage.Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.stages[s.Name]; exists {
		return cerr.New(cerr.ConfigurationError, s.Name, "stage already registered in this context")
	}
	c.stages[s.Name] = s
	return nil
}

// LookupStage retrieves a previously registered stage by name.
func (c *Context) LookupStage(name string) (*stage.Stage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stages[name]
	return s, ok
}
