package collection

import (
	"sync"

	"github.com/platinummonkey/depcollect/pkg/graph"
)

// Result is the outcome of a collection. It is returned even when the
// collection failed partially; Exceptions then lists every failure and the
// affected nodes are childless.
type Result struct {
	Request *Request
	Root    *graph.Node

	mu         sync.Mutex
	exceptions []error
	cycles     []graph.Cycle
}

// NewResult creates an empty result for req
func NewResult(req *Request) *Result {
	return &Result{Request: req}
}

// AddException records a failure. Safe for concurrent use.
func (r *Result) AddException(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	r.exceptions = append(r.exceptions, err)
	r.mu.Unlock()
}

// Exceptions returns the recorded failures in the order they were added
func (r *Result) Exceptions() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.exceptions...)
}

// AddCycle records a cycle. Safe for concurrent use.
func (r *Result) AddCycle(c graph.Cycle) {
	r.mu.Lock()
	r.cycles = append(r.cycles, c)
	r.mu.Unlock()
}

// Cycles returns the recorded cycles in the order they were found
func (r *Result) Cycles() []graph.Cycle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]graph.Cycle(nil), r.cycles...)
}
