package collector

import (
	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/graph"
)

type frame struct {
	key string
	dep artifact.Dependency
	// rootless marks the bare root artifact of a rootless request
	rootless bool
}

// stack is the path from the root to the node being expanded. It is passed
// by value; push always copies so sibling branches never share a backing array.
type stack []frame

func (s stack) push(f frame) stack {
	out := make(stack, len(s), len(s)+1)
	copy(out, s)
	return append(out, f)
}

// find returns the index of the nearest frame with key, or -1
func (s stack) find(key string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].key == key {
			return i
		}
	}
	return -1
}

// cycle describes re-entering frame i with dep
func (s stack) cycle(i int, dep artifact.Dependency) graph.Cycle {
	c := graph.Cycle{
		Preceding: make([]artifact.Dependency, 0, i),
		Cyclic:    make([]artifact.Dependency, 0, len(s)-i+1),
	}
	for _, f := range s[:i] {
		c.Preceding = append(c.Preceding, f.dep)
	}
	for _, f := range s[i:] {
		c.Cyclic = append(c.Cyclic, f.dep)
	}
	c.Cyclic = append(c.Cyclic, dep)
	return c
}
