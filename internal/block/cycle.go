// internal/block/cycle.go
package block

import "errors"

// Cycle is the per-cycle context shared by the toplevel tasks of one
// aggregate-and-run sequence. It holds the read parent each Update task
// observed during the Read pass until the Write pass consumes it.
type Cycle struct {
	readParents map[Task]*ToplevelTask
}

func NewCycle() *Cycle {
	return &Cycle{readParents: make(map[Task]*ToplevelTask)}
}

func (c *Cycle) remember(t Task, parent *ToplevelTask) {
	c.readParents[t] = parent
}

// take returns and forgets the remembered read parent of t.
func (c *Cycle) take(t Task) (*ToplevelTask, bool) {
	p, ok := c.readParents[t]
	if ok {
		delete(c.readParents, t)
	}
	return p, ok
}

// Pending is the number of Update tasks whose Read pass ran but whose
// Write pass did not.
func (c *Cycle) Pending() int {
	return len(c.readParents)
}

// Reset drops every remembered read parent.
func (c *Cycle) Reset() {
	clear(c.readParents)
}

// RunAll runs tasks in order within one Cycle. A failing group does not stop
// later groups. The cycle is reset afterwards so no read parent outlives it.
func RunAll(c *Cycle, tasks []*ToplevelTask) error {
	if c == nil {
		c = NewCycle()
	}
	defer c.Reset()

	var errs []error
	for _, t := range tasks {
		if err := t.Run(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
