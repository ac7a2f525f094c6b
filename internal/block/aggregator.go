// internal/block/aggregator.go
package block

import (
	"errors"
	"fmt"
	"slices"
)

// Factory builds the toplevel task for one merged span, binding it to a
// concrete transport or session.
type Factory func(start, end uint32, mode Mode) (*ToplevelTask, error)

// Aggregator merges task intervals into the minimal set of toplevel tasks.
//
// It is an incremental builder: AddBlock and AddProhibited accumulate,
// Stream recomputes the grouping from everything accumulated so far.
type Aggregator struct {
	mode    Mode
	minGap  uint32
	factory Factory

	tasks      []Task
	prohibited []Interval
}

// NewAggregator returns an aggregator producing toplevel tasks in mode
// (Read or Write). Two spans merge when the gap between them is at most
// minGap bytes and no prohibited interval lies in that gap.
func NewAggregator(mode Mode, minGap uint32, factory Factory) (*Aggregator, error) {
	if mode != Read && mode != Write {
		return nil, fmt.Errorf("%w: aggregator cannot produce %s groups", ErrModeMismatch, mode)
	}
	if factory == nil {
		return nil, errors.New("block: aggregator factory required")
	}
	return &Aggregator{mode: mode, minGap: minGap, factory: factory}, nil
}

func (a *Aggregator) Mode() Mode     { return a.mode }
func (a *Aggregator) MinGap() uint32 { return a.minGap }

// AddBlock adds one task. Tasks the produced groups cannot carry are
// rejected here.
func (a *Aggregator) AddBlock(t Task) error {
	if !a.mode.accepts(t.Mode()) {
		return fmt.Errorf("%w: %s task %s in %s aggregator", ErrModeMismatch, t.Mode(), t.Interval(), a.mode)
	}
	iv := t.Interval()
	if iv.End < iv.Start {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, iv)
	}
	a.tasks = append(a.tasks, t)
	return nil
}

// AddProhibited adds a range that no merged span may bridge.
// It is never transferred on its own account.
func (a *Aggregator) AddProhibited(iv Interval) {
	a.prohibited = append(a.prohibited, iv)
}

// Stream returns the toplevel tasks in ascending start order, each with its
// children attached in (start, end) order.
func (a *Aggregator) Stream() ([]*ToplevelTask, error) {
	tasks := slices.Clone(a.tasks)
	slices.SortStableFunc(tasks, func(x, y Task) int {
		return x.Interval().Compare(y.Interval())
	})

	var (
		out     []*ToplevelTask
		span    Interval
		members []Task
	)

	flush := func() error {
		if len(members) == 0 {
			return nil
		}
		tt, err := a.factory(span.Start, span.End, a.mode)
		if err != nil {
			return fmt.Errorf("block: factory %s: %w", span, err)
		}
		if tt.Mode() != a.mode {
			return fmt.Errorf("%w: factory built %s task for %s group", ErrModeMismatch, tt.Mode(), a.mode)
		}
		for _, m := range members {
			if err := tt.AddChild(m); err != nil {
				return err
			}
		}
		out = append(out, tt)
		members = nil
		return nil
	}

	for _, t := range tasks {
		iv := t.Interval()
		if len(members) > 0 && a.joins(span, iv) {
			members = append(members, t)
			if iv.End > span.End {
				span.End = iv.End
			}
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		span = iv
		members = []Task{t}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return out, nil
}

// joins reports whether iv (sorted at or after span.Start) extends span.
// Overlapping or touching intervals always join: an input must land in
// exactly one group.
func (a *Aggregator) joins(span, iv Interval) bool {
	if iv.Start <= span.End {
		return true
	}
	if iv.Start-span.End > a.minGap {
		return false
	}
	return !a.blocked(span.End, iv.Start)
}

// blocked reports whether a prohibited interval touches the gap [from, to).
func (a *Aggregator) blocked(from, to uint32) bool {
	for _, p := range a.prohibited {
		if p.Start < to && p.End > from {
			return true
		}
		if p.Len() == 0 && p.Start >= from && p.Start < to {
			return true
		}
	}
	return false
}

// UpdateAggregator groups Write and Update tasks for one write cycle.
//
// Write groups merge only on adjacency or overlap: a write never touches a
// byte that was not requested. Update tasks additionally get Read groups from
// an independent pass with its own gap, since over-reading is harmless.
// Stream yields the Read groups first, then the Write groups.
type UpdateAggregator struct {
	read  *Aggregator
	write *Aggregator
}

func NewUpdateAggregator(readMinGap uint32, factory Factory) (*UpdateAggregator, error) {
	r, err := NewAggregator(Read, readMinGap, factory)
	if err != nil {
		return nil, err
	}
	w, err := NewAggregator(Write, 0, factory)
	if err != nil {
		return nil, err
	}
	return &UpdateAggregator{read: r, write: w}, nil
}

// AddBlock accepts Write and Update tasks. A Read task is a contract violation.
func (u *UpdateAggregator) AddBlock(t Task) error {
	switch t.Mode() {
	case Write:
		return u.write.AddBlock(t)
	case Update:
		if err := u.write.AddBlock(t); err != nil {
			return err
		}
		return u.read.AddBlock(t)
	default:
		return fmt.Errorf("%w: %s task %s in update aggregator", ErrModeMismatch, t.Mode(), t.Interval())
	}
}

// AddProhibited constrains both passes.
func (u *UpdateAggregator) AddProhibited(iv Interval) {
	u.read.AddProhibited(iv)
	u.write.AddProhibited(iv)
}

func (u *UpdateAggregator) Stream() ([]*ToplevelTask, error) {
	reads, err := u.read.Stream()
	if err != nil {
		return nil, err
	}
	writes, err := u.write.Stream()
	if err != nil {
		return nil, err
	}
	return append(reads, writes...), nil
}
