// internal/block/toplevel.go
package block

import "fmt"

// Processor performs one contiguous physical transfer for a toplevel task:
// fill t.Buffer() from the device (Read) or send it (Write).
type Processor interface {
	ProcessBuffer(t *ToplevelTask) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(t *ToplevelTask) error

func (f ProcessorFunc) ProcessBuffer(t *ToplevelTask) error { return f(t) }

// ToplevelTask is the unit of one physical transfer. It owns a Buffer sized
// to its interval and drives its children against that buffer.
// Toplevel tasks do not nest and live for exactly one Run.
type ToplevelTask struct {
	iv   Interval
	mode Mode
	buf  Buffer
	proc Processor

	children []Task
	cycle    *Cycle

	ran      bool
	aborted  bool
	abortErr error
}

// NewToplevel builds a task with an ArrayBuffer sized to iv.
func NewToplevel(iv Interval, mode Mode, proc Processor) (*ToplevelTask, error) {
	return NewToplevelWithBuffer(iv, mode, proc, NewArrayBuffer(iv.Len()))
}

// NewToplevelWithBuffer builds a task over a caller-supplied buffer,
// which must be exactly iv.Len() bytes long.
func NewToplevelWithBuffer(iv Interval, mode Mode, proc Processor, buf Buffer) (*ToplevelTask, error) {
	if iv.End < iv.Start {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, iv)
	}
	if mode != Read && mode != Write {
		return nil, fmt.Errorf("%w: toplevel task cannot run in %s mode", ErrModeMismatch, mode)
	}
	if proc == nil {
		return nil, fmt.Errorf("block: toplevel %s: processor required", iv)
	}
	if buf == nil || buf.Len() != iv.Len() {
		return nil, fmt.Errorf("block: toplevel %s: buffer length must be %d", iv, iv.Len())
	}
	return &ToplevelTask{iv: iv, mode: mode, buf: buf, proc: proc}, nil
}

func (t *ToplevelTask) Interval() Interval { return t.iv }
func (t *ToplevelTask) Mode() Mode         { return t.mode }
func (t *ToplevelTask) Buffer() Buffer     { return t.buf }
func (t *ToplevelTask) Children() []Task   { return t.children }
func (t *ToplevelTask) Aborted() bool      { return t.aborted }

// Offset translates an absolute device address into an offset in Buffer().
func (t *ToplevelTask) Offset(addr uint32) (uint32, error) {
	if addr < t.iv.Start || addr > t.iv.End {
		return 0, fmt.Errorf("%w: address %d outside %s", ErrOutOfBounds, addr, t.iv)
	}
	return addr - t.iv.Start, nil
}

// AddChild appends c to the ordered child list.
// Contract violations fail here and leave the list unchanged.
func (t *ToplevelTask) AddChild(c Task) error {
	civ := c.Interval()
	if !t.iv.Contains(civ) {
		return fmt.Errorf("%w: child %s, parent %s", ErrNotContained, civ, t.iv)
	}
	if !t.mode.accepts(c.Mode()) {
		return fmt.Errorf("%w: %s child in %s toplevel", ErrModeMismatch, c.Mode(), t.mode)
	}
	switch c.Mode() {
	case Read, Write:
		if _, ok := c.(Runner); !ok {
			return fmt.Errorf("%w: %s task %s is not a Runner", ErrNotRunnable, c.Mode(), civ)
		}
	case Update:
		if _, ok := c.(Updater); !ok {
			return fmt.Errorf("%w: update task %s is not an Updater", ErrNotRunnable, civ)
		}
	}
	t.children = append(t.children, c)
	return nil
}

// Run performs the transfer and drives the children.
//
// Read: transfer first, then children in order.
// Write: children in order, then transfer, then OnSuccess on every child.
// Any transfer failure fans out OnFailure to every child and is returned.
func (t *ToplevelTask) Run(c *Cycle) error {
	if t.ran {
		return fmt.Errorf("%w: %s %s", ErrAlreadyRun, t.mode, t.iv)
	}
	t.ran = true

	if c == nil {
		c = NewCycle()
	}
	t.cycle = c

	switch t.mode {
	case Read:
		return t.runRead(c)
	case Write:
		return t.runWrite(c)
	default:
		return fmt.Errorf("%w: toplevel %s", ErrModeMismatch, t.mode)
	}
}

func (t *ToplevelTask) runRead(c *Cycle) error {
	if err := t.proc.ProcessBuffer(t); err != nil {
		t.OnFailure(err)
		return err
	}

	for _, child := range t.children {
		err := t.runChild(c, child)
		if t.aborted {
			return t.abortErr
		}
		if child.Mode() == Update {
			// outcome belongs to the Write pass
			continue
		}
		if err != nil {
			child.OnFailure(err)
			continue
		}
		child.OnSuccess()
	}
	return nil
}

func (t *ToplevelTask) runWrite(c *Cycle) error {
	for _, child := range t.children {
		err := t.runChild(c, child)
		if t.aborted {
			return t.abortErr
		}
		if err != nil {
			t.OnFailure(err)
			return err
		}
	}

	if err := t.proc.ProcessBuffer(t); err != nil {
		t.OnFailure(err)
		return err
	}

	t.OnSuccess()
	return nil
}

func (t *ToplevelTask) runChild(c *Cycle, child Task) error {
	if s, ok := child.(starter); ok {
		s.start()
	}

	switch child.Mode() {
	case Read, Write:
		return child.(Runner).Run(t)

	case Update:
		if t.mode == Read {
			c.remember(child, t)
			return nil
		}
		read, ok := c.take(child)
		if !ok {
			t.Abort(ErrReadNotSucceeded)
			return ErrReadNotSucceeded
		}
		return child.(Updater).Update(t, read)

	default:
		return fmt.Errorf("%w: child %s", ErrModeMismatch, child.Mode())
	}
}

// Abort stops the remaining children and fails every child of t,
// including the ones that already ran. Only the first abort counts.
// Update children of an aborted Read lose their read parent, so the Write
// pass aborts their group instead of sending a failed patch.
func (t *ToplevelTask) Abort(err error) {
	if t.aborted {
		return
	}
	t.aborted = true
	t.abortErr = err
	if t.mode == Read && t.cycle != nil {
		for _, child := range t.children {
			if child.Mode() == Update {
				t.cycle.take(child)
			}
		}
	}
	t.OnFailure(err)
}

func (t *ToplevelTask) OnSuccess() {
	for _, child := range t.children {
		child.OnSuccess()
	}
}

func (t *ToplevelTask) OnFailure(err error) {
	for _, child := range t.children {
		child.OnFailure(err)
	}
}
