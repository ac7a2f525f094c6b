// internal/block/helpers_test.go
package block

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// ---- fake leaf task ----

type fakeTask struct {
	Base

	runs      int
	updates   int
	successes int
	failures  []error

	runErr   error
	abortErr error
	fill     byte
}

func newFake(start, end uint32, mode Mode) *fakeTask {
	return &fakeTask{Base: NewBase(Interval{Start: start, End: end}, mode)}
}

func (f *fakeTask) Run(parent *ToplevelTask) error {
	f.runs++
	if f.abortErr != nil {
		parent.Abort(f.abortErr)
		return nil
	}
	if f.runErr != nil {
		return f.runErr
	}
	if parent.Mode() == Write {
		off, err := parent.Offset(f.Interval().Start)
		if err != nil {
			return err
		}
		data := make([]byte, f.Interval().Len())
		for i := range data {
			data[i] = f.fill
		}
		return WriteBytes(parent.Buffer(), off, data)
	}
	return nil
}

func (f *fakeTask) Update(write, read *ToplevelTask) error {
	f.updates++
	if f.runErr != nil {
		return f.runErr
	}
	roff, err := read.Offset(f.Interval().Start)
	if err != nil {
		return err
	}
	woff, err := write.Offset(f.Interval().Start)
	if err != nil {
		return err
	}
	data := make([]byte, f.Interval().Len())
	if err := ReadBytes(read.Buffer(), roff, data); err != nil {
		return err
	}
	for i := range data {
		data[i] |= f.fill
	}
	return WriteBytes(write.Buffer(), woff, data)
}

func (f *fakeTask) OnSuccess() {
	f.successes++
	f.MarkSucceeded()
}

func (f *fakeTask) OnFailure(err error) {
	f.failures = append(f.failures, err)
	f.MarkFailed(err)
}

// ---- fake transport ----

// fakeDevice is a flat byte memory. Read groups copy out of it,
// Write groups copy into it.
type fakeDevice struct {
	mem       []byte
	failReads bool
	failWrite bool
	transfers []Interval
}

var errTransfer = errors.New("transfer failed")

func (d *fakeDevice) ProcessBuffer(t *ToplevelTask) error {
	d.transfers = append(d.transfers, t.Interval())
	iv := t.Interval()
	buf := t.Buffer().(*ArrayBuffer).Bytes()
	switch t.Mode() {
	case Read:
		if d.failReads {
			return errTransfer
		}
		copy(buf, d.mem[iv.Start:iv.End])
	case Write:
		if d.failWrite {
			return errTransfer
		}
		copy(d.mem[iv.Start:iv.End], buf)
	}
	return nil
}

func (d *fakeDevice) factory() Factory {
	return func(start, end uint32, mode Mode) (*ToplevelTask, error) {
		return NewToplevel(Interval{Start: start, End: end}, mode, d)
	}
}

func intervalsOf(tasks []*ToplevelTask) []Interval {
	out := make([]Interval, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Interval())
	}
	return out
}

func mustToplevel(t *testing.T, start, end uint32, mode Mode, p Processor) *ToplevelTask {
	t.Helper()
	tt, err := NewToplevel(Interval{Start: start, End: end}, mode, p)
	require.NoError(t, err)
	return tt
}
