// internal/block/task.go
package block

// Task is a field-level operation scoped to one Interval.
// A task never stores its parent: the running ToplevelTask passes itself in.
// Tasks are used as map keys for the duration of a Cycle, so implementations
// should be pointer types.
type Task interface {
	Interval() Interval
	Mode() Mode
	OnSuccess()
	OnFailure(err error)
}

// Runner is the behavior of Read and Write tasks.
// Read tasks consume parent.Buffer(); Write tasks fill it.
type Runner interface {
	Run(parent *ToplevelTask) error
}

// Updater is the behavior of Update tasks. read holds the device's prior
// bytes, write is the buffer that will be sent back.
type Updater interface {
	Update(write, read *ToplevelTask) error
}

// TaskState is the lifecycle of a leaf task.
type TaskState uint8

const (
	Created TaskState = iota
	Running
	Succeeded
	Failed
)

func (s TaskState) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Base carries interval, mode and lifecycle for leaf tasks.
// Embed it and implement OnSuccess/OnFailure on top of MarkSucceeded/MarkFailed.
type Base struct {
	iv    Interval
	mode  Mode
	state TaskState
	err   error
}

func NewBase(iv Interval, mode Mode) Base {
	return Base{iv: iv, mode: mode}
}

func (b *Base) Interval() Interval { return b.iv }
func (b *Base) Mode() Mode         { return b.mode }
func (b *Base) State() TaskState   { return b.state }
func (b *Base) Err() error         { return b.err }

func (b *Base) start() {
	if b.state == Created {
		b.state = Running
	}
}

// MarkSucceeded reports whether the transition happened.
// Only Created or Running tasks can succeed.
func (b *Base) MarkSucceeded() bool {
	if b.state != Created && b.state != Running {
		return false
	}
	b.state = Succeeded
	return true
}

// MarkFailed reports whether the transition happened.
// Failed is absorbing. Succeeded -> Failed is allowed because a toplevel
// abort fans out to every child, including ones that already finished.
func (b *Base) MarkFailed(err error) bool {
	if b.state == Failed {
		return false
	}
	b.state = Failed
	b.err = err
	return true
}

type starter interface {
	start()
}
