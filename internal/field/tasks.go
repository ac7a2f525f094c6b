// internal/field/tasks.go
package field

import (
	"fmt"
	"time"

	"github.com/tamzrod/modbus-blockio/internal/block"
	"github.com/tamzrod/modbus-blockio/internal/codec"
)

// Options carries what the leaf tasks need from the embedding driver.
type Options struct {
	// WriteAlign is the write granularity of the domain in bytes
	// (2 for registers, 1 for bit-packed areas). Writes that do not cover
	// whole units become read-modify-write updates.
	WriteAlign uint32

	OnTruncate codec.TruncateFunc
	Now        func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// NewReadTask returns the Read task of rec.
func NewReadTask(rec *Record, opts Options) (block.Task, error) {
	if err := rec.Field.Validate(); err != nil {
		return nil, fmt.Errorf("channel %q: %w", rec.Name, err)
	}
	t := &ReadTask{
		Base: block.NewBase(rec.Field.Interval(), block.Read),
		rec:  rec,
		opts: opts,
	}
	if rec.Field.Type != codec.TypeBool {
		c, err := codec.For(rec.Field.Type, rec.Field.Order, rec.Field.Size, opts.OnTruncate)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", rec.Name, err)
		}
		t.codec = c
	}
	return t, nil
}

// NewWriteTask returns a plain Write task when rec covers whole write units,
// otherwise an Update task over the enclosing aligned span.
// rec.Value is coerced to the field type here so bad values fail early.
func NewWriteTask(rec *Record, opts Options) (block.Task, error) {
	return newWriteTask(rec, opts, false)
}

// NewUpdateTask always returns a read-modify-write Update task, even when
// rec covers whole write units. A write that shares bytes with another
// update of the same cycle must go this way, or the update's copy of the
// device span would overwrite it.
func NewUpdateTask(rec *Record, opts Options) (block.Task, error) {
	return newWriteTask(rec, opts, true)
}

func newWriteTask(rec *Record, opts Options, update bool) (block.Task, error) {
	f := rec.Field
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("channel %q: %w", rec.Name, err)
	}
	v, err := Coerce(f.Type, rec.Value)
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", rec.Name, err)
	}

	var c codec.Any
	if f.Type != codec.TypeBool {
		c, err = codec.For(f.Type, f.Order, f.Size, opts.OnTruncate)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", rec.Name, err)
		}
	}

	align := opts.WriteAlign
	if align == 0 {
		align = 1
	}
	iv := f.Interval()
	aligned := block.Interval{
		Start: iv.Start / align * align,
		End:   (iv.End + align - 1) / align * align,
	}

	if !update && f.Type != codec.TypeBool && aligned == iv {
		return &WriteTask{
			Base:  block.NewBase(iv, block.Write),
			rec:   rec,
			value: v,
			codec: c,
			opts:  opts,
		}, nil
	}

	return &UpdateTask{
		Base:  block.NewBase(aligned, block.Update),
		rec:   rec,
		value: v,
		codec: c,
		opts:  opts,
	}, nil
}

// NewWriteTasks builds the write tasks of one domain. Plain writes that
// share bytes with an update are turned into updates until none is left,
// so every patch of a span chains through the same read snapshot.
// The result is index-aligned with recs; a nil task has its error in errs.
func NewWriteTasks(recs []*Record, opts Options) ([]block.Task, []error) {
	tasks := make([]block.Task, len(recs))
	errs := make([]error, len(recs))
	for i, r := range recs {
		tasks[i], errs[i] = NewWriteTask(r, opts)
	}

	for changed := true; changed; {
		changed = false
		for i, t := range tasks {
			if t == nil || t.Mode() != block.Write || !overlapsUpdate(tasks, t.Interval()) {
				continue
			}
			tasks[i], errs[i] = NewUpdateTask(recs[i], opts)
			changed = true
		}
	}
	return tasks, errs
}

func overlapsUpdate(tasks []block.Task, iv block.Interval) bool {
	for _, t := range tasks {
		if t != nil && t.Mode() == block.Update && t.Interval().Overlaps(iv) {
			return true
		}
	}
	return false
}

// RecordOf returns the channel record a task reports into.
func RecordOf(t block.Task) (*Record, bool) {
	switch v := t.(type) {
	case *ReadTask:
		return v.rec, true
	case *WriteTask:
		return v.rec, true
	case *UpdateTask:
		return v.rec, true
	}
	return nil, false
}

// ---- read ----

// ReadTask decodes one field out of its parent's buffer.
type ReadTask struct {
	block.Base

	rec   *Record
	codec codec.Any
	opts  Options
	value any
}

func (t *ReadTask) Run(parent *block.ToplevelTask) error {
	f := t.rec.Field
	off, err := parent.Offset(f.Offset)
	if err != nil {
		return err
	}

	if f.Type == codec.TypeBool {
		b, err := parent.Buffer().Get(off)
		if err != nil {
			return err
		}
		t.value = codec.GetBit(b, f.Bit)
		return nil
	}

	v, err := t.codec.DecodeAny(parent.Buffer(), off)
	if err != nil {
		return err
	}
	t.value = v
	return nil
}

func (t *ReadTask) OnSuccess() {
	if t.MarkSucceeded() {
		t.rec.Value = t.value
		t.rec.succeed(t.opts.now())
	}
}

func (t *ReadTask) OnFailure(err error) {
	if t.MarkFailed(err) {
		t.rec.Value = nil
		t.rec.Fail(err, t.opts.now())
	}
}

// ---- write ----

// WriteTask encodes one field into its parent's buffer.
type WriteTask struct {
	block.Base

	rec   *Record
	value any
	codec codec.Any
	opts  Options
}

func (t *WriteTask) Run(parent *block.ToplevelTask) error {
	off, err := parent.Offset(t.rec.Field.Offset)
	if err != nil {
		return err
	}
	return t.codec.EncodeAny(parent.Buffer(), off, t.value)
}

func (t *WriteTask) OnSuccess() {
	if t.MarkSucceeded() {
		t.rec.succeed(t.opts.now())
	}
}

func (t *WriteTask) OnFailure(err error) {
	if t.MarkFailed(err) {
		t.rec.Fail(err, t.opts.now())
	}
}

// ---- update ----

// UpdateTask writes a field that does not cover whole write units: a bit,
// or a value narrower than a register. Its interval is the enclosing
// aligned span. The device's current span comes from the read parent, the
// field is patched in, and the span goes to the write parent and back into
// the read snapshot.
type UpdateTask struct {
	block.Base

	rec   *Record
	value any
	codec codec.Any
	opts  Options
}

func (t *UpdateTask) Update(write, read *block.ToplevelTask) error {
	iv := t.Interval()
	roff, err := read.Offset(iv.Start)
	if err != nil {
		return err
	}
	woff, err := write.Offset(iv.Start)
	if err != nil {
		return err
	}

	span := make([]byte, iv.Len())
	if err := block.ReadBytes(read.Buffer(), roff, span); err != nil {
		return err
	}

	f := t.rec.Field
	foff := f.Offset - iv.Start
	if f.Type == codec.TypeBool {
		span[foff] = codec.SetBit(span[foff], f.Bit, t.value.(bool))
	} else if err := t.codec.EncodeAny(block.WrapBytes(span), foff, t.value); err != nil {
		return err
	}

	// Later updates over the same span build on this patch.
	if err := block.WriteBytes(read.Buffer(), roff, span); err != nil {
		return err
	}
	return block.WriteBytes(write.Buffer(), woff, span)
}

func (t *UpdateTask) OnSuccess() {
	if t.MarkSucceeded() {
		t.rec.succeed(t.opts.now())
	}
}

func (t *UpdateTask) OnFailure(err error) {
	if t.MarkFailed(err) {
		t.rec.Fail(err, t.opts.now())
	}
}
