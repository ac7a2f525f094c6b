// internal/driver/driver_test.go
package driver

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-blockio/internal/block"
	"github.com/tamzrod/modbus-blockio/internal/codec"
	"github.com/tamzrod/modbus-blockio/internal/field"
	"github.com/tamzrod/modbus-blockio/internal/modbus"
	"github.com/tamzrod/modbus-blockio/internal/status"
)

type transfer struct {
	write  bool
	domain string
	iv     block.Interval
}

// fakeTransport keeps a small image per domain and records every transfer.
type fakeTransport struct {
	mem       map[string][]byte
	failStart map[uint32]bool
	transfers []transfer
}

var errDevice = errors.New("device timeout")

func newFakeTransport() *fakeTransport {
	f := &fakeTransport{mem: map[string][]byte{}, failStart: map[uint32]bool{}}
	for _, d := range modbus.Domains() {
		f.mem[d] = make([]byte, 64)
	}
	return f
}

func (f *fakeTransport) ReadBlock(domain string, start uint32, out []byte) error {
	f.transfers = append(f.transfers, transfer{false, domain, block.Interval{Start: start, End: start + uint32(len(out))}})
	if f.failStart[start] {
		return errDevice
	}
	copy(out, f.mem[domain][start:])
	return nil
}

func (f *fakeTransport) WriteBlock(domain string, start uint32, data []byte) error {
	f.transfers = append(f.transfers, transfer{true, domain, block.Interval{Start: start, End: start + uint32(len(data))}})
	if f.failStart[start] {
		return errDevice
	}
	copy(f.mem[domain][start:], data)
	return nil
}

func (f *fakeTransport) Geometry(domain string) (modbus.Geometry, error) {
	return modbus.DomainGeometry(domain)
}

func newDriver(t *testing.T, tr Transport, mod func(*Config)) *Driver {
	t.Helper()
	logger.New("NOOP")
	t.Cleanup(logger.OnExit)

	cfg := Config{
		Transport: tr,
		Log:       logger.Sugar.WithServiceName("driver-test"),
		Now:       func() time.Time { return time.Unix(1700000000, 0) },
	}
	if mod != nil {
		mod(&cfg)
	}
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

func reg(name string, off uint32, typ codec.Type) *field.Record {
	return &field.Record{Name: name, Domain: modbus.HoldingRegisters, Field: field.Field{Type: typ, Offset: off}}
}

func TestRead_CoalescesWithinGap(t *testing.T) {
	tr := newFakeTransport()
	copy(tr.mem[modbus.HoldingRegisters], []byte{0x00, 0x01, 0xAA, 0xBB, 0x00, 0x02})

	d := newDriver(t, tr, func(c *Config) { c.ReadMinGap = 2 })
	a, b := reg("a", 0, codec.TypeUint16), reg("b", 4, codec.TypeUint16)

	res, err := d.Read([]*field.Record{a, b})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Transfers)
	assert.Equal(t, []transfer{{false, modbus.HoldingRegisters, block.Interval{Start: 0, End: 6}}}, tr.transfers)
	assert.Equal(t, uint16(1), a.Value)
	assert.Equal(t, uint16(2), b.Value)
	assert.Equal(t, 0, res.Failed)
}

func TestRead_GapAndProhibitedSplit(t *testing.T) {
	tr := newFakeTransport()
	d := newDriver(t, tr, func(c *Config) {
		c.ReadMinGap = 10
		c.Prohibited = map[string][]block.Interval{
			modbus.HoldingRegisters: {{Start: 2, End: 4}},
		}
	})

	_, err := d.Read([]*field.Record{reg("a", 0, codec.TypeUint16), reg("b", 4, codec.TypeUint16)})
	require.NoError(t, err)
	assert.Len(t, tr.transfers, 2)

	tr.transfers = nil
	d = newDriver(t, tr, nil)
	_, err = d.Read([]*field.Record{reg("a", 0, codec.TypeUint16), reg("b", 4, codec.TypeUint16)})
	require.NoError(t, err)
	assert.Len(t, tr.transfers, 2, "gap 0 never bridges")
}

func TestRead_FailedTransferOnlyFailsItsGroup(t *testing.T) {
	tr := newFakeTransport()
	tr.failStart[10] = true
	d := newDriver(t, tr, nil)

	good, bad := reg("good", 0, codec.TypeUint16), reg("bad", 10, codec.TypeUint16)
	res, err := d.Read([]*field.Record{good, bad})

	require.ErrorIs(t, err, errDevice)
	assert.Equal(t, status.ChannelGood, good.Status)
	assert.Equal(t, status.ChannelFailure, bad.Status)
	assert.ErrorIs(t, bad.Err, errDevice)
	assert.Equal(t, 1, res.Failed)
}

func TestRead_ResultsInRequestOrder(t *testing.T) {
	tr := newFakeTransport()
	d := newDriver(t, tr, nil)

	recs := []*field.Record{
		reg("z", 8, codec.TypeUint16),
		{Name: "c", Domain: modbus.Coils, Field: field.Field{Type: codec.TypeBool, Offset: 0, Bit: 1}},
		reg("a", 0, codec.TypeUint16),
	}
	res, err := d.Read(recs)
	require.NoError(t, err)

	var names []string
	for name := range res.Records.AllFromFront() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"z", "c", "a"}, names)

	_, err = uuid.Parse(res.CycleID)
	require.NoError(t, err)
}

func TestRead_UnknownDomainAndDuplicates(t *testing.T) {
	tr := newFakeTransport()
	d := newDriver(t, tr, nil)

	ok := reg("ok", 0, codec.TypeUint16)
	lost := &field.Record{Name: "lost", Domain: "memory", Field: field.Field{Type: codec.TypeUint16}}
	dup := reg("ok", 2, codec.TypeUint16)

	res, err := d.Read([]*field.Record{ok, lost, dup})
	require.ErrorIs(t, err, modbus.ErrUnknownDomain)
	require.ErrorIs(t, err, ErrDuplicateName)

	assert.Equal(t, status.ChannelGood, ok.Status)
	assert.Equal(t, status.ChannelFailure, lost.Status)
	assert.Equal(t, status.ChannelFailure, dup.Status)
	assert.Equal(t, 2, res.Records.Len())
	assert.Equal(t, 1, res.Failed)
}

func TestWrite_AlignedValues(t *testing.T) {
	tr := newFakeTransport()
	d := newDriver(t, tr, nil)

	a := reg("a", 0, codec.TypeUint16)
	a.Value = 0x0102
	b := reg("b", 2, codec.TypeInt16)
	b.Value = -1

	res, err := d.Write([]*field.Record{a, b})
	require.NoError(t, err)

	assert.Equal(t, []transfer{{true, modbus.HoldingRegisters, block.Interval{Start: 0, End: 4}}}, tr.transfers)
	assert.Equal(t, []byte{0x01, 0x02, 0xFF, 0xFF}, tr.mem[modbus.HoldingRegisters][:4])
	assert.Equal(t, 1, res.Transfers)
}

func TestWrite_UnalignedIsReadModifyWrite(t *testing.T) {
	tr := newFakeTransport()
	copy(tr.mem[modbus.HoldingRegisters][4:], []byte{0xAA, 0xBB})
	d := newDriver(t, tr, nil)

	lo := reg("lo", 5, codec.TypeUint8)
	lo.Value = 0x11

	_, err := d.Write([]*field.Record{lo})
	require.NoError(t, err)

	assert.Equal(t, []transfer{
		{false, modbus.HoldingRegisters, block.Interval{Start: 4, End: 6}},
		{true, modbus.HoldingRegisters, block.Interval{Start: 4, End: 6}},
	}, tr.transfers)
	assert.Equal(t, []byte{0xAA, 0x11}, tr.mem[modbus.HoldingRegisters][4:6])
	assert.Equal(t, status.ChannelGood, lo.Status)
}

func TestWrite_WordAndBitOfSameRegister(t *testing.T) {
	tr := newFakeTransport()
	d := newDriver(t, tr, nil)

	word := reg("word", 0, codec.TypeUint16)
	word.Value = 0x1234
	flag := reg("flag", 1, codec.TypeBool)
	flag.Value = true

	_, err := d.Write([]*field.Record{word, flag})
	require.NoError(t, err)

	assert.Equal(t, []byte{0x12, 0x35}, tr.mem[modbus.HoldingRegisters][:2])
	assert.Equal(t, status.ChannelGood, word.Status)
	assert.Equal(t, status.ChannelGood, flag.Status)
	assert.Equal(t, []transfer{
		{false, modbus.HoldingRegisters, block.Interval{Start: 0, End: 2}},
		{true, modbus.HoldingRegisters, block.Interval{Start: 0, End: 2}},
	}, tr.transfers)
}

func TestWrite_FailedReadAbortsUpdate(t *testing.T) {
	tr := newFakeTransport()
	tr.failStart[4] = true
	d := newDriver(t, tr, nil)

	lo := reg("lo", 5, codec.TypeUint8)
	lo.Value = 1

	_, err := d.Write([]*field.Record{lo})
	require.Error(t, err)
	require.ErrorIs(t, err, errDevice)

	assert.Equal(t, status.ChannelFailure, lo.Status)
	assert.False(t, slices.ContainsFunc(tr.transfers, func(x transfer) bool { return x.write }),
		"no write after a failed read")
}

func TestWrite_ReadOnlyDomain(t *testing.T) {
	tr := newFakeTransport()
	d := newDriver(t, tr, nil)

	r := &field.Record{Name: "ir", Domain: modbus.InputRegisters, Field: field.Field{Type: codec.TypeUint16}, Value: 1}
	_, err := d.Write([]*field.Record{r})

	require.ErrorIs(t, err, ErrReadOnly)
	assert.Equal(t, status.ChannelFailure, r.Status)
	assert.Empty(t, tr.transfers)
}

func TestWrite_CoilBits(t *testing.T) {
	tr := newFakeTransport()
	tr.mem[modbus.Coils][1] = 0x80
	d := newDriver(t, tr, func(c *Config) { c.UpdateReadMinGap = 4 })

	var recs []*field.Record
	for i, bit := range []uint8{0, 3} {
		recs = append(recs, &field.Record{
			Name:   fmt.Sprintf("c%d", i),
			Domain: modbus.Coils,
			Field:  field.Field{Type: codec.TypeBool, Offset: 1, Bit: bit},
			Value:  true,
		})
	}

	_, err := d.Write(recs)
	require.NoError(t, err)
	assert.Equal(t, byte(0x89), tr.mem[modbus.Coils][1])
}

func TestNew_Validates(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	logger.New("NOOP")
	defer logger.OnExit()
	_, err = New(Config{
		Transport:  newFakeTransport(),
		Log:        logger.Sugar.WithServiceName("driver-test"),
		Prohibited: map[string][]block.Interval{modbus.Coils: {{Start: 4, End: 2}}},
	})
	require.ErrorIs(t, err, block.ErrInvalidInterval)
}
