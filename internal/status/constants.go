// internal/status/constants.go
package status

// Channel status codes carried by every channel record.
// These values are part of the published result and MUST NOT change.

// ---- CHANNEL ----

// Channel is the outcome of one channel in one cycle.
type Channel uint16

// ChannelUnknown means the channel has not been executed this cycle.
const ChannelUnknown Channel = 0

// ChannelGood means the value was transferred and decoded.
const ChannelGood Channel = 1

// ChannelFailure means the transfer, the codec or the task contract failed.
const ChannelFailure Channel = 2

func (c Channel) String() string {
	switch c {
	case ChannelGood:
		return "good"
	case ChannelFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// ---- STATUS BLOCK GEOMETRY ----

// Device status block layout. The block is SlotsPerDevice holding registers
// and these values define the published layout: they MUST NOT be configurable.

// SlotsPerDevice is the fixed number of register slots per device.
const SlotsPerDevice = 20

// SlotBytes is the width of one slot in the byte address space.
const SlotBytes = 2

// SlotHealthCode holds the device health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last raw error code.
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the device has been in error.
const SlotSecondsInError = 2

// Slots 3..10 are reserved and written as zero.
const (
	SlotReservedStart = 3
	SlotReservedEnd   = 10
)

// SlotDeviceNameStart is the first slot of the device name.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = SlotDeviceNameSlots * SlotBytes

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy device.
const HealthOK uint16 = 1

// HealthError represents a device error state.
const HealthError uint16 = 2

// HealthDegraded means the cycle completed but some channels failed.
const HealthDegraded uint16 = 3

// ---- LIMITS ----

// SecondsInErrorMax is where the error counter saturates. It MUST NOT wrap.
const SecondsInErrorMax uint16 = 65535
